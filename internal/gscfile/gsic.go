package gscfile

import (
	"bytes"
	"fmt"

	"github.com/gsctools/gscdis/internal/gscfmt"
)

// gsicSignature is the 4-byte preamble of an optional wrapper some modded
// builds prepend to a script blob to carry compiled-detour metadata
// (function-replacement records applied at load time).
var gsicSignature = []byte{'G', 'S', 'I', 'C'}

const gsicFieldDetourList = 0

// StripGSIC removes a leading GSIC wrapper from blob, if present, returning
// the inner script blob plus any detours the wrapper carried. blob is
// returned unchanged when no wrapper is present.
func StripGSIC(blob []byte) ([]byte, []Detour, error) {
	if len(blob) < 8 || !bytes.Equal(blob[:4], gsicSignature) {
		return blob, nil, nil
	}

	s := gscfmt.NewStreamAt(blob, 4)
	fieldCount, err := s.ReadUint32()
	if err != nil {
		return nil, nil, fmt.Errorf("gscfile: gsic field count: %w", err)
	}

	var detours []Detour
	for i := uint32(0); i < fieldCount; i++ {
		kind, err := s.ReadUint32()
		if err != nil {
			return nil, nil, fmt.Errorf("gscfile: gsic field %d kind: %w", i, err)
		}
		size, err := s.ReadUint32()
		if err != nil {
			return nil, nil, fmt.Errorf("gscfile: gsic field %d size: %w", i, err)
		}

		fieldStart := s.Position()
		switch kind {
		case gsicFieldDetourList:
			count := size / 8
			for j := uint32(0); j < count; j++ {
				idx, err := s.ReadUint32()
				if err != nil {
					return nil, nil, fmt.Errorf("gscfile: gsic detour %d index: %w", j, err)
				}
				target, err := s.ReadUint32()
				if err != nil {
					return nil, nil, fmt.Errorf("gscfile: gsic detour %d target: %w", j, err)
				}
				detours = append(detours, Detour{Index: idx, Target: target})
			}
		default:
			// Unrecognized field kind: skip its payload rather than fail the
			// whole file, per the best-effort diagnostics policy.
			s.SetPosition(fieldStart + int(size))
		}
	}

	inner := blob[s.Position():]
	return inner, detours, nil
}
