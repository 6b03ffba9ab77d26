package gscfile

import (
	"fmt"
	"io"

	"github.com/gsctools/gscdis/internal/gscfmt"
)

// parseHeader reads the shared fixed-field header shape both families parse;
// the wide-hash family additionally carries the double-animtree table and
// reads every hash field as a full 64-bit value (FlagHash64), while the
// Treyarch family interns most references to 16-bit table indices. Exact
// byte width per field is the reader's responsibility, per §3; this struct
// is the reader's normalized output, not the on-disk layout.
func parseHeader(s *gscfmt.Stream, wide bool) (*Header, error) {
	h := &Header{Opaque: make(map[string]uint64)}

	nameHash, err := s.ReadUint64()
	if err != nil {
		return nil, fmt.Errorf("gscfile: header name_hash: %w", err)
	}
	h.NameHash = nameHash

	unk16, _ := s.ReadUint32()
	h.Opaque["unk16"] = uint64(unk16)
	unk1C, _ := s.ReadUint32()
	h.Opaque["unk1C"] = uint64(unk1C)
	if wide {
		unk22, _ := s.ReadUint32()
		h.Opaque["unk22"] = uint64(unk22)
	}

	readCountOffset := func(name string) (uint32, uint32, error) {
		c, err := s.ReadUint32()
		if err != nil {
			return 0, 0, fmt.Errorf("gscfile: header %s count: %w", name, err)
		}
		o, err := s.ReadUint32()
		if err != nil {
			return 0, 0, fmt.Errorf("gscfile: header %s offset: %w", name, err)
		}
		return c, o, nil
	}

	var err2 error
	if h.IncludeCount, h.IncludeOffset, err2 = readCountOffset("include"); err2 != nil {
		return nil, err2
	}
	if h.StringCount, h.StringOffset, err2 = readCountOffset("string"); err2 != nil {
		return nil, err2
	}
	if h.ExportCount, h.ExportOffset, err2 = readCountOffset("export"); err2 != nil {
		return nil, err2
	}
	if h.ImportCount, h.ImportOffset, err2 = readCountOffset("import"); err2 != nil {
		return nil, err2
	}
	if h.GlobalCount, h.GlobalOffset, err2 = readCountOffset("global"); err2 != nil {
		return nil, err2
	}
	if h.AnimTreeSingleCount, h.AnimTreeSingleOffset, err2 = readCountOffset("animtree_single"); err2 != nil {
		return nil, err2
	}
	if wide {
		if h.AnimTreeDoubleCount, h.AnimTreeDoubleOffset, err2 = readCountOffset("animtree_double"); err2 != nil {
			return nil, err2
		}
	}

	codeOffset, err := s.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("gscfile: header code_offset: %w", err)
	}
	codeSize, err := s.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("gscfile: header code_size: %w", err)
	}
	h.CodeOffset = codeOffset
	h.CodeSize = codeSize

	return h, nil
}

// readFixups reads count trailing uint32 code offsets (the fixup list
// every non-export table entry trails its fixed header with).
func readFixups(s *gscfmt.Stream, count uint32) ([]uint32, error) {
	out := make([]uint32, count)
	for i := range out {
		v, err := s.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("gscfile: fixup %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// readStringLiteral reads the raw null-terminated bytes at absolute offset
// addr within blob and decrypts them with decrypt, returning the final
// text. Shared by both reader families; only the decrypt hook varies.
func readStringLiteral(blob []byte, addr uint32, decrypt func([]byte) string) (string, error) {
	if int(addr) > len(blob) {
		return "", fmt.Errorf("gscfile: string literal address 0x%x out of range", addr)
	}
	start := int(addr)
	end := start
	for end < len(blob) && blob[end] != 0 {
		end++
	}
	if end >= len(blob) {
		return "", fmt.Errorf("gscfile: unterminated string literal at 0x%x", addr)
	}
	return decrypt(blob[start:end]), nil
}

func dumpHeaderCommon(w io.Writer, d VMDescriptor, h *Header) {
	fmt.Fprintf(w, "// magic .... vm=0x%02x platform=%s\n", d.VM, d.Platform)
	fmt.Fprintf(w, "// name_hash 0x%x\n", h.NameHash)
	fmt.Fprintf(w, "// includes=%d strings=%d imports=%d globals=%d animtrees=%d/%d exports=%d\n",
		h.IncludeCount, h.StringCount, h.ImportCount, h.GlobalCount,
		h.AnimTreeSingleCount, h.AnimTreeDoubleCount, h.ExportCount)
	fmt.Fprintf(w, "// code 0x%x + 0x%x\n", h.CodeOffset, h.CodeSize)
}

func dumpExperimentalCommon(w io.Writer, h *Header, verbose bool) {
	if !verbose {
		return
	}
	for _, k := range []string{"unk16", "unk1C", "unk22"} {
		if v, ok := h.Opaque[k]; ok {
			fmt.Fprintf(w, "// %s = 0x%x (opaque, unused)\n", k, v)
		}
	}
}
