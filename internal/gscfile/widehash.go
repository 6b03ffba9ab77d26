package gscfile

import (
	"fmt"
	"io"

	"github.com/gsctools/gscdis/internal/gscfmt"
)

// wideHashReader implements the wide-hash family layout: full 64-bit
// hashes in place of interned indices, 16-bit-aligned halfword opcodes,
// and both animtree tables (the double-ref table patched only after the
// single-ref table, per §4.2's ordering constraint).
type wideHashReader struct {
	blob []byte
	desc VMDescriptor
	hdr  *Header
}

func newWideHashReader(blob []byte, desc VMDescriptor) (Reader, error) {
	s := gscfmt.NewStreamAt(blob, 8)
	hdr, err := parseHeader(s, true)
	if err != nil {
		return nil, err
	}
	return &wideHashReader{blob: blob, desc: desc, hdr: hdr}, nil
}

func (r *wideHashReader) Descriptor() VMDescriptor { return r.desc }
func (r *wideHashReader) NameHash() uint64          { return r.hdr.NameHash }

func (r *wideHashReader) Name(resolve func(uint64) (string, bool)) string {
	if resolve == nil {
		return ""
	}
	if name, ok := resolve(r.hdr.NameHash); ok {
		return name
	}
	return ""
}

func (r *wideHashReader) HeaderSize() int { return int(r.hdr.CodeOffset) }
func (r *wideHashReader) FileSize() int   { return len(r.blob) }
func (r *wideHashReader) Header() *Header { return r.hdr }

func (r *wideHashReader) CodeSegment() []byte {
	start := int(r.hdr.CodeOffset)
	end := start + int(r.hdr.CodeSize)
	if start < 0 || end > len(r.blob) || start > end {
		return nil
	}
	return r.blob[start:end]
}

// DecryptString falls back to the legacy 8-bit CP1252 table for variants
// that shipped non-UTF8 string literals, re-encoding to UTF-8; blobs that
// already validate as UTF-8 pass through unchanged.
func (r *wideHashReader) DecryptString(raw []byte) string {
	return decryptLegacyString(raw)
}

func (r *wideHashReader) StringLiteral(addr uint32) (string, error) {
	return readStringLiteral(r.blob, addr, r.DecryptString)
}

// RemapImportFlags normalizes the wide-hash call-kind encoding. Call-kind
// codes 3, 6 and 7 are not documented in any known build; §9's Open
// Questions instructs us not to guess, so they coerce to FUNCTION.
// TODO: codes 3, 6, 7 are coerced to FUNCTION pending a sample that
// exercises them; do not assume this is correct without one.
func (r *wideHashReader) RemapImportFlags(raw uint8) ImportFlag {
	var f ImportFlag
	switch raw & 0x0F {
	case 0:
		f |= ImportFunction
	case 1:
		f |= ImportFunctionThread
	case 2:
		f |= ImportFunctionChildThread
	case 4:
		f |= ImportMethod
	case 5:
		f |= ImportMethodThread
	case 3, 6, 7:
		f |= ImportFunction
	default:
		f |= ImportFunction
	}
	if raw&0x40 != 0 {
		f |= ImportGetCall
	}
	if raw&0x80 != 0 {
		f |= ImportDevCall
	}
	return f
}

func (r *wideHashReader) RemapExportFlags(raw uint8) ExportFlag {
	var f ExportFlag
	bits := []ExportFlag{
		ExportAutoExec, ExportLinked, ExportPrivate, ExportClassMember,
		ExportEvent, ExportVE, ExportClassLinked, ExportClassDestructor,
	}
	for i, b := range bits {
		if raw&(1<<uint(i)) != 0 {
			f |= b
		}
	}
	if raw == 0xFF {
		return ExportClassVTable
	}
	return f
}

func (r *wideHashReader) Validate() error {
	return Validate(r.blob, r.HeaderSize())
}

func (r *wideHashReader) DumpHeader(w io.Writer) {
	dumpHeaderCommon(w, r.desc, r.hdr)
}

func (r *wideHashReader) DumpExperimental(w io.Writer, verbose bool) {
	dumpExperimentalCommon(w, r.hdr, verbose)
}

func (r *wideHashReader) ReadTables() (*Tables, error) {
	t := &Tables{}
	var err error

	if t.Includes, err = r.readIncludes(); err != nil {
		return nil, err
	}
	if t.Strings, err = r.readStrings(); err != nil {
		return nil, err
	}
	if t.Exports, err = r.readExports(); err != nil {
		return nil, err
	}
	if t.Imports, err = r.readImports(); err != nil {
		return nil, err
	}
	if t.Globals, err = r.readGlobals(); err != nil {
		return nil, err
	}
	// Single-ref animtrees MUST be read (and later patched) before
	// double-ref animtrees: the single-ref encoded slot is one byte wide
	// and can only reference the first 256 interned strings. Reading them
	// out of order is a programmer error, per §4.2.
	if t.AnimTreeSingles, err = r.readAnimTreeSingles(); err != nil {
		return nil, err
	}
	if t.AnimTreeDoubles, err = r.readAnimTreeDoubles(); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *wideHashReader) readIncludes() ([]IncludeEntry, error) {
	s := gscfmt.NewStreamAt(r.blob, int(r.hdr.IncludeOffset))
	out := make([]IncludeEntry, r.hdr.IncludeCount)
	for i := range out {
		h, err := s.ReadUint64()
		if err != nil {
			return nil, fmt.Errorf("gscfile: include %d: %w", i, err)
		}
		out[i] = IncludeEntry{NameHash: h}
	}
	return out, nil
}

func (r *wideHashReader) readStrings() ([]StringEntry, error) {
	s := gscfmt.NewStreamAt(r.blob, int(r.hdr.StringOffset))
	out := make([]StringEntry, r.hdr.StringCount)
	for i := range out {
		addr, err := s.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("gscfile: string %d addr: %w", i, err)
		}
		count, _ := s.ReadUint32()
		typ, _ := s.ReadUint8()
		s.Skip(3)
		fixups, err := readFixups(s, count)
		if err != nil {
			return nil, err
		}
		out[i] = StringEntry{Address: addr, Count: count, Type: typ, Fixups: fixups}
	}
	return out, nil
}

func (r *wideHashReader) readExports() ([]ExportEntry, error) {
	s := gscfmt.NewStreamAt(r.blob, int(r.hdr.ExportOffset))
	out := make([]ExportEntry, r.hdr.ExportCount)
	for i := range out {
		nsHash, _ := s.ReadUint64()
		fileNsHash, _ := s.ReadUint64() // wide-hash carries a separate file-namespace hash
		nameHash, _ := s.ReadUint64()
		checksum, _ := s.ReadUint32()
		addr, _ := s.ReadUint32()
		paramCount, _ := s.ReadUint8()
		rawFlags, err := s.ReadUint8()
		if err != nil {
			return nil, fmt.Errorf("gscfile: export %d: %w", i, err)
		}
		out[i] = ExportEntry{
			NamespaceHash:     nsHash,
			FileNamespaceHash: fileNsHash,
			NameHash:          nameHash,
			Checksum:          checksum,
			Address:           addr,
			ParamCount:        paramCount,
			RawFlags:          rawFlags,
			Flags:             r.RemapExportFlags(rawFlags),
		}
	}
	return out, nil
}

func (r *wideHashReader) readImports() ([]ImportEntry, error) {
	s := gscfmt.NewStreamAt(r.blob, int(r.hdr.ImportOffset))
	out := make([]ImportEntry, r.hdr.ImportCount)
	for i := range out {
		nsHash, _ := s.ReadUint64()
		nameHash, _ := s.ReadUint64()
		paramCount, _ := s.ReadUint8()
		rawFlags, _ := s.ReadUint8()
		count, err := s.ReadUint16()
		if err != nil {
			return nil, fmt.Errorf("gscfile: import %d: %w", i, err)
		}
		fixups, err := readFixups(s, uint32(count))
		if err != nil {
			return nil, err
		}
		out[i] = ImportEntry{
			NamespaceHash: nsHash,
			NameHash:      nameHash,
			ParamCount:    paramCount,
			RawFlags:      rawFlags,
			Count:         count,
			Fixups:        fixups,
			Flags:         r.RemapImportFlags(rawFlags),
		}
	}
	return out, nil
}

func (r *wideHashReader) readGlobals() ([]GlobalEntry, error) {
	s := gscfmt.NewStreamAt(r.blob, int(r.hdr.GlobalOffset))
	out := make([]GlobalEntry, r.hdr.GlobalCount)
	for i := range out {
		h, _ := s.ReadUint64()
		count, err := s.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("gscfile: global %d: %w", i, err)
		}
		fixups, err := readFixups(s, count)
		if err != nil {
			return nil, err
		}
		out[i] = GlobalEntry{NameHash: h, Count: count, Fixups: fixups}
	}
	return out, nil
}

func (r *wideHashReader) readAnimTreeSingles() ([]AnimTreeSingleEntry, error) {
	s := gscfmt.NewStreamAt(r.blob, int(r.hdr.AnimTreeSingleOffset))
	out := make([]AnimTreeSingleEntry, r.hdr.AnimTreeSingleCount)
	for i := range out {
		ref, _ := s.ReadUint32()
		count, err := s.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("gscfile: animtree_single %d: %w", i, err)
		}
		fixups, err := readFixups(s, count)
		if err != nil {
			return nil, err
		}
		out[i] = AnimTreeSingleEntry{NameRef: ref, Count: count, Fixups: fixups}
	}
	return out, nil
}

func (r *wideHashReader) readAnimTreeDoubles() ([]AnimTreeDoubleEntry, error) {
	s := gscfmt.NewStreamAt(r.blob, int(r.hdr.AnimTreeDoubleOffset))
	out := make([]AnimTreeDoubleEntry, r.hdr.AnimTreeDoubleCount)
	for i := range out {
		ref1, _ := s.ReadUint32()
		ref2, _ := s.ReadUint32()
		count, err := s.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("gscfile: animtree_double %d: %w", i, err)
		}
		fixups, err := readFixups(s, count)
		if err != nil {
			return nil, err
		}
		out[i] = AnimTreeDoubleEntry{Ref1: ref1, Ref2: ref2, Count: count, Fixups: fixups}
	}
	return out, nil
}
