package gscfile

import (
	"fmt"
	"io"

	"github.com/gsctools/gscdis/internal/gscfmt"
)

// treyarchReader implements the original Treyarch-family layout: 16-bit
// interned indices for most table references, byte-wide opcodes, a single
// animtree table.
type treyarchReader struct {
	blob []byte
	desc VMDescriptor
	hdr  *Header
}

func newTreyarchReader(blob []byte, desc VMDescriptor) (Reader, error) {
	s := gscfmt.NewStreamAt(blob, 8) // skip magic word
	hdr, err := parseHeader(s, false)
	if err != nil {
		return nil, err
	}
	return &treyarchReader{blob: blob, desc: desc, hdr: hdr}, nil
}

func (r *treyarchReader) Descriptor() VMDescriptor { return r.desc }

func (r *treyarchReader) NameHash() uint64 { return r.hdr.NameHash }

func (r *treyarchReader) Name(resolve func(uint64) (string, bool)) string {
	if resolve == nil {
		return ""
	}
	if name, ok := resolve(r.hdr.NameHash); ok {
		return name
	}
	return ""
}

func (r *treyarchReader) HeaderSize() int { return int(r.hdr.CodeOffset) }
func (r *treyarchReader) FileSize() int   { return len(r.blob) }
func (r *treyarchReader) Header() *Header { return r.hdr }

func (r *treyarchReader) CodeSegment() []byte {
	start := int(r.hdr.CodeOffset)
	end := start + int(r.hdr.CodeSize)
	if start < 0 || end > len(r.blob) || start > end {
		return nil
	}
	return r.blob[start:end]
}

func (r *treyarchReader) DecryptString(raw []byte) string {
	// Treyarch string literals are stored in plain UTF-8; no transform.
	return string(raw)
}

func (r *treyarchReader) StringLiteral(addr uint32) (string, error) {
	return readStringLiteral(r.blob, addr, r.DecryptString)
}

// RemapImportFlags normalizes Treyarch's byte-wide call-kind/modifier
// encoding into the canonical ImportFlag bits.
func (r *treyarchReader) RemapImportFlags(raw uint8) ImportFlag {
	var f ImportFlag
	switch raw & 0x0F {
	case 0:
		f |= ImportFunction
	case 1:
		f |= ImportFunctionThread
	case 2:
		f |= ImportFunctionChildThread
	case 3:
		f |= ImportMethod
	case 4:
		f |= ImportMethodThread
	case 5:
		f |= ImportMethodChildThread
	case 6:
		f |= ImportFuncMethod
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

// RemapExportFlags normalizes Treyarch's byte-wide export attribute
// encoding into the canonical ExportFlag bits.
func (r *treyarchReader) RemapExportFlags(raw uint8) ExportFlag {
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
	// CLASS_VTABLE is a distinguished encoding (0xFF) rather than a single
	// bit, per §4.6: "an export's remapped flags equal CLASS_VTABLE".
	if raw == 0xFF {
		return ExportClassVTable
	}
	return f
}

func (r *treyarchReader) Validate() error {
	return Validate(r.blob, r.HeaderSize())
}

func (r *treyarchReader) DumpHeader(w io.Writer) {
	dumpHeaderCommon(w, r.desc, r.hdr)
}

func (r *treyarchReader) DumpExperimental(w io.Writer, verbose bool) {
	dumpExperimentalCommon(w, r.hdr, verbose)
}

func (r *treyarchReader) ReadTables() (*Tables, error) {
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
	if t.AnimTreeSingles, err = r.readAnimTreeSingles(); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *treyarchReader) readIncludes() ([]IncludeEntry, error) {
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

func (r *treyarchReader) readStrings() ([]StringEntry, error) {
	s := gscfmt.NewStreamAt(r.blob, int(r.hdr.StringOffset))
	out := make([]StringEntry, r.hdr.StringCount)
	for i := range out {
		addr, err := s.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("gscfile: string %d addr: %w", i, err)
		}
		count, err := s.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("gscfile: string %d count: %w", i, err)
		}
		typ, err := s.ReadUint8()
		if err != nil {
			return nil, fmt.Errorf("gscfile: string %d type: %w", i, err)
		}
		s.Skip(3)
		fixups, err := readFixups(s, count)
		if err != nil {
			return nil, err
		}
		out[i] = StringEntry{Address: addr, Count: count, Type: typ, Fixups: fixups}
	}
	return out, nil
}

func (r *treyarchReader) readExports() ([]ExportEntry, error) {
	s := gscfmt.NewStreamAt(r.blob, int(r.hdr.ExportOffset))
	out := make([]ExportEntry, r.hdr.ExportCount)
	for i := range out {
		nsHash, _ := s.ReadUint64()
		nameHash, _ := s.ReadUint64()
		checksum, _ := s.ReadUint32()
		addr, _ := s.ReadUint32()
		paramCount, _ := s.ReadUint8()
		rawFlags, err := s.ReadUint8()
		if err != nil {
			return nil, fmt.Errorf("gscfile: export %d: %w", i, err)
		}
		out[i] = ExportEntry{
			NamespaceHash: nsHash,
			NameHash:      nameHash,
			Checksum:      checksum,
			Address:       addr,
			ParamCount:    paramCount,
			RawFlags:      rawFlags,
			Flags:         r.RemapExportFlags(rawFlags),
		}
	}
	return out, nil
}

func (r *treyarchReader) readImports() ([]ImportEntry, error) {
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

func (r *treyarchReader) readGlobals() ([]GlobalEntry, error) {
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

func (r *treyarchReader) readAnimTreeSingles() ([]AnimTreeSingleEntry, error) {
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
