package linker

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/gscfmt"
)

// fakeReader is a minimal gscfile.Reader stub for exercising Patch without
// a full blob.
type fakeReader struct {
	strings map[uint32]string
}

func (f *fakeReader) Name(func(uint64) (string, bool)) string       { return "" }
func (f *fakeReader) NameHash() uint64                                { return 0 }
func (f *fakeReader) HeaderSize() int                                 { return 0 }
func (f *fakeReader) FileSize() int                                   { return 0 }
func (f *fakeReader) Header() *gscfile.Header                         { return &gscfile.Header{} }
func (f *fakeReader) ReadTables() (*gscfile.Tables, error)            { return nil, nil }
func (f *fakeReader) CodeSegment() []byte                             { return nil }
func (f *fakeReader) DecryptString(raw []byte) string                 { return string(raw) }
func (f *fakeReader) RemapImportFlags(raw uint8) gscfile.ImportFlag    { return 0 }
func (f *fakeReader) RemapExportFlags(raw uint8) gscfile.ExportFlag    { return 0 }
func (f *fakeReader) Validate() error                                   { return nil }
func (f *fakeReader) DumpHeader(w io.Writer)                            {}
func (f *fakeReader) DumpExperimental(w io.Writer, verbose bool)        {}
func (f *fakeReader) Descriptor() gscfile.VMDescriptor                  { return gscfile.VMDescriptor{} }
func (f *fakeReader) StringLiteral(addr uint32) (string, error) {
	if s, ok := f.strings[addr]; ok {
		return s, nil
	}
	return "", errStringNotFound
}

var errStringNotFound = errors.New("string not found")

func TestPatchStrings(t *testing.T) {
	ctx := gscfile.NewContext()
	r := &fakeReader{strings: map[uint32]string{0x100: "hello"}}
	tables := &gscfile.Tables{
		Strings: []gscfile.StringEntry{
			{Address: 0x100, Count: 1, Fixups: []uint32{4}},
		},
	}
	code := make([]byte, 16)
	diags := Patch(ctx, r, tables, code, nil)

	if diags.Len() != 0 {
		t.Fatalf("unexpected diags: %+v", diags.Items())
	}
	if ctx.Strings[0] != "hello" {
		t.Fatalf("Strings[0] = %q, want hello", ctx.Strings[0])
	}
	if got := binary.LittleEndian.Uint32(code[4:]); got != 0 {
		t.Fatalf("patched index = %d, want 0", got)
	}
}

func TestPatchStringsOutOfRange(t *testing.T) {
	ctx := gscfile.NewContext()
	r := &fakeReader{strings: map[uint32]string{0x100: "hello"}}
	tables := &gscfile.Tables{
		Strings: []gscfile.StringEntry{
			{Address: 0x100, Count: 1, Fixups: []uint32{1000}},
		},
	}
	code := make([]byte, 16)
	diags := Patch(ctx, r, tables, code, nil)

	if diags.Len() != 1 {
		t.Fatalf("diags = %+v, want 1 entry", diags.Items())
	}
	if diags.Items()[0].Kind != gscfmt.DiagPatchSkip {
		t.Fatalf("kind = %v, want DiagPatchSkip", diags.Items()[0].Kind)
	}
}

func TestPatchImportsAndParamCount(t *testing.T) {
	ctx := gscfile.NewContext()
	r := &fakeReader{}
	tables := &gscfile.Tables{
		Imports: []gscfile.ImportEntry{
			{NamespaceHash: 0x1, NameHash: 0x2, ParamCount: 3, Fixups: []uint32{0}},
		},
	}
	code := make([]byte, 8)
	resolve := func(h uint64) (string, bool) {
		switch h {
		case 0x1:
			return "common_scripts", true
		case 0x2:
			return "dostuff", true
		}
		return "", false
	}
	diags := Patch(ctx, r, tables, code, resolve)
	if diags.Len() != 0 {
		t.Fatalf("unexpected diags: %+v", diags.Items())
	}
	if len(ctx.Imports) != 1 {
		t.Fatalf("Imports = %+v, want one entry", ctx.Imports)
	}
	if ctx.Imports[0].Name != "dostuff" || ctx.Imports[0].Namespace != "common_scripts" {
		t.Fatalf("Imports[0] = %+v, want resolved name/namespace", ctx.Imports[0])
	}
	if got := binary.LittleEndian.Uint32(code[0:]); got != 0 {
		t.Fatalf("import index = %d, want 0", got)
	}
	if code[4] != 3 {
		t.Fatalf("param count byte = %d, want 3", code[4])
	}
}

func TestPatchAnimTreeOrdering(t *testing.T) {
	ctx := gscfile.NewContext()
	r := &fakeReader{}
	tables := &gscfile.Tables{
		AnimTreeSingles: []gscfile.AnimTreeSingleEntry{
			{NameRef: 5, Fixups: []uint32{0}},
		},
		AnimTreeDoubles: []gscfile.AnimTreeDoubleEntry{
			{Ref1: 1, Ref2: 2, Fixups: []uint32{1}},
		},
	}
	code := make([]byte, 4)
	diags := Patch(ctx, r, tables, code, nil)
	if diags.Len() != 0 {
		t.Fatalf("unexpected diags: %+v", diags.Items())
	}
	if code[0] != 5 {
		t.Fatalf("single animtree byte = %d, want 5", code[0])
	}
	if code[1] != 1 || code[2] != 2 {
		t.Fatalf("double animtree bytes = %d,%d want 1,2", code[1], code[2])
	}
}

func TestPatchAnimTreeSingleOverflow(t *testing.T) {
	ctx := gscfile.NewContext()
	r := &fakeReader{}
	tables := &gscfile.Tables{
		AnimTreeSingles: []gscfile.AnimTreeSingleEntry{
			{NameRef: 300, Fixups: []uint32{0}},
		},
	}
	code := make([]byte, 4)
	diags := Patch(ctx, r, tables, code, nil)
	if diags.Len() != 1 || diags.Items()[0].Kind != gscfmt.DiagPatchSkip {
		t.Fatalf("diags = %+v, want one DiagPatchSkip", diags.Items())
	}
}
