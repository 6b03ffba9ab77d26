package gscfile

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildTreyarchFixture assembles a minimal valid Treyarch blob: one include,
// no strings/imports/globals/animtrees/exports, and a 4-byte code segment.
func buildTreyarchFixture(t *testing.T, includeHash uint64, code []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(treyarchSignature)
	buf.WriteByte(0x01) // VM byte

	le := binary.LittleEndian
	w32 := func(v uint32) { binary.Write(&buf, le, v) }
	w64 := func(v uint64) { binary.Write(&buf, le, v) }

	w64(0xCAFEBABEDEADBEEF) // name_hash
	w32(0)                  // unk16
	w32(0)                  // unk1C

	const headerFixedSize = 8 + 4 + 4 + 6*8 + 4 + 4 // magic excluded, counted from name_hash
	includeOffset := uint32(8 + headerFixedSize)
	includeTableSize := uint32(8) // one NameHash-only entry
	codeOffset := includeOffset + includeTableSize

	w32(1)             // include count
	w32(includeOffset) // include offset
	w32(0)             // string count
	w32(0)             // string offset
	w32(0)             // export count
	w32(0)             // export offset
	w32(0)             // import count
	w32(0)             // import offset
	w32(0)             // global count
	w32(0)             // global offset
	w32(0)             // animtree_single count
	w32(0)             // animtree_single offset
	w32(codeOffset)    // code_offset
	w32(uint32(len(code)))

	w64(includeHash)
	buf.Write(code)

	return buf.Bytes()
}

func TestOpenTreyarch(t *testing.T) {
	code := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	blob := buildTreyarchFixture(t, 0x1122334455667788, code)

	r, err := Open(blob, 0, PlatformPC)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Descriptor().VM != 0x01 {
		t.Fatalf("VM = 0x%x, want 0x01", r.Descriptor().VM)
	}
	if r.NameHash() != 0xCAFEBABEDEADBEEF {
		t.Fatalf("NameHash = 0x%x, want 0xCAFEBABEDEADBEEF", r.NameHash())
	}
	if !bytes.Equal(r.CodeSegment(), code) {
		t.Fatalf("CodeSegment = %x, want %x", r.CodeSegment(), code)
	}

	tables, err := r.ReadTables()
	if err != nil {
		t.Fatalf("ReadTables: %v", err)
	}
	if len(tables.Includes) != 1 || tables.Includes[0].NameHash != 0x1122334455667788 {
		t.Fatalf("Includes = %+v, want one entry with hash 0x1122334455667788", tables.Includes)
	}
	if len(tables.AnimTreeDoubles) != 0 {
		t.Fatalf("Treyarch family must not populate AnimTreeDoubles, got %d", len(tables.AnimTreeDoubles))
	}

	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestOpenTooSmall(t *testing.T) {
	_, err := Open([]byte{0x80, 'G', 'S', 'C'}, 0, PlatformPC)
	if err == nil {
		t.Fatal("Open(too small) = nil error, want failure")
	}
}

func TestOpenWideHashRequiresVM(t *testing.T) {
	blob := append([]byte{0x80, 'G', 'S', 'C', 0x0D, 0x0A, 0x01, 0x00}, make([]byte, 32)...)
	if _, err := Open(blob, 0, PlatformPC); err == nil {
		t.Fatal("Open(wide-hash, vmOverride=0) = nil error, want ErrUnsupportedVM")
	}
}

func TestRemapExportFlagsVTable(t *testing.T) {
	r := &treyarchReader{}
	if got := r.RemapExportFlags(0xFF); got != ExportClassVTable {
		t.Fatalf("RemapExportFlags(0xFF) = %v, want ExportClassVTable", got)
	}
	if got := r.RemapExportFlags(0x01); got != ExportAutoExec {
		t.Fatalf("RemapExportFlags(0x01) = %v, want ExportAutoExec", got)
	}
}

func TestStripGSICNoWrapper(t *testing.T) {
	blob := []byte{0x80, 'G', 'S', 'C', 0x0D, 0x0A, 0x00, 0x01}
	inner, detours, err := StripGSIC(blob)
	if err != nil {
		t.Fatalf("StripGSIC: %v", err)
	}
	if !bytes.Equal(inner, blob) {
		t.Fatal("StripGSIC should pass through a blob without a GSIC wrapper unchanged")
	}
	if detours != nil {
		t.Fatalf("detours = %v, want nil", detours)
	}
}

func TestStripGSICWithDetours(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("GSIC")
	le := binary.LittleEndian
	binary.Write(&buf, le, uint32(1)) // field count
	binary.Write(&buf, le, uint32(gsicFieldDetourList))
	binary.Write(&buf, le, uint32(8)) // one detour record, 8 bytes
	binary.Write(&buf, le, uint32(3)) // index
	binary.Write(&buf, le, uint32(9)) // target
	inner := []byte{0x80, 'G', 'S', 'C', 0x0D, 0x0A, 0x00, 0x01}
	buf.Write(inner)

	gotInner, detours, err := StripGSIC(buf.Bytes())
	if err != nil {
		t.Fatalf("StripGSIC: %v", err)
	}
	if !bytes.Equal(gotInner, inner) {
		t.Fatalf("inner = %x, want %x", gotInner, inner)
	}
	if len(detours) != 1 || detours[0].Index != 3 || detours[0].Target != 9 {
		t.Fatalf("detours = %+v, want [{3 9}]", detours)
	}
}
