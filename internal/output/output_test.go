package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/rosetta"
)

func TestWriteModuleJSON(t *testing.T) {
	dir := t.TempDir()
	h := &gscfile.Header{NameHash: 0xdeadbeef, ExportCount: 3}
	if err := WriteModuleJSON(dir, h); err != nil {
		t.Fatalf("WriteModuleJSON: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "module.json"))
	if err != nil {
		t.Fatalf("read module.json: %v", err)
	}
	if !strings.Contains(string(data), "3") {
		t.Fatalf("module.json missing export count: %s", data)
	}
}

func TestWriteSymbolsJSON(t *testing.T) {
	dir := t.TempDir()
	syms := []SymbolEntry{{Location: 0x100, Name: "main", Size: 40}}
	if err := WriteSymbolsJSON(dir, syms); err != nil {
		t.Fatalf("WriteSymbolsJSON: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "symbols.json"))
	if err != nil {
		t.Fatalf("read symbols.json: %v", err)
	}
	if !strings.Contains(string(data), "main") {
		t.Fatalf("symbols.json missing entry: %s", data)
	}
}

func TestWriteSourceCreatesNestedDirs(t *testing.T) {
	dir := t.TempDir()
	if err := WriteSource(dir, "Foo/init", "function init() {\n}\n"); err != nil {
		t.Fatalf("WriteSource: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "src", "Foo", "init.gsc"))
	if err != nil {
		t.Fatalf("read src/Foo/init.gsc: %v", err)
	}
	if !strings.Contains(string(data), "function init()") {
		t.Fatalf("unexpected content: %s", data)
	}
}

func TestWriteBin(t *testing.T) {
	dir := t.TempDir()
	if err := WriteBin(dir, "main", []byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("WriteBin: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "bin", "main.bin"))
	if err != nil {
		t.Fatalf("read bin/main.bin: %v", err)
	}
	if len(data) != 3 {
		t.Fatalf("bin/main.bin = %v, want 3 bytes", data)
	}
}

func TestWriteRosetta(t *testing.T) {
	dir := t.TempDir()
	blocks := []rosetta.Block{{Header: []byte{0xAA}, Opcodes: nil}}
	if err := WriteRosetta(dir, "main", blocks); err != nil {
		t.Fatalf("WriteRosetta: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "main.rose"))
	if err != nil {
		t.Fatalf("read main.rose: %v", err)
	}
	if !strings.HasPrefix(string(data), "ROSE") {
		t.Fatalf("main.rose missing magic prefix: %v", data)
	}
}
