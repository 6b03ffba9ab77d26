package hashdict

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadParsesEntries(t *testing.T) {
	reset()
	defer reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "strings.txt")
	content := "# comment\n\n0x1a2b3c,hello_world\ndeadbeef,another_name\nmalformed-line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !Loaded() {
		t.Fatal("Loaded() = false after successful Load")
	}
	if got, ok := Lookup(0x1a2b3c); !ok || got != "hello_world" {
		t.Fatalf("Lookup(0x1a2b3c) = %q, %v", got, ok)
	}
	if got, ok := Lookup(0xdeadbeef); !ok || got != "another_name" {
		t.Fatalf("Lookup(0xdeadbeef) = %q, %v", got, ok)
	}
	if Size() != 2 {
		t.Fatalf("Size() = %d, want 2", Size())
	}
}

func TestExtractFallsBackToHashPlaceholder(t *testing.T) {
	reset()
	defer reset()

	got := Extract("class", 0xcafebabe)
	if got != "class_cafebabe" {
		t.Fatalf("Extract fallback = %q, want class_cafebabe", got)
	}
}

func TestExtractResolvesAndRecordsExtracted(t *testing.T) {
	reset()
	defer reset()

	AddPrecomputed(0x42, "known_name")
	got := Extract("function", 0x42)
	if got != "known_name" {
		t.Fatalf("Extract = %q, want known_name", got)
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "extracted.txt")
	if err := SaveExtracted(out); err != nil {
		t.Fatalf("SaveExtracted: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "0x42,known_name") {
		t.Fatalf("extracted file = %q, want it to contain 0x42,known_name", string(data))
	}
}
