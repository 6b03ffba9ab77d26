// Package output writes decompiled-module results to files.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/rosetta"
)

// WriteModuleJSON writes a module's parsed header to module.json.
func WriteModuleJSON(dir string, h *gscfile.Header) error {
	return writeJSON(filepath.Join(dir, "module.json"), h)
}

// SymbolEntry represents a named export.
type SymbolEntry struct {
	Location uint32 `json:"location"`
	Name     string `json:"name"`
	Size     uint32 `json:"size,omitempty"`
}

// WriteSymbolsJSON writes the export table to symbols.json.
func WriteSymbolsJSON(dir string, symbols []SymbolEntry) error {
	return writeJSON(filepath.Join(dir, "symbols.json"), symbols)
}

// WriteSource writes one export's decompiled GSC text to
// src/<name>.gsc. name may contain path separators (e.g.,
// "Namespace/func_name") for directory grouping.
func WriteSource(dir string, name string, text string) error {
	path := filepath.Join(dir, "src", name+".gsc")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir src: %w", err)
	}
	return os.WriteFile(path, []byte(text), 0644)
}

// WriteSourceSingle writes every export's decompiled text, already
// concatenated by the caller, to a single module.gsc file.
func WriteSourceSingle(dir string, text string) error {
	path := filepath.Join(dir, "module.gsc")
	return os.WriteFile(path, []byte(text), 0644)
}

// WriteBin writes an export's raw code-segment bytes to
// bin/<name>.bin, for re-disassembly or diffing against a rebuilt
// binary. name may contain path separators the same way WriteSource's
// does.
func WriteBin(dir string, name string, data []byte) error {
	path := filepath.Join(dir, "bin", name+".bin")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir bin: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// WriteRosetta writes the cross-version opcode-location index to
// <name>.rose.
func WriteRosetta(dir string, name string, blocks []rosetta.Block) error {
	path := filepath.Join(dir, name+".rose")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()
	if err := rosetta.Write(f, blocks); err != nil {
		return fmt.Errorf("output: write rosetta %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}
