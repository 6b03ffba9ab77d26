package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gsctools/gscdis/internal/emit"
	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/gscfmt"
	"github.com/gsctools/gscdis/internal/hashdict"
	"github.com/gsctools/gscdis/internal/output"
)

// cmdVTable recovers every CLASS_VTABLE export's class definition through
// the VTable Reader and writes each as GSC source plus one classes.json
// summary, the class-only half of what "decompile" produces alongside
// full function bodies.
func cmdVTable(args []string) error {
	fs := flag.NewFlagSet("vtable", flag.ExitOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cf.requireInOut(); err != nil {
		return err
	}
	opts, err := cf.resolve()
	if err != nil {
		return err
	}

	mod, err := openModule(*cf.in, opts.VM, opts.Platform)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*cf.out, 0755); err != nil {
		return fmt.Errorf("gscdis: mkdir %s: %w", *cf.out, err)
	}

	f := emit.NewFormatter()
	var summaries []classSummary
	written := 0

	for _, exp := range mod.Tables.Exports {
		flags := mod.Reader.RemapExportFlags(exp.RawFlags)
		if !flags.Has(gscfile.ExportClassVTable) {
			continue
		}

		cls, err := mod.readVTable(exp)
		if err != nil {
			mod.Diags.Addf(exp.Address, gscfmt.DiagPatternMismatch, "vtable: %v", err)
			continue
		}

		if err := output.WriteSource(*cf.out, sanitizePathPart(cls.Name), f.FormatClass(cls)); err != nil {
			return err
		}
		summaries = append(summaries, classSummaryOf(cls))
		written++
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	if err := writeClassesJSON(*cf.out, summaries); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "recovered %d class definitions to %s\n", written, *cf.out)
	if mod.Diags.Len() > 0 {
		fmt.Fprintf(os.Stderr, "%d diagnostics\n", mod.Diags.Len())
	}
	return nil
}

// classSummary is the JSON-friendly projection of a gscfile.ClassRecord:
// its map fields flattened to sorted slices so the file diffs cleanly
// across runs on the same input.
type classSummary struct {
	Name         string   `json:"name"`
	Namespace    string   `json:"namespace,omitempty"`
	Superclasses []string `json:"superclasses,omitempty"`
	Methods      []string `json:"methods,omitempty"`
}

func classSummaryOf(cls *gscfile.ClassRecord) classSummary {
	s := classSummary{Name: cls.Name, Namespace: hashdict.Extract("namespace", cls.Namespace)}
	for hash := range cls.Superclasses {
		s.Superclasses = append(s.Superclasses, hashdict.Extract("class", hash))
	}
	sort.Strings(s.Superclasses)
	for _, hash := range cls.MethodHashes {
		s.Methods = append(s.Methods, hashdict.Extract("function", hash))
	}
	return s
}

func writeClassesJSON(dir string, summaries []classSummary) error {
	path := filepath.Join(dir, "classes.json")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gscdis: create %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		return fmt.Errorf("gscdis: write %s: %w", path, err)
	}
	return nil
}
