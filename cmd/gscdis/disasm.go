package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	callgraph "github.com/gsctools/gscdis/internal/graph"
	"github.com/gsctools/gscdis/internal/emit"
	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/output"
	"github.com/gsctools/gscdis/internal/render"
)

// cmdDisasm walks every export's flat, pre-reconstruction statement list
// and writes it straight to source — no internal/cfg pass, so each jump
// stays an "unresolved jump" comment instead of if/while/for. This is the Disassembly Walker's
// output on its own, the same role "unflutter disasm" plays for one Dart
// function's raw instruction stream before any structuring.
func cmdDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	cf := addCommonFlags(fs)
	graphFlag := fs.Bool("graph", false, "also render a call graph DOT (internal/render)")
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
	var symbols []output.SymbolEntry
	var funcRecords []render.FuncRecord
	var edgeRecords []render.CallEdgeRecord
	written := 0

	for _, exp := range mod.Tables.Exports {
		flags := mod.Reader.RemapExportFlags(exp.RawFlags)
		if flags.Has(gscfile.ExportClassVTable) {
			continue // vtable export: see cmdVTable, not a disassemblable function body.
		}

		fn := mod.walkExport(exp, opts)
		fn.Size = mod.exportSize(exp)
		text := f.FormatFunc(fn)
		relName := relFuncName(fn.Namespace, fn.Name, exp.Address)

		if err := output.WriteSource(*cf.out, relName, text); err != nil {
			return err
		}
		if fn.Size > 0 {
			end := exp.Address + fn.Size
			if end > uint32(len(mod.Code)) {
				end = uint32(len(mod.Code))
			}
			if err := output.WriteBin(*cf.out, relName, mod.Code[exp.Address:end]); err != nil {
				return err
			}
		}

		symbols = append(symbols, output.SymbolEntry{Location: exp.Address, Name: fn.Namespace + "::" + fn.Name, Size: fn.Size})
		written++

		if *graphFlag {
			funcRecords = append(funcRecords, render.FuncRecord{Name: fn.Namespace + "::" + fn.Name, Owner: fn.Namespace})
			for _, callee := range callgraph.CollectCalls(fn) {
				edgeRecords = append(edgeRecords, render.CallEdgeRecord{FromFunc: fn.Namespace + "::" + fn.Name, Target: callee})
			}
		}
	}

	if err := output.WriteSymbolsJSON(*cf.out, symbols); err != nil {
		return err
	}
	if err := output.WriteModuleJSON(*cf.out, mod.Reader.Header()); err != nil {
		return err
	}

	if *graphFlag && len(funcRecords) > 0 {
		dot := render.CallgraphDOT(funcRecords, edgeRecords, filepath.Base(*cf.in), render.NASA, 0)
		if err := os.WriteFile(filepath.Join(*cf.out, "callgraph.dot"), []byte(dot), 0644); err != nil {
			return fmt.Errorf("gscdis: write callgraph.dot: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "wrote %d function disassemblies to %s\n", written, filepath.Join(*cf.out, "src"))
	if mod.Diags.Len() > 0 {
		fmt.Fprintf(os.Stderr, "%d link-patch diagnostics\n", mod.Diags.Len())
	}
	return nil
}

// relFuncName builds the "Namespace/name_hexaddr" relative path
// output.WriteSource/WriteBin expect, grouping a namespace's functions
// into one subdirectory the same way a Dart owner class's methods get
// grouped by qualifiedName/funcRelPath.
func relFuncName(namespace, name string, address uint32) string {
	suffix := fmt.Sprintf("_%x", address)
	part := sanitizePathPart(name) + suffix
	if namespace == "" {
		return part
	}
	return sanitizePathPart(namespace) + "/" + part
}

func sanitizePathPart(s string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return r.Replace(s)
}
