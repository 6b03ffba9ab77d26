package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gsctools/gscdis/internal/cfg"
	"github.com/gsctools/gscdis/internal/emit"
	callgraph "github.com/gsctools/gscdis/internal/graph"
	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/gscfmt"
	"github.com/gsctools/gscdis/internal/output"
	"github.com/gsctools/gscdis/internal/render"
	"github.com/zboralski/lattice"
)

// cmdDecompile runs the full pipeline — walk, control-flow reconstruction,
// default-parameter recovery, class/vtable recovery — and emits readable
// GSC source, optionally alongside the call-graph/class-graph/CFG DOT and
// an HTML summary, the same end-to-end shape "unflutter disasm --graph"
// plus "unflutter render" together produce for one Dart snapshot.
func cmdDecompile(args []string) error {
	fs := flag.NewFlagSet("decompile", flag.ExitOnError)
	cf := addCommonFlags(fs)
	single := fs.Bool("single", false, "write one module.gsc instead of per-export files")
	graphFlag := fs.Bool("graph", false, "render call-graph/class-graph/CFG DOT and an index.html summary")
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
	classes := make(map[string]*gscfile.ClassRecord)
	var funcInfos []callgraph.FuncInfo
	var funcRecords []render.FuncRecord
	var edgeRecords []render.CallEdgeRecord
	var symbols []output.SymbolEntry
	var cfgs []*namedCFG
	var singleBuf bytes.Buffer
	written := 0

	for _, exp := range mod.Tables.Exports {
		flags := mod.Reader.RemapExportFlags(exp.RawFlags)

		if flags.Has(gscfile.ExportClassVTable) {
			cls, err := mod.readVTable(exp)
			if err != nil {
				mod.Diags.Addf(exp.Address, gscfmt.DiagPatternMismatch, "vtable: %v", err)
				continue
			}
			classes[cls.Name] = cls
			if err := output.WriteSource(*cf.out, "classes/"+sanitizePathPart(cls.Name), f.FormatClass(cls)); err != nil {
				return err
			}
			continue
		}

		fn := mod.walkExport(exp, opts)
		fn.Size = mod.exportSize(exp)
		qualified := fn.Name
		if fn.Namespace != "" {
			qualified = fn.Namespace + "::" + fn.Name
		}

		if *graphFlag {
			funcCFG, nblocks := callgraph.BuildFuncCFG(fn)
			if nblocks > 1 {
				cfgs = append(cfgs, &namedCFG{name: qualified, cfg: funcCFG})
			}
			funcInfos = append(funcInfos, callgraph.FuncInfo{Name: qualified, Fn: fn})
			funcRecords = append(funcRecords, render.FuncRecord{Name: qualified, Owner: fn.Namespace})
			for _, callee := range callgraph.CollectCalls(fn) {
				edgeRecords = append(edgeRecords, render.CallEdgeRecord{FromFunc: qualified, Target: callee})
			}
		}

		cfg.Reconstruct(fn, opts.Ignore)
		emit.RecoverDefaults(fn)
		text := f.FormatFunc(fn)

		if *single {
			singleBuf.WriteString(text)
			singleBuf.WriteByte('\n')
		} else {
			relName := relFuncName(fn.Namespace, fn.Name, exp.Address)
			if err := output.WriteSource(*cf.out, relName, text); err != nil {
				return err
			}
		}
		symbols = append(symbols, output.SymbolEntry{Location: exp.Address, Name: qualified, Size: fn.Size})
		written++
	}

	if *single {
		if err := output.WriteSourceSingle(*cf.out, singleBuf.String()); err != nil {
			return err
		}
	}
	if err := output.WriteSymbolsJSON(*cf.out, symbols); err != nil {
		return err
	}
	if err := output.WriteModuleJSON(*cf.out, mod.Reader.Header()); err != nil {
		return err
	}

	if *graphFlag {
		if err := writeGraphs(*cf.out, *cf.in, funcRecords, edgeRecords, classes, cfgs); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "decompiled %d exports, %d classes, to %s\n", written, len(classes), *cf.out)
	if mod.Diags.Len() > 0 {
		fmt.Fprintf(os.Stderr, "%d diagnostics\n", mod.Diags.Len())
	}
	return nil
}

type namedCFG struct {
	name string
	cfg  *lattice.FuncCFG
}

// writeGraphs renders the call graph, class graph, per-function CFGs, and
// the HTML index summarizing them all, mirroring the file layout
// "unflutter render" writes into an --in directory (callgraph.svg,
// classgraph.svg, cfg/<name>.dot, index.html) except the DOT files are
// written directly rather than piped through graphviz.
func writeGraphs(outDir, inPath string, funcs []render.FuncRecord, edges []render.CallEdgeRecord,
	classes map[string]*gscfile.ClassRecord, cfgs []*namedCFG) error {

	title := filepath.Base(inPath)
	theme := render.NASA

	if len(funcs) > 0 {
		dot := render.CallgraphDOT(funcs, edges, title, theme, 0)
		if err := os.WriteFile(filepath.Join(outDir, "callgraph.dot"), []byte(dot), 0644); err != nil {
			return fmt.Errorf("gscdis: write callgraph.dot: %w", err)
		}
	}
	if len(classes) > 0 {
		dot := render.ClassgraphDOT(classes, title, theme, 0)
		if err := os.WriteFile(filepath.Join(outDir, "classgraph.dot"), []byte(dot), 0644); err != nil {
			return fmt.Errorf("gscdis: write classgraph.dot: %w", err)
		}
	}
	if len(cfgs) > 0 {
		cfgDir := filepath.Join(outDir, "cfg")
		if err := os.MkdirAll(cfgDir, 0755); err != nil {
			return fmt.Errorf("gscdis: mkdir cfg: %w", err)
		}
		for _, nc := range cfgs {
			dot := render.CFGDOT(nc.cfg, theme)
			if dot == "" {
				continue
			}
			name := sanitizePathPart(nc.name) + ".dot"
			if err := os.WriteFile(filepath.Join(cfgDir, name), []byte(dot), 0644); err != nil {
				return fmt.Errorf("gscdis: write cfg/%s: %w", name, err)
			}
		}
	}

	stats := render.ComputeStats(funcs, edges)
	entryPoints, reachable := entryPointsAndReachable(funcs, edges)
	indexPath := filepath.Join(outDir, "index.html")
	idx, err := os.Create(indexPath)
	if err != nil {
		return fmt.Errorf("gscdis: create index.html: %w", err)
	}
	defer idx.Close()
	render.WriteIndexHTML(idx, stats, title, len(funcs) > 0, len(classes) > 0, entryPoints, reachable, len(cfgs))
	return nil
}

// entryPointsAndReachable finds every function with no incoming qualified
// or local call edge (a root of the call tree) and counts how many
// functions are reachable by following edges outward from those roots —
// a simple breadth-first closure, not a full points-to analysis, since
// the core decompiler never executes scripts.
func entryPointsAndReachable(funcs []render.FuncRecord, edges []render.CallEdgeRecord) ([]string, int) {
	incoming := make(map[string]bool)
	adj := make(map[string][]string)
	for _, e := range edges {
		prov := render.ClassifyEdgeProv(e)
		if prov == render.ProvUnresolved {
			continue
		}
		incoming[e.Target] = true
		adj[e.FromFunc] = append(adj[e.FromFunc], e.Target)
	}

	var roots []string
	for _, f := range funcs {
		if !incoming[f.Name] {
			roots = append(roots, f.Name)
		}
	}
	sort.Strings(roots)

	visited := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n] {
			continue
		}
		visited[n] = true
		queue = append(queue, adj[n]...)
	}
	return roots, len(visited)
}
