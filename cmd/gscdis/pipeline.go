// pipeline.go wires together the container reader, link patcher, walker,
// control-flow reconstruction, and vtable reader into the one sequence
// every subcommand in this package drives: open blob, patch tables, walk
// or skip-walk each export. Kept out of main.go so the six cmdXxx entry
// points share it instead of copy-pasting the setup.
package main

import (
	"fmt"
	"os"

	"github.com/gsctools/gscdis/internal/ast"
	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/gscfmt"
	"github.com/gsctools/gscdis/internal/hashdict"
	"github.com/gsctools/gscdis/internal/linker"
	"github.com/gsctools/gscdis/internal/vtable"
	"github.com/gsctools/gscdis/internal/walker"
)

// Options is the flag-parsed configuration every subcommand builds and
// threads through the pipeline, the same shape dartfmt.Options holds for
// the Dart side: execution mode plus the knobs that change how lenient
// the run is.
type Options struct {
	Mode     gscfmt.Mode
	MaxSteps int
	Ignore   gscfmt.SkipBits
	VM       byte
	Platform gscfile.Platform
}

func (o Options) toFmtOptions() gscfmt.Options {
	return gscfmt.Options{Mode: o.Mode, MaxSteps: o.MaxSteps, Ignore: o.Ignore}
}

// module is one opened, tables-read, link-patched script blob, ready for
// per-export walking. Every subcommand's flow is openModule, then a loop
// over module.Tables.Exports.
type module struct {
	Reader gscfile.Reader
	Blob   []byte
	Code   []byte
	Tables *gscfile.Tables
	Ctx    *gscfile.Context
	Diags  *gscfmt.Diags
}

// openModule reads path, selects the matching Reader, and runs the Link
// Patcher over its code segment in place. code aliases module.Blob's
// backing array — internal/linker rewrites operand bytes directly into
// it, same as every other command that has ever called Patch.
func openModule(path string, vmByte byte, platform gscfile.Platform) (*module, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gscdis: read %s: %w", path, err)
	}
	blob, detours, err := gscfile.StripGSIC(raw)
	if err != nil {
		return nil, fmt.Errorf("gscdis: %s: %w", path, err)
	}
	r, err := gscfile.Open(blob, vmByte, platform)
	if err != nil {
		return nil, fmt.Errorf("gscdis: open %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("gscdis: %s: %w", path, err)
	}
	tables, err := r.ReadTables()
	if err != nil {
		return nil, fmt.Errorf("gscdis: read tables %s: %w", path, err)
	}
	code := r.CodeSegment()

	ctx := gscfile.NewContext()
	ctx.Detours = detours
	diags := linker.Patch(ctx, r, tables, code, hashdict.Lookup)

	return &module{Reader: r, Blob: blob, Code: code, Tables: tables, Ctx: ctx, Diags: diags}, nil
}

// qualifiedExportName resolves an export's namespace and name hashes
// through the hash dictionary, falling back to hashdict.Extract's
// "<kind>_<hex>" placeholder for an unresolved hash: "ns::name", or bare
// "name" when the export has no namespace.
func qualifiedExportName(exp gscfile.ExportEntry) (ns, name, qualified string) {
	name = hashdict.Extract("function", exp.NameHash)
	if exp.NamespaceHash == 0 {
		return "", name, name
	}
	ns = hashdict.Extract("namespace", exp.NamespaceHash)
	return ns, name, ns + "::" + name
}

// synthesizeParams builds exp.ParamCount generic parameter slots. GSC
// export tables carry only a count, never names, so "param0".."paramN-1"
// is the best a disassembler can recover without a higher-level dev-block
// or calling-convention hint; internal/emit.RecoverDefaults may still
// attach a literal default to one of these from the function's own
// leading assigns.
func synthesizeParams(count uint8) []ast.Param {
	params := make([]ast.Param, count)
	for i := range params {
		params[i] = ast.Param{Name: fmt.Sprintf("param%d", i), Default: ast.NilRef}
	}
	return params
}

// exportSize recovers an export's true byte length via internal/walker's
// no-op skip pass, since the export table itself carries no size field.
// SkipSize reports the address just past the farthest reachable byte, so
// the size is that minus the export's own start address.
func (m *module) exportSize(exp gscfile.ExportEntry) uint32 {
	end := walker.SkipSize(m.Code, exp.Address, m.Reader.Descriptor(), uint32(len(m.Code)))
	if end <= exp.Address {
		return 0
	}
	return end - exp.Address
}

// walkExport builds fn's flat statement list via internal/walker. It does
// not run internal/cfg.Reconstruct — callers that want structured output
// (decompile) do that themselves; callers that want a raw jump-based
// listing (disasm) leave it flat.
func (m *module) walkExport(exp gscfile.ExportEntry, opts Options) *ast.Func {
	ns, name, _ := qualifiedExportName(exp)
	fn := ast.NewFunc(name, ns, exp.Address)
	fn.Params = synthesizeParams(exp.ParamCount)
	walker.Walk(fn, m.Code, m.Reader.Descriptor(), m.Ctx, m.Diags, opts.toFmtOptions().EffectiveMaxSteps())
	return fn
}

// readVTable recovers a class definition for a CLASS_VTABLE-flagged
// export, routing it through internal/vtable instead of internal/walker
// the way the Container Reader's export-flag dispatch requires.
func (m *module) readVTable(exp gscfile.ExportEntry) (*gscfile.ClassRecord, error) {
	return vtable.ReadVTable(exp.Address, m.Code, m.Reader.Descriptor(), exp.NamespaceHash, m.Ctx)
}
