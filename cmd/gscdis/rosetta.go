package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/gsctools/gscdis/internal/ast"
	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/gscfmt"
	"github.com/gsctools/gscdis/internal/opcode"
	"github.com/gsctools/gscdis/internal/output"
	"github.com/gsctools/gscdis/internal/rosetta"
)

// cmdRosetta writes the cross-version opcode-location sidecar: one block
// per export, its header bytes cloned from the source file, and the
// (location, raw encoded opcode) pair for every instruction the trace
// walker below reaches — exactly the record shape internal/rosetta.Write
// expects.
func cmdRosetta(args []string) error {
	fs := flag.NewFlagSet("rosetta", flag.ExitOnError)
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

	headerSize := mod.Reader.HeaderSize()
	header := mod.Blob
	if headerSize < len(header) {
		header = header[:headerSize]
	}

	var blocks []rosetta.Block
	for _, exp := range mod.Tables.Exports {
		flags := mod.Reader.RemapExportFlags(exp.RawFlags)
		if flags.Has(gscfile.ExportClassVTable) {
			continue // vtable prologues decode through internal/vtable, not the generic opcode stream.
		}
		locs := traceOpcodes(mod.Code, exp.Address, mod.Reader.Descriptor())
		blocks = append(blocks, rosetta.Block{
			Header:  append([]byte(nil), header...),
			Opcodes: locs,
		})
	}

	name := filepath.Base(*cf.in)
	if err := output.WriteRosetta(*cf.out, name, blocks); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s.rose (%d blocks)\n", name, len(blocks))
	return nil
}

// traceWalker implements opcode.Context the same no-op way SkipWalker
// does — every Handler.Decode call runs for real so operands are
// consumed and the cursor advances correctly, but nothing AST-shaped is
// ever built — except it additionally records the raw encoded opcode
// number at every location it visits, the one piece of information
// SkipSize's pure byte-length pass throws away.
type traceWalker struct {
	code []byte
	pos  int
	loc  uint32
	desc gscfile.VMDescriptor

	visited map[uint32]bool
	work    []uint32
	trace   []rosetta.OpcodeLocation

	scratch ast.Node
}

func traceOpcodes(code []byte, addr uint32, desc gscfile.VMDescriptor) []rosetta.OpcodeLocation {
	w := &traceWalker{code: code, desc: desc, visited: make(map[uint32]bool)}
	w.work = append(w.work, addr)
	for len(w.work) > 0 {
		a := w.work[0]
		w.work = w.work[1:]
		if w.visited[a] || a >= uint32(len(code)) {
			continue
		}
		w.runFrom(a)
	}
	return w.trace
}

func (w *traceWalker) runFrom(addr uint32) {
	w.pos = int(addr)
	for {
		if w.pos >= len(w.code) || w.visited[uint32(w.pos)] {
			return
		}
		instrAddr := uint32(w.pos)
		w.visited[instrAddr] = true

		encoded, err := w.fetchOpcode()
		if err != nil {
			return
		}
		h, ok := opcode.Lookup(w.desc, encoded)
		if !ok {
			return
		}
		w.loc = instrAddr
		w.trace = append(w.trace, rosetta.OpcodeLocation{Location: instrAddr, Opcode: encoded})
		if err := h.Decode(w); err != nil {
			return
		}
		if h.Terminator {
			return
		}
	}
}

func (w *traceWalker) fetchOpcode() (uint16, error) {
	width := opcode.OpcodeWidth(w.desc)
	if width == 2 {
		if w.pos%2 != 0 {
			w.pos++
		}
		if w.pos+2 > len(w.code) {
			return 0, gscfmt.ErrStreamEOF
		}
		v := uint16(w.code[w.pos]) | uint16(w.code[w.pos+1])<<8
		w.pos += 2
		return v, nil
	}
	if w.pos+1 > len(w.code) {
		return 0, gscfmt.ErrStreamEOF
	}
	v := uint16(w.code[w.pos])
	w.pos++
	return v, nil
}

func (w *traceWalker) need(n int) error {
	if w.pos+n > len(w.code) {
		return gscfmt.ErrStreamEOF
	}
	return nil
}

func (w *traceWalker) ReadU8() (uint8, error) {
	if err := w.need(1); err != nil {
		return 0, err
	}
	v := w.code[w.pos]
	w.pos++
	return v, nil
}

func (w *traceWalker) ReadU16() (uint16, error) {
	if err := w.need(2); err != nil {
		return 0, err
	}
	v := uint16(w.code[w.pos]) | uint16(w.code[w.pos+1])<<8
	w.pos += 2
	return v, nil
}

func (w *traceWalker) ReadU32() (uint32, error) {
	if err := w.need(4); err != nil {
		return 0, err
	}
	v := uint32(w.code[w.pos]) | uint32(w.code[w.pos+1])<<8 | uint32(w.code[w.pos+2])<<16 | uint32(w.code[w.pos+3])<<24
	w.pos += 4
	return v, nil
}

func (w *traceWalker) ReadU64() (uint64, error) {
	if err := w.need(8); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(w.code[w.pos+i]) << (8 * i)
	}
	w.pos += 8
	return v, nil
}

func (w *traceWalker) ReadFloat32() (float32, error) {
	v, err := w.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (w *traceWalker) Push(ast.Ref)         {}
func (w *traceWalker) Pop() (ast.Ref, bool) { return ast.NilRef, true }

func (w *traceWalker) SetFieldReg(ast.Ref)      {}
func (w *traceWalker) SetObjectReg(ast.Ref)     {}
func (w *traceWalker) FieldReg() (ast.Ref, bool)  { return ast.NilRef, false }
func (w *traceWalker) ObjectReg() (ast.Ref, bool) { return ast.NilRef, false }

func (w *traceWalker) NewNode(kind ast.Kind, text string) ast.Ref {
	w.scratch = ast.Node{Kind: kind, Location: w.loc, Text: text}
	return 0
}
func (w *traceWalker) Node(ast.Ref) *ast.Node { return &w.scratch }
func (w *traceWalker) Emit(ast.Ref)           {}

func (w *traceWalker) ResolveString(uint32) (string, bool) { return "", false }
func (w *traceWalker) ResolveGlobal(uint32) (uint64, bool) { return 0, false }
func (w *traceWalker) ResolveImport(uint32) (string, string, uint8, bool) {
	return "", "", 0, false
}

func (w *traceWalker) Location() uint32 { return w.loc }

func (w *traceWalker) EnqueueJump(target uint32) {
	if !w.visited[target] {
		w.work = append(w.work, target)
	}
}

func (w *traceWalker) DeferLateOp(uint32, func(opcode.Context)) {}

func (w *traceWalker) MarkUndecompilable(string) {}
