// Package walker is the Disassembly Walker and Statement Builder: it
// drives the opcode registry over one export's code bytes, implementing
// opcode.Context so registered Handlers can read operands, push/pop the
// abstract stack, and emit statements without knowing anything about the
// underlying byte layout. The control-flow shape is a leader/work-list
// idea (entry point plus every branch target is a leader, instructions
// partition around them) generalized from a flat post-hoc basic-block
// pass into an incremental work-list the walker drains as it decodes,
// since GSC jump targets are only known once their owning instruction
// has been decoded.
package walker

import (
	"fmt"
	"math"

	"github.com/gsctools/gscdis/internal/ast"
	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/gscfmt"
	"github.com/gsctools/gscdis/internal/opcode"
)

// Walker decodes one export's body. It implements opcode.Context; every
// Handler.Decode call received through Walk operates through these
// methods only, never touching the underlying stream directly.
type Walker struct {
	code []byte
	pos  int // byte cursor into code, absolute offset
	loc  uint32

	desc gscfile.VMDescriptor
	ctx  *gscfile.Context

	arena     *ast.Arena
	stack     []ast.Ref
	fieldReg  ast.Ref
	objectReg ast.Ref
	hasField  bool
	hasObject bool

	stmts []ast.Stmt

	visited  map[uint32]bool
	worklist []uint32
	lateOps  map[uint32][]func(opcode.Context)

	diags    *gscfmt.Diags
	maxSteps int
	steps    int

	undecompilable       bool
	undecompilableReason string
}

// newWalker returns a Walker ready to decode starting at fn.Address.
func newWalker(code []byte, desc gscfile.VMDescriptor, objCtx *gscfile.Context, arena *ast.Arena, diags *gscfmt.Diags, maxSteps int) *Walker {
	return &Walker{
		code:      code,
		desc:      desc,
		ctx:       objCtx,
		arena:     arena,
		fieldReg:  ast.NilRef,
		objectReg: ast.NilRef,
		visited:   make(map[uint32]bool),
		lateOps:   make(map[uint32][]func(opcode.Context)),
		diags:     diags,
		maxSteps:  maxSteps,
	}
}

// Walk decodes fn's body starting at fn.Address and stops at the first
// unreached terminator on every live work-list path, or at fn.Size bytes,
// whichever comes first. It populates fn.Arena (replacing the one
// NewFunc allocated) and fn.Body with the flat, pre-reconstruction
// statement list internal/cfg's passes consume.
func Walk(fn *ast.Func, code []byte, desc gscfile.VMDescriptor, objCtx *gscfile.Context, diags *gscfmt.Diags, maxSteps int) {
	arena := ast.NewArena()
	w := newWalker(code, desc, objCtx, arena, diags, maxSteps)
	fn.Arena = arena

	end := fn.Address + fn.Size
	if fn.Size == 0 || int(end) > len(code) {
		end = uint32(len(code))
	}

	w.enqueue(fn.Address)
	for len(w.worklist) > 0 {
		addr := w.worklist[0]
		w.worklist = w.worklist[1:]
		if w.visited[addr] {
			continue
		}
		w.runFrom(addr, end)
	}

	fn.Body = make([]ast.Ref, len(w.stmts))
	for i, s := range w.stmts {
		fn.Body[i] = s.Node
	}
	if w.undecompilable {
		fn.Undecompilable = true
		fn.UndecompilableReason = w.undecompilableReason
	}
}

// runFrom decodes instructions starting at addr until a terminator fires,
// the work-list address is re-reached some other way, or bound is hit.
func (w *Walker) runFrom(addr uint32, bound uint32) {
	w.pos = int(addr)
	for {
		if w.visited[uint32(w.pos)] {
			return
		}
		if uint32(w.pos) >= bound {
			return
		}
		w.steps++
		if w.maxSteps > 0 && w.steps > w.maxSteps {
			w.diags.Add(uint32(w.pos), gscfmt.DiagUndecompilable, "walker: step budget exceeded")
			w.undecompilable = true
			w.undecompilableReason = "step budget exceeded"
			return
		}

		instrAddr := uint32(w.pos)
		w.runLateOps(instrAddr)
		w.visited[instrAddr] = true

		encoded, err := w.fetchOpcode()
		if err != nil {
			w.diags.Addf(instrAddr, gscfmt.DiagTruncated, "opcode fetch: %v", err)
			w.undecompilable = true
			w.undecompilableReason = "truncated opcode stream"
			return
		}

		h, ok := opcode.Lookup(w.desc, encoded)
		if !ok {
			w.diags.Addf(instrAddr, gscfmt.DiagUnknownOpcode, "unknown opcode 0x%x", encoded)
			w.undecompilable = true
			w.undecompilableReason = fmt.Sprintf("unknown opcode 0x%x at 0x%x", encoded, instrAddr)
			return
		}

		w.loc = instrAddr
		if err := h.Decode(w); err != nil {
			w.diags.Addf(instrAddr, gscfmt.DiagInvalid, "%s: %v", h.Mnemonic, err)
			w.undecompilable = true
			if w.undecompilableReason == "" {
				w.undecompilableReason = fmt.Sprintf("%s failed at 0x%x", h.Mnemonic, instrAddr)
			}
			return
		}

		if h.Terminator {
			return
		}
	}
}

func (w *Walker) fetchOpcode() (uint16, error) {
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

func (w *Walker) runLateOps(addr uint32) {
	ops := w.lateOps[addr]
	if len(ops) == 0 {
		return
	}
	delete(w.lateOps, addr)
	for _, fn := range ops {
		fn(w)
	}
}

func (w *Walker) enqueue(addr uint32) {
	if w.visited[addr] {
		return
	}
	w.worklist = append(w.worklist, addr)
}

// --- opcode.Context ---

func (w *Walker) need(n int) error {
	if w.pos+n > len(w.code) {
		return gscfmt.ErrStreamEOF
	}
	return nil
}

func (w *Walker) ReadU8() (uint8, error) {
	if err := w.need(1); err != nil {
		return 0, err
	}
	v := w.code[w.pos]
	w.pos++
	return v, nil
}

func (w *Walker) ReadU16() (uint16, error) {
	if err := w.need(2); err != nil {
		return 0, err
	}
	v := uint16(w.code[w.pos]) | uint16(w.code[w.pos+1])<<8
	w.pos += 2
	return v, nil
}

func (w *Walker) ReadU32() (uint32, error) {
	if err := w.need(4); err != nil {
		return 0, err
	}
	v := uint32(w.code[w.pos]) | uint32(w.code[w.pos+1])<<8 | uint32(w.code[w.pos+2])<<16 | uint32(w.code[w.pos+3])<<24
	w.pos += 4
	return v, nil
}

func (w *Walker) ReadU64() (uint64, error) {
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

func (w *Walker) ReadFloat32() (float32, error) {
	v, err := w.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (w *Walker) Push(r ast.Ref) { w.stack = append(w.stack, r) }

func (w *Walker) Pop() (ast.Ref, bool) {
	if len(w.stack) == 0 {
		return ast.NilRef, false
	}
	v := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	return v, true
}

func (w *Walker) SetFieldReg(r ast.Ref)  { w.fieldReg, w.hasField = r, true }
func (w *Walker) SetObjectReg(r ast.Ref) { w.objectReg, w.hasObject = r, true }
func (w *Walker) FieldReg() (ast.Ref, bool)  { return w.fieldReg, w.hasField }
func (w *Walker) ObjectReg() (ast.Ref, bool) { return w.objectReg, w.hasObject }

func (w *Walker) NewNode(kind ast.Kind, text string) ast.Ref {
	r := w.arena.New(kind, w.loc)
	w.arena.Get(r).Text = text
	return r
}

func (w *Walker) Node(r ast.Ref) *ast.Node { return w.arena.Get(r) }

func (w *Walker) Emit(stmt ast.Ref) {
	w.stmts = append(w.stmts, ast.Stmt{Location: w.loc, Node: stmt})
}

func (w *Walker) ResolveString(index uint32) (string, bool) {
	if w.ctx == nil {
		return "", false
	}
	s, ok := w.ctx.Strings[int(index)]
	return s, ok
}

func (w *Walker) ResolveGlobal(index uint32) (uint64, bool) {
	if w.ctx == nil {
		return 0, false
	}
	h, ok := w.ctx.Globals[int(index)]
	return h, ok
}

func (w *Walker) ResolveImport(index uint32) (string, string, uint8, bool) {
	if w.ctx == nil || int(index) >= len(w.ctx.Imports) {
		return "", "", 0, false
	}
	imp := w.ctx.Imports[index]
	return imp.Namespace, imp.Name, imp.ParamCount, true
}

func (w *Walker) Location() uint32 { return w.loc }

func (w *Walker) EnqueueJump(target uint32) { w.enqueue(target) }

func (w *Walker) DeferLateOp(at uint32, fn func(ctx opcode.Context)) {
	w.lateOps[at] = append(w.lateOps[at], fn)
}

func (w *Walker) MarkUndecompilable(reason string) {
	w.undecompilable = true
	if w.undecompilableReason == "" {
		w.undecompilableReason = reason
	}
}
