package walker

import (
	"math"

	"github.com/gsctools/gscdis/internal/ast"
	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/gscfmt"
	"github.com/gsctools/gscdis/internal/opcode"
)

// SkipWalker is the lightweight companion to Walker: it implements the
// same opcode.Context interface so every registered Handler's Decode
// runs unmodified, but every AST-construction and register method is a
// no-op: it still follows every reachable jump target through its
// work-list, but records only the farthest byte reached. It exists for call
// sites that only need an export's true byte length — e.g. confirming
// or recovering an ExportEntry.Size the table didn't carry — without
// paying for a full statement-builder pass whose result would be
// thrown away.
type SkipWalker struct {
	code []byte
	pos  int
	loc  uint32
	desc gscfile.VMDescriptor

	visited  map[uint32]bool
	worklist []uint32
	farthest uint32

	scratch ast.Node // reused for every NewNode/Node call; mutations are discarded
}

// SkipSize decodes starting at addr using the no-op Context, following
// jumps but discarding everything they build, and reports one past the
// highest byte offset any reachable instruction touched. It stops at
// limit regardless of outstanding work, so a corrupt or unbounded blob
// can never make this loop longer than the segment itself.
func SkipSize(code []byte, addr uint32, desc gscfile.VMDescriptor, limit uint32) uint32 {
	w := &SkipWalker{code: code, desc: desc, visited: make(map[uint32]bool), farthest: addr}
	w.worklist = append(w.worklist, addr)
	for len(w.worklist) > 0 {
		a := w.worklist[0]
		w.worklist = w.worklist[1:]
		if w.visited[a] || a >= limit {
			continue
		}
		w.runFrom(a, limit)
	}
	return w.farthest
}

func (w *SkipWalker) runFrom(addr, limit uint32) {
	w.pos = int(addr)
	for {
		if uint32(w.pos) >= limit || w.visited[uint32(w.pos)] {
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
		if err := h.Decode(w); err != nil {
			return
		}
		if uint32(w.pos) > w.farthest {
			w.farthest = uint32(w.pos)
		}
		if h.Terminator {
			return
		}
	}
}

func (w *SkipWalker) fetchOpcode() (uint16, error) {
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

func (w *SkipWalker) need(n int) error {
	if w.pos+n > len(w.code) {
		return gscfmt.ErrStreamEOF
	}
	return nil
}

func (w *SkipWalker) ReadU8() (uint8, error) {
	if err := w.need(1); err != nil {
		return 0, err
	}
	v := w.code[w.pos]
	w.pos++
	return v, nil
}

func (w *SkipWalker) ReadU16() (uint16, error) {
	if err := w.need(2); err != nil {
		return 0, err
	}
	v := uint16(w.code[w.pos]) | uint16(w.code[w.pos+1])<<8
	w.pos += 2
	return v, nil
}

func (w *SkipWalker) ReadU32() (uint32, error) {
	if err := w.need(4); err != nil {
		return 0, err
	}
	v := uint32(w.code[w.pos]) | uint32(w.code[w.pos+1])<<8 | uint32(w.code[w.pos+2])<<16 | uint32(w.code[w.pos+3])<<24
	w.pos += 4
	return v, nil
}

func (w *SkipWalker) ReadU64() (uint64, error) {
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

func (w *SkipWalker) ReadFloat32() (float32, error) {
	v, err := w.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (w *SkipWalker) Push(ast.Ref)         {}
func (w *SkipWalker) Pop() (ast.Ref, bool) { return ast.NilRef, true }

func (w *SkipWalker) SetFieldReg(ast.Ref)     {}
func (w *SkipWalker) SetObjectReg(ast.Ref)    {}
func (w *SkipWalker) FieldReg() (ast.Ref, bool)  { return ast.NilRef, false }
func (w *SkipWalker) ObjectReg() (ast.Ref, bool) { return ast.NilRef, false }

// NewNode/Node hand out one reused scratch node rather than NilRef/nil so
// that Decode implementations following the "ctx.Node(n).Field = ..."
// pattern never dereference a nil pointer; the mutation is simply
// overwritten or discarded on the next call, since SkipWalker never reads
// any of it back.
func (w *SkipWalker) NewNode(kind ast.Kind, text string) ast.Ref {
	w.scratch = ast.Node{Kind: kind, Location: w.loc, Text: text}
	return 0
}
func (w *SkipWalker) Node(ast.Ref) *ast.Node { return &w.scratch }
func (w *SkipWalker) Emit(ast.Ref)           {}

func (w *SkipWalker) ResolveString(uint32) (string, bool) { return "", false }
func (w *SkipWalker) ResolveGlobal(uint32) (uint64, bool) { return 0, false }
func (w *SkipWalker) ResolveImport(uint32) (string, string, uint8, bool) {
	return "", "", 0, false
}

func (w *SkipWalker) Location() uint32 { return w.loc }

func (w *SkipWalker) EnqueueJump(target uint32) {
	if !w.visited[target] {
		w.worklist = append(w.worklist, target)
	}
}

func (w *SkipWalker) DeferLateOp(uint32, func(opcode.Context)) {}

func (w *SkipWalker) MarkUndecompilable(string) {}
