package opcode

import (
	"errors"
	"testing"

	"github.com/gsctools/gscdis/internal/ast"
	"github.com/gsctools/gscdis/internal/gscfile"
)

// fakeCtx is a minimal Context implementation driven by a byte cursor over
// a fixed buffer, letting handler tests exercise real Decode functions
// without building a full walker.
type fakeCtx struct {
	buf          []byte
	pos          int
	arena        *ast.Arena
	stack        []ast.Ref
	field        ast.Ref
	object       ast.Ref
	hasField     bool
	hasObject    bool
	emitted      []ast.Ref
	loc          uint32
	jumps        []uint32
	strings      map[uint32]string
	imports      map[uint32][3]string
	undecompilableReason string
}

func newFakeCtx(buf []byte) *fakeCtx {
	return &fakeCtx{buf: buf, arena: ast.NewArena(), field: ast.NilRef, object: ast.NilRef,
		strings: map[uint32]string{}, imports: map[uint32][3]string{}}
}

func (c *fakeCtx) need(n int) error {
	if c.pos+n > len(c.buf) {
		return errors.New("fakeCtx: out of range")
	}
	return nil
}

func (c *fakeCtx) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

func (c *fakeCtx) ReadU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := uint16(c.buf[c.pos]) | uint16(c.buf[c.pos+1])<<8
	c.pos += 2
	return v, nil
}

func (c *fakeCtx) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := uint32(c.buf[c.pos]) | uint32(c.buf[c.pos+1])<<8 | uint32(c.buf[c.pos+2])<<16 | uint32(c.buf[c.pos+3])<<24
	c.pos += 4
	return v, nil
}

func (c *fakeCtx) ReadU64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(c.buf[c.pos+i]) << (8 * i)
	}
	c.pos += 8
	return v, nil
}

func (c *fakeCtx) ReadFloat32() (float32, error) {
	v, err := c.ReadU32()
	return float32(v), err
}

func (c *fakeCtx) Push(r ast.Ref) { c.stack = append(c.stack, r) }

func (c *fakeCtx) Pop() (ast.Ref, bool) {
	if len(c.stack) == 0 {
		return ast.NilRef, false
	}
	v := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return v, true
}

func (c *fakeCtx) SetFieldReg(r ast.Ref)  { c.field, c.hasField = r, true }
func (c *fakeCtx) SetObjectReg(r ast.Ref) { c.object, c.hasObject = r, true }
func (c *fakeCtx) FieldReg() (ast.Ref, bool)  { return c.field, c.hasField }
func (c *fakeCtx) ObjectReg() (ast.Ref, bool) { return c.object, c.hasObject }

func (c *fakeCtx) NewNode(kind ast.Kind, text string) ast.Ref {
	r := c.arena.New(kind, c.loc)
	c.arena.Get(r).Text = text
	return r
}

func (c *fakeCtx) Node(r ast.Ref) *ast.Node { return c.arena.Get(r) }

func (c *fakeCtx) Emit(stmt ast.Ref) { c.emitted = append(c.emitted, stmt) }

func (c *fakeCtx) ResolveString(index uint32) (string, bool) {
	s, ok := c.strings[index]
	return s, ok
}

func (c *fakeCtx) ResolveGlobal(index uint32) (uint64, bool) { return 0, false }

func (c *fakeCtx) ResolveImport(index uint32) (string, string, uint8, bool) {
	v, ok := c.imports[index]
	if !ok {
		return "", "", 0, false
	}
	return v[0], v[1], 0, true
}

func (c *fakeCtx) Location() uint32 { return c.loc }

func (c *fakeCtx) EnqueueJump(target uint32) { c.jumps = append(c.jumps, target) }

func (c *fakeCtx) DeferLateOp(at uint32, fn func(ctx Context)) {}

func (c *fakeCtx) MarkUndecompilable(reason string) { c.undecompilableReason = reason }

func TestGetByteHandler(t *testing.T) {
	h := Defaults()[OpGetByte]
	ctx := newFakeCtx([]byte{42})
	if err := h.Decode(ctx); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	r, ok := ctx.Pop()
	if !ok {
		t.Fatal("nothing pushed")
	}
	if got := ctx.Node(r).Text; got != "42" {
		t.Fatalf("literal text = %q, want 42", got)
	}
}

func TestAddHandlerStackUnderflow(t *testing.T) {
	h := Defaults()[OpAdd]
	ctx := newFakeCtx(nil)
	if err := h.Decode(ctx); err == nil {
		t.Fatal("expected stack underflow error")
	}
	if ctx.undecompilableReason == "" {
		t.Fatal("expected MarkUndecompilable to be called")
	}
}

func TestAddHandlerCombinesOperands(t *testing.T) {
	h := Defaults()[OpAdd]
	ctx := newFakeCtx(nil)
	lhs := ctx.NewNode(ast.KindLiteral, "1")
	rhs := ctx.NewNode(ast.KindLiteral, "2")
	ctx.Push(lhs)
	ctx.Push(rhs)
	if err := h.Decode(ctx); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	r, ok := ctx.Pop()
	if !ok {
		t.Fatal("nothing pushed")
	}
	n := ctx.Node(r)
	if n.Kind != ast.KindBinOp || len(n.Operands) != 2 || n.Operands[0] != lhs || n.Operands[1] != rhs {
		t.Fatalf("unexpected BinOp node %+v", n)
	}
}

func TestJumpHandlerEnqueuesTarget(t *testing.T) {
	h := Defaults()[OpJump]
	buf := []byte{0x10, 0, 0, 0} // displacement 16
	ctx := newFakeCtx(buf)
	ctx.loc = 100
	if err := h.Decode(ctx); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(ctx.jumps) != 1 || ctx.jumps[0] != 116 {
		t.Fatalf("jumps = %v, want [116]", ctx.jumps)
	}
	if len(ctx.emitted) != 1 {
		t.Fatalf("emitted = %v, want one statement", ctx.emitted)
	}
}

func TestCallBuiltinFunctionResolvesImport(t *testing.T) {
	h := Defaults()[OpCallBuiltinFunction]
	buf := []byte{7, 0, 0, 0, 2} // import index 7, param count 2
	ctx := newFakeCtx(buf)
	ctx.imports[7] = [3]string{"common_scripts/utility", "waittillframeend", ""}
	arg1 := ctx.NewNode(ast.KindLiteral, "1")
	arg2 := ctx.NewNode(ast.KindLiteral, "2")
	ctx.Push(arg1)
	ctx.Push(arg2)
	if err := h.Decode(ctx); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	r, ok := ctx.Pop()
	if !ok {
		t.Fatal("nothing pushed")
	}
	n := ctx.Node(r)
	if n.Kind != ast.KindCall {
		t.Fatalf("kind = %v, want Call", n.Kind)
	}
	want := "common_scripts/utility::waittillframeend"
	if n.Text != want {
		t.Fatalf("call text = %q, want %q", n.Text, want)
	}
	if len(n.Operands) != 2 || n.Operands[0] != arg1 || n.Operands[1] != arg2 {
		t.Fatalf("call args = %v", n.Operands)
	}
}

func TestSetVariableFieldRequiresFieldReg(t *testing.T) {
	h := Defaults()[OpSetVariableField]
	ctx := newFakeCtx(nil)
	ctx.Push(ctx.NewNode(ast.KindLiteral, "5"))
	if err := h.Decode(ctx); err == nil {
		t.Fatal("expected missing field reg error")
	}
}

func TestRegistryLookupKnownOpcode(t *testing.T) {
	desc := gscfile.VMDescriptor{VM: 0x19, Platform: gscfile.PlatformPC}
	h, ok := Lookup(desc, 0x32)
	if !ok {
		t.Fatal("expected End opcode to be registered")
	}
	if h.Mnemonic != "End" || !h.Terminator {
		t.Fatalf("handler = %+v", h)
	}
}

func TestRegistryLookupUnknownOpcode(t *testing.T) {
	desc := gscfile.VMDescriptor{VM: 0xFF, Platform: gscfile.PlatformPC}
	if _, ok := Lookup(desc, 0x32); ok {
		t.Fatal("expected lookup to fail for unregistered VM")
	}
}

func TestOpcodeWidthRespectsShortFlag(t *testing.T) {
	short := gscfile.VMDescriptor{VM: 0x19, Flags: gscfile.FlagOpcodeShort}
	if got := OpcodeWidth(short); got != 2 {
		t.Fatalf("OpcodeWidth(short) = %d, want 2", got)
	}
	plain := gscfile.VMDescriptor{VM: 0x19}
	if got := OpcodeWidth(plain); got != 1 {
		t.Fatalf("OpcodeWidth(plain) = %d, want 1", got)
	}
}

func TestOpcodeStringUnknown(t *testing.T) {
	if got := Opcode(9999).String(); got != "Invalid" {
		t.Fatalf("String() = %q, want Invalid", got)
	}
}
