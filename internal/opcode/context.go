package opcode

import "github.com/gsctools/gscdis/internal/ast"

// Context is the capability a Handler's Decode function needs from
// whatever is driving it. internal/walker implements this for the full
// disassembly pass; walker.SkipWalker (a lightweight implementation with no-op
// Push/NewNode/stack bookkeeping) implements it for the size-only pass,
// so a single Decode function serves both, matching the invariant that a
// handler's operand layout and cursor advance never differ between the
// two walks — only what gets built from them does.
type Context interface {
	// Operand reads, little-endian, cursor-advancing.
	ReadU8() (uint8, error)
	ReadU16() (uint16, error)
	ReadU32() (uint32, error)
	ReadU64() (uint64, error)
	ReadFloat32() (float32, error)

	// Abstract stack of AST node handles.
	Push(ast.Ref)
	Pop() (ast.Ref, bool)

	// Field/object registers, written by field-/array-ref opcodes and
	// consumed by assigners.
	SetFieldReg(ast.Ref)
	SetObjectReg(ast.Ref)
	FieldReg() (ast.Ref, bool)
	ObjectReg() (ast.Ref, bool)

	// AST construction.
	NewNode(kind ast.Kind, text string) ast.Ref
	Node(ast.Ref) *ast.Node
	Emit(stmt ast.Ref)

	// Link-patched table lookups (internal/linker already resolved these
	// to interned indices; Context just dereferences them).
	ResolveString(index uint32) (string, bool)
	ResolveGlobal(index uint32) (uint64, bool)
	ResolveImport(index uint32) (namespace, name string, paramCount uint8, ok bool)

	// Jump/location bookkeeping.
	Location() uint32
	EnqueueJump(target uint32)
	DeferLateOp(at uint32, fn func(ctx Context))

	// Failure reporting; a handler that hits an invalid state calls this
	// once and returns an error.
	MarkUndecompilable(reason string)
}
