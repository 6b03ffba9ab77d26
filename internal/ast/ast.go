// Package ast models a reconstructed function body as an arena of nodes
// addressed by small integer indices rather than pointers. Control-flow
// reconstruction passes repeatedly renest and replace subtrees in place;
// an arena keeps those rewrites from ever creating a reference cycle or a
// dangling pointer, the concern the "cyclic references in the AST" design
// note calls out directly.
package ast

// Kind classifies a Node. Kinds split cleanly into expressions (Literal
// through VTableRef), statements (ExprStmt through Block, plus the RawAsm
// fallback), and the two
// sentinels the walker always emits: PreCodePos (a pure label marker with
// no effect) and End (function terminator).
type Kind int

const (
	KindInvalid Kind = iota

	// Sentinels.
	KindPreCodePos
	KindEnd

	// Expressions.
	KindLiteral
	KindIdent
	KindGlobal
	KindBinOp
	KindUnOp
	KindCall
	KindFieldAccess
	KindArrayAccess
	KindVTableRef

	// Statements.
	KindExprStmt
	KindAssign
	KindJump
	KindJumpCond
	KindReturn
	KindIf
	KindWhile
	KindFor
	KindForEach
	KindSwitch
	KindSwitchCase
	KindDevBlock
	KindBlock

	// Fallback for a statement range no reconstruction pass could nest
	// cleanly; the node's Text carries the raw disassembly lines.
	KindRawAsm
)

func (k Kind) String() string {
	switch k {
	case KindPreCodePos:
		return "PRECODEPOS"
	case KindEnd:
		return "END"
	case KindLiteral:
		return "Literal"
	case KindIdent:
		return "Ident"
	case KindGlobal:
		return "Global"
	case KindBinOp:
		return "BinOp"
	case KindUnOp:
		return "UnOp"
	case KindCall:
		return "Call"
	case KindFieldAccess:
		return "FieldAccess"
	case KindArrayAccess:
		return "ArrayAccess"
	case KindVTableRef:
		return "VTableRef"
	case KindExprStmt:
		return "ExprStmt"
	case KindAssign:
		return "Assign"
	case KindJump:
		return "Jump"
	case KindJumpCond:
		return "JumpCond"
	case KindReturn:
		return "Return"
	case KindIf:
		return "If"
	case KindWhile:
		return "While"
	case KindFor:
		return "For"
	case KindForEach:
		return "ForEach"
	case KindSwitch:
		return "Switch"
	case KindSwitchCase:
		return "SwitchCase"
	case KindDevBlock:
		return "DevBlock"
	case KindBlock:
		return "Block"
	case KindRawAsm:
		return "RawAsm"
	default:
		return "Invalid"
	}
}

// Ref is an arena-relative node index. The zero value addresses the
// arena's first node; use NilRef for "no node".
type Ref int32

// NilRef is the sentinel "no node" reference.
const NilRef Ref = -1

// Valid reports whether r addresses a real node.
func (r Ref) Valid() bool { return r >= 0 }

// Node is one arena entry. Operands holds child references in a kind-
// specific order (e.g. KindIf: [cond, thenBlock, elseBlock-or-NilRef];
// KindBinOp: [lhs, rhs]); Text carries literal values, mnemonics, or raw
// disassembly text depending on Kind.
type Node struct {
	Kind     Kind
	Location uint32 // relative bytecode offset this node originated from
	Text     string
	Operands []Ref
	Target   uint32 // jump/branch target offset, meaningful for jump kinds
}

// Arena owns every Node for one export's reconstruction. Nodes are never
// removed, only appended or mutated in place by Ref; this keeps every Ref
// handed out earlier in a walk valid for the arena's whole lifetime.
type Arena struct {
	nodes []Node
}

// NewArena returns an empty arena sized for a typical export body.
func NewArena() *Arena {
	return &Arena{nodes: make([]Node, 0, 64)}
}

// New appends a node and returns its Ref.
func (a *Arena) New(kind Kind, location uint32) Ref {
	a.nodes = append(a.nodes, Node{Kind: kind, Location: location})
	return Ref(len(a.nodes) - 1)
}

// Get returns a pointer to the node addressed by r, allowing in-place
// mutation (reconstruction passes rewrite Operands/Kind directly).
func (a *Arena) Get(r Ref) *Node {
	if !r.Valid() || int(r) >= len(a.nodes) {
		return nil
	}
	return &a.nodes[r]
}

// Len reports how many nodes the arena holds.
func (a *Arena) Len() int { return len(a.nodes) }

// Stmt is one entry in a function's flat statement list, as the walker
// first produces it: a bytecode location plus the node that represents
// whatever happened there. Reconstruction passes consume and replace runs
// of Stmt with nested Block/If/While/... nodes.
type Stmt struct {
	Location uint32
	Node     Ref
}

// Param describes one recovered formal parameter.
type Param struct {
	Name       string
	ArrayRef   bool // &-prefixed array-ref parameter
	WideRef    bool // *-prefixed wide-ref parameter
	Variadic   bool // "..." vararg parameter
	Default    Ref  // NilRef unless a default-value recovery pass found one
}

// Func is the reconstructed body of one export: a flat Body to start,
// renested in place as internal/cfg's passes run.
type Func struct {
	Name       string
	Namespace  string
	Address    uint32
	Size       uint32
	Params     []Param
	Arena      *Arena
	Body       []Ref // top-level statement refs, post-reconstruction
	Undecompilable bool
	UndecompilableReason string
}

// NewFunc returns an empty function body backed by a fresh arena.
func NewFunc(name, namespace string, address uint32) *Func {
	return &Func{Name: name, Namespace: namespace, Address: address, Arena: NewArena()}
}
