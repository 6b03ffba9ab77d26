package cfg

import "github.com/gsctools/gscdis/internal/ast"

// runSpecial applies the catalog of engine-idiomatic micro-rewrites.
// Currently one: compound-assignment recognition, folding
// "x = x + y" into the single statement "x += y" by rewriting the
// Assign node's own Text/Operands rather than introducing a new Kind —
// the emitter switches on Assign.Text to choose "=" vs "+=" etc.
func runSpecial(fn *ast.Func) bool {
	arena := fn.Arena
	return visitStmtLists(fn, func(list []ast.Ref) ([]ast.Ref, bool) {
		changed := false
		for _, r := range list {
			n := arena.Get(r)
			if n.Kind != ast.KindAssign || len(n.Operands) != 2 {
				continue
			}
			if isCompoundAssignText(n.Text) {
				continue // already folded by an earlier sweep
			}
			target, value := n.Operands[0], n.Operands[1]
			rhs := arena.Get(value)
			if rhs.Kind != ast.KindBinOp || len(rhs.Operands) != 2 {
				continue
			}
			if !sameOperand(arena, target, rhs.Operands[0]) {
				continue
			}
			if op := compoundAssignOp(rhs.Text); op != "" {
				n.Text = op
				n.Operands = []ast.Ref{target, rhs.Operands[1]}
				changed = true
			}
		}
		return list, changed
	})
}

func compoundAssignOp(binOp string) string {
	switch binOp {
	case "+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>":
		return binOp + "="
	default:
		return ""
	}
}

func isCompoundAssignText(text string) bool {
	switch text {
	case "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=":
		return true
	default:
		return false
	}
}

// sameOperand compares two expression refs by Kind+Text+Target, the
// cheap structural-equality check a field/ident reference needs (full
// subtree equality isn't required: the walker gives every reference to
// the same field the same Text, since it always re-reads it from the
// interned-string table rather than caching a prior node).
func sameOperand(arena *ast.Arena, a, b ast.Ref) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	na, nb := arena.Get(a), arena.Get(b)
	return na.Kind == nb.Kind && na.Text == nb.Text && na.Target == nb.Target
}
