package cfg

import "github.com/gsctools/gscdis/internal/ast"

// runBoolReturn collapses "if (c) return true; else return false;" (and
// its mirror, swapped true/false) into a single "return (expr)" — the
// condition itself for the non-mirrored form, its negation for the
// mirrored one.
func runBoolReturn(fn *ast.Func) bool {
	arena := fn.Arena
	return visitStmtLists(fn, func(list []ast.Ref) ([]ast.Ref, bool) {
		changed := false
		for i, r := range list {
			n := arena.Get(r)
			if n.Kind != ast.KindIf || len(n.Operands) != 3 {
				continue
			}
			cond, thenRef, elseRef := n.Operands[0], n.Operands[1], n.Operands[2]
			if !elseRef.Valid() {
				continue
			}
			thenRet, ok1 := soleBoolReturn(arena, thenRef)
			elseRet, ok2 := soleBoolReturn(arena, elseRef)
			if !ok1 || !ok2 || thenRet == elseRet {
				continue
			}

			var resultExpr ast.Ref
			if thenRet {
				resultExpr = cond
			} else {
				negated := arena.New(ast.KindUnOp, n.Location)
				arena.Get(negated).Text = "!"
				arena.Get(negated).Operands = []ast.Ref{cond}
				resultExpr = negated
			}

			replacement := arena.New(ast.KindReturn, n.Location)
			arena.Get(replacement).Operands = []ast.Ref{resultExpr}
			list[i] = replacement
			changed = true
		}
		return list, changed
	})
}

// soleBoolReturn reports whether blockRef's block is exactly one "return
// true" or "return false" statement, and which.
func soleBoolReturn(arena *ast.Arena, blockRef ast.Ref) (value bool, ok bool) {
	block := arena.Get(blockRef)
	if block.Kind != ast.KindBlock || len(block.Operands) != 1 {
		return false, false
	}
	ret := arena.Get(block.Operands[0])
	if ret.Kind != ast.KindReturn || len(ret.Operands) != 1 {
		return false, false
	}
	lit := arena.Get(ret.Operands[0])
	if lit.Kind != ast.KindLiteral {
		return false, false
	}
	switch lit.Text {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}
