package cfg

import "github.com/gsctools/gscdis/internal/ast"

// runIfElse recognizes the canonical forward-jump-over-else diamond: a
// conditional jump skipping a then-block, whose last statement is an
// unconditional jump skipping a following else-block. Chains of "else
// if" fall out for free, since each collapsed If becomes one statement
// the next outer match can itself skip over.
func runIfElse(fn *ast.Func) bool {
	changed := false
	for {
		if !ifElseOnePass(fn) {
			break
		}
		changed = true
	}
	return changed
}

func ifElseOnePass(fn *ast.Func) bool {
	body := fn.Body
	arena := fn.Arena

	for i, r := range body {
		n := arena.Get(r)
		if n.Kind != ast.KindJumpCond || len(n.Operands) == 0 {
			continue
		}
		cond := n.Operands[0]
		thenEnd := indexAtOrAfter(body, arena, n.Target)
		if thenEnd < 0 || thenEnd <= i+1 {
			continue // no then-body, or target doesn't resolve cleanly
		}

		thenStmts := body[i+1 : thenEnd]
		elseEnd := thenEnd
		var elseStmts []ast.Ref

		// If the then-block's last statement is an unconditional jump
		// past a following block, that's the else arm.
		last := arena.Get(thenStmts[len(thenStmts)-1])
		if last.Kind == ast.KindJump {
			candidateEnd := indexAtOrAfter(body, arena, last.Target)
			if candidateEnd > thenEnd {
				elseStmts = body[thenEnd:candidateEnd]
				thenStmts = thenStmts[:len(thenStmts)-1] // drop the jump itself
				elseEnd = candidateEnd
			}
		}

		thenRef := newBlock(arena, n.Location, thenStmts)
		elseRef := ast.NilRef
		if elseStmts != nil {
			elseRef = newBlock(arena, n.Location, elseStmts)
		}

		ifNode := arena.New(ast.KindIf, n.Location)
		arena.Get(ifNode).Operands = []ast.Ref{cond, thenRef, elseRef}

		fn.Body = spliceReplace(body, i, elseEnd, ifNode)
		return true
	}
	return false
}
