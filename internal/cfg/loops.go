package cfg

import "github.com/gsctools/gscdis/internal/ast"

// runWhile recognizes a back-edge from a block's tail to a header that
// dominates it, with the loop exit taken from the header's own forward
// conditional jump: header = JumpCond(cond, exit-target); somewhere
// before the exit, an unconditional Jump back to the header's own
// location closes the loop.
func runWhile(fn *ast.Func) bool {
	changed := false
	for {
		if !whileOnePass(fn) {
			break
		}
		changed = true
	}
	return changed
}

func whileOnePass(fn *ast.Func) bool {
	body := fn.Body
	arena := fn.Arena

	for h, r := range body {
		header := arena.Get(r)
		if header.Kind != ast.KindJumpCond || len(header.Operands) == 0 {
			continue
		}
		exitIdx := indexAtOrAfter(body, arena, header.Target)
		if exitIdx <= h {
			continue
		}
		tail := findBackEdge(body, arena, h+1, exitIdx, header.Location)
		if tail < 0 {
			continue
		}

		cond := header.Operands[0]
		loopBody := body[h+1 : tail]
		bodyRef := newBlock(arena, header.Location, loopBody)

		whileNode := arena.New(ast.KindWhile, header.Location)
		arena.Get(whileNode).Operands = []ast.Ref{cond, bodyRef}

		fn.Body = spliceReplace(body, h, tail+1, whileNode)
		return true
	}
	return false
}

// findBackEdge looks for an unconditional Jump in body[from:to) whose
// target equals headerLoc, returning its index or -1.
func findBackEdge(body []ast.Ref, arena *ast.Arena, from, to int, headerLoc uint32) int {
	for i := from; i < to && i < len(body); i++ {
		n := arena.Get(body[i])
		if n.Kind == ast.KindJump && n.Target == headerLoc {
			return i
		}
	}
	return -1
}

// runFor recognizes a While whose header is immediately preceded by a
// simple assignment (the init) and whose body's last statement is an
// assignment to the same target (the update): the canonical desugared
// for-loop. Runs after runWhile, so it only has to peel surrounding
// statements off an already-recognized KindWhile.
func runFor(fn *ast.Func) bool {
	changed := false
	for {
		if !forOnePass(fn) {
			break
		}
		changed = true
	}
	return changed
}

func forOnePass(fn *ast.Func) bool {
	body := fn.Body
	arena := fn.Arena

	for i, r := range body {
		n := arena.Get(r)
		if n.Kind != ast.KindWhile {
			continue
		}
		if i == 0 {
			continue
		}
		initRef := body[i-1]
		init := arena.Get(initRef)
		if init.Kind != ast.KindAssign {
			continue
		}
		initTarget := assignTargetText(arena, init)

		bodyBlock := arena.Get(n.Operands[1])
		if len(bodyBlock.Operands) == 0 {
			continue
		}
		lastStmtRef := bodyBlock.Operands[len(bodyBlock.Operands)-1]
		last := arena.Get(lastStmtRef)
		if last.Kind != ast.KindAssign || assignTargetText(arena, last) != initTarget {
			continue
		}

		newBodyStmts := bodyBlock.Operands[:len(bodyBlock.Operands)-1]
		newBodyRef := newBlock(arena, bodyBlock.Location, newBodyStmts)

		forNode := arena.New(ast.KindFor, init.Location)
		arena.Get(forNode).Operands = []ast.Ref{initRef, n.Operands[0], lastStmtRef, newBodyRef}

		fn.Body = spliceReplace(body, i-1, i+1, forNode)
		return true
	}
	return false
}

// assignTargetText returns a stable string identifying what an Assign
// node writes to, for comparing the for-loop's init and update targets.
// The target ref's own Text (set by the field/array opcode that produced
// it) is sufficient; nothing here needs full expression equality.
func assignTargetText(arena *ast.Arena, assign *ast.Node) string {
	if len(assign.Operands) == 0 {
		return ""
	}
	target := arena.Get(assign.Operands[0])
	if target == nil {
		return ""
	}
	return target.Text
}
