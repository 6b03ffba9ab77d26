package cfg

import (
	"strings"

	"github.com/gsctools/gscdis/internal/ast"
)

// iteratorInitNames/iteratorAdvanceNames are the builtin call fragments
// the engine's array-iteration idiom compiles to; matched by substring
// since namespace prefixes vary across titles/VMs.
var iteratorInitNames = []string{"getfirstarraykey", "getfirstkey"}
var iteratorAdvanceNames = []string{"getnextarraykey", "getnextkey"}

// runForEach pattern-matches the iterator-init / key-get / next-check /
// body / advance quintet: an init assignment calling a "first key"
// builtin, immediately followed by the same back-edge loop shape
// runWhile recognizes, whose body's last statement advances the same
// variable via a "next key" builtin call. Runs before runWhile so a
// matched for-each is consumed whole rather than left for runWhile to
// turn into a plain While.
func runForEach(fn *ast.Func) bool {
	changed := false
	for {
		if !forEachOnePass(fn) {
			break
		}
		changed = true
	}
	return changed
}

func forEachOnePass(fn *ast.Func) bool {
	body := fn.Body
	arena := fn.Arena

	for i, r := range body {
		init := arena.Get(r)
		if init.Kind != ast.KindAssign || len(init.Operands) != 2 {
			continue
		}
		rhs := arena.Get(init.Operands[1])
		if rhs.Kind != ast.KindCall || !containsAny(rhs.Text, iteratorInitNames) {
			continue
		}
		keyVar := assignTargetText(arena, init)

		if i+1 >= len(body) {
			continue
		}
		header := arena.Get(body[i+1])
		if header.Kind != ast.KindJumpCond || len(header.Operands) == 0 {
			continue
		}
		exitIdx := indexAtOrAfter(body, arena, header.Target)
		if exitIdx <= i+1 {
			continue
		}
		tail := findBackEdge(body, arena, i+2, exitIdx, header.Location)
		if tail < 0 || tail <= i+2 {
			continue
		}

		advance := arena.Get(body[tail-1])
		if advance.Kind != ast.KindAssign || assignTargetText(arena, advance) != keyVar {
			continue
		}
		advanceRHS := arena.Get(advance.Operands[1])
		if advanceRHS.Kind != ast.KindCall || !containsAny(advanceRHS.Text, iteratorAdvanceNames) {
			continue
		}

		bodyStmts := body[i+2 : tail-1]
		bodyRef := newBlock(arena, header.Location, bodyStmts)

		forEachNode := arena.New(ast.KindForEach, init.Location)
		arena.Get(forEachNode).Operands = []ast.Ref{init.Operands[1], bodyRef}
		arena.Get(forEachNode).Text = keyVar

		fn.Body = spliceReplace(body, i, tail+1, forEachNode)
		return true
	}
	return false
}

func containsAny(text string, fragments []string) bool {
	lower := strings.ToLower(text)
	for _, f := range fragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
