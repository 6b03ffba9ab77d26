package cfg

import "github.com/gsctools/gscdis/internal/ast"

// runReturnJump coalesces the fan-in of jumps-to-final-return: any
// unconditional Jump whose target resolves to a Return statement is
// semantically identical to that Return, so it is replaced in place by a
// copy of it. This only ever removes a jump, never reorders anything, so
// it is trivially idempotent and safe regardless of pass order relative
// to if/while/for, all of which may themselves introduce such jumps
// while nesting.
func runReturnJump(fn *ast.Func) bool {
	arena := fn.Arena
	return visitStmtLists(fn, func(list []ast.Ref) ([]ast.Ref, bool) {
		changed := false
		for i, r := range list {
			n := arena.Get(r)
			if n.Kind != ast.KindJump {
				continue
			}
			idx := indexAtOrAfter(list, arena, n.Target)
			if idx < 0 || idx >= len(list) {
				continue
			}
			target := arena.Get(list[idx])
			if target.Kind != ast.KindReturn {
				continue
			}

			replacement := arena.New(ast.KindReturn, n.Location)
			arena.Get(replacement).Operands = append([]ast.Ref(nil), target.Operands...)
			list[i] = replacement
			changed = true
		}
		return list, changed
	})
}
