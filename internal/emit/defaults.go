package emit

import "github.com/gsctools/gscdis/internal/ast"

// RecoverDefaults scans the leading run of fn.Body for "param = <expr>;"
// assignments, the shape the compiler emits for a default parameter
// value, and moves each match into the matching ast.Param's Default
// field rather than leaving it as an executable statement. Stops at the
// first statement that doesn't match, since a default-value prelude is
// always compiled as a straight-line prefix, never interleaved with the
// function's real body.
func RecoverDefaults(fn *ast.Func) {
	if len(fn.Params) == 0 {
		return
	}
	arena := fn.Arena
	consumed := 0
	for _, r := range fn.Body {
		n := arena.Get(r)
		if n.Kind != ast.KindAssign || len(n.Operands) != 2 {
			break
		}
		target := arena.Get(n.Operands[0])
		pi := paramIndex(fn.Params, target.Text)
		if pi < 0 || fn.Params[pi].Default.Valid() {
			break
		}
		fn.Params[pi].Default = n.Operands[1]
		consumed++
	}
	if consumed > 0 {
		fn.Body = fn.Body[consumed:]
	}
}

func paramIndex(params []ast.Param, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}
