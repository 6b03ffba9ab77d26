package cfg

import "github.com/gsctools/gscdis/internal/ast"

// runSwitch detects the jump-table preamble: a run of two or more
// consecutive "scrutinee == case-literal" compare-jumps sharing the same
// scrutinee expression, each jumping forward into its own case body. Case
// bodies are assumed laid out in increasing target order with a single
// shared merge point reached via an unconditional jump out of the first
// case body — the common shape a compiler emits for a straight-line (non
// computed-jump-table) switch lowering. Anything else is left flat for
// downstream passes or the emitter to print as sequential statements.
func runSwitch(fn *ast.Func) bool {
	changed := false
	for {
		if !switchOnePass(fn) {
			break
		}
		changed = true
	}
	return changed
}

type switchCase struct {
	key      string // "" only for the synthesized default
	isDefault bool
	targetIdx int
}

func switchOnePass(fn *ast.Func) bool {
	body := fn.Body
	arena := fn.Arena

	for i := range body {
		scrutinee, cases, chainEnd, ok := matchCompareChain(body, arena, i)
		if !ok || len(cases) < 2 {
			continue
		}

		// Sort-free: require targets strictly increasing in encounter order,
		// the layout this pass is willing to reconstruct.
		increasing := true
		for k := 1; k < len(cases); k++ {
			if cases[k].targetIdx <= cases[k-1].targetIdx {
				increasing = false
				break
			}
		}
		if !increasing {
			continue
		}

		// A default body is whatever falls through directly after the
		// compare chain, before the first case target.
		firstTarget := cases[0].targetIdx
		var defaultCase *switchCase
		if firstTarget > chainEnd {
			defaultCase = &switchCase{isDefault: true, targetIdx: chainEnd}
		}

		// Find the merge point: the target of the first unconditional Jump
		// at or after the first case's target that lands past the last
		// case's target, the jump a compiled case body ends with to skip
		// the rest of the switch.
		mergeSearchFrom := firstTarget
		mergeIdx := -1
		var mergeLoc uint32
		for k := mergeSearchFrom; k < len(body); k++ {
			n := arena.Get(body[k])
			if n.Kind == ast.KindJump {
				idx := indexAtOrAfter(body, arena, n.Target)
				if idx > cases[len(cases)-1].targetIdx {
					mergeIdx = idx
					mergeLoc = n.Target
					break
				}
			}
		}
		if mergeIdx < 0 {
			continue
		}

		// Build case statement-body ranges: each runs from its own target
		// to the next case's target (or to mergeIdx for the last case),
		// with a trailing unconditional jump to the merge point stripped.
		boundaries := make([]int, 0, len(cases)+1)
		if defaultCase != nil {
			boundaries = append(boundaries, defaultCase.targetIdx)
		}
		for _, c := range cases {
			boundaries = append(boundaries, c.targetIdx)
		}
		boundaries = append(boundaries, mergeIdx)

		allCases := make([]switchCase, 0, len(cases)+1)
		if defaultCase != nil {
			allCases = append(allCases, *defaultCase)
		}
		allCases = append(allCases, cases...)

		caseRefs := make([]ast.Ref, 0, len(allCases))
		for ci, c := range allCases {
			from, to := boundaries[ci], boundaries[ci+1]
			stmts := body[from:to]
			if len(stmts) > 0 {
				last := arena.Get(stmts[len(stmts)-1])
				if last.Kind == ast.KindJump && last.Target == mergeLoc {
					stmts = stmts[:len(stmts)-1]
				}
			}
			blockRef := newBlock(arena, arena.Get(body[from]).Location, stmts)
			caseNode := arena.New(ast.KindSwitchCase, arena.Get(body[from]).Location)
			text := c.key
			if c.isDefault {
				text = "default"
			}
			arena.Get(caseNode).Text = text
			arena.Get(caseNode).Operands = []ast.Ref{blockRef}
			caseRefs = append(caseRefs, caseNode)
		}

		switchNode := arena.New(ast.KindSwitch, arena.Get(body[i]).Location)
		swOperands := append([]ast.Ref{scrutinee}, caseRefs...)
		arena.Get(switchNode).Operands = swOperands

		fn.Body = spliceReplace(body, i, mergeIdx, switchNode)
		return true
	}
	return false
}

// matchCompareChain scans body starting at start for a run of
// "scrutinee == literal" JumpCond statements sharing the same scrutinee,
// returning the scrutinee ref, the matched cases in encounter order, and
// the index one past the last matched compare-jump.
func matchCompareChain(body []ast.Ref, arena *ast.Arena, start int) (ast.Ref, []switchCase, int, bool) {
	var scrutinee ast.Ref
	var cases []switchCase
	i := start
	for i < len(body) {
		n := arena.Get(body[i])
		if n.Kind != ast.KindJumpCond || len(n.Operands) == 0 {
			break
		}
		cond := arena.Get(n.Operands[0])
		if cond.Kind != ast.KindBinOp || cond.Text != "==" || len(cond.Operands) != 2 {
			break
		}
		lhs, rhs := cond.Operands[0], cond.Operands[1]
		if i == start {
			scrutinee = lhs
		} else if arena.Get(lhs).Text != arena.Get(scrutinee).Text {
			break
		}
		targetIdx := indexAtOrAfter(body, arena, n.Target)
		if targetIdx < 0 {
			break
		}
		cases = append(cases, switchCase{key: arena.Get(rhs).Text, targetIdx: targetIdx})
		i++
	}
	if len(cases) == 0 {
		return ast.NilRef, nil, start, false
	}
	return scrutinee, cases, i, true
}
