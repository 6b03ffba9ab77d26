package callgraph

import (
	"sort"

	"github.com/gsctools/gscdis/internal/ast"
	"github.com/zboralski/lattice"
)

// BuildCFG constructs a lattice.CFGGraph from a set of functions, one
// lattice.FuncCFG per entry.
func BuildCFG(funcs []FuncInfo) *lattice.CFGGraph {
	cg := &lattice.CFGGraph{}
	for _, f := range funcs {
		lcfg, _ := BuildFuncCFG(f.Fn)
		cg.Funcs = append(cg.Funcs, lcfg)
	}
	return cg
}

// BuildFuncCFG partitions fn's flat statement list into basic blocks by
// leader index, the same split a leader/partition/successor basic-block
// builder performs over a raw instruction stream: a statement starts a
// new block if it is the first statement, the target of some Jump or
// JumpCond elsewhere in the body, or the statement immediately following
// a Jump, JumpCond, or Return. Call this before internal/cfg.Reconstruct
// renests fn.Body — reconstruction folds the very Jump/JumpCond nodes
// this split keys on into If/While/For, after which block boundaries can
// no longer be recovered from the flat list. Returns the FuncCFG and its
// block count, so a caller can filter trivial (single-block, no-call)
// functions out of a rendered graph.
func BuildFuncCFG(fn *ast.Func) (*lattice.FuncCFG, int) {
	lcfg := &lattice.FuncCFG{}
	if fn == nil {
		return lcfg, 0
	}
	lcfg.Name = fn.Name

	body := fn.Body
	arena := fn.Arena
	if len(body) == 0 {
		return lcfg, 0
	}

	locToIdx := make(map[uint32]int, len(body))
	for i, r := range body {
		locToIdx[arena.Get(r).Location] = i
	}

	leaders := map[int]bool{0: true}
	for i, r := range body {
		n := arena.Get(r)
		switch n.Kind {
		case ast.KindJump, ast.KindJumpCond:
			if idx, ok := locToIdx[n.Target]; ok {
				leaders[idx] = true
			}
			fallthrough
		case ast.KindReturn:
			if i+1 < len(body) {
				leaders[i+1] = true
			}
		}
	}

	starts := make([]int, 0, len(leaders))
	for idx := range leaders {
		starts = append(starts, idx)
	}
	sort.Ints(starts)

	blockOf := make(map[int]int, len(body))
	for bi, start := range starts {
		end := len(body)
		if bi+1 < len(starts) {
			end = starts[bi+1]
		}
		for idx := start; idx < end; idx++ {
			blockOf[idx] = bi
		}
	}

	for bi, start := range starts {
		end := len(body)
		if bi+1 < len(starts) {
			end = starts[bi+1]
		}
		lb := &lattice.BasicBlock{ID: bi, Start: start, End: end}

		for idx := start; idx < end; idx++ {
			for _, callee := range findCalls(arena, body[idx]) {
				lb.Calls = append(lb.Calls, lattice.CallSite{Offset: idx, Callee: callee})
			}
		}

		last := arena.Get(body[end-1])
		switch last.Kind {
		case ast.KindJumpCond:
			if tgt, ok := locToIdx[last.Target]; ok {
				lb.Succs = append(lb.Succs, lattice.Successor{BlockID: blockOf[tgt], Cond: "true"})
			}
			if end < len(body) {
				lb.Succs = append(lb.Succs, lattice.Successor{BlockID: blockOf[end], Cond: "false"})
			} else {
				lb.Term = true
			}
		case ast.KindJump:
			if tgt, ok := locToIdx[last.Target]; ok {
				lb.Succs = append(lb.Succs, lattice.Successor{BlockID: blockOf[tgt]})
			} else {
				lb.Term = true
			}
		case ast.KindReturn, ast.KindEnd:
			lb.Term = true
		default:
			if end < len(body) {
				lb.Succs = append(lb.Succs, lattice.Successor{BlockID: blockOf[end]})
			} else {
				lb.Term = true
			}
		}

		lcfg.Blocks = append(lcfg.Blocks, lb)
	}

	return lcfg, len(lcfg.Blocks)
}

// findCalls returns every KindCall callee text reachable under r,
// including r itself, in first-seen order. Unlike CollectCalls, this
// keeps duplicates and per-statement placement: a block's call list
// exists to annotate offsets in a rendered CFG, not to dedupe across the
// whole function.
func findCalls(arena *ast.Arena, r ast.Ref) []string {
	if !r.Valid() {
		return nil
	}
	n := arena.Get(r)
	if n == nil {
		return nil
	}
	var calls []string
	if n.Kind == ast.KindCall && n.Text != "" {
		calls = append(calls, n.Text)
	}
	for _, child := range n.Operands {
		calls = append(calls, findCalls(arena, child)...)
	}
	return calls
}
