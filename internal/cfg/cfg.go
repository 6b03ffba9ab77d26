// Package cfg is Control-Flow Reconstruction: nine ordered, individually
// gated, idempotent passes that renest a function's flat statement list
// into if/while/for/switch/foreach/devblock structure. Mirrors the
// leader/partition/successor three-pass shape a basic-block builder uses
// for a linear instruction stream, generalized into nine GSC-specific
// passes that operate on already-built ast.Stmt/ast.Node trees instead of
// raw addresses. A pass that cannot match cleanly leaves its statements
// exactly as found; the flat list is always valid input to the emitter,
// so a non-match never blocks output.
package cfg

import (
	"github.com/gsctools/gscdis/internal/ast"
	"github.com/gsctools/gscdis/internal/gscfmt"
)

// Pass is one reconstruction step. It mutates fn.Body/fn.Arena in place
// and reports whether it changed anything; Reconstruct runs each pass
// once and does not consult the result.
type Pass struct {
	Name string
	Skip gscfmt.SkipBits
	Run  func(fn *ast.Func) bool
}

// passes is the fixed pipeline order from the control-flow reconstruction
// step list: dev blocks, switch, for-each, while, for, if/else, return
// jump, boolean return, special patterns.
var passes = []Pass{
	{Name: "dev_blocks", Skip: gscfmt.SkipDevBlocks, Run: runDevBlocks},
	{Name: "switch", Skip: gscfmt.SkipSwitch, Run: runSwitch},
	{Name: "for_each", Skip: gscfmt.SkipForEach, Run: runForEach},
	{Name: "while", Skip: gscfmt.SkipWhile, Run: runWhile},
	{Name: "for", Skip: gscfmt.SkipFor, Run: runFor},
	{Name: "if_else", Skip: gscfmt.SkipIf, Run: runIfElse},
	{Name: "return_jump", Skip: gscfmt.SkipReturnJump, Run: runReturnJump},
	{Name: "bool_return", Skip: gscfmt.SkipBoolReturn, Run: runBoolReturn},
	{Name: "special", Skip: gscfmt.SkipSpecial, Run: runSpecial},
}

// Reconstruct runs every non-skipped pass over fn in fixed order, once
// per pass. Passes are written to be idempotent (running twice produces
// the same list), so Reconstruct never loops a pass to a fixpoint itself
// — one fixed-order sweep is sufficient because each pass only nests
// statements its predecessors have already normalized.
func Reconstruct(fn *ast.Func, skip gscfmt.SkipBits) {
	if fn.Undecompilable {
		return
	}
	for _, p := range passes {
		if skip.Has(p.Skip) {
			continue
		}
		p.Run(fn)
	}
}

// locIndex maps a node's Location to its index in body, for resolving
// jump targets back to statement positions. Multiple statements can
// share a location only in pathological input; the first one wins.
func locIndex(body []ast.Ref, arena *ast.Arena) map[uint32]int {
	m := make(map[uint32]int, len(body))
	for i, r := range body {
		loc := arena.Get(r).Location
		if _, exists := m[loc]; !exists {
			m[loc] = i
		}
	}
	return m
}

// indexAtOrAfter returns the index of the first statement whose Location
// is >= target, or -1 if target falls past the end of body.
func indexAtOrAfter(body []ast.Ref, arena *ast.Arena, target uint32) int {
	for i, r := range body {
		if arena.Get(r).Location >= target {
			return i
		}
	}
	return -1
}

// newBlock wraps stmts (a contiguous slice of statement refs already in
// arena) into a single KindBlock node addressing them via Operands.
func newBlock(arena *ast.Arena, loc uint32, stmts []ast.Ref) ast.Ref {
	r := arena.New(ast.KindBlock, loc)
	cp := make([]ast.Ref, len(stmts))
	copy(cp, stmts)
	arena.Get(r).Operands = cp
	return r
}

// spliceReplace replaces body[from:to] with a single ref, returning the
// new body slice.
func spliceReplace(body []ast.Ref, from, to int, with ast.Ref) []ast.Ref {
	out := make([]ast.Ref, 0, len(body)-(to-from)+1)
	out = append(out, body[:from]...)
	out = append(out, with)
	out = append(out, body[to:]...)
	return out
}

// blockOperandIndices names, per container Kind, which Operands slots
// hold a KindBlock child whose own statement list a statement-level
// rewrite (return-jump coalescing, boolean-return collapsing) should
// also see. If/While/For/ForEach nest exactly one or two such blocks;
// Switch nests one per SwitchCase, reached through the case nodes
// themselves rather than directly.
func blockOperandIndices(k ast.Kind) []int {
	switch k {
	case ast.KindIf:
		return []int{1, 2} // then, else (else may be NilRef)
	case ast.KindWhile:
		return []int{1}
	case ast.KindFor:
		return []int{3}
	case ast.KindForEach:
		return []int{1}
	case ast.KindDevBlock:
		return []int{0}
	}
	return nil
}

// visitStmtLists applies visit to fn.Body and to every nested KindBlock
// statement list reachable through If/While/For/ForEach/DevBlock/Switch
// containers, bottom-up, so a rewrite like return-jump coalescing sees
// statements already nested by earlier passes, not just the top level.
func visitStmtLists(fn *ast.Func, visit func(list []ast.Ref) ([]ast.Ref, bool)) bool {
	changed := false
	fn.Body, changed = visitList(fn.Arena, fn.Body, visit)
	return changed
}

func visitList(arena *ast.Arena, list []ast.Ref, visit func([]ast.Ref) ([]ast.Ref, bool)) ([]ast.Ref, bool) {
	changed := false
	for _, r := range list {
		n := arena.Get(r)
		if n.Kind == ast.KindSwitch {
			for _, caseRef := range n.Operands[1:] {
				caseNode := arena.Get(caseRef)
				if len(caseNode.Operands) == 0 || !caseNode.Operands[0].Valid() {
					continue
				}
				block := arena.Get(caseNode.Operands[0])
				newList, did := visitList(arena, block.Operands, visit)
				if did {
					block.Operands = newList
					changed = true
				}
			}
			continue
		}
		for _, idx := range blockOperandIndices(n.Kind) {
			if idx >= len(n.Operands) || !n.Operands[idx].Valid() {
				continue
			}
			block := arena.Get(n.Operands[idx])
			if block.Kind != ast.KindBlock {
				continue
			}
			newList, did := visitList(arena, block.Operands, visit)
			if did {
				block.Operands = newList
				changed = true
			}
		}
	}
	newList, did := visit(list)
	if did {
		changed = true
		list = newList
	}
	return list, changed
}
