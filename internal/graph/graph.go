// Package callgraph builds lattice.Graph call graphs and lattice.FuncCFG
// basic-block graphs from reconstructed GSC function bodies, for visual
// cross-referencing of call relationships and control flow independent
// of the emitted source text.
package callgraph

import (
	"github.com/gsctools/gscdis/internal/ast"
	"github.com/zboralski/lattice"
)

// FuncInfo holds the data needed to build a call graph or CFG entry for
// one export.
type FuncInfo struct {
	Name string
	Fn   *ast.Func
}

// BuildCallGraph constructs a lattice.Graph from a set of functions. Each
// function becomes a node; each distinct callee name found in a KindCall
// node anywhere in its body becomes an edge. A function whose Fn is nil
// (an export that never decoded, e.g. a raw export table stub) still
// contributes a node with no outgoing edges.
func BuildCallGraph(funcs []FuncInfo) *lattice.Graph {
	g := &lattice.Graph{}
	for _, f := range funcs {
		g.Nodes = append(g.Nodes, f.Name)
		for _, callee := range CollectCalls(f.Fn) {
			g.Edges = append(g.Edges, lattice.Edge{Caller: f.Name, Callee: callee})
		}
	}
	g.Dedup()
	return g
}

// CollectCalls walks every node reachable from fn.Body and returns each
// KindCall node's callee text, deduplicated, in first-seen order. The
// walk is kind-agnostic: it recurses into every Operands slot regardless
// of what container kind owns it, since a call can appear nested inside
// an assignment's value, a return expression, a loop condition, or a
// switch case body alike. Exported so cmd/gscdis can build its own
// render.CallEdgeRecord list (with namespace/owner context this package
// doesn't track) from the same walk BuildCallGraph uses internally.
func CollectCalls(fn *ast.Func) []string {
	if fn == nil || fn.Arena == nil {
		return nil
	}
	seen := make(map[string]bool)
	var calls []string
	var walk func(r ast.Ref)
	walk = func(r ast.Ref) {
		if !r.Valid() {
			return
		}
		n := fn.Arena.Get(r)
		if n == nil {
			return
		}
		if n.Kind == ast.KindCall && n.Text != "" && !seen[n.Text] {
			seen[n.Text] = true
			calls = append(calls, n.Text)
		}
		for _, child := range n.Operands {
			walk(child)
		}
	}
	for _, r := range fn.Body {
		walk(r)
	}
	return calls
}
