package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/hashdict"
	"github.com/zboralski/lattice"
)

func TestClassifyEdgeProv(t *testing.T) {
	cases := []struct {
		target string
		want   string
	}{
		{"Foo::bar", ProvQualified},
		{"local_helper", ProvLocal},
		{"@import12", ProvUnresolved},
	}
	for _, c := range cases {
		got := ClassifyEdgeProv(CallEdgeRecord{Target: c.target})
		if got != c.want {
			t.Errorf("ClassifyEdgeProv(%q) = %q, want %q", c.target, got, c.want)
		}
	}
}

func TestCallgraphDOTRendersClusteredNodes(t *testing.T) {
	funcs := []FuncRecord{
		{Name: "main", Owner: ""},
		{Name: "Foo::init", Owner: "Foo"},
		{Name: "Foo::tick", Owner: "Foo"},
	}
	edges := []CallEdgeRecord{
		{FromFunc: "main", Target: "Foo::init"},
		{FromFunc: "Foo::init", Target: "Foo::tick"},
	}
	dot := CallgraphDOT(funcs, edges, "test", NASA, 0)
	if !strings.Contains(dot, "digraph callgraph") {
		t.Fatalf("missing digraph header: %q", dot)
	}
	if !strings.Contains(dot, "cluster_") {
		t.Fatalf("expected a cluster for the two-method Foo owner: %q", dot)
	}
}

func TestComputeStatsCategorizesEdges(t *testing.T) {
	funcs := []FuncRecord{{Name: "main"}, {Name: "Foo::init", Owner: "Foo"}}
	edges := []CallEdgeRecord{
		{FromFunc: "main", Target: "Foo::init"},
		{FromFunc: "main", Target: "helper"},
		{FromFunc: "main", Target: "@import3"},
	}
	stats := ComputeStats(funcs, edges)
	if stats.QualifiedEdges != 1 || stats.LocalEdges != 1 || stats.UnresolvedEdges != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.UniqueOwners != 1 {
		t.Fatalf("UniqueOwners = %d, want 1", stats.UniqueOwners)
	}
}

func TestCFGDOTRendersBlocksAndBranches(t *testing.T) {
	cfg := &lattice.FuncCFG{
		Name: "test_func",
		Blocks: []*lattice.BasicBlock{
			{
				ID: 0, Start: 0, End: 2,
				Calls: []lattice.CallSite{{Offset: 0, Callee: "Foo::init"}},
				Succs: []lattice.Successor{{BlockID: 1, Cond: "true"}, {BlockID: 2, Cond: "false"}},
			},
			{ID: 1, Start: 2, End: 3, Term: true},
			{ID: 2, Start: 3, End: 4, Term: true},
		},
	}
	dot := CFGDOT(cfg, NASA)
	if !strings.Contains(dot, "digraph cfg") {
		t.Fatalf("missing digraph header: %q", dot)
	}
	if !strings.Contains(dot, ">T<") || !strings.Contains(dot, ">F<") {
		t.Fatalf("missing true/false branch labels: %q", dot)
	}
	if !strings.Contains(dot, "Foo::init") {
		t.Fatalf("missing call annotation: %q", dot)
	}
}

func TestCFGDOTEmptyReturnsEmptyString(t *testing.T) {
	if got := CFGDOT(&lattice.FuncCFG{}, NASA); got != "" {
		t.Fatalf("expected empty string for a CFG with no blocks, got %q", got)
	}
}

func TestClassgraphDOTResolvesSuperclassNames(t *testing.T) {
	hashdict.AddPrecomputed(0xABCD, "BaseClass")

	classes := map[string]*gscfile.ClassRecord{
		"PlayerClass": {
			Name:         "PlayerClass",
			Superclasses: map[uint64]struct{}{0xABCD: {}},
			MethodHashes: []uint64{1, 2, 3},
		},
	}
	dot := ClassgraphDOT(classes, "classes", NASA, 0)
	if !strings.Contains(dot, "PlayerClass") || !strings.Contains(dot, "BaseClass") {
		t.Fatalf("missing class names: %q", dot)
	}
}

func TestWriteIndexHTMLIncludesSummary(t *testing.T) {
	stats := CallgraphStats{
		TotalFunctions: 3, UniqueOwners: 1, TotalEdges: 2,
		QualifiedEdges: 1, LocalEdges: 1,
	}
	var buf bytes.Buffer
	WriteIndexHTML(&buf, stats, "my_module", true, true, []string{"main"}, 3, 2)
	out := buf.String()
	if !strings.Contains(out, "<h1>my_module</h1>") {
		t.Fatalf("missing title: %q", out)
	}
	if !strings.Contains(out, "callgraph.svg") || !strings.Contains(out, "classgraph.svg") {
		t.Fatalf("missing graph links: %q", out)
	}
}
