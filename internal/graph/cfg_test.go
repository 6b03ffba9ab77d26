package callgraph

import (
	"testing"

	"github.com/gsctools/gscdis/internal/ast"
)

func callNode(a *ast.Arena, loc uint32, name string) ast.Ref {
	r := a.New(ast.KindCall, loc)
	a.Get(r).Text = name
	return r
}

func identNode(a *ast.Arena, loc uint32, text string) ast.Ref {
	r := a.New(ast.KindIdent, loc)
	a.Get(r).Text = text
	return r
}

// buildFlatFunc assembles a raw, pre-reconstruction function body:
//
//	0x00: call Foo::init()
//	0x04: jumpcond alive -> 0x10
//	0x08: call Bar::die()
//	0x0C: jump -> 0x14
//	0x10: call Baz::heal()
//	0x14: return
func buildFlatFunc() *ast.Func {
	fn := ast.NewFunc("test_func", "", 0)
	a := fn.Arena

	c0 := a.New(ast.KindExprStmt, 0x00)
	a.Get(c0).Operands = []ast.Ref{callNode(a, 0x00, "Foo::init")}

	cond := identNode(a, 0x04, "alive")
	jc := a.New(ast.KindJumpCond, 0x04)
	a.Get(jc).Operands = []ast.Ref{cond}
	a.Get(jc).Target = 0x10

	c1 := a.New(ast.KindExprStmt, 0x08)
	a.Get(c1).Operands = []ast.Ref{callNode(a, 0x08, "Bar::die")}

	j := a.New(ast.KindJump, 0x0C)
	a.Get(j).Target = 0x14

	c2 := a.New(ast.KindExprStmt, 0x10)
	a.Get(c2).Operands = []ast.Ref{callNode(a, 0x10, "Baz::heal")}

	ret := a.New(ast.KindReturn, 0x14)

	fn.Body = []ast.Ref{c0, jc, c1, j, c2, ret}
	return fn
}

func TestBuildFuncCFGSplitsOnJumpTargets(t *testing.T) {
	fn := buildFlatFunc()
	lcfg, count := BuildFuncCFG(fn)

	if count != 4 {
		t.Fatalf("expected 4 blocks, got %d: %+v", count, lcfg.Blocks)
	}

	b0 := lcfg.Blocks[0]
	if len(b0.Calls) != 1 || b0.Calls[0].Callee != "Foo::init" {
		t.Errorf("B0 calls = %+v", b0.Calls)
	}
	if len(b0.Succs) != 2 {
		t.Errorf("B0 succs = %+v, want 2 (true/false branch)", b0.Succs)
	}

	b1 := lcfg.Blocks[1]
	if len(b1.Calls) != 1 || b1.Calls[0].Callee != "Bar::die" {
		t.Errorf("B1 calls = %+v", b1.Calls)
	}
	if len(b1.Succs) != 1 {
		t.Errorf("B1 succs = %+v, want 1 (unconditional jump)", b1.Succs)
	}

	b2 := lcfg.Blocks[2]
	if len(b2.Calls) != 1 || b2.Calls[0].Callee != "Baz::heal" {
		t.Errorf("B2 calls = %+v", b2.Calls)
	}

	b3 := lcfg.Blocks[3]
	if !b3.Term {
		t.Errorf("B3 should be terminal (return), got %+v", b3)
	}
}

func TestBuildCFGMultipleFunctions(t *testing.T) {
	funcs := []FuncInfo{
		{Name: "test_func", Fn: buildFlatFunc()},
		{Name: "trivial", Fn: ast.NewFunc("trivial", "", 0)},
	}
	cg := BuildCFG(funcs)
	if len(cg.Funcs) != 2 {
		t.Fatalf("expected 2 FuncCFG entries, got %d", len(cg.Funcs))
	}
	if cg.Funcs[0].Name != "test_func" {
		t.Errorf("Funcs[0].Name = %q", cg.Funcs[0].Name)
	}
}
