package emit

import (
	"strings"
	"testing"

	"github.com/gsctools/gscdis/internal/ast"
	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/hashdict"
)

func litNode(a *ast.Arena, loc uint32, text string) ast.Ref {
	r := a.New(ast.KindLiteral, loc)
	a.Get(r).Text = text
	return r
}

func identNode(a *ast.Arena, loc uint32, text string) ast.Ref {
	r := a.New(ast.KindIdent, loc)
	a.Get(r).Text = text
	return r
}

func TestFormatFuncEmptyBody(t *testing.T) {
	fn := ast.NewFunc("empty_func", "", 0x80)
	f := NewFormatter()
	out := f.FormatFunc(fn)

	if !strings.Contains(out, "function empty_func()") {
		t.Fatalf("output missing signature: %q", out)
	}
	if !strings.Contains(out, "{") || !strings.Contains(out, "}") {
		t.Fatalf("output missing braces: %q", out)
	}
}

func TestFormatFuncAssignAndReturn(t *testing.T) {
	fn := ast.NewFunc("give_weapon", "", 0x100)
	a := fn.Arena

	target := identNode(a, 0, "x")
	value := litNode(a, 0, "5")
	assign := a.New(ast.KindAssign, 0)
	a.Get(assign).Text = "SetVariableField"
	a.Get(assign).Operands = []ast.Ref{target, value}

	retVal := identNode(a, 10, "x")
	ret := a.New(ast.KindReturn, 10)
	a.Get(ret).Operands = []ast.Ref{retVal}

	fn.Body = []ast.Ref{assign, ret}

	out := NewFormatter().FormatFunc(fn)
	if !strings.Contains(out, "x = 5;") {
		t.Fatalf("output missing plain assignment: %q", out)
	}
	if !strings.Contains(out, "return x;") {
		t.Fatalf("output missing return: %q", out)
	}
}

func TestFormatFuncCompoundAssign(t *testing.T) {
	fn := ast.NewFunc("f", "", 0)
	a := fn.Arena
	target := identNode(a, 0, "count")
	value := litNode(a, 0, "1")
	assign := a.New(ast.KindAssign, 0)
	a.Get(assign).Text = "+="
	a.Get(assign).Operands = []ast.Ref{target, value}
	fn.Body = []ast.Ref{assign}

	out := NewFormatter().FormatFunc(fn)
	if !strings.Contains(out, "count += 1;") {
		t.Fatalf("output missing compound assign: %q", out)
	}
}

func TestFormatFuncIfElse(t *testing.T) {
	fn := ast.NewFunc("f", "", 0)
	a := fn.Arena
	cond := identNode(a, 0, "alive")

	thenRet := a.New(ast.KindReturn, 10)
	a.Get(thenRet).Operands = []ast.Ref{litNode(a, 10, "1")}
	thenBlock := a.New(ast.KindBlock, 10)
	a.Get(thenBlock).Operands = []ast.Ref{thenRet}

	elseRet := a.New(ast.KindReturn, 20)
	a.Get(elseRet).Operands = []ast.Ref{litNode(a, 20, "0")}
	elseBlock := a.New(ast.KindBlock, 20)
	a.Get(elseBlock).Operands = []ast.Ref{elseRet}

	ifNode := a.New(ast.KindIf, 0)
	a.Get(ifNode).Operands = []ast.Ref{cond, thenBlock, elseBlock}
	fn.Body = []ast.Ref{ifNode}

	out := NewFormatter().FormatFunc(fn)
	if !strings.Contains(out, "if (alive)") {
		t.Fatalf("output missing if condition: %q", out)
	}
	if !strings.Contains(out, "else") {
		t.Fatalf("output missing else: %q", out)
	}
	if !strings.Contains(out, "return 1;") || !strings.Contains(out, "return 0;") {
		t.Fatalf("output missing branch returns: %q", out)
	}
}

func TestFormatFuncFieldAndArrayAccess(t *testing.T) {
	fn := ast.NewFunc("f", "", 0)
	a := fn.Arena
	obj := identNode(a, 0, "self")
	field := a.New(ast.KindFieldAccess, 0)
	a.Get(field).Text = "health"
	a.Get(field).Operands = []ast.Ref{obj}

	idx := litNode(a, 0, "0")
	arr := a.New(ast.KindArrayAccess, 0)
	a.Get(arr).Operands = []ast.Ref{field, idx}

	exprStmt := a.New(ast.KindReturn, 0)
	a.Get(exprStmt).Operands = []ast.Ref{arr}
	fn.Body = []ast.Ref{exprStmt}

	out := NewFormatter().FormatFunc(fn)
	if !strings.Contains(out, "return self.health[0];") {
		t.Fatalf("output missing field/array chain: %q", out)
	}
}

func TestFormatFuncParamsWithMarkers(t *testing.T) {
	fn := ast.NewFunc("spawn", "", 0)
	fn.Params = []ast.Param{
		{Name: "origin", Default: ast.NilRef},
		{Name: "angles", ArrayRef: true, Default: ast.NilRef},
		{Name: "flags", WideRef: true, Default: ast.NilRef},
		{Name: "rest", Variadic: true, Default: ast.NilRef},
	}
	out := NewFormatter().FormatFunc(fn)
	if !strings.Contains(out, "function spawn(origin, &angles, *flags, ...)") {
		t.Fatalf("signature mismatch: %q", out)
	}
}

func TestFormatFuncParamDefault(t *testing.T) {
	fn := ast.NewFunc("f", "", 0)
	a := fn.Arena
	fn.Params = []ast.Param{{Name: "amount", Default: litNode(a, 0, "100")}}
	out := NewFormatter().FormatFunc(fn)
	if !strings.Contains(out, "amount = 100") {
		t.Fatalf("signature missing default: %q", out)
	}
}

func TestFormatFuncUndecompilable(t *testing.T) {
	fn := ast.NewFunc("broken", "", 0x40)
	fn.Undecompilable = true
	fn.UndecompilableReason = "unknown opcode"
	a := fn.Arena
	stmt := a.New(ast.KindExprStmt, 0x40)
	a.Get(stmt).Text = "GetZero"
	fn.Body = []ast.Ref{stmt}

	out := NewFormatter().FormatFunc(fn)
	if !strings.Contains(out, "gscasm") {
		t.Fatalf("output missing gscasm fallback block: %q", out)
	}
	if !strings.Contains(out, "GetZero") {
		t.Fatalf("output missing raw opcode text: %q", out)
	}
}

func TestRecoverDefaultsMovesLeadingAssigns(t *testing.T) {
	fn := ast.NewFunc("f", "", 0)
	a := fn.Arena
	fn.Params = []ast.Param{{Name: "a", Default: ast.NilRef}, {Name: "b", Default: ast.NilRef}}

	assignA := a.New(ast.KindAssign, 0)
	a.Get(assignA).Operands = []ast.Ref{identNode(a, 0, "a"), litNode(a, 0, "1")}
	assignB := a.New(ast.KindAssign, 1)
	a.Get(assignB).Operands = []ast.Ref{identNode(a, 1, "b"), litNode(a, 1, "2")}
	realStmt := a.New(ast.KindReturn, 2)
	a.Get(realStmt).Operands = []ast.Ref{identNode(a, 2, "a")}

	fn.Body = []ast.Ref{assignA, assignB, realStmt}

	RecoverDefaults(fn)

	if !fn.Params[0].Default.Valid() || a.Get(fn.Params[0].Default).Text != "1" {
		t.Fatalf("Params[0].Default not recovered: %+v", fn.Params[0])
	}
	if !fn.Params[1].Default.Valid() || a.Get(fn.Params[1].Default).Text != "2" {
		t.Fatalf("Params[1].Default not recovered: %+v", fn.Params[1])
	}
	if len(fn.Body) != 1 || fn.Body[0] != realStmt {
		t.Fatalf("fn.Body = %v, want only the real statement left", fn.Body)
	}
}

func TestRecoverDefaultsStopsAtNonParamAssign(t *testing.T) {
	fn := ast.NewFunc("f", "", 0)
	a := fn.Arena
	fn.Params = []ast.Param{{Name: "a", Default: ast.NilRef}}

	assignOther := a.New(ast.KindAssign, 0)
	a.Get(assignOther).Operands = []ast.Ref{identNode(a, 0, "unrelated"), litNode(a, 0, "9")}
	fn.Body = []ast.Ref{assignOther}

	RecoverDefaults(fn)

	if fn.Params[0].Default.Valid() {
		t.Fatalf("Params[0].Default should remain unset, got %v", fn.Params[0].Default)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("fn.Body should be untouched, got %v", fn.Body)
	}
}

func TestFormatClass(t *testing.T) {
	hashdict.AddPrecomputed(0x1111, "doSomething")
	hashdict.AddPrecomputed(0x2222, "BaseClass")

	cls := &gscfile.ClassRecord{
		Name:         "PlayerClass",
		Namespace:    0x99,
		Superclasses: map[uint64]struct{}{0x2222: {}},
		MethodHashes: []uint64{0x1111},
		VTable:       map[uint32]gscfile.VTableSlot{0xa5: {MethodHash: 0x1111, Namespace: 0x99}},
	}

	out := NewFormatter().FormatClass(cls)
	if !strings.Contains(out, "class PlayerClass : BaseClass") {
		t.Fatalf("output missing class header: %q", out)
	}
	if !strings.Contains(out, "doSomething();") {
		t.Fatalf("output missing method stub: %q", out)
	}
}
