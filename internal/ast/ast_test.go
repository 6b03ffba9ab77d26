package ast

import "testing"

func TestArenaAppendAndGet(t *testing.T) {
	a := NewArena()
	r1 := a.New(KindLiteral, 0x10)
	r2 := a.New(KindBinOp, 0x14)

	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
	n1 := a.Get(r1)
	if n1 == nil || n1.Kind != KindLiteral || n1.Location != 0x10 {
		t.Fatalf("Get(r1) = %+v", n1)
	}
	n2 := a.Get(r2)
	if n2 == nil || n2.Kind != KindBinOp || n2.Location != 0x14 {
		t.Fatalf("Get(r2) = %+v", n2)
	}
}

func TestArenaGetInvalidRef(t *testing.T) {
	a := NewArena()
	a.New(KindLiteral, 0)
	if got := a.Get(NilRef); got != nil {
		t.Fatalf("Get(NilRef) = %+v, want nil", got)
	}
	if got := a.Get(Ref(100)); got != nil {
		t.Fatalf("Get(out of range) = %+v, want nil", got)
	}
}

func TestArenaMutationInPlace(t *testing.T) {
	a := NewArena()
	r := a.New(KindIf, 0)
	a.Get(r).Operands = []Ref{1, 2, NilRef}
	got := a.Get(r).Operands
	if len(got) != 3 || got[2] != NilRef {
		t.Fatalf("Operands after mutation = %v", got)
	}
}

func TestRefValid(t *testing.T) {
	if NilRef.Valid() {
		t.Fatal("NilRef.Valid() = true, want false")
	}
	if !Ref(0).Valid() {
		t.Fatal("Ref(0).Valid() = false, want true")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindIf:      "If",
		KindBinOp:   "BinOp",
		KindRawAsm:  "RawAsm",
		Kind(9999):  "Invalid",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", k, got, want)
		}
	}
}

func TestNewFunc(t *testing.T) {
	f := NewFunc("foo", "bar", 0x1000)
	if f.Name != "foo" || f.Namespace != "bar" || f.Address != 0x1000 {
		t.Fatalf("NewFunc produced %+v", f)
	}
	if f.Arena == nil || f.Arena.Len() != 0 {
		t.Fatalf("NewFunc arena = %+v", f.Arena)
	}
	if f.Undecompilable {
		t.Fatal("NewFunc: Undecompilable should default false")
	}
}
