package vtable

import (
	"testing"

	"github.com/gsctools/gscdis/internal/gscfile"
)

func vm19PC() gscfile.VMDescriptor {
	return gscfile.VMDescriptor{VM: 0x19, Platform: gscfile.PlatformPC}
}

// oneMethodVTable is a hand-assembled CLASS_VTABLE prologue for VM 0x19/PC:
// CheckClearParams; PreScriptCall; ScriptFunctionCall(idx=0,params=0);
// GetZero; EvalGlobalObjectFieldVariable(classesIdx=0xaaaa, classIdx=0x1234);
// SetVariableFieldFromEvalArrayRef; one quadruple binding uid 0xA5 to a
// method in the same class (classHash==0x1234); End.
var oneMethodVTable = []byte{
	0x35,                               // CheckClearParams
	0x27,                               // PreScriptCall
	0x28, 0x00, 0x00, 0x00, 0x00, 0x00, // ScriptFunctionCall idx=0 params=0
	0x01,                               // GetZero
	0x2f, 0xaa, 0xaa, 0x00, 0x00, 0x34, 0x12, 0x00, 0x00, // EvalGlobalObjectFieldVariable
	0x31, // SetVariableFieldFromEvalArrayRef

	0x2a, 0x55, 0x55, 0x00, 0x00, 0x34, 0x12, 0x00, 0x00, // GetResolveFunction method=0x5555 class=0x1234
	0x02, 0xa5, // GetByte uid=0xa5
	0x01,                                                 // GetZero
	0x2f, 0xaa, 0xaa, 0x00, 0x00, 0x34, 0x12, 0x00, 0x00, // EvalGlobalObjectFieldVariable
	0x2d,                   // EvalArray
	0x33,                   // CastFieldObject
	0x2c, 0x99, 0x99, 0x00, 0x00, // EvalFieldVariableRef
	0x2e, // EvalArrayRef
	0x30, // SetVariableField

	0x32, // End
}

func TestReadVTableOneMethod(t *testing.T) {
	objCtx := gscfile.NewContext()
	cls, err := ReadVTable(0, oneMethodVTable, vm19PC(), 0xdead, objCtx)
	if err != nil {
		t.Fatalf("ReadVTable: %v", err)
	}
	if len(cls.MethodHashes) != 1 || cls.MethodHashes[0] != 0x5555 {
		t.Fatalf("MethodHashes = %v, want [0x5555]", cls.MethodHashes)
	}
	if len(cls.Superclasses) != 0 {
		t.Fatalf("Superclasses = %v, want empty", cls.Superclasses)
	}
	slot, ok := cls.VTable[0xa5]
	if !ok {
		t.Fatal("VTable[0xa5] missing")
	}
	if slot.MethodHash != 0x5555 || slot.Namespace != 0x1234 {
		t.Fatalf("VTable[0xa5] = %+v", slot)
	}
	if cls.Namespace != 0xdead {
		t.Fatalf("Namespace = %x, want 0xdead", cls.Namespace)
	}
}

func TestReadVTableSuperclassMethod(t *testing.T) {
	blob := make([]byte, len(oneMethodVTable))
	copy(blob, oneMethodVTable)
	// Flip the quadruple's classHash (the GetResolveFunction operand
	// block's classHash field, at index 24..27) to something other than
	// 0x1234 so the method attributes to a superclass instead of this
	// class's own list.
	blob[24], blob[25], blob[26], blob[27] = 0x78, 0x56, 0x00, 0x00

	objCtx := gscfile.NewContext()
	cls, err := ReadVTable(0, blob, vm19PC(), 0, objCtx)
	if err != nil {
		t.Fatalf("ReadVTable: %v", err)
	}
	if len(cls.MethodHashes) != 0 {
		t.Fatalf("MethodHashes = %v, want empty", cls.MethodHashes)
	}
	if _, ok := cls.Superclasses[0x5678]; !ok {
		t.Fatalf("Superclasses = %v, want {0x5678}", cls.Superclasses)
	}
}

func TestReadVTableMismatchOnBadPrologue(t *testing.T) {
	blob := make([]byte, len(oneMethodVTable))
	copy(blob, oneMethodVTable)
	blob[0] = 0x27 // corrupt: PreScriptCall where CheckClearParams is required

	objCtx := gscfile.NewContext()
	_, err := ReadVTable(0, blob, vm19PC(), 0, objCtx)
	if err == nil {
		t.Fatal("expected a pattern mismatch error")
	}
	if _, ok := err.(*PatternMismatchError); !ok {
		t.Fatalf("error type = %T, want *PatternMismatchError", err)
	}
}

func TestReadVTableMismatchOnBadQuadrupleOpcode(t *testing.T) {
	blob := make([]byte, len(oneMethodVTable))
	copy(blob, oneMethodVTable)
	// Replace the GetResolveFunction opcode byte (index 19) with something
	// that is neither GetResolveFunction nor End.
	blob[19] = 0x01 // GetZero

	objCtx := gscfile.NewContext()
	_, err := ReadVTable(0, blob, vm19PC(), 0, objCtx)
	if err == nil {
		t.Fatal("expected a pattern mismatch error")
	}
}

func TestReadVTableTruncatedInput(t *testing.T) {
	objCtx := gscfile.NewContext()
	_, err := ReadVTable(0, oneMethodVTable[:3], vm19PC(), 0, objCtx)
	if err == nil {
		t.Fatal("expected a pattern mismatch error on truncated input")
	}
}
