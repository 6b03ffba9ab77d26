// Package vtable is the VTable Reader: a rigid-prologue state machine
// that recognizes the fixed instruction sequence the compiler emits for a
// CLASS_VTABLE export and recovers the class's superclasses, method list,
// and per-slot vtable bindings from it directly, without ever routing the
// export through the general disassembly/statement-builder/control-flow
// pipeline. Any deviation from the expected sequence aborts the read with
// a single PatternMismatchError; the caller then falls back to emitting
// the export as plain disassembly, exactly as an undecompilable export
// would be, but for a different reason.
package vtable

import (
	"fmt"

	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/hashdict"
	"github.com/gsctools/gscdis/internal/opcode"
)

// PatternMismatchError reports exactly where and why the rigid vtable
// prologue failed to match. There is deliberately no partial-result
// field: a mismatch means the whole read is discarded, not patched up.
type PatternMismatchError struct {
	Offset uint32
	Reason string
}

func (e *PatternMismatchError) Error() string {
	return fmt.Sprintf("vtable: pattern mismatch at 0x%x: %s", e.Offset, e.Reason)
}

// cursor is a minimal little-endian byte reader over one export's code
// range, independent of opcode.Context: the vtable reader never touches
// the abstract stack or builds AST nodes, only opcode identities and a
// handful of raw operand values, so it has no use for the rest of that
// interface.
type cursor struct {
	code []byte
	pos  int
	desc gscfile.VMDescriptor
}

func (c *cursor) loc() uint32 { return uint32(c.pos) }

func (c *cursor) need(n int) error {
	if c.pos+n > len(c.code) {
		return fmt.Errorf("truncated at offset 0x%x", c.pos)
	}
	return nil
}

func (c *cursor) u8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.code[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := uint32(c.code[c.pos]) | uint32(c.code[c.pos+1])<<8 | uint32(c.code[c.pos+2])<<16 | uint32(c.code[c.pos+3])<<24
	c.pos += 4
	return v, nil
}

// fetchOp reads the next opcode number (honoring the VM's opcode width)
// and resolves it through the shared registry, the same fetch shape
// internal/walker's fetchOpcode uses.
func (c *cursor) fetchOp() (opcode.Opcode, error) {
	width := opcode.OpcodeWidth(c.desc)
	var encoded uint16
	if width == 2 {
		if c.pos%2 != 0 {
			c.pos++
		}
		if err := c.need(2); err != nil {
			return opcode.OpInvalid, err
		}
		encoded = uint16(c.code[c.pos]) | uint16(c.code[c.pos+1])<<8
		c.pos += 2
	} else {
		if err := c.need(1); err != nil {
			return opcode.OpInvalid, err
		}
		encoded = uint16(c.code[c.pos])
		c.pos++
	}
	h, ok := opcode.Lookup(c.desc, encoded)
	if !ok {
		return opcode.OpInvalid, fmt.Errorf("unknown opcode 0x%x", encoded)
	}
	return h.Op, nil
}

// expect fetches the next opcode and requires it to be one of want.
func (c *cursor) expect(want ...opcode.Opcode) (opcode.Opcode, error) {
	startLoc := c.loc()
	op, err := c.fetchOp()
	if err != nil {
		return opcode.OpInvalid, &PatternMismatchError{Offset: startLoc, Reason: err.Error()}
	}
	for _, w := range want {
		if op == w {
			return op, nil
		}
	}
	return opcode.OpInvalid, &PatternMismatchError{Offset: startLoc, Reason: fmt.Sprintf("got opcode %s, want one of %v", op, want)}
}

// literalGetterValue reads the immediate operand (if any) for one of the
// literal-getter opcodes the vtable uid slot uses, returning the uid as
// a uint32 — the vtable's slot key width (gscfile.ClassRecord.VTable is
// keyed by uint32).
func literalGetterValue(c *cursor, op opcode.Opcode) (uint32, error) {
	switch op {
	case opcode.OpGetZero:
		return 0, nil
	case opcode.OpGetByte:
		v, err := c.u8()
		return uint32(v), err
	case opcode.OpGetNegByte:
		v, err := c.u8()
		return uint32(-int32(v)), err
	case opcode.OpGetUnsignedShort:
		if err := c.need(2); err != nil {
			return 0, err
		}
		v := uint32(c.code[c.pos]) | uint32(c.code[c.pos+1])<<8
		c.pos += 2
		return v, nil
	case opcode.OpGetNegUnsignedShort:
		if err := c.need(2); err != nil {
			return 0, err
		}
		v := uint32(c.code[c.pos]) | uint32(c.code[c.pos+1])<<8
		c.pos += 2
		return uint32(-int32(v)), nil
	case opcode.OpGetInteger, opcode.OpGetUnsignedInteger:
		return c.u32()
	case opcode.OpGetNegUnsignedInteger:
		v, err := c.u32()
		return uint32(-int32(v)), err
	default:
		return 0, fmt.Errorf("opcode %s is not a recognized uid getter", op)
	}
}

// ReadVTable recognizes the rigid CLASS_VTABLE prologue starting at the
// export's own address within code, and recovers its class definition
// into objCtx. It never falls back to the general pipeline: any mismatch
// is reported as a *PatternMismatchError and the caller is expected to
// emit the export as plain disassembly instead.
//
// Grounded directly on the reference vtable-dumping routine's byte-level
// walk (CheckClearParams; PreScriptCall; a zero-argument spawnstruct call;
// GetZero; a combined global-field access naming the "classes" table
// entry for this class; a field-array store; then GetResolveFunction /
// uid-getter / GetZero / field-array-store quadruples until End). The
// two widened "(A | B)" prologue variants the original reader branches on
// by VM generation collapse to one step here because this VM's handler
// set models "global object field access" as a single fused opcode
// (internal/opcode's EvalGlobalObjectFieldVariable) rather than the two
// separate opcodes an older VM generation used.
func ReadVTable(address uint32, code []byte, desc gscfile.VMDescriptor, namespaceHash uint64, objCtx *gscfile.Context) (*gscfile.ClassRecord, error) {
	c := &cursor{code: code, pos: int(address), desc: desc}

	if _, err := c.expect(opcode.OpCheckClearParams); err != nil {
		return nil, err
	}
	if _, err := c.expect(opcode.OpPreScriptCall); err != nil {
		return nil, err
	}
	spawnLoc := c.loc()
	if _, err := c.expect(opcode.OpScriptFunctionCall, opcode.OpCallBuiltinFunction); err != nil {
		return nil, err
	}
	// idx(4) + paramCount(1): the spawnstruct call's own operands, unused.
	if _, err := c.u32(); err != nil {
		return nil, &PatternMismatchError{Offset: spawnLoc, Reason: err.Error()}
	}
	if _, err := c.u8(); err != nil {
		return nil, &PatternMismatchError{Offset: spawnLoc, Reason: err.Error()}
	}

	if _, err := c.expect(opcode.OpGetZero); err != nil {
		return nil, err
	}

	globalLoc := c.loc()
	if _, err := c.expect(opcode.OpEvalGlobalObjectFieldVariable); err != nil {
		return nil, err
	}
	if _, err := c.u32(); err != nil { // "classes" global index, unused
		return nil, &PatternMismatchError{Offset: globalLoc, Reason: err.Error()}
	}
	classNameRaw, err := c.u32() // this class's own field index into "classes"
	if err != nil {
		return nil, &PatternMismatchError{Offset: globalLoc, Reason: err.Error()}
	}

	if _, err := c.expect(opcode.OpSetVariableFieldFromEvalArrayRef, opcode.OpEvalArrayRef); err != nil {
		return nil, err
	}
	// If the first store opcode was the split EvalArrayRef form, its
	// SetVariableField companion still has to follow immediately.
	opOrInvalid(c)

	className := hashdict.Extract("class", uint64(classNameRaw))
	cls := objCtx.Class(className)
	cls.Namespace = namespaceHash

	for {
		peekLoc := c.loc()
		op, err := c.fetchOp()
		if err != nil {
			return nil, &PatternMismatchError{Offset: peekLoc, Reason: err.Error()}
		}
		if op == opcode.OpEnd {
			break
		}
		if op != opcode.OpGetResolveFunction {
			return nil, &PatternMismatchError{Offset: peekLoc, Reason: fmt.Sprintf("got opcode %s, want GetResolveFunction or End", op)}
		}

		methodHash, err := c.u32()
		if err != nil {
			return nil, &PatternMismatchError{Offset: peekLoc, Reason: err.Error()}
		}
		methodClassHash, err := c.u32()
		if err != nil {
			return nil, &PatternMismatchError{Offset: peekLoc, Reason: err.Error()}
		}

		uidLoc := c.loc()
		uidOp, err := c.fetchOp()
		if err != nil {
			return nil, &PatternMismatchError{Offset: uidLoc, Reason: err.Error()}
		}
		uid, err := literalGetterValue(c, uidOp)
		if err != nil {
			return nil, &PatternMismatchError{Offset: uidLoc, Reason: err.Error()}
		}

		if uint64(methodClassHash) == uint64(classNameRaw) {
			cls.MethodHashes = append(cls.MethodHashes, uint64(methodHash))
		} else {
			cls.Superclasses[uint64(methodClassHash)] = struct{}{}
		}
		cls.VTable[uid] = gscfile.VTableSlot{MethodHash: uint64(methodHash), Namespace: uint64(methodClassHash)}

		if _, err := c.expect(opcode.OpGetZero); err != nil {
			return nil, err
		}
		fieldLoc := c.loc()
		if _, err := c.expect(opcode.OpEvalGlobalObjectFieldVariable); err != nil {
			return nil, err
		}
		if _, err := c.u32(); err != nil {
			return nil, &PatternMismatchError{Offset: fieldLoc, Reason: err.Error()}
		}
		if _, err := c.u32(); err != nil {
			return nil, &PatternMismatchError{Offset: fieldLoc, Reason: err.Error()}
		}
		if _, err := c.expect(opcode.OpEvalArray); err != nil {
			return nil, err
		}
		if _, err := c.expect(opcode.OpCastFieldObject); err != nil {
			return nil, err
		}
		vtableFieldLoc := c.loc()
		if _, err := c.expect(opcode.OpEvalFieldVariableRef); err != nil {
			return nil, err
		}
		if _, err := c.u32(); err != nil {
			return nil, &PatternMismatchError{Offset: vtableFieldLoc, Reason: err.Error()}
		}
		if _, err := c.expect(opcode.OpSetVariableFieldFromEvalArrayRef, opcode.OpEvalArrayRef); err != nil {
			return nil, err
		}
		// Same fused-vs-split branch as the prologue's own class-name
		// store: consume the SetVariableField companion only if the
		// split EvalArrayRef form matched above.
		opOrInvalid(c)
	}

	return cls, nil
}

// opOrInvalid peeks whether the SetVariableField companion to a split
// EvalArrayRef store immediately follows, consuming it if so. Both
// single-opcode (SetVariableFieldFromEvalArrayRef) and split
// (EvalArrayRef; SetVariableField) forms leave the cursor in the same
// state afterward — right before the next GetResolveFunction/End, or
// the next per-method quadruple — so neither call site (the prologue's
// class-name store, or each method's vtable-slot store) needs to know
// which form matched.
func opOrInvalid(c *cursor) (opcode.Opcode, error) {
	save := c.pos
	op, err := c.fetchOp()
	if err != nil || op != opcode.OpSetVariableField {
		c.pos = save
		return opcode.OpInvalid, nil
	}
	return op, nil
}
