package opcode

import (
	"fmt"
	"strconv"

	"github.com/gsctools/gscdis/internal/ast"
)

// Handler is one opcode's complete behavior: mnemonic, whether it ends a
// basic block, and the Decode function that reads its operands, updates
// the abstract stack/registers, and attaches an AST node to the current
// statement — the capability set named for the registry (dump, stack-
// effect, is-terminator, jump-target) collapsed into one function behind
// the Context interface plus the two static fields a caller needs before
// it can even invoke Decode.
type Handler struct {
	Op         Opcode
	Mnemonic   string
	Terminator bool
	Decode     func(ctx Context) error
}

func binaryOp(op Opcode, text string) *Handler {
	return &Handler{Op: op, Mnemonic: text, Decode: func(ctx Context) error {
		rhs, ok1 := ctx.Pop()
		lhs, ok2 := ctx.Pop()
		if !ok1 || !ok2 {
			ctx.MarkUndecompilable(fmt.Sprintf("%s: operand stack underflow", text))
			return fmt.Errorf("opcode: %s: stack underflow", text)
		}
		n := ctx.NewNode(ast.KindBinOp, text)
		ctx.Node(n).Operands = []ast.Ref{lhs, rhs}
		ctx.Push(n)
		return nil
	}}
}

func unaryOp(op Opcode, text string) *Handler {
	return &Handler{Op: op, Mnemonic: text, Decode: func(ctx Context) error {
		v, ok := ctx.Pop()
		if !ok {
			ctx.MarkUndecompilable(fmt.Sprintf("%s: operand stack underflow", text))
			return fmt.Errorf("opcode: %s: stack underflow", text)
		}
		n := ctx.NewNode(ast.KindUnOp, text)
		ctx.Node(n).Operands = []ast.Ref{v}
		ctx.Push(n)
		return nil
	}}
}

func literal(op Opcode, text string, read func(ctx Context) (string, error)) *Handler {
	return &Handler{Op: op, Mnemonic: text, Decode: func(ctx Context) error {
		s, err := read(ctx)
		if err != nil {
			return fmt.Errorf("opcode: %s: %w", text, err)
		}
		n := ctx.NewNode(ast.KindLiteral, s)
		ctx.Push(n)
		return nil
	}}
}

// Defaults returns the full minimum handler set named for every logical
// opcode. Callers register these against the concrete per-(VM, platform)
// byte assignments a Registry needs; the Decode behavior itself never
// varies by VM, only the encoded opcode number does.
func Defaults() map[Opcode]*Handler {
	h := map[Opcode]*Handler{
		OpGetZero: literal(OpGetZero, "GetZero", func(ctx Context) (string, error) {
			return "0", nil
		}),
		OpGetByte: literal(OpGetByte, "GetByte", func(ctx Context) (string, error) {
			v, err := ctx.ReadU8()
			return strconv.Itoa(int(v)), err
		}),
		OpGetNegByte: literal(OpGetNegByte, "GetNegByte", func(ctx Context) (string, error) {
			v, err := ctx.ReadU8()
			return strconv.Itoa(-int(v)), err
		}),
		OpGetUnsignedShort: literal(OpGetUnsignedShort, "GetUnsignedShort", func(ctx Context) (string, error) {
			v, err := ctx.ReadU16()
			return strconv.FormatUint(uint64(v), 10), err
		}),
		OpGetNegUnsignedShort: literal(OpGetNegUnsignedShort, "GetNegUnsignedShort", func(ctx Context) (string, error) {
			v, err := ctx.ReadU16()
			return strconv.Itoa(-int(v)), err
		}),
		OpGetInteger: literal(OpGetInteger, "GetInteger", func(ctx Context) (string, error) {
			v, err := ctx.ReadU32()
			return strconv.FormatInt(int64(int32(v)), 10), err
		}),
		OpGetUnsignedInteger: literal(OpGetUnsignedInteger, "GetUnsignedInteger", func(ctx Context) (string, error) {
			v, err := ctx.ReadU32()
			return strconv.FormatUint(uint64(v), 10), err
		}),
		OpGetNegUnsignedInteger: literal(OpGetNegUnsignedInteger, "GetNegUnsignedInteger", func(ctx Context) (string, error) {
			v, err := ctx.ReadU32()
			return strconv.FormatInt(-int64(v), 10), err
		}),
		OpGetLongInteger: literal(OpGetLongInteger, "GetLongInteger", func(ctx Context) (string, error) {
			v, err := ctx.ReadU64()
			return strconv.FormatInt(int64(v), 10), err
		}),
		OpGetFloat: literal(OpGetFloat, "GetFloat", func(ctx Context) (string, error) {
			v, err := ctx.ReadFloat32()
			return strconv.FormatFloat(float64(v), 'g', -1, 32), err
		}),
		OpGetString: literal(OpGetString, "GetString", func(ctx Context) (string, error) {
			idx, err := ctx.ReadU32()
			if err != nil {
				return "", err
			}
			if s, ok := ctx.ResolveString(idx); ok {
				return strconv.Quote(s), nil
			}
			return fmt.Sprintf("@str%d", idx), nil
		}),
		OpGetFunction: literal(OpGetFunction, "GetFunction", func(ctx Context) (string, error) {
			idx, err := ctx.ReadU32()
			if err != nil {
				return "", err
			}
			if ns, name, _, ok := ctx.ResolveImport(idx); ok {
				if ns == "" {
					return name, nil
				}
				return ns + "::" + name, nil
			}
			return fmt.Sprintf("@import%d", idx), nil
		}),
		OpGetHash: literal(OpGetHash, "GetHash", func(ctx Context) (string, error) {
			v, err := ctx.ReadU64()
			return fmt.Sprintf("#\"0x%x\"", v), err
		}),

		OpAdd:            binaryOp(OpAdd, "+"),
		OpSub:             binaryOp(OpSub, "-"),
		OpMult:            binaryOp(OpMult, "*"),
		OpDiv:             binaryOp(OpDiv, "/"),
		OpMod:             binaryOp(OpMod, "%"),
		OpBitAnd:          binaryOp(OpBitAnd, "&"),
		OpBitOr:           binaryOp(OpBitOr, "|"),
		OpBitXor:          binaryOp(OpBitXor, "^"),
		OpShiftLeft:       binaryOp(OpShiftLeft, "<<"),
		OpShiftRight:      binaryOp(OpShiftRight, ">>"),
		OpBoolNot:         unaryOp(OpBoolNot, "!"),
		OpBoolComplement:  unaryOp(OpBoolComplement, "~"),

		OpEquals:             binaryOp(OpEquals, "=="),
		OpNotEquals:          binaryOp(OpNotEquals, "!="),
		OpLessThan:           binaryOp(OpLessThan, "<"),
		OpGreaterThan:        binaryOp(OpGreaterThan, ">"),
		OpLessThanOrEqual:    binaryOp(OpLessThanOrEqual, "<="),
		OpGreaterThanOrEqual: binaryOp(OpGreaterThanOrEqual, ">="),

		OpJump:             jumpHandler(OpJump, "Jump", false),
		OpJumpOnTrue:       jumpHandler(OpJumpOnTrue, "JumpOnTrue", true),
		OpJumpOnFalse:      jumpHandler(OpJumpOnFalse, "JumpOnFalse", true),
		OpJumpOnTrueExpr:   jumpExprHandler(OpJumpOnTrueExpr, "JumpOnTrueExpr"),
		OpJumpOnFalseExpr:  jumpExprHandler(OpJumpOnFalseExpr, "JumpOnFalseExpr"),

		OpPreScriptCall:       preScriptCallHandler(),
		OpScriptFunctionCall:  callHandler(OpScriptFunctionCall, "ScriptFunctionCall"),
		OpCallBuiltinFunction: callHandler(OpCallBuiltinFunction, "CallBuiltinFunction"),
		OpGetResolveFunction:  getResolveFunctionHandler(),

		OpEvalFieldVariable:             evalFieldVariableHandler(false),
		OpEvalFieldVariableRef:          evalFieldVariableHandler(true),
		OpEvalArray:                     evalArrayHandler(false),
		OpEvalArrayRef:                  evalArrayHandler(true),
		OpEvalGlobalObjectFieldVariable: evalGlobalObjectFieldVariableHandler(),

		OpSetVariableField:                 setVariableFieldHandler(false),
		OpSetVariableFieldFromEvalArrayRef: setVariableFieldHandler(true),
		OpCastFieldObject:                  castFieldObjectHandler(),

		OpEnd:              endHandler(),
		OpReturn:           returnHandler(),
		OpCheckClearParams: checkClearParamsHandler(),
	}
	return h
}

// jumpHandler's Terminator is true only for the unconditional Jump: a
// conditional jump's not-taken path falls straight through to the next
// instruction, so the walker must keep decoding there, with the taken
// path handled separately through the enqueued target.
func jumpHandler(op Opcode, text string, conditional bool) *Handler {
	return &Handler{Op: op, Mnemonic: text, Terminator: !conditional, Decode: func(ctx Context) error {
		var cond ast.Ref = ast.NilRef
		if conditional {
			v, ok := ctx.Pop()
			if !ok {
				ctx.MarkUndecompilable(fmt.Sprintf("%s: operand stack underflow", text))
				return fmt.Errorf("opcode: %s: stack underflow", text)
			}
			cond = v
		}
		disp, err := ctx.ReadU32()
		if err != nil {
			return fmt.Errorf("opcode: %s: %w", text, err)
		}
		target := ctx.Location() + disp
		kind := ast.KindJump
		if conditional {
			kind = ast.KindJumpCond
		}
		n := ctx.NewNode(kind, text)
		ctx.Node(n).Target = target
		if cond.Valid() {
			ctx.Node(n).Operands = []ast.Ref{cond}
		}
		ctx.Emit(n)
		ctx.EnqueueJump(target)
		return nil
	}}
}

// jumpExprHandler models the short-circuit && / || join opcodes: the
// condition stays on the stack (it is an expression, not a statement),
// and the join is completed by a deferred late operation executed the
// next time the jump target location is visited.
func jumpExprHandler(op Opcode, text string) *Handler {
	return &Handler{Op: op, Mnemonic: text, Decode: func(ctx Context) error {
		lhs, ok := ctx.Pop()
		if !ok {
			ctx.MarkUndecompilable(fmt.Sprintf("%s: operand stack underflow", text))
			return fmt.Errorf("opcode: %s: stack underflow", text)
		}
		disp, err := ctx.ReadU32()
		if err != nil {
			return fmt.Errorf("opcode: %s: %w", text, err)
		}
		target := ctx.Location() + disp
		joined := ctx.NewNode(ast.KindBinOp, text)
		ctx.Node(joined).Operands = []ast.Ref{lhs}
		ctx.Push(joined)
		ctx.DeferLateOp(target, func(ctx Context) {
			rhs, ok := ctx.Pop()
			if !ok {
				return
			}
			ctx.Node(joined).Operands = append(ctx.Node(joined).Operands, rhs)
			ctx.Push(joined)
		})
		return nil
	}}
}

func preScriptCallHandler() *Handler {
	return &Handler{Op: OpPreScriptCall, Mnemonic: "PreScriptCall", Decode: func(ctx Context) error {
		n := ctx.NewNode(ast.KindIdent, "<precall>")
		ctx.Push(n)
		return nil
	}}
}

// callHandler reads the import-table index and param count internal/linker
// wrote at this callsite, pops that many argument nodes off the stack in
// reverse order, and pushes a Call node.
func callHandler(op Opcode, text string) *Handler {
	return &Handler{Op: op, Mnemonic: text, Decode: func(ctx Context) error {
		idx, err := ctx.ReadU32()
		if err != nil {
			return fmt.Errorf("opcode: %s: %w", text, err)
		}
		paramCount, err := ctx.ReadU8()
		if err != nil {
			return fmt.Errorf("opcode: %s: %w", text, err)
		}
		args := make([]ast.Ref, paramCount)
		for i := int(paramCount) - 1; i >= 0; i-- {
			v, ok := ctx.Pop()
			if !ok {
				ctx.MarkUndecompilable(fmt.Sprintf("%s: too few arguments on stack", text))
				return fmt.Errorf("opcode: %s: stack underflow", text)
			}
			args[i] = v
		}
		// The precall marker PreScriptCall pushed, if present.
		if precall, ok := ctx.Pop(); ok {
			if node := ctx.Node(precall); node == nil || node.Text != "<precall>" {
				// Not a precall marker after all; this call has no receiver
				// setup (e.g. a plain builtin call) — put the value back.
				ctx.Push(precall)
			}
		}

		ns, name, _, ok := ctx.ResolveImport(idx)
		if !ok {
			name = fmt.Sprintf("@import%d", idx)
		}
		callText := name
		if ns != "" {
			callText = ns + "::" + name
		}
		n := ctx.NewNode(ast.KindCall, callText)
		ctx.Node(n).Operands = args
		ctx.Push(n)
		return nil
	}}
}

// getResolveFunctionHandler reads a (method-name, class-name) reference
// pair, the form the vtable prologue quadruples use as well as ordinary
// dynamic function-pointer expressions.
func getResolveFunctionHandler() *Handler {
	return &Handler{Op: OpGetResolveFunction, Mnemonic: "GetResolveFunction", Decode: func(ctx Context) error {
		methodIdx, err := ctx.ReadU32()
		if err != nil {
			return fmt.Errorf("opcode: GetResolveFunction: %w", err)
		}
		classIdx, err := ctx.ReadU32()
		if err != nil {
			return fmt.Errorf("opcode: GetResolveFunction: %w", err)
		}
		method, _ := ctx.ResolveString(methodIdx)
		class, _ := ctx.ResolveString(classIdx)
		n := ctx.NewNode(ast.KindLiteral, fmt.Sprintf("%s %s", method, class))
		ctx.Push(n)
		return nil
	}}
}

func evalFieldVariableHandler(ref bool) *Handler {
	op := OpEvalFieldVariable
	text := "EvalFieldVariable"
	if ref {
		op = OpEvalFieldVariableRef
		text = "EvalFieldVariableRef"
	}
	return &Handler{Op: op, Mnemonic: text, Decode: func(ctx Context) error {
		nameIdx, err := ctx.ReadU32()
		if err != nil {
			return fmt.Errorf("opcode: %s: %w", text, err)
		}
		obj, ok := ctx.Pop()
		if !ok {
			ctx.MarkUndecompilable(fmt.Sprintf("%s: operand stack underflow", text))
			return fmt.Errorf("opcode: %s: stack underflow", text)
		}
		field, _ := ctx.ResolveString(nameIdx)
		n := ctx.NewNode(ast.KindFieldAccess, field)
		ctx.Node(n).Operands = []ast.Ref{obj}
		if ref {
			ctx.SetFieldReg(n)
			ctx.SetObjectReg(obj)
		} else {
			ctx.Push(n)
		}
		return nil
	}}
}

func evalArrayHandler(ref bool) *Handler {
	op := OpEvalArray
	text := "EvalArray"
	if ref {
		op = OpEvalArrayRef
		text = "EvalArrayRef"
	}
	return &Handler{Op: op, Mnemonic: text, Decode: func(ctx Context) error {
		index, ok1 := ctx.Pop()
		obj, ok2 := ctx.Pop()
		if !ok1 || !ok2 {
			ctx.MarkUndecompilable(fmt.Sprintf("%s: operand stack underflow", text))
			return fmt.Errorf("opcode: %s: stack underflow", text)
		}
		n := ctx.NewNode(ast.KindArrayAccess, text)
		ctx.Node(n).Operands = []ast.Ref{obj, index}
		if ref {
			ctx.SetFieldReg(n)
			ctx.SetObjectReg(obj)
		} else {
			ctx.Push(n)
		}
		return nil
	}}
}

func evalGlobalObjectFieldVariableHandler() *Handler {
	return &Handler{Op: OpEvalGlobalObjectFieldVariable, Mnemonic: "EvalGlobalObjectFieldVariable", Decode: func(ctx Context) error {
		globalIdx, err := ctx.ReadU32()
		if err != nil {
			return fmt.Errorf("opcode: EvalGlobalObjectFieldVariable: %w", err)
		}
		fieldIdx, err := ctx.ReadU32()
		if err != nil {
			return fmt.Errorf("opcode: EvalGlobalObjectFieldVariable: %w", err)
		}
		field, _ := ctx.ResolveString(fieldIdx)
		_ = globalIdx
		n := ctx.NewNode(ast.KindGlobal, field)
		ctx.Push(n)
		return nil
	}}
}

func setVariableFieldHandler(fromArrayRef bool) *Handler {
	op := OpSetVariableField
	text := "SetVariableField"
	if fromArrayRef {
		op = OpSetVariableFieldFromEvalArrayRef
		text = "SetVariableFieldFromEvalArrayRef"
	}
	return &Handler{Op: op, Mnemonic: text, Decode: func(ctx Context) error {
		value, ok := ctx.Pop()
		if !ok {
			ctx.MarkUndecompilable(fmt.Sprintf("%s: operand stack underflow", text))
			return fmt.Errorf("opcode: %s: stack underflow", text)
		}
		field, hasField := ctx.FieldReg()
		if !hasField {
			ctx.MarkUndecompilable(fmt.Sprintf("%s: no pending field/array reference", text))
			return fmt.Errorf("opcode: %s: missing field reg", text)
		}
		n := ctx.NewNode(ast.KindAssign, text)
		ctx.Node(n).Operands = []ast.Ref{field, value}
		ctx.Emit(n)
		return nil
	}}
}

func castFieldObjectHandler() *Handler {
	return &Handler{Op: OpCastFieldObject, Mnemonic: "CastFieldObject", Decode: func(ctx Context) error {
		obj, ok := ctx.Pop()
		if !ok {
			ctx.MarkUndecompilable("CastFieldObject: operand stack underflow")
			return fmt.Errorf("opcode: CastFieldObject: stack underflow")
		}
		ctx.SetObjectReg(obj)
		ctx.Push(obj)
		return nil
	}}
}

func endHandler() *Handler {
	return &Handler{Op: OpEnd, Mnemonic: "End", Terminator: true, Decode: func(ctx Context) error {
		n := ctx.NewNode(ast.KindEnd, "End")
		ctx.Emit(n)
		return nil
	}}
}

func returnHandler() *Handler {
	return &Handler{Op: OpReturn, Mnemonic: "Return", Terminator: true, Decode: func(ctx Context) error {
		n := ctx.NewNode(ast.KindReturn, "Return")
		if v, ok := ctx.Pop(); ok {
			ctx.Node(n).Operands = []ast.Ref{v}
		}
		ctx.Emit(n)
		return nil
	}}
}

func checkClearParamsHandler() *Handler {
	return &Handler{Op: OpCheckClearParams, Mnemonic: "CheckClearParams", Decode: func(ctx Context) error {
		n := ctx.NewNode(ast.KindExprStmt, "CheckClearParams")
		ctx.Emit(n)
		return nil
	}}
}
