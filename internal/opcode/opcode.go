// Package opcode is the VM Opcode Registry: a process-wide, read-only-
// after-init table mapping (VM, platform, encoded opcode number) to a
// Handler, the same (vm, platform) -> opcode-number -> behavior shape as
// the original tool's VmInfo opcode maps, generalized from a single C++
// unordered_map-of-unordered_maps into a Go Registry type with one
// exported Register/Lookup pair.
package opcode

// Opcode is the logical, VM-independent instruction identity; the actual
// encoded byte or halfword varies per (VM, platform) and is resolved
// through Registry, never compared directly against this type.
type Opcode int

const (
	OpInvalid Opcode = iota

	// Literal getters.
	OpGetZero
	OpGetByte
	OpGetNegByte
	OpGetUnsignedShort
	OpGetNegUnsignedShort
	OpGetInteger
	OpGetUnsignedInteger
	OpGetNegUnsignedInteger
	OpGetLongInteger
	OpGetFloat
	OpGetString
	OpGetFunction
	OpGetHash

	// Arithmetic and logical.
	OpAdd
	OpSub
	OpMult
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight
	OpBoolNot
	OpBoolComplement

	// Comparisons.
	OpEquals
	OpNotEquals
	OpLessThan
	OpGreaterThan
	OpLessThanOrEqual
	OpGreaterThanOrEqual

	// Control.
	OpJump
	OpJumpOnTrue
	OpJumpOnFalse
	OpJumpOnTrueExpr
	OpJumpOnFalseExpr

	// Call family.
	OpPreScriptCall
	OpScriptFunctionCall
	OpCallBuiltinFunction
	OpGetResolveFunction

	// Field/array.
	OpEvalFieldVariable
	OpEvalFieldVariableRef
	OpEvalArray
	OpEvalArrayRef
	OpEvalGlobalObjectFieldVariable

	// Assignment.
	OpSetVariableField
	OpSetVariableFieldFromEvalArrayRef
	OpCastFieldObject

	// Flow.
	OpEnd
	OpReturn
	OpCheckClearParams
)

var opcodeNames = map[Opcode]string{
	OpGetZero:                          "GetZero",
	OpGetByte:                          "GetByte",
	OpGetNegByte:                       "GetNegByte",
	OpGetUnsignedShort:                 "GetUnsignedShort",
	OpGetNegUnsignedShort:              "GetNegUnsignedShort",
	OpGetInteger:                       "GetInteger",
	OpGetUnsignedInteger:               "GetUnsignedInteger",
	OpGetNegUnsignedInteger:            "GetNegUnsignedInteger",
	OpGetLongInteger:                   "GetLongInteger",
	OpGetFloat:                         "GetFloat",
	OpGetString:                        "GetString",
	OpGetFunction:                      "GetFunction",
	OpGetHash:                          "GetHash",
	OpAdd:                              "Add",
	OpSub:                              "Sub",
	OpMult:                             "Mult",
	OpDiv:                              "Div",
	OpMod:                              "Mod",
	OpBitAnd:                           "BitAnd",
	OpBitOr:                            "BitOr",
	OpBitXor:                           "BitXor",
	OpShiftLeft:                        "ShiftLeft",
	OpShiftRight:                       "ShiftRight",
	OpBoolNot:                          "BoolNot",
	OpBoolComplement:                   "BoolComplement",
	OpEquals:                           "Equals",
	OpNotEquals:                        "NotEquals",
	OpLessThan:                         "LessThan",
	OpGreaterThan:                      "GreaterThan",
	OpLessThanOrEqual:                  "LessThanOrEqual",
	OpGreaterThanOrEqual:               "GreaterThanOrEqual",
	OpJump:                             "Jump",
	OpJumpOnTrue:                       "JumpOnTrue",
	OpJumpOnFalse:                      "JumpOnFalse",
	OpJumpOnTrueExpr:                   "JumpOnTrueExpr",
	OpJumpOnFalseExpr:                  "JumpOnFalseExpr",
	OpPreScriptCall:                    "PreScriptCall",
	OpScriptFunctionCall:               "ScriptFunctionCall",
	OpCallBuiltinFunction:              "CallBuiltinFunction",
	OpGetResolveFunction:               "GetResolveFunction",
	OpEvalFieldVariable:                "EvalFieldVariable",
	OpEvalFieldVariableRef:             "EvalFieldVariableRef",
	OpEvalArray:                        "EvalArray",
	OpEvalArrayRef:                     "EvalArrayRef",
	OpEvalGlobalObjectFieldVariable:    "EvalGlobalObjectFieldVariable",
	OpSetVariableField:                 "SetVariableField",
	OpSetVariableFieldFromEvalArrayRef: "SetVariableFieldFromEvalArrayRef",
	OpCastFieldObject:                  "CastFieldObject",
	OpEnd:                              "End",
	OpReturn:                           "Return",
	OpCheckClearParams:                 "CheckClearParams",
}

func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return "Invalid"
}
