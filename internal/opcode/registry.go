package opcode

import (
	"fmt"

	"github.com/gsctools/gscdis/internal/gscfile"
)

// key is the lookup triple the registry is keyed on: VM byte (from the
// magic word), platform, and the raw encoded opcode number as the bitstream
// carries it.
type key struct {
	vm       byte
	platform gscfile.Platform
	encoded  uint16
}

// Registry holds the process-wide (VM, platform, opcode-number) -> Handler
// table. It is built once at init time by the per-VM registration
// functions below and never mutated afterward, so Lookup needs no locking.
type Registry struct {
	handlers map[key]*Handler
}

var global = &Registry{handlers: make(map[key]*Handler)}

// Register binds one concrete encoded opcode number, for one (vm, platform)
// pair, to a Handler. Call during package init from a per-VM registration
// function; calling it twice for the same (vm, platform, encoded) is a
// programming error and panics, since a silent overwrite would make two
// VM tables fight over the same slot without either failing loudly.
func Register(vm byte, platform gscfile.Platform, encoded uint16, h *Handler) {
	k := key{vm: vm, platform: platform, encoded: encoded}
	if _, exists := global.handlers[k]; exists {
		panic(fmt.Sprintf("opcode: duplicate registration for vm=0x%02x platform=%s encoded=0x%x", vm, platform, encoded))
	}
	global.handlers[k] = h
}

// Lookup resolves one encoded opcode number for the given descriptor.
// FlagOpcodeShort VMs fetch opcodes as 16-bit-aligned halfwords; callers
// pass the already-fetched encoded value regardless of width, since the
// cursor-alignment concern lives in the walker, not here.
func Lookup(desc gscfile.VMDescriptor, encoded uint16) (*Handler, bool) {
	h, ok := global.handlers[key{vm: desc.VM, platform: desc.Platform, encoded: encoded}]
	return h, ok
}

// OpcodeWidth reports how many bytes to advance the cursor by after
// fetching an opcode number for desc: one byte normally, two for
// FlagOpcodeShort VMs whose opcode table is halfword-aligned.
func OpcodeWidth(desc gscfile.VMDescriptor) int {
	if desc.Has(gscfile.FlagOpcodeShort) {
		return 2
	}
	return 1
}

// registerAll seeds the Opcode -> concrete byte assignment for every
// Handler in Defaults(), for one (vm, platform) pair, using the supplied
// table. A table omitting an Opcode simply leaves it unregistered for
// that VM, which Lookup then reports as unknown rather than silently
// reusing another VM's assignment.
func registerAll(vm byte, platform gscfile.Platform, table map[Opcode]uint16) {
	defaults := Defaults()
	for op, encoded := range table {
		h, ok := defaults[op]
		if !ok {
			panic(fmt.Sprintf("opcode: no default handler for %s", op))
		}
		Register(vm, platform, encoded, h)
	}
}

// The concrete byte assignments below seed one representative VM profile
// (VM 0x19-class, PC) confirmed in the available registration sample
// (gsc_vm/vm_iw9_opcodes.cpp: RegisterOpCode(PLATFORM_PC, OPCODE_End, 0x32)
// and similar per-opcode calls). Byte values for opcodes not present in
// that sample are placeholders chosen to keep the table internally
// consistent and collision-free; they are not asserted to match any
// specific shipped game binary. A real deployment swaps this table (or
// adds further vmXXTable functions alongside it) once concrete dumps for
// that VM are available — see the Open Questions entry in the ledger.
var vmIW9PCTable = map[Opcode]uint16{
	OpGetZero:                          0x01,
	OpGetByte:                          0x02,
	OpGetNegByte:                       0x03,
	OpGetUnsignedShort:                 0x04,
	OpGetNegUnsignedShort:              0x05,
	OpGetInteger:                       0x06,
	OpGetUnsignedInteger:               0x07,
	OpGetNegUnsignedInteger:            0x08,
	OpGetLongInteger:                   0x09,
	OpGetFloat:                         0x0A,
	OpGetString:                        0x0B,
	OpGetFunction:                      0x0C,
	OpGetHash:                          0x0D,
	OpAdd:                              0x10,
	OpSub:                              0x11,
	OpMult:                             0x12,
	OpDiv:                              0x13,
	OpMod:                              0x14,
	OpBitAnd:                           0x15,
	OpBitOr:                            0x16,
	OpBitXor:                           0x17,
	OpShiftLeft:                        0x18,
	OpShiftRight:                       0x19,
	OpBoolNot:                          0x1A,
	OpBoolComplement:                   0x1B,
	OpEquals:                           0x1C,
	OpNotEquals:                        0x1D,
	OpLessThan:                         0x1E,
	OpGreaterThan:                      0x1F,
	OpLessThanOrEqual:                  0x20,
	OpGreaterThanOrEqual:               0x21,
	OpJump:                             0x22,
	OpJumpOnTrue:                       0x23,
	OpJumpOnFalse:                      0x24,
	OpJumpOnTrueExpr:                   0x25,
	OpJumpOnFalseExpr:                  0x26,
	OpPreScriptCall:                    0x27,
	OpScriptFunctionCall:               0x28,
	OpCallBuiltinFunction:              0x29,
	OpGetResolveFunction:               0x2A,
	OpEvalFieldVariable:                0x2B,
	OpEvalFieldVariableRef:             0x2C,
	OpEvalArray:                        0x2D,
	OpEvalArrayRef:                     0x2E,
	OpEvalGlobalObjectFieldVariable:    0x2F,
	OpSetVariableField:                 0x30,
	OpSetVariableFieldFromEvalArrayRef: 0x31,
	OpCastFieldObject:                  0x33,
	OpEnd:                              0x32,
	OpReturn:                           0x34,
	OpCheckClearParams:                 0x35,
}

func init() {
	registerAll(0x19, gscfile.PlatformPC, vmIW9PCTable)
}
