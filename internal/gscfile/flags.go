// Package gscfile provides the container-reader abstraction over a compiled
// GSC script blob: header access, table enumeration, flag normalization,
// and GSIC-wrapper stripping. It is the polymorphic-variant layer described
// by the Container Reader module: one Reader interface, several on-disk
// encodings, normalized to the same logical view (modeled on elfx.File
// wrapping debug/elf.File, and on snapshot.VersionProfile's per-version
// boolean-flag table).
package gscfile

import "fmt"

// ExportFlag is a canonical, VM-independent export attribute bit.
type ExportFlag uint16

const (
	ExportAutoExec ExportFlag = 1 << iota
	ExportLinked
	ExportPrivate
	ExportClassMember
	ExportEvent
	ExportVE
	ExportClassLinked
	ExportClassDestructor
	ExportClassVTable
)

func (f ExportFlag) Has(bit ExportFlag) bool { return f&bit != 0 }

// ImportFlag is a canonical, VM-independent import call-kind/modifier bit.
type ImportFlag uint16

const (
	ImportFuncMethod ImportFlag = 1 << iota
	ImportFunction
	ImportFunctionThread
	ImportFunctionChildThread
	ImportMethod
	ImportMethodThread
	ImportMethodChildThread
	ImportGetCall
	ImportDevCall
)

func (f ImportFlag) Has(bit ImportFlag) bool { return f&bit != 0 }

// String renders an import flag set as the disassembler would show it
// ("method", "function thread", "get", ...).
func (f ImportFlag) String() string {
	switch {
	case f.Has(ImportMethodChildThread):
		return "method childthread"
	case f.Has(ImportMethodThread):
		return "method thread"
	case f.Has(ImportMethod), f.Has(ImportFuncMethod):
		return "method"
	case f.Has(ImportFunctionChildThread):
		return "function childthread"
	case f.Has(ImportFunctionThread):
		return "function thread"
	default:
		return "function"
	}
}

// VMFlag is a bit on a VMDescriptor describing an on-disk-format variation.
// These are data on the descriptor, never subclasses, per the "Polymorphism
// across variants" design note.
type VMFlag uint32

const (
	FlagOpcodeShort VMFlag = 1 << iota // opcodes are 16-bit-aligned halfwords, not bytes
	FlagHash64                         // names/includes are full 64-bit hashes, not interned indices
	FlagFullFileNamespace              // exports carry a separate file-namespace hash
	FlagNoVersion                      // header has no VM-revision byte distinct from the magic byte
	FlagNoParamFlags                   // import records omit the flags byte
	FlagVarID                          // globals/locals referenced by variable id, not name hash
	FlagNoMagic                        // blob has no magic signature to validate (debug/test format)
	FlagIWLike                         // Infinity Ward-style table layout (counts before offsets)
)

// VMDescriptor names one supported (VM, platform) combination and the
// format-variation bits that distinguish it. VM is the logical revision
// number carried in the magic word's top byte; Platform affects opcode
// numbers only, never semantics (per the GLOSSARY).
type VMDescriptor struct {
	VM       byte
	Platform Platform
	Flags    VMFlag
}

func (d VMDescriptor) Has(bit VMFlag) bool { return d.Flags&bit != 0 }

// Platform identifies the compiled-bytecode target.
type Platform int

const (
	PlatformPC Platform = iota
	PlatformPlaystation
	PlatformXbox
)

func ParsePlatform(s string) (Platform, error) {
	switch s {
	case "pc":
		return PlatformPC, nil
	case "ps":
		return PlatformPlaystation, nil
	case "xbox":
		return PlatformXbox, nil
	default:
		return 0, fmt.Errorf("gscfile: unknown platform %q", s)
	}
}

func (p Platform) String() string {
	switch p {
	case PlatformPC:
		return "pc"
	case PlatformPlaystation:
		return "ps"
	case PlatformXbox:
		return "xbox"
	default:
		return "unknown"
	}
}
