package gscfile

import (
	"fmt"
	"io"
)

// Tables is the set of raw, unpatched table entries read from a blob,
// handed to internal/linker for link patching.
type Tables struct {
	Includes        []IncludeEntry
	Strings         []StringEntry
	Imports         []ImportEntry
	Globals         []GlobalEntry
	AnimTreeSingles []AnimTreeSingleEntry
	AnimTreeDoubles []AnimTreeDoubleEntry
	Exports         []ExportEntry
}

// Reader is the capability contract over a mapped script blob: a uniform
// view across the on-disk variants described by §3/§4.1. Implementations
// never copy the blob; they index into it by offset.
type Reader interface {
	// Name returns the script's interned name, if the hash dictionary
	// (external collaborator, out of core scope) resolved it; otherwise "".
	Name(resolve func(hash uint64) (string, bool)) string
	NameHash() uint64

	HeaderSize() int
	FileSize() int

	Header() *Header
	ReadTables() (*Tables, error)
	CodeSegment() []byte

	// DecryptString applies the variant-specific string-decryption hook.
	// The Treyarch reader is identity; the wide-hash reader transcodes
	// legacy CP1252 bytes to UTF-8.
	DecryptString(raw []byte) string

	// StringLiteral reads and decrypts the null-terminated string literal
	// at absolute blob offset addr (a StringEntry.Address value).
	StringLiteral(addr uint32) (string, error)

	RemapImportFlags(raw uint8) ImportFlag
	RemapExportFlags(raw uint8) ExportFlag

	Validate() error

	DumpHeader(w io.Writer)
	DumpExperimental(w io.Writer, verbose bool)

	Descriptor() VMDescriptor
}

// Open selects and constructs the Reader matching blob's magic word and,
// for the wide-hash family, the externally supplied VM/platform (§6:
// "--vm required for the wide-hash family").
func Open(blob []byte, vmOverride byte, platform Platform) (Reader, error) {
	fam, vmByte, err := DetectFamily(blob)
	if err != nil {
		return nil, err
	}
	switch fam {
	case FamilyTreyarch:
		return newTreyarchReader(blob, VMDescriptor{VM: vmByte, Platform: platform})
	case FamilyWideHash:
		if vmOverride == 0 {
			return nil, fmt.Errorf("gscfile: %w: wide-hash family requires --vm", ErrUnsupportedVM)
		}
		return newWideHashReader(blob, VMDescriptor{
			VM:       vmOverride,
			Platform: platform,
			Flags:    FlagHash64 | FlagOpcodeShort,
		})
	default:
		return nil, fmt.Errorf("%w: family %v", ErrUnsupportedVM, fam)
	}
}
