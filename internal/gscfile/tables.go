package gscfile

// Header holds the fields common to every reader variant: name, the seven
// table counts/offsets, and the code-segment extent. Exact byte layout and
// struct sizes differ per variant; each Reader computes this normalized
// view from its own on-disk layout.
type Header struct {
	NameHash uint64

	IncludeCount, IncludeOffset             uint32
	StringCount, StringOffset               uint32
	ImportCount, ImportOffset               uint32
	GlobalCount, GlobalOffset                uint32
	AnimTreeSingleCount, AnimTreeSingleOffset uint32
	AnimTreeDoubleCount, AnimTreeDoubleOffset uint32
	ExportCount, ExportOffset                uint32

	CodeOffset uint32
	CodeSize   uint32

	// Unk16/Unk1C/Unk22 etc. are printed by dump_header/dump_experimental
	// but otherwise opaque, per the §9 design note ("leave them as opaque
	// diagnostics"). Keyed by raw field offset so dump output is stable
	// across variants that carry different counts of them.
	Opaque map[string]uint64
}

// StringEntry is one Strings table record: a literal plus every code
// offset that references it. Each table reader (treyarch.go, widehash.go)
// reads the fixed-size fields off its own gscfmt.Stream field by field;
// the trailing fixup list is variable-length and always read separately.
type StringEntry struct {
	Address uint32
	Count   uint32
	Type    uint8
	Fixups  []uint32
	Value   string
}

// ImportEntry is one Imports table record.
type ImportEntry struct {
	NamespaceHash uint64
	NameHash      uint64
	ParamCount    uint8
	RawFlags      uint8
	Count         uint16
	Fixups        []uint32

	Flags     ImportFlag
	Namespace string
	Name      string
}

// GlobalEntry is one Globals table record.
type GlobalEntry struct {
	NameHash uint64
	Count    uint32
	Fixups   []uint32
}

// AnimTreeSingleEntry is a single-string animtree reference.
type AnimTreeSingleEntry struct {
	NameRef uint32
	Count   uint32
	Fixups  []uint32
}

// AnimTreeDoubleEntry is a double-string animtree reference, patched in
// the wide-hash variant.
type AnimTreeDoubleEntry struct {
	Ref1   uint32
	Ref2   uint32
	Count  uint32
	Fixups []uint32
}

// ExportEntry is one entry-point record.
type ExportEntry struct {
	NamespaceHash     uint64
	FileNamespaceHash uint64
	NameHash          uint64
	Checksum          uint32
	Address           uint32
	ParamCount        uint8
	RawFlags          uint8

	Flags ExportFlag
}

// IncludeEntry is one `#using` dependency, stored as a script-name hash.
type IncludeEntry struct {
	NameHash uint64
}
