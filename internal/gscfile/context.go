package gscfile

// ClassRecord is a recovered class definition, populated only from a
// recognized CLASS_VTABLE export (internal/vtable).
type ClassRecord struct {
	Name          string
	Namespace     uint64
	Superclasses  map[uint64]struct{}
	MethodHashes  []uint64
	VTable        map[uint32]VTableSlot // slot uid -> method binding
}

// VTableSlot is one method binding recovered from a vtable export.
type VTableSlot struct {
	MethodHash    uint64
	Namespace     uint64
}

// Detour is an override record from an optional GSIC wrapper, describing a
// function to be replaced at load time.
type Detour struct {
	Index  uint32
	Target uint32
}

// Context is the Object Context: a mutable side-table accumulated during
// link patching and consumed by every later pipeline stage. It is arena
// style, per the "cyclic references" design note — everything is indexed
// by small integer, nothing holds pointers into the AST.
type Context struct {
	Strings map[int]string // interned string index -> text
	Globals map[int]uint64 // interned global-variable index -> name hash

	Imports []ImportEntry // linked import records, in table order

	Classes map[string]*ClassRecord // class name -> recovered definition

	Detours []Detour // compiled-detour metadata from an optional GSIC wrapper
}

// NewContext returns an empty Object Context ready for one script file's
// link-patching pass.
func NewContext() *Context {
	return &Context{
		Strings: make(map[int]string),
		Globals: make(map[int]uint64),
		Classes: make(map[string]*ClassRecord),
	}
}

// InternString records a string at the given index.
func (c *Context) InternString(index int, value string) {
	c.Strings[index] = value
}

// InternGlobal records a global-variable name hash at the given index.
func (c *Context) InternGlobal(index int, hash uint64) {
	c.Globals[index] = hash
}

// Class returns the named class record, creating it if this is its first
// reference (vtable-export processing may see superclasses before they
// themselves have a vtable export in the same file).
func (c *Context) Class(name string) *ClassRecord {
	cr, ok := c.Classes[name]
	if !ok {
		cr = &ClassRecord{Name: name, Superclasses: make(map[uint64]struct{}), VTable: make(map[uint32]VTableSlot)}
		c.Classes[name] = cr
	}
	return cr
}
