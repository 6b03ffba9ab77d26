// Package linker rewrites in-code operand bytes so that what was a pointer
// into a table's fixup list becomes a compact interned index the walker can
// dereference directly, and populates the Object Context with the records
// recovered along the way.
package linker

import (
	"encoding/binary"
	"fmt"

	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/gscfmt"
)

// maxSingleAnimTreeIndex is the largest interned string index the one-byte
// single-animtree slot can encode.
const maxSingleAnimTreeIndex = 0xFF

// Resolver looks up a 64-bit name hash in the external Hash Dictionary.
// Patch never requires one; unresolved names fall back to hex hashes,
// mirroring Reader.Name's own resolve-or-fallback convention.
type Resolver func(hash uint64) (string, bool)

// Patch walks every table in tables, in the fixed order the wide-hash
// ordering constraint demands (single-animtree before double-animtree,
// since the wide-hash variant's single-animtree slot aliases into the same
// interned-string space the double table also references), rewriting code
// in place and populating ctx. Patch never returns a fatal error: every
// failure degrades to a DiagPatchSkip entry in the returned Diags and the
// rest of the file still gets patched and disassembled.
func Patch(ctx *gscfile.Context, r gscfile.Reader, tables *gscfile.Tables, code []byte, resolve Resolver) *gscfmt.Diags {
	diags := &gscfmt.Diags{}

	patchStrings(ctx, r, tables, code, diags)
	patchGlobals(ctx, tables, code, diags)
	patchImports(ctx, tables, code, diags, resolve)
	// Single-ref animtrees are patched before double-ref: see Patch's doc.
	patchAnimTreeSingles(tables, code, diags)
	patchAnimTreeDoubles(tables, code, diags)

	return diags
}

func writeU32(code []byte, offset int, v uint32, diags *gscfmt.Diags, what string) bool {
	if offset < 0 || offset+4 > len(code) {
		diags.Addf(uint32(offset), gscfmt.DiagPatchSkip, "%s: offset out of range", what)
		return false
	}
	binary.LittleEndian.PutUint32(code[offset:], v)
	return true
}

func writeByte(code []byte, offset int, v byte, diags *gscfmt.Diags, what string) bool {
	if offset < 0 || offset >= len(code) {
		diags.Addf(uint32(offset), gscfmt.DiagPatchSkip, "%s: offset out of range", what)
		return false
	}
	code[offset] = v
	return true
}

// patchStrings interns every string literal and overwrites each of its
// fixup offsets with the literal's interned index.
func patchStrings(ctx *gscfile.Context, r gscfile.Reader, tables *gscfile.Tables, code []byte, diags *gscfmt.Diags) {
	for i, entry := range tables.Strings {
		value, err := r.StringLiteral(entry.Address)
		if err != nil {
			diags.Addf(entry.Address, gscfmt.DiagPatchSkip, "string %d: %v", i, err)
			continue
		}
		ctx.InternString(i, value)
		for _, off := range entry.Fixups {
			writeU32(code, int(off), uint32(i), diags, fmt.Sprintf("string %d fixup", i))
		}
	}
}

// patchGlobals interns every global-variable name hash and overwrites each
// of its fixup offsets with the interned index.
func patchGlobals(ctx *gscfile.Context, tables *gscfile.Tables, code []byte, diags *gscfmt.Diags) {
	for i, entry := range tables.Globals {
		ctx.InternGlobal(i, entry.NameHash)
		for _, off := range entry.Fixups {
			writeU32(code, int(off), uint32(i), diags, fmt.Sprintf("global %d fixup", i))
		}
	}
}

// patchImports links every import record into the Object Context and
// rewrites each callsite to carry a uniform (import index, param count)
// pair in place of the raw fixup, so the call-family opcode handlers never
// need to re-derive arity or re-walk the import table: the fixup offset is
// the first byte after the call opcode; Patch writes a little-endian
// uint32 import-table index there, followed by the declared param count as
// a single byte.
func patchImports(ctx *gscfile.Context, tables *gscfile.Tables, code []byte, diags *gscfmt.Diags, resolve Resolver) {
	for i, entry := range tables.Imports {
		linked := entry
		if resolve != nil {
			if name, ok := resolve(entry.NameHash); ok {
				linked.Name = name
			}
			if entry.Flags.Has(gscfile.ImportGetCall) {
				linked.Namespace = "" // get-call sentinel: no namespace qualifier
			} else if ns, ok := resolve(entry.NamespaceHash); ok {
				linked.Namespace = ns
			}
		}
		ctx.Imports = append(ctx.Imports, linked)

		for _, off := range entry.Fixups {
			what := fmt.Sprintf("import %d callsite", i)
			if !writeU32(code, int(off), uint32(i), diags, what) {
				continue
			}
			writeByte(code, int(off)+4, entry.ParamCount, diags, what+" param_count")
		}
	}
}

// patchAnimTreeSingles overwrites each fixup with a one-byte interned
// string index. A name ref that does not fit in a byte cannot be encoded
// in this slot and is recorded as a skip rather than silently truncated.
func patchAnimTreeSingles(tables *gscfile.Tables, code []byte, diags *gscfmt.Diags) {
	for i, entry := range tables.AnimTreeSingles {
		if entry.NameRef > maxSingleAnimTreeIndex {
			diags.Addf(entry.NameRef, gscfmt.DiagPatchSkip,
				"animtree_single %d: name ref %d exceeds one-byte slot", i, entry.NameRef)
			continue
		}
		for _, off := range entry.Fixups {
			writeByte(code, int(off), byte(entry.NameRef), diags, fmt.Sprintf("animtree_single %d fixup", i))
		}
	}
}

// patchAnimTreeDoubles overwrites each fixup with a string-index pair (two
// bytes: Ref1's index, then Ref2's). Must run after patchAnimTreeSingles;
// see Patch's doc.
func patchAnimTreeDoubles(tables *gscfile.Tables, code []byte, diags *gscfmt.Diags) {
	for i, entry := range tables.AnimTreeDoubles {
		if entry.Ref1 > maxSingleAnimTreeIndex || entry.Ref2 > maxSingleAnimTreeIndex {
			diags.Addf(entry.Ref1, gscfmt.DiagPatchSkip,
				"animtree_double %d: ref pair (%d, %d) exceeds byte-pair slot", i, entry.Ref1, entry.Ref2)
			continue
		}
		for _, off := range entry.Fixups {
			what := fmt.Sprintf("animtree_double %d fixup", i)
			if !writeByte(code, int(off), byte(entry.Ref1), diags, what) {
				continue
			}
			writeByte(code, int(off)+1, byte(entry.Ref2), diags, what)
		}
	}
}
