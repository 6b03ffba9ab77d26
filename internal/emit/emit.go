// Package emit pretty-prints a reconstructed ast.Func (and a recovered
// gscfile.ClassRecord) back into GSC source text, the final step after
// internal/walker builds a flat statement list and internal/cfg renests
// it into structured control flow. Plays the same role internal/render
// plays for analysis structs — turning an in-memory tree into stable
// text — except the target text here is readable script source, not
// HTML or DOT.
package emit

import (
	"fmt"
	"strings"

	"github.com/gsctools/gscdis/internal/ast"
	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/hashdict"
)

// BraceStyle selects where a block's opening brace lands.
type BraceStyle int

const (
	BraceSameLine BraceStyle = iota // "if (x) {"
	BraceNewLine                    // "if (x)\n{"
)

// HeaderStyle selects the banner comment shape atop each function.
type HeaderStyle int

const (
	HeaderOneLine HeaderStyle = iota // "// 0x1234"
	HeaderBlock                      // "/*\n * 0x1234\n */"
)

// Formatter holds the emitter's presentation choices (brace style, header
// style, indent). No command-line flag selects them: cmd/gscdis always
// uses NewFormatter's defaults. The reconstruction and recovery passes upstream never see
// these, so a format change never requires re-running internal/cfg.
type Formatter struct {
	BraceStyle  BraceStyle
	HeaderStyle HeaderStyle
	Indent      string
}

// NewFormatter returns a Formatter with the conventional defaults:
// same-line braces, a one-line header comment, four-space indent.
func NewFormatter() *Formatter {
	return &Formatter{Indent: "    "}
}

func (f *Formatter) indent() string {
	if f.Indent == "" {
		return "    "
	}
	return f.Indent
}

// FormatFunc renders fn as GSC source text, including its header comment
// and signature. An undecompilable export is rendered as a raw gscasm
// block instead of structured statements, per the Undecompilable-Export
// error kind: the rest of the file is unaffected by one export's failure.
func (f *Formatter) FormatFunc(fn *ast.Func) string {
	var b strings.Builder
	f.writeHeader(&b, fn)
	f.writeSignature(&b, fn)

	if fn.Undecompilable {
		b.WriteString(" gscasm")
		f.writeBrace(&b, " ")
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%s// undecompilable: %s\n", f.indent(), fn.UndecompilableReason)
		f.writeBraceBlock(&b, 0, func() {
			for _, r := range fn.Body {
				n := fn.Arena.Get(r)
				fmt.Fprintf(&b, "%s0x%x: %s %s\n", f.indent(), n.Location, n.Kind, n.Text)
			}
		})
		return b.String()
	}

	f.writeBrace(&b, " ")
	b.WriteByte('\n')
	f.writeStmtBlock(&b, 0, fn, fn.Body)
	return b.String()
}

func (f *Formatter) writeHeader(b *strings.Builder, fn *ast.Func) {
	label := fmt.Sprintf("0x%x", fn.Address)
	switch f.HeaderStyle {
	case HeaderBlock:
		fmt.Fprintf(b, "/*\n * %s\n */\n", label)
	default:
		fmt.Fprintf(b, "// %s\n", label)
	}
}

func (f *Formatter) writeSignature(b *strings.Builder, fn *ast.Func) {
	fmt.Fprintf(b, "function %s(", fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.formatParam(fn, p))
	}
	b.WriteByte(')')
}

func (f *Formatter) formatParam(fn *ast.Func, p ast.Param) string {
	if p.Variadic {
		return "..."
	}
	var prefix string
	if p.ArrayRef {
		prefix += "&"
	}
	if p.WideRef {
		prefix += "*"
	}
	if p.Default.Valid() {
		return fmt.Sprintf("%s%s = %s", prefix, p.Name, f.exprText(fn.Arena, p.Default))
	}
	return prefix + p.Name
}

// writeBrace writes the opening brace, honoring BraceStyle. sep is
// written between the preceding text and a same-line brace.
func (f *Formatter) writeBrace(b *strings.Builder, sep string) {
	if f.BraceStyle == BraceNewLine {
		b.WriteByte('\n')
		b.WriteByte('{')
		return
	}
	b.WriteString(sep)
	b.WriteByte('{')
}

// writeBraceBlock writes body() indented one level inside an already
// opened brace, then the closing brace.
func (f *Formatter) writeBraceBlock(b *strings.Builder, depth int, body func()) {
	body()
	writeIndent(b, depth)
	b.WriteString("}\n")
}

func writeIndent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteByte(' ')
	}
}

// writeStmtBlock writes each statement in list at depth+1, already
// assuming the opening brace for this block has been written, then
// closes it. depth is the indent level of the enclosing brace itself.
func (f *Formatter) writeStmtBlock(b *strings.Builder, depth int, fn *ast.Func, list []ast.Ref) {
	ind := strings.Repeat(f.indent(), depth+1)
	for _, r := range list {
		f.writeStmt(b, depth+1, ind, fn, r)
	}
	b.WriteString(strings.Repeat(f.indent(), depth))
	b.WriteString("}\n")
}

func (f *Formatter) writeStmt(b *strings.Builder, depth int, ind string, fn *ast.Func, r ast.Ref) {
	arena := fn.Arena
	n := arena.Get(r)
	switch n.Kind {
	case ast.KindPreCodePos, ast.KindEnd:
		return
	case ast.KindExprStmt:
		if n.Text == "<devblock-begin>" || n.Text == "<devblock-end>" {
			return // consumed by internal/cfg when it matches; otherwise inert
		}
		if n.Text == "CheckClearParams" {
			return // bookkeeping no-op, not source-visible
		}
		fmt.Fprintf(b, "%s%s;\n", ind, n.Text)
	case ast.KindAssign:
		if len(n.Operands) != 2 {
			return
		}
		op := n.Text
		if !isAssignOpText(op) {
			op = "="
		}
		fmt.Fprintf(b, "%s%s %s %s;\n", ind, f.exprText(arena, n.Operands[0]), op, f.exprText(arena, n.Operands[1]))
	case ast.KindReturn:
		if len(n.Operands) == 1 {
			fmt.Fprintf(b, "%sreturn %s;\n", ind, f.exprText(arena, n.Operands[0]))
		} else {
			fmt.Fprintf(b, "%sreturn;\n", ind)
		}
	case ast.KindIf:
		f.writeIf(b, depth, ind, fn, n)
	case ast.KindWhile:
		fmt.Fprintf(b, "%swhile (%s)", ind, f.exprText(arena, n.Operands[0]))
		f.writeNestedBlock(b, depth, ind, fn, n.Operands[1])
	case ast.KindFor:
		fmt.Fprintf(b, "%sfor (%s; %s; %s)", ind,
			f.forClauseText(arena, n.Operands[0]), f.exprText(arena, n.Operands[1]), f.forClauseText(arena, n.Operands[2]))
		f.writeNestedBlock(b, depth, ind, fn, n.Operands[3])
	case ast.KindForEach:
		collection := "<collection>"
		call := arena.Get(n.Operands[0])
		if call.Kind == ast.KindCall && len(call.Operands) > 0 {
			collection = f.exprText(arena, call.Operands[0])
		}
		fmt.Fprintf(b, "%sforeach (%s in %s)", ind, n.Text, collection)
		f.writeNestedBlock(b, depth, ind, fn, n.Operands[1])
	case ast.KindSwitch:
		f.writeSwitch(b, depth, ind, fn, n)
	case ast.KindDevBlock:
		fmt.Fprintf(b, "%s/#", ind)
		f.writeNestedBlock(b, depth, ind, fn, n.Operands[0])
		fmt.Fprintf(b, "%s#/\n", ind)
	case ast.KindRawAsm:
		fmt.Fprintf(b, "%s// %s\n", ind, n.Text)
	case ast.KindJump, ast.KindJumpCond:
		fmt.Fprintf(b, "%s// unresolved jump to 0x%x\n", ind, n.Target)
	default:
		fmt.Fprintf(b, "%s%s;\n", ind, f.exprText(arena, r))
	}
}

func (f *Formatter) writeIf(b *strings.Builder, depth int, ind string, fn *ast.Func, n *ast.Node) {
	arena := fn.Arena
	fmt.Fprintf(b, "%sif (%s)", ind, f.exprText(arena, n.Operands[0]))
	f.writeNestedBlock(b, depth, ind, fn, n.Operands[1])
	if len(n.Operands) > 2 && n.Operands[2].Valid() {
		fmt.Fprintf(b, "%selse", ind)
		f.writeNestedBlock(b, depth, ind, fn, n.Operands[2])
	}
}

func (f *Formatter) writeSwitch(b *strings.Builder, depth int, ind string, fn *ast.Func, n *ast.Node) {
	arena := fn.Arena
	fmt.Fprintf(b, "%sswitch (%s)", ind, f.exprText(arena, n.Operands[0]))
	f.writeBrace(b, " ")
	b.WriteByte('\n')
	for _, caseRef := range n.Operands[1:] {
		c := arena.Get(caseRef)
		if c.Text == "default" {
			fmt.Fprintf(b, "%s%sdefault:\n", ind, f.indent())
		} else {
			fmt.Fprintf(b, "%s%scase %s:\n", ind, f.indent(), c.Text)
		}
		if len(c.Operands) == 1 && c.Operands[0].Valid() {
			block := arena.Get(c.Operands[0])
			for _, stmt := range block.Operands {
				f.writeStmt(b, depth+2, ind+f.indent()+f.indent(), fn, stmt)
			}
		}
	}
	b.WriteString(ind)
	b.WriteString("}\n")
}

// writeNestedBlock writes the body's brace and statements for a block
// operand that may itself be NilRef (an empty else-less If has none).
func (f *Formatter) writeNestedBlock(b *strings.Builder, depth int, ind string, fn *ast.Func, blockRef ast.Ref) {
	if !blockRef.Valid() {
		f.writeBrace(b, " ")
		b.WriteString("}\n")
		return
	}
	block := fn.Arena.Get(blockRef)
	f.writeBrace(b, " ")
	b.WriteByte('\n')
	innerInd := ind + f.indent()
	for _, stmt := range block.Operands {
		f.writeStmt(b, depth+1, innerInd, fn, stmt)
	}
	b.WriteString(ind)
	b.WriteString("}\n")
}

// forClauseText renders a for-loop's init/update clause without its
// trailing semicolon, since the surrounding "for (...; ...; ...)" header
// supplies its own.
func (f *Formatter) forClauseText(arena *ast.Arena, r ast.Ref) string {
	n := arena.Get(r)
	if n.Kind != ast.KindAssign || len(n.Operands) != 2 {
		return f.exprText(arena, r)
	}
	op := n.Text
	if !isAssignOpText(op) {
		op = "="
	}
	return fmt.Sprintf("%s %s %s", f.exprText(arena, n.Operands[0]), op, f.exprText(arena, n.Operands[1]))
}

func isAssignOpText(s string) bool {
	switch s {
	case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=":
		return true
	default:
		return false
	}
}

// exprText renders one expression node, recursing into its operands.
func (f *Formatter) exprText(arena *ast.Arena, r ast.Ref) string {
	n := arena.Get(r)
	if n == nil {
		return ""
	}
	switch n.Kind {
	case ast.KindLiteral, ast.KindIdent, ast.KindGlobal:
		return n.Text
	case ast.KindBinOp:
		if len(n.Operands) != 2 {
			return n.Text
		}
		return fmt.Sprintf("(%s %s %s)", f.exprText(arena, n.Operands[0]), n.Text, f.exprText(arena, n.Operands[1]))
	case ast.KindUnOp:
		if len(n.Operands) != 1 {
			return n.Text
		}
		return fmt.Sprintf("%s(%s)", n.Text, f.exprText(arena, n.Operands[0]))
	case ast.KindCall:
		args := make([]string, len(n.Operands))
		for i, a := range n.Operands {
			args[i] = f.exprText(arena, a)
		}
		return fmt.Sprintf("%s(%s)", n.Text, strings.Join(args, ", "))
	case ast.KindFieldAccess:
		if len(n.Operands) != 1 {
			return n.Text
		}
		return fmt.Sprintf("%s.%s", f.exprText(arena, n.Operands[0]), n.Text)
	case ast.KindArrayAccess:
		if len(n.Operands) != 2 {
			return n.Text
		}
		return fmt.Sprintf("%s[%s]", f.exprText(arena, n.Operands[0]), f.exprText(arena, n.Operands[1]))
	case ast.KindVTableRef:
		if len(n.Operands) == 1 {
			return fmt.Sprintf("%s::%s", f.exprText(arena, n.Operands[0]), n.Text)
		}
		return n.Text
	default:
		return n.Text
	}
}

// FormatClass renders a recovered vtable class definition as a class
// block with its superclass list and one method stub per own method hash
// (MethodHashes),
// per the "class <name> block, ... exactly one method stub with its
// hash" end-to-end scenario. Method and superclass names are resolved
// through internal/hashdict, falling back to its own hash placeholder
// when a name was never recovered.
func (f *Formatter) FormatClass(cls *gscfile.ClassRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "class %s", cls.Name)
	if len(cls.Superclasses) > 0 {
		b.WriteString(" : ")
		first := true
		for super := range cls.Superclasses {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(hashdict.Extract("class", super))
		}
	}
	f.writeBrace(&b, " ")
	b.WriteByte('\n')
	ind := f.indent()
	for _, methodHash := range cls.MethodHashes {
		fmt.Fprintf(&b, "%s%s(); // hash 0x%x\n", ind, hashdict.Extract("function", methodHash), methodHash)
	}
	b.WriteString("}\n")
	return b.String()
}
