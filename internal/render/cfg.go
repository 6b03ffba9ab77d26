package render

import (
	"fmt"
	"strings"

	"github.com/zboralski/lattice"
)

// CFGDOT renders a per-function basic-block CFG as DOT. Each basic
// block is a node labeled with its statement range followed by the calls
// it contains; edges represent control flow, with true/false
// branch labels on a conditional block's two successors.
func CFGDOT(cfg *lattice.FuncCFG, t Theme) string {
	if cfg == nil || len(cfg.Blocks) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("digraph cfg {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  nodesep=0.3;\n")
	b.WriteString("  ranksep=0.4;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Courier,monospace\", fontsize=8, fontcolor=%q, margin=\"0.08,0.04\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.7, arrowsize=0.5, arrowhead=vee];\n")
	fmt.Fprintf(&b, "  labelloc=t;\n  labeljust=l;\n")
	fmt.Fprintf(&b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"9\" color=\"%s\">%s</font>>;\n",
		t.TextColor, dotEscape(cfg.Name))
	b.WriteByte('\n')

	for _, blk := range cfg.Blocks {
		id := fmt.Sprintf("bb%d", blk.ID)

		var lines []string
		lines = append(lines, fmt.Sprintf("[%d:%d)", blk.Start, blk.End))
		for _, call := range blk.Calls {
			lines = append(lines, dotEscape(call.Callee+"()"))
		}
		if len(lines) > 14 {
			kept := append(append([]string{}, lines[:5]...), fmt.Sprintf("... (%d more)", len(lines)-10))
			lines = append(kept, lines[len(lines)-5:]...)
		}

		label := strings.Join(lines, "<br align=\"left\"/>")
		label += "<br align=\"left\"/>"

		attrs := ""
		if blk.ID == 0 {
			attrs = fmt.Sprintf(", penwidth=1.5, color=%q", t.EdgeQualified)
		}
		if blk.Term {
			attrs += fmt.Sprintf(", fillcolor=%q", t.StubFill)
		}
		fmt.Fprintf(&b, "  %s [label=<%s>%s];\n", id, label, attrs)
	}
	b.WriteByte('\n')

	for _, blk := range cfg.Blocks {
		from := fmt.Sprintf("bb%d", blk.ID)
		for _, s := range blk.Succs {
			to := fmt.Sprintf("bb%d", s.BlockID)
			switch s.Cond {
			case "true":
				fmt.Fprintf(&b, "  %s -> %s [color=%q, label=<<font point-size=\"7\" color=\"%s\">T</font>>];\n",
					from, to, t.EdgeTrue, t.EdgeTrue)
			case "false":
				fmt.Fprintf(&b, "  %s -> %s [color=%q, label=<<font point-size=\"7\" color=\"%s\">F</font>>];\n",
					from, to, t.EdgeFalse, t.EdgeFalse)
			default:
				fmt.Fprintf(&b, "  %s -> %s [color=%q];\n", from, to, t.EdgeLocal)
			}
		}
	}

	b.WriteString("}\n")
	return b.String()
}
