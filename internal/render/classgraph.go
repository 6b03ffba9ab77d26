package render

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gsctools/gscdis/internal/gscfile"
	"github.com/gsctools/gscdis/internal/hashdict"
)

// classLabel resolves a superclass hash to a display name via
// internal/hashdict, falling back to its raw hex form when the
// dictionary carries no entry for it.
func classLabel(hash uint64) string {
	if name, ok := hashdict.Lookup(hash); ok {
		return name
	}
	return fmt.Sprintf("0x%x", hash)
}

// ClassgraphDOT renders a class inheritance graph from the recovered
// CLASS_VTABLE exports: one node per class, one edge per
// class→superclass relationship. maxNodes limits rendered classes
// (0 = all), ranked by total edges touching the class so the busiest
// part of the hierarchy survives truncation first.
func ClassgraphDOT(classes map[string]*gscfile.ClassRecord, title string, t Theme, maxNodes int) string {
	type classEdge struct {
		from, to string
	}

	methodCount := make(map[string]int, len(classes))
	var edges []classEdge
	for name, cls := range classes {
		methodCount[name] = len(cls.MethodHashes)
		for hash := range cls.Superclasses {
			edges = append(edges, classEdge{from: name, to: classLabel(hash)})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})

	involvement := make(map[string]int)
	for _, e := range edges {
		involvement[e.from]++
		involvement[e.to]++
	}
	for name := range classes {
		if _, ok := involvement[name]; !ok {
			involvement[name] = 0
		}
	}

	type rankedClass struct {
		name        string
		involvement int
	}
	ranked := make([]rankedClass, 0, len(involvement))
	for name, inv := range involvement {
		ranked = append(ranked, rankedClass{name, inv})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].involvement != ranked[j].involvement {
			return ranked[i].involvement > ranked[j].involvement
		}
		return ranked[i].name < ranked[j].name
	})

	renderSet := make(map[string]bool)
	limit := len(ranked)
	if maxNodes > 0 && limit > maxNodes {
		limit = maxNodes
	}
	for _, rc := range ranked[:limit] {
		renderSet[rc.name] = true
	}

	var b strings.Builder
	b.WriteString("digraph classgraph {\n")
	b.WriteString("  rankdir=BT;\n")
	b.WriteString("  splines=true;\n")
	b.WriteString("  nodesep=0.5;\n")
	b.WriteString("  ranksep=0.8;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=\"filled,rounded\", fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Helvetica Neue,Helvetica,Arial\", fontsize=10, fontcolor=%q, height=0.4, margin=\"0.15,0.08\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.5, arrowsize=0.5, arrowhead=empty, color=%q];\n", t.EdgeQualified)
	if title != "" {
		fmt.Fprintf(&b, "  labelloc=t;\n  labeljust=l;\n")
		fmt.Fprintf(&b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"8\" color=\"%s\">%s</font>>;\n",
			t.TextColor, dotEscape(title))
	}
	b.WriteByte('\n')

	maxMethods := 1
	for name := range renderSet {
		if c := methodCount[name]; c > maxMethods {
			maxMethods = c
		}
	}
	for _, rc := range ranked[:limit] {
		name := rc.name
		id := dotID(name)
		methods := methodCount[name]
		height := 0.4 + 0.3*math.Log2(float64(methods)+1)/math.Log2(float64(maxMethods)+1)

		htmlLabel := fmt.Sprintf("<<font point-size=\"10\">%s</font><br/><font point-size=\"7\" color=\"%s\">%d methods</font>>",
			dotEscape(name), t.ExternalText, methods)

		if _, ok := classes[name]; !ok {
			// An external superclass referenced only by hash — no
			// CLASS_VTABLE export of its own in this module.
			fmt.Fprintf(&b, "  %s [label=%s, fillcolor=%q, height=%.2f];\n",
				id, htmlLabel, t.StubFill, height)
		} else {
			fmt.Fprintf(&b, "  %s [label=%s, height=%.2f];\n", id, htmlLabel, height)
		}
	}
	b.WriteByte('\n')

	for _, e := range edges {
		if !renderSet[e.from] || !renderSet[e.to] {
			continue
		}
		fmt.Fprintf(&b, "  %s -> %s;\n", dotID(e.from), dotID(e.to))
	}

	b.WriteString("}\n")
	return b.String()
}
