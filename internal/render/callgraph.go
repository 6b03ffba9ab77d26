package render

import (
	"fmt"
	"strings"
)

// FuncRecord summarizes one export for graph rendering.
type FuncRecord struct {
	Name  string
	Owner string // namespace, "" if the export has none
}

// CallEdgeRecord is one call edge for graph rendering, as extracted from
// a KindCall node's callee text by internal/graph.
type CallEdgeRecord struct {
	FromFunc string
	Target   string // resolved callee text; "@importN" if never resolved
}

// Call provenance categories, named after the three outcomes
// internal/opcode's call decoder itself produces: a namespace-qualified
// name, a bare local name, or the "@importN" placeholder it falls back
// to when import-table resolution fails.
const (
	ProvQualified  = "qualified"
	ProvLocal      = "local"
	ProvUnresolved = "unresolved"
)

// ClassifyEdgeProv returns the provenance category for a call edge.
func ClassifyEdgeProv(e CallEdgeRecord) string {
	switch {
	case strings.HasPrefix(e.Target, "@import"):
		return ProvUnresolved
	case strings.Contains(e.Target, "::"):
		return ProvQualified
	default:
		return ProvLocal
	}
}

// edgeColor returns the DOT color for an edge provenance category.
func edgeColor(prov string, t Theme) string {
	switch prov {
	case ProvQualified:
		return t.EdgeQualified
	case ProvLocal:
		return t.EdgeLocal
	case ProvUnresolved:
		return t.EdgeUnresolved
	default:
		return t.EdgeLocal
	}
}

// edgeStyle returns DOT style attributes for provenance.
func edgeStyle(prov string) string {
	if prov == ProvUnresolved {
		return "dashed"
	}
	return "solid"
}

// CallgraphDOT renders a callgraph from functions and call edges as DOT.
// A target that is not one of the rendered functions is shown as a
// plaintext node; edges are solid except unresolved-import ones, which
// are dashed. maxNodes
// limits the number of function nodes rendered (0 = all).
func CallgraphDOT(funcs []FuncRecord, edges []CallEdgeRecord, title string, t Theme, maxNodes int) string {
	funcSet := make(map[string]bool, len(funcs))
	for _, f := range funcs {
		funcSet[f.Name] = true
	}

	type edgeKey struct {
		from, to, prov string
	}
	dedupEdges := make(map[edgeKey]int)
	for _, e := range edges {
		if e.Target == "" {
			continue
		}
		prov := ClassifyEdgeProv(e)
		k := edgeKey{e.FromFunc, e.Target, prov}
		dedupEdges[k]++
	}

	refNodes := make(map[string]bool)
	for k := range dedupEdges {
		refNodes[k.from] = true
		refNodes[k.to] = true
	}

	var renderFuncs []FuncRecord
	for _, f := range funcs {
		if refNodes[f.Name] {
			renderFuncs = append(renderFuncs, f)
		}
	}
	if maxNodes > 0 && len(renderFuncs) > maxNodes {
		renderFuncs = renderFuncs[:maxNodes]
		funcSet = make(map[string]bool, len(renderFuncs))
		for _, f := range renderFuncs {
			funcSet[f.Name] = true
		}
	}

	externalNodes := make(map[string]bool)
	for k := range dedupEdges {
		if !funcSet[k.from] {
			continue
		}
		if !funcSet[k.to] {
			externalNodes[k.to] = true
		}
	}

	ownerFuncs := make(map[string][]FuncRecord)
	var noOwner []FuncRecord
	for _, f := range renderFuncs {
		if f.Owner != "" {
			ownerFuncs[f.Owner] = append(ownerFuncs[f.Owner], f)
		} else {
			noOwner = append(noOwner, f)
		}
	}

	var b strings.Builder
	b.WriteString("digraph callgraph {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  compound=true;\n")
	b.WriteString("  splines=true;\n")
	b.WriteString("  nodesep=0.4;\n")
	b.WriteString("  ranksep=0.6;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Helvetica Neue,Helvetica,Arial\", fontsize=9, fontcolor=%q, height=0.3, margin=\"0.12,0.06\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.5, arrowsize=0.5, arrowhead=vee];\n")
	if title != "" {
		fmt.Fprintf(&b, "  labelloc=t;\n  labeljust=l;\n")
		fmt.Fprintf(&b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"8\" color=\"%s\">%s</font>>;\n",
			t.TextColor, dotEscape(title))
	}
	b.WriteByte('\n')

	for owner, funcsInOwner := range ownerFuncs {
		if len(funcsInOwner) < 2 {
			noOwner = append(noOwner, funcsInOwner...)
			continue
		}
		clusterID := "cluster_" + dotID(owner)
		fmt.Fprintf(&b, "  subgraph %s {\n", clusterID)
		fmt.Fprintf(&b, "    label=<<font point-size=\"8\" color=\"%s\">%s</font>>;\n",
			t.ClusterLabel, dotEscape(owner))
		fmt.Fprintf(&b, "    style=dotted; color=%q; penwidth=0.3;\n", t.ClusterBorder)
		for _, f := range funcsInOwner {
			id := dotID(f.Name)
			label := stripMethodName(f.Name, owner)
			label = truncLabel(label, 50)
			fmt.Fprintf(&b, "    %s [label=%q];\n", id, label)
		}
		fmt.Fprintf(&b, "  }\n")
	}

	for _, f := range noOwner {
		id := dotID(f.Name)
		label := truncLabel(f.Name, 60)
		fmt.Fprintf(&b, "  %s [label=%q];\n", id, label)
	}
	b.WriteByte('\n')

	for name := range externalNodes {
		id := dotID(name)
		label := truncLabel(name, 50)
		fmt.Fprintf(&b, "  %s [label=%q, shape=plaintext, style=\"\", fillcolor=none, fontcolor=%q, fontsize=8];\n",
			id, label, t.ExternalText)
	}
	b.WriteByte('\n')

	for k, count := range dedupEdges {
		if !funcSet[k.from] && !externalNodes[k.from] {
			continue
		}
		fromID := dotID(k.from)
		toID := dotID(k.to)
		color := edgeColor(k.prov, t)
		style := edgeStyle(k.prov)

		attrs := fmt.Sprintf("color=%q, style=%q", color, style)
		if count > 1 {
			attrs += fmt.Sprintf(", penwidth=%.1f", 0.5+float64(count)*0.1)
			if count > 2 {
				attrs += fmt.Sprintf(", label=<<font point-size=\"7\" color=\"%s\">%dx</font>>", color, count)
			}
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", fromID, toID, attrs)
	}

	b.WriteString("}\n")
	return b.String()
}

// CallgraphStats computes summary statistics from edges.
type CallgraphStats struct {
	TotalFunctions int
	TotalEdges     int
	QualifiedEdges int
	LocalEdges     int
	UnresolvedEdges int
	UniqueOwners   int
	ProvCounts     map[string]int
	TopCallers     []NameCount // sorted desc
	TopCallees     []NameCount // sorted desc
	TopOwners      []NameCount // sorted desc by method count
}

// NameCount pairs a name with a count.
type NameCount struct {
	Name  string
	Count int
}

// ComputeStats computes callgraph statistics from a set of functions and
// their call edges.
func ComputeStats(funcs []FuncRecord, edges []CallEdgeRecord) CallgraphStats {
	stats := CallgraphStats{
		TotalFunctions: len(funcs),
		TotalEdges:     len(edges),
		ProvCounts:     make(map[string]int),
	}

	callerCount := make(map[string]int)
	calleeCount := make(map[string]int)

	for _, e := range edges {
		prov := ClassifyEdgeProv(e)
		stats.ProvCounts[prov]++
		callerCount[e.FromFunc]++

		switch prov {
		case ProvQualified:
			stats.QualifiedEdges++
			if e.Target != "" {
				calleeCount[e.Target]++
			}
		case ProvLocal:
			stats.LocalEdges++
			if e.Target != "" {
				calleeCount[e.Target]++
			}
		case ProvUnresolved:
			stats.UnresolvedEdges++
		}
	}

	ownerCount := make(map[string]int)
	for _, f := range funcs {
		if f.Owner != "" {
			ownerCount[f.Owner]++
		}
	}
	stats.UniqueOwners = len(ownerCount)

	stats.TopCallers = topNMap(callerCount, 20)
	stats.TopCallees = topNMap(calleeCount, 20)
	stats.TopOwners = topNMap(ownerCount, 30)
	return stats
}

// topNMap returns the top N entries from a map, sorted descending.
func topNMap(m map[string]int, n int) []NameCount {
	entries := make([]NameCount, 0, len(m))
	for name, count := range m {
		entries = append(entries, NameCount{name, count})
	}
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Count > entries[i].Count {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
