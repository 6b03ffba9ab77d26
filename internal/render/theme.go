package render

// Theme holds colors for callgraph and CFG rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	// Edge colors by call provenance (see ClassifyEdgeProv).
	EdgeQualified  string // ns::name cross-namespace call
	EdgeLocal      string // bare-name same-namespace call
	EdgeUnresolved string // import index that never resolved to a name

	// CFG branch edge colors.
	EdgeTrue  string
	EdgeFalse string

	// Node accents.
	StubFill     string // terminal CFG blocks and external superclass nodes
	ExternalText string // external / unresolved target label color

	// Cluster styling.
	ClusterBorder string // subgraph cluster border
	ClusterLabel  string // subgraph cluster label text
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeQualified:  "#0B3D91", // NASA blue
	EdgeLocal:      "#00695C", // teal
	EdgeUnresolved: "#FC3D21", // NASA red

	EdgeTrue:  "#0B3D91",
	EdgeFalse: "#FC3D21",

	StubFill:     "#ECEFF1", // blue-gray 50
	ExternalText: "#9E9E9E",

	ClusterBorder: "#BDBDBD",
	ClusterLabel:  "#757575",
}
