package depgraph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportDOT generates a Graphviz DOT representation of the graph.
func ExportDOT(g *Graph) string {
	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	// Installed packages go in their own cluster so first-party modules
	// stand apart visually.
	var packages []Node
	for _, n := range g.Nodes {
		if n.Type == NodePackage {
			packages = append(packages, n)
			continue
		}
		b.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\" shape=box3d style=filled fillcolor=\"%s\"];\n",
			n.ID, n.Name, nodeColor(n.Type)))
	}
	if len(packages) > 0 {
		b.WriteString("\n  subgraph cluster_packages {\n")
		b.WriteString("    label=\"installed packages\";\n")
		b.WriteString("    style=dashed;\n")
		b.WriteString("    color=\"#58a6ff\";\n")
		for _, n := range packages {
			b.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\" shape=box style=filled fillcolor=\"%s\"];\n",
				n.ID, n.Name, nodeColor(n.Type)))
		}
		b.WriteString("  }\n")
	}
	b.WriteString("\n")

	for _, e := range g.Edges {
		b.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [style=%s color=\"%s\"];\n",
			e.Source, e.Target, edgeStyle(e.Kind), edgeColor(e.Kind)))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid diagram of the graph.
func ExportMermaid(g *Graph) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	for _, n := range g.Nodes {
		b.WriteString(fmt.Sprintf("  %s%s\n", sanitizeMermaidID(n.ID), mermaidNodeShape(n)))
	}

	for _, e := range g.Edges {
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			sanitizeMermaidID(e.Source), mermaidArrow(e.Kind), sanitizeMermaidID(e.Target)))
	}

	return b.String()
}

// ExportJSON serializes the graph to JSON.
func ExportJSON(g *Graph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

func sanitizeMermaidID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}

func nodeColor(kind NodeKind) string {
	switch kind {
	case NodeModule:
		return "#1f6feb"
	case NodePackage:
		return "#238636"
	default:
		return "#30363d"
	}
}

func edgeStyle(kind EdgeKind) string {
	switch kind {
	case EdgeDirect:
		return "solid"
	case EdgePeer:
		return "dashed"
	case EdgeOptional:
		return "dotted"
	default:
		return "solid"
	}
}

func edgeColor(kind EdgeKind) string {
	switch kind {
	case EdgeDirect:
		return "#3fb950"
	case EdgePeer:
		return "#8957e5"
	case EdgeOptional:
		return "#8b949e"
	default:
		return "#c9d1d9"
	}
}

func mermaidNodeShape(n Node) string {
	switch n.Type {
	case NodeModule:
		return fmt.Sprintf("[[\"%s\"]]", n.Name)
	case NodePackage:
		return fmt.Sprintf("[\"%s\"]", n.Name)
	default:
		return fmt.Sprintf("[\"%s\"]", n.Name)
	}
}

func mermaidArrow(kind EdgeKind) string {
	switch kind {
	case EdgeDirect:
		return "-->"
	case EdgePeer:
		return "-.->"
	case EdgeOptional:
		return "-..->"
	default:
		return "-->"
	}
}
