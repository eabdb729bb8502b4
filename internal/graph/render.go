package graph

import (
	"io"
	"strings"

	"github.com/emicklei/dot"
)

// Format specifies the output format for a rendered graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Renderer draws a resource graph.
type Renderer struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// IncludeExternals draws external ids and imports as dashed nodes.
	IncludeExternals bool

	// ClusterByKind groups nodes of the same resource kind.
	ClusterByKind bool
}

// Render writes g to w.
func (r *Renderer) Render(g *Graph, w io.Writer) error {
	d := r.build(g)

	var output string
	if r.Format == FormatMermaid {
		output = dot.MermaidGraph(d, dot.MermaidTopToBottom)
	} else {
		output = d.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// RenderString returns the rendered graph.
func (r *Renderer) RenderString(g *Graph) (string, error) {
	var sb strings.Builder
	if err := r.Render(g, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *Renderer) build(g *Graph) *dot.Graph {
	d := dot.NewGraph(dot.Directed)
	d.Attr("rankdir", "TB")

	d.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	d.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	nodes := make(map[string]dot.Node)
	if r.ClusterByKind {
		byKind := make(map[Kind][]Node)
		var kinds []Kind
		for _, n := range g.Nodes() {
			if _, seen := byKind[n.Kind]; !seen {
				kinds = append(kinds, n.Kind)
			}
			byKind[n.Kind] = append(byKind[n.Kind], n)
		}
		for _, kind := range kinds {
			members := byKind[kind]
			parent := d
			if len(members) > 1 {
				parent = d.Subgraph("cluster_"+kind.Short(), dot.ClusterOption{})
				parent.Attr("label", kind.Short())
				parent.Attr("style", "rounded")
				parent.Attr("bgcolor", "lightyellow")
			}
			for _, n := range members {
				nodes[n.ID] = parent.Node(n.ID).Label(label(n))
			}
		}
	} else {
		for _, n := range g.Nodes() {
			nodes[n.ID] = d.Node(n.ID).Label(label(n))
		}
	}

	if r.IncludeExternals {
		for _, id := range g.Externals() {
			nodes[id] = d.Node(id).Attr("shape", "ellipse").Attr("style", "dashed")
		}
		for _, name := range g.Imports() {
			nodes["import:"+name] = d.Node("import:"+name).Label(name).Attr("shape", "note").Attr("style", "dashed")
		}
	}

	for _, n := range g.Nodes() {
		from := nodes[n.ID]
		drawn := make(map[string]bool)
		for _, ref := range n.refs {
			to, ok := nodes[ref.To]
			if !ok || drawn[ref.To] {
				continue
			}
			drawn[ref.To] = true
			e := d.Edge(from, to)
			if ref.Attribute != "" {
				e.Attr("color", "blue")
			}
		}
		for _, dep := range n.DependsOn {
			to, ok := nodes[dep]
			if !ok || drawn[dep] {
				continue
			}
			drawn[dep] = true
			d.Edge(from, to).Attr("style", "dashed")
		}
		if r.IncludeExternals {
			for _, name := range n.imports {
				d.Edge(from, nodes["import:"+name]).Attr("style", "dotted")
			}
		}
	}

	return d
}

func label(n Node) string {
	return n.ID + "\\n[" + string(n.Kind) + "]"
}
