// Package dot renders the pipeline document as a Graphviz digraph.
package dot

import (
	"fmt"
	"sort"
	"strconv"

	gographviz "github.com/awalterschulze/gographviz"

	"github.com/starford/nodeforge/internal/models"
)

const graphName = "pipeline"

var shapes = map[string]string{
	"RouterNode":  "hexagon",
	"BooleanNode": "diamond",
	"EndNode":     "doublecircle",
}

// TypeNamer returns the display name of a node type.
type TypeNamer func(nodeType string) string

// Export builds a digraph with one vertex per node and one arc per edge.
// Arcs are labelled with their source handle. Vertices are emitted in id
// order so equal documents yield equal output.
func Export(nodes []models.Node, edges []models.Edge, typeName TypeNamer) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(graphName); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	if err := g.AddAttr(graphName, "rankdir", "LR"); err != nil {
		return "", err
	}

	sorted := make([]models.Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	known := make(map[string]struct{}, len(sorted))
	for _, n := range sorted {
		shape, ok := shapes[n.Type]
		if !ok {
			shape = "box"
		}
		attrs := map[string]string{
			"label":   quote(nodeLabel(n, typeName)),
			"shape":   shape,
			"tooltip": quote(n.Type),
		}
		if err := g.AddNode(graphName, quote(n.ID), attrs); err != nil {
			return "", fmt.Errorf("dot: node %s: %w", n.ID, err)
		}
		known[n.ID] = struct{}{}
	}

	for _, e := range edges {
		_, src := known[e.Source]
		_, dst := known[e.Target]
		if !src || !dst {
			continue
		}
		attrs := map[string]string{}
		if e.SourceHandle != "" {
			attrs["label"] = quote(e.SourceHandle)
		}
		if err := g.AddEdge(quote(e.Source), quote(e.Target), true, attrs); err != nil {
			return "", fmt.Errorf("dot: edge %s: %w", e.ID, err)
		}
	}
	return g.String(), nil
}

func nodeLabel(n models.Node, typeName TypeNamer) string {
	if n.Label != "" {
		return n.Label
	}
	if typeName != nil {
		if name := typeName(n.Type); name != "" {
			return name
		}
	}
	return n.Type
}

func quote(s string) string {
	return strconv.Quote(s)
}
