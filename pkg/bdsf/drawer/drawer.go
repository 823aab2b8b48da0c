// Package drawer renders the op chain as a DOT graph, one vertex per
// op coloured by completion state.
package drawer

import (
	"os"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint
)

// Palette for op states. Parsed through the colors package so a bad
// hex literal fails loudly at construction instead of producing a
// silently broken graph.
const (
	completedHex = "#2e7d32"
	pendingHex   = "#9e9e9e"
)

// ChainDrawer accumulates ops and prerequisite links and writes a DOT
// file describing the chain.
type ChainDrawer struct {
	graph    graph.Graph[string, string]
	fileName string

	completedFill string
	pendingFill   string
}

// NewChainDrawer creates a drawer writing to fileName.
func NewChainDrawer(fileName string) (*ChainDrawer, error) {
	completed, err := colors.ParseHEX(completedHex)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse completed colour")
	}
	pending, err := colors.ParseHEX(pendingHex)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse pending colour")
	}

	return &ChainDrawer{
		graph:         graph.New(graph.StringHash, graph.Directed()),
		fileName:      fileName,
		completedFill: completed.String(),
		pendingFill:   pending.String(),
	}, nil
}

// AddOp adds an op vertex, coloured by whether it already ran.
func (d *ChainDrawer) AddOp(name string, completed bool) error {
	fill := d.pendingFill
	if completed {
		fill = d.completedFill
	}

	err := d.graph.AddVertex(name,
		graph.VertexAttribute("style", "filled"),
		graph.VertexAttribute("fillcolor", fill),
		graph.VertexAttribute("fontcolor", "white"),
	)
	if err != nil {
		return errors.Wrapf(err, "unable to add op %s", name)
	}

	return nil
}

// AddLink adds a prerequisite edge between two ops.
func (d *ChainDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// Draw writes the DOT description of the chain.
func (d *ChainDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}
	defer file.Close()

	if err := dot(d.graph, file); err != nil {
		return errors.Wrapf(err, "unable to render %s", d.fileName)
	}

	return nil
}
