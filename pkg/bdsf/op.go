package bdsf

import (
	"context"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
)

// Op is a single processing stage. Ops consume and mutate the Image
// container; prerequisites declare which ops must have run first.
type Op interface {
	// Name identifies the op in the completed list and the chain graph.
	Name() string
	// Requires lists the names of ops that must run before this one.
	Requires() []string
	// Run executes the stage against img.
	Run(ctx context.Context, img *Image) error
}

// Op names for the standard chain.
const (
	OpCollapse = "collapse"
	OpRMSImage = "rmsimage"
	OpIslands  = "islands"
)

// StandardChain returns the default op sequence for a full run.
func StandardChain() []Op {
	return []Op{
		&collapseOp{},
		&rmsImageOp{},
		&islandsOp{},
	}
}

// orderChain resolves op prerequisites into an execution order using a
// stable topological sort, so runs are deterministic. Unknown
// prerequisites and cycles are build-time errors.
func orderChain(ops []Op) ([]Op, error) {
	byName := make(map[string]Op, len(ops))
	chainGraph := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	for _, op := range ops {
		if _, ok := byName[op.Name()]; ok {
			return nil, errors.Errorf("duplicate op %s in chain", op.Name())
		}
		byName[op.Name()] = op
		if err := chainGraph.AddVertex(op.Name()); err != nil {
			return nil, errors.Wrapf(err, "unable to add op %s", op.Name())
		}
	}

	for _, op := range ops {
		for _, req := range op.Requires() {
			if _, ok := byName[req]; !ok {
				return nil, errors.Errorf("op %s requires unknown op %s", op.Name(), req)
			}
			if err := chainGraph.AddEdge(req, op.Name()); err != nil {
				return nil, errors.Wrapf(err, "unable to link %s -> %s", req, op.Name())
			}
		}
	}

	order, err := graph.StableTopologicalSort(chainGraph, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, errors.Wrap(err, "unable to order op chain")
	}

	ordered := make([]Op, 0, len(order))
	for _, name := range order {
		ordered = append(ordered, byName[name])
	}

	return ordered, nil
}
