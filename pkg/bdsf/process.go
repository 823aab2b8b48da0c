package bdsf

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-bdsf/pkg/bdsf/drawer"
	"github.com/askiada/go-bdsf/pkg/bdsf/measure"
)

// Process runs the standard op chain against the image. Overrides are
// applied to the option set first; when any option changed since the
// previous run, the completed-op list is reset so every stage sees the
// new configuration. Ops already completed for an unchanged option set
// are skipped.
//
// Returns true on success, false with the failure otherwise. The
// option set this run executed under is retained as PrevOpts, so the
// next call's change detection compares against what actually ran.
func (img *Image) Process(ctx context.Context, overrides map[string]interface{}) (bool, error) {
	if err := img.opts.FromMap(overrides); err != nil {
		return false, err
	}
	if err := img.opts.Validate(); err != nil {
		return false, err
	}

	if img.prevOpts != nil && len(img.opts.Diff(img.prevOpts)) > 0 {
		// options changed since the last run, everything is stale
		img.resetCompleted()
	}

	chain, err := orderChain(StandardChain())
	if err != nil {
		return false, err
	}

	runMeasure := measure.NewDefaultMeasure()
	start := time.Now()
	for _, op := range chain {
		if img.HasCompleted(op.Name()) {
			continue
		}

		opStart := time.Now()
		if err := op.Run(ctx, img); err != nil {
			return false, errors.Wrapf(err, "op %s", op.Name())
		}
		runMeasure.AddMetric(op.Name()).AddDuration(time.Since(opStart))
		img.MarkCompleted(op.Name())
	}
	runMeasure.SetTotalDuration(time.Since(start))
	img.LastRun = runMeasure

	img.prevOpts = img.opts.Clone()

	if img.opts.ChainSVG != "" {
		if err := img.DrawChain(img.opts.ChainSVG); err != nil {
			return false, err
		}
	}

	return true, nil
}

// DrawChain renders the op chain as a DOT graph, colouring completed
// ops differently from pending ones.
func (img *Image) DrawChain(path string) error {
	chain, err := orderChain(StandardChain())
	if err != nil {
		return err
	}

	d, err := drawer.NewChainDrawer(path)
	if err != nil {
		return err
	}
	for _, op := range chain {
		if err := d.AddOp(op.Name(), img.HasCompleted(op.Name())); err != nil {
			return err
		}
	}
	for _, op := range chain {
		for _, req := range op.Requires() {
			if err := d.AddLink(req, op.Name()); err != nil {
				return err
			}
		}
	}

	return d.Draw()
}
