package bdsf

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-bdsf/pkg/bdsf/model"
)

// rmsImageOp builds the background mean and rms maps from ch0 using
// clipped statistics over a sliding grid of rms_box sized boxes. Box
// rows are computed concurrently; each goroutine writes a disjoint
// slice of the output maps.
type rmsImageOp struct{}

func (op *rmsImageOp) Name() string       { return OpRMSImage }
func (op *rmsImageOp) Requires() []string { return []string{OpCollapse} }

func (op *rmsImageOp) Run(ctx context.Context, img *Image) error {
	ch0, err := img.GetMap(MapCh0)
	if err != nil {
		return err
	}

	box := img.Opts().RMSBox
	meanMap := model.NewFloatMap(ch0.Wx, ch0.Wy)
	rmsMap := model.NewFloatMap(ch0.Wx, ch0.Wy)

	kappa := img.Opts().SigmaClip
	iters := img.Opts().ClipIters

	nyBoxes := (ch0.Wy + box - 1) / box

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(runtime.NumCPU())
	for by := 0; by < nyBoxes; by++ {
		y0 := by * box
		errGrp.Go(func() error {
			select {
			case <-dCtx.Done():
				return dCtx.Err()
			default:
			}

			return boxRowStats(ch0, meanMap, rmsMap, y0, box, kappa, iters)
		})
	}
	if err := errGrp.Wait(); err != nil {
		return errors.Wrap(err, "unable to compute rms map")
	}

	if err := img.PutMap(MapMean, meanMap); err != nil {
		return err
	}

	return img.PutMap(MapRMS, rmsMap)
}

// boxRowStats fills one horizontal stripe of the mean/rms maps. Every
// pixel of a box gets that box's clipped statistics; a box with no
// unblanked pixels falls back to zero mean and rms, which makes its
// pixels undetectable rather than failing the whole op.
func boxRowStats(ch0, meanMap, rmsMap *model.FloatMap, y0, box int, kappa float64, iters int) error {
	y1 := y0 + box
	if y1 > ch0.Wy {
		y1 = ch0.Wy
	}

	for x0 := 0; x0 < ch0.Wx; x0 += box {
		x1 := x0 + box
		if x1 > ch0.Wx {
			x1 = ch0.Wx
		}

		vals := make([]float32, 0, (x1-x0)*(y1-y0))
		for y := y0; y < y1; y++ {
			vals = append(vals, ch0.Data[y*ch0.Wx+x0:y*ch0.Wx+x1]...)
		}

		mean, rms, err := clippedStats(vals, kappa, iters)
		if err != nil {
			mean, rms = 0, 0
		}
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				meanMap.Set(x, y, float32(mean))
				rmsMap.Set(x, y, float32(rms))
			}
		}
	}

	return nil
}
