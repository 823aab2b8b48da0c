package bdsf

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-bdsf/pkg/bdsf/model"
)

// collapseOp collapses the input cube along the frequency axis into
// the ch0 map, plus ch0_Q/U/V when polarisation is enabled. Blanked
// (NaN) pixels in the result become the image mask. It also computes
// the clipped mean and rms of ch0, which later stages threshold
// against.
type collapseOp struct{}

func (op *collapseOp) Name() string       { return OpCollapse }
func (op *collapseOp) Requires() []string { return nil }

func (op *collapseOp) Run(ctx context.Context, img *Image) error {
	if img.Cube == nil || img.Cube.NPlanes() == 0 {
		return errors.New("no input cube loaded")
	}

	blocks, err := stokesBlocks(img)
	if err != nil {
		return err
	}

	names := []string{MapCh0, MapCh0Q, MapCh0U, MapCh0V}
	collapsed := make([]*model.FloatMap, len(blocks))

	errGrp, dCtx := errgroup.WithContext(ctx)
	for idx := range blocks {
		localIdx := idx
		errGrp.Go(func() error {
			select {
			case <-dCtx.Done():
				return dCtx.Err()
			default:
			}
			collapsed[localIdx] = collapsePlanes(blocks[localIdx], img.Opts().CollapseMode)

			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		return errors.Wrap(err, "unable to collapse channels")
	}

	for idx, m := range collapsed {
		if err := img.PutMap(names[idx], m); err != nil {
			return err
		}
	}

	ch0, err := img.GetMap(MapCh0)
	if err != nil {
		return err
	}
	applyBlankMask(img, ch0)

	mean, rms, err := clippedStats(ch0.Data, img.Opts().SigmaClip, img.Opts().ClipIters)
	if err != nil {
		return errors.Wrap(err, "unable to compute clipped statistics")
	}
	img.ClippedMean = mean
	img.ClippedRMS = rms

	return nil
}

// stokesBlocks splits the cube planes into per-Stokes channel groups:
// a single Stokes I block normally, four equal blocks (I, Q, U, V)
// when polarisation is on.
func stokesBlocks(img *Image) ([][]*model.FloatMap, error) {
	planes := img.Cube.Planes
	if !img.Opts().PolarisationDo {
		return [][]*model.FloatMap{planes}, nil
	}

	if len(planes)%4 != 0 {
		return nil, errors.Errorf("polarisation collapse needs a multiple of 4 planes, got %d", len(planes))
	}
	nchan := len(planes) / 4
	blocks := make([][]*model.FloatMap, 4)
	for s := 0; s < 4; s++ {
		blocks[s] = planes[s*nchan : (s+1)*nchan]
	}

	return blocks, nil
}

func collapsePlanes(planes []*model.FloatMap, mode string) *model.FloatMap {
	if mode == "single" || len(planes) == 1 {
		return planes[0].Clone()
	}

	out := model.NewFloatMap(planes[0].Wx, planes[0].Wy)
	for i := range out.Data {
		sum, n := float64(0), 0
		for _, p := range planes {
			v := float64(p.Data[i])
			if !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			out.Data[i] = float32(math.NaN())
		} else {
			out.Data[i] = float32(sum / float64(n))
		}
	}

	return out
}

// applyBlankMask marks NaN pixels of ch0 as masked.
func applyBlankMask(img *Image, ch0 *model.FloatMap) {
	mask := make([]bool, len(ch0.Data))
	any := false
	for i, v := range ch0.Data {
		if math.IsNaN(float64(v)) {
			mask[i] = true
			any = true
		}
	}
	img.Mask = mask
	img.Masked = any
}
