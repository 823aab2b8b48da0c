package bdsf_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-bdsf/pkg/bdsf"
	"github.com/askiada/go-bdsf/pkg/bdsf/fits"
	"github.com/askiada/go-bdsf/pkg/bdsf/model"
	"github.com/askiada/go-bdsf/pkg/bdsf/opts"
)

// syntheticImage builds a 64x64 single-plane image with a low-level
// repeating background pattern and one bright 3x3 source at (30, 40).
// The pattern keeps the background rms non-zero without randomness, so
// every assertion is exact.
func syntheticImage(t *testing.T, o *opts.Opts) *bdsf.Image {
	t.Helper()

	if o == nil {
		o = opts.New()
	}
	o = o.Clone()
	if o.Filename == "" {
		o.Filename = "synthetic.fits"
	}

	plane := model.NewFloatMap(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			plane.Set(x, y, float32((x+y)%5)*0.1)
		}
	}
	for dy := 0; dy < 3; dy++ {
		for dx := 0; dx < 3; dx++ {
			plane.Set(30+dx, 40+dy, 50)
		}
	}

	img, err := bdsf.NewImage(o)
	require.NoError(t, err)
	img.Cube = &fits.Cube{Wx: 64, Wy: 64, Planes: []*model.FloatMap{plane}, Header: model.NewHeader()}

	return img
}

func TestProcessDetectsIsland(t *testing.T) {
	t.Parallel()

	img := syntheticImage(t, nil)
	ok, err := img.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Equal(t, 1, img.NIslands)
	isl := img.Islands[0]
	assert.Equal(t, 9, isl.NPix())
	assert.Equal(t, float32(50), isl.Peak)
	assert.Equal(t, 30, isl.Bounds.Min.X)
	assert.Equal(t, 40, isl.Bounds.Min.Y)
	assert.Equal(t, 3, isl.Bounds.Dx())
	assert.Equal(t, 3, isl.Bounds.Dy())

	assert.InDelta(t, 0.2, img.ClippedMean, 0.05)
	assert.Greater(t, img.ClippedRMS, 0.0)

	assert.Equal(t, []string{bdsf.OpCollapse, bdsf.OpRMSImage, bdsf.OpIslands}, img.CompletedOps())
}

func TestProcessSkipsCompletedOps(t *testing.T) {
	t.Parallel()

	img := syntheticImage(t, nil)
	_, err := img.Process(context.Background(), nil)
	require.NoError(t, err)

	ok, err := img.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, img.LastRun.AllMetrics(), "second run should re-run nothing")
}

func TestProcessRerunsOnOptionChange(t *testing.T) {
	t.Parallel()

	img := syntheticImage(t, nil)
	_, err := img.Process(context.Background(), nil)
	require.NoError(t, err)

	ok, err := img.Process(context.Background(), map[string]interface{}{"thresh_pix": 6.0})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, img.LastRun.AllMetrics(), 3, "option change should re-run the whole chain")
	assert.Equal(t, 6.0, img.PrevOpts().ThreshPix, "snapshot holds the options the run executed under")
}

func TestProcessSkipsAfterOverridingRun(t *testing.T) {
	t.Parallel()

	img := syntheticImage(t, nil)
	_, err := img.Process(context.Background(), nil)
	require.NoError(t, err)

	_, err = img.Process(context.Background(), map[string]interface{}{"thresh_pix": 6.0})
	require.NoError(t, err)

	// nothing changed since the overriding run, so nothing re-runs
	ok, err := img.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, img.LastRun.AllMetrics(), "unchanged options after an override must not re-run the chain")
}

func TestProcessBadOverride(t *testing.T) {
	t.Parallel()

	img := syntheticImage(t, nil)
	ok, err := img.Process(context.Background(), map[string]interface{}{"no_such": 1})
	assert.False(t, ok)
	assert.ErrorIs(t, err, opts.ErrUnknownOption)
}

func TestProcessNoCube(t *testing.T) {
	t.Parallel()

	img, err := bdsf.NewImage(opts.New())
	require.NoError(t, err)

	ok, err := img.Process(context.Background(), nil)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestProcessWithDiskCache(t *testing.T) {
	t.Parallel()

	o := opts.New()
	o.DoCache = true
	o.CacheDir = t.TempDir()

	img := syntheticImage(t, o)
	defer img.Close()

	ok, err := img.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, img.NIslands)

	// spilled maps are materialised from disk on every read
	rms, err := img.GetMap(bdsf.MapRMS)
	require.NoError(t, err)
	assert.Equal(t, 64, rms.Wx)

	// and the cache directory actually holds them
	matches, err := filepath.Glob(filepath.Join(o.CacheDir, "*.map"))
	require.NoError(t, err)
	assert.NotEmpty(t, matches)
}

func TestProcessPolarisation(t *testing.T) {
	t.Parallel()

	o := opts.New()
	o.PolarisationDo = true
	img := syntheticImage(t, o)

	// four Stokes planes, one channel each
	base := img.Cube.Planes[0]
	img.Cube.Planes = []*model.FloatMap{base, base.Clone(), base.Clone(), base.Clone()}

	ok, err := img.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, name := range []string{bdsf.MapCh0, bdsf.MapCh0Q, bdsf.MapCh0U, bdsf.MapCh0V} {
		m, err := img.GetMap(name)
		require.NoError(t, err)
		assert.True(t, base.Equal(m), "map %s", name)
	}
}

func TestExportImage(t *testing.T) {
	t.Parallel()

	img := syntheticImage(t, nil)
	path := filepath.Join(t.TempDir(), "rms.fits")

	// before processing the product does not exist
	err := img.ExportImage("rms", path)
	assert.ErrorIs(t, err, bdsf.ErrNotProcessed)

	_, err = img.Process(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, img.ExportImage("rms", path))

	cube, err := fits.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cube.Wx)
	assert.Equal(t, 64, cube.Wy)
}

func TestExportUnknownKind(t *testing.T) {
	t.Parallel()

	img := syntheticImage(t, nil)
	err := img.ExportImage("model_gaus", filepath.Join(t.TempDir(), "x.fits"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, bdsf.ErrNotProcessed)
}

func TestWriteCatalog(t *testing.T) {
	t.Parallel()

	img := syntheticImage(t, nil)
	dir := t.TempDir()

	err := img.WriteCatalog("ascii", filepath.Join(dir, "cat.txt"))
	assert.ErrorIs(t, err, bdsf.ErrNotProcessed)

	_, err = img.Process(context.Background(), nil)
	require.NoError(t, err)

	asciiPath := filepath.Join(dir, "cat.txt")
	require.NoError(t, img.WriteCatalog("ascii", asciiPath))
	content, err := os.ReadFile(asciiPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "peak_flux")
	assert.Equal(t, 1, strings.Count(string(content), "\n")-3, "one island row after three header lines")

	ds9Path := filepath.Join(dir, "cat.reg")
	require.NoError(t, img.WriteCatalog("ds9", ds9Path))
	content, err = os.ReadFile(ds9Path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "box(")

	assert.Error(t, img.WriteCatalog("votable", filepath.Join(dir, "cat.xml")))
}

func TestShowFit(t *testing.T) {
	t.Parallel()

	img := syntheticImage(t, nil)
	path := filepath.Join(t.TempDir(), "fit.svg")

	ok, err := img.ShowFit(path)
	assert.False(t, ok)
	assert.ErrorIs(t, err, bdsf.ErrNotProcessed)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing should be written before processing")

	_, err = img.Process(context.Background(), nil)
	require.NoError(t, err)

	ok, err = img.ShowFit(path)
	require.NoError(t, err)
	assert.True(t, ok)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "<svg")
	assert.Contains(t, string(content), "rect")
}

func TestDrawChain(t *testing.T) {
	t.Parallel()

	img := syntheticImage(t, nil)
	path := filepath.Join(t.TempDir(), "chain.gv")
	require.NoError(t, img.DrawChain(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "digraph")
	assert.Contains(t, string(content), bdsf.OpCollapse)
}

func TestHandoff(t *testing.T) {
	t.Parallel()

	img := syntheticImage(t, nil)
	_, err := img.Process(context.Background(), nil)
	require.NoError(t, err)

	h := img.Handoff()
	assert.Equal(t, 5.0, h.ThreshPix)
	assert.Equal(t, 6, h.MinPixIsl)
	assert.Equal(t, img.ClippedMean, h.ClippedMean)

	b, err := h.Marshal()
	require.NoError(t, err)
	got, err := model.UnmarshalHandoff(b)
	require.NoError(t, err)
	assert.Equal(t, h, got)

	worker, err := bdsf.NewImage(opts.New())
	require.NoError(t, err)
	worker.ApplyHandoff(got)
	assert.Equal(t, h.ClippedMean, worker.ClippedMean)
	assert.Equal(t, h.ThreshPix, worker.Opts().ThreshPix)
}

func TestGetMapNeverWritten(t *testing.T) {
	t.Parallel()

	img, err := bdsf.NewImage(opts.New())
	require.NoError(t, err)

	_, err = img.GetMap(bdsf.MapCh0)
	assert.ErrorIs(t, err, bdsf.ErrMapNotFound)
}
