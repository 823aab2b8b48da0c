package bdsf_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-bdsf/pkg/bdsf"
	"github.com/askiada/go-bdsf/pkg/bdsf/opts"
)

func imageWithFilename(t *testing.T, filename string) *bdsf.Image {
	t.Helper()

	o := opts.New()
	o.Filename = filename
	img, err := bdsf.NewImage(o)
	require.NoError(t, err)

	return img
}

func TestSaveLoadPars(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := imageWithFilename(t, filepath.Join(dir, "field.fits"))
	require.NoError(t, img.SetPars(map[string]interface{}{"thresh_pix": 8.0}))

	// default save path is <filename>.pybdsm.sav
	require.NoError(t, img.SavePars(""))
	savePath := filepath.Join(dir, "field.fits.pybdsm.sav")
	_, err := os.Stat(savePath)
	require.NoError(t, err)

	other := imageWithFilename(t, filepath.Join(dir, "field.fits"))
	require.NoError(t, other.LoadPars(""))
	assert.Equal(t, 8.0, other.Opts().ThreshPix)
}

func TestLoadParsMissingFile(t *testing.T) {
	t.Parallel()

	img := imageWithFilename(t, filepath.Join(t.TempDir(), "field.fits"))
	err := img.LoadPars("")
	assert.ErrorIs(t, err, opts.ErrSaveFileNotFound)
}

func TestLoadParsInvalidFilePreservesOptions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filename := filepath.Join(dir, "field.fits")
	img := imageWithFilename(t, filename)
	require.NoError(t, img.SetPars(map[string]interface{}{"thresh_pix": 9.0}))

	badPath := filepath.Join(dir, "bad.sav")
	require.NoError(t, os.WriteFile(badPath, []byte("{{{ not yaml"), 0o644))

	err := img.LoadPars(badPath)
	assert.ErrorIs(t, err, opts.ErrInvalidSaveFile)

	// the failed load mutated nothing
	assert.Equal(t, filename, img.Opts().Filename)
	assert.Equal(t, 9.0, img.Opts().ThreshPix)
}

func TestLoadParsKeepsFilename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// save file written for a different image
	saver := imageWithFilename(t, filepath.Join(dir, "other.fits"))
	savePath := filepath.Join(dir, "pars.sav")
	require.NoError(t, saver.SavePars(savePath))

	filename := filepath.Join(dir, "field.fits")
	img := imageWithFilename(t, filename)
	require.NoError(t, img.LoadPars(savePath))
	assert.Equal(t, filename, img.Opts().Filename)
}

func TestListPars(t *testing.T) {
	t.Parallel()

	img := imageWithFilename(t, "field.fits")
	lines := img.ListPars()
	assert.NotEmpty(t, lines)

	joined := ""
	for _, line := range lines {
		joined += line + "\n"
	}
	assert.Contains(t, joined, "thresh_pix")
	assert.Contains(t, joined, "field.fits")
}
