package bdsf

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// WriteCatalog writes the detected island list to path. Supported
// formats are "ascii" (aligned columns with a comment header) and
// "ds9" (region file with one box per island). Requires a completed
// islands op.
func (img *Image) WriteCatalog(format, path string) error {
	if !img.HasCompleted(OpIslands) {
		return errors.Wrap(ErrNotProcessed, "no island list")
	}

	var content string
	switch format {
	case "ascii":
		content = img.asciiCatalog()
	case "ds9":
		content = img.ds9Catalog()
	default:
		return errors.Errorf("no catalog format named '%s'", format)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "unable to write catalog %s", path)
	}

	return nil
}

func (img *Image) asciiCatalog() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "# source list for %s\n", img.opts.Filename)
	fmt.Fprintf(b, "# thresh_pix=%g thresh_isl=%g minpix_isl=%d\n",
		img.opts.ThreshPix, img.opts.ThreshIsl, img.opts.MinPixIsl)
	fmt.Fprintf(b, "# %4s %6s %6s %12s %12s %6s %12s\n",
		"id", "x_peak", "y_peak", "peak_flux", "total_flux", "npix", "mean_rms")
	for _, isl := range img.Islands {
		fmt.Fprintf(b, "  %4d %6d %6d %12.6g %12.6g %6d %12.6g\n",
			isl.ID, isl.PeakX, isl.PeakY, isl.Peak, isl.TotalFlux, isl.NPix(), isl.MeanRMS)
	}

	return b.String()
}

func (img *Image) ds9Catalog() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "# Region file format: DS9 version 4.1\n")
	fmt.Fprintf(b, "global color=green\nimage\n")
	for _, isl := range img.Islands {
		// ds9 region coordinates are 1-based and box() takes the center
		cx := float64(isl.Bounds.Min.X+isl.Bounds.Max.X)/2 + 0.5
		cy := float64(isl.Bounds.Min.Y+isl.Bounds.Max.Y)/2 + 0.5
		fmt.Fprintf(b, "box(%.1f,%.1f,%d,%d) # text={isl %d}\n",
			cx, cy, isl.Bounds.Dx(), isl.Bounds.Dy(), isl.ID)
	}

	return b.String()
}
