package bdsf

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-bdsf/pkg/bdsf/fits"
)

// exportKinds maps the user-facing product names to map names.
var exportKinds = map[string]string{
	"ch0":         MapCh0,
	"ch0_Q":       MapCh0Q,
	"ch0_U":       MapCh0U,
	"ch0_V":       MapCh0V,
	"mean":        MapMean,
	"rms":         MapRMS,
	"island_mask": MapIslandMask,
}

// ExportImage writes an internal map product to path as FITS. The
// requested product must exist, which means the producing op must have
// run; otherwise ErrNotProcessed is returned.
func (img *Image) ExportImage(kind, path string) error {
	mapName, ok := exportKinds[kind]
	if !ok {
		return errors.Errorf("no image product named '%s'", kind)
	}

	m, err := img.GetMap(mapName)
	if err != nil {
		if errors.Is(err, ErrMapNotFound) {
			return errors.Wrapf(ErrNotProcessed, "product %s", kind)
		}

		return err
	}

	return fits.WriteFile(path, m, img.Header)
}
