package bdsf

import (
	"github.com/askiada/go-bdsf/pkg/bdsf/opts"
)

// ListPars renders the current option values for display.
func (img *Image) ListPars() []string {
	return img.opts.List()
}

// SetPars applies named option overrides.
func (img *Image) SetPars(kwargs map[string]interface{}) error {
	if err := img.opts.FromMap(kwargs); err != nil {
		return err
	}

	return img.opts.Validate()
}

// SavePars writes the option set to path, defaulting to
// <filename>.pybdsm.sav when path is empty.
func (img *Image) SavePars(path string) error {
	return img.opts.Save(path)
}

// LoadPars replaces the option set from a parameter save file. The
// filename option always keeps its current value: the save file may
// have been written for a different image. On any failure the image's
// options are left untouched.
func (img *Image) LoadPars(path string) error {
	if path == "" {
		path = img.opts.DefaultSavePath()
	}

	loaded, err := opts.Load(path)
	if err != nil {
		return err
	}

	loaded.Filename = img.opts.Filename
	img.opts = loaded

	return nil
}
