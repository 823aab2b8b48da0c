package opts

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

var (
	ErrSaveFileNotFound = errors.New("parameter save file not found")
	ErrInvalidSaveFile  = errors.New("not a valid parameter save file")
)

// SaveFileSuffix is appended to the image filename to build the
// default parameter save path.
const SaveFileSuffix = ".pybdsm.sav"

// DefaultSavePath derives the save-file path from the filename option.
func (o *Opts) DefaultSavePath() string {
	return o.Filename + SaveFileSuffix
}

// Save writes the full option set to path as yaml. An empty path means
// the default save path.
func (o *Opts) Save(path string) error {
	if path == "" {
		path = o.DefaultSavePath()
	}

	b, err := yaml.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "unable to marshal options")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "unable to write %s", path)
	}

	return nil
}

// Load reads an option set from a yaml save file. The returned set is
// fully validated; the caller's options are never touched, so a failed
// load leaves the image configuration exactly as it was.
func Load(path string) (*Opts, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrSaveFileNotFound, path)
		}

		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	loaded := New()
	if err := yaml.UnmarshalStrict(b, loaded); err != nil {
		return nil, errors.Wrapf(ErrInvalidSaveFile, "%s: %v", path, err)
	}
	if err := loaded.Validate(); err != nil {
		return nil, errors.Wrapf(ErrInvalidSaveFile, "%s: %v", path, err)
	}

	return loaded, nil
}
