// Package opts holds the user-facing processing options: defaults,
// named overrides with type checking, validation, and yaml snapshots
// used for parameter save files.
package opts

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrUnknownOption = errors.New("unknown option")
	ErrBadOptionType = errors.New("bad option type")
)

// Opts controls the behaviour of every processing stage. One copy is
// taken per image at construction time so later edits to a shared Opts
// never leak into a running image.
type Opts struct {
	Filename       string  `yaml:"filename"`        // input image file
	ThreshPix      float64 `yaml:"thresh_pix"`      // source detection threshold, in sigma
	ThreshIsl      float64 `yaml:"thresh_isl"`      // island boundary threshold, in sigma
	MinPixIsl      int     `yaml:"minpix_isl"`      // minimum island size in pixels
	RMSBox         int     `yaml:"rms_box"`         // box size for the sliding rms/mean maps
	SigmaClip      float64 `yaml:"sigma_clip"`      // kappa for clipped statistics
	ClipIters      int     `yaml:"clip_iters"`      // clipping iterations
	CollapseMode   string  `yaml:"collapse_mode"`   // average or single
	PolarisationDo bool    `yaml:"polarisation_do"` // also collapse Stokes Q/U/V
	DoCache        bool    `yaml:"do_cache"`        // spill maps to disk
	CacheDir       string  `yaml:"cache_dir"`       // base directory for spilled maps
	Interactive    bool    `yaml:"interactive"`     // interactive shell error presentation
	ChainSVG       string  `yaml:"chain_svg"`       // if set, draw the op chain here after processing
}

// New returns the default option set.
func New() *Opts {
	return &Opts{
		ThreshPix:    5,
		ThreshIsl:    3,
		MinPixIsl:    6,
		RMSBox:       32,
		SigmaClip:    3,
		ClipIters:    5,
		CollapseMode: "average",
	}
}

// Clone returns a deep copy.
func (o *Opts) Clone() *Opts {
	out := *o

	return &out
}

// Set applies a single named override with type checking. Integer
// values are accepted for float options since override maps built from
// literals commonly carry untyped ints.
func (o *Opts) Set(name string, value interface{}) error {
	switch name {
	case "filename":
		return setString(&o.Filename, name, value)
	case "thresh_pix":
		return setFloat(&o.ThreshPix, name, value)
	case "thresh_isl":
		return setFloat(&o.ThreshIsl, name, value)
	case "minpix_isl":
		return setInt(&o.MinPixIsl, name, value)
	case "rms_box":
		return setInt(&o.RMSBox, name, value)
	case "sigma_clip":
		return setFloat(&o.SigmaClip, name, value)
	case "clip_iters":
		return setInt(&o.ClipIters, name, value)
	case "collapse_mode":
		return setString(&o.CollapseMode, name, value)
	case "polarisation_do":
		return setBool(&o.PolarisationDo, name, value)
	case "do_cache":
		return setBool(&o.DoCache, name, value)
	case "cache_dir":
		return setString(&o.CacheDir, name, value)
	case "interactive":
		return setBool(&o.Interactive, name, value)
	case "chain_svg":
		return setString(&o.ChainSVG, name, value)
	default:
		return errors.Wrap(ErrUnknownOption, name)
	}
}

// FromMap applies every override in kwargs, failing on the first
// unknown name or mistyped value. Names are applied in sorted order so
// failures are deterministic.
func (o *Opts) FromMap(kwargs map[string]interface{}) error {
	names := make([]string, 0, len(kwargs))
	for name := range kwargs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := o.Set(name, kwargs[name]); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks cross-field consistency.
func (o *Opts) Validate() error {
	if o.ThreshPix <= 0 {
		return errors.New("thresh_pix must be greater than 0")
	}
	if o.ThreshIsl <= 0 {
		return errors.New("thresh_isl must be greater than 0")
	}
	if o.ThreshIsl > o.ThreshPix {
		return errors.Errorf("thresh_isl (%g) must not exceed thresh_pix (%g)", o.ThreshIsl, o.ThreshPix)
	}
	if o.MinPixIsl < 1 {
		return errors.New("minpix_isl must be at least 1")
	}
	if o.RMSBox < 4 {
		return errors.New("rms_box must be at least 4")
	}
	if o.SigmaClip <= 0 {
		return errors.New("sigma_clip must be greater than 0")
	}
	if o.CollapseMode != "average" && o.CollapseMode != "single" {
		return errors.Errorf("no collapse mode named '%s'", o.CollapseMode)
	}

	return nil
}

// Diff returns the names of options whose values differ between o and
// other, sorted. A nil other means everything changed.
func (o *Opts) Diff(other *Opts) []string {
	if other == nil {
		return o.Names()
	}

	changed := []string{}
	for _, name := range o.Names() {
		if fmt.Sprint(o.get(name)) != fmt.Sprint(other.get(name)) {
			changed = append(changed, name)
		}
	}

	return changed
}

// Names lists every option name, sorted.
func (o *Opts) Names() []string {
	return []string{
		"cache_dir", "chain_svg", "clip_iters", "collapse_mode",
		"do_cache", "filename", "interactive", "minpix_isl",
		"polarisation_do", "rms_box", "sigma_clip", "thresh_isl",
		"thresh_pix",
	}
}

func (o *Opts) get(name string) interface{} {
	switch name {
	case "filename":
		return o.Filename
	case "thresh_pix":
		return o.ThreshPix
	case "thresh_isl":
		return o.ThreshIsl
	case "minpix_isl":
		return o.MinPixIsl
	case "rms_box":
		return o.RMSBox
	case "sigma_clip":
		return o.SigmaClip
	case "clip_iters":
		return o.ClipIters
	case "collapse_mode":
		return o.CollapseMode
	case "polarisation_do":
		return o.PolarisationDo
	case "do_cache":
		return o.DoCache
	case "cache_dir":
		return o.CacheDir
	case "interactive":
		return o.Interactive
	case "chain_svg":
		return o.ChainSVG
	default:
		return nil
	}
}

// List renders every option as "name = value" lines for display.
func (o *Opts) List() []string {
	lines := make([]string, 0, len(o.Names()))
	for _, name := range o.Names() {
		lines = append(lines, fmt.Sprintf("%-16s = %v", name, o.get(name)))
	}

	return lines
}

func setString(dst *string, name string, value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return errors.Wrapf(ErrBadOptionType, "%s expects a string, got %T", name, value)
	}
	*dst = s

	return nil
}

func setBool(dst *bool, name string, value interface{}) error {
	b, ok := value.(bool)
	if !ok {
		return errors.Wrapf(ErrBadOptionType, "%s expects a bool, got %T", name, value)
	}
	*dst = b

	return nil
}

func setInt(dst *int, name string, value interface{}) error {
	switch v := value.(type) {
	case int:
		*dst = v
	case int64:
		*dst = int(v)
	default:
		return errors.Wrapf(ErrBadOptionType, "%s expects an int, got %T", name, value)
	}

	return nil
}

func setFloat(dst *float64, name string, value interface{}) error {
	switch v := value.(type) {
	case float64:
		*dst = v
	case int:
		*dst = float64(v)
	default:
		return errors.Wrapf(ErrBadOptionType, "%s expects a float, got %T", name, value)
	}

	return nil
}
