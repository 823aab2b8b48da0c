package bdsf

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-bdsf/internal/store"
	"github.com/askiada/go-bdsf/pkg/bdsf/fits"
	"github.com/askiada/go-bdsf/pkg/bdsf/measure"
	"github.com/askiada/go-bdsf/pkg/bdsf/model"
	"github.com/askiada/go-bdsf/pkg/bdsf/opts"
)

// Canonical map names. Ops may add further products under their own
// names; these are the ones with dedicated consumers.
const (
	MapCh0        = "ch0"
	MapCh0Q       = "ch0_Q"
	MapCh0U       = "ch0_U"
	MapCh0V       = "ch0_V"
	MapMean       = "mean"
	MapRMS        = "rms"
	MapIslandMask = "island_mask"
)

// Image is the primary data container: one instance per image being
// processed. Map products must be written through PutMap, never by
// touching internal state, so the caching invariant holds. An Image is
// single-goroutine; ops parallelise internally but the container
// itself is not shared across goroutines.
type Image struct {
	id       string
	opts     *opts.Opts
	prevOpts *opts.Opts

	Header *model.Header
	Cube   *fits.Cube // input data, one plane per channel/Stokes

	Mask   []bool // valid only when Masked is set
	Masked bool

	maps     map[string]*model.FloatMap
	doCache  bool
	mapStore store.MapStore

	completedOps []string

	// Products populated by ops as they run.
	ClippedMean float64
	ClippedRMS  float64
	NIslands    int
	Islands     []model.Island

	// ExtraParams carries ad-hoc values between custom ops.
	ExtraParams map[string]interface{}

	// LastRun holds per-op timings from the most recent Process call.
	LastRun measure.Measure
}

// NewImage builds a container around a copy of o. When o.DoCache is
// set, maps are spilled through a disk store under o.CacheDir (or the
// system temp directory when unset).
func NewImage(o *opts.Opts) (*Image, error) {
	if o == nil {
		o = opts.New()
	}

	img := &Image{
		id:          filepath.Base(o.Filename) + "-" + uuid.NewString(),
		opts:        o.Clone(),
		Header:      model.NewHeader(),
		maps:        make(map[string]*model.FloatMap),
		ExtraParams: make(map[string]interface{}),
	}

	if o.DoCache {
		dir := o.CacheDir
		if dir == "" {
			dir = filepath.Join(os.TempDir(), "bdsf-cache")
		}
		diskStore, err := store.NewDiskStore(dir)
		if err != nil {
			return nil, err
		}
		img.doCache = true
		img.mapStore = diskStore
	}

	return img, nil
}

// LoadFile reads a FITS image and builds a container for it.
func LoadFile(o *opts.Opts, path string) (*Image, error) {
	if o == nil {
		o = opts.New()
	}
	if path != "" {
		o = o.Clone()
		o.Filename = path
	}

	cube, err := fits.ReadFile(o.Filename)
	if err != nil {
		return nil, err
	}

	img, err := NewImage(o)
	if err != nil {
		return nil, err
	}
	img.Cube = cube
	img.Header = cube.Header

	return img, nil
}

// ID returns the container identity used to key spilled maps.
func (img *Image) ID() string { return img.id }

// Opts returns the live option set.
func (img *Image) Opts() *opts.Opts { return img.opts }

// PrevOpts returns the option set the last completed Process call
// executed under, or nil before the first run.
func (img *Image) PrevOpts() *opts.Opts { return img.prevOpts }

// GetMap returns the named map. With caching disabled this is a plain
// in-memory lookup; with caching enabled the map is materialised from
// the store on every call and not retained.
func (img *Image) GetMap(name string) (*model.FloatMap, error) {
	if img.doCache {
		return img.mapStore.Get(img.id, name)
	}

	m, ok := img.maps[name]
	if !ok {
		return nil, errors.Wrap(ErrMapNotFound, name)
	}

	return m, nil
}

// PutMap stores the named map, replacing any previous value. With
// caching enabled the data is persisted first and the in-memory entry
// is then set from a fresh read, so it always reflects what the store
// round-trips rather than the caller's slice.
func (img *Image) PutMap(name string, m *model.FloatMap) error {
	if !img.doCache {
		img.maps[name] = m

		return nil
	}

	if err := img.mapStore.Put(img.id, name, m); err != nil {
		return err
	}
	stored, err := img.GetMap(name)
	if err != nil {
		return err
	}
	img.maps[name] = stored

	return nil
}

// CompletedOps returns the ordered list of ops already run.
func (img *Image) CompletedOps() []string {
	out := make([]string, len(img.completedOps))
	copy(out, img.completedOps)

	return out
}

// HasCompleted reports whether the named op already ran.
func (img *Image) HasCompleted(name string) bool {
	for _, n := range img.completedOps {
		if n == name {
			return true
		}
	}

	return false
}

// MarkCompleted appends name to the completed-op list.
func (img *Image) MarkCompleted(name string) {
	if !img.HasCompleted(name) {
		img.completedOps = append(img.completedOps, name)
	}
}

func (img *Image) resetCompleted() {
	img.completedOps = img.completedOps[:0]
}

// Handoff extracts the narrow state subset transferred to worker
// processes. Maps and the full option set intentionally stay behind.
func (img *Image) Handoff() model.Handoff {
	return model.Handoff{
		ThreshPix:   img.opts.ThreshPix,
		MinPixIsl:   img.opts.MinPixIsl,
		ClippedMean: img.ClippedMean,
	}
}

// ApplyHandoff installs transferred state into a receiving container.
func (img *Image) ApplyHandoff(h model.Handoff) {
	img.opts.ThreshPix = h.ThreshPix
	img.opts.MinPixIsl = h.MinPixIsl
	img.ClippedMean = h.ClippedMean
}

// Close releases any spilled maps.
func (img *Image) Close() error {
	if img.mapStore == nil {
		return nil
	}

	return img.mapStore.Close()
}

// masked reports whether the pixel at row-major index i is excluded.
func (img *Image) masked(i int) bool {
	return img.Masked && i < len(img.Mask) && img.Mask[i]
}
