package bdsf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-bdsf/internal/store"
	"github.com/askiada/go-bdsf/pkg/bdsf/model"
	"github.com/askiada/go-bdsf/pkg/bdsf/opts"
)

// normalizingStore rounds every stored value to the nearest integer,
// standing in for a backend whose round trip is not the identity.
type normalizingStore struct {
	inner store.MapStore
}

func (s *normalizingStore) Put(imageID, name string, m *model.FloatMap) error {
	normalized := m.Clone()
	for i, v := range normalized.Data {
		normalized.Data[i] = float32(int(v + 0.5))
	}

	return s.inner.Put(imageID, name, normalized)
}

func (s *normalizingStore) Get(imageID, name string) (*model.FloatMap, error) {
	return s.inner.Get(imageID, name)
}

func (s *normalizingStore) Delete(imageID, name string) error {
	return s.inner.Delete(imageID, name)
}

func (s *normalizingStore) Close() error { return s.inner.Close() }

func TestPutMapReflectsStoreNormalization(t *testing.T) {
	t.Parallel()

	img, err := NewImage(opts.New())
	require.NoError(t, err)
	img.doCache = true
	img.mapStore = &normalizingStore{inner: store.NewMemoryStore()}

	raw := model.NewFloatMap(2, 2)
	raw.Data = []float32{0.2, 0.7, 1.2, 1.7}
	require.NoError(t, img.PutMap(MapCh0, raw))

	// the read path returns what the store round-trips, not the input
	got, err := img.GetMap(MapCh0)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 1, 2}, got.Data)

	// and the retained in-memory value matches the store, not the input
	assert.Equal(t, []float32{0, 1, 1, 2}, img.maps[MapCh0].Data)
}

func TestPutMapCachingDisabledKeepsIdentity(t *testing.T) {
	t.Parallel()

	img, err := NewImage(opts.New())
	require.NoError(t, err)

	m := model.NewFloatMap(3, 3)
	m.Set(1, 1, 42)
	require.NoError(t, img.PutMap(MapCh0, m))

	got, err := img.GetMap(MapCh0)
	require.NoError(t, err)
	assert.Same(t, m, got)
}
