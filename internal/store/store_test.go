package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-bdsf/internal/store"
	"github.com/askiada/go-bdsf/pkg/bdsf/model"
)

func testMap(t *testing.T, fill float32) *model.FloatMap {
	t.Helper()

	m := model.NewFloatMap(4, 3)
	m.Fill(fill)
	m.Set(1, 2, fill*10)

	return m
}

func runStoreTests(t *testing.T, newStore func(t *testing.T) store.MapStore) {
	t.Helper()

	t.Run("round trip", func(t *testing.T) {
		s := newStore(t)
		want := testMap(t, 1.5)
		require.NoError(t, s.Put("img", "ch0", want))

		got, err := s.Get("img", "ch0")
		require.NoError(t, err)
		assert.True(t, want.Equal(got))
	})

	t.Run("missing map", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get("img", "never-written")
		assert.ErrorIs(t, err, store.ErrMapNotFound)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put("img", "ch0", testMap(t, 1)))
		want := testMap(t, 2)
		require.NoError(t, s.Put("img", "ch0", want))

		got, err := s.Get("img", "ch0")
		require.NoError(t, err)
		assert.True(t, want.Equal(got))
	})

	t.Run("images do not collide", func(t *testing.T) {
		s := newStore(t)
		first := testMap(t, 1)
		second := testMap(t, 2)
		require.NoError(t, s.Put("img-a", "ch0", first))
		require.NoError(t, s.Put("img-b", "ch0", second))

		got, err := s.Get("img-a", "ch0")
		require.NoError(t, err)
		assert.True(t, first.Equal(got))

		got, err = s.Get("img-b", "ch0")
		require.NoError(t, err)
		assert.True(t, second.Equal(got))
	})

	t.Run("caller mutation does not leak", func(t *testing.T) {
		s := newStore(t)
		m := testMap(t, 1)
		require.NoError(t, s.Put("img", "ch0", m))
		m.Set(0, 0, 99)

		got, err := s.Get("img", "ch0")
		require.NoError(t, err)
		assert.NotEqual(t, float32(99), got.At(0, 0))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put("img", "ch0", testMap(t, 1)))
		require.NoError(t, s.Delete("img", "ch0"))

		_, err := s.Get("img", "ch0")
		assert.ErrorIs(t, err, store.ErrMapNotFound)

		// deleting again is not an error
		require.NoError(t, s.Delete("img", "ch0"))
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	runStoreTests(t, func(t *testing.T) store.MapStore {
		t.Helper()

		return store.NewMemoryStore()
	})
}

func TestDiskStore(t *testing.T) {
	t.Parallel()

	runStoreTests(t, func(t *testing.T) store.MapStore {
		t.Helper()

		s, err := store.NewDiskStore(t.TempDir())
		require.NoError(t, err)

		return s
	})
}

func TestDiskStoreCloseRemovesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := store.NewDiskStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("img", "ch0", testMap(t, 1)))
	require.NoError(t, s.Close())

	_, err = s.Get("img", "ch0")
	assert.ErrorIs(t, err, store.ErrMapNotFound)
}

func TestDiskStoreImageIDWithSeparator(t *testing.T) {
	t.Parallel()

	s, err := store.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	want := testMap(t, 3)
	require.NoError(t, s.Put("obs/field1.fits", "rms", want))

	got, err := s.Get("obs/field1.fits", "rms")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}
