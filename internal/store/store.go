// Package store provides the persistence layer behind the transparent
// map cache: named image maps keyed by owning image identity, held
// either in memory or spilled to disk.
package store

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-bdsf/pkg/bdsf/model"
)

var ErrMapNotFound = errors.New("map not found")

// MapStore persists named maps per image. Implementations must be
// stable for a given image id across the image's lifetime within a
// process. Errors from the backing medium propagate to the caller;
// there is no retry.
type MapStore interface {
	// Put stores m under (imageID, name), replacing any previous value.
	Put(imageID, name string, m *model.FloatMap) error
	// Get returns the map stored under (imageID, name), or
	// ErrMapNotFound when nothing was stored.
	Get(imageID, name string) (*model.FloatMap, error)
	// Delete removes the map stored under (imageID, name). Deleting a
	// missing map is not an error.
	Delete(imageID, name string) error
	// Close releases any resources held for all images.
	Close() error
}
