package bdsf

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-bdsf/internal/store"
)

var (
	// ErrMapNotFound is returned by GetMap for a name never written.
	ErrMapNotFound = store.ErrMapNotFound
	// ErrNotProcessed is returned when a requested product does not
	// exist yet because the producing op has not run.
	ErrNotProcessed = errors.New("image has not been processed, run Process first")
)
