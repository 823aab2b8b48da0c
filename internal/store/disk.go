package store

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-bdsf/pkg/bdsf/model"
)

// DiskStore spills maps to one gob file per (image, name) pair under a
// base directory. Writes go through a temp file and a rename so a
// reader never observes a half-written map. Get decodes a fresh copy
// on every call; nothing is retained in memory between calls.
type DiskStore struct {
	lock sync.Mutex
	dir  string
}

// NewDiskStore creates the base directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create cache directory %s", dir)
	}

	return &DiskStore{dir: dir}, nil
}

// Dir returns the base directory maps are spilled under.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) path(imageID, name string) string {
	// Map names are pipeline identifiers, but image ids may carry
	// path separators when derived from file names.
	clean := strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(imageID)

	return filepath.Join(s.dir, fmt.Sprintf("%s.%s.map", clean, name))
}

func (s *DiskStore) Put(imageID, name string, m *model.FloatMap) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	final := s.path(imageID, name)
	tmp := final + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", tmp)
	}
	err = gob.NewEncoder(file).Encode(m)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)

		return errors.Wrapf(err, "unable to write map %s for image %s", name, imageID)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)

		return errors.Wrapf(err, "unable to commit map %s for image %s", name, imageID)
	}

	return nil
}

func (s *DiskStore) Get(imageID, name string) (*model.FloatMap, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	file, err := os.Open(s.path(imageID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrMapNotFound, "image %s map %s", imageID, name)
		}

		return nil, errors.Wrapf(err, "unable to open map %s for image %s", name, imageID)
	}
	defer file.Close()

	m := &model.FloatMap{}
	if err := gob.NewDecoder(file).Decode(m); err != nil {
		return nil, errors.Wrapf(err, "unable to decode map %s for image %s", name, imageID)
	}

	return m, nil
}

func (s *DiskStore) Delete(imageID, name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := os.Remove(s.path(imageID, name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "unable to delete map %s for image %s", name, imageID)
	}

	return nil
}

// Close removes every spilled map file. The base directory is left in
// place since it may be shared with other runs.
func (s *DiskStore) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.map"))
	if err != nil {
		return errors.Wrap(err, "unable to list cache directory")
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return errors.Wrapf(err, "unable to remove %s", match)
		}
	}

	return nil
}

var _ MapStore = (*DiskStore)(nil)
