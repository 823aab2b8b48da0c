package store

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-bdsf/pkg/bdsf/model"
)

// MemoryStore keeps all maps in process memory. Maps are deep copied
// on both Put and Get so callers can keep mutating their own slices
// without corrupting the stored value.
type MemoryStore struct {
	lock sync.RWMutex

	// maps stores per-image named maps. For O(1) access the maps
	// themselves are stored in nested maps keyed by image id then name.
	maps map[string]map[string]*model.FloatMap
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		maps: make(map[string]map[string]*model.FloatMap),
	}
}

func (s *MemoryStore) Put(imageID, name string, m *model.FloatMap) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.maps[imageID]; !ok {
		s.maps[imageID] = make(map[string]*model.FloatMap)
	}
	s.maps[imageID][name] = m.Clone()

	return nil
}

func (s *MemoryStore) Get(imageID, name string) (*model.FloatMap, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	named, ok := s.maps[imageID]
	if !ok {
		return nil, errors.Wrapf(ErrMapNotFound, "image %s map %s", imageID, name)
	}
	m, ok := named[name]
	if !ok {
		return nil, errors.Wrapf(ErrMapNotFound, "image %s map %s", imageID, name)
	}

	return m.Clone(), nil
}

func (s *MemoryStore) Delete(imageID, name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if named, ok := s.maps[imageID]; ok {
		delete(named, name)
	}

	return nil
}

func (s *MemoryStore) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.maps = make(map[string]map[string]*model.FloatMap)

	return nil
}

var _ MapStore = (*MemoryStore)(nil)
