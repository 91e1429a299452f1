package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryRecordStore is an in-process RecordStore for tests and local runs.
type MemoryRecordStore struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{docs: make(map[string]map[string][]byte)}
}

func (s *MemoryRecordStore) Get(_ context.Context, kind, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

func (s *MemoryRecordStore) Put(_ context.Context, kind, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[kind] == nil {
		s.docs[kind] = make(map[string][]byte)
	}
	stored := make([]byte, len(doc))
	copy(stored, doc)
	s.docs[kind][id] = stored
	return nil
}

func (s *MemoryRecordStore) Delete(_ context.Context, kind, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[kind][id]; !ok {
		return false, nil
	}
	delete(s.docs[kind], id)
	return true, nil
}

func (s *MemoryRecordStore) List(_ context.Context, kind string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs[kind]))
	for id := range s.docs[kind] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

var _ RecordStore = (*MemoryRecordStore)(nil)
