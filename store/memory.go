package store

import (
	"context"
	"sync"

	"github.com/pthm-cable/shoal/neural"
)

// MemoryStore is a process-local Store. Weights are kept encoded so callers
// never share slices with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	weights     map[string][]byte
	runs        map[string]Run
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.weights = make(map[string][]byte)
	s.runs = make(map[string]Run)
	return nil
}

func (s *MemoryStore) SaveWeights(_ context.Context, name string, w neural.Weights) error {
	payload, err := EncodeWeights(w)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.weights[name] = payload
	return nil
}

func (s *MemoryStore) LoadWeights(_ context.Context, name string) (neural.Weights, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return neural.Weights{}, false, ErrNotInitialized
	}

	payload, ok := s.weights[name]
	if !ok {
		return neural.Weights{}, false, nil
	}
	w, err := DecodeWeights(payload)
	if err != nil {
		return neural.Weights{}, false, err
	}
	return w, true, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return Run{}, false, ErrNotInitialized
	}
	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
