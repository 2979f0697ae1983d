// Package memory provides an in-memory types.Store. It is used by tests and
// by the "memory" backend for throwaway sessions.
package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/englishaccelerators/language-creator/pkg/types"
)

// Store keeps JSON-encoded values in a map so that readers never share
// memory with writers.
type Store struct {
	mu       sync.RWMutex
	attached bool
	records  map[string][]byte
}

// NewStore returns an attached, empty store.
func NewStore() *Store {
	return &Store{attached: true, records: map[string][]byte{}}
}

// Attach marks the store attached. Any prior content is kept.
func (s *Store) Attach(config types.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return types.ErrAlreadyAttached
	}
	if s.records == nil {
		s.records = map[string][]byte{}
	}
	s.attached = true
	return nil
}

func (s *Store) Detach() error {
	s.mu.Lock()
	s.attached = false
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(key string, dst any) (bool, error) {
	if key == "" {
		return false, types.ErrInvalidKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return false, types.ErrStoreDetached
	}
	data, ok := s.records[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (s *Store) Set(key string, v any) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ErrStoreDetached
	}
	s.records[key] = data
	return nil
}

func (s *Store) Delete(key string) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ErrStoreDetached
	}
	delete(s.records, key)
	return nil
}

func (s *Store) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	var keys []string
	for k := range s.records {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
