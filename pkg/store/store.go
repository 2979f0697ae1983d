// Package store provides the public factory for keyed store backends while
// keeping implementation details internal.
package store

import (
	"github.com/englishaccelerators/language-creator/internal/memory"
	"github.com/englishaccelerators/language-creator/internal/sqlite"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

// New returns an unattached Store for the backend named in config.
// Returns ErrBackendUnknown (or ErrBackendEmpty) for an invalid name.
func New(config types.Config) (types.Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Backend {
	case types.BackendMemory:
		s := memory.NewStore()
		_ = s.Detach()
		return s, nil
	default:
		return sqlite.NewBackend(), nil
	}
}

// Open creates the backend named in config and attaches it. The caller must
// Detach the returned Store.
//
// Example:
//
//	s, err := store.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".entryface-db",
//	})
//	defer s.Detach()
func Open(config types.Config) (types.Store, error) {
	s, err := New(config)
	if err != nil {
		return nil, err
	}
	if err := s.Attach(config); err != nil {
		return nil, err
	}
	return s, nil
}
