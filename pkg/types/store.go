package types

import "errors"

// Store is a keyed read/write store for JSON-serializable values. Each key is
// an independent document; there is no atomicity across keys.
type Store interface {
	// Attach connects the Store to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, every other operation returns ErrStoreDetached.
	Detach() error

	// Get decodes the value stored under key into dst. It reports false with
	// a nil error when the key is absent.
	Get(key string, dst any) (bool, error)

	// Set replaces the value stored under key with v.
	Set(key string, v any) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Keys lists stored keys with the given prefix in ascending order.
	Keys(prefix string) ([]string, error)
}

// Store lifecycle and access errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrInvalidKey      = errors.New("invalid key")
	ErrNotFound        = errors.New("entity not found")
)

// Engine errors.
var (
	ErrSequenceNotFound = errors.New("sequence not found")
	ErrBlockNotFound    = errors.New("block not found")
	ErrRowNotFound      = errors.New("row not found")
	ErrTokenIndex       = errors.New("token index out of range")
)
