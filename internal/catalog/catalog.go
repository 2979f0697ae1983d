// Package catalog loads catalog and sequence-path definitions from TOML or
// JSON files and keeps them in a reason namespace of the store.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/englishaccelerators/language-creator/pkg/types"
)

// ErrUnknownFormat is returned for definition files that are neither TOML nor JSON.
var ErrUnknownFormat = errors.New("unknown definition file format")

// File is the on-disk shape of a definition file:
//
//	sequences = [["w", "e"]]
//
//	[[items]]
//	key = "w"
//	token = "W"
//	label = "Word"
type File struct {
	Items     []types.CatalogItem `json:"items" toml:"items"`
	Sequences [][]string          `json:"sequences" toml:"sequences"`
}

// Load reads a definition file. The format follows the file extension.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read definitions: %w", err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return File{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return File{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return File{}, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return f, f.Validate()
}

// Validate rejects items without keys and sequence paths that are empty.
// Paths may reference keys missing from Items; those resolve to the key.
func (f File) Validate() error {
	for i, it := range f.Items {
		if strings.TrimSpace(it.Key) == "" {
			return fmt.Errorf("item %d: %w", i, types.ErrInvalidKey)
		}
	}
	for i, p := range f.Sequences {
		if len(p) == 0 {
			return fmt.Errorf("sequence %d is empty", i)
		}
	}
	return nil
}

// Import persists the definition file under ns, replacing both the catalog
// and the sequence list.
func Import(s types.Store, ns types.Namespace, f File) error {
	if err := s.Set(ns.Catalog(), f.Items); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	if err := s.Set(ns.Sequences(), f.Sequences); err != nil {
		return fmt.Errorf("save sequences: %w", err)
	}
	return nil
}

// Read returns the catalog items and sequence paths stored under ns. Missing
// keys read as empty lists.
func Read(s types.Store, ns types.Namespace) (File, error) {
	var f File
	if _, err := s.Get(ns.Catalog(), &f.Items); err != nil {
		return File{}, fmt.Errorf("load catalog: %w", err)
	}
	if _, err := s.Get(ns.Sequences(), &f.Sequences); err != nil {
		return File{}, fmt.Errorf("load sequences: %w", err)
	}
	return f, nil
}

// Map is a types.Catalog backed by a key index.
type Map map[string]types.CatalogItem

// NewMap indexes items by key. Later duplicates win.
func NewMap(items []types.CatalogItem) Map {
	m := make(Map, len(items))
	for _, it := range items {
		m[it.Key] = it
	}
	return m
}

// Token returns the item's token, falling back to the key itself.
func (m Map) Token(key string) string {
	if it, ok := m[key]; ok && it.Token != "" {
		return it.Token
	}
	return key
}

// Label returns the item's human label, falling back to its token.
func (m Map) Label(key string) string {
	if it, ok := m[key]; ok && it.Label != "" {
		return it.Label
	}
	return m.Token(key)
}
