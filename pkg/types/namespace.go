package types

import "strings"

// QueueKey is the fixed storage key of the local upload queue.
const QueueKey = "lf.upload.queue.v1"

// Namespace scopes storage keys to one reason (page) slug so that data for
// different pages never collides.
type Namespace string

// NewNamespace returns the namespace for slug. Blank slugs map to "default".
func NewNamespace(slug string) Namespace {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = "default"
	}
	return Namespace(slug)
}

// Slug returns the reason slug the namespace was built from.
func (n Namespace) Slug() string { return string(n) }

// Catalog is the key of the catalog item list.
func (n Namespace) Catalog() string { return "lf." + string(n) + ".catalog" }

// Sequences is the key of the sequence path list.
func (n Namespace) Sequences() string { return "lf." + string(n) + ".sequences" }

// EntryPrefix is the common prefix of every per-sequence Block list key.
func (n Namespace) EntryPrefix() string { return "lf." + string(n) + ".entry." }

// Entry is the key of the Block list persisted for seqKey.
func (n Namespace) Entry(seqKey string) string { return n.EntryPrefix() + seqKey }
