// Package types defines the entity shapes, the keyed Store interface, and the
// standard error values shared by the entry composer, its exporters and the
// upload pipeline.
//
// A reason (page) owns a catalog, a list of sequence paths, and one persisted
// Block list per sequence. Rows inside a Block carry the operator's output
// values; the identifier for each row is derived, never stored.
package types
