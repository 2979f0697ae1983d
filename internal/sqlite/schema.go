package sqlite

// Schema DDL. Every statement uses IF NOT EXISTS so Attach can run it on an
// existing database file.
const (
	createKV = `CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createTextEntries = `CREATE TABLE IF NOT EXISTS text_entries (
    identifiercode TEXT PRIMARY KEY,
    output_value TEXT NOT NULL,
    status TEXT NOT NULL,
    language TEXT NOT NULL,
    tenant TEXT,
    reason TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxTextEntriesReason = `CREATE INDEX IF NOT EXISTS idx_text_entries_reason ON text_entries(reason);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createKV,
	createTextEntries,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxTextEntriesReason,
}
