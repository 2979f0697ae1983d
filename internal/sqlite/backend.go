// Package sqlite implements the SQLite storage backend: a keyed document
// store for composer state and the text_entries table that the demo upsert
// server writes to.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/englishaccelerators/language-creator/pkg/types"
)

// DBFileName is the database file created inside Config.DataDir.
const DBFileName = "entryface.db"

// Backend implements types.Store using SQLite. Values are stored as JSON
// text, one row per key.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens (or creates) the database in DataDir, enables WAL mode and a
// busy timeout, and applies the schema.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// SQLite has a single writer; one connection keeps the PRAGMAs in effect
	// for every statement.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	glog.V(1).Infof("[sqlite]attached %s\n", dbPath)
	return nil
}

// Detach closes the SQLite connection. After Detach, all operations return
// ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	glog.V(1).Infof("[sqlite]detached\n")
	return nil
}

// Get decodes the JSON value stored under key into dst.
func (b *Backend) Get(key string, dst any) (bool, error) {
	if key == "" {
		return false, types.ErrInvalidKey
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return false, types.ErrStoreDetached
	}

	var value string
	err := b.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// Set replaces the value stored under key. The document is written whole.
func (b *Backend) Set(key string, v any) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	_, err = b.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Absent keys are not an error.
func (b *Backend) Delete(key string) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if _, err := b.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Keys lists keys that start with prefix, in ascending order.
func (b *Backend) Keys(prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	// LIKE would treat % and _ in keys as wildcards; compare the prefix
	// with substr instead.
	rows, err := b.db.Query(
		"SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key", len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// TextEntry is one row of the text_entries table.
type TextEntry struct {
	IdentifierCode string  `json:"identifiercode"`
	OutputValue    string  `json:"output_value"`
	Status         string  `json:"status"`
	Language       string  `json:"language"`
	Tenant         *string `json:"tenant"`
	Reason         string  `json:"reason"`
	UpdatedAt      string  `json:"updatedAt"`
}

// UpsertText writes rows into text_entries keyed by identifiercode in one
// transaction. Rows without an identifiercode are skipped. It returns the
// number of rows saved.
func (b *Backend) UpsertText(ctx context.Context, req types.UpsertRequest) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return 0, types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO text_entries (identifiercode, output_value, status, language, tenant, reason, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(identifiercode) DO UPDATE SET
             output_value = excluded.output_value,
             status = excluded.status,
             language = excluded.language,
             tenant = excluded.tenant,
             reason = excluded.reason,
             updated_at = excluded.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	saved := 0
	for _, r := range req.Rows {
		if strings.TrimSpace(r.IdentifierCode) == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, r.IdentifierCode, r.OutputValue, r.Status,
			req.Language, req.Tenant, req.Reason, now); err != nil {
			return 0, fmt.Errorf("upsert %q: %w", r.IdentifierCode, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return saved, nil
}

// GetText returns the text entry for identifiercode.
// Returns ErrNotFound if no entry exists.
func (b *Backend) GetText(ctx context.Context, identifierCode string) (TextEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return TextEntry{}, types.ErrStoreDetached
	}

	var e TextEntry
	var tenant sql.NullString
	err := b.db.QueryRowContext(ctx,
		`SELECT identifiercode, output_value, status, language, tenant, reason, updated_at
         FROM text_entries WHERE identifiercode = ?`, identifierCode).
		Scan(&e.IdentifierCode, &e.OutputValue, &e.Status, &e.Language, &tenant, &e.Reason, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return TextEntry{}, types.ErrNotFound
	}
	if err != nil {
		return TextEntry{}, fmt.Errorf("scanning text entry: %w", err)
	}
	if tenant.Valid {
		e.Tenant = &tenant.String
	}
	return e, nil
}

// CountText returns the number of rows in text_entries.
func (b *Backend) CountText(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrStoreDetached
	}
	var n int
	if err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM text_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("count text entries: %w", err)
	}
	return n, nil
}
