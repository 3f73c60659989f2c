package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// sqliteBackend keeps every key as one JSON row.
type sqliteBackend struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

func newSQLite(path string) (*sqliteBackend, error) {
	if path == "" {
		path = "planner.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("store: create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create kv table: %w", err)
	}
	return &sqliteBackend{db: db, path: path}, nil
}

func (b *sqliteBackend) read(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM kv WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: select %s: %w", key, err)
	}
	return payload, true, nil
}

func (b *sqliteBackend) write(ctx context.Context, key string, data []byte) (retErr error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO kv(key,payload) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET payload=excluded.payload`, key, data); err != nil {
		return fmt.Errorf("store: upsert %s: %w", key, err)
	}
	return tx.Commit()
}

func (b *sqliteBackend) erase(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

func (b *sqliteBackend) keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("store: select keys: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// watch reports any write to the database file as an invalidation; rows
// cannot be told apart from the file system. Only the file's own directory
// is watched since it is often $HOME.
func (b *sqliteBackend) watch(ctx context.Context) (<-chan Event, error) {
	dir := filepath.Dir(b.path)
	name := filepath.Base(b.path)
	return watchDir(ctx, dir, false, func(path string) (Event, bool) {
		if strings.HasPrefix(filepath.Base(path), name) {
			return Event{Type: EventInvalidated}, true
		}
		return Event{}, false
	})
}

func (b *sqliteBackend) close() error {
	return b.db.Close()
}
