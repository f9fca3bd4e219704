// Package photocache keeps downloaded photo binaries in a local SQLite file.
// Photos never change once uploaded, so the filename is a stable key and
// entries are only ever evicted by size.
package photocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS photos (
	filename   TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	size       INTEGER NOT NULL,
	stored_at  INTEGER NOT NULL,
	used_at    INTEGER NOT NULL
)`

// DefaultMaxBytes bounds the cache when no limit is configured.
const DefaultMaxBytes = 256 << 20

// Cache is a size-bounded blob cache. It is safe for concurrent use.
type Cache struct {
	db       *sql.DB
	maxBytes int64
	now      func() time.Time
}

// Open opens or creates the cache at path. maxBytes <= 0 uses
// DefaultMaxBytes.
func Open(path string, maxBytes int64) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// One connection keeps :memory: databases coherent and avoids
	// SQLITE_BUSY between our own writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Cache{db: db, maxBytes: maxBytes, now: time.Now}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached bytes for filename. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, filename string) (data []byte, ok bool, err error) {
	row := c.db.QueryRowContext(ctx, `SELECT data FROM photos WHERE filename = ?`, filename)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cached photo: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `UPDATE photos SET used_at = ? WHERE filename = ?`, c.now().UnixNano(), filename); err != nil {
		return nil, false, fmt.Errorf("touch cached photo: %w", err)
	}
	return data, true, nil
}

// Put stores data under filename and evicts least recently used entries
// until the cache fits its limit again.
func (c *Cache) Put(ctx context.Context, filename string, data []byte) error {
	if int64(len(data)) > c.maxBytes {
		return nil
	}
	ts := c.now().UnixNano()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO photos (filename, data, size, stored_at, used_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET data = excluded.data, size = excluded.size, used_at = excluded.used_at`,
		filename, data, len(data), ts, ts); err != nil {
		return fmt.Errorf("store photo: %w", err)
	}
	if err := evict(ctx, tx, c.maxBytes); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func evict(ctx context.Context, tx *sql.Tx, maxBytes int64) error {
	var total int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM photos`).Scan(&total); err != nil {
		return fmt.Errorf("measure cache: %w", err)
	}
	for total > maxBytes {
		var name string
		var size int64
		err := tx.QueryRowContext(ctx, `SELECT filename, size FROM photos ORDER BY used_at ASC LIMIT 1`).Scan(&name, &size)
		if err != nil {
			return fmt.Errorf("pick eviction: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM photos WHERE filename = ?`, name); err != nil {
			return fmt.Errorf("evict %s: %w", name, err)
		}
		total -= size
	}
	return nil
}

// Stats reports the number of entries and bytes held.
func (c *Cache) Stats(ctx context.Context) (entries int, bytes int64, err error) {
	row := c.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(size), 0) FROM photos`)
	if err := row.Scan(&entries, &bytes); err != nil {
		return 0, 0, fmt.Errorf("cache stats: %w", err)
	}
	return entries, bytes, nil
}
