// Package store provides a SQLite-backed cache for release lookups and
// remote dataset snapshots.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed TTL caching.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Entry is a cached value with its freshness window.
type Entry struct {
	Value     []byte
	Negative  bool
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Dir returns the platform-appropriate cache directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "wealthtax")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "wealthtax")
}

// DefaultPath returns the full path to the cache database.
func DefaultPath() string {
	return filepath.Join(Dir(), "cache.db")
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the live entry for key. Expired entries report ok=false.
func (c *Cache) Get(key string) (Entry, bool, error) {
	var (
		e                    Entry
		negative             int
		fetchedNs, expiresNs int64
	)
	err := c.db.QueryRow(
		"SELECT value, negative, fetched_at_ns, expires_at_ns FROM cache_entries WHERE key = ?", key,
	).Scan(&e.Value, &negative, &fetchedNs, &expiresNs)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	e.Negative = negative != 0
	e.FetchedAt = time.Unix(0, fetchedNs)
	e.ExpiresAt = time.Unix(0, expiresNs)
	if !c.now().Before(e.ExpiresAt) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Put stores value under key for ttl.
func (c *Cache) Put(key string, value []byte, ttl time.Duration) error {
	return c.put(key, value, false, ttl)
}

// PutNegative records a failed lookup under key for ttl so callers can
// skip retrying until it expires.
func (c *Cache) PutNegative(key string, ttl time.Duration) error {
	return c.put(key, nil, true, ttl)
}

func (c *Cache) put(key string, value []byte, negative bool, ttl time.Duration) error {
	now := c.now()
	neg := 0
	if negative {
		neg = 1
	}
	_, err := c.db.Exec(`INSERT OR REPLACE INTO cache_entries
		(key, value, negative, fetched_at_ns, expires_at_ns)
		VALUES (?, ?, ?, ?, ?)`,
		key, value, neg, now.UnixNano(), now.Add(ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

// Delete removes a cache entry.
func (c *Cache) Delete(key string) error {
	_, err := c.db.Exec("DELETE FROM cache_entries WHERE key = ?", key)
	return err
}

// Purge removes expired entries and returns how many were dropped.
func (c *Cache) Purge() (int64, error) {
	res, err := c.db.Exec("DELETE FROM cache_entries WHERE expires_at_ns <= ?", c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

// SaveSnapshot keeps the last good body fetched from a remote dataset source.
func (c *Cache) SaveSnapshot(source string, body []byte) error {
	_, err := c.db.Exec(`INSERT OR REPLACE INTO dataset_snapshots (source, body, fetched_at_ns)
		VALUES (?, ?, ?)`, source, body, c.now().UnixNano())
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Snapshot returns the last good body for source, if any.
func (c *Cache) Snapshot(source string) ([]byte, time.Time, bool, error) {
	var (
		body      []byte
		fetchedNs int64
	)
	err := c.db.QueryRow(
		"SELECT body, fetched_at_ns FROM dataset_snapshots WHERE source = ?", source,
	).Scan(&body, &fetchedNs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("reading snapshot: %w", err)
	}
	return body, time.Unix(0, fetchedNs), true, nil
}

// Counts returns the number of cache entries and dataset snapshots.
func (c *Cache) Counts() (entries, snapshots int, err error) {
	if err = c.db.QueryRow("SELECT COUNT(*) FROM cache_entries").Scan(&entries); err != nil {
		return 0, 0, err
	}
	err = c.db.QueryRow("SELECT COUNT(*) FROM dataset_snapshots").Scan(&snapshots)
	return entries, snapshots, err
}
