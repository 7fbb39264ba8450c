package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cache_entries (
    key                  TEXT PRIMARY KEY,
    value                BLOB,
    negative             INTEGER NOT NULL DEFAULT 0,
    fetched_at_ns        INTEGER NOT NULL,
    expires_at_ns        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS dataset_snapshots (
    source               TEXT PRIMARY KEY,
    body                 BLOB NOT NULL,
    fetched_at_ns        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_expires ON cache_entries(expires_at_ns);
`
