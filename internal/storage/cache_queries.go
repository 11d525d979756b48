package storage

import (
	"database/sql"
	"errors"
	"time"
)

// CacheEntry is one row of the durable cache.
type CacheEntry struct {
	Key       string
	Payload   []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CacheEntryInfo describes a cached row without its payload.
type CacheEntryInfo struct {
	Key       string
	Size      int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// GetCacheEntry returns the entry stored under key. Expiry is not checked
// here; the cache tier owns that policy.
func (db *DB) GetCacheEntry(key string) (*CacheEntry, error) {
	var (
		e                CacheEntry
		created, expires int64
	)
	err := db.queryRow(`SELECT key, payload, created_at, expires_at FROM cache_entries WHERE key = ?`, key).
		Scan(&e.Key, &e.Payload, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt, e.ExpiresAt = time.UnixMilli(created), time.UnixMilli(expires)
	return &e, nil
}

// PutCacheEntry upserts e.
func (db *DB) PutCacheEntry(e CacheEntry) error {
	_, err := db.exec(`
		INSERT INTO cache_entries(key, payload, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		e.Key, e.Payload, e.CreatedAt.UnixMilli(), e.ExpiresAt.UnixMilli())
	return err
}

// DeleteCacheEntry removes key if present.
func (db *DB) DeleteCacheEntry(key string) error {
	_, err := db.exec(`DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

// DeleteExpiredCacheEntry removes key only if it expired before now, so an
// entry rewritten since it was read survives. It reports whether a row was
// removed.
func (db *DB) DeleteExpiredCacheEntry(key string, now time.Time) (bool, error) {
	res, err := db.exec(`DELETE FROM cache_entries WHERE key = ? AND expires_at < ?`, key, now.UnixMilli())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListCacheEntries describes every entry whose key starts with prefix, in
// key order. The comparison is literal: "_" and "%" in prefix carry no
// pattern meaning.
func (db *DB) ListCacheEntries(prefix string) ([]CacheEntryInfo, error) {
	rows, err := db.query(`
		SELECT key, length(payload), created_at, expires_at FROM cache_entries
		WHERE substr(key, 1, ?) = ?
		ORDER BY key`, len(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CacheEntryInfo
	for rows.Next() {
		var (
			e                CacheEntryInfo
			created, expires int64
		)
		if err := rows.Scan(&e.Key, &e.Size, &created, &expires); err != nil {
			return nil, err
		}
		e.CreatedAt, e.ExpiresAt = time.UnixMilli(created), time.UnixMilli(expires)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClearCache deletes every cache entry.
func (db *DB) ClearCache() error {
	_, err := db.exec(`DELETE FROM cache_entries`)
	return err
}

// PurgeExpiredCache deletes entries that expired before now and returns how
// many were removed.
func (db *DB) PurgeExpiredCache(now time.Time) (int64, error) {
	res, err := db.exec(`DELETE FROM cache_entries WHERE expires_at < ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
