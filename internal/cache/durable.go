package cache

import (
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/go-nhl-metrics/internal/storage"
	"github.com/pable/go-nhl-metrics/internal/telemetry"
)

const tierDurable = "durable"

// Store is the persistence the durable tier needs. *storage.DB implements it.
type Store interface {
	GetCacheEntry(key string) (*storage.CacheEntry, error)
	PutCacheEntry(e storage.CacheEntry) error
	DeleteCacheEntry(key string) error
	DeleteExpiredCacheEntry(key string, now time.Time) (bool, error)
	ListCacheEntries(prefix string) ([]storage.CacheEntryInfo, error)
	ClearCache() error
	PurgeExpiredCache(now time.Time) (int64, error)
}

// Durable is the cross-session tier. Payloads are zstd-compressed at rest.
// Storage failures never surface: a failed read is a miss and a failed write
// is logged and dropped.
type Durable struct {
	store Store
	enc   *zstd.Encoder
	dec   *zstd.Decoder
	now   Clock
}

// NewDurable returns a durable tier over store.
func NewDurable(store Store, now Clock) (*Durable, error) {
	if now == nil {
		now = time.Now
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Durable{store: store, enc: enc, dec: dec, now: now}, nil
}

// Close releases the codec resources.
func (d *Durable) Close() {
	d.enc.Close()
	d.dec.Close()
}

func (d *Durable) fail(op, key string, err error) {
	telemetry.CacheErrors.WithLabelValues(tierDurable, op).Inc()
	telemetry.L().Warn("durable cache unavailable", "op", op, "key", key, "err", err)
}

func (d *Durable) Get(key string) ([]byte, bool) {
	v, _, ok := d.GetWithExpiry(key)
	return v, ok
}

// GetWithExpiry is Get that also reports when the entry expires.
func (d *Durable) GetWithExpiry(key string) ([]byte, time.Time, bool) {
	e, err := d.store.GetCacheEntry(key)
	if err != nil {
		d.fail("get", key, err)
		telemetry.CacheMisses.WithLabelValues(tierDurable).Inc()
		return nil, time.Time{}, false
	}
	if e == nil {
		telemetry.CacheMisses.WithLabelValues(tierDurable).Inc()
		return nil, time.Time{}, false
	}
	if now := d.now(); now.After(e.ExpiresAt) {
		telemetry.CacheMisses.WithLabelValues(tierDurable).Inc()
		// a Set racing this read may have replaced the row already
		gone, err := d.store.DeleteExpiredCacheEntry(key, now)
		switch {
		case err != nil:
			d.fail("evict", key, err)
		case gone:
			telemetry.CacheEvictions.WithLabelValues(tierDurable).Inc()
		}
		return nil, time.Time{}, false
	}
	value, err := d.dec.DecodeAll(e.Payload, nil)
	if err != nil {
		// a corrupt row is as good as absent
		d.fail("decode", key, err)
		telemetry.CacheMisses.WithLabelValues(tierDurable).Inc()
		return nil, time.Time{}, false
	}
	telemetry.CacheHits.WithLabelValues(tierDurable).Inc()
	return value, e.ExpiresAt, true
}

func (d *Durable) Set(key string, value []byte, ttl time.Duration) {
	now := d.now()
	err := d.store.PutCacheEntry(storage.CacheEntry{
		Key:       key,
		Payload:   d.enc.EncodeAll(value, nil),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		d.fail("set", key, err)
	}
}

func (d *Durable) Remove(key string) {
	if err := d.store.DeleteCacheEntry(key); err != nil {
		d.fail("remove", key, err)
	}
}

func (d *Durable) Clear() {
	if err := d.store.ClearCache(); err != nil {
		d.fail("clear", "", err)
	}
}

// Keys lists unexpired keys starting with prefix, sorted. A storage failure
// yields no keys.
func (d *Durable) Keys(prefix string) []string {
	entries, err := d.Entries(prefix)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

// Entries describes unexpired entries starting with prefix.
func (d *Durable) Entries(prefix string) ([]storage.CacheEntryInfo, error) {
	all, err := d.store.ListCacheEntries(prefix)
	if err != nil {
		d.fail("keys", prefix, err)
		return nil, err
	}
	now := d.now()
	live := all[:0]
	for _, e := range all {
		if !now.After(e.ExpiresAt) {
			live = append(live, e)
		}
	}
	return live, nil
}

// Purge deletes every expired row and returns how many were removed.
func (d *Durable) Purge() (int64, error) {
	n, err := d.store.PurgeExpiredCache(d.now())
	if err != nil {
		d.fail("purge", "", err)
		return 0, err
	}
	telemetry.CacheEvictions.WithLabelValues(tierDurable).Add(float64(n))
	return n, nil
}
