package cache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pable/go-nhl-metrics/internal/telemetry"
)

type memEntry struct {
	value     []byte
	createdAt time.Time
	expiresAt time.Time
}

// Memory is the session tier: entries live as long as the process.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memEntry
	maxEntries int
	now        Clock
}

// MemoryOption configures a Memory tier.
type MemoryOption func(*Memory)

// WithMaxEntries caps the tier. When full, the entry closest to expiry is
// evicted to make room. Zero means unbounded.
func WithMaxEntries(n int) MemoryOption { return func(m *Memory) { m.maxEntries = n } }

// WithClock replaces time.Now.
func WithClock(c Clock) MemoryOption { return func(m *Memory) { m.now = c } }

// NewMemory returns an empty session tier.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{entries: make(map[string]memEntry), now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

const tierSession = "session"

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		telemetry.CacheMisses.WithLabelValues(tierSession).Inc()
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		telemetry.CacheMisses.WithLabelValues(tierSession).Inc()
		m.mu.Lock()
		// re-check: a concurrent Set may have refreshed the key
		if cur, ok := m.entries[key]; ok && m.now().After(cur.expiresAt) {
			delete(m.entries, key)
			telemetry.CacheEvictions.WithLabelValues(tierSession).Inc()
		}
		m.mu.Unlock()
		return nil, false
	}
	telemetry.CacheHits.WithLabelValues(tierSession).Inc()
	return e.value, true
}

func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictOneLocked(now)
	}
	m.entries[key] = memEntry{value: value, createdAt: now, expiresAt: now.Add(ttl)}
}

// evictOneLocked drops an expired entry if there is one, else the entry
// that expires soonest.
func (m *Memory) evictOneLocked(now time.Time) {
	var (
		victim string
		soon   time.Time
	)
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			victim = k
			break
		}
		if victim == "" || e.expiresAt.Before(soon) {
			victim, soon = k, e.expiresAt
		}
	}
	if victim != "" {
		delete(m.entries, victim)
		telemetry.CacheEvictions.WithLabelValues(tierSession).Inc()
	}
}

func (m *Memory) Remove(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]memEntry)
	m.mu.Unlock()
}

// Keys lists unexpired keys starting with prefix, sorted.
func (m *Memory) Keys(prefix string) []string {
	now := m.now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k, e := range m.entries {
		if strings.HasPrefix(k, prefix) && !now.After(e.expiresAt) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Len is the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep evicts every expired entry and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
			n++
		}
	}
	if n > 0 {
		telemetry.CacheEvictions.WithLabelValues(tierSession).Add(float64(n))
	}
	return n
}
