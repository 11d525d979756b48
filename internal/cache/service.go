package cache

import (
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/pable/go-nhl-metrics/internal/telemetry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultSessionTTL bounds how long a value copied up from the durable tier
// stays in the session tier when the durable entry's expiry is unknown.
const DefaultSessionTTL = time.Hour

type expiringTier interface {
	GetWithExpiry(key string) ([]byte, time.Time, bool)
}

// Service pairs a session tier with a durable one. Either may be nil; a
// service with neither caches nothing. It is safe for concurrent use when
// its tiers are.
type Service struct {
	session    Tier
	durable    Tier
	sessionTTL time.Duration
	now        Clock
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(d time.Duration) ServiceOption { return func(s *Service) { s.sessionTTL = d } }

// WithServiceClock sets the clock used to compute the remaining lifetime of
// entries copied into the session tier.
func WithServiceClock(c Clock) ServiceOption { return func(s *Service) { s.now = c } }

// NewService builds a tiered cache.
func NewService(session, durable Tier, opts ...ServiceOption) *Service {
	s := &Service{session: session, durable: durable, sessionTTL: DefaultSessionTTL, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Session returns the session tier, possibly nil.
func (s *Service) Session() Tier { return s.session }

// Durable returns the durable tier, possibly nil.
func (s *Service) Durable() Tier { return s.durable }

// Load reads key. The durable tier is consulted first and a hit is copied
// into the session tier for the rest of its lifetime. When the durable tier
// misses, the session tier is tried.
func (s *Service) Load(key string) ([]byte, bool) {
	if s.durable != nil {
		var (
			v   []byte
			ok  bool
			ttl = s.sessionTTL
		)
		if et, isExp := s.durable.(expiringTier); isExp {
			var exp time.Time
			v, exp, ok = et.GetWithExpiry(key)
			if rem := exp.Sub(s.now()); ok && rem < ttl {
				ttl = rem
			}
		} else {
			v, ok = s.durable.Get(key)
		}
		if ok {
			if s.session != nil && ttl > 0 {
				s.session.Set(key, v, ttl)
			}
			return v, true
		}
	}
	if s.session != nil {
		return s.session.Get(key)
	}
	return nil, false
}

// Store writes value under key to both tiers with the given lifetime.
func (s *Service) Store(key string, value []byte, ttl time.Duration) {
	if s.durable != nil {
		s.durable.Set(key, value, ttl)
	}
	if s.session != nil {
		s.session.Set(key, value, min(ttl, s.sessionTTL))
	}
}

// Invalidate removes key from both tiers.
func (s *Service) Invalidate(key string) {
	if s.durable != nil {
		s.durable.Remove(key)
	}
	if s.session != nil {
		s.session.Remove(key)
	}
}

// Clear empties both tiers.
func (s *Service) Clear() {
	if s.durable != nil {
		s.durable.Clear()
	}
	if s.session != nil {
		s.session.Clear()
	}
}

// Keys lists the live keys starting with prefix across every enumerable
// tier, sorted and de-duplicated.
func (s *Service) Keys(prefix string) []string {
	seen := make(map[string]struct{})
	for _, t := range []Tier{s.durable, s.session} {
		e, ok := t.(Enumerable)
		if !ok {
			continue
		}
		for _, k := range e.Keys(prefix) {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// GetJSON loads key and decodes it into a T. An undecodable entry is
// invalidated and reported as a miss.
func GetJSON[T any](s *Service, key string) (T, bool) {
	var v T
	raw, ok := s.Load(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		telemetry.L().Warn("dropping undecodable cache entry", "key", key, "err", err)
		s.Invalidate(key)
		var zero T
		return zero, false
	}
	return v, true
}

// SetJSON encodes v and stores it under key.
func SetJSON[T any](s *Service, key string, v T, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Store(key, raw, ttl)
	return nil
}
