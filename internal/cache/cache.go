// Package cache is a two-tier expiring key/value store: a session tier held
// in process memory and a durable tier kept in the metrics database. Reads
// flow from durable to session, never the other way.
package cache

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-nhl-metrics/internal/model"
)

// Tier is one level of the cache. Payloads are opaque bytes. A Get that finds
// an expired entry reports a miss and evicts it.
type Tier interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Remove(key string)
	Clear()
}

// Enumerable is a tier that can list its live keys by prefix.
type Enumerable interface {
	Tier
	Keys(prefix string) []string
}

// Clock returns the current time. Tiers take one so expiry can be tested.
type Clock func() time.Time

// Kind is the source kind a per-game key is prefixed with.
type Kind string

const (
	KindGame   Kind = "game"   // normalized game
	KindPBP    Kind = "pbp"    // raw play-by-play payload
	KindShifts Kind = "shifts" // raw shift payload
)

// GameKey returns "<kind>_<gameID>".
func GameKey(kind Kind, gameID string) string { return string(kind) + "_" + gameID }

// GamePrefix returns the enumeration prefix for every key of kind.
func GamePrefix(kind Kind) string { return string(kind) + "_" }

// AggregateKey names a league snapshot for a season, sample threshold and
// game set. The set is digested in sorted order, so the order ids arrive in
// does not matter but any added or missing game yields another key.
func AggregateKey(season string, minGames int, gameIDs []string) string {
	return fmt.Sprintf("aggregate_%s_min%d_%s", season, minGames, GameSetDigest(gameIDs))
}

// GameSetDigest is a short stable name for a set of game ids.
func GameSetDigest(gameIDs []string) string {
	ids := slices.Clone(gameIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	sum := uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(ids, ",")))
	return sum.String()[:8]
}

// TrendKey names a player's rolling series for a window size.
func TrendKey(player model.PlayerID, window int) string {
	return fmt.Sprintf("trend_%d_w%d", player, window)
}
