// Package pipeline orchestrates a batch run: it loads games through the
// cache, fetching and normalizing what is missing, and serves league
// aggregates and player trends.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-nhl-metrics/internal/aggregator"
	"github.com/pable/go-nhl-metrics/internal/cache"
	"github.com/pable/go-nhl-metrics/internal/model"
	"github.com/pable/go-nhl-metrics/internal/normalize"
	"github.com/pable/go-nhl-metrics/internal/rolling"
	"github.com/pable/go-nhl-metrics/internal/telemetry"
)

var (
	// ErrSourceUnavailable wraps a failed fetch of a game's play-by-play.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformed wraps a payload that could not be normalized.
	ErrMalformed = errors.New("malformed payload")
	// ErrNoGames is returned when a pass has nothing to aggregate.
	ErrNoGames = errors.New("no games available")
)

// Fetcher supplies raw per-game payloads. *source.Client implements it.
type Fetcher interface {
	PlayByPlay(ctx context.Context, gameID string) ([]byte, error)
	Shifts(ctx context.Context, gameID string) ([]byte, error)
}

// Store persists game summaries and per-game player rows. *storage.DB
// implements it.
type Store interface {
	InsertGame(s model.GameSummary) error
	InsertPlayerGameMetrics(rows []model.GameMetrics) error
	GetPlayerSeries(playerID model.PlayerID) ([]model.GameMetrics, error)
}

// Policy holds the lifetimes and limits a Runner works with.
type Policy struct {
	GameTTL      time.Duration
	AggregateTTL time.Duration
	TrendTTL     time.Duration
	Concurrency  int
}

// DefaultPolicy returns the documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		GameTTL:      30 * 24 * time.Hour,
		AggregateTTL: 6 * time.Hour,
		TrendTTL:     24 * time.Hour,
		Concurrency:  4,
	}
}

// Runner owns one batch run's collaborators.
type Runner struct {
	cache  *cache.Service
	fetch  Fetcher
	agg    *aggregator.Aggregator
	store  Store
	policy Policy
	now    func() time.Time
}

// New builds a runner. fetch may be nil to work from the cache only; store
// may be nil to skip persistence.
func New(c *cache.Service, fetch Fetcher, agg *aggregator.Aggregator, store Store, p Policy) *Runner {
	if c == nil {
		c = cache.NewService(nil, nil)
	}
	if agg == nil {
		agg = aggregator.New(nil)
	}
	if p.Concurrency < 1 {
		p.Concurrency = 1
	}
	return &Runner{cache: c, fetch: fetch, agg: agg, store: store, policy: p, now: time.Now}
}

// LoadGame returns the normalized game, from the cache when possible.
// Otherwise the play-by-play is fetched and normalized, shifts are attached
// when some shot lacks an embedded roster, and the result is persisted and
// cached. A failed shift fetch is logged and the game kept for this call
// only: see loadGame.
func (r *Runner) LoadGame(ctx context.Context, gameID string) (*model.Game, error) {
	g, _, err := r.loadGame(ctx, gameID)
	return g, err
}

// loadGame is LoadGame that also reports whether the game is complete. A game
// that needed shifts it could not get credits nobody on the shots without a
// roster, so it is neither persisted nor cached and the next load fetches the
// shifts again.
func (r *Runner) loadGame(ctx context.Context, gameID string) (*model.Game, bool, error) {
	key := cache.GameKey(cache.KindGame, gameID)
	if g, ok := cache.GetJSON[model.Game](r.cache, key); ok {
		return &g, true, nil
	}

	raw, err := r.raw(ctx, cache.KindPBP, gameID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	g, err := normalize.Normalize(normalize.NewPayload(raw))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if g.NeedsShifts() {
		shifts, err := r.raw(ctx, cache.KindShifts, gameID)
		if err != nil {
			telemetry.L().Warn("shifts unavailable, game kept uncached", "game", gameID, "err", err)
			return g, false, nil
		}
		normalize.WithShifts(g, shifts)
	}

	r.persist(g)
	if err := cache.SetJSON(r.cache, key, g, r.policy.GameTTL); err != nil {
		telemetry.L().Warn("cache game", "game", g.ID, "err", err)
	}
	return g, true, nil
}

// raw returns a raw payload of kind for gameID, caching fetched bytes.
func (r *Runner) raw(ctx context.Context, kind cache.Kind, gameID string) ([]byte, error) {
	key := cache.GameKey(kind, gameID)
	if b, ok := r.cache.Load(key); ok {
		return b, nil
	}
	if r.fetch == nil {
		return nil, errors.New("no fetcher configured")
	}
	var (
		b   []byte
		err error
	)
	switch kind {
	case cache.KindShifts:
		b, err = r.fetch.Shifts(ctx, gameID)
	default:
		b, err = r.fetch.PlayByPlay(ctx, gameID)
	}
	if err != nil {
		return nil, err
	}
	r.cache.Store(key, b, r.policy.GameTTL)
	return b, nil
}

// persist writes the game and its per-player rows, and drops cached trends
// of every player in it. Failures are logged: the store is an accelerator
// for trends, not a requirement for aggregation.
func (r *Runner) persist(g *model.Game) {
	if r.store == nil {
		return
	}
	if err := r.store.InsertGame(model.Summarize(g)); err != nil {
		telemetry.L().Warn("store game", "game", g.ID, "err", err)
		return
	}
	rows := r.agg.PerGameMetrics(g)
	if err := r.store.InsertPlayerGameMetrics(rows); err != nil {
		telemetry.L().Warn("store player metrics", "game", g.ID, "err", err)
		return
	}
	for _, row := range rows {
		for _, k := range r.cache.Keys(fmt.Sprintf("trend_%d_", row.PlayerID)) {
			r.cache.Invalidate(k)
		}
	}
}

// LoadGames loads ids with bounded concurrency. Games that fail are left out
// and recorded in the manifest; the returned games keep the order of ids.
func (r *Runner) LoadGames(ctx context.Context, ids []string) ([]*model.Game, model.Manifest, error) {
	games := make([]*model.Game, len(ids))
	results := make([]model.GameResult, len(ids))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.policy.Concurrency)
	for i, id := range ids {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			g, complete, err := r.loadGame(gctx, id)
			results[i] = loadResult(id, g, err)
			if err == nil {
				games[i] = g
				results[i].Partial = !complete
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, model.Manifest{}, err
	}
	// a fetch cut short by cancellation looks like an unavailable source
	if err := ctx.Err(); err != nil {
		return nil, model.Manifest{}, err
	}

	var (
		out []*model.Game
		m   model.Manifest
	)
	for i, res := range results {
		m.Add(res)
		if games[i] != nil {
			out = append(out, games[i])
			continue
		}
		telemetry.GamesSkipped.WithLabelValues(string(res.Reason)).Inc()
		telemetry.L().Warn("skipping game", "game", res.GameID, "reason", res.Reason, "detail", res.Detail)
	}
	return out, m, nil
}

func loadResult(id string, g *model.Game, err error) model.GameResult {
	res := model.GameResult{GameID: id}
	switch {
	case err == nil:
		res.Shots, res.Dropped = len(g.Shots), g.Skipped
	case errors.Is(err, ErrMalformed):
		res.Reason, res.Detail = model.SkipMalformed, err.Error()
	default:
		res.Reason, res.Detail = model.SkipSourceUnavailable, err.Error()
	}
	return res
}

// CachedGameIDs lists the ids of every normalized game in the cache.
func (r *Runner) CachedGameIDs() []string {
	prefix := cache.GamePrefix(cache.KindGame)
	keys := r.cache.Keys(prefix)
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, prefix)
	}
	return ids
}

// LeagueAggregate returns the finalized statistics of every player over ids.
// A cached snapshot for the season and threshold is served unless refresh is
// set. A fresh snapshot is cached only when no game was left out or loaded
// without its shifts for lack of data, so a transient outage never pins an
// incomplete result.
func (r *Runner) LeagueAggregate(ctx context.Context, season string, ids []string, refresh bool) (*model.AggregateSnapshot, error) {
	key := cache.AggregateKey(season, r.agg.MinGames(), ids)
	if !refresh {
		if snap, ok := cache.GetJSON[model.AggregateSnapshot](r.cache, key); ok {
			return &snap, nil
		}
	}

	games, loaded, err := r.LoadGames(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, ErrNoGames
	}
	inputs := make([]aggregator.Input, len(games))
	for i, g := range games {
		inputs[i] = aggregator.GameInput(g)
	}
	accs, folded, err := r.agg.Run(ctx, inputs)
	if err != nil {
		return nil, err
	}

	manifest := mergeManifests(ids, loaded, folded)
	manifest.RunID = uuid.NewString()
	snap := &model.AggregateSnapshot{
		RunID:     manifest.RunID,
		Season:    season,
		CreatedAt: r.now().UTC(),
		MinGames:  r.agg.MinGames(),
		Games:     len(manifest.Processed()),
		Players:   aggregator.Finalize(accs, r.agg.MinGames()),
		Manifest:  manifest,
	}

	complete := true
	for _, res := range manifest.Results {
		if res.Reason == model.SkipSourceUnavailable || res.Partial {
			complete = false
		}
	}
	if complete {
		if err := cache.SetJSON(r.cache, key, snap, r.policy.AggregateTTL); err != nil {
			telemetry.L().Warn("cache aggregate", "key", key, "err", err)
		}
	} else {
		telemetry.L().Info("aggregate left uncached: some games were unavailable or incomplete", "skipped", len(manifest.Skipped()))
	}
	return snap, nil
}

// mergeManifests orders results by ids, preferring the fold result of games
// that loaded.
func mergeManifests(ids []string, loaded, folded model.Manifest) model.Manifest {
	var m model.Manifest
	for _, id := range ids {
		if res, ok := folded.Lookup(id); ok {
			if l, ok := loaded.Lookup(id); ok {
				res.Partial = l.Partial
			}
			m.Add(res)
			continue
		}
		if res, ok := loaded.Lookup(id); ok {
			m.Add(res)
		}
	}
	return m
}

// PlayerTrend returns a player's rolling series over every stored game.
func (r *Runner) PlayerTrend(ctx context.Context, player model.PlayerID, window int) ([]model.RollingMetricsPoint, error) {
	if window < 1 {
		window = 1
	}
	key := cache.TrendKey(player, window)
	if pts, ok := cache.GetJSON[[]model.RollingMetricsPoint](r.cache, key); ok {
		return pts, nil
	}
	if r.store == nil {
		return nil, errors.New("player trend needs a store")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	series, err := r.store.GetPlayerSeries(player)
	if err != nil {
		return nil, fmt.Errorf("load series for %d: %w", player, err)
	}
	if len(series) == 0 {
		return nil, ErrNoGames
	}
	pts := rolling.Compute(series, window)
	if err := cache.SetJSON(r.cache, key, pts, r.policy.TrendTTL); err != nil {
		telemetry.L().Warn("cache trend", "key", key, "err", err)
	}
	return pts, nil
}
