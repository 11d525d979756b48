package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pable/go-nhl-metrics/internal/aggregator"
	"github.com/pable/go-nhl-metrics/internal/cache"
	"github.com/pable/go-nhl-metrics/internal/pipeline"
	"github.com/pable/go-nhl-metrics/internal/source"
	"github.com/pable/go-nhl-metrics/internal/storage"
)

// app bundles the collaborators a command works with.
type app struct {
	db      *storage.DB
	durable *cache.Durable
	cache   *cache.Service
	agg     *aggregator.Aggregator
	runner  *pipeline.Runner
}

// openApp opens the store and builds the cache and pipeline on top of it.
// Without online the runner never touches the network.
func openApp(online bool) (*app, error) {
	if err := ensureDBDir(cfg.DB); err != nil {
		return nil, err
	}
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	durable, err := cache.NewDurable(db, nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	svc := cache.NewService(cache.NewMemory(), durable, cache.WithSessionTTL(cfg.SessionTTL))
	agg := aggregator.New(nil,
		aggregator.WithMinGames(cfg.MinGames),
		aggregator.WithHighDangerDistance(cfg.HighDangerDistance),
		aggregator.WithConcurrency(cfg.Concurrency),
	)

	var fetch pipeline.Fetcher
	if online {
		fetch = source.NewClient(
			source.WithBaseURL(cfg.SourceBaseURL),
			source.WithShiftsURL(cfg.SourceShiftsURL),
			source.WithTimeout(cfg.SourceTimeout),
			source.WithRate(cfg.SourceRate, 1),
		)
	}
	runner := pipeline.New(svc, fetch, agg, db, pipeline.Policy{
		GameTTL:      cfg.GameTTL,
		AggregateTTL: cfg.AggregateTTL,
		TrendTTL:     cfg.TrendTTL,
		Concurrency:  cfg.Concurrency,
	})
	return &app{db: db, durable: durable, cache: svc, agg: agg, runner: runner}, nil
}

func (a *app) Close() {
	a.durable.Close()
	a.db.Close()
}

// isFileDSN reports whether dsn names a SQLite file on disk.
func isFileDSN(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://")
}

func ensureDBDir(dsn string) error {
	if !isFileDSN(dsn) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	return nil
}

// seasonIDs resolves explicit ids, or the first count games of season.
func seasonIDs(args []string, season string, count int) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	return source.RegularSeasonGameIDs(season, count)
}
