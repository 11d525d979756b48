package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pable/go-nhl-metrics/internal/model"
	"github.com/pable/go-nhl-metrics/internal/pipeline"
	"github.com/pable/go-nhl-metrics/internal/report"
)

var (
	aggSeason   string
	aggCount    int
	aggMinGames int
	aggRefresh  bool
	aggCached   bool
	aggOffline  bool
	aggPlayer   int64
	aggTop      int
	aggSort     string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate [game-id...]",
	Short: "League-wide per-player metrics",
	Long: `Aggregates every player's on-ice and individual metrics over a set of games:
explicit ids, the first --count games of --season, or every cached game with
--cached. A snapshot is reused until it expires unless --refresh is given.

Examples:
  nhlmetrics aggregate --season 20232024 --count 200 --top 25
  nhlmetrics aggregate --cached --offline --sort xgf --min-games 10`,
	RunE: runAggregate,
}

func init() {
	f := aggregateCmd.Flags()
	f.StringVar(&aggSeason, "season", "", "season like 20232024 (default from config)")
	f.IntVar(&aggCount, "count", 0, "number of regular-season games (default from config)")
	f.IntVar(&aggMinGames, "min-games", 0, "minimum games played to be listed (default from config)")
	f.BoolVar(&aggRefresh, "refresh", false, "recompute even when a cached snapshot exists")
	f.BoolVar(&aggCached, "cached", false, "aggregate every cached game instead of a season range")
	f.BoolVar(&aggOffline, "offline", false, "never fetch; games missing from the cache are skipped")
	f.Int64Var(&aggPlayer, "player", 0, "highlight this player id")
	f.IntVar(&aggTop, "top", 0, "show only the first N rows")
	f.StringVar(&aggSort, "sort", "points", "points, cf, xgf, pdo or ixg")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	if aggMinGames > 0 {
		cfg.MinGames = aggMinGames
	}
	season := aggSeason
	if season == "" {
		season = cfg.Season
	}
	count := aggCount
	if count == 0 {
		count = cfg.SeasonGames
	}

	a, err := openApp(!aggOffline)
	if err != nil {
		return err
	}
	defer a.Close()

	var ids []string
	if aggCached {
		ids = a.runner.CachedGameIDs()
		sort.Strings(ids)
	} else if ids, err = seasonIDs(args, season, count); err != nil {
		return err
	}

	snap, err := a.runner.LeagueAggregate(cmd.Context(), season, ids, aggRefresh)
	if errors.Is(err, pipeline.ErrNoGames) {
		fmt.Fprintln(os.Stderr, "No games could be loaded. Run 'nhlmetrics ingest' first or drop --offline.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	players := sortStats(snap.Players, aggSort)
	if aggTop > 0 && len(players) > aggTop {
		players = players[:aggTop]
	}
	report.PrintSnapshotHeader(os.Stdout, snap)
	report.PrintPlayerStats(os.Stdout, players, model.PlayerID(aggPlayer))
	report.PrintManifest(os.Stdout, snap.Manifest)
	return nil
}

// sortStats returns a copy of stats ordered by the named column, best first,
// ties broken by player id.
func sortStats(stats []model.PlayerStats, by string) []model.PlayerStats {
	out := append([]model.PlayerStats(nil), stats...)
	key := func(s *model.PlayerStats) float64 {
		switch by {
		case "cf":
			return s.CFPct
		case "xgf":
			return s.XGFPct
		case "pdo":
			return s.PDO
		case "ixg":
			return s.IndividualXG
		default:
			return float64(s.Points())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := key(&out[i]), key(&out[j])
		if ki != kj {
			return ki > kj
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}
