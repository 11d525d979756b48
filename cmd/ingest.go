package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-nhl-metrics/internal/report"
)

var (
	ingestSeason string
	ingestCount  int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [game-id...]",
	Short: "Fetch, normalize and store games",
	Long: `Fetches play-by-play (and shifts when the feed carries no on-ice rosters)
for each game, stores per-player game rows and caches the normalized game.
Games already cached are not fetched again.

Examples:
  nhlmetrics ingest 2023020001 2023020002
  nhlmetrics ingest --season 20232024 --count 100`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSeason, "season", "", "season like 20232024 (default from config)")
	ingestCmd.Flags().IntVar(&ingestCount, "count", 0, "number of regular-season games (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	season, count := ingestSeason, ingestCount
	if season == "" {
		season = cfg.Season
	}
	if count == 0 {
		count = cfg.SeasonGames
	}
	ids, err := seasonIDs(args, season, count)
	if err != nil {
		return err
	}

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	games, manifest, err := a.runner.LoadGames(cmd.Context(), ids)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	shots := 0
	for _, g := range games {
		shots += len(g.Shots)
	}
	fmt.Fprintf(os.Stdout, "Ingested %d of %d games (%d shot attempts).\n", len(games), len(ids), shots)
	report.PrintManifest(os.Stdout, manifest)
	return nil
}
