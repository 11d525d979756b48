package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-nhl-metrics/internal/model"
	"github.com/pable/go-nhl-metrics/internal/report"
	"github.com/pable/go-nhl-metrics/internal/storage"
)

var (
	listTeams bool
	listSince string
)

var listCmd = &cobra.Command{
	Use:   "list [team-id...]",
	Short: "List stored games, or team records with --teams",
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listTeams, "teams", false, "show per-team records instead of games")
	listCmd.Flags().StringVar(&listSince, "since", "", "with --teams, only games on or after this date (YYYY-MM-DD)")
}

func runList(cmd *cobra.Command, args []string) error {
	if err := ensureDBDir(cfg.DB); err != nil {
		return err
	}
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	if listTeams {
		teams := make([]model.TeamID, 0, len(args))
		for _, a := range args {
			n, err := strconv.ParseInt(a, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid team id %q", a)
			}
			teams = append(teams, model.TeamID(n))
		}
		recs, err := db.TeamRecords(teams, listSince)
		if err != nil {
			return fmt.Errorf("team records: %w", err)
		}
		report.PrintTeamRecords(os.Stdout, recs)
		return nil
	}

	games, err := db.ListGames()
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	if len(games) == 0 {
		fmt.Fprintln(os.Stdout, "No games stored yet. Run 'nhlmetrics ingest' to add some.")
		return nil
	}
	report.PrintGames(os.Stdout, games)
	return nil
}
