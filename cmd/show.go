package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-nhl-metrics/internal/report"
	"github.com/pable/go-nhl-metrics/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <game-id-prefix>",
	Short: "Show stored per-player metrics for a game",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := storage.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	return showGame(db, prefix)
}

func showGame(db *storage.DB, prefix string) error {
	game, err := db.GetGameByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query game: %w", err)
	}
	if game == nil {
		fmt.Fprintf(os.Stderr, "No game found with id prefix %q\n", prefix)
		return nil
	}
	rows, err := db.GetPlayerGameMetrics(game.GameID)
	if err != nil {
		return fmt.Errorf("get player metrics: %w", err)
	}
	report.PrintGameMetrics(os.Stdout, game, rows)
	return nil
}
