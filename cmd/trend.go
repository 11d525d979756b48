package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-nhl-metrics/internal/model"
	"github.com/pable/go-nhl-metrics/internal/pipeline"
	"github.com/pable/go-nhl-metrics/internal/report"
)

var trendWindow int

var trendCmd = &cobra.Command{
	Use:   "trend <player-id>",
	Short: "Rolling per-game trend for a player",
	Long:  "Computes trailing-window metrics over every stored game of a player, oldest first. Only ingested games are considered.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().IntVarP(&trendWindow, "window", "w", 0, "games in the trailing window (default from config)")
}

func runTrend(cmd *cobra.Command, args []string) error {
	id, err := parsePlayerID(args[0])
	if err != nil {
		return err
	}
	window := trendWindow
	if window <= 0 {
		window = cfg.Window
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	pts, err := a.runner.PlayerTrend(cmd.Context(), id, window)
	if errors.Is(err, pipeline.ErrNoGames) {
		fmt.Println("no games found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("trend: %w", err)
	}
	report.PrintTrend(os.Stdout, id, pts)
	return nil
}

func parsePlayerID(s string) (model.PlayerID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid player id %q", s)
	}
	return model.PlayerID(n), nil
}
