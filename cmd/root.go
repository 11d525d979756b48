package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pable/go-nhl-metrics/internal/config"
	"github.com/pable/go-nhl-metrics/internal/telemetry"
)

var (
	dbPath      string
	configPath  string
	logLevel    string
	metricsFile string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nhlmetrics",
	Short: "NHL play-by-play metrics tool",
	Long: `Fetch NHL play-by-play and shift data, attribute every shot attempt to the
skaters on the ice, and compute possession, expected-goal and luck metrics
per player, across a season or as a rolling trend.`,
	SilenceUsage:       true,
	PersistentPreRunE:  loadConfig,
	PersistentPostRunE: writeMetrics,
}

// Execute runs the root command. An interrupt cancels the running pass.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite path or postgres:// DSN (default ~/.nhlmetrics/metrics.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $NHLMETRICS_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

// loadConfig layers flags over the file and environment configuration.
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.DB = dbPath
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	cfg = c
	telemetry.Init(telemetry.ParseLevel(cfg.LogLevel))
	telemetry.L().Debug("config loaded", "db", cfg.DB, "season", cfg.Season, "min_games", cfg.MinGames)
	return nil
}

func writeMetrics(_ *cobra.Command, _ []string) error {
	if metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(metricsFile, telemetry.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
