package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-nhl-metrics/internal/report"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the durable cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List cache entries, optionally by key prefix (game_, pbp_, aggregate_, trend_)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.durable.Entries(prefix)
		if err != nil {
			return fmt.Errorf("list cache: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("(empty)")
			return nil
		}
		report.PrintCacheEntries(os.Stdout, entries, time.Now())
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.durable.Purge()
		if err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
		fmt.Printf("Purged %d expired entries.\n", n)
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <key>...",
	Short: "Remove entries by exact key",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, k := range args {
			a.cache.Invalidate(k)
		}
		fmt.Printf("Invalidated %d keys.\n", len(args))
		return nil
	},
}

var cacheClearForce bool

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cacheClearForce {
			fmt.Fprintln(os.Stderr, "This drops every cached game, payload and snapshot. Re-run with --force to confirm.")
			return nil
		}
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		a.cache.Clear()
		fmt.Println("Cache cleared.")
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().BoolVarP(&cacheClearForce, "force", "f", false, "skip confirmation prompt")
	cacheCmd.AddCommand(cacheListCmd, cachePurgeCmd, cacheInvalidateCmd, cacheClearCmd)
}
