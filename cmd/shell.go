package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-nhl-metrics/internal/pipeline"
	"github.com/pable/go-nhl-metrics/internal/report"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database and cache. Nothing is fetched from the network. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(cmd *cobra.Command, _ []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	cGreeting.Println("nhlmetrics shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	ctx := cmd.Context()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("nhlmetrics")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			shellList(a)
		case "teams":
			recs, err := a.db.TeamRecords(nil, "")
			if err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			report.PrintTeamRecords(os.Stdout, recs)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <game-id-prefix>")
				continue
			}
			if err := showGame(a.db, args[0]); err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
			}
		case "trend":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: trend <player-id> [window]")
				continue
			}
			shellTrend(ctx, a, args)
		case "top":
			shellTop(ctx, a, args)
		case "keys":
			prefix := ""
			if len(args) > 0 {
				prefix = args[0]
			}
			for _, k := range a.cache.Keys(prefix) {
				fmt.Println(k)
			}
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list stored games"},
		{"teams", "team records over stored games"},
		{"show <game-id-prefix>", "show a game's per-player metrics"},
		{"trend <player-id> [window]", "rolling trend for a player"},
		{"top [n]", "league table over every cached game"},
		{"keys [prefix]", "list cache keys"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-30s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellList(a *app) {
	games, err := a.db.ListGames()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(games) == 0 {
		cMuted.Println("No games stored yet.")
		return
	}
	report.PrintGames(os.Stdout, games)
}

func shellTrend(ctx context.Context, a *app, args []string) {
	id, err := parsePlayerID(args[0])
	if err != nil {
		cError.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	window := cfg.Window
	if len(args) > 1 {
		if window, err = strconv.Atoi(args[1]); err != nil || window < 1 {
			cError.Fprintf(os.Stderr, "invalid window %q\n", args[1])
			return
		}
	}
	pts, err := a.runner.PlayerTrend(ctx, id, window)
	if errors.Is(err, pipeline.ErrNoGames) {
		cMuted.Println("no games found")
		return
	}
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintTrend(os.Stdout, id, pts)
}

func shellTop(ctx context.Context, a *app, args []string) {
	n := 20
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}
	ids := a.runner.CachedGameIDs()
	snap, err := a.runner.LeagueAggregate(ctx, cfg.Season, ids, false)
	if errors.Is(err, pipeline.ErrNoGames) {
		cMuted.Println("no cached games")
		return
	}
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	players := sortStats(snap.Players, "points")
	if len(players) > n {
		players = players[:n]
	}
	report.PrintSnapshotHeader(os.Stdout, snap)
	report.PrintPlayerStats(os.Stdout, players, 0)
}
