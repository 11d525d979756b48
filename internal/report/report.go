package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-nhl-metrics/internal/model"
	"github.com/pable/go-nhl-metrics/internal/storage"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }

// PrintSnapshotHeader prints a one-line summary of an aggregation pass.
func PrintSnapshotHeader(w io.Writer, s *model.AggregateSnapshot) {
	fmt.Fprintf(w, "\nSeason: %s  |  Games: %d  |  Skipped: %d  |  Min GP: %d  |  Players: %d  |  Run: %s  |  At: %s\n\n",
		s.Season, s.Games, len(s.Manifest.Skipped()), s.MinGames, len(s.Players), shortID(s.RunID),
		s.CreatedAt.Format(time.RFC3339))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PrintPlayerStats prints the league table. If focus is non-zero, that
// player's row is marked with ">".
func PrintPlayerStats(w io.Writer, stats []model.PlayerStats, focus model.PlayerID) {
	table := newTable(w)
	table.Header(" ", "PLAYER", "TEAM", "GP", "G", "A", "P", "CF%", "FF%", "XGF%",
		"IXG", "HD", "SH%", "SH%_CI", "SV%", "PDO", "SAMPLE")

	for _, s := range stats {
		marker := " "
		if focus != 0 && s.PlayerID == focus {
			marker = ">"
		}
		ci := "—"
		if s.SF > 0 {
			lo, hi := wilsonCI(s.GF, s.SF)
			ci = fmt.Sprintf("%.0f–%.0f", lo*100, hi*100)
		}
		table.Append(
			marker,
			s.PlayerID.String(),
			s.TeamID.String(),
			strconv.Itoa(s.GamesPlayed),
			strconv.Itoa(s.Goals),
			strconv.Itoa(s.Assists),
			strconv.Itoa(s.Points()),
			pct(s.CFPct),
			pct(s.FFPct),
			pct(s.XGFPct),
			fmt.Sprintf("%.2f", s.IndividualXG),
			strconv.Itoa(s.HighDanger),
			pct(s.ShPct),
			ci,
			pct(s.SvPct),
			fmt.Sprintf("%.1f", s.PDO),
			sampleFlag(s.CF+s.CA),
		)
	}
	table.Render()
}

// sampleFlag grades how much on-ice shot volume backs a player's ratios.
func sampleFlag(attempts int) string {
	switch {
	case attempts >= 500:
		return "OK"
	case attempts >= 150:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}

// PrintTrend prints a player's rolling series next to the single-game values.
func PrintTrend(w io.Writer, player model.PlayerID, pts []model.RollingMetricsPoint) {
	fmt.Fprintf(w, "\nPlayer %s  |  %d games\n\n", player, len(pts))
	table := newTable(w)
	table.Header("#", "DATE", "GAME", "WIN", "CF%", "FF%", "XGF%", "SH%", "SV%", "PDO", "G/GP", "P/GP", "GAME_CF%")
	for _, p := range pts {
		r := p.Rolling
		table.Append(
			strconv.Itoa(p.GameNumber),
			p.Date,
			p.GameID,
			strconv.Itoa(p.Window),
			pct(r.CFPct),
			pct(r.FFPct),
			pct(r.XGFPct),
			pct(r.ShPct),
			pct(r.SvPct),
			fmt.Sprintf("%.1f", r.PDO),
			fmt.Sprintf("%.2f", r.GoalsPerGame),
			fmt.Sprintf("%.2f", r.PointsPerGame),
			pct(p.Single.CFPct),
		)
	}
	table.Render()
}

// PrintManifest lists the games a pass left out or folded without their
// shifts. Nothing is printed when every game contributed in full.
func PrintManifest(w io.Writer, m model.Manifest) {
	var flagged []model.GameResult
	for _, r := range m.Results {
		if !r.OK() || r.Partial {
			flagged = append(flagged, r)
		}
	}
	if len(flagged) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d of %d games skipped or incomplete:\n", len(flagged), len(m.Results))
	table := newTable(w)
	table.Header("GAME", "REASON", "DETAIL")
	for _, r := range flagged {
		reason, detail := string(r.Reason), r.Detail
		if r.OK() {
			reason, detail = "partial", "shifts unavailable"
		}
		if detail == "" {
			detail = "—"
		}
		table.Append(r.GameID, reason, detail)
	}
	table.Render()
}

// PrintGames lists stored games.
func PrintGames(w io.Writer, games []model.GameSummary) {
	table := newTable(w)
	table.Header("GAME", "DATE", "HOME", "AWAY", "SCORE", "SHOTS", "DROPPED")
	for _, g := range games {
		table.Append(
			g.GameID,
			g.Date,
			g.HomeTeamID.String(),
			g.AwayTeamID.String(),
			fmt.Sprintf("%d-%d", g.HomeGoals, g.AwayGoals),
			strconv.Itoa(g.Shots),
			strconv.Itoa(g.Skipped),
		)
	}
	table.Render()
}

// PrintGameMetrics prints every player's counters for one game.
func PrintGameMetrics(w io.Writer, g *model.GameSummary, rows []model.GameMetrics) {
	if g != nil {
		fmt.Fprintf(w, "\nGame: %s  |  Date: %s  |  Home %s %d – Away %s %d\n\n",
			g.GameID, g.Date, g.HomeTeamID, g.HomeGoals, g.AwayTeamID, g.AwayGoals)
	}
	table := newTable(w)
	table.Header("PLAYER", "TEAM", "G", "A", "P", "CF", "CA", "FF", "FA", "SF", "SA", "GF", "GA", "XGF", "XGA")
	for _, r := range rows {
		table.Append(
			r.PlayerID.String(),
			r.TeamID.String(),
			strconv.Itoa(r.Goals),
			strconv.Itoa(r.Assists),
			strconv.Itoa(r.Points),
			strconv.Itoa(r.CF),
			strconv.Itoa(r.CA),
			strconv.Itoa(r.FF),
			strconv.Itoa(r.FA),
			strconv.Itoa(r.SF),
			strconv.Itoa(r.SA),
			strconv.Itoa(r.GF),
			strconv.Itoa(r.GA),
			fmt.Sprintf("%.2f", r.XGF),
			fmt.Sprintf("%.2f", r.XGA),
		)
	}
	table.Render()
}

// PrintTeamRecords prints win/loss and goal totals per team.
func PrintTeamRecords(w io.Writer, recs []storage.TeamRecord) {
	table := newTable(w)
	table.Header("TEAM", "GP", "W", "L", "GF", "GA", "DIFF", "W%")
	for _, r := range recs {
		winPct := "—"
		if r.GamesPlayed > 0 {
			winPct = pct(float64(r.Wins) / float64(r.GamesPlayed) * 100)
		}
		table.Append(
			r.TeamID.String(),
			strconv.Itoa(r.GamesPlayed),
			strconv.Itoa(r.Wins),
			strconv.Itoa(r.Losses),
			strconv.Itoa(r.GoalsFor),
			strconv.Itoa(r.GoalsAgainst),
			fmt.Sprintf("%+d", r.GoalsFor-r.GoalsAgainst),
			winPct,
		)
	}
	table.Render()
}

// PrintCacheEntries lists durable cache entries with their remaining life
// relative to now.
func PrintCacheEntries(w io.Writer, entries []storage.CacheEntryInfo, now time.Time) {
	table := newTable(w)
	table.Header("KEY", "SIZE", "CREATED", "EXPIRES_IN")
	for _, e := range entries {
		left := "expired"
		if d := e.ExpiresAt.Sub(now); d > 0 {
			left = d.Truncate(time.Second).String()
		}
		table.Append(
			e.Key,
			strconv.Itoa(e.Size),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			left,
		)
	}
	table.Render()
}

// PrintRows prints an arbitrary result set, e.g. from a raw SQL query.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		table.Append(cells...)
	}
	table.Render()
}
