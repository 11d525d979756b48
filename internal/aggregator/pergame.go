package aggregator

import (
	"sort"

	"github.com/pable/go-nhl-metrics/internal/model"
)

// seriesXGPlaces keeps per-game expected goals precise enough that windowed
// sums do not drift from the season totals.
const seriesXGPlaces = 4

// PerGameMetrics folds g on its own and returns one additive row per player
// who was on the ice for at least one of its shots, ordered by player id.
func (a *Aggregator) PerGameMetrics(g *model.Game) []model.GameMetrics {
	accs := make(Accumulators)
	a.foldGame(g, accs)

	out := make([]model.GameMetrics, 0, len(accs))
	for _, acc := range accs {
		out = append(out, model.GameMetrics{
			GameID:   g.ID,
			Date:     g.Date,
			PlayerID: acc.PlayerID,
			TeamID:   acc.TeamID,
			Goals:    acc.Goals,
			Assists:  acc.Assists,
			Points:   acc.Goals + acc.Assists,
			CF:       acc.AttemptsFor,
			CA:       acc.AttemptsAgainst,
			FF:       acc.UnblockedFor,
			FA:       acc.UnblockedAgainst,
			SF:       acc.OnTargetFor,
			SA:       acc.OnTargetAgainst,
			GF:       acc.GoalsFor,
			GA:       acc.GoalsAgainst,
			XGF:      acc.XGFor.Round(seriesXGPlaces).InexactFloat64(),
			XGA:      acc.XGAgainst.Round(seriesXGPlaces).InexactFloat64(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}
