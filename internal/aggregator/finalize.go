package aggregator

import (
	"sort"

	"github.com/pable/go-nhl-metrics/internal/model"
)

// Finalize converts accumulators into published statistics. Players seen in
// fewer than minGames distinct games are left out. The result is ordered by
// player id.
func Finalize(accs Accumulators, minGames int) []model.PlayerStats {
	out := make([]model.PlayerStats, 0, len(accs))
	for _, acc := range accs {
		if acc.GamesPlayed() < minGames {
			continue
		}
		out = append(out, ToStats(acc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// ToStats derives every ratio of one accumulator. It applies no sample
// threshold.
func ToStats(acc *model.PlayerAccumulator) model.PlayerStats {
	xgf := acc.XGFor.InexactFloat64()
	xga := acc.XGAgainst.InexactFloat64()
	sh := model.ShootingPct(acc.GoalsFor, acc.OnTargetFor)
	sv := model.SavePct(acc.GoalsAgainst, acc.OnTargetAgainst)

	return model.PlayerStats{
		PlayerID:    acc.PlayerID,
		TeamID:      acc.TeamID,
		GamesPlayed: acc.GamesPlayed(),

		CF:  acc.AttemptsFor,
		CA:  acc.AttemptsAgainst,
		FF:  acc.UnblockedFor,
		FA:  acc.UnblockedAgainst,
		SF:  acc.OnTargetFor,
		SA:  acc.OnTargetAgainst,
		GF:  acc.GoalsFor,
		GA:  acc.GoalsAgainst,
		XGF: acc.XGFor.Round(model.XGPlaces).InexactFloat64(),
		XGA: acc.XGAgainst.Round(model.XGPlaces).InexactFloat64(),

		Shots:        acc.Shots,
		Goals:        acc.Goals,
		Assists:      acc.Assists,
		IndividualXG: acc.IndividualXG.Round(model.XGPlaces).InexactFloat64(),
		HighDanger:   acc.HighDanger,

		CFPct:  model.Round(model.SharePct(float64(acc.AttemptsFor), float64(acc.AttemptsAgainst)), model.PctPlaces),
		FFPct:  model.Round(model.SharePct(float64(acc.UnblockedFor), float64(acc.UnblockedAgainst)), model.PctPlaces),
		XGFPct: model.Round(model.SharePct(xgf, xga), model.PctPlaces),
		ShPct:  model.Round(sh, model.PctPlaces),
		SvPct:  model.Round(sv, model.PctPlaces),
		PDO:    model.Round(sh+sv, model.PctPlaces),
	}
}
