// Package rolling computes trailing-window ratios over a player's
// chronological per-game series.
package rolling

import "github.com/pable/go-nhl-metrics/internal/model"

// totals is the additive part of a GameMetrics row.
type totals struct {
	goals, points  int
	cf, ca, ff, fa int
	sf, sa, gf, ga int
	xgf, xga       float64
}

func (t totals) add(o totals) totals {
	return totals{
		goals: t.goals + o.goals, points: t.points + o.points,
		cf: t.cf + o.cf, ca: t.ca + o.ca, ff: t.ff + o.ff, fa: t.fa + o.fa,
		sf: t.sf + o.sf, sa: t.sa + o.sa, gf: t.gf + o.gf, ga: t.ga + o.ga,
		xgf: t.xgf + o.xgf, xga: t.xga + o.xga,
	}
}

func (t totals) sub(o totals) totals {
	return totals{
		goals: t.goals - o.goals, points: t.points - o.points,
		cf: t.cf - o.cf, ca: t.ca - o.ca, ff: t.ff - o.ff, fa: t.fa - o.fa,
		sf: t.sf - o.sf, sa: t.sa - o.sa, gf: t.gf - o.gf, ga: t.ga - o.ga,
		xgf: t.xgf - o.xgf, xga: t.xga - o.xga,
	}
}

func fromRow(m model.GameMetrics) totals {
	return totals{
		goals: m.Goals, points: m.Points,
		cf: m.CF, ca: m.CA, ff: m.FF, fa: m.FA,
		sf: m.SF, sa: m.SA, gf: m.GF, ga: m.GA,
		xgf: m.XGF, xga: m.XGA,
	}
}

// Compute returns one point per entry of series, in the same order. Point i
// covers the trailing min(window, i+1) games ending at i; a window below 1 is
// treated as 1. Series must already be in chronological order.
func Compute(series []model.GameMetrics, window int) []model.RollingMetricsPoint {
	if window < 1 {
		window = 1
	}
	// prefix[i] holds the sum of series[:i].
	prefix := make([]totals, len(series)+1)
	for i, m := range series {
		prefix[i+1] = prefix[i].add(fromRow(m))
	}

	out := make([]model.RollingMetricsPoint, len(series))
	for i, m := range series {
		n := min(window, i+1)
		out[i] = model.RollingMetricsPoint{
			GameNumber: i + 1,
			GameID:     m.GameID,
			Date:       m.Date,
			Window:     n,
			Rolling:    derive(prefix[i+1].sub(prefix[i+1-n]), n),
			Single:     derive(fromRow(m), 1),
		}
	}
	return out
}

// derive applies the published ratio formulas to the sums of n games.
func derive(t totals, n int) model.Derived {
	sh := model.ShootingPct(t.gf, t.sf)
	sv := model.SavePct(t.ga, t.sa)
	return model.Derived{
		CFPct:         model.Round(model.SharePct(float64(t.cf), float64(t.ca)), model.PctPlaces),
		FFPct:         model.Round(model.SharePct(float64(t.ff), float64(t.fa)), model.PctPlaces),
		XGFPct:        model.Round(model.SharePct(t.xgf, t.xga), model.PctPlaces),
		ShPct:         model.Round(sh, model.PctPlaces),
		SvPct:         model.Round(sv, model.PctPlaces),
		PDO:           model.Round(sh+sv, model.PctPlaces),
		PointsPerGame: model.Round(model.PerGame(t.points, n), model.RatePlaces),
		GoalsPerGame:  model.Round(model.PerGame(t.goals, n), model.RatePlaces),
	}
}
