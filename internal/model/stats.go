package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rounding policy for every published ratio. Percentages carry one decimal,
// per-game rates two, summed expected goals two.
const (
	PctPlaces  int32 = 1
	RatePlaces int32 = 2
	XGPlaces   int32 = 2
)

// PlayerAccumulator holds running on-ice and individual counters for one
// player across an aggregation pass. Counters only ever grow.
type PlayerAccumulator struct {
	PlayerID PlayerID
	TeamID   TeamID // team on the most recently folded event

	// On-ice attempts (Corsi) and unblocked attempts (Fenwick).
	AttemptsFor, AttemptsAgainst   int
	UnblockedFor, UnblockedAgainst int
	OnTargetFor, OnTargetAgainst   int
	GoalsFor, GoalsAgainst         int
	XGFor, XGAgainst               decimal.Decimal

	// Individual counters, credited only to the shooter.
	Shots        int
	Goals        int
	IndividualXG decimal.Decimal
	HighDanger   int
	Assists      int

	Games map[string]struct{}
}

// NewPlayerAccumulator returns an empty accumulator for id.
func NewPlayerAccumulator(id PlayerID) *PlayerAccumulator {
	return &PlayerAccumulator{PlayerID: id, Games: make(map[string]struct{})}
}

// GamesPlayed is the number of distinct games that contributed an event.
func (a *PlayerAccumulator) GamesPlayed() int { return len(a.Games) }

// Merge adds every counter of o into a and unions the game sets.
// Merging is associative and commutative.
func (a *PlayerAccumulator) Merge(o *PlayerAccumulator) {
	if a.TeamID == 0 {
		a.TeamID = o.TeamID
	}
	a.AttemptsFor += o.AttemptsFor
	a.AttemptsAgainst += o.AttemptsAgainst
	a.UnblockedFor += o.UnblockedFor
	a.UnblockedAgainst += o.UnblockedAgainst
	a.OnTargetFor += o.OnTargetFor
	a.OnTargetAgainst += o.OnTargetAgainst
	a.GoalsFor += o.GoalsFor
	a.GoalsAgainst += o.GoalsAgainst
	a.XGFor = a.XGFor.Add(o.XGFor)
	a.XGAgainst = a.XGAgainst.Add(o.XGAgainst)
	a.Shots += o.Shots
	a.Goals += o.Goals
	a.IndividualXG = a.IndividualXG.Add(o.IndividualXG)
	a.HighDanger += o.HighDanger
	a.Assists += o.Assists
	if a.Games == nil {
		a.Games = make(map[string]struct{}, len(o.Games))
	}
	for g := range o.Games {
		a.Games[g] = struct{}{}
	}
}

// PlayerStats is the finalized, published snapshot for one player.
type PlayerStats struct {
	PlayerID    PlayerID `json:"player_id"`
	TeamID      TeamID   `json:"team_id"`
	GamesPlayed int      `json:"games_played"`

	CF  int     `json:"cf"`
	CA  int     `json:"ca"`
	FF  int     `json:"ff"`
	FA  int     `json:"fa"`
	SF  int     `json:"sf"`
	SA  int     `json:"sa"`
	GF  int     `json:"gf"`
	GA  int     `json:"ga"`
	XGF float64 `json:"xgf"`
	XGA float64 `json:"xga"`

	Shots        int     `json:"shots"`
	Goals        int     `json:"goals"`
	Assists      int     `json:"assists"`
	IndividualXG float64 `json:"ixg"`
	HighDanger   int     `json:"high_danger"`

	CFPct  float64 `json:"cf_pct"`
	FFPct  float64 `json:"ff_pct"`
	XGFPct float64 `json:"xgf_pct"`
	ShPct  float64 `json:"sh_pct"`
	SvPct  float64 `json:"sv_pct"`
	PDO    float64 `json:"pdo"`
}

// Points is goals plus assists.
func (s *PlayerStats) Points() int { return s.Goals + s.Assists }

// GameMetrics is one player's raw additive tuple for a single game; the input
// row of the rolling engine.
type GameMetrics struct {
	GameID   string   `json:"game_id"`
	Date     string   `json:"date"`
	PlayerID PlayerID `json:"player_id"`
	TeamID   TeamID   `json:"team_id"`

	Goals   int `json:"goals"`
	Assists int `json:"assists"`
	Points  int `json:"points"`

	CF  int     `json:"cf"`
	CA  int     `json:"ca"`
	FF  int     `json:"ff"`
	FA  int     `json:"fa"`
	SF  int     `json:"sf"`
	SA  int     `json:"sa"`
	GF  int     `json:"gf"`
	GA  int     `json:"ga"`
	XGF float64 `json:"xgf"`
	XGA float64 `json:"xga"`
}

// Derived is the set of ratios computed from a block of additive counters.
type Derived struct {
	CFPct         float64 `json:"cf_pct"`
	FFPct         float64 `json:"ff_pct"`
	XGFPct        float64 `json:"xgf_pct"`
	ShPct         float64 `json:"sh_pct"`
	SvPct         float64 `json:"sv_pct"`
	PDO           float64 `json:"pdo"`
	PointsPerGame float64 `json:"points_per_game"`
	GoalsPerGame  float64 `json:"goals_per_game"`
}

// RollingMetricsPoint is one entry of a player's trend series.
type RollingMetricsPoint struct {
	GameNumber int     `json:"game_number"` // 1-based position in the series
	GameID     string  `json:"game_id"`
	Date       string  `json:"date"`
	Window     int     `json:"window"` // games actually in the trailing window
	Rolling    Derived `json:"rolling"`
	Single     Derived `json:"single"`
}

// AggregateSnapshot is the cached result of one whole-league aggregation.
type AggregateSnapshot struct {
	RunID     string        `json:"run_id"`
	Season    string        `json:"season"`
	CreatedAt time.Time     `json:"created_at"`
	MinGames  int           `json:"min_games"`
	Games     int           `json:"games"`
	Players   []PlayerStats `json:"players"`
	Manifest  Manifest      `json:"manifest"`
}

// SharePct returns forN/(forN+againstN) as a percentage, or 50 when both are zero.
func SharePct(forN, againstN float64) float64 {
	total := forN + againstN
	if total == 0 {
		return 50
	}
	return forN / total * 100
}

// ShootingPct returns goals per shot on goal as a percentage, 0 with no shots.
func ShootingPct(goals, shots int) float64 {
	if shots == 0 {
		return 0
	}
	return float64(goals) / float64(shots) * 100
}

// SavePct returns saves per shot against as a percentage, 100 with no shots
// against.
func SavePct(goalsAgainst, shotsAgainst int) float64 {
	if shotsAgainst == 0 {
		return 100
	}
	return float64(shotsAgainst-goalsAgainst) / float64(shotsAgainst) * 100
}

// PerGame divides a windowed sum by the number of games in the window.
func PerGame(sum, games int) float64 {
	if games == 0 {
		return 0
	}
	return float64(sum) / float64(games)
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
