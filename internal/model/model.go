// Package model holds the canonical hockey event schema shared by every stage
// of the pipeline, plus the aggregate and time-series records it produces.
package model

import "strconv"

// PlayerID is the league-wide player identifier.
type PlayerID int64

// TeamID is the league-wide team identifier.
type TeamID int64

func (p PlayerID) String() string { return strconv.FormatInt(int64(p), 10) }
func (t TeamID) String() string   { return strconv.FormatInt(int64(t), 10) }

// Outcome is the result of a shot attempt.
type Outcome int

const (
	OutcomeUnknown Outcome = 0
	OutcomeGoal    Outcome = 1
	OutcomeSaved   Outcome = 2 // on net, not scored
	OutcomeMissed  Outcome = 3 // off target
	OutcomeBlocked Outcome = 4 // blocked before reaching the net
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGoal:
		return "goal"
	case OutcomeSaved:
		return "saved"
	case OutcomeMissed:
		return "missed"
	case OutcomeBlocked:
		return "blocked"
	default:
		return "?"
	}
}

// Unblocked reports whether the attempt counts toward Fenwick.
func (o Outcome) Unblocked() bool {
	return o == OutcomeGoal || o == OutcomeSaved || o == OutcomeMissed
}

// OnTarget reports whether the attempt reached the goaltender (shot on goal).
func (o Outcome) OnTarget() bool {
	return o == OutcomeGoal || o == OutcomeSaved
}

// Technique is the shot type.
type Technique int

const (
	TechniqueOther Technique = iota
	TechniqueWrist
	TechniqueSnap
	TechniqueSlap
	TechniqueBackhand
	TechniqueTipIn
	TechniqueDeflected
	TechniqueWrapAround
)

var techniqueNames = map[Technique]string{
	TechniqueOther:      "other",
	TechniqueWrist:      "wrist",
	TechniqueSnap:       "snap",
	TechniqueSlap:       "slap",
	TechniqueBackhand:   "backhand",
	TechniqueTipIn:      "tip-in",
	TechniqueDeflected:  "deflected",
	TechniqueWrapAround: "wrap-around",
}

func (t Technique) String() string {
	if s, ok := techniqueNames[t]; ok {
		return s
	}
	return "other"
}

// Manpower is the strength state from the shooting team's point of view.
type Manpower int

const (
	ManpowerEven         Manpower = iota // 5v5, 4v4, 3v3
	ManpowerAdvantage                    // power play
	ManpowerDisadvantage                 // short-handed
	ManpowerOther                        // empty net, penalty shot, unknown
)

func (m Manpower) String() string {
	switch m {
	case ManpowerEven:
		return "EV"
	case ManpowerAdvantage:
		return "PP"
	case ManpowerDisadvantage:
		return "SH"
	default:
		return "OTHER"
	}
}

// ShotEvent is one shot attempt. Coordinates are always present: the
// normalizer drops records without them.
type ShotEvent struct {
	EventID   int        `json:"event_id"`
	Period    int        `json:"period"`
	Elapsed   int        `json:"elapsed"` // seconds since the period started
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Technique Technique  `json:"technique"`
	Outcome   Outcome    `json:"outcome"`
	ShooterID PlayerID   `json:"shooter_id"`
	GoalieID  PlayerID   `json:"goalie_id,omitempty"` // 0 when the net was empty or unknown
	AssistIDs []PlayerID `json:"assist_ids,omitempty"`
	TeamID    TeamID     `json:"team_id"` // shooting team
	Manpower  Manpower   `json:"manpower"`
	HomeOnIce []PlayerID `json:"home_on_ice,omitempty"`
	AwayOnIce []PlayerID `json:"away_on_ice,omitempty"`
}

// ParticipationInterval is one shift: a continuous stretch a player spent on
// the ice. Start and End are seconds since the period started.
type ParticipationInterval struct {
	PlayerID PlayerID `json:"player_id"`
	TeamID   TeamID   `json:"team_id"`
	Period   int      `json:"period"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
}

// Game is the canonical, normalized form of one game's play-by-play.
type Game struct {
	ID         string                  `json:"id"`
	Date       string                  `json:"date"`
	HomeTeamID TeamID                  `json:"home_team_id"`
	AwayTeamID TeamID                  `json:"away_team_id"`
	Shots      []ShotEvent             `json:"shots"`
	Intervals  []ParticipationInterval `json:"intervals,omitempty"`

	// Skipped counts play and shift records dropped as malformed.
	Skipped int `json:"skipped"`
}

// IsHome reports whether team is the home side of g.
func (g *Game) IsHome(team TeamID) bool { return team == g.HomeTeamID }

// Opponent returns the other side of g, or 0 if team did not play in g.
func (g *Game) Opponent(team TeamID) TeamID {
	switch team {
	case g.HomeTeamID:
		return g.AwayTeamID
	case g.AwayTeamID:
		return g.HomeTeamID
	}
	return 0
}

// NeedsShifts reports whether any shot lacks an embedded roster for either
// side, in which case shift data is required for attribution.
func (g *Game) NeedsShifts() bool {
	for i := range g.Shots {
		if len(g.Shots[i].HomeOnIce) == 0 || len(g.Shots[i].AwayOnIce) == 0 {
			return true
		}
	}
	return false
}

// Score returns goals by the home and away sides.
func (g *Game) Score() (home, away int) {
	for _, s := range g.Shots {
		if s.Outcome != OutcomeGoal {
			continue
		}
		switch s.TeamID {
		case g.HomeTeamID:
			home++
		case g.AwayTeamID:
			away++
		}
	}
	return
}

// GameSummary is a lightweight record for list/show commands.
type GameSummary struct {
	GameID     string
	Date       string
	HomeTeamID TeamID
	AwayTeamID TeamID
	HomeGoals  int
	AwayGoals  int
	Shots      int
	Skipped    int
}

// Summarize builds the stored summary row for g.
func Summarize(g *Game) GameSummary {
	home, away := g.Score()
	return GameSummary{
		GameID:     g.ID,
		Date:       g.Date,
		HomeTeamID: g.HomeTeamID,
		AwayTeamID: g.AwayTeamID,
		HomeGoals:  home,
		AwayGoals:  away,
		Shots:      len(g.Shots),
		Skipped:    g.Skipped,
	}
}
