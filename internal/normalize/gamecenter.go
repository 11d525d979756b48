package normalize

import (
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"

	"github.com/pable/go-nhl-metrics/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type gcHeader struct {
	ID       int64  `json:"id"`
	GameDate string `json:"gameDate"`
	HomeTeam struct {
		ID int64 `json:"id"`
	} `json:"homeTeam"`
	AwayTeam struct {
		ID int64 `json:"id"`
	} `json:"awayTeam"`
	Plays []jsoniter.RawMessage `json:"plays"`
}

type gcPlay struct {
	EventID          int    `json:"eventId"`
	TypeDescKey      string `json:"typeDescKey"`
	PeriodDescriptor struct {
		Number int `json:"number"`
	} `json:"periodDescriptor"`
	TimeInPeriod  string     `json:"timeInPeriod"`
	SituationCode string     `json:"situationCode"`
	Details       *gcDetails `json:"details"`
	HomeOnIce     []int64    `json:"homeOnIce"`
	AwayOnIce     []int64    `json:"awayOnIce"`
}

type gcDetails struct {
	XCoord           *float64 `json:"xCoord"`
	YCoord           *float64 `json:"yCoord"`
	ShotType         string   `json:"shotType"`
	ShootingPlayerID int64    `json:"shootingPlayerId"`
	ScoringPlayerID  int64    `json:"scoringPlayerId"`
	GoalieInNetID    int64    `json:"goalieInNetId"`
	EventOwnerTeamID int64    `json:"eventOwnerTeamId"`
	Assist1PlayerID  int64    `json:"assist1PlayerId"`
	Assist2PlayerID  int64    `json:"assist2PlayerId"`
}

func normalizeGameCenter(raw []byte) (*model.Game, error) {
	var hdr gcHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedPayload, err)
	}
	g := &model.Game{
		ID:         strconv.FormatInt(hdr.ID, 10),
		Date:       hdr.GameDate,
		HomeTeamID: model.TeamID(hdr.HomeTeam.ID),
		AwayTeamID: model.TeamID(hdr.AwayTeam.ID),
	}

	for _, rm := range hdr.Plays {
		var p gcPlay
		if err := json.Unmarshal(rm, &p); err != nil {
			g.Skipped++
			continue
		}
		outcome := outcomeFor(p.TypeDescKey)
		if outcome == model.OutcomeUnknown {
			continue
		}
		ev, ok := gameCenterShot(g, &p, outcome)
		if !ok {
			g.Skipped++
			continue
		}
		g.Shots = append(g.Shots, ev)
	}

	if shifts := gjson.GetBytes(raw, "shifts"); shifts.IsArray() {
		iv, dropped := parseShiftArray(shifts)
		g.Intervals = append(g.Intervals, iv...)
		g.Skipped += dropped
	}
	return g, nil
}

func gameCenterShot(g *model.Game, p *gcPlay, outcome model.Outcome) (model.ShotEvent, bool) {
	d := p.Details
	if d == nil || d.XCoord == nil || d.YCoord == nil {
		return model.ShotEvent{}, false
	}
	elapsed, ok := parseClock(p.TimeInPeriod)
	if !ok || p.PeriodDescriptor.Number <= 0 {
		return model.ShotEvent{}, false
	}

	team := model.TeamID(d.EventOwnerTeamID)
	if outcome == model.OutcomeBlocked {
		// Blocked shots are owned by the blocking team.
		team = g.Opponent(team)
	}
	if team == 0 || g.Opponent(team) == 0 {
		return model.ShotEvent{}, false
	}

	shooter := d.ShootingPlayerID
	if outcome == model.OutcomeGoal && d.ScoringPlayerID != 0 {
		shooter = d.ScoringPlayerID
	}
	if shooter == 0 {
		return model.ShotEvent{}, false
	}

	ev := model.ShotEvent{
		EventID:   p.EventID,
		Period:    p.PeriodDescriptor.Number,
		Elapsed:   elapsed,
		X:         *d.XCoord,
		Y:         *d.YCoord,
		Technique: ParseTechnique(d.ShotType),
		Outcome:   outcome,
		ShooterID: model.PlayerID(shooter),
		GoalieID:  model.PlayerID(d.GoalieInNetID),
		TeamID:    team,
		Manpower:  situationManpower(p.SituationCode, g.IsHome(team)),
		HomeOnIce: toPlayerIDs(p.HomeOnIce),
		AwayOnIce: toPlayerIDs(p.AwayOnIce),
	}
	if outcome == model.OutcomeGoal {
		for _, a := range []int64{d.Assist1PlayerID, d.Assist2PlayerID} {
			if a != 0 {
				ev.AssistIDs = append(ev.AssistIDs, model.PlayerID(a))
			}
		}
	}
	return ev, true
}

func toPlayerIDs(ids []int64) []model.PlayerID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]model.PlayerID, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			out = append(out, model.PlayerID(id))
		}
	}
	return out
}
