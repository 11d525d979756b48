package normalize

import (
	"errors"
	"testing"

	"github.com/pable/go-nhl-metrics/internal/model"
)

const gameCenterFixture = `{
  "id": 2023020001,
  "gameDate": "2023-10-10",
  "homeTeam": {"id": 10},
  "awayTeam": {"id": 20},
  "plays": [
    {"eventId": 1, "typeDescKey": "faceoff", "periodDescriptor": {"number": 1}, "timeInPeriod": "00:00"},
    {"eventId": 2, "typeDescKey": "shot-on-goal", "periodDescriptor": {"number": 1}, "timeInPeriod": "01:30",
     "situationCode": "1551",
     "details": {"xCoord": 70, "yCoord": -5, "shotType": "wrist", "shootingPlayerId": 101, "goalieInNetId": 299, "eventOwnerTeamId": 10},
     "homeOnIce": [101, 102], "awayOnIce": [201, 202]},
    {"eventId": 3, "typeDescKey": "goal", "periodDescriptor": {"number": 2}, "timeInPeriod": "10:05",
     "situationCode": "1451",
     "details": {"xCoord": -80, "yCoord": 2, "shotType": "snap", "scoringPlayerId": 102, "assist1PlayerId": 101, "goalieInNetId": 299, "eventOwnerTeamId": 10}},
    {"eventId": 4, "typeDescKey": "blocked-shot", "periodDescriptor": {"number": 2}, "timeInPeriod": "11:00",
     "situationCode": "1551",
     "details": {"xCoord": 50, "yCoord": 10, "shootingPlayerId": 201, "eventOwnerTeamId": 10}},
    {"eventId": 5, "typeDescKey": "missed-shot", "periodDescriptor": {"number": 3}, "timeInPeriod": "02:00",
     "details": {"shootingPlayerId": 201, "eventOwnerTeamId": 20}},
    {"eventId": 6, "typeDescKey": "missed-shot", "periodDescriptor": {"number": 3}, "timeInPeriod": "bogus",
     "details": {"xCoord": 1, "yCoord": 1, "shootingPlayerId": 201, "eventOwnerTeamId": 20}}
  ]
}`

const playListFixture = `{
  "gamePk": 2019020001,
  "gameData": {"datetime": {"dateTime": "2019-10-02T23:00:00Z"}, "teams": {"home": {"id": 10}, "away": {"id": 20}}},
  "liveData": {"plays": {"allPlays": [
    {"result": {"eventTypeId": "SHOT", "secondaryType": "Slap Shot"},
     "about": {"eventIdx": 4, "period": 1, "periodTime": "03:15"},
     "coordinates": {"x": -60, "y": 12},
     "team": {"id": 20},
     "players": [{"player": {"id": 201}, "playerType": "Shooter"}, {"player": {"id": 199}, "playerType": "Goalie"}]},
    {"result": {"eventTypeId": "GOAL", "secondaryType": "Tip-In", "strength": {"code": "PPG"}},
     "about": {"eventIdx": 9, "period": 2, "periodTime": "05:00"},
     "coordinates": {"x": 85, "y": 1},
     "team": {"id": 10},
     "players": [{"player": {"id": 101}, "playerType": "Scorer"}, {"player": {"id": 102}, "playerType": "Assist"}, {"player": {"id": 103}, "playerType": "Assist"}]},
    {"result": {"eventTypeId": "BLOCKED_SHOT"},
     "about": {"eventIdx": 10, "period": 2, "periodTime": "06:00"},
     "coordinates": {},
     "team": {"id": 10},
     "players": [{"player": {"id": 201}, "playerType": "Shooter"}]},
    {"result": {"eventTypeId": "HIT"}, "about": {"eventIdx": 11, "period": 2, "periodTime": "06:30"}}
  ]}}
}`

func TestDetect(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
		want Kind
	}{
		{"gamecenter", gameCenterFixture, KindGameCenter},
		{"playlist nested", playListFixture, KindPlayList},
		{"playlist flat", `{"allPlays": []}`, KindPlayList},
		{"neither", `{"foo": 1}`, KindUnknown},
		{"not json", `<html>`, KindUnknown},
	} {
		if got := Detect([]byte(tc.raw)); got != tc.want {
			t.Errorf("%s: want %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestNormalize_GameCenter(t *testing.T) {
	g, err := Normalize(NewPayload([]byte(gameCenterFixture)))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if g.ID != "2023020001" || g.Date != "2023-10-10" || g.HomeTeamID != 10 || g.AwayTeamID != 20 {
		t.Fatalf("bad header: %+v", g)
	}
	if len(g.Shots) != 3 {
		t.Fatalf("want 3 shots, got %d", len(g.Shots))
	}
	if g.Skipped != 2 {
		t.Errorf("want 2 skipped records (no coords, bad clock), got %d", g.Skipped)
	}

	sog := g.Shots[0]
	if sog.Outcome != model.OutcomeSaved || sog.Elapsed != 90 || sog.Technique != model.TechniqueWrist {
		t.Errorf("shot on goal decoded wrong: %+v", sog)
	}
	if sog.Manpower != model.ManpowerEven || len(sog.HomeOnIce) != 2 || len(sog.AwayOnIce) != 2 {
		t.Errorf("shot on goal situation/rosters wrong: %+v", sog)
	}

	goal := g.Shots[1]
	if goal.Outcome != model.OutcomeGoal || goal.ShooterID != 102 {
		t.Errorf("goal shooter: want 102, got %+v", goal)
	}
	if len(goal.AssistIDs) != 1 || goal.AssistIDs[0] != 101 {
		t.Errorf("goal assists: %v", goal.AssistIDs)
	}
	// 1451: away has four skaters, home five; home shoots on the power play.
	if goal.Manpower != model.ManpowerAdvantage {
		t.Errorf("goal manpower: want advantage, got %v", goal.Manpower)
	}

	blocked := g.Shots[2]
	if blocked.Outcome != model.OutcomeBlocked || blocked.TeamID != 20 {
		t.Errorf("blocked shot must belong to the shooting team 20, got %+v", blocked)
	}
}

func TestNormalize_PlayList(t *testing.T) {
	g, err := Normalize(NewPayload([]byte(playListFixture)))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if g.ID != "2019020001" || g.Date != "2019-10-02" {
		t.Fatalf("bad header: %+v", g)
	}
	if len(g.Shots) != 2 || g.Skipped != 1 {
		t.Fatalf("want 2 shots and 1 skipped, got %d / %d", len(g.Shots), g.Skipped)
	}
	s := g.Shots[0]
	if s.ShooterID != 201 || s.GoalieID != 199 || s.Technique != model.TechniqueSlap || s.Elapsed != 195 {
		t.Errorf("shot decoded wrong: %+v", s)
	}
	if s.Manpower != model.ManpowerEven {
		t.Errorf("unlabelled strength should be even, got %v", s.Manpower)
	}
	goal := g.Shots[1]
	if goal.Manpower != model.ManpowerAdvantage || goal.Technique != model.TechniqueTipIn {
		t.Errorf("goal decoded wrong: %+v", goal)
	}
	if len(goal.AssistIDs) != 2 {
		t.Errorf("want 2 assists, got %v", goal.AssistIDs)
	}
	if !g.NeedsShifts() {
		t.Error("legacy feed has no rosters: game should need shifts")
	}
}

func TestNormalize_Errors(t *testing.T) {
	if _, err := Normalize(NewPayload([]byte(`{"x": 1}`))); !errors.Is(err, ErrUnrecognizedPayload) {
		t.Errorf("want ErrUnrecognizedPayload, got %v", err)
	}
	if _, err := Normalize(NewPayload([]byte(`{"id": 5, "homeTeam": {"id": 10}, "plays": []}`))); !errors.Is(err, ErrIncompleteGame) {
		t.Errorf("want ErrIncompleteGame, got %v", err)
	}
}

func TestParseShifts(t *testing.T) {
	raw := []byte(`{"data": [
		{"playerId": 101, "teamId": 10, "period": 1, "startTime": "00:00", "endTime": "00:45"},
		{"playerId": 102, "teamId": 10, "period": 1, "startTime": "01:00", "endTime": "00:50"},
		{"playerId": 0, "teamId": 10, "period": 1, "startTime": "00:00", "endTime": "00:45"},
		{"playerId": 201, "teamId": 20, "period": 2, "startTime": "19:10", "endTime": "20:00"}
	]}`)
	shifts, dropped := ParseShifts(raw)
	if len(shifts) != 2 || dropped != 2 {
		t.Fatalf("want 2 shifts / 2 dropped, got %d / %d", len(shifts), dropped)
	}
	if shifts[1].Start != 1150 || shifts[1].End != 1200 {
		t.Errorf("clock conversion: %+v", shifts[1])
	}

	g := &model.Game{ID: "1", HomeTeamID: 10, AwayTeamID: 20}
	WithShifts(g, raw)
	if len(g.Intervals) != 2 || g.Skipped != 2 {
		t.Errorf("WithShifts: %d intervals, %d skipped", len(g.Intervals), g.Skipped)
	}
}

func TestSituationManpower(t *testing.T) {
	for _, tc := range []struct {
		code string
		home bool
		want model.Manpower
	}{
		{"1551", true, model.ManpowerEven},
		{"1541", true, model.ManpowerDisadvantage},
		{"1541", false, model.ManpowerAdvantage},
		{"0651", true, model.ManpowerOther},
		{"", true, model.ManpowerEven},
		{"15x1", true, model.ManpowerOther},
		{"155", true, model.ManpowerOther},
		{"15510", false, model.ManpowerOther},
	} {
		if got := situationManpower(tc.code, tc.home); got != tc.want {
			t.Errorf("%q home=%v: want %v, got %v", tc.code, tc.home, tc.want, got)
		}
	}
}

func TestParseClock(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00", 0, true}, {"12:34", 754, true}, {"90", 90, true},
		{"1:75", 0, false}, {"", 0, false}, {"ab:cd", 0, false},
	} {
		got, ok := parseClock(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("%q: want (%d,%v), got (%d,%v)", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}
