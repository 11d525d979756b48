package normalize

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/pable/go-nhl-metrics/internal/model"
)

func normalizePlayList(raw []byte) (*model.Game, error) {
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, ErrUnrecognizedPayload
	}

	id := firstOf(root, "gamePk", "gameData.game.pk").Int()
	date := firstOf(root, "gameDate", "gameData.datetime.dateTime").String()
	if len(date) > 10 {
		date = date[:10]
	}
	g := &model.Game{
		ID:         strconv.FormatInt(id, 10),
		Date:       date,
		HomeTeamID: model.TeamID(firstOf(root, "teams.home.id", "gameData.teams.home.id").Int()),
		AwayTeamID: model.TeamID(firstOf(root, "teams.away.id", "gameData.teams.away.id").Int()),
	}

	plays := firstOf(root, "allPlays", "liveData.plays.allPlays")
	plays.ForEach(func(_, play gjson.Result) bool {
		if !play.IsObject() {
			g.Skipped++
			return true
		}
		outcome := outcomeFor(play.Get("result.eventTypeId").String())
		if outcome == model.OutcomeUnknown {
			return true
		}
		ev, ok := playListShot(g, play, outcome)
		if !ok {
			g.Skipped++
			return true
		}
		g.Shots = append(g.Shots, ev)
		return true
	})

	if shifts := root.Get("shifts"); shifts.IsArray() {
		iv, dropped := parseShiftArray(shifts)
		g.Intervals = append(g.Intervals, iv...)
		g.Skipped += dropped
	}
	return g, nil
}

func playListShot(g *model.Game, play gjson.Result, outcome model.Outcome) (model.ShotEvent, bool) {
	x, y := play.Get("coordinates.x"), play.Get("coordinates.y")
	if x.Type != gjson.Number || y.Type != gjson.Number {
		return model.ShotEvent{}, false
	}
	period := int(play.Get("about.period").Int())
	elapsed, ok := parseClock(play.Get("about.periodTime").String())
	if !ok || period <= 0 {
		return model.ShotEvent{}, false
	}

	team := model.TeamID(play.Get("team.id").Int())
	if outcome == model.OutcomeBlocked {
		// The legacy feed credits blocked shots to the blocking team.
		team = g.Opponent(team)
	}
	if team == 0 || g.Opponent(team) == 0 {
		return model.ShotEvent{}, false
	}

	ev := model.ShotEvent{
		EventID:   int(play.Get("about.eventIdx").Int()),
		Period:    period,
		Elapsed:   elapsed,
		X:         x.Float(),
		Y:         y.Float(),
		Technique: ParseTechnique(play.Get("result.secondaryType").String()),
		Outcome:   outcome,
		TeamID:    team,
		Manpower:  strengthManpower(firstOf(play, "result.strength.code", "result.strength").String()),
		HomeOnIce: playerIDs(play.Get("onIce.home")),
		AwayOnIce: playerIDs(play.Get("onIce.away")),
	}
	play.Get("players").ForEach(func(_, p gjson.Result) bool {
		id := model.PlayerID(p.Get("player.id").Int())
		if id == 0 {
			return true
		}
		switch p.Get("playerType").String() {
		case "Shooter", "Scorer":
			ev.ShooterID = id
		case "Goalie":
			ev.GoalieID = id
		case "Assist":
			ev.AssistIDs = append(ev.AssistIDs, id)
		}
		return true
	})
	if ev.ShooterID == 0 {
		return model.ShotEvent{}, false
	}
	if outcome != model.OutcomeGoal {
		ev.AssistIDs = nil
	}
	return ev, true
}

// firstOf returns the first of paths that exists under r.
func firstOf(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
