package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/pable/go-nhl-metrics/internal/model"
)

// ParseShifts decodes a shift feed: an object holding a "data" or "shifts"
// array, or a bare array. Rows missing a player, team, period or readable
// clock, and rows ending before they start, are dropped and counted.
func ParseShifts(raw []byte) ([]model.ParticipationInterval, int) {
	root := gjson.ParseBytes(raw)
	switch {
	case root.IsArray():
		return parseShiftArray(root)
	case root.IsObject():
		if rows := firstOf(root, "data", "shifts"); rows.IsArray() {
			return parseShiftArray(rows)
		}
	}
	return nil, 0
}

func parseShiftArray(rows gjson.Result) ([]model.ParticipationInterval, int) {
	var (
		out     []model.ParticipationInterval
		dropped int
	)
	rows.ForEach(func(_, row gjson.Result) bool {
		iv, ok := parseShift(row)
		if !ok {
			dropped++
			return true
		}
		out = append(out, iv)
		return true
	})
	return out, dropped
}

func parseShift(row gjson.Result) (model.ParticipationInterval, bool) {
	if !row.IsObject() {
		return model.ParticipationInterval{}, false
	}
	player := row.Get("playerId").Int()
	team := row.Get("teamId").Int()
	period := int(row.Get("period").Int())
	start, ok1 := parseClock(row.Get("startTime").String())
	end, ok2 := parseClock(row.Get("endTime").String())
	if player == 0 || team == 0 || period <= 0 || !ok1 || !ok2 || end < start {
		return model.ParticipationInterval{}, false
	}
	return model.ParticipationInterval{
		PlayerID: model.PlayerID(player),
		TeamID:   model.TeamID(team),
		Period:   period,
		Start:    start,
		End:      end,
	}, true
}
