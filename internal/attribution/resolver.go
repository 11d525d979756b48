package attribution

import "github.com/pable/go-nhl-metrics/internal/model"

// Participant is one player on the ice for an event, with the event's
// direction from that player's point of view.
type Participant struct {
	PlayerID model.PlayerID
	TeamID   model.TeamID
	Side     Side
}

// Resolver lists every on-ice participant of a game's events at once. It is
// the batch counterpart of Attribute: the work per event is proportional to
// the number of skaters listed, not to the number of players in the league.
type Resolver struct {
	home, away model.TeamID
	idx        *IntervalIndex
}

// NewResolver builds a resolver for g, indexing its shifts.
func NewResolver(g *model.Game) *Resolver {
	return &Resolver{
		home: g.HomeTeamID,
		away: g.AwayTeamID,
		idx:  NewIntervalIndex(g.Intervals),
	}
}

// Participants returns the union of both rosters for ev. A side whose
// embedded roster is empty is rebuilt from shifts; a side with neither
// contributes nobody.
func (r *Resolver) Participants(ev *model.ShotEvent) []Participant {
	home := ev.HomeOnIce
	if len(home) == 0 {
		home = r.idx.OnIceAt(r.home, ev.Period, ev.Elapsed)
	}
	away := ev.AwayOnIce
	if len(away) == 0 {
		away = r.idx.OnIceAt(r.away, ev.Period, ev.Elapsed)
	}

	out := make([]Participant, 0, len(home)+len(away))
	seen := make(map[model.PlayerID]struct{}, len(home)+len(away))
	add := func(ids []model.PlayerID, team model.TeamID) {
		side := SideOf(ev, team)
		for _, id := range ids {
			if id == 0 {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, Participant{PlayerID: id, TeamID: team, Side: side})
		}
	}
	add(home, r.home)
	add(away, r.away)
	return out
}
