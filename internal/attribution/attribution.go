// Package attribution decides which players were on the ice for a shot
// attempt, from the embedded rosters when the feed has them and from shift
// overlap otherwise. Missing data always resolves to "not on ice".
package attribution

import (
	"sort"

	"github.com/pable/go-nhl-metrics/internal/model"
)

// Side is the direction of an event relative to a player.
type Side int

const (
	SideFor     Side = 1
	SideAgainst Side = 2
)

func (s Side) String() string {
	switch s {
	case SideFor:
		return "for"
	case SideAgainst:
		return "against"
	default:
		return "?"
	}
}

// SideOf returns SideFor when the event belongs to team, else SideAgainst.
func SideOf(ev *model.ShotEvent, team model.TeamID) Side {
	if ev.TeamID == team {
		return SideFor
	}
	return SideAgainst
}

// Attribution is the answer for one (event, player) pair.
type Attribution struct {
	OnIce bool
	Side  Side
}

type shiftKey struct {
	player model.PlayerID
	period int
}

type span struct{ start, end int }

// IntervalIndex answers shift-overlap queries. Overlapping or duplicated
// shifts for the same player are tolerated.
type IntervalIndex struct {
	byPlayer map[shiftKey][]span
	byPeriod map[int][]model.ParticipationInterval
}

// NewIntervalIndex indexes shifts. Shifts with End < Start are ignored.
func NewIntervalIndex(shifts []model.ParticipationInterval) *IntervalIndex {
	idx := &IntervalIndex{
		byPlayer: make(map[shiftKey][]span),
		byPeriod: make(map[int][]model.ParticipationInterval),
	}
	for _, s := range shifts {
		if s.End < s.Start || s.PlayerID == 0 {
			continue
		}
		k := shiftKey{s.PlayerID, s.Period}
		idx.byPlayer[k] = append(idx.byPlayer[k], span{s.Start, s.End})
		idx.byPeriod[s.Period] = append(idx.byPeriod[s.Period], s)
	}
	for k := range idx.byPlayer {
		spans := idx.byPlayer[k]
		sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	}
	return idx
}

// Len returns the number of indexed shifts.
func (idx *IntervalIndex) Len() int {
	if idx == nil {
		return 0
	}
	n := 0
	for _, s := range idx.byPeriod {
		n += len(s)
	}
	return n
}

// Covers reports whether player had a shift in period spanning t, bounds
// inclusive. A nil index covers nothing.
func (idx *IntervalIndex) Covers(player model.PlayerID, period, t int) bool {
	if idx == nil {
		return false
	}
	for _, s := range idx.byPlayer[shiftKey{player, period}] {
		if s.start > t {
			break
		}
		if t <= s.end {
			return true
		}
	}
	return false
}

// OnIceAt returns the players of team whose shifts span t in period, in
// ascending id order without duplicates.
func (idx *IntervalIndex) OnIceAt(team model.TeamID, period, t int) []model.PlayerID {
	if idx == nil {
		return nil
	}
	seen := make(map[model.PlayerID]struct{})
	var out []model.PlayerID
	for _, s := range idx.byPeriod[period] {
		if s.TeamID != team || t < s.Start || t > s.End {
			continue
		}
		if _, dup := seen[s.PlayerID]; dup {
			continue
		}
		seen[s.PlayerID] = struct{}{}
		out = append(out, s.PlayerID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Attribute resolves whether player (of team, home side when isHome) was on
// the ice for ev. The embedded roster for the player's side wins whenever it
// is non-empty; otherwise shifts decide; with neither the answer is false.
func Attribute(ev *model.ShotEvent, player model.PlayerID, team model.TeamID, isHome bool, idx *IntervalIndex) Attribution {
	roster := ev.AwayOnIce
	if isHome {
		roster = ev.HomeOnIce
	}
	a := Attribution{Side: SideOf(ev, team)}
	if len(roster) > 0 {
		a.OnIce = contains(roster, player)
		return a
	}
	a.OnIce = idx.Covers(player, ev.Period, ev.Elapsed)
	return a
}

func contains(ids []model.PlayerID, id model.PlayerID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
