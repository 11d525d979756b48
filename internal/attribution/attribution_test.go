package attribution

import (
	"testing"

	"github.com/pable/go-nhl-metrics/internal/model"
)

const (
	home model.TeamID = 10
	away model.TeamID = 20

	homeF1 model.PlayerID = 101
	homeF2 model.PlayerID = 102
	awayF1 model.PlayerID = 201
	awayF2 model.PlayerID = 202
)

func shot(team model.TeamID, period, elapsed int, homeIce, awayIce []model.PlayerID) *model.ShotEvent {
	return &model.ShotEvent{
		Period: period, Elapsed: elapsed, X: 60, Y: 5,
		TeamID: team, ShooterID: homeF1, Outcome: model.OutcomeSaved,
		HomeOnIce: homeIce, AwayOnIce: awayIce,
	}
}

// Embedded rosters win even when shifts say otherwise.
func TestAttribute_RosterBeatsShifts(t *testing.T) {
	idx := NewIntervalIndex([]model.ParticipationInterval{
		{PlayerID: homeF2, TeamID: home, Period: 1, Start: 0, End: 600},
	})
	ev := shot(home, 1, 300, []model.PlayerID{homeF1}, []model.PlayerID{awayF1})

	if a := Attribute(ev, homeF2, home, true, idx); a.OnIce {
		t.Error("homeF2 is not in the roster: expected off ice despite covering shift")
	}
	if a := Attribute(ev, homeF1, home, true, idx); !a.OnIce || a.Side != SideFor {
		t.Errorf("homeF1: want on ice / for, got %+v", a)
	}
	if a := Attribute(ev, awayF1, away, false, nil); !a.OnIce || a.Side != SideAgainst {
		t.Errorf("awayF1: want on ice / against, got %+v", a)
	}
}

func TestAttribute_ShiftFallbackInclusiveBounds(t *testing.T) {
	idx := NewIntervalIndex([]model.ParticipationInterval{
		{PlayerID: awayF1, TeamID: away, Period: 2, Start: 100, End: 145},
	})
	for _, tc := range []struct {
		elapsed int
		want    bool
	}{
		{99, false}, {100, true}, {120, true}, {145, true}, {146, false},
	} {
		ev := shot(home, 2, tc.elapsed, nil, nil)
		if got := Attribute(ev, awayF1, away, false, idx).OnIce; got != tc.want {
			t.Errorf("t=%d: want %v, got %v", tc.elapsed, tc.want, got)
		}
	}
}

func TestAttribute_WrongPeriodIsOffIce(t *testing.T) {
	idx := NewIntervalIndex([]model.ParticipationInterval{
		{PlayerID: awayF1, TeamID: away, Period: 1, Start: 0, End: 1200},
	})
	if Attribute(shot(home, 2, 50, nil, nil), awayF1, away, false, idx).OnIce {
		t.Error("shift in period 1 must not cover an event in period 2")
	}
}

// No roster and no shifts: fail closed.
func TestAttribute_NoDataFailsClosed(t *testing.T) {
	ev := shot(away, 1, 30, nil, nil)
	a := Attribute(ev, homeF1, home, true, nil)
	if a.OnIce {
		t.Error("expected not on ice without any attribution data")
	}
	if a.Side != SideAgainst {
		t.Errorf("expected against, got %v", a.Side)
	}
	if Attribute(ev, homeF1, home, true, NewIntervalIndex(nil)).OnIce {
		t.Error("expected not on ice with an empty index")
	}
}

// Overlapping and inverted shifts must not panic or mislead.
func TestIntervalIndex_ToleratesBadShifts(t *testing.T) {
	idx := NewIntervalIndex([]model.ParticipationInterval{
		{PlayerID: homeF1, TeamID: home, Period: 1, Start: 0, End: 60},
		{PlayerID: homeF1, TeamID: home, Period: 1, Start: 30, End: 90},
		{PlayerID: homeF1, TeamID: home, Period: 1, Start: 500, End: 400},
	})
	if idx.Len() != 2 {
		t.Errorf("inverted shift should be dropped: want 2, got %d", idx.Len())
	}
	if !idx.Covers(homeF1, 1, 75) {
		t.Error("expected coverage by the second overlapping shift")
	}
	if idx.Covers(homeF1, 1, 450) {
		t.Error("inverted shift must not cover anything")
	}
	if got := idx.OnIceAt(home, 1, 45); len(got) != 1 || got[0] != homeF1 {
		t.Errorf("OnIceAt should deduplicate overlapping shifts, got %v", got)
	}
}

func TestResolver_UnionOfRosters(t *testing.T) {
	g := &model.Game{ID: "g1", HomeTeamID: home, AwayTeamID: away}
	r := NewResolver(g)
	ev := shot(away, 1, 10, []model.PlayerID{homeF1, homeF2}, []model.PlayerID{awayF1})

	ps := r.Participants(ev)
	if len(ps) != 3 {
		t.Fatalf("want 3 participants, got %d", len(ps))
	}
	for _, p := range ps {
		want := SideAgainst
		if p.TeamID == away {
			want = SideFor
		}
		if p.Side != want {
			t.Errorf("player %d: want %v, got %v", p.PlayerID, want, p.Side)
		}
	}
}

// A side without an embedded roster is rebuilt from shifts; the other keeps
// its roster.
func TestResolver_RebuildsMissingSideFromShifts(t *testing.T) {
	g := &model.Game{
		ID: "g1", HomeTeamID: home, AwayTeamID: away,
		Intervals: []model.ParticipationInterval{
			{PlayerID: awayF1, TeamID: away, Period: 1, Start: 0, End: 40},
			{PlayerID: awayF2, TeamID: away, Period: 1, Start: 41, End: 90},
			{PlayerID: homeF2, TeamID: home, Period: 1, Start: 0, End: 90},
		},
	}
	r := NewResolver(g)
	ev := shot(home, 1, 40, []model.PlayerID{homeF1}, nil)

	got := map[model.PlayerID]bool{}
	for _, p := range r.Participants(ev) {
		got[p.PlayerID] = true
	}
	if !got[homeF1] || got[homeF2] {
		t.Errorf("home side should come from the roster only, got %v", got)
	}
	if !got[awayF1] || got[awayF2] {
		t.Errorf("away side should come from shifts at t=40, got %v", got)
	}
}

func TestResolver_NoDataNoParticipants(t *testing.T) {
	r := NewResolver(&model.Game{ID: "g", HomeTeamID: home, AwayTeamID: away})
	if ps := r.Participants(shot(home, 1, 5, nil, nil)); len(ps) != 0 {
		t.Errorf("want no participants, got %v", ps)
	}
}
