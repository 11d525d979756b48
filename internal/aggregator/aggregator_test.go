package aggregator

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/pable/go-nhl-metrics/internal/model"
	"github.com/pable/go-nhl-metrics/internal/normalize"
)

const (
	home model.TeamID = 10
	away model.TeamID = 20

	h1 model.PlayerID = 101
	h2 model.PlayerID = 102
	a1 model.PlayerID = 201
	a2 model.PlayerID = 202
)

var (
	homeLine = []model.PlayerID{h1, h2}
	awayLine = []model.PlayerID{a1, a2}
)

// makeShot builds an attempt with both rosters embedded.
func makeShot(team model.TeamID, shooter model.PlayerID, outcome model.Outcome) model.ShotEvent {
	return model.ShotEvent{
		Period: 1, Elapsed: 60, X: 70, Y: 5,
		Technique: model.TechniqueWrist, Outcome: outcome,
		ShooterID: shooter, TeamID: team,
		HomeOnIce: homeLine, AwayOnIce: awayLine,
	}
}

func makeGame(id string, shots ...model.ShotEvent) *model.Game {
	return &model.Game{ID: id, Date: "2024-01-0" + id, HomeTeamID: home, AwayTeamID: away, Shots: shots}
}

func stat(t *testing.T, stats []model.PlayerStats, id model.PlayerID) model.PlayerStats {
	t.Helper()
	for _, s := range stats {
		if s.PlayerID == id {
			return s
		}
	}
	t.Fatalf("player %d not in results", id)
	return model.PlayerStats{}
}

// ---- Fold ----

func TestProcessGame_CountersBySide(t *testing.T) {
	goal := makeShot(home, h1, model.OutcomeGoal)
	goal.AssistIDs = []model.PlayerID{h2}
	g := makeGame("1",
		goal,
		makeShot(home, h2, model.OutcomeBlocked),
		makeShot(away, a1, model.OutcomeMissed),
	)

	agg := New(nil)
	accs := make(Accumulators)
	if res := agg.ProcessGame(GameInput(g), accs); !res.OK() || res.Shots != 3 {
		t.Fatalf("unexpected result %+v", res)
	}

	acc := accs[h1]
	if acc.AttemptsFor != 2 || acc.UnblockedFor != 1 || acc.OnTargetFor != 1 || acc.GoalsFor != 1 {
		t.Errorf("h1 on-ice for: %+v", acc)
	}
	if acc.AttemptsAgainst != 1 || acc.UnblockedAgainst != 1 || acc.OnTargetAgainst != 0 {
		t.Errorf("h1 on-ice against: %+v", acc)
	}
	if acc.Shots != 1 || acc.Goals != 1 || acc.Assists != 0 || !acc.IndividualXG.IsPositive() {
		t.Errorf("h1 individual: %+v", acc)
	}
	if accs[h2].Assists != 1 || accs[h2].Shots != 1 || accs[h2].Goals != 0 {
		t.Errorf("h2 individual: %+v", accs[h2])
	}
	if a := accs[a1]; a.GoalsAgainst != 1 || a.AttemptsFor != 1 || a.UnblockedFor != 1 || a.Shots != 1 {
		t.Errorf("a1: %+v", a)
	}
	if !accs[h1].XGFor.Equal(accs[a2].XGAgainst) {
		t.Errorf("for/against quality must mirror: %s vs %s", accs[h1].XGFor, accs[a2].XGAgainst)
	}
}

func TestProcessGame_HighDanger(t *testing.T) {
	near := makeShot(home, h1, model.OutcomeSaved)
	near.X, near.Y = 80, 0
	far := makeShot(home, h1, model.OutcomeSaved)
	far.X, far.Y = 30, 0

	accs := make(Accumulators)
	New(nil).ProcessGame(GameInput(makeGame("1", near, far)), accs)
	if accs[h1].HighDanger != 1 {
		t.Errorf("want 1 high-danger attempt, got %d", accs[h1].HighDanger)
	}
	if !accs[h1].IndividualXG.Equal(accs[h1].XGFor) {
		t.Errorf("shooter on every attempt: individual xG %s should equal on-ice %s", accs[h1].IndividualXG, accs[h1].XGFor)
	}
}

func TestProcessGame_ShiftFallback(t *testing.T) {
	ev := makeShot(home, h1, model.OutcomeSaved)
	ev.HomeOnIce, ev.AwayOnIce = nil, nil
	g := makeGame("1", ev)
	g.Intervals = []model.ParticipationInterval{
		{PlayerID: h1, TeamID: home, Period: 1, Start: 0, End: 60},
		{PlayerID: a1, TeamID: away, Period: 1, Start: 60, End: 90},
		{PlayerID: a2, TeamID: away, Period: 1, Start: 61, End: 90},
	}

	accs := make(Accumulators)
	New(nil).ProcessGame(GameInput(g), accs)
	if len(accs) != 2 {
		t.Fatalf("want h1 and a1 only, got %d accumulators", len(accs))
	}
	if accs[h1].AttemptsFor != 1 || accs[a1].AttemptsAgainst != 1 {
		t.Errorf("boundary shifts must count: h1=%+v a1=%+v", accs[h1], accs[a1])
	}
}

func TestProcessGame_NoRosterNoShiftsCreditsNobody(t *testing.T) {
	ev := makeShot(home, h1, model.OutcomeGoal)
	ev.HomeOnIce, ev.AwayOnIce = nil, nil
	accs := make(Accumulators)
	New(nil).ProcessGame(GameInput(makeGame("1", ev)), accs)
	if len(accs) != 0 {
		t.Errorf("fail closed: want no accumulators, got %d", len(accs))
	}
}

// ---- Finalize ----

func TestFinalize_ZeroVolumeDefaults(t *testing.T) {
	acc := model.NewPlayerAccumulator(h1)
	for _, g := range []string{"1", "2", "3"} {
		acc.Games[g] = struct{}{}
	}
	s := stat(t, Finalize(Accumulators{h1: acc}, 3), h1)
	if s.CFPct != 50 || s.FFPct != 50 || s.XGFPct != 50 {
		t.Errorf("shares with no attempts must be 50, got %+v", s)
	}
	if s.ShPct != 0 || s.SvPct != 100 || s.PDO != 100 {
		t.Errorf("want Sh%%=0 Sv%%=100 PDO=100, got %v %v %v", s.ShPct, s.SvPct, s.PDO)
	}
}

func TestFinalize_Ratios(t *testing.T) {
	acc := model.NewPlayerAccumulator(h1)
	acc.Games["1"] = struct{}{}
	acc.AttemptsFor, acc.AttemptsAgainst = 3, 1
	acc.UnblockedFor, acc.UnblockedAgainst = 2, 1
	acc.OnTargetFor, acc.GoalsFor = 3, 1
	acc.OnTargetAgainst, acc.GoalsAgainst = 8, 1

	s := stat(t, Finalize(Accumulators{h1: acc}, 1), h1)
	for name, tc := range map[string]struct{ got, want float64 }{
		"CF%": {s.CFPct, 75},
		"FF%": {s.FFPct, 66.7},
		"Sh%": {s.ShPct, 33.3},
		"Sv%": {s.SvPct, 87.5},
		"PDO": {s.PDO, 120.8},
	} {
		if tc.got != tc.want {
			t.Errorf("%s: want %v, got %v", name, tc.want, tc.got)
		}
	}
}

func TestFinalize_MinGames(t *testing.T) {
	agg := New(nil)
	accs := make(Accumulators)
	for _, id := range []string{"1", "2"} {
		agg.ProcessGame(GameInput(makeGame(id, makeShot(home, h1, model.OutcomeSaved))), accs)
	}
	for _, s := range Finalize(accs, 3) {
		if s.PlayerID == h1 {
			t.Fatal("player with 2 games must be excluded at minimum 3")
		}
	}

	agg.ProcessGame(GameInput(makeGame("3", makeShot(away, a1, model.OutcomeMissed))), accs)
	s := stat(t, Finalize(accs, 3), h1)
	if s.GamesPlayed != 3 {
		t.Errorf("want 3 games, got %d", s.GamesPlayed)
	}
}

// ---- Merge ----

func TestMerge_MatchesSinglePass(t *testing.T) {
	gA := makeGame("1", makeShot(home, h1, model.OutcomeGoal), makeShot(away, a2, model.OutcomeBlocked))
	gB := makeGame("2", makeShot(away, a1, model.OutcomeSaved), makeShot(home, h2, model.OutcomeMissed))
	agg := New(nil)

	together := make(Accumulators)
	agg.ProcessGame(GameInput(gA), together)
	agg.ProcessGame(GameInput(gB), together)

	partA, partB := make(Accumulators), make(Accumulators)
	agg.ProcessGame(GameInput(gA), partA)
	agg.ProcessGame(GameInput(gB), partB)
	merged := make(Accumulators)
	Merge(merged, partB)
	Merge(merged, partA)

	if got, want := Finalize(merged, 0), Finalize(together, 0); !reflect.DeepEqual(got, want) {
		t.Errorf("merged pass differs from single pass:\n got %+v\nwant %+v", got, want)
	}
}

// ---- Run ----

func TestRun_ManifestRecordsSkips(t *testing.T) {
	inputs := []Input{
		GameInput(makeGame("1", makeShot(home, h1, model.OutcomeSaved))),
		RawInput("2", normalize.NewPayload([]byte(`{"nope": true}`))),
		{ID: "3"},
		GameInput(makeGame("4", makeShot(home, h1, model.OutcomeSaved))),
	}
	accs, m, err := New(nil, WithConcurrency(2)).Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := m.Processed(); !reflect.DeepEqual(got, []string{"1", "4"}) {
		t.Errorf("processed: %v", got)
	}
	if r, _ := m.Lookup("2"); r.Reason != model.SkipMalformed {
		t.Errorf("game 2: want malformed, got %+v", r)
	}
	if r, _ := m.Lookup("3"); r.Reason != model.SkipSourceUnavailable {
		t.Errorf("game 3: want source_unavailable, got %+v", r)
	}
	if accs[h1].AttemptsFor != 2 || accs[h1].GamesPlayed() != 2 {
		t.Errorf("h1: %+v", accs[h1])
	}
}

func TestRun_CancelledDiscardsState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	accs, _, err := New(nil).Run(ctx, []Input{GameInput(makeGame("1", makeShot(home, h1, model.OutcomeSaved)))})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if accs != nil {
		t.Error("cancelled run must not return accumulators")
	}
}

// ---- Per-game series ----

func TestPerGameMetrics(t *testing.T) {
	goal := makeShot(home, h1, model.OutcomeGoal)
	goal.AssistIDs = []model.PlayerID{h2}
	rows := New(nil).PerGameMetrics(makeGame("1", goal, makeShot(away, a1, model.OutcomeSaved)))
	if len(rows) != 4 {
		t.Fatalf("want 4 rows, got %d", len(rows))
	}
	if rows[0].PlayerID != h1 || rows[0].Goals != 1 || rows[0].Points != 1 || rows[0].CF != 1 || rows[0].CA != 1 {
		t.Errorf("h1 row: %+v", rows[0])
	}
	if rows[1].PlayerID != h2 || rows[1].Assists != 1 || rows[1].Points != 1 {
		t.Errorf("h2 row: %+v", rows[1])
	}
	if rows[2].GA != 1 || rows[2].SA != 1 || rows[2].SF != 1 || rows[2].Date != "2024-01-01" {
		t.Errorf("a1 row: %+v", rows[2])
	}
}
