// Package aggregator folds attributed shot events into per-player counters
// and finalizes them into published statistics.
package aggregator

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-nhl-metrics/internal/attribution"
	"github.com/pable/go-nhl-metrics/internal/model"
	"github.com/pable/go-nhl-metrics/internal/normalize"
	"github.com/pable/go-nhl-metrics/internal/telemetry"
	"github.com/pable/go-nhl-metrics/internal/xg"
)

// Defaults for the policy values an Aggregator is built with.
const (
	DefaultMinGames    = 3
	DefaultConcurrency = 4
)

// qualityPlaces is the precision each event's probability is fixed to before
// it enters a decimal sum.
const qualityPlaces = 6

// ErrNoData is recorded for an Input that carries neither a payload nor a game.
var ErrNoData = errors.New("no data for game")

// Accumulators maps each player seen in a pass to their running counters.
type Accumulators map[model.PlayerID]*model.PlayerAccumulator

func (a Accumulators) get(id model.PlayerID) *model.PlayerAccumulator {
	acc, ok := a[id]
	if !ok {
		acc = model.NewPlayerAccumulator(id)
		a[id] = acc
	}
	return acc
}

// Merge adds every accumulator of src into dst.
func Merge(dst, src Accumulators) {
	for id, acc := range src {
		dst.get(id).Merge(acc)
	}
}

// Input is one game handed to the aggregator: either a raw payload still to
// be normalized or an already normalized game. ID labels the manifest entry
// when normalization fails.
type Input struct {
	ID      string
	Payload *normalize.Payload
	Game    *model.Game
}

// RawInput wraps an unnormalized payload.
func RawInput(id string, p normalize.Payload) Input { return Input{ID: id, Payload: &p} }

// GameInput wraps a normalized game.
func GameInput(g *model.Game) Input { return Input{ID: g.ID, Game: g} }

// Aggregator runs accumulation passes with a fixed quality model and policy.
type Aggregator struct {
	model       *xg.Model
	highDanger  float64
	minGames    int
	concurrency int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithHighDangerDistance sets the distance under which an attempt counts as
// high danger.
func WithHighDangerDistance(d float64) Option { return func(a *Aggregator) { a.highDanger = d } }

// WithMinGames sets the minimum distinct games for a player to be published.
func WithMinGames(n int) Option { return func(a *Aggregator) { a.minGames = n } }

// WithConcurrency bounds the number of games processed at once by Run.
func WithConcurrency(n int) Option { return func(a *Aggregator) { a.concurrency = n } }

// New returns an Aggregator scoring shots with m (xg.Default when nil).
func New(m *xg.Model, opts ...Option) *Aggregator {
	if m == nil {
		m = xg.Default()
	}
	a := &Aggregator{
		model:       m,
		highDanger:  xg.DefaultHighDangerDistance,
		minGames:    DefaultMinGames,
		concurrency: DefaultConcurrency,
	}
	for _, o := range opts {
		o(a)
	}
	if a.concurrency < 1 {
		a.concurrency = 1
	}
	return a
}

// MinGames is the publication threshold this aggregator finalizes with.
func (a *Aggregator) MinGames() int { return a.minGames }

// Quality scores ev as a fixed-precision decimal.
func (a *Aggregator) Quality(ev *model.ShotEvent) decimal.Decimal {
	return decimal.NewFromFloat(a.model.Shot(ev)).Round(qualityPlaces)
}

// Fold credits ev to every participant: on-ice for/against counters for all
// of them, and the individual counters for the shooter and assisting players.
func Fold(accs Accumulators, gameID string, ev *model.ShotEvent, participants []attribution.Participant, quality decimal.Decimal, highDanger bool) {
	for _, p := range participants {
		acc := accs.get(p.PlayerID)
		acc.TeamID = p.TeamID
		acc.Games[gameID] = struct{}{}

		if p.Side == attribution.SideFor {
			acc.AttemptsFor++
			acc.XGFor = acc.XGFor.Add(quality)
			if ev.Outcome.Unblocked() {
				acc.UnblockedFor++
			}
			if ev.Outcome.OnTarget() {
				acc.OnTargetFor++
			}
			if ev.Outcome == model.OutcomeGoal {
				acc.GoalsFor++
			}
		} else {
			acc.AttemptsAgainst++
			acc.XGAgainst = acc.XGAgainst.Add(quality)
			if ev.Outcome.Unblocked() {
				acc.UnblockedAgainst++
			}
			if ev.Outcome.OnTarget() {
				acc.OnTargetAgainst++
			}
			if ev.Outcome == model.OutcomeGoal {
				acc.GoalsAgainst++
			}
			continue
		}

		if p.PlayerID == ev.ShooterID {
			acc.Shots++
			acc.IndividualXG = acc.IndividualXG.Add(quality)
			if ev.Outcome == model.OutcomeGoal {
				acc.Goals++
			}
			if highDanger {
				acc.HighDanger++
			}
		}
		if ev.Outcome == model.OutcomeGoal {
			for _, id := range ev.AssistIDs {
				if id == p.PlayerID {
					acc.Assists++
				}
			}
		}
	}
}

// ProcessGame normalizes in if needed and folds every shot of the game into
// accs. Nothing is folded unless the whole game succeeds.
func (a *Aggregator) ProcessGame(in Input, accs Accumulators) (res model.GameResult) {
	res.GameID = in.ID
	defer func() {
		if r := recover(); r != nil {
			res.Reason, res.Detail, res.Shots = model.SkipMalformed, fmt.Sprintf("panic: %v", r), 0
		}
	}()

	g, err := resolve(in)
	if err != nil {
		res.Reason, res.Detail = skipReason(err), err.Error()
		return res
	}
	res.GameID = g.ID
	res.Dropped = g.Skipped

	partial := make(Accumulators)
	res.Shots = a.foldGame(g, partial)
	Merge(accs, partial)
	return res
}

func (a *Aggregator) foldGame(g *model.Game, accs Accumulators) int {
	r := attribution.NewResolver(g)
	for i := range g.Shots {
		ev := &g.Shots[i]
		d, _ := xg.Geometry(ev.X, ev.Y)
		Fold(accs, g.ID, ev, r.Participants(ev), a.Quality(ev), xg.HighDanger(d, a.highDanger))
	}
	return len(g.Shots)
}

func resolve(in Input) (*model.Game, error) {
	switch {
	case in.Game != nil:
		return in.Game, nil
	case in.Payload != nil:
		return normalize.Normalize(*in.Payload)
	default:
		return nil, ErrNoData
	}
}

func skipReason(err error) model.SkipReason {
	if errors.Is(err, ErrNoData) {
		return model.SkipSourceUnavailable
	}
	return model.SkipMalformed
}

// Run processes inputs concurrently, one partial accumulator map per game,
// and merges the partials. A failing game is recorded in the manifest and
// never aborts the pass. If ctx is cancelled the partial state is discarded
// and ctx's error returned.
func (a *Aggregator) Run(ctx context.Context, inputs []Input) (Accumulators, model.Manifest, error) {
	partials := make([]Accumulators, len(inputs))
	results := make([]model.GameResult, len(inputs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)
	for i := range inputs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partials[i] = make(Accumulators)
			results[i] = a.ProcessGame(inputs[i], partials[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, model.Manifest{}, err
	}

	accs := make(Accumulators)
	var m model.Manifest
	for i, res := range results {
		m.Add(res)
		if !res.OK() {
			telemetry.GamesSkipped.WithLabelValues(string(res.Reason)).Inc()
			telemetry.L().Warn("skipping game", "game", res.GameID, "reason", res.Reason, "detail", res.Detail)
			continue
		}
		telemetry.GamesProcessed.Inc()
		telemetry.EventsFolded.Add(float64(res.Shots))
		Merge(accs, partials[i])
	}
	return accs, m, nil
}
