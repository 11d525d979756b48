// Package normalize turns raw play-by-play payloads into the canonical
// model.Game. Two feed shapes are accepted and told apart once, here; nothing
// downstream sees anything but model types.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pable/go-nhl-metrics/internal/model"
	"github.com/pable/go-nhl-metrics/internal/telemetry"
)

var (
	// ErrUnrecognizedPayload is returned for input matching neither feed shape.
	ErrUnrecognizedPayload = errors.New("unrecognized payload")
	// ErrIncompleteGame is returned when the game id or either team is missing.
	ErrIncompleteGame = errors.New("incomplete game header")
)

// Kind discriminates the raw payload shapes.
type Kind int

const (
	KindUnknown Kind = iota
	// KindGameCenter is the structured feed: a "plays" array whose records
	// carry typed "details" and on-ice rosters.
	KindGameCenter
	// KindPlayList is the legacy feed: a flat "allPlays" list of generic
	// play records with embedded coordinates and participants.
	KindPlayList
)

func (k Kind) String() string {
	switch k {
	case KindGameCenter:
		return "gamecenter"
	case KindPlayList:
		return "playlist"
	default:
		return "unknown"
	}
}

// Payload is one game's raw play-by-play tagged with its shape.
type Payload struct {
	Kind Kind
	Raw  []byte
}

// NewPayload detects the shape of raw and wraps it.
func NewPayload(raw []byte) Payload {
	return Payload{Kind: Detect(raw), Raw: raw}
}

// Detect inspects raw once and reports its shape.
func Detect(raw []byte) Kind {
	if !gjson.ValidBytes(raw) {
		return KindUnknown
	}
	if gjson.GetBytes(raw, "plays").IsArray() {
		return KindGameCenter
	}
	if gjson.GetBytes(raw, "allPlays").IsArray() || gjson.GetBytes(raw, "liveData.plays.allPlays").IsArray() {
		return KindPlayList
	}
	return KindUnknown
}

// Normalize converts p into a canonical game. Individual malformed plays or
// shifts are skipped and counted in Game.Skipped; only an unreadable payload
// or a missing game header is an error.
func Normalize(p Payload) (*model.Game, error) {
	var (
		g   *model.Game
		err error
	)
	switch p.Kind {
	case KindGameCenter:
		g, err = normalizeGameCenter(p.Raw)
	case KindPlayList:
		g, err = normalizePlayList(p.Raw)
	default:
		return nil, ErrUnrecognizedPayload
	}
	if err != nil {
		return nil, err
	}
	if g.ID == "" || g.ID == "0" || g.HomeTeamID == 0 || g.AwayTeamID == 0 {
		return nil, fmt.Errorf("%w: id=%q home=%d away=%d", ErrIncompleteGame, g.ID, g.HomeTeamID, g.AwayTeamID)
	}
	if g.Skipped > 0 {
		telemetry.RecordsDropped.Add(float64(g.Skipped))
	}
	return g, nil
}

// WithShifts decodes a separate shift feed and attaches it to g.
func WithShifts(g *model.Game, raw []byte) {
	shifts, dropped := ParseShifts(raw)
	g.Intervals = append(g.Intervals, shifts...)
	g.Skipped += dropped
	if dropped > 0 {
		telemetry.RecordsDropped.Add(float64(dropped))
	}
}

// parseClock converts "mm:ss" (or a bare number of seconds) to seconds.
func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	mm, ss, found := strings.Cut(s, ":")
	if !found {
		n, err := strconv.Atoi(s)
		return n, err == nil && n >= 0
	}
	m, err1 := strconv.Atoi(mm)
	sec, err2 := strconv.Atoi(ss)
	if err1 != nil || err2 != nil || m < 0 || sec < 0 || sec >= 60 {
		return 0, false
	}
	return m*60 + sec, true
}

// ParseTechnique maps a feed shot-type label to a Technique.
func ParseTechnique(s string) model.Technique {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, " shot")
	switch s {
	case "wrist", "direct":
		return model.TechniqueWrist
	case "snap":
		return model.TechniqueSnap
	case "slap":
		return model.TechniqueSlap
	case "backhand":
		return model.TechniqueBackhand
	case "tip-in", "tip in", "tip":
		return model.TechniqueTipIn
	case "deflected", "deflection":
		return model.TechniqueDeflected
	case "wrap-around", "wrap around", "wraparound":
		return model.TechniqueWrapAround
	default:
		return model.TechniqueOther
	}
}

// outcomeFor maps an event type key from either feed to an Outcome.
// Non-shot events map to OutcomeUnknown.
func outcomeFor(typeKey string) model.Outcome {
	switch strings.ToLower(strings.ReplaceAll(typeKey, "_", "-")) {
	case "goal":
		return model.OutcomeGoal
	case "shot-on-goal", "shot":
		return model.OutcomeSaved
	case "missed-shot":
		return model.OutcomeMissed
	case "blocked-shot":
		return model.OutcomeBlocked
	default:
		return model.OutcomeUnknown
	}
}

// situationManpower reads a four-digit situation code (away goalie, away
// skaters, home skaters, home goalie) from the shooting side's view. A play
// without a code is even strength, the same as an unlabelled legacy play;
// a code of any other shape is unknown.
func situationManpower(code string, shooterIsHome bool) model.Manpower {
	switch len(code) {
	case 0:
		return model.ManpowerEven
	case 4:
	default:
		return model.ManpowerOther
	}
	d := make([]int, 4)
	for i := range code {
		if code[i] < '0' || code[i] > '9' {
			return model.ManpowerOther
		}
		d[i] = int(code[i] - '0')
	}
	awayGoalie, awaySkaters, homeSkaters, homeGoalie := d[0], d[1], d[2], d[3]
	if awayGoalie == 0 || homeGoalie == 0 {
		return model.ManpowerOther
	}
	own, opp := awaySkaters, homeSkaters
	if shooterIsHome {
		own, opp = homeSkaters, awaySkaters
	}
	switch {
	case own > opp:
		return model.ManpowerAdvantage
	case own < opp:
		return model.ManpowerDisadvantage
	default:
		return model.ManpowerEven
	}
}

// strengthManpower maps a legacy strength label. An absent label is even
// strength: the legacy feed only labels goals.
func strengthManpower(code string) model.Manpower {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "", "EVEN", "EV":
		return model.ManpowerEven
	case "PPG", "PP":
		return model.ManpowerAdvantage
	case "SHG", "SH":
		return model.ManpowerDisadvantage
	default:
		return model.ManpowerOther
	}
}

// playerIDs reads an array of ids that may be bare numbers or objects with
// a playerId / id field. Zero ids are dropped.
func playerIDs(r gjson.Result) []model.PlayerID {
	if !r.IsArray() {
		return nil
	}
	var out []model.PlayerID
	r.ForEach(func(_, v gjson.Result) bool {
		var id int64
		switch {
		case v.Type == gjson.Number:
			id = v.Int()
		case v.IsObject():
			id = v.Get("playerId").Int()
			if id == 0 {
				id = v.Get("id").Int()
			}
		}
		if id != 0 {
			out = append(out, model.PlayerID(id))
		}
		return true
	})
	return out
}
