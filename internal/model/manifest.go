package model

// SkipReason explains why a game was left out of an aggregation pass.
type SkipReason string

const (
	SkipNone              SkipReason = ""
	SkipSourceUnavailable SkipReason = "source_unavailable"
	SkipMalformed         SkipReason = "malformed"
)

// GameResult records the outcome of loading and folding one game.
type GameResult struct {
	GameID  string     `json:"game_id"`
	Reason  SkipReason `json:"reason,omitempty"`
	Detail  string     `json:"detail,omitempty"`
	Shots   int        `json:"shots"`
	Dropped int        `json:"dropped"` // malformed records skipped inside the game

	// Partial marks a game folded without the shift data it needed.
	Partial bool `json:"partial,omitempty"`
}

// OK reports whether the game contributed to the pass.
func (r GameResult) OK() bool { return r.Reason == SkipNone }

// Manifest lists every game considered by one pass and what happened to it.
type Manifest struct {
	RunID   string       `json:"run_id"`
	Results []GameResult `json:"results"`
}

// Add appends r to the manifest.
func (m *Manifest) Add(r GameResult) { m.Results = append(m.Results, r) }

// Processed returns the ids of games that contributed.
func (m *Manifest) Processed() []string {
	var out []string
	for _, r := range m.Results {
		if r.OK() {
			out = append(out, r.GameID)
		}
	}
	return out
}

// Skipped returns the results of games that were left out.
func (m *Manifest) Skipped() []GameResult {
	var out []GameResult
	for _, r := range m.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Lookup returns the result recorded for gameID.
func (m *Manifest) Lookup(gameID string) (GameResult, bool) {
	for _, r := range m.Results {
		if r.GameID == gameID {
			return r, true
		}
	}
	return GameResult{}, false
}
