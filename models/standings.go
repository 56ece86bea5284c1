package models

import (
	"time"
)

// StandingsRow is one participant's line in a session's live standings.
// Wins/Losses/Pushes cover picks on final games only; Pending counts
// picks on games that have started but are not final; Missed counts
// locked games the participant never picked. Each missed game folds a
// display-only loss into the Losses column — that inferred loss lives in
// this derived view and is never written to the ledger.
type StandingsRow struct {
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Pushes    int     `json:"pushes"`
	Pending   int     `json:"pending"`
	Missed    int     `json:"missed"`
	PicksMade int     `json:"picks_made"`
	WinPct    float64 `json:"win_pct"`
}

// Decided returns the number of decided (win or loss) picks the user
// actually made. The derived missed-pick losses are excluded: a
// participant who never picked sorts as having nothing decided.
func (r *StandingsRow) Decided() int {
	return r.Wins + r.Losses - r.Missed
}

// Standings is the derived leaderboard view for one session.
type Standings struct {
	SessionID  string         `json:"session_id"`
	ComputedAt time.Time      `json:"computed_at"`
	Rows       []StandingsRow `json:"rows"`
}

// Clone returns a copy with its own rows slice.
func (s *Standings) Clone() *Standings {
	clone := *s
	clone.Rows = append([]StandingsRow(nil), s.Rows...)
	return &clone
}
