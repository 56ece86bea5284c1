package models

import (
	"time"
)

// SessionKind distinguishes the shared daily session from personal ones.
type SessionKind string

const (
	SessionKindGlobal   SessionKind = "global"
	SessionKindPersonal SessionKind = "personal"
)

// IsValid returns true for the recognized session kinds.
func (k SessionKind) IsValid() bool {
	return k == SessionKindGlobal || k == SessionKindPersonal
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

// SessionResult is one participant's frozen record for a closed session.
// It is written exactly once at close time from a from-scratch
// recomputation over the full game set, and reopening a session subtracts
// exactly these numbers from the ledger. It carries the double-down
// counters so that the reversal can undo them too.
type SessionResult struct {
	Wins             int  `json:"wins" bson:"wins"`
	Losses           int  `json:"losses" bson:"losses"`
	Pushes           int  `json:"pushes" bson:"pushes"`
	MissedPicks      int  `json:"missed_picks" bson:"missed_picks"`
	DoubleDownWins   int  `json:"double_down_wins" bson:"double_down_wins"`
	DoubleDownLosses int  `json:"double_down_losses" bson:"double_down_losses"`
	DoubleDownPushes int  `json:"double_down_pushes" bson:"double_down_pushes"`
	DoubleDownUsed   bool `json:"double_down_used" bson:"double_down_used"`
}

// Delta converts the frozen result into the grading delta it represents.
func (r SessionResult) Delta() StatDelta {
	return StatDelta{
		Wins:             r.Wins,
		Losses:           r.Losses,
		Pushes:           r.Pushes,
		DoubleDownWins:   r.DoubleDownWins,
		DoubleDownLosses: r.DoubleDownLosses,
		DoubleDownPushes: r.DoubleDownPushes,
	}
}

// Session is one batch of games open for picks, with its own lifecycle.
type Session struct {
	ID            string                   `json:"id" bson:"_id"`
	Date          time.Time                `json:"date" bson:"date"`
	Kind          SessionKind              `json:"kind" bson:"kind"`
	OwnerID       string                   `json:"owner_id,omitempty" bson:"owner_id,omitempty"`
	SeasonID      string                   `json:"season_id,omitempty" bson:"season_id,omitempty"`
	Status        SessionStatus            `json:"status" bson:"status"`
	Games         []Game                   `json:"games" bson:"games"`
	Participants  []string                 `json:"participants" bson:"participants"`
	Picks         map[string][]Pick        `json:"picks" bson:"picks"`
	GradedGames   map[string]bool          `json:"graded_games,omitempty" bson:"graded_games,omitempty"`
	ClosedResults map[string]SessionResult `json:"closed_results,omitempty" bson:"closed_results,omitempty"`
	CreatedAt     time.Time                `json:"created_at" bson:"created_at"`
	ClosedAt      *time.Time               `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
}

// IsActive returns true while the session accepts picks and grading.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// MonthKey returns the ledger month bucket this session belongs to,
// derived from the session date.
func (s *Session) MonthKey() string {
	return MonthKey(s.Date)
}

// FindGame returns the game with the given ID, or nil.
func (s *Session) FindGame(gameID string) *Game {
	for i := range s.Games {
		if s.Games[i].ID == gameID {
			return &s.Games[i]
		}
	}
	return nil
}

// PickFor returns the user's pick on the given game, or nil.
func (s *Session) PickFor(userID, gameID string) *Pick {
	picks := s.Picks[userID]
	for i := range picks {
		if picks[i].GameID == gameID {
			return &picks[i]
		}
	}
	return nil
}

// DoubleDownPick returns the user's double-down pick in this session, or nil.
func (s *Session) DoubleDownPick(userID string) *Pick {
	picks := s.Picks[userID]
	for i := range picks {
		if picks[i].DoubleDown {
			return &picks[i]
		}
	}
	return nil
}

// SetPick records a pick, replacing any prior pick for the same game.
func (s *Session) SetPick(userID string, pick Pick) {
	if s.Picks == nil {
		s.Picks = make(map[string][]Pick)
	}
	picks := s.Picks[userID]
	for i := range picks {
		if picks[i].GameID == pick.GameID {
			picks[i] = pick
			return
		}
	}
	s.Picks[userID] = append(picks, pick)
}

// IsGraded reports whether a game's deltas are currently in the ledger.
// Reopening a session clears this record, so a later close knows to
// apply every game's deltas again.
func (s *Session) IsGraded(gameID string) bool {
	return s.GradedGames[gameID]
}

// MarkGraded records that a game's deltas have been applied.
func (s *Session) MarkGraded(gameID string) {
	if s.GradedGames == nil {
		s.GradedGames = make(map[string]bool)
	}
	s.GradedGames[gameID] = true
}

// IsParticipant returns true if the user is registered in this session.
func (s *Session) IsParticipant(userID string) bool {
	for _, id := range s.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// AddParticipant registers a user if not already present.
func (s *Session) AddParticipant(userID string) {
	if !s.IsParticipant(userID) {
		s.Participants = append(s.Participants, userID)
	}
}

// AllGamesFinal returns true once every game has a final result.
func (s *Session) AllGamesFinal() bool {
	for i := range s.Games {
		if !s.Games[i].IsFinal() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := *s

	clone.Games = make([]Game, len(s.Games))
	for i := range s.Games {
		clone.Games[i] = *s.Games[i].Clone()
	}

	clone.Participants = append([]string(nil), s.Participants...)

	clone.Picks = make(map[string][]Pick, len(s.Picks))
	for userID, picks := range s.Picks {
		clone.Picks[userID] = append([]Pick(nil), picks...)
	}

	if s.GradedGames != nil {
		clone.GradedGames = make(map[string]bool, len(s.GradedGames))
		for gameID, graded := range s.GradedGames {
			clone.GradedGames[gameID] = graded
		}
	}

	if s.ClosedResults != nil {
		clone.ClosedResults = make(map[string]SessionResult, len(s.ClosedResults))
		for userID, result := range s.ClosedResults {
			clone.ClosedResults[userID] = result
		}
	}

	if s.ClosedAt != nil {
		closedAt := *s.ClosedAt
		clone.ClosedAt = &closedAt
	}

	return &clone
}
