package models

import (
	"fmt"
	"time"
)

// StatDelta is the ledger mutation produced by grading one game for one
// user. Deltas are applied to both the all-time block and the session's
// month bucket, and negated to revert a previously applied result.
type StatDelta struct {
	Wins             int
	Losses           int
	Pushes           int
	DoubleDownWins   int
	DoubleDownLosses int
	DoubleDownPushes int
}

// Negate returns the delta with every field sign-flipped.
func (d StatDelta) Negate() StatDelta {
	return StatDelta{
		Wins:             -d.Wins,
		Losses:           -d.Losses,
		Pushes:           -d.Pushes,
		DoubleDownWins:   -d.DoubleDownWins,
		DoubleDownLosses: -d.DoubleDownLosses,
		DoubleDownPushes: -d.DoubleDownPushes,
	}
}

// IsZero returns true if the delta would not change any counter.
func (d StatDelta) IsZero() bool {
	return d == StatDelta{}
}

// StatBlock holds cumulative pick statistics. The same shape is used for
// a user's all-time record and for each monthly bucket.
type StatBlock struct {
	Wins             int `json:"wins" bson:"wins"`
	Losses           int `json:"losses" bson:"losses"`
	Pushes           int `json:"pushes" bson:"pushes"`
	SessionsPlayed   int `json:"sessions_played" bson:"sessions_played"`
	DoubleDownWins   int `json:"double_down_wins" bson:"double_down_wins"`
	DoubleDownLosses int `json:"double_down_losses" bson:"double_down_losses"`
	DoubleDownPushes int `json:"double_down_pushes" bson:"double_down_pushes"`
	DoubleDownsUsed  int `json:"double_downs_used" bson:"double_downs_used"`
}

// ApplyDelta adds a grading delta to the block.
func (b *StatBlock) ApplyDelta(d StatDelta) {
	b.Wins += d.Wins
	b.Losses += d.Losses
	b.Pushes += d.Pushes
	b.DoubleDownWins += d.DoubleDownWins
	b.DoubleDownLosses += d.DoubleDownLosses
	b.DoubleDownPushes += d.DoubleDownPushes
}

// Record returns the block in "W-L-P" format.
func (b *StatBlock) Record() string {
	return fmt.Sprintf("%d-%d-%d", b.Wins, b.Losses, b.Pushes)
}

// WinPercentage calculates win percentage over decided picks only.
// Pushes count toward neither side and are excluded from the denominator.
func (b *StatBlock) WinPercentage() float64 {
	decided := b.Wins + b.Losses
	if decided == 0 {
		return 0.0
	}
	return float64(b.Wins) / float64(decided)
}

// UserLedgerEntry is a user's durable cumulative record: an all-time
// block plus one bucket per calendar month. Entries are mutated only by
// the grading apply/revert paths and by explicit administrative edits.
type UserLedgerEntry struct {
	UserID    string                `json:"user_id" bson:"user_id"`
	Name      string                `json:"name" bson:"name"`
	StatBlock `bson:",inline"`
	Monthly   map[string]*StatBlock `json:"monthly" bson:"monthly"`
	CreatedAt time.Time             `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time             `json:"updated_at" bson:"updated_at"`
}

// NewUserLedgerEntry creates an empty ledger entry.
func NewUserLedgerEntry(userID, name string) *UserLedgerEntry {
	now := time.Now().UTC()
	return &UserLedgerEntry{
		UserID:    userID,
		Name:      name,
		Monthly:   make(map[string]*StatBlock),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MonthlyBlock returns the bucket for the given month key, creating it
// lazily. Every mutating path goes through this single constructor.
func (e *UserLedgerEntry) MonthlyBlock(monthKey string) *StatBlock {
	if e.Monthly == nil {
		e.Monthly = make(map[string]*StatBlock)
	}
	block, ok := e.Monthly[monthKey]
	if !ok {
		block = &StatBlock{}
		e.Monthly[monthKey] = block
	}
	return block
}

// MonthlyBlockIfExists returns the bucket for the month key without
// creating it; read paths use this to avoid growing the map.
func (e *UserLedgerEntry) MonthlyBlockIfExists(monthKey string) (*StatBlock, bool) {
	block, ok := e.Monthly[monthKey]
	return block, ok
}

// ApplyDelta applies a grading delta to the all-time block and to the
// month bucket derived from the session's date.
func (e *UserLedgerEntry) ApplyDelta(d StatDelta, monthKey string) {
	e.StatBlock.ApplyDelta(d)
	e.MonthlyBlock(monthKey).ApplyDelta(d)
	e.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy of the entry.
func (e *UserLedgerEntry) Clone() *UserLedgerEntry {
	clone := *e
	clone.Monthly = make(map[string]*StatBlock, len(e.Monthly))
	for key, block := range e.Monthly {
		copied := *block
		clone.Monthly[key] = &copied
	}
	return &clone
}

// MonthKey derives the "YYYY-MM" bucket key from a session date in UTC.
// Grading always buckets by the session's date, never the grading time.
func MonthKey(date time.Time) string {
	return date.UTC().Format("2006-01")
}
