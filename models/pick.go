package models

import (
	"time"
)

// Pick represents a user's prediction for one game in one session.
// The spread is captured at submission time: operators may refresh a
// game's spreads mid-session, but an existing pick is never repriced.
type Pick struct {
	GameID       string    `json:"game_id" bson:"game_id"`
	Side         Side      `json:"side" bson:"side"`
	SpreadAtPick float64   `json:"spread_at_pick" bson:"spread_at_pick"`
	DoubleDown   bool      `json:"double_down" bson:"double_down"`
	SubmittedAt  time.Time `json:"submitted_at" bson:"submitted_at"`
}

// Outcome represents the graded result of a pick against a final score.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomePush Outcome = "push"
)
