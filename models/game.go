package models

import (
	"fmt"
	"time"
)

// Side identifies one of the two sides of a game.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// IsValid returns true for the two recognized sides.
func (s Side) IsValid() bool {
	return s == SideHome || s == SideAway
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideHome {
		return SideAway
	}
	return SideHome
}

// ResultStatus represents how far along a game's result is.
type ResultStatus string

const (
	ResultStatusLive  ResultStatus = "live"
	ResultStatusFinal ResultStatus = "final"
)

// GameResult holds the scores reported by the ingestion collaborator.
// A nil *GameResult on a Game means no result has arrived yet.
type GameResult struct {
	HomeScore int          `json:"home_score" bson:"home_score"`
	AwayScore int          `json:"away_score" bson:"away_score"`
	Status    ResultStatus `json:"status" bson:"status"`
}

// SideScore returns the raw score for the given side.
func (r *GameResult) SideScore(side Side) int {
	if side == SideHome {
		return r.HomeScore
	}
	return r.AwayScore
}

// Winner returns the side that won outright, or empty string on a tie.
func (r *GameResult) Winner() Side {
	if r.HomeScore > r.AwayScore {
		return SideHome
	}
	if r.AwayScore > r.HomeScore {
		return SideAway
	}
	return ""
}

// GameResultUpdate is what the score poller delivers on each refresh tick.
type GameResultUpdate struct {
	GameID    string       `json:"game_id" bson:"game_id"`
	HomeScore int          `json:"home_score" bson:"home_score"`
	AwayScore int          `json:"away_score" bson:"away_score"`
	Status    ResultStatus `json:"status" bson:"status"`
}

// Result converts the update into a stored GameResult.
func (u *GameResultUpdate) Result() *GameResult {
	return &GameResult{
		HomeScore: u.HomeScore,
		AwayScore: u.AwayScore,
		Status:    u.Status,
	}
}

// Game represents one sporting event in a session, with the point spreads
// that were on offer when the session snapshot was taken.
type Game struct {
	ID           string      `json:"id" bson:"id"`
	Home         string      `json:"home" bson:"home"`
	Away         string      `json:"away" bson:"away"`
	CommenceTime time.Time   `json:"commence_time" bson:"commence_time"`
	HomeSpread   float64     `json:"home_spread" bson:"home_spread"`
	AwaySpread   float64     `json:"away_spread" bson:"away_spread"`
	Favored      Side        `json:"favored" bson:"favored"`
	Result       *GameResult `json:"result,omitempty" bson:"result,omitempty"`
}

// HasResult returns true once any score (live or final) has been stored.
func (g *Game) HasResult() bool {
	return g.Result != nil
}

// IsFinal returns true if the stored result is final.
func (g *Game) IsFinal() bool {
	return g.Result != nil && g.Result.Status == ResultStatusFinal
}

// IsLive returns true if the game has live scores but no final result.
func (g *Game) IsLive() bool {
	return g.Result != nil && g.Result.Status == ResultStatusLive
}

// HasStarted reports whether the game has kicked off as of now.
// Picks lock at commence time regardless of whether scores have arrived.
func (g *Game) HasStarted(now time.Time) bool {
	return !now.Before(g.CommenceTime)
}

// SpreadFor returns the spread currently attached to the given side.
func (g *Game) SpreadFor(side Side) float64 {
	if side == SideHome {
		return g.HomeSpread
	}
	return g.AwaySpread
}

// SetSpreads replaces both spreads, sanitized to half-point increments.
func (g *Game) SetSpreads(homeSpread, awaySpread float64) {
	g.HomeSpread = RoundToHalf(homeSpread)
	g.AwaySpread = RoundToHalf(awaySpread)
	if g.HomeSpread < g.AwaySpread {
		g.Favored = SideHome
	} else if g.AwaySpread < g.HomeSpread {
		g.Favored = SideAway
	}
}

// Matchup returns a display string like "DAL @ PHI".
func (g *Game) Matchup() string {
	return fmt.Sprintf("%s @ %s", g.Away, g.Home)
}

// FormatSpread formats a spread for display; zero is a pick 'em.
func FormatSpread(spread float64) string {
	if spread > 0 {
		return fmt.Sprintf("+%.1f", spread)
	} else if spread < 0 {
		return fmt.Sprintf("%.1f", spread)
	}
	return "PK"
}

// RoundToHalf rounds a spread to the nearest 0.5 increment.
func RoundToHalf(val float64) float64 {
	if val < 0 {
		return -float64(int(-val*2+0.5)) / 2
	}
	return float64(int(val*2+0.5)) / 2
}

// Clone returns a deep copy of the game.
func (g *Game) Clone() *Game {
	clone := *g
	if g.Result != nil {
		result := *g.Result
		clone.Result = &result
	}
	return &clone
}
