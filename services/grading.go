package services

import (
	"pats-app-go/models"
)

// This file is the scoring half of the grading engine: pure functions
// with no side effects. The apply/revert controller in SessionService is
// the only caller that turns these deltas into ledger mutations.

// GradePick grades a pick against a game result. The side's raw score
// plus the spread captured on the pick is compared to the opponent's raw
// score: greater is a win, equal is a push, less is a loss.
func GradePick(pick *models.Pick, result *models.GameResult) models.Outcome {
	adjusted := float64(result.SideScore(pick.Side)) + pick.SpreadAtPick
	opponent := float64(result.SideScore(pick.Side.Opponent()))

	if adjusted > opponent {
		return models.OutcomeWin
	}
	if adjusted < opponent {
		return models.OutcomeLoss
	}
	return models.OutcomePush
}

// OutcomeDelta converts a graded outcome into a ledger delta. A
// double-down doubles the weight of a win or a loss but a push always
// counts as one — the asymmetry is the game's intended rule, not a bug.
// The double-down counters record exactly one increment per outcome
// regardless of the doubled weight.
func OutcomeDelta(outcome models.Outcome, doubleDown bool) models.StatDelta {
	weight := 1
	if doubleDown {
		weight = 2
	}

	var d models.StatDelta
	switch outcome {
	case models.OutcomeWin:
		d.Wins = weight
		if doubleDown {
			d.DoubleDownWins = 1
		}
	case models.OutcomeLoss:
		d.Losses = weight
		if doubleDown {
			d.DoubleDownLosses = 1
		}
	case models.OutcomePush:
		d.Pushes = 1
		if doubleDown {
			d.DoubleDownPushes = 1
		}
	}
	return d
}

// MissedPickDelta is the penalty for a locked game with no pick: one
// flat loss, never doubled.
func MissedPickDelta() models.StatDelta {
	return models.StatDelta{Losses: 1}
}

// GradeGameDelta computes the ledger delta for every session participant
// for one game result: the graded pick delta for participants who picked
// the game, the missed-pick penalty for those who did not. Both the
// apply and the revert paths use this routine — reverting recomputes the
// deltas from the previously stored result and negates them, which is
// what makes corrections exact.
func GradeGameDelta(session *models.Session, gameID string, result *models.GameResult) map[string]models.StatDelta {
	deltas := make(map[string]models.StatDelta, len(session.Participants))
	for _, userID := range session.Participants {
		pick := session.PickFor(userID, gameID)
		if pick == nil {
			deltas[userID] = MissedPickDelta()
			continue
		}
		deltas[userID] = OutcomeDelta(GradePick(pick, result), pick.DoubleDown)
	}
	return deltas
}

// ComputeSessionResult recomputes one participant's record over a
// session's full game set from scratch. This is the audit snapshot
// frozen into ClosedResults at close time, deliberately independent of
// the incremental deltas the controller applied game by game.
func ComputeSessionResult(session *models.Session, userID string) models.SessionResult {
	var result models.SessionResult

	for i := range session.Games {
		game := &session.Games[i]
		if !game.IsFinal() {
			continue
		}

		pick := session.PickFor(userID, game.ID)
		if pick == nil {
			result.Losses++
			result.MissedPicks++
			continue
		}

		d := OutcomeDelta(GradePick(pick, game.Result), pick.DoubleDown)
		result.Wins += d.Wins
		result.Losses += d.Losses
		result.Pushes += d.Pushes
		result.DoubleDownWins += d.DoubleDownWins
		result.DoubleDownLosses += d.DoubleDownLosses
		result.DoubleDownPushes += d.DoubleDownPushes
	}

	result.DoubleDownUsed = session.DoubleDownPick(userID) != nil
	return result
}
