package services

import (
	"testing"
	"time"

	"pats-app-go/models"
)

func finalResult(home, away int) *models.GameResult {
	return &models.GameResult{
		HomeScore: home,
		AwayScore: away,
		Status:    models.ResultStatusFinal,
	}
}

func TestGradePick_SpreadLaw(t *testing.T) {
	// Home favored by 9: home score minus 9 against the away score.
	pick := &models.Pick{GameID: "g1", Side: models.SideHome, SpreadAtPick: -9}

	tests := []struct {
		name       string
		home, away int
		want       models.Outcome
	}{
		{"covers by one", 110, 100, models.OutcomeWin},
		{"lands exactly on the number", 109, 100, models.OutcomePush},
		{"wins but fails to cover", 105, 100, models.OutcomeLoss},
		{"loses outright", 90, 100, models.OutcomeLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GradePick(pick, finalResult(tt.home, tt.away))
			if got != tt.want {
				t.Errorf("GradePick(%d-%d) = %s, want %s", tt.home, tt.away, got, tt.want)
			}
		})
	}
}

func TestGradePick_AwayUnderdog(t *testing.T) {
	// Away getting 6.5 points covers any loss by six or fewer.
	pick := &models.Pick{GameID: "g1", Side: models.SideAway, SpreadAtPick: 6.5}

	if got := GradePick(pick, finalResult(20, 17)); got != models.OutcomeWin {
		t.Errorf("away +6.5 losing 17-20 should cover, got %s", got)
	}
	if got := GradePick(pick, finalResult(27, 17)); got != models.OutcomeLoss {
		t.Errorf("away +6.5 losing 17-27 should not cover, got %s", got)
	}
}

func TestGradePick_UsesSpreadAtPick(t *testing.T) {
	// The pick carries its own spread; the game's current spread is
	// irrelevant once a pick is made.
	pick := &models.Pick{GameID: "g1", Side: models.SideHome, SpreadAtPick: -3}

	if got := GradePick(pick, finalResult(24, 20)); got != models.OutcomeWin {
		t.Errorf("home -3 winning by 4 should cover, got %s", got)
	}
}

func TestOutcomeDelta_Plain(t *testing.T) {
	tests := []struct {
		outcome models.Outcome
		want    models.StatDelta
	}{
		{models.OutcomeWin, models.StatDelta{Wins: 1}},
		{models.OutcomeLoss, models.StatDelta{Losses: 1}},
		{models.OutcomePush, models.StatDelta{Pushes: 1}},
	}

	for _, tt := range tests {
		if got := OutcomeDelta(tt.outcome, false); got != tt.want {
			t.Errorf("OutcomeDelta(%s, false) = %+v, want %+v", tt.outcome, got, tt.want)
		}
	}
}

func TestOutcomeDelta_DoubleDown(t *testing.T) {
	// Wins and losses weigh double; a push stays at one. Each outcome
	// records exactly one double-down counter tick.
	if got := OutcomeDelta(models.OutcomeWin, true); got != (models.StatDelta{Wins: 2, DoubleDownWins: 1}) {
		t.Errorf("double-down win delta = %+v", got)
	}
	if got := OutcomeDelta(models.OutcomeLoss, true); got != (models.StatDelta{Losses: 2, DoubleDownLosses: 1}) {
		t.Errorf("double-down loss delta = %+v", got)
	}
	if got := OutcomeDelta(models.OutcomePush, true); got != (models.StatDelta{Pushes: 1, DoubleDownPushes: 1}) {
		t.Errorf("double-down push delta = %+v", got)
	}
}

func TestMissedPickDelta(t *testing.T) {
	if got := MissedPickDelta(); got != (models.StatDelta{Losses: 1}) {
		t.Errorf("MissedPickDelta() = %+v, want one flat loss", got)
	}
}

func TestStatDelta_NegateRoundTrips(t *testing.T) {
	d := models.StatDelta{Wins: 2, Losses: 1, Pushes: 1, DoubleDownWins: 1}
	if got := d.Negate().Negate(); got != d {
		t.Errorf("double negate changed delta: %+v", got)
	}

	var block models.StatBlock
	block.ApplyDelta(d)
	block.ApplyDelta(d.Negate())
	if block != (models.StatBlock{}) {
		t.Errorf("apply+revert left residue: %+v", block)
	}
}

func TestGradeGameDelta_CoversAllParticipants(t *testing.T) {
	session := &models.Session{
		ID:           "s1",
		Participants: []string{"alice", "bob", "carol"},
		Games: []models.Game{
			{ID: "g1", Home: "PHI", Away: "DAL", HomeSpread: -3, AwaySpread: 3},
		},
		Picks: map[string][]models.Pick{
			"alice": {{GameID: "g1", Side: models.SideHome, SpreadAtPick: -3}},
			"bob":   {{GameID: "g1", Side: models.SideAway, SpreadAtPick: 3, DoubleDown: true}},
		},
	}

	deltas := GradeGameDelta(session, "g1", finalResult(27, 20))

	if len(deltas) != 3 {
		t.Fatalf("expected a delta for every participant, got %d", len(deltas))
	}
	if deltas["alice"] != (models.StatDelta{Wins: 1}) {
		t.Errorf("alice delta = %+v, want a win", deltas["alice"])
	}
	if deltas["bob"] != (models.StatDelta{Losses: 2, DoubleDownLosses: 1}) {
		t.Errorf("bob delta = %+v, want a doubled loss", deltas["bob"])
	}
	if deltas["carol"] != (models.StatDelta{Losses: 1}) {
		t.Errorf("carol delta = %+v, want the missed-pick loss", deltas["carol"])
	}
}

func TestComputeSessionResult_FullGameSet(t *testing.T) {
	start := time.Date(2025, 11, 2, 18, 0, 0, 0, time.UTC)
	session := &models.Session{
		ID:           "s1",
		Date:         start,
		Participants: []string{"alice", "dave"},
		Games: []models.Game{
			{ID: "g1", Home: "PHI", Away: "DAL", HomeSpread: -3, AwaySpread: 3, CommenceTime: start, Result: finalResult(27, 20)},
			{ID: "g2", Home: "KC", Away: "DEN", HomeSpread: -7, AwaySpread: 7, CommenceTime: start, Result: finalResult(24, 17)},
			{ID: "g3", Home: "SF", Away: "SEA", HomeSpread: -2.5, AwaySpread: 2.5, CommenceTime: start, Result: finalResult(10, 20)},
		},
		Picks: map[string][]models.Pick{
			"alice": {
				{GameID: "g1", Side: models.SideHome, SpreadAtPick: -3},                    // win
				{GameID: "g2", Side: models.SideHome, SpreadAtPick: -7, DoubleDown: true}, // push, not doubled
			},
		},
	}

	alice := ComputeSessionResult(session, "alice")
	want := models.SessionResult{
		Wins:             1,
		Losses:           1, // g3 missed
		Pushes:           1,
		MissedPicks:      1,
		DoubleDownPushes: 1,
		DoubleDownUsed:   true,
	}
	if alice != want {
		t.Errorf("alice result = %+v, want %+v", alice, want)
	}

	// Missed-pick law: zero picks on a three-game final session.
	dave := ComputeSessionResult(session, "dave")
	if dave.Losses != 3 || dave.Wins != 0 || dave.Pushes != 0 || dave.MissedPicks != 3 {
		t.Errorf("dave result = %+v, want 0-3-0 with 3 missed", dave)
	}
}
