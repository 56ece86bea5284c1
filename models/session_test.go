package models

import (
	"testing"
	"time"
)

func TestSetPickReplacesSameGame(t *testing.T) {
	session := &Session{}
	session.SetPick("alice", Pick{GameID: "g1", Side: SideHome})
	session.SetPick("alice", Pick{GameID: "g2", Side: SideHome})
	session.SetPick("alice", Pick{GameID: "g1", Side: SideAway, DoubleDown: true})

	picks := session.Picks["alice"]
	if len(picks) != 2 {
		t.Fatalf("expected 2 picks, got %d", len(picks))
	}
	replaced := session.PickFor("alice", "g1")
	if replaced.Side != SideAway || !replaced.DoubleDown {
		t.Errorf("pick on g1 = %+v, want the replacement", replaced)
	}
}

func TestDoubleDownPick(t *testing.T) {
	session := &Session{}
	if session.DoubleDownPick("alice") != nil {
		t.Error("no picks yet, expected nil")
	}
	session.SetPick("alice", Pick{GameID: "g1", Side: SideHome})
	session.SetPick("alice", Pick{GameID: "g2", Side: SideHome, DoubleDown: true})

	dd := session.DoubleDownPick("alice")
	if dd == nil || dd.GameID != "g2" {
		t.Errorf("DoubleDownPick = %+v, want g2", dd)
	}
}

func TestAddParticipantDeduplicates(t *testing.T) {
	session := &Session{}
	session.AddParticipant("alice")
	session.AddParticipant("alice")
	session.AddParticipant("bob")
	if len(session.Participants) != 2 {
		t.Errorf("participants = %v", session.Participants)
	}
}

func TestSessionResultDeltaRoundTrip(t *testing.T) {
	result := SessionResult{Wins: 4, Losses: 2, Pushes: 1, DoubleDownWins: 2, DoubleDownUsed: true}
	delta := result.Delta()

	block := &StatBlock{}
	block.ApplyDelta(delta)
	block.ApplyDelta(delta.Negate())
	if *block != (StatBlock{}) {
		t.Errorf("apply then revert left residue: %+v", block)
	}
}

func TestSessionCloneIsIndependent(t *testing.T) {
	closedAt := time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)
	session := &Session{
		ID:     "s1",
		Status: SessionStatusClosed,
		Games: []Game{
			{ID: "g1", Result: &GameResult{HomeScore: 7, Status: ResultStatusFinal}},
		},
		Participants:  []string{"alice"},
		Picks:         map[string][]Pick{"alice": {{GameID: "g1", Side: SideHome}}},
		GradedGames:   map[string]bool{"g1": true},
		ClosedResults: map[string]SessionResult{"alice": {Wins: 1}},
		ClosedAt:      &closedAt,
	}

	clone := session.Clone()
	clone.Games[0].Result.HomeScore = 99
	clone.Picks["alice"][0].Side = SideAway
	clone.GradedGames["g2"] = true
	clone.ClosedResults["bob"] = SessionResult{}
	*clone.ClosedAt = closedAt.Add(time.Hour)

	if session.Games[0].Result.HomeScore != 7 {
		t.Error("clone shares game results")
	}
	if session.Picks["alice"][0].Side != SideHome {
		t.Error("clone shares pick slices")
	}
	if len(session.GradedGames) != 1 {
		t.Error("clone shares the graded-game record")
	}
	if len(session.ClosedResults) != 1 {
		t.Error("clone shares closed results")
	}
	if !session.ClosedAt.Equal(closedAt) {
		t.Error("clone shares the closed-at pointer")
	}
}

func TestAllGamesFinal(t *testing.T) {
	session := &Session{Games: []Game{
		{ID: "g1", Result: &GameResult{Status: ResultStatusFinal}},
		{ID: "g2", Result: &GameResult{Status: ResultStatusLive}},
	}}
	if session.AllGamesFinal() {
		t.Error("live game should block AllGamesFinal")
	}
	session.Games[1].Result.Status = ResultStatusFinal
	if !session.AllGamesFinal() {
		t.Error("all finals should report true")
	}
}
