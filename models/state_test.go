package models

import "testing"

func TestEnsureUserCreatesOnce(t *testing.T) {
	state := NewLeagueState()
	first := state.EnsureUser("alice")
	second := state.EnsureUser("alice")
	if first != second {
		t.Error("EnsureUser created a second entry for the same id")
	}
	if first.Name != "alice" {
		t.Errorf("lazy entry name = %q, want the id", first.Name)
	}
}

func TestActiveSessionScoping(t *testing.T) {
	state := NewLeagueState()
	global := &Session{ID: "s-global", Kind: SessionKindGlobal, Status: SessionStatusActive}
	alicePersonal := &Session{ID: "s-alice", Kind: SessionKindPersonal, OwnerID: "alice", Status: SessionStatusActive}
	state.ActiveSessions = []*Session{alicePersonal, global}

	if got := state.ActiveSession(SessionKindGlobal, ""); got != global {
		t.Errorf("global lookup = %v", got)
	}
	if got := state.ActiveSession(SessionKindPersonal, "alice"); got != alicePersonal {
		t.Errorf("alice personal lookup = %v", got)
	}
	if got := state.ActiveSession(SessionKindPersonal, "bob"); got != nil {
		t.Errorf("bob personal lookup = %v, want nil", got)
	}

	if got := state.ActiveSessionAny(); got != global {
		t.Errorf("any-kind lookup = %v, want the global session", got)
	}
	state.ActiveSessions = []*Session{alicePersonal}
	if got := state.ActiveSessionAny(); got != alicePersonal {
		t.Errorf("any-kind lookup without a global = %v", got)
	}
}

func TestCloseOutAndRestore(t *testing.T) {
	state := NewLeagueState()
	session := &Session{ID: "s1", Kind: SessionKindGlobal, Status: SessionStatusActive}
	state.ActiveSessions = []*Session{session}

	state.CloseOut(session)
	if len(state.ActiveSessions) != 0 || len(state.History) != 1 {
		t.Fatalf("close-out left active=%d history=%d", len(state.ActiveSessions), len(state.History))
	}
	if state.FindSession("s1") != session {
		t.Error("FindSession should search history")
	}

	state.Restore(session)
	if len(state.ActiveSessions) != 1 || len(state.History) != 0 {
		t.Fatalf("restore left active=%d history=%d", len(state.ActiveSessions), len(state.History))
	}
}

func TestLeagueStateCloneIsIndependent(t *testing.T) {
	state := NewLeagueState()
	state.ActiveSessions = []*Session{{ID: "s1", Picks: map[string][]Pick{}}}
	state.EnsureUser("alice").Wins = 1

	clone := state.Clone()
	clone.ActiveSessions[0].ID = "mutated"
	clone.Users["alice"].Wins = 99
	clone.EnsureUser("bob")

	if state.ActiveSessions[0].ID != "s1" {
		t.Error("clone shares session pointers")
	}
	if state.Users["alice"].Wins != 1 {
		t.Error("clone shares ledger entries")
	}
	if _, ok := state.Users["bob"]; ok {
		t.Error("clone shares the users map")
	}
}
