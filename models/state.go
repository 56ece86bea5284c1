package models

// LeagueState is the persisted root record. Every mutating operation is
// one load of this record, an in-memory mutation, and one write-back.
type LeagueState struct {
	ActiveSessions []*Session                  `json:"active_sessions" bson:"active_sessions"`
	Users          map[string]*UserLedgerEntry `json:"users" bson:"users"`
	History        []*Session                  `json:"history" bson:"history"`
}

// NewLeagueState returns an empty league state.
func NewLeagueState() *LeagueState {
	return &LeagueState{
		Users: make(map[string]*UserLedgerEntry),
	}
}

// EnsureUser returns the ledger entry for the user, creating it lazily on
// first reference. This is the single constructor for ledger entries.
func (s *LeagueState) EnsureUser(userID string) *UserLedgerEntry {
	if s.Users == nil {
		s.Users = make(map[string]*UserLedgerEntry)
	}
	entry, ok := s.Users[userID]
	if !ok {
		entry = NewUserLedgerEntry(userID, userID)
		s.Users[userID] = entry
	}
	return entry
}

// ActiveSession returns the active session of the given kind. Personal
// sessions are scoped per owner, so ownerID is only consulted for them.
func (s *LeagueState) ActiveSession(kind SessionKind, ownerID string) *Session {
	for _, session := range s.ActiveSessions {
		if session.Kind != kind {
			continue
		}
		if kind == SessionKindPersonal && session.OwnerID != ownerID {
			continue
		}
		return session
	}
	return nil
}

// ActiveSessionAny returns "the" active session: the global one when both
// kinds are active, otherwise the first personal one.
func (s *LeagueState) ActiveSessionAny() *Session {
	var personal *Session
	for _, session := range s.ActiveSessions {
		if session.Kind == SessionKindGlobal {
			return session
		}
		if personal == nil {
			personal = session
		}
	}
	return personal
}

// FindSession looks up a session by ID in the active set, then history.
func (s *LeagueState) FindSession(sessionID string) *Session {
	for _, session := range s.ActiveSessions {
		if session.ID == sessionID {
			return session
		}
	}
	for _, session := range s.History {
		if session.ID == sessionID {
			return session
		}
	}
	return nil
}

// CloseOut moves a session from the active set into history.
func (s *LeagueState) CloseOut(session *Session) {
	for i, active := range s.ActiveSessions {
		if active.ID == session.ID {
			s.ActiveSessions = append(s.ActiveSessions[:i], s.ActiveSessions[i+1:]...)
			break
		}
	}
	s.History = append(s.History, session)
}

// Restore moves a reopened session from history back to the active set.
func (s *LeagueState) Restore(session *Session) {
	for i, closed := range s.History {
		if closed.ID == session.ID {
			s.History = append(s.History[:i], s.History[i+1:]...)
			break
		}
	}
	s.ActiveSessions = append(s.ActiveSessions, session)
}

// Clone returns a deep copy of the whole state.
func (s *LeagueState) Clone() *LeagueState {
	clone := NewLeagueState()

	clone.ActiveSessions = make([]*Session, len(s.ActiveSessions))
	for i, session := range s.ActiveSessions {
		clone.ActiveSessions[i] = session.Clone()
	}

	clone.History = make([]*Session, len(s.History))
	for i, session := range s.History {
		clone.History[i] = session.Clone()
	}

	for userID, entry := range s.Users {
		clone.Users[userID] = entry.Clone()
	}

	return clone
}
