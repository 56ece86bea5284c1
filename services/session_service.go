package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pats-app-go/database"
	"pats-app-go/logging"
	"pats-app-go/metrics"
	"pats-app-go/models"

	"github.com/google/uuid"
)

// ResultApplication tells the caller what a result update did.
// ResultCorrected is informational, not an error: it distinguishes a
// revert-then-reapply from a first grading.
type ResultApplication string

const (
	ResultApplied     ResultApplication = "applied"
	ResultCorrected   ResultApplication = "corrected"
	ResultLiveUpdated ResultApplication = "live_updated"
	ResultIgnored     ResultApplication = "ignored"
)

// StandingsInvalidator is what SessionService needs from the standings
// cache: dropping a session's cached view after a mutation.
type StandingsInvalidator interface {
	Invalidate(sessionID string)
}

// SessionService owns session lifecycle and is the apply/revert
// controller of the grading engine: the only code that turns grading
// deltas into ledger mutations. Every mutating operation is a critical
// section — one load of the persisted root record, an in-memory
// mutation, one write-back — serialized by a single mutex so concurrent
// callers cannot interleave and lose updates.
type SessionService struct {
	mu        sync.Mutex
	store     database.StateStore
	standings StandingsInvalidator
	logger    *logging.Logger
	now       func() time.Time
}

// NewSessionService creates a session service backed by the given store.
func NewSessionService(store database.StateStore, standings StandingsInvalidator) *SessionService {
	return &SessionService{
		store:     store,
		standings: standings,
		logger:    logging.WithPrefix("SessionService"),
		now:       time.Now,
	}
}

// SetClock overrides the service clock. Tests use this to control pick
// deadlines and session dates.
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateSession snapshots a batch of games into a new active session.
// Only one session of a given kind may be active at a time; personal
// sessions are scoped per owner.
func (s *SessionService) CreateSession(ctx context.Context, games []models.Game, participants []string, kind models.SessionKind, ownerID, seasonID string, date time.Time) (*models.Session, error) {
	if !kind.IsValid() {
		return nil, models.NewValidationError("create session", "unknown session kind %q", kind)
	}
	if kind == models.SessionKindPersonal && ownerID == "" {
		return nil, models.NewValidationError("create session", "personal session requires an owner")
	}
	if len(games) == 0 {
		return nil, models.NewValidationError("create session", "session requires at least one game")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	if existing := state.ActiveSession(kind, ownerID); existing != nil {
		return nil, models.NewConflictError("a %s session is already active (%s)", kind, existing.ID)
	}

	if date.IsZero() {
		date = s.now()
	}

	session := &models.Session{
		ID:           uuid.NewString(),
		Date:         date.UTC(),
		Kind:         kind,
		OwnerID:      ownerID,
		SeasonID:     seasonID,
		Status:       models.SessionStatusActive,
		Participants: append([]string(nil), participants...),
		Picks:        make(map[string][]models.Pick),
		CreatedAt:    s.now().UTC(),
	}

	session.Games = make([]models.Game, len(games))
	for i, game := range games {
		snapshot := *game.Clone()
		snapshot.SetSpreads(game.HomeSpread, game.AwaySpread)
		session.Games[i] = snapshot
	}

	// Pre-registered participants get their ledger entry up front; picks
	// register everyone else lazily.
	for _, userID := range participants {
		state.EnsureUser(userID)
	}

	state.ActiveSessions = append(state.ActiveSessions, session)

	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	metrics.ActiveSessions.Set(float64(len(state.ActiveSessions)))
	s.logger.Infof("Created %s session %s with %d games", kind, session.ID, len(session.Games))
	return session.Clone(), nil
}

// RecordPick records a user's pick. A new pick for a game the user
// already picked replaces the prior one. Picks lock at commence time,
// and a user holds at most one double-down per session — unless the
// re-picked game is the one already carrying it.
func (s *SessionService) RecordPick(ctx context.Context, sessionID, userID, gameID string, side models.Side, doubleDown bool) (*models.Pick, error) {
	if !side.IsValid() {
		return nil, models.NewValidationError("record pick", "unknown side %q", side)
	}
	if userID == "" {
		return nil, models.NewValidationError("record pick", "user id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	session := state.FindSession(sessionID)
	if session == nil {
		return nil, models.NewNotFoundError("session", sessionID)
	}
	if !session.IsActive() {
		return nil, models.NewValidationError("record pick", "session %s is closed", sessionID)
	}

	game := session.FindGame(gameID)
	if game == nil {
		return nil, models.NewNotFoundError("game", gameID)
	}
	if game.HasStarted(s.now()) {
		return nil, models.NewValidationError("record pick", "game %s has already started", game.Matchup())
	}

	if doubleDown {
		if existing := session.DoubleDownPick(userID); existing != nil && existing.GameID != gameID {
			return nil, models.NewValidationError("record pick", "double-down already used on another game this session")
		}
	}

	pick := models.Pick{
		GameID:       gameID,
		Side:         side,
		SpreadAtPick: game.SpreadFor(side),
		DoubleDown:   doubleDown,
		SubmittedAt:  s.now().UTC(),
	}

	newParticipant := !session.IsParticipant(userID)
	session.SetPick(userID, pick)
	session.AddParticipant(userID)
	entry := state.EnsureUser(userID)

	// A participant joining after games were graded owes the missed-pick
	// loss for each of them, or the incremental ledger would fall short
	// of the close-time audit and reopen would subtract too much. Graded
	// games are final, so the joiner cannot be picking one of them here.
	if newParticipant {
		monthKey := session.MonthKey()
		for i := range session.Games {
			if session.IsGraded(session.Games[i].ID) {
				entry.ApplyDelta(MissedPickDelta(), monthKey)
			}
		}
	}

	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	metrics.PicksRecorded.WithLabelValues(string(session.Kind)).Inc()
	s.standings.Invalidate(sessionID)
	s.logger.Debugf("Recorded pick: user=%s game=%s side=%s spread=%s dd=%t",
		userID, game.Matchup(), side, models.FormatSpread(pick.SpreadAtPick), doubleDown)
	return &pick, nil
}

// ApplyResultUpdate feeds one score refresh into the session. Live
// updates change only the displayed scores and never touch the ledger; a
// live update for a game already final is ignored outright. A final
// result is graded into the ledger for every participant; a second final
// for the same game is a correction, reverted exactly and reapplied.
func (s *SessionService) ApplyResultUpdate(ctx context.Context, sessionID string, update models.GameResultUpdate) (ResultApplication, error) {
	if update.Status != models.ResultStatusLive && update.Status != models.ResultStatusFinal {
		return ResultIgnored, models.NewValidationError("apply result", "unknown result status %q", update.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return ResultIgnored, fmt.Errorf("failed to load state: %w", err)
	}

	session := state.FindSession(sessionID)
	if session == nil {
		return ResultIgnored, models.NewNotFoundError("session", sessionID)
	}
	if !session.IsActive() {
		return ResultIgnored, models.NewValidationError("apply result", "session %s is closed; reopen it to correct results", sessionID)
	}

	game := session.FindGame(update.GameID)
	if game == nil {
		return ResultIgnored, models.NewNotFoundError("game", update.GameID)
	}

	if update.Status == models.ResultStatusLive {
		// A final result is never silently replaced by a live one.
		if game.IsFinal() {
			return ResultIgnored, nil
		}
		game.Result = update.Result()
		if err := s.store.Save(ctx, state); err != nil {
			return ResultIgnored, fmt.Errorf("failed to save state: %w", err)
		}
		metrics.LiveUpdates.Inc()
		s.standings.Invalidate(sessionID)
		return ResultLiveUpdated, nil
	}

	application := ResultApplied
	monthKey := session.MonthKey()

	if session.IsGraded(game.ID) {
		// Correction: undo exactly what the previous final applied by
		// recomputing its deltas against the same picks and negating.
		application = ResultCorrected
		for userID, delta := range GradeGameDelta(session, game.ID, game.Result) {
			state.EnsureUser(userID).ApplyDelta(delta.Negate(), monthKey)
		}
		s.logger.Infof("Correcting final result for game %s in session %s", game.Matchup(), sessionID)
	}

	newResult := update.Result()
	for userID, delta := range GradeGameDelta(session, game.ID, newResult) {
		state.EnsureUser(userID).ApplyDelta(delta, monthKey)
	}
	game.Result = newResult
	session.MarkGraded(game.ID)

	if err := s.store.Save(ctx, state); err != nil {
		return ResultIgnored, fmt.Errorf("failed to save state: %w", err)
	}

	metrics.ResultsGraded.WithLabelValues(string(application)).Inc()
	s.standings.Invalidate(sessionID)
	s.logger.Infof("Graded final %d-%d for game %s in session %s (%s)",
		update.AwayScore, update.HomeScore, game.Matchup(), sessionID, application)
	return application, nil
}

// RefreshSpreads replaces the spreads on games that have not started.
// Existing picks keep the spread captured when they were made.
func (s *SessionService) RefreshSpreads(ctx context.Context, sessionID string, updatedGames []models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	session := state.FindSession(sessionID)
	if session == nil {
		return models.NewNotFoundError("session", sessionID)
	}
	if !session.IsActive() {
		return models.NewValidationError("refresh spreads", "session %s is closed", sessionID)
	}

	refreshed := 0
	for _, updated := range updatedGames {
		game := session.FindGame(updated.ID)
		if game == nil {
			continue
		}
		if game.HasStarted(s.now()) {
			s.logger.Debugf("Skipping spread refresh for started game %s", game.Matchup())
			continue
		}
		game.SetSpreads(updated.HomeSpread, updated.AwaySpread)
		refreshed++
	}

	if refreshed == 0 {
		return nil
	}

	if err := s.store.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	s.logger.Infof("Refreshed spreads on %d games in session %s", refreshed, sessionID)
	return nil
}

// CloseSession finalizes a session. Games whose deltas are not in the
// ledger are graded now, from their stored final or from the supplied
// fallback results, then every participant's record is recomputed from
// scratch over the full game set and frozen into ClosedResults, session
// counters are incremented once per participant, and the session moves
// to history.
func (s *SessionService) CloseSession(ctx context.Context, sessionID string, fallbackResults map[string]models.GameResultUpdate) (map[string]models.SessionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	session := state.FindSession(sessionID)
	if session == nil {
		return nil, models.NewNotFoundError("session", sessionID)
	}
	if !session.IsActive() {
		return nil, models.NewValidationError("close session", "session %s is already closed", sessionID)
	}

	monthKey := session.MonthKey()

	// Grade every game whose deltas are not yet in the ledger. A game
	// with a stored final is graded from it (this is how a reopened
	// session's deltas come back on re-close); a game with no final
	// needs a fallback result.
	for i := range session.Games {
		game := &session.Games[i]
		if session.IsGraded(game.ID) {
			continue
		}
		result := game.Result
		if !game.IsFinal() {
			fallback, ok := fallbackResults[game.ID]
			if !ok {
				return nil, models.NewValidationError("close session", "game %s has no result and no fallback was provided", game.Matchup())
			}
			result = fallback.Result()
			result.Status = models.ResultStatusFinal
		}
		for userID, delta := range GradeGameDelta(session, game.ID, result) {
			state.EnsureUser(userID).ApplyDelta(delta, monthKey)
		}
		game.Result = result
		session.MarkGraded(game.ID)
	}

	// Freeze the audit snapshot: an independent from-scratch
	// recomputation, not a sum of the incremental deltas.
	session.ClosedResults = make(map[string]models.SessionResult, len(session.Participants))
	for _, userID := range session.Participants {
		result := ComputeSessionResult(session, userID)
		session.ClosedResults[userID] = result

		entry := state.EnsureUser(userID)
		entry.SessionsPlayed++
		monthly := entry.MonthlyBlock(monthKey)
		monthly.SessionsPlayed++
		if result.DoubleDownUsed {
			entry.DoubleDownsUsed++
			monthly.DoubleDownsUsed++
		}
	}

	closedAt := s.now().UTC()
	session.Status = models.SessionStatusClosed
	session.ClosedAt = &closedAt
	state.CloseOut(session)

	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	metrics.SessionTransitions.WithLabelValues("close").Inc()
	metrics.ActiveSessions.Set(float64(len(state.ActiveSessions)))
	s.standings.Invalidate(sessionID)
	s.logger.Infof("Closed session %s with %d participants", sessionID, len(session.Participants))

	results := make(map[string]models.SessionResult, len(session.ClosedResults))
	for userID, result := range session.ClosedResults {
		results[userID] = result
	}
	return results, nil
}

// ReopenSession reverses a close exactly: every participant's frozen
// ClosedResults entry is subtracted from the ledger (all-time and the
// session's month bucket, double-down counters included), the session
// counters are decremented, and the session returns to the active set.
// The graded-game record is cleared too, so the session carries no
// ledger contribution until results are regraded or it is closed again.
func (s *SessionService) ReopenSession(ctx context.Context, sessionID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	session := state.FindSession(sessionID)
	if session == nil {
		return nil, models.NewNotFoundError("session", sessionID)
	}
	if session.IsActive() {
		return nil, models.NewValidationError("reopen session", "session %s is not closed", sessionID)
	}

	if active := state.ActiveSession(session.Kind, session.OwnerID); active != nil {
		return nil, models.NewConflictError("cannot reopen %s: a %s session is already active (%s)", sessionID, session.Kind, active.ID)
	}

	monthKey := session.MonthKey()
	for userID, result := range session.ClosedResults {
		entry := state.EnsureUser(userID)
		entry.ApplyDelta(result.Delta().Negate(), monthKey)
		entry.SessionsPlayed--
		monthly := entry.MonthlyBlock(monthKey)
		monthly.SessionsPlayed--
		if result.DoubleDownUsed {
			entry.DoubleDownsUsed--
			monthly.DoubleDownsUsed--
		}
	}

	session.ClosedResults = nil
	session.GradedGames = nil
	session.Status = models.SessionStatusActive
	session.ClosedAt = nil
	state.Restore(session)

	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	metrics.SessionTransitions.WithLabelValues("reopen").Inc()
	metrics.ActiveSessions.Set(float64(len(state.ActiveSessions)))
	s.standings.Invalidate(sessionID)
	s.logger.Infof("Reopened session %s", sessionID)
	return session.Clone(), nil
}

// GetSession returns a copy of the session with the given ID.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	session := state.FindSession(sessionID)
	if session == nil {
		return nil, models.NewNotFoundError("session", sessionID)
	}
	return session.Clone(), nil
}

// GetActiveSession returns the active session of the given kind, or a
// NotFoundError when none is active.
func (s *SessionService) GetActiveSession(ctx context.Context, kind models.SessionKind, ownerID string) (*models.Session, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	session := state.ActiveSession(kind, ownerID)
	if session == nil {
		return nil, models.NewNotFoundError("active session", string(kind))
	}
	return session.Clone(), nil
}

// GetActiveSessionAny returns "the" active session, preferring the
// global session over personal ones.
func (s *SessionService) GetActiveSessionAny(ctx context.Context) (*models.Session, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	session := state.ActiveSessionAny()
	if session == nil {
		return nil, models.NewNotFoundError("active session", "any")
	}
	return session.Clone(), nil
}

// GetHistory returns copies of all closed sessions.
func (s *SessionService) GetHistory(ctx context.Context) ([]*models.Session, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	history := make([]*models.Session, len(state.History))
	for i, session := range state.History {
		history[i] = session.Clone()
	}
	return history, nil
}
