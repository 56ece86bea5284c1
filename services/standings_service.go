package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pats-app-go/database"
	"pats-app-go/logging"
	"pats-app-go/metrics"
	"pats-app-go/models"
)

// DefaultStandingsTTL is how long a cached standings view stays valid
// when no mutation invalidates it first.
const DefaultStandingsTTL = 60 * time.Second

// StandingsService computes and caches the live leaderboard for a
// session. The view is derived: it reads picks, stored results, and the
// clock, and never writes anything to the ledger — the missed-pick loss
// it displays for locked games is an inference that only becomes durable
// when the grading controller applies it.
type StandingsService struct {
	mu     sync.Mutex
	store  database.StateStore
	cache  map[string]*models.Standings
	ttl    time.Duration
	logger *logging.Logger
	now    func() time.Time
}

// NewStandingsService creates a standings service with the given cache TTL.
func NewStandingsService(store database.StateStore, ttl time.Duration) *StandingsService {
	if ttl <= 0 {
		ttl = DefaultStandingsTTL
	}
	return &StandingsService{
		store:  store,
		cache:  make(map[string]*models.Standings),
		ttl:    ttl,
		logger: logging.WithPrefix("StandingsService"),
		now:    time.Now,
	}
}

// SetClock overrides the service clock for tests.
func (s *StandingsService) SetClock(now func() time.Time) {
	s.now = now
}

// GetStandings returns the session's standings, served from cache when
// the cached copy is younger than the TTL, unless force is set.
func (s *StandingsService) GetStandings(ctx context.Context, sessionID string, force bool) (*models.Standings, error) {
	s.mu.Lock()
	if cached, ok := s.cache[sessionID]; ok && !force && s.now().Sub(cached.ComputedAt) < s.ttl {
		s.mu.Unlock()
		metrics.StandingsCacheHits.Inc()
		return cached.Clone(), nil
	}
	s.mu.Unlock()

	metrics.StandingsCacheMisses.Inc()

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	session := state.FindSession(sessionID)
	if session == nil {
		return nil, models.NewNotFoundError("session", sessionID)
	}

	standings := s.compute(state, session)

	s.mu.Lock()
	s.cache[sessionID] = standings
	s.mu.Unlock()

	// Callers get their own copy; the cached one stays private.
	return standings.Clone(), nil
}

// Invalidate drops the cached standings for a session. Called by every
// mutating path that changes what standings display.
func (s *StandingsService) Invalidate(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, sessionID)
}

// compute builds a standings row per participant: graded tallies from
// final games' picks, pending for picks on started-but-unfinished games,
// and a missed count with a display-only loss for locked games with no
// pick.
func (s *StandingsService) compute(state *models.LeagueState, session *models.Session) *models.Standings {
	now := s.now()
	rows := make([]models.StandingsRow, 0, len(session.Participants))

	for _, userID := range session.Participants {
		row := models.StandingsRow{
			UserID:    userID,
			Name:      userID,
			PicksMade: len(session.Picks[userID]),
		}
		if entry, ok := state.Users[userID]; ok && entry.Name != "" {
			row.Name = entry.Name
		}

		for i := range session.Games {
			game := &session.Games[i]
			pick := session.PickFor(userID, game.ID)

			if game.IsFinal() {
				if pick == nil {
					row.Missed++
					row.Losses++ // derived, never persisted from here
					continue
				}
				d := OutcomeDelta(GradePick(pick, game.Result), pick.DoubleDown)
				row.Wins += d.Wins
				row.Losses += d.Losses
				row.Pushes += d.Pushes
				continue
			}

			if !game.HasStarted(now) {
				continue
			}

			// Started but not final: picks are pending, missing picks
			// already count against the row.
			if pick == nil {
				row.Missed++
				row.Losses++
				continue
			}
			row.Pending++
		}

		if row.Wins+row.Losses > 0 {
			row.WinPct = float64(row.Wins) / float64(row.Wins+row.Losses)
		}
		rows = append(rows, row)
	}

	sortStandings(rows)

	return &models.Standings{
		SessionID:  session.ID,
		ComputedAt: now,
		Rows:       rows,
	}
}

// sortStandings orders rows: participants with no decided picks sort
// last among themselves by picks made; everyone else by win percentage,
// then raw wins.
func sortStandings(rows []models.StandingsRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		aDecided := a.Decided() > 0
		bDecided := b.Decided() > 0

		if aDecided != bDecided {
			return aDecided
		}
		if !aDecided {
			return a.PicksMade > b.PicksMade
		}
		if a.WinPct != b.WinPct {
			return a.WinPct > b.WinPct
		}
		return a.Wins > b.Wins
	})
}
