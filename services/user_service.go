package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pats-app-go/database"
	"pats-app-go/logging"
	"pats-app-go/models"
)

// UserService handles direct ledger administration: creating, editing,
// and deleting ledger entries outside the grading paths. These are the
// correction tools; routine stat changes always go through grading.
type UserService struct {
	mu     sync.Mutex
	store  database.StateStore
	logger *logging.Logger
}

// NewUserService creates a user service backed by the given store.
func NewUserService(store database.StateStore) *UserService {
	return &UserService{
		store:  store,
		logger: logging.WithPrefix("UserService"),
	}
}

// AddUser creates an empty ledger entry for a new user.
func (s *UserService) AddUser(ctx context.Context, userID, name string) (*models.UserLedgerEntry, error) {
	if userID == "" {
		return nil, models.NewValidationError("add user", "user id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	if _, exists := state.Users[userID]; exists {
		return nil, models.NewConflictError("user %s already exists", userID)
	}

	entry := models.NewUserLedgerEntry(userID, name)
	if name == "" {
		entry.Name = userID
	}
	state.Users[userID] = entry

	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	s.logger.Infof("Added user %s (%s)", userID, entry.Name)
	return entry.Clone(), nil
}

// EditUser applies an administrative edit to a user's ledger entry
// inside a single store round trip. The edit bypasses grading entirely;
// it exists for manual corrections.
func (s *UserService) EditUser(ctx context.Context, userID string, apply func(*models.UserLedgerEntry) error) (*models.UserLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	entry, ok := state.Users[userID]
	if !ok {
		return nil, models.NewNotFoundError("user", userID)
	}

	if err := apply(entry); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	s.logger.Infof("Edited ledger entry for user %s", userID)
	return entry.Clone(), nil
}

// DeleteUser removes a user's ledger entry.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	if _, ok := state.Users[userID]; !ok {
		return models.NewNotFoundError("user", userID)
	}
	delete(state.Users, userID)

	if err := s.store.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	s.logger.Infof("Deleted user %s", userID)
	return nil
}

// GetUserStats returns a user's stats: the all-time block when monthKey
// is empty, otherwise the requested month's bucket. An untouched month
// is a zero block, not an error.
func (s *UserService) GetUserStats(ctx context.Context, userID, monthKey string) (*models.StatBlock, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	entry, ok := state.Users[userID]
	if !ok {
		return nil, models.NewNotFoundError("user", userID)
	}

	if monthKey == "" {
		block := entry.StatBlock
		return &block, nil
	}

	if monthly, ok := entry.MonthlyBlockIfExists(monthKey); ok {
		block := *monthly
		return &block, nil
	}
	return &models.StatBlock{}, nil
}

// ListUsers returns copies of all ledger entries, sorted by user ID.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.UserLedgerEntry, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	users := make([]*models.UserLedgerEntry, 0, len(state.Users))
	for _, entry := range state.Users {
		users = append(users, entry.Clone())
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].UserID < users[j].UserID
	})
	return users, nil
}
