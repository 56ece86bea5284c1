// Package database provides persistence for the league state. The root
// record is loaded in full, mutated in memory, and written back in full;
// implementations include MongoDB (production) and in-memory (tests and
// development without a database).
package database

import (
	"context"

	"pats-app-go/models"
)

// StateStore is the persistence interface for the league root record.
// Callers own serialization: the services hold a mutex around every
// load-mutate-save cycle, so a store only has to make each Load and Save
// individually safe.
type StateStore interface {
	// Load reads the full league state. A store with no record yet
	// returns an empty state, not an error.
	Load(ctx context.Context) (*models.LeagueState, error)

	// Save durably writes the full league state. If Save returns an
	// error the caller must treat the mutation as not having happened.
	Save(ctx context.Context, state *models.LeagueState) error
}
