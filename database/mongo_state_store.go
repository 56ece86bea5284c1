package database

import (
	"context"
	"fmt"
	"time"

	"pats-app-go/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// stateDocID is the fixed _id of the single league-state document.
const stateDocID = "league_state"

// MongoStateStore persists the league root record as a single document.
// Each Save replaces the whole document, which matches the
// read-modify-write discipline the services enforce.
type MongoStateStore struct {
	collection *mongo.Collection
}

// NewMongoStateStore creates a state store backed by the given database.
func NewMongoStateStore(db *MongoDB) *MongoStateStore {
	return &MongoStateStore{
		collection: db.GetCollection("league_state"),
	}
}

// stateDocument wraps the league state with the fixed document ID.
type stateDocument struct {
	ID        string              `bson:"_id"`
	State     *models.LeagueState `bson:"state"`
	UpdatedAt time.Time           `bson:"updated_at"`
}

// Load reads the league state, returning an empty state when the
// document does not exist yet.
func (s *MongoStateStore) Load(ctx context.Context) (*models.LeagueState, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc stateDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": stateDocID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.NewLeagueState(), nil
		}
		return nil, fmt.Errorf("failed to load league state: %w", err)
	}

	if doc.State == nil {
		return models.NewLeagueState(), nil
	}
	if doc.State.Users == nil {
		doc.State.Users = make(map[string]*models.UserLedgerEntry)
	}
	return doc.State, nil
}

// Save replaces the league-state document, creating it if absent.
func (s *MongoStateStore) Save(ctx context.Context, state *models.LeagueState) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	doc := stateDocument{
		ID:        stateDocID,
		State:     state,
		UpdatedAt: time.Now().UTC(),
	}

	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": stateDocID}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save league state: %w", err)
	}
	return nil
}
