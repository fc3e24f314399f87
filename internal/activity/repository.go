package activity

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "activity_logs"

// Repository persists activity log entries in MongoDB
type Repository interface {
	Logger
	List(ctx context.Context, limit int64) ([]Entry, error)
	ListByActor(ctx context.Context, actorID string, limit int64) ([]Entry, error)
}

type mongoRepository struct {
	collection *mongo.Collection
}

// NewRepository creates a new activity repository
func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection(collectionName)}
}

// Log appends one entry. When the caller supplies an ID (the verification
// outbox does, for retry idempotency) a duplicate insert is treated as
// already delivered.
func (r *mongoRepository) Log(ctx context.Context, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	id := entry.ID
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	doc := bson.M{
		"_id":         id,
		"actor_id":    entry.ActorID,
		"actor_name":  entry.ActorName,
		"actor_role":  entry.ActorRole,
		"action":      entry.Action,
		"target_type": entry.TargetType,
		"target_id":   entry.TargetID,
		"target_name": entry.TargetName,
		"timestamp":   entry.Timestamp,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to append activity entry: %w", err)
	}
	return nil
}

func (r *mongoRepository) List(ctx context.Context, limit int64) ([]Entry, error) {
	return r.find(ctx, bson.M{}, limit)
}

func (r *mongoRepository) ListByActor(ctx context.Context, actorID string, limit int64) ([]Entry, error) {
	return r.find(ctx, bson.M{"actor_id": actorID}, limit)
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M, limit int64) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []Entry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode activity entries: %w", err)
	}
	return entries, nil
}
