package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store is the item persistence contract consumed by the borrow lifecycle.
type Store interface {
	FindByID(ctx context.Context, id string) (*Item, error)

	// UpdateStatusCAS atomically moves the status field from expected to next.
	// It reports false when the item's status no longer matches expected at
	// write time, which signals a lost race to the caller.
	UpdateStatusCAS(ctx context.Context, id string, expected, next ItemStatus) (bool, error)

	// SetStatus overwrites the status unconditionally. Reserved for
	// reconciliation, which derives the value from the request history.
	SetStatus(ctx context.Context, id string, status ItemStatus) error

	// ListUnavailable returns items whose cached status is requested or
	// borrowed, the only candidates for a stale cache sweep.
	ListUnavailable(ctx context.Context) ([]Item, error)
}

const itemsCollection = "items"

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(itemsCollection)}
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("find item %s: %w", id, err)
	}
	return &item, nil
}

func (s *MongoStore) UpdateStatusCAS(ctx context.Context, id string, expected, next ItemStatus) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": expected},
		bson.M{"$set": bson.M{"status": next, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("cas item %s status %s->%s: %w", id, expected, next, err)
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) SetStatus(ctx context.Context, id string, status ItemStatus) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("set item %s status %s: %w", id, status, err)
	}
	if res.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *MongoStore) ListUnavailable(ctx context.Context) ([]Item, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"status": bson.M{"$in": []ItemStatus{StatusRequested, StatusBorrowed}}},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list unavailable items: %w", err)
	}
	var items []Item
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode unavailable items: %w", err)
	}
	return items, nil
}
