package borrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store is the borrow-request persistence contract.
type Store interface {
	Insert(ctx context.Context, req *Request) error
	FindByID(ctx context.Context, id string) (*Request, error)

	// UpdateStatusCAS atomically moves the status field from expected to
	// next. It reports false when the request's status no longer matches
	// expected at write time.
	UpdateStatusCAS(ctx context.Context, id string, expected, next Status) (bool, error)

	// ListForUser returns every request where the user is borrower or
	// owner, newest first.
	ListForUser(ctx context.Context, userID string) ([]Request, error)

	// ListActiveForItem returns the pending and approved requests for an
	// item, the inputs to the availability projection.
	ListActiveForItem(ctx context.Context, itemID string) ([]Request, error)

	// CountActiveForItem reports how many non-terminal requests reference
	// the item. Item deletion is denied while this is non-zero.
	CountActiveForItem(ctx context.Context, itemID string) (int64, error)
}

const requestsCollection = "borrow_requests"

var activeStatuses = []Status{StatusPending, StatusApproved}

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(requestsCollection)}
}

func (s *MongoStore) Insert(ctx context.Context, req *Request) error {
	if _, err := s.coll.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("insert borrow request: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("find borrow request %s: %w", id, err)
	}
	return &req, nil
}

func (s *MongoStore) UpdateStatusCAS(ctx context.Context, id string, expected, next Status) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": expected},
		bson.M{"$set": bson.M{"status": next, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("cas request %s status %s->%s: %w", id, expected, next, err)
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) ListForUser(ctx context.Context, userID string) ([]Request, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"$or": []bson.M{
			{"borrower_id": userID},
			{"owner_id": userID},
		}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list requests for user %s: %w", userID, err)
	}
	requests := []Request{}
	if err := cur.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("decode requests: %w", err)
	}
	return requests, nil
}

func (s *MongoStore) ListActiveForItem(ctx context.Context, itemID string) ([]Request, error) {
	cur, err := s.coll.Find(ctx, bson.M{
		"item_id": itemID,
		"status":  bson.M{"$in": activeStatuses},
	})
	if err != nil {
		return nil, fmt.Errorf("list active requests for item %s: %w", itemID, err)
	}
	requests := []Request{}
	if err := cur.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("decode active requests: %w", err)
	}
	return requests, nil
}

func (s *MongoStore) CountActiveForItem(ctx context.Context, itemID string) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{
		"item_id": itemID,
		"status":  bson.M{"$in": activeStatuses},
	})
	if err != nil {
		return 0, fmt.Errorf("count active requests for item %s: %w", itemID, err)
	}
	return n, nil
}
