package notify

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store handles notification persistence and retrieval.
type Store interface {
	Insert(ctx context.Context, n Notification) error

	// ListForUser returns all notifications addressed to the user, newest
	// first.
	ListForUser(ctx context.Context, recipientID string) ([]Notification, error)

	// MarkAllRead flips every unread notification addressed to the user.
	MarkAllRead(ctx context.Context, recipientID string) error
}

const notificationsCollection = "notifications"

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(notificationsCollection)}
}

func (s *MongoStore) Insert(ctx context.Context, n Notification) error {
	if _, err := s.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *MongoStore) ListForUser(ctx context.Context, recipientID string) ([]Notification, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"recipient_id": recipientID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", recipientID, err)
	}
	notifications := []Notification{}
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, nil
}

func (s *MongoStore) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("mark notifications read for %s: %w", recipientID, err)
	}
	return nil
}
