// Package users resolves user display data for the borrow lifecycle and
// notification dispatch. Account management is handled elsewhere; this package
// is read-only.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var ErrUserNotFound = errors.New("user not found")

// User is the subset of the account record this service reads.
type User struct {
	ID        string    `bson:"_id" json:"id"`
	Username  string    `bson:"username" json:"username"`
	Email     string    `bson:"email" json:"email"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Lookup resolves display data for a user id.
type Lookup interface {
	DisplayName(ctx context.Context, id string) (string, error)
	Email(ctx context.Context, id string) (string, error)
}

const usersCollection = "users"

// MongoLookup implements Lookup on the users collection.
type MongoLookup struct {
	coll *mongo.Collection
}

func NewMongoLookup(db *mongo.Database) *MongoLookup {
	return &MongoLookup{coll: db.Collection(usersCollection)}
}

func (l *MongoLookup) DisplayName(ctx context.Context, id string) (string, error) {
	u, err := l.find(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func (l *MongoLookup) Email(ctx context.Context, id string) (string, error) {
	u, err := l.find(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

func (l *MongoLookup) find(ctx context.Context, id string) (*User, error) {
	var u User
	err := l.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &u, nil
}
