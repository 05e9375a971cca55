// Package catalog holds the item listing model and its persistence layer.
// Listing management (create, edit, search) lives behind other services; this
// package exposes only what the borrow lifecycle needs: item lookup and the
// availability status cache.
package catalog

import (
	"errors"
	"time"
)

var ErrItemNotFound = errors.New("item not found")

// ItemStatus is the availability of an item. The stored value is a cache of
// the projection over the item's active borrow requests: an approved request
// means borrowed, otherwise a pending request means requested, otherwise the
// item is available.
type ItemStatus string

const (
	StatusAvailable ItemStatus = "available"
	StatusRequested ItemStatus = "requested"
	StatusBorrowed  ItemStatus = "borrowed"
)

// Item is a listing offered for borrowing by its owner.
type Item struct {
	ID          string     `bson:"_id" json:"id"`
	OwnerID     string     `bson:"owner_id" json:"owner_id"`
	CategoryID  string     `bson:"category_id" json:"category_id"`
	Name        string     `bson:"name" json:"name"`
	Description string     `bson:"description" json:"description"`
	ImageURLs   []string   `bson:"image_urls,omitempty" json:"image_urls,omitempty"`
	Price       float64    `bson:"price" json:"price"`
	Status      ItemStatus `bson:"status" json:"status"`
	Verified    bool       `bson:"verified" json:"verified"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}
