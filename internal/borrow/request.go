package borrow

import "time"

// Request is a borrow request for a single item. The owner id is copied from
// the item at creation time so authorization checks do not re-fetch the item.
// Requests are never deleted; terminal states are kept as history.
type Request struct {
	ID         string    `bson:"_id" json:"id"`
	ItemID     string    `bson:"item_id" json:"item_id"`
	BorrowerID string    `bson:"borrower_id" json:"borrower_id"`
	OwnerID    string    `bson:"owner_id" json:"owner_id"`
	Status     Status    `bson:"status" json:"status"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// RequestView is a request with display fields resolved for API responses.
type RequestView struct {
	Request

	ItemName      string   `json:"item_name"`
	ItemImageURLs []string `json:"item_image_urls,omitempty"`
	BorrowerName  string   `json:"borrower_name"`
	OwnerName     string   `json:"owner_name"`
}
