// Package notify composes, persists, and delivers user notifications for
// borrow-request activity. Delivery is best effort: a notification is stored
// first, then pushed in real time when the recipient is connected, and never
// fails the operation that triggered it.
package notify

import (
	"time"
)

// Kind identifies what happened to a borrow request. The values mirror the
// request status vocabulary plus KindNewRequest for creation.
type Kind string

const (
	KindNewRequest Kind = "new_request"
	KindApproved   Kind = "approved"
	KindDenied     Kind = "denied"
	KindCancelled  Kind = "cancelled"
	KindReturned   Kind = "returned"
)

// Notification is the stored record a user can retrieve later.
type Notification struct {
	ID          string    `bson:"_id" json:"id"`
	RecipientID string    `bson:"recipient_id" json:"recipient_id"`
	SenderID    string    `bson:"sender_id" json:"sender_id"`
	Kind        Kind      `bson:"kind" json:"kind"`
	Message     string    `bson:"message" json:"message"`
	Read        bool      `bson:"read" json:"read"`
	Link        string    `bson:"link" json:"link"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Intent is a request to notify a user about a lifecycle event. The dispatcher
// renders the message from the kind, the sender's display name, and the item
// name.
type Intent struct {
	RecipientID string
	SenderID    string
	Kind        Kind
	ItemName    string
	Link        string
}
