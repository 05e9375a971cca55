package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bibektako/borrow-lend-backend/internal/logging"
)

// EventNewNotification is the realtime event name pushed to connected clients.
const EventNewNotification = "new_notification"

const defaultQueueSize = 256

// UserLookup resolves display data for the notification sender and recipient.
type UserLookup interface {
	DisplayName(ctx context.Context, id string) (string, error)
	Email(ctx context.Context, id string) (string, error)
}

// Presence reports whether a user holds an active connection on any instance
// of the service.
type Presence interface {
	Online(ctx context.Context, userID string) (bool, error)
}

// Channel pushes an event to a user's active connection, wherever it is held.
type Channel interface {
	SendToUser(ctx context.Context, userID, event string, payload any) error
}

// EmailSender delivers an email copy of a notification to offline recipients.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Dispatcher decouples notification work from the request path. Notify
// enqueues without blocking; a worker started by Run performs the render,
// persist, and push steps. Every failure is logged and absorbed so a lost
// notification never surfaces to the caller.
type Dispatcher struct {
	users    UserLookup
	store    Store
	presence Presence
	channel  Channel
	email    EmailSender
	log      *slog.Logger

	mu     sync.Mutex
	queue  chan Intent
	closed bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithEmailSender enables the offline email fallback.
func WithEmailSender(sender EmailSender) Option {
	return func(d *Dispatcher) { d.email = sender }
}

// WithQueueSize overrides the intent queue capacity.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan Intent, n)
		}
	}
}

// NewDispatcher creates a dispatcher. Call Run to start the worker.
func NewDispatcher(users UserLookup, store Store, presence Presence, channel Channel, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		users:    users,
		store:    store,
		presence: presence,
		channel:  channel,
		log:      slog.Default(),
		queue:    make(chan Intent, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify enqueues an intent without blocking. When the queue is full or the
// dispatcher is closed the intent is dropped with a warning; the triggering
// state transition has already committed and must not be held up.
func (d *Dispatcher) Notify(intent Intent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.log.Warn("notification dropped, dispatcher closed",
			logging.UserID(intent.RecipientID),
			logging.Kind(string(intent.Kind)),
		)
		return
	}

	select {
	case d.queue <- intent:
	default:
		d.log.Warn("notification dropped, queue full",
			logging.UserID(intent.RecipientID),
			logging.Kind(string(intent.Kind)),
		)
	}
}

// Run consumes the queue until the context is cancelled or Close is called.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case intent, ok := <-d.queue:
			if !ok {
				return
			}
			d.Dispatch(ctx, intent)
		}
	}
}

// Close stops accepting intents and lets Run drain the remaining queue.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.closed {
		d.closed = true
		close(d.queue)
	}
}

// Dispatch performs a single notification: resolve the sender, render the
// message, persist the record, then push to the recipient's connection when
// one exists. It never reports failure to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, intent Intent) {
	senderName, err := d.users.DisplayName(ctx, intent.SenderID)
	if err != nil {
		d.log.Warn("notification skipped, sender lookup failed",
			logging.UserID(intent.SenderID),
			logging.Kind(string(intent.Kind)),
			logging.Error(err),
		)
		return
	}

	message, ok := renderMessage(intent.Kind, senderName, intent.ItemName)
	if !ok {
		d.log.Warn("notification skipped, unknown kind", logging.Kind(string(intent.Kind)))
		return
	}

	n := Notification{
		ID:          uuid.New().String(),
		RecipientID: intent.RecipientID,
		SenderID:    intent.SenderID,
		Kind:        intent.Kind,
		Message:     message,
		Read:        false,
		Link:        intent.Link,
		CreatedAt:   time.Now(),
	}
	if err := d.store.Insert(ctx, n); err != nil {
		d.log.Error("failed to store notification",
			logging.UserID(intent.RecipientID),
			logging.Kind(string(intent.Kind)),
			logging.Error(err),
		)
		return
	}

	online, err := d.presence.Online(ctx, intent.RecipientID)
	if err != nil {
		// Unknown presence: the stored record stands, and guessing offline
		// here would email users who are in fact connected.
		d.log.Warn("presence lookup failed, notification stored",
			logging.UserID(intent.RecipientID),
			logging.Error(err),
		)
		return
	}
	if online {
		if err := d.channel.SendToUser(ctx, intent.RecipientID, EventNewNotification, n); err != nil {
			d.log.Warn("realtime delivery failed, notification stored",
				logging.UserID(intent.RecipientID),
				logging.Error(err),
			)
		}
		return
	}

	// Recipient offline: the stored record stands; send an email copy when
	// a sender is configured.
	if d.email == nil {
		return
	}
	to, err := d.users.Email(ctx, intent.RecipientID)
	if err != nil {
		d.log.Warn("email fallback skipped, recipient lookup failed",
			logging.UserID(intent.RecipientID),
			logging.Error(err),
		)
		return
	}
	if err := d.email.Send(ctx, to, emailSubject, message); err != nil {
		d.log.Warn("email fallback failed, notification stored",
			logging.UserID(intent.RecipientID),
			logging.Error(err),
		)
	}
}

const emailSubject = "New activity on your borrow requests"
