// Package realtime tracks connected users and pushes events to them. The hub
// is the process-wide presence registry: connections register on connect and
// are removed on disconnect, and sends never block the caller.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrConnNotFound is returned when a send targets a connection this instance
// does not hold.
type ErrConnNotFound struct {
	ConnID string
}

func (e ErrConnNotFound) Error() string {
	return fmt.Sprintf("realtime: connection %s not found", e.ConnID)
}

// ErrUserNotConnected is returned when a user-targeted send finds no
// connection for the user on this instance.
var ErrUserNotConnected = errors.New("realtime: user has no active connection")

// PresenceStore mirrors connection lifecycle into a registry shared by all
// instances, so a dispatcher anywhere can tell whether a user is connected
// somewhere. Failures are logged and do not fail the connection.
type PresenceStore interface {
	Add(ctx context.Context, userID, connID string) error
	Remove(ctx context.Context, userID, connID string) error
}

const presenceOpTimeout = 5 * time.Second

// Event is a named payload pushed to a connection.
type Event struct {
	Name    string `json:"name"`
	Payload any    `json:"payload"`
}

// Conn is a single client connection. Events arrive on a buffered channel;
// when the buffer is full further events are dropped rather than blocking the
// sender.
type Conn struct {
	id     string
	userID string
	events chan Event

	mu     sync.Mutex
	closed bool
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) UserID() string { return c.userID }

// Events returns the receive channel. It is closed on disconnect.
func (c *Conn) Events() <-chan Event { return c.events }

func (c *Conn) push(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.events)
		c.closed = true
	}
}

// Hub owns all connections of this process and the user-to-connection
// presence mapping. A user connecting twice keeps both connections open, but
// presence points at the most recent one (last writer wins); the shadowed
// connection no longer receives targeted pushes.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]*Conn
	byUser   map[string]string
	buffer   int
	log      *slog.Logger
	presence PresenceStore
	closed   bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(log *slog.Logger) HubOption {
	return func(h *Hub) { h.log = log }
}

// WithPresenceStore mirrors connect and disconnect into a shared registry.
func WithPresenceStore(store PresenceStore) HubOption {
	return func(h *Hub) { h.presence = store }
}

// NewHub creates a hub. bufferSize is the per-connection event buffer; a
// minimum of 1 is enforced so sends stay non-blocking.
func NewHub(bufferSize int, opts ...HubOption) *Hub {
	h := &Hub{
		conns:  make(map[string]*Conn),
		byUser: make(map[string]string),
		buffer: max(bufferSize, 1),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Connect registers a new connection for the user and makes it the presence
// target for that user.
func (h *Hub) Connect(userID string) *Conn {
	conn := &Conn{
		id:     uuid.New().String(),
		userID: userID,
		events: make(chan Event, h.buffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.close()
		return conn
	}
	h.conns[conn.id] = conn
	h.byUser[userID] = conn.id
	h.mu.Unlock()

	if h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
		defer cancel()
		if err := h.presence.Add(ctx, userID, conn.id); err != nil {
			h.log.Warn("presence registration failed",
				slog.String("conn_id", conn.id),
				slog.Any("error", err),
			)
		}
	}
	return conn
}

// Disconnect removes a connection. Unknown ids are tolerated. The presence
// entry is cleared only when it still points at this connection, so closing a
// shadowed connection does not evict the newer one.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
		if h.byUser[conn.userID] == connID {
			delete(h.byUser, conn.userID)
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	conn.close()

	if h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
		defer cancel()
		if err := h.presence.Remove(ctx, conn.userID, connID); err != nil {
			h.log.Warn("presence removal failed",
				slog.String("conn_id", connID),
				slog.Any("error", err),
			)
		}
	}
}

// Lookup returns the active connection id for a user on this instance.
func (h *Hub) Lookup(userID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	connID, ok := h.byUser[userID]
	return connID, ok
}

// Online reports whether the user has a connection on this instance. It is
// the single-instance presence check; deployments running several instances
// use a shared registry instead.
func (h *Hub) Online(_ context.Context, userID string) (bool, error) {
	_, ok := h.Lookup(userID)
	return ok, nil
}

// SendToUser pushes an event to the user's active connection on this
// instance. ErrUserNotConnected when there is none.
func (h *Hub) SendToUser(ctx context.Context, userID, event string, payload any) error {
	connID, ok := h.Lookup(userID)
	if !ok {
		return ErrUserNotConnected
	}
	return h.Send(ctx, connID, event, payload)
}

// Send pushes an event to a connection without blocking. A full buffer drops
// the event; an unknown connection returns ErrConnNotFound.
func (h *Hub) Send(ctx context.Context, connID, event string, payload any) error {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()

	if !ok {
		return ErrConnNotFound{ConnID: connID}
	}
	if !conn.push(Event{Name: event, Payload: payload}) {
		h.log.Warn("event dropped, connection buffer full",
			slog.String("conn_id", connID),
			slog.String("event", event),
		)
	}
	return nil
}

// Close disconnects everything. Safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	conns := make([]*Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	clear(h.conns)
	clear(h.byUser)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.close()
	}

	if h.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
		defer cancel()
		for _, conn := range conns {
			if err := h.presence.Remove(ctx, conn.userID, conn.id); err != nil {
				h.log.Warn("presence removal failed",
					slog.String("conn_id", conn.id),
					slog.Any("error", err),
				)
			}
		}
	}
}
