package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_ConnectAndLookup(t *testing.T) {
	t.Parallel()

	hub := NewHub(4)
	defer hub.Close()

	conn := hub.Connect("user-1")
	require.NotEmpty(t, conn.ID())
	assert.Equal(t, "user-1", conn.UserID())

	connID, ok := hub.Lookup("user-1")
	require.True(t, ok)
	assert.Equal(t, conn.ID(), connID)

	_, ok = hub.Lookup("user-2")
	assert.False(t, ok)
}

func TestHub_Send(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("delivers to the connection", func(t *testing.T) {
		t.Parallel()
		hub := NewHub(4)
		defer hub.Close()

		conn := hub.Connect("user-1")
		require.NoError(t, hub.Send(ctx, conn.ID(), "ping", "hello"))

		ev := <-conn.Events()
		assert.Equal(t, "ping", ev.Name)
		assert.Equal(t, "hello", ev.Payload)
	})

	t.Run("unknown connection", func(t *testing.T) {
		t.Parallel()
		hub := NewHub(4)
		defer hub.Close()

		err := hub.Send(ctx, "nope", "ping", nil)
		var notFound ErrConnNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "nope", notFound.ConnID)
	})

	t.Run("full buffer drops without blocking", func(t *testing.T) {
		t.Parallel()
		hub := NewHub(1)
		defer hub.Close()

		conn := hub.Connect("user-1")
		require.NoError(t, hub.Send(ctx, conn.ID(), "ping", 1))
		require.NoError(t, hub.Send(ctx, conn.ID(), "ping", 2))

		ev := <-conn.Events()
		assert.Equal(t, 1, ev.Payload)
		select {
		case ev := <-conn.Events():
			t.Fatalf("expected dropped event, got %v", ev)
		default:
		}
	})
}

func TestHub_SendToUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("delivers to the user's active connection", func(t *testing.T) {
		t.Parallel()
		hub := NewHub(4)
		defer hub.Close()

		conn := hub.Connect("user-1")
		require.NoError(t, hub.SendToUser(ctx, "user-1", "ping", "hello"))

		ev := <-conn.Events()
		assert.Equal(t, "ping", ev.Name)
		assert.Equal(t, "hello", ev.Payload)
	})

	t.Run("user without a connection", func(t *testing.T) {
		t.Parallel()
		hub := NewHub(4)
		defer hub.Close()

		err := hub.SendToUser(ctx, "user-1", "ping", nil)
		assert.ErrorIs(t, err, ErrUserNotConnected)
	})
}

func TestHub_Online(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	hub := NewHub(4)
	defer hub.Close()

	online, err := hub.Online(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, online)

	conn := hub.Connect("user-1")
	online, err = hub.Online(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, online)

	hub.Disconnect(conn.ID())
	online, err = hub.Online(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, online)
}

type fakePresenceStore struct {
	mu      sync.Mutex
	members map[string]map[string]bool
	addErr  error
}

func newFakePresenceStore() *fakePresenceStore {
	return &fakePresenceStore{members: map[string]map[string]bool{}}
}

func (s *fakePresenceStore) Add(ctx context.Context, userID, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	if s.members[userID] == nil {
		s.members[userID] = map[string]bool{}
	}
	s.members[userID][connID] = true
	return nil
}

func (s *fakePresenceStore) Remove(ctx context.Context, userID, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[userID], connID)
	return nil
}

func (s *fakePresenceStore) Online(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members[userID]) > 0, nil
}

func TestHub_PresenceStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("mirrors connect and disconnect", func(t *testing.T) {
		t.Parallel()
		store := newFakePresenceStore()
		hub := NewHub(4, WithPresenceStore(store))
		defer hub.Close()

		conn := hub.Connect("user-1")
		online, err := store.Online(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, online)

		hub.Disconnect(conn.ID())
		online, err = store.Online(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, online)
	})

	t.Run("user connected to another instance is visible", func(t *testing.T) {
		t.Parallel()
		store := newFakePresenceStore()
		local := NewHub(4, WithPresenceStore(store))
		defer local.Close()
		remote := NewHub(4, WithPresenceStore(store))
		defer remote.Close()

		remote.Connect("user-1")

		// The local hub holds no connection, but the shared registry does.
		localOnline, err := local.Online(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, localOnline)

		online, err := store.Online(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, online)
	})

	t.Run("close removes every mirrored connection", func(t *testing.T) {
		t.Parallel()
		store := newFakePresenceStore()
		hub := NewHub(4, WithPresenceStore(store))
		hub.Connect("user-1")
		hub.Connect("user-2")

		hub.Close()

		for _, userID := range []string{"user-1", "user-2"} {
			online, err := store.Online(ctx, userID)
			require.NoError(t, err)
			assert.False(t, online, userID)
		}
	})

	t.Run("registration failure does not break the connection", func(t *testing.T) {
		t.Parallel()
		store := newFakePresenceStore()
		store.addErr = errors.New("registry unreachable")
		hub := NewHub(4, WithPresenceStore(store))
		defer hub.Close()

		conn := hub.Connect("user-1")
		require.NoError(t, hub.Send(ctx, conn.ID(), "ping", nil))
	})
}

func TestHub_Disconnect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes presence and closes the event channel", func(t *testing.T) {
		t.Parallel()
		hub := NewHub(4)
		defer hub.Close()

		conn := hub.Connect("user-1")
		hub.Disconnect(conn.ID())

		_, ok := hub.Lookup("user-1")
		assert.False(t, ok)

		_, open := <-conn.Events()
		assert.False(t, open)

		var notFound ErrConnNotFound
		assert.ErrorAs(t, hub.Send(ctx, conn.ID(), "ping", nil), &notFound)
	})

	t.Run("tolerates unknown connection ids", func(t *testing.T) {
		t.Parallel()
		hub := NewHub(4)
		defer hub.Close()

		assert.NotPanics(t, func() { hub.Disconnect("never-connected") })
	})
}

func TestHub_DuplicateConnect(t *testing.T) {
	t.Parallel()

	hub := NewHub(4)
	defer hub.Close()

	first := hub.Connect("user-1")
	second := hub.Connect("user-1")

	// Last writer wins: presence points at the newest connection.
	connID, ok := hub.Lookup("user-1")
	require.True(t, ok)
	assert.Equal(t, second.ID(), connID)

	// Closing the shadowed connection must not evict the newer one.
	hub.Disconnect(first.ID())
	connID, ok = hub.Lookup("user-1")
	require.True(t, ok)
	assert.Equal(t, second.ID(), connID)

	// Closing the active connection clears presence.
	hub.Disconnect(second.ID())
	_, ok = hub.Lookup("user-1")
	assert.False(t, ok)
}

func TestHub_Close(t *testing.T) {
	t.Parallel()

	hub := NewHub(4)
	conn := hub.Connect("user-1")

	hub.Close()
	hub.Close()

	_, open := <-conn.Events()
	assert.False(t, open)

	// Connections made after close come back already closed.
	late := hub.Connect("user-2")
	_, open = <-late.Events()
	assert.False(t, open)
}

func TestHub_ConcurrentConnectDisconnect(t *testing.T) {
	t.Parallel()

	hub := NewHub(4)
	defer hub.Close()

	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 50 {
				conn := hub.Connect("user-1")
				_, _ = hub.Lookup("user-1")
				hub.Disconnect(conn.ID())
			}
		}()
	}
	for range 8 {
		<-done
	}
}
