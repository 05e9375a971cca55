package borrow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibektako/borrow-lend-backend/internal/catalog"
	"github.com/bibektako/borrow-lend-backend/internal/logging"
)

func newTestReconciler(items *fakeItems, reqs *fakeRequests) *Reconciler {
	log := logging.NewWithOutput(logging.Config{Level: "error"}, "test", testWriter{})
	return NewReconciler(items, reqs, log)
}

func TestReconciler_ReconcileItem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("repairs item stuck as requested after crash", func(t *testing.T) {
		t.Parallel()
		// A crash between the request write and the item write: the
		// request was cancelled but the item still says requested.
		items := newFakeItems(testItem(catalog.StatusRequested))
		reqs := newFakeRequests(
			&Request{ID: "req-1", ItemID: "item-1", BorrowerID: "borrower", OwnerID: "owner", Status: StatusCancelled},
		)

		require.NoError(t, newTestReconciler(items, reqs).ReconcileItem(ctx, "item-1"))
		assert.Equal(t, catalog.StatusAvailable, items.status(t, "item-1"))
	})

	t.Run("repairs item lagging behind an approval", func(t *testing.T) {
		t.Parallel()
		items := newFakeItems(testItem(catalog.StatusRequested))
		reqs := newFakeRequests(
			&Request{ID: "req-1", ItemID: "item-1", BorrowerID: "borrower", OwnerID: "owner", Status: StatusApproved},
		)

		require.NoError(t, newTestReconciler(items, reqs).ReconcileItem(ctx, "item-1"))
		assert.Equal(t, catalog.StatusBorrowed, items.status(t, "item-1"))
	})

	t.Run("leaves a consistent item untouched", func(t *testing.T) {
		t.Parallel()
		items := newFakeItems(testItem(catalog.StatusRequested))
		reqs := newFakeRequests(
			&Request{ID: "req-1", ItemID: "item-1", BorrowerID: "borrower", OwnerID: "owner", Status: StatusPending},
		)

		require.NoError(t, newTestReconciler(items, reqs).ReconcileItem(ctx, "item-1"))
		assert.Equal(t, catalog.StatusRequested, items.status(t, "item-1"))
	})

	t.Run("unknown item", func(t *testing.T) {
		t.Parallel()
		err := newTestReconciler(newFakeItems(), newFakeRequests()).ReconcileItem(ctx, "missing")
		assert.ErrorIs(t, err, catalog.ErrItemNotFound)
	})
}

func TestReconciler_ReconcileAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	stale := &catalog.Item{ID: "item-1", OwnerID: "owner", Name: "Ladder", Status: catalog.StatusBorrowed}
	consistent := &catalog.Item{ID: "item-2", OwnerID: "owner", Name: "Drill", Status: catalog.StatusRequested}
	available := &catalog.Item{ID: "item-3", OwnerID: "owner", Name: "Saw", Status: catalog.StatusAvailable}
	items := newFakeItems(stale, consistent, available)
	reqs := newFakeRequests(
		&Request{ID: "req-1", ItemID: "item-1", BorrowerID: "borrower", OwnerID: "owner", Status: StatusReturned},
		&Request{ID: "req-2", ItemID: "item-2", BorrowerID: "borrower", OwnerID: "owner", Status: StatusPending},
	)

	repaired, err := newTestReconciler(items, reqs).ReconcileAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repaired)
	assert.Equal(t, catalog.StatusAvailable, items.status(t, "item-1"))
	assert.Equal(t, catalog.StatusRequested, items.status(t, "item-2"))
	assert.Equal(t, catalog.StatusAvailable, items.status(t, "item-3"))
}
