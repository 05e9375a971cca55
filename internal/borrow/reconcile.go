package borrow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bibektako/borrow-lend-backend/internal/catalog"
	"github.com/bibektako/borrow-lend-backend/internal/logging"
)

// Reconciler repairs the cached item status from the request history. The
// request store is the source of truth; a crash between the request write and
// the item write leaves the cache stale, and this pass re-derives it.
type Reconciler struct {
	items    catalog.Store
	requests Store
	log      *slog.Logger
}

func NewReconciler(items catalog.Store, requests Store, log *slog.Logger) *Reconciler {
	return &Reconciler{items: items, requests: requests, log: log}
}

// ReconcileItem recomputes one item's status from its active requests and
// overwrites the cache when it differs.
func (r *Reconciler) ReconcileItem(ctx context.Context, itemID string) error {
	active, err := r.requests.ListActiveForItem(ctx, itemID)
	if err != nil {
		return err
	}
	derived := ProjectStatus(active)

	item, err := r.items.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Status == derived {
		return nil
	}

	r.log.Info("repairing stale item status",
		logging.ItemID(itemID),
		slog.String("stored", string(item.Status)),
		slog.String("derived", string(derived)),
	)
	return r.items.SetStatus(ctx, itemID, derived)
}

// ReconcileAll sweeps every item whose cached status is requested or
// borrowed. Items cached as available cannot be stale: every path that
// activates a request moves the item off available before or together with
// the request write, so drift only ever leaves an item looking busier than it
// is. Returns the number of items repaired.
func (r *Reconciler) ReconcileAll(ctx context.Context) (int, error) {
	items, err := r.items.ListUnavailable(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	var errs []error
	for _, item := range items {
		active, err := r.requests.ListActiveForItem(ctx, item.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		derived := ProjectStatus(active)
		if item.Status == derived {
			continue
		}
		if err := r.items.SetStatus(ctx, item.ID, derived); err != nil {
			errs = append(errs, err)
			continue
		}
		repaired++
	}
	return repaired, errors.Join(errs...)
}
