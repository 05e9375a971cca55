// Package borrow implements the borrow-request lifecycle: creation, the
// approve/deny/cancel/return state machine, and the item availability cache
// that moves with it. All writes use conditional updates keyed on the current
// status so concurrent transitions cannot silently overwrite each other.
package borrow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bibektako/borrow-lend-backend/internal/catalog"
	"github.com/bibektako/borrow-lend-backend/internal/logging"
	"github.com/bibektako/borrow-lend-backend/internal/notify"
	"github.com/bibektako/borrow-lend-backend/internal/users"
)

// Notifier receives fire-and-forget notification intents. Implementations
// must not block and must never fail the caller.
type Notifier interface {
	Notify(intent notify.Intent)
}

// Service coordinates borrow requests with the item availability cache and
// emits a notification intent for every committed transition.
type Service struct {
	items      catalog.Store
	requests   Store
	users      users.Lookup
	notifier   Notifier
	reconciler *Reconciler
	log        *slog.Logger
}

func NewService(items catalog.Store, requests Store, lookup users.Lookup, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		items:      items,
		requests:   requests,
		users:      lookup,
		notifier:   notifier,
		reconciler: NewReconciler(items, requests, log),
		log:        log,
	}
}

// Reconciler exposes the service's availability repair pass for maintenance
// entry points.
func (s *Service) Reconciler() *Reconciler {
	return s.reconciler
}

// Create opens a pending request for an item on behalf of borrowerID.
//
// The item moves available -> requested first: the conditional write is what
// closes the race between two borrowers requesting the same item, so the
// loser observes ErrConflict instead of creating a second pending request.
// The request insert follows; if it fails the item status is reverted.
func (s *Service) Create(ctx context.Context, itemID, borrowerID string) (*Request, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == borrowerID {
		return nil, ErrSelfBorrow
	}
	if item.Status != catalog.StatusAvailable {
		return nil, ErrItemUnavailable
	}

	ok, err := s.items.UpdateStatusCAS(ctx, itemID, catalog.StatusAvailable, catalog.StatusRequested)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	now := time.Now()
	req := &Request{
		ID:         uuid.New().String(),
		ItemID:     itemID,
		BorrowerID: borrowerID,
		OwnerID:    item.OwnerID,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.requests.Insert(ctx, req); err != nil {
		if _, revertErr := s.items.UpdateStatusCAS(ctx, itemID, catalog.StatusRequested, catalog.StatusAvailable); revertErr != nil {
			s.log.Error("failed to revert item status after insert failure",
				logging.ItemID(itemID),
				logging.Error(revertErr),
			)
		}
		return nil, fmt.Errorf("create borrow request: %w", err)
	}

	s.notifier.Notify(notify.Intent{
		RecipientID: item.OwnerID,
		SenderID:    borrowerID,
		Kind:        notify.KindNewRequest,
		ItemName:    item.Name,
		Link:        requestLink(req.ID),
	})
	return req, nil
}

// Transition moves a request to target on behalf of actorID and updates the
// item status derived from the new state.
//
// The request write is the source of truth and runs first as a conditional
// update; losing the race yields ErrConflict. The item write follows, also
// conditional on the status the previous request state implies; when it
// misses (the cache drifted) the transition stands and the reconciler repairs
// the item from the active requests.
func (s *Service) Transition(ctx context.Context, requestID, actorID string, target Status) (*Request, error) {
	if !target.Valid() || target == StatusPending {
		return nil, ErrUnknownStatus
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := authorize(req, actorID, target); err != nil {
		return nil, err
	}

	ok, err := s.requests.UpdateStatusCAS(ctx, requestID, req.Status, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	expectedItem := itemStatusFor(req.Status)
	nextItem := itemStatusFor(target)
	if ok, err := s.items.UpdateStatusCAS(ctx, req.ItemID, expectedItem, nextItem); err != nil {
		s.log.Error("item status update failed after request transition",
			logging.RequestID(requestID),
			logging.ItemID(req.ItemID),
			logging.Error(err),
		)
	} else if !ok {
		s.log.Warn("item status cache was stale, reconciling",
			logging.ItemID(req.ItemID),
			slog.String("expected", string(expectedItem)),
		)
		if err := s.reconciler.ReconcileItem(ctx, req.ItemID); err != nil {
			s.log.Error("item reconciliation failed", logging.ItemID(req.ItemID), logging.Error(err))
		}
	}

	prev := req.Status
	req.Status = target
	req.UpdatedAt = time.Now()

	s.notifyTransition(ctx, req, actorID, prev)
	return req, nil
}

// notifyTransition selects the interested participant: approvals and denials
// go to the borrower, returns to the owner, and cancellations to whichever
// participant did not act.
func (s *Service) notifyTransition(ctx context.Context, req *Request, actorID string, prev Status) {
	var recipientID string
	switch req.Status {
	case StatusApproved, StatusDenied:
		recipientID = req.BorrowerID
	case StatusReturned:
		recipientID = req.OwnerID
	case StatusCancelled:
		if actorID == req.OwnerID {
			recipientID = req.BorrowerID
		} else {
			recipientID = req.OwnerID
		}
	default:
		return
	}

	itemName := req.ItemID
	if item, err := s.items.FindByID(ctx, req.ItemID); err == nil {
		itemName = item.Name
	} else {
		s.log.Warn("item lookup failed for notification, using id",
			logging.ItemID(req.ItemID),
			logging.Error(err),
		)
	}

	s.notifier.Notify(notify.Intent{
		RecipientID: recipientID,
		SenderID:    actorID,
		Kind:        notify.Kind(req.Status),
		ItemName:    itemName,
		Link:        requestLink(req.ID),
	})
}

// List returns every request the user participates in, newest first, with
// item and participant display fields resolved.
func (s *Service) List(ctx context.Context, userID string) ([]RequestView, error) {
	requests, err := s.requests.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	displayName := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		name, err := s.users.DisplayName(ctx, id)
		if err != nil {
			name = id
		}
		names[id] = name
		return name
	}

	views := make([]RequestView, 0, len(requests))
	for _, req := range requests {
		view := RequestView{
			Request:      req,
			BorrowerName: displayName(req.BorrowerID),
			OwnerName:    displayName(req.OwnerID),
		}
		if item, err := s.items.FindByID(ctx, req.ItemID); err == nil {
			view.ItemName = item.Name
			view.ItemImageURLs = item.ImageURLs
		}
		views = append(views, view)
	}
	return views, nil
}

func requestLink(requestID string) string {
	return "/requests/" + requestID
}
