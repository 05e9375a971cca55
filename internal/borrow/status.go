package borrow

import "github.com/bibektako/borrow-lend-backend/internal/catalog"

// Status is the lifecycle state of a borrow request.
//
// pending -> approved | denied | cancelled
// approved -> returned | cancelled
//
// denied, returned, and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDenied    Status = "denied"
	StatusReturned  Status = "returned"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is part of the lifecycle vocabulary.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusReturned, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusDenied, StatusReturned, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether a request in this state still binds its item.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// role identifies which participant of a request performs a transition.
type role int

const (
	roleOwner role = iota
	roleBorrower
)

// rule pairs the actor allowed to reach a target status with the current
// state the request must be in.
type rule struct {
	actor role
	from  Status
}

// transitionRules is the full lifecycle table keyed by target status.
// Cancellation is two-sided: the borrower withdraws a pending request, the
// owner revokes an approved one.
var transitionRules = map[Status][]rule{
	StatusApproved:  {{roleOwner, StatusPending}},
	StatusDenied:    {{roleOwner, StatusPending}},
	StatusReturned:  {{roleBorrower, StatusApproved}},
	StatusCancelled: {{roleBorrower, StatusPending}, {roleOwner, StatusApproved}},
}

// authorize validates a transition attempt. The actor check runs before the
// state check so callers who are not allowed to reach the target status never
// learn the request's current state from the error kind.
func authorize(req *Request, actorID string, target Status) error {
	rules, ok := transitionRules[target]
	if !ok {
		return ErrUnknownStatus
	}

	var actor role
	switch actorID {
	case req.OwnerID:
		actor = roleOwner
	case req.BorrowerID:
		actor = roleBorrower
	default:
		return ErrForbidden
	}

	actorAllowed := false
	for _, r := range rules {
		if r.actor == actor {
			actorAllowed = true
			break
		}
	}
	if !actorAllowed {
		return ErrForbidden
	}

	for _, r := range rules {
		if r.actor == actor && r.from == req.Status {
			return nil
		}
	}
	return ErrInvalidTransition
}

// itemStatusFor maps a request state to the item status it implies.
func itemStatusFor(s Status) catalog.ItemStatus {
	switch s {
	case StatusPending:
		return catalog.StatusRequested
	case StatusApproved:
		return catalog.StatusBorrowed
	default:
		return catalog.StatusAvailable
	}
}

// ProjectStatus derives an item's availability from its active requests: any
// approved request means borrowed, otherwise any pending request means
// requested, otherwise the item is available. Pure and idempotent; the stored
// item status is a cache of this value.
func ProjectStatus(active []Request) catalog.ItemStatus {
	status := catalog.StatusAvailable
	for _, req := range active {
		switch req.Status {
		case StatusApproved:
			return catalog.StatusBorrowed
		case StatusPending:
			status = catalog.StatusRequested
		}
	}
	return status
}
