package borrow

import "errors"

var (
	// ErrRequestNotFound indicates the borrow request does not exist.
	ErrRequestNotFound = errors.New("borrow request not found")

	// ErrSelfBorrow indicates a user tried to borrow their own item.
	ErrSelfBorrow = errors.New("cannot borrow your own item")

	// ErrItemUnavailable indicates the item is already requested or borrowed.
	ErrItemUnavailable = errors.New("item is not available for borrowing")

	// ErrInvalidTransition indicates the request's current state does not
	// permit the requested transition.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownStatus indicates the target status is not part of the
	// lifecycle vocabulary.
	ErrUnknownStatus = errors.New("unknown request status")

	// ErrForbidden indicates the actor is not authorized for the transition.
	ErrForbidden = errors.New("not allowed to perform this action")

	// ErrConflict indicates a concurrent writer changed the entity between
	// the read and the conditional write. The caller may retry.
	ErrConflict = errors.New("concurrent update conflict")
)
