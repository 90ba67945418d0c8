package connection

import "errors"

var (
	// ErrDuplicateActiveRequest is returned when a pending or accepted row
	// already exists for the (blind, guardian) pair.
	ErrDuplicateActiveRequest = errors.New("connection: duplicate active request")

	ErrNotFound          = errors.New("connection: not found")
	ErrInvalidTransition = errors.New("connection: invalid status transition")
	ErrUnknownBlindUser  = errors.New("connection: unknown blind user")
	ErrUnknownGuardian   = errors.New("connection: unknown guardian")
)
