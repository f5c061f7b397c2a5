package workflow

import "errors"

var (
	// ErrNotAuthorized is returned when the actor lacks the role or identity
	// required by the request's current state
	ErrNotAuthorized = errors.New("actor not authorized for this transition")

	// ErrInvalidState is returned when the requested action is illegal from
	// the current state
	ErrInvalidState = errors.New("action not allowed from current state")

	// ErrMissingComment is returned when a rejection carries no reason
	ErrMissingComment = errors.New("rejection requires a comment")

	// ErrStaleState is returned when the caller's view of the request status
	// no longer matches the stored status (concurrent modification)
	ErrStaleState = errors.New("request was modified concurrently, refresh and retry")

	// ErrUnknownRequest is returned when the request does not exist
	ErrUnknownRequest = errors.New("unknown request")

	// ErrUnknownActor is returned when the acting user does not exist
	ErrUnknownActor = errors.New("unknown actor")

	// ErrGuardFailed is returned when no transition guard accepts the action
	ErrGuardFailed = errors.New("guard condition failed")
)
