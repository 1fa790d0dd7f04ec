package workflow

import "errors"

var (
	// ErrConflict means the caller lost a claim race: the document was taken
	// by another translator between the caller's read and write. Expected
	// under concurrency; the caller re-fetches and informs the user.
	ErrConflict = errors.New("document is claimed by another translator")

	// ErrUnauthorized means the actor is not the current assignee (or lacks
	// the required role) for the attempted operation.
	ErrUnauthorized = errors.New("actor does not hold this document")

	// ErrInvalidState means the transition is not permitted from the
	// document's current status. Indicates stale client state or a bug;
	// callers must not retry.
	ErrInvalidState = errors.New("transition not permitted from current status")

	// ErrNotFound means no document exists with the given id.
	ErrNotFound = errors.New("document not found")

	// ErrValidation means the request payload is missing a required field,
	// such as a rejection reason.
	ErrValidation = errors.New("invalid request payload")
)
