package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCredentials means the OAuth flow has never completed; the
	// operator must visit /auth/start before authenticated calls work.
	ErrNoCredentials = errors.New("no stored credentials; complete the OAuth flow via /auth/start")

	// ErrUnauthenticated marks a failed refresh of the stored credential.
	ErrUnauthenticated = errors.New("upstream authentication failed")

	// ErrIdempotencyConflict means an idempotency key was reused with a
	// different request body.
	ErrIdempotencyConflict = errors.New("idempotency key already used with a different request body")

	// ErrIdempotencyInFlight means another request holding the same
	// idempotency key has not finished yet.
	ErrIdempotencyInFlight = errors.New("a request with this idempotency key is still in progress")
)

// ValidationError rejects a request before any mutation or upstream call.
// Missing lists canonical names absent from the food registry, when that is
// the reason for rejection.
type ValidationError struct {
	Message string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Missing, ", "))
	}
	return e.Message
}
