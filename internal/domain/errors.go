package domain

import "errors"

var (
	// ErrAuth means the session is missing, invalid or expired. Callers
	// should re-authenticate rather than retry.
	ErrAuth = errors.New("authentication required")

	// ErrTransport covers failed requests, timeouts and non-2xx responses
	// that are not auth failures.
	ErrTransport = errors.New("transport error")

	// ErrUndecodable marks a payload that did not match the expected shape.
	// It drops the item, never the page.
	ErrUndecodable = errors.New("undecodable payload")

	// ErrLoadInFlight is returned when a page load overlaps another one for
	// the same pager.
	ErrLoadInFlight = errors.New("page load already in flight")

	// ErrInteractionPending is returned when a like or repost is toggled
	// again before its previous write has completed.
	ErrInteractionPending = errors.New("interaction write pending")

	ErrNoActiveFeed       = errors.New("no active feed")
	ErrAccountExists      = errors.New("account already saved")
	ErrAccountNotFound    = errors.New("account not found")
	ErrCredentialNotFound = errors.New("credentials not found")
)
