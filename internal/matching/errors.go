// internal/matching/errors.go

package matching

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrTripNotFound       = errors.New("trip not found")
	ErrNoDestination      = errors.New("trip has no delivery destination to match against")
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrInvalidAction      = errors.New("invalid suggestion action")
	ErrAlreadyActioned    = errors.New("suggestion has already been actioned")
)

// isTransient reports whether a store error is worth a single retry.
// Serialization failures and deadlocks resolve themselves; everything else
// surfaces to the caller.
func isTransient(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"08006", // connection_failure
		"08003": // connection_does_not_exist
		return true
	}
	return false
}
