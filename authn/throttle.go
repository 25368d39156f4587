package authn

import "time"

// AttemptStore persists login attempts for throttling and auditing.
// Implementations must be safe for concurrent use.
type AttemptStore interface {
	// RecordAttempt stores one login attempt, successful or not.
	RecordAttempt(username, ip string, success bool) error
	// CountFailed counts failed attempts for username since the given time.
	CountFailed(username string, since time.Time) (int, error)
}
