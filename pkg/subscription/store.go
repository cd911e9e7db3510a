package subscription

import "context"

// Store defines the persistence contract for subscriber records. The file
// and mongo backends are behaviorally interchangeable behind this interface.
type Store interface {
	// Get retrieves a record by LINE user ID.
	// Returns ErrRecordNotFound when the user has never been seen.
	Get(ctx context.Context, userID string) (*Record, error)

	// MarkPaid sets the paid flag, creating the record if needed.
	// Marking an already-paid user is a no-op in effect.
	MarkPaid(ctx context.Context, userID string) error

	// IncrementMessageCount atomically increments the free-trial counter,
	// creating the record if needed, and returns the new count.
	IncrementMessageCount(ctx context.Context, userID string) (int64, error)
}
