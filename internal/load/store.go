package load

import "context"

// Repository abstracts the data store holding load records. Implementations
// must be safe for concurrent use.
type Repository interface {
	// Put inserts or replaces a load record. Used by the seeding path.
	Put(ctx context.Context, l *Load) error
	// Get returns the load identified by loadID or ErrLoadNotFound.
	Get(ctx context.Context, loadID string) (*Load, error)
	// Search returns unbooked loads whose origin, destination and equipment
	// type contain the given filters (case-insensitive substring match).
	Search(ctx context.Context, origin, destination, equipmentType string) ([]*Load, error)
	// SetBooked flips the booking flag for a load. Invoked exactly once per
	// accepted negotiation.
	SetBooked(ctx context.Context, loadID string, booked bool) error
	Close() error
}
