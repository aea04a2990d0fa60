package calllog

import "context"

// Store persists call logs.
type Store interface {
	Create(ctx context.Context, record *CallLog) error
	Get(ctx context.Context, callID string) (*CallLog, error)
	List(ctx context.Context, opts ...ListOption) ([]*CallLog, error)
	Update(ctx context.Context, record *CallLog) error
	Delete(ctx context.Context, callID string) error
	Close() error
}
