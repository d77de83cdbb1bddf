package ports

import "context"

// IdempotencyStore remembers which todo a client-supplied Idempotency-Key
// produced, scoped per user.
//
// Reserve claims the key atomically. When the key is already taken it
// returns reserved=false together with the todo id recorded for it, or an
// empty id while the first request is still in flight.
type IdempotencyStore interface {
	Reserve(ctx context.Context, userID, key string) (todoID string, reserved bool, err error)
	Complete(ctx context.Context, userID, key, todoID string) error
	Release(ctx context.Context, userID, key string) error
}

// Pinger is implemented by every backing dependency probed for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
