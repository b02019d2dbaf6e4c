// Package lease provides short-lived cross-process locks that keep two
// replicas from generating the same blueprint at once. A lease is an
// optimization: callers proceed without one when the backend fails.
package lease

import "context"

// Locker hands out named leases.
type Locker interface {
	// TryAcquire claims key without blocking. When acquired is true the
	// caller must call release once done. release is never nil.
	TryAcquire(ctx context.Context, key string) (release func(), acquired bool, err error)
}

// Noop grants every lease. It is used when no lease backend is configured.
type Noop struct{}

func (Noop) TryAcquire(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}
