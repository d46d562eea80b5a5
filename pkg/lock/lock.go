// Package lock provides keyed mutual exclusion used for single-flight job and VPS creation.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when a lock could not be taken before the context ended.
var ErrNotAcquired = errors.New("lock: not acquired")

// Locker serialises work on a key. Release must be called exactly once; extra calls are no-ops.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
