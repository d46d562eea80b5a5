package lock

import (
	"context"
	"fmt"
	"sync"
)

type localEntry struct {
	sem  chan struct{}
	refs int
}

// Local is an in-process keyed mutex. Entries are dropped once no caller references them.
type Local struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

// NewLocal creates an empty keyed mutex.
func NewLocal() *Local {
	return &Local{entries: make(map[string]*localEntry)}
}

// Acquire blocks until the key is free or ctx is done.
func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.unref(key, e)
		})
	}, nil
}

func (l *Local) unref(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
