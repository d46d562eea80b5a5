package service

import (
	"context"
	"errors"
	"time"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/repository"
	"golang-ea-automation/pkg/errs"
	"golang-ea-automation/pkg/lock"
)

// lookupError turns a repository read failure into a NotFound or Internal envelope.
func lookupError(component string, err error, message string) error {
	if repository.IsNotFound(err) {
		return errs.NotFound(component, message)
	}
	return errs.Internal(component, err)
}

// transitionError reports a refused state change as a conflict.
func transitionError(component string, err error) error {
	return errs.New(component, errs.CodeConflict, errs.WithMessage(err.Error()), errs.WithCause(err))
}

// storeError keeps envelopes, maps duplicates onto conflictMessage and stale writes onto a conflict.
func storeError(component string, err error, conflictMessage string) error {
	if err == nil {
		return nil
	}
	if _, ok := errs.As(err); ok {
		return err
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return errs.New(component, errs.CodeConflict, errs.WithMessage(conflictMessage), errs.WithCause(err))
	}
	if errors.Is(err, repository.ErrStaleState) {
		return errs.New(component, errs.CodeConflict, errs.WithMessage(staleStateMessage), errs.WithCause(err))
	}
	if errors.Is(err, entity.ErrIllegalTransition) {
		return transitionError(component, err)
	}
	return errs.Internal(component, err)
}

const staleStateMessage = "Job status changed concurrently, reload and retry"

// describe renders err for aggregate reports without leaking internals.
func describe(err error) string {
	if e, ok := errs.As(err); ok && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// acquire takes key on locker, giving up after wait.
func acquire(ctx context.Context, locker lock.Locker, key string, wait time.Duration, component, busyMessage string) (func(), error) {
	if wait <= 0 {
		wait = 5 * time.Second
	}
	lockCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	release, err := locker.Acquire(lockCtx, key)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, errs.Conflict(component, busyMessage)
		}
		return nil, errs.New(component, errs.CodeUnavailable, errs.WithMessage("lock backend unavailable"), errs.WithCause(err))
	}
	return release, nil
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

// Options tunes the orchestration services. Zero values fall back to defaults.
type Options struct {
	LockWait               time.Duration
	MaxRetries             int
	JobTimeout             time.Duration
	StatusTimeout          time.Duration
	RefreshTimeout         time.Duration
	BulkRefreshConcurrency int
	CatalogTTL             time.Duration
}

func (o Options) withDefaults() Options {
	if o.LockWait <= 0 {
		o.LockWait = 5 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 2 * time.Minute
	}
	if o.StatusTimeout <= 0 {
		o.StatusTimeout = 10 * time.Second
	}
	if o.RefreshTimeout <= 0 {
		o.RefreshTimeout = 5 * time.Second
	}
	if o.BulkRefreshConcurrency <= 0 {
		o.BulkRefreshConcurrency = 1
	}
	if o.CatalogTTL <= 0 {
		o.CatalogTTL = 10 * time.Minute
	}
	return o
}
