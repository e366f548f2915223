package storage

import (
	apperrors "chat-relay/errors"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const maxConflictRetries = 5

// call runs fn with a deadline and turns a stuck call into ErrTimeout.
// Badger calls can't be interrupted: an overrunning fn keeps going in the
// background and its result is dropped.
func call(ctx context.Context, timeout time.Duration, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return mapError(err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperrors.ErrTimeout
		}
		return ctx.Err()
	}
}

// mapError keeps domain errors as they are and reports everything else as an
// unavailable store.
func mapError(err error) error {
	switch {
	case err == nil,
		errors.Is(err, apperrors.ErrNameConflict),
		errors.Is(err, apperrors.ErrNotFound):
		return err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
}

// update runs fn in a read-write transaction, retrying when badger detects a
// conflicting concurrent commit. The retry sees the winner's write.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		if err = db.Update(fn); !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
