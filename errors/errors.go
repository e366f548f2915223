package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrNameConflict        = fmt.Errorf("name already used by another participant")
	ErrNotFound            = fmt.Errorf("participant not found")
	ErrSenderNotRegistered = fmt.Errorf("sender is not a registered participant")
	ErrInvalidLimit        = fmt.Errorf("limit must be a positive integer")
	ErrInvalidRequest      = fmt.Errorf("invalid request")

	ErrStoreUnavailable = fmt.Errorf("store unavailable")
	ErrTimeout          = fmt.Errorf("store operation timed out")
)
