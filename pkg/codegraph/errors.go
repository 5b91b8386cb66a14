package codegraph

import "errors"

// Sentinel error kinds per the §7 error taxonomy. Wrap with
// fmt.Errorf("%w: ...") to attach context; callers match with
// errors.Is.
var (
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrDimensionMismatch  = errors.New("dimension mismatch")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrWorkerFailure      = errors.New("worker failure")
	ErrCancelled          = errors.New("cancelled")
)
