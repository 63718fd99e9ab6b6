package model

import "errors"

// Validation errors: recoverable locally, the caller should recompute
// the window and re-prompt.
var (
	ErrTooShort              = errors.New("duration below resource minimum")
	ErrTooLong               = errors.New("duration exceeds available window")
	ErrOutsideOperatingHours = errors.New("start outside operating hours")
	ErrInsufficientLeadTime  = errors.New("start violates advance notice requirement")
	ErrClosedDay             = errors.New("resource closed on this day")
	ErrNoWindow              = errors.New("no bookable window")
)

// Concurrency errors: recoverable by re-querying availability and
// resubmitting. The engine never retries these itself.
var (
	ErrSlotTaken  = errors.New("slot already taken")
	ErrNotPending = errors.New("reservation is not pending")
)

var (
	ErrForbidden          = errors.New("not allowed to act on this reservation")
	ErrNotCancellable     = errors.New("reservation cannot be cancelled")
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
