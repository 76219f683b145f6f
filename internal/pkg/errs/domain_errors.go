package errs

import "errors"

// Business-rule sentinels shared by the usecase and handler layers.
var (
	// Eligibility / deadlines
	ErrIneligibleSubject = errors.New("subject not eligible for resource class")
	ErrDeadlinePassed    = errors.New("deadline passed")

	// Booking
	ErrSlotNotFound        = errors.New("slot not found")
	ErrCapacityExceeded    = errors.New("slot capacity exceeded")
	ErrTimeOverlap         = errors.New("conflicting reservation in time window")
	ErrReservationNotFound = errors.New("reservation not found")

	// Fulfillment
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInsufficientSettlement  = errors.New("settlement incomplete")

	// Settlement
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// Idempotency
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyInProgress  = errors.New("idempotency in progress")
	ErrDuplicateRequest       = errors.New("duplicate request with different parameters")

	// Concurrency / infrastructure
	ErrConcurrencyConflict     = errors.New("lost concurrent update race")
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
