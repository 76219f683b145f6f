package shared

import (
	"context"
	"time"

	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: write transaction with bounded retry on concurrency conflicts
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
}

type Tx interface {
	Reservations() ReservationRepository
	Slots() SlotRepository
	Wallets() WalletRepository
	Policies() AccessPolicyRepository
	Memberships() MembershipRepository
	Idempotency() IdempotencyRepository
	Notifications() NotificationRepository
	DB() db.DBTX
}

type ReservationRepository interface {
	Create(ctx context.Context, res *reservation.Reservation) error
	// FindForUpdate loads the full aggregate with a row lock so concurrent
	// lifecycle operations on the same reservation serialize.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	// Save persists settlement/status columns plus newly appended history.
	Save(ctx context.Context, res *reservation.Reservation, newHistory []reservation.HistoryEntry) error
	// FindOverlapping returns the id of any active window-occupying booking
	// of the subject that conflicts with [start, end) under the half-open rule.
	FindOverlapping(ctx context.Context, subjectID uuid.UUID, start, end time.Time) (*uuid.UUID, error)
	// StalePendingPayments lists reservations sitting in pending_payment
	// since before the cutoff (daily sweep input).
	StalePendingPayments(ctx context.Context, cutoff time.Time, limit int32) ([]uuid.UUID, error)
}

type SlotRepository interface {
	// Snapshot reads the slot and its pricing tiers without locking.
	Snapshot(ctx context.Context, id uuid.UUID) (reservation.SlotSpec, error)
	// TryReserve atomically bumps the active-seat count, failing when the
	// capacity bound would be exceeded. Unbounded slots always succeed.
	TryReserve(ctx context.Context, id uuid.UUID, seats int32) error
	// Release is the inverse; it floors at zero so stale seat values can
	// never drive the count negative.
	Release(ctx context.Context, id uuid.UUID, seats int32) error
}

type WalletRepository interface {
	// BalanceForUpdate locks the account row for the rest of the transaction,
	// creating a zero-balance row when the subject has none. Same-subject
	// bookings serialize on this lock before the overlap check runs.
	BalanceForUpdate(ctx context.Context, subjectID uuid.UUID) (int64, error)
	Debit(ctx context.Context, subjectID uuid.UUID, amountCents int64) error
	Credit(ctx context.Context, subjectID uuid.UUID, amountCents int64) error
	// RecordRefund stores a computed refund portion (credited or owed).
	RecordRefund(ctx context.Context, reservationID uuid.UUID, amountCents int64, method reservation.RefundMethod, state reservation.RefundState) error
}

type AccessPolicyRepository interface {
	// PolicyFor returns the configured policy for a resource class; a
	// missing row resolves to members-only (fail closed).
	PolicyFor(ctx context.Context, resourceClass string) (AccessPolicy, error)
}

type AccessPolicy string

const (
	PolicyMembersOnly AccessPolicy = "members_only"
	PolicyOpen        AccessPolicy = "open"
)

type MembershipRepository interface {
	IsActive(ctx context.Context, subjectID uuid.UUID) (bool, error)
	// ExpireLapsed deactivates memberships past their expiry (sweep).
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

type IdempotencyRepository interface {
	// TryInsert claims the key with ON CONFLICT DO NOTHING semantics and
	// reports whether this call was the one that inserted it.
	TryInsert(ctx context.Context, key, subjectID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key, subjectID uuid.UUID) (*IdempotencyRecord, error)
	MarkCompleted(ctx context.Context, key, subjectID uuid.UUID, resultReservationID uuid.UUID) error
}

type IdempotencyRecord struct {
	Key                 uuid.UUID
	SubjectID           uuid.UUID
	Endpoint            string
	RequestHash         string
	Status              string
	ResultReservationID *uuid.UUID
	ExpiresAt           time.Time
}

const (
	IdempotencyProcessing = "processing"
	IdempotencyCompleted  = "completed"
)

// NotificationRepository writes outbox rows in the booking transaction;
// delivery happens outside it so dispatch failures never roll bookings back.
type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}
