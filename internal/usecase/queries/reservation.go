package queries

import (
	"context"
	"time"

	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/pkg/errs"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type ReservationView struct {
	ID                 uuid.UUID           `json:"id"`
	SubjectID          uuid.UUID           `json:"subject_id"`
	SlotID             uuid.UUID           `json:"slot_id"`
	Kind               string              `json:"kind"`
	Status             string              `json:"status"`
	Path               string              `json:"path"`
	TotalFeeCents      int64               `json:"total_fee_cents"`
	NonRefundableCents int64               `json:"non_refundable_cents"`
	WalletPaidCents    int64               `json:"wallet_paid_cents"`
	GatewayPaidCents   int64               `json:"gateway_paid_cents"`
	RemainingCents     int64               `json:"remaining_cents"`
	PaymentMethod      string              `json:"payment_method"`
	GatewayRef         *string             `json:"gateway_ref,omitempty"`
	StartsAt           *time.Time          `json:"starts_at,omitempty"`
	EndsAt             *time.Time          `json:"ends_at,omitempty"`
	SeatsHeld          int32               `json:"seats_held"`
	Note               *string             `json:"note,omitempty"`
	Items              []ReservationItem   `json:"items"`
	History            []StatusHistoryItem `json:"history"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

type ReservationItem struct {
	ID             uuid.UUID `json:"id"`
	Kind           string    `json:"kind"`
	Tier           string    `json:"tier"`
	UnitFeeCents   int64     `json:"unit_fee_cents"`
	Quantity       int32     `json:"quantity"`
	CountsCapacity bool      `json:"counts_capacity"`
}

type StatusHistoryItem struct {
	ID         uuid.UUID `json:"id"`
	FromStatus *string   `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	Note       *string   `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ReservationListItem struct {
	ID            uuid.UUID  `json:"id"`
	SlotID        uuid.UUID  `json:"slot_id"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	TotalFeeCents int64      `json:"total_fee_cents"`
	StartsAt      *time.Time `json:"starts_at,omitempty"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ReservationQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID, limit int32) ([]*ReservationListItem, error)
}

type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	FindBySubjectID(ctx context.Context, subjectID uuid.UUID, limit int32) ([]*ReservationListItem, error)
}

type reservationQueriesImpl struct {
	store ReservationReadStore
}

func NewReservationQueries(store ReservationReadStore) ReservationQueries {
	return &reservationQueriesImpl{store: store}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrReservationNotFound
		}
		return nil, err
	}
	return view, nil
}

func (q *reservationQueriesImpl) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit int32) ([]*ReservationListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	return q.store.FindBySubjectID(ctx, subjectID, limit)
}
