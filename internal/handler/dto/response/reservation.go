package response

import (
	"time"

	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/usecase/commands"
	"alumni-reserve/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReservationResponse struct {
	ID                 uuid.UUID             `json:"id"`
	SubjectID          uuid.UUID             `json:"subjectId"`
	SlotID             uuid.UUID             `json:"slotId"`
	Kind               string                `json:"kind"`
	Status             string                `json:"status"`
	Path               string                `json:"path"`
	TotalFeeCents      int64                 `json:"totalFeeCents"`
	NonRefundableCents int64                 `json:"nonRefundableCents"`
	WalletPaidCents    int64                 `json:"walletPaidCents"`
	GatewayPaidCents   int64                 `json:"gatewayPaidCents"`
	RemainingCents     int64                 `json:"remainingCents"`
	PaymentMethod      string                `json:"paymentMethod"`
	GatewayRef         *string               `json:"gatewayRef,omitempty"`
	StartsAt           *time.Time            `json:"startsAt,omitempty"`
	EndsAt             *time.Time            `json:"endsAt,omitempty"`
	SeatsHeld          int32                 `json:"seatsHeld"`
	Note               *string               `json:"note,omitempty"`
	Items              []ItemResponse        `json:"items"`
	History            []StatusChangeLogItem `json:"history"`
	NextStatuses       []string              `json:"nextStatuses"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

type ItemResponse struct {
	ID             uuid.UUID `json:"id"`
	Kind           string    `json:"kind"`
	Tier           string    `json:"tier"`
	UnitFeeCents   int64     `json:"unitFeeCents"`
	Quantity       int32     `json:"quantity"`
	CountsCapacity bool      `json:"countsCapacity"`
}

type StatusChangeLogItem struct {
	ID         uuid.UUID `json:"id"`
	FromStatus *string   `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus"`
	ActorID    uuid.UUID `json:"actorId"`
	Note       *string   `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type ReservationListResponse struct {
	ID            uuid.UUID  `json:"id"`
	SlotID        uuid.UUID  `json:"slotId"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	TotalFeeCents int64      `json:"totalFeeCents"`
	StartsAt      *time.Time `json:"startsAt,omitempty"`
	EndsAt        *time.Time `json:"endsAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type CancelReservationResponse struct {
	RefundTotalCents int64            `json:"refundTotalCents"`
	Refunds          []RefundResponse `json:"refunds"`
}

type RefundResponse struct {
	AmountCents int64  `json:"amountCents"`
	Method      string `json:"method"`
	State       string `json:"state"`
}

// Field names are kept in lockstep with the read model, so the mapping is a
// structural copy rather than a hand-maintained field list.
func FromReservationView(rm *queries.ReservationView) *ReservationResponse {
	var resp ReservationResponse
	_ = copier.Copy(&resp, rm)
	for _, st := range reservation.NextStatuses(reservation.Status(rm.Status), reservation.FulfillmentPath(rm.Path)) {
		resp.NextStatuses = append(resp.NextStatuses, string(st))
	}
	return &resp
}

func FromReservationListItem(rm *queries.ReservationListItem) *ReservationListResponse {
	var resp ReservationListResponse
	_ = copier.Copy(&resp, rm)
	return &resp
}

func FromCancelResult(result *commands.CancelReservationResult) *CancelReservationResponse {
	resp := &CancelReservationResponse{
		RefundTotalCents: result.RefundCents,
		Refunds:          make([]RefundResponse, len(result.Refunds)),
	}
	for i, rf := range result.Refunds {
		resp.Refunds[i] = RefundResponse{
			AmountCents: rf.Amount.Cents(),
			Method:      string(rf.Method),
			State:       string(rf.State),
		}
	}
	return resp
}
