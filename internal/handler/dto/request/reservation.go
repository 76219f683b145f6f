package request

import (
	"strings"

	"alumni-reserve/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	SlotID uuid.UUID     `json:"slot_id" binding:"required"`
	Path   string        `json:"path" binding:"required,oneof=pickup delivery"`
	Items  []ItemRequest `json:"items" binding:"required,min=1,dive"`
	Note   *string       `json:"note,omitempty"`
}

type ItemRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Tier     string `json:"tier"`
	Quantity int32  `json:"quantity" binding:"required,min=1"`
}

func (r CreateReservationRequest) ToCommand() commands.CreateReservationCommand {
	items := make([]commands.ReservationLine, len(r.Items))
	for i, it := range r.Items {
		items[i] = commands.ReservationLine{
			Kind:     it.Kind,
			Tier:     it.Tier,
			Quantity: it.Quantity,
		}
	}

	note := ""
	if r.Note != nil {
		note = strings.TrimSpace(*r.Note)
	}

	return commands.CreateReservationCommand{
		SlotID: r.SlotID,
		Path:   r.Path,
		Items:  items,
		Note:   note,
	}
}

type CancelReservationRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (r CancelReservationRequest) GetReason() string {
	if r.Reason == nil {
		return ""
	}
	return strings.TrimSpace(*r.Reason)
}

type AdvanceStatusRequest struct {
	Target string  `json:"target" binding:"required"`
	Note   *string `json:"note,omitempty"`
}

func (r AdvanceStatusRequest) GetNote() string {
	if r.Note == nil {
		return ""
	}
	return strings.TrimSpace(*r.Note)
}

type RecordPaymentRequest struct {
	AmountCents int64   `json:"amount_cents" binding:"required,min=1"`
	GatewayRef  *string `json:"gateway_ref,omitempty"`
}
