//go:build unit || e2e

package builder

import (
	"time"

	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/pkg/clock"
	"alumni-reserve/internal/usecase/queries"

	"github.com/google/uuid"
)

// ReservationBuilder produces aggregates through the real factory so tests
// exercise the same pricing and settlement path production does.
type ReservationBuilder struct {
	Now           time.Time
	Slot          *SlotBuilder
	SubjectID     uuid.UUID
	ActorID       uuid.UUID
	Path          reservation.FulfillmentPath
	Inputs        []reservation.ItemInput
	Note          string
	WalletBalance int64
}

func NewReservationBuilder() *ReservationBuilder {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	subjectID := uuid.New()
	return &ReservationBuilder{
		Now:           now,
		Slot:          NewSlotBuilder(now),
		SubjectID:     subjectID,
		ActorID:       subjectID,
		Path:          reservation.PathPickup,
		Inputs:        []reservation.ItemInput{{Kind: "attendee", Quantity: 1}},
		Note:          "",
		WalletBalance: 100_000,
	}
}

func (b *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(b)
	return b
}

func (b *ReservationBuilder) WithPath(path reservation.FulfillmentPath) *ReservationBuilder {
	b.Path = path
	return b
}

func (b *ReservationBuilder) WithInputs(inputs ...reservation.ItemInput) *ReservationBuilder {
	b.Inputs = inputs
	return b
}

func (b *ReservationBuilder) WithWalletBalance(cents int64) *ReservationBuilder {
	b.WalletBalance = cents
	return b
}

func (b *ReservationBuilder) BuildDomain() (*reservation.Reservation, reservation.Settlement, error) {
	factory := reservation.NewFactory(clock.NewMockClock(b.Now))
	balance := reservation.MustMoney(b.WalletBalance)
	return factory.CreateReservation(b.Slot.Build(), b.SubjectID, b.Path, b.Inputs, b.Note, balance, b.ActorID)
}

// BuildCreateRequestMap is the JSON body for the create endpoint as a
// mutable map, so handler tests can drop or corrupt individual fields.
func (b *ReservationBuilder) BuildCreateRequestMap() map[string]any {
	items := make([]map[string]any, len(b.Inputs))
	for i, in := range b.Inputs {
		items[i] = map[string]any{
			"kind":     in.Kind,
			"tier":     in.Tier,
			"quantity": in.Quantity,
		}
	}
	return map[string]any{
		"slot_id": b.Slot.ID.String(),
		"path":    string(b.Path),
		"items":   items,
	}
}

func (b *ReservationBuilder) BuildView() *queries.ReservationView {
	res, _, err := b.BuildDomain()
	if err != nil {
		panic(err)
	}
	return ViewFromDomain(res)
}

// ViewFromDomain mirrors what the read store would return for a persisted
// aggregate.
func ViewFromDomain(res *reservation.Reservation) *queries.ReservationView {
	view := &queries.ReservationView{
		ID:                 res.ID(),
		SubjectID:          res.SubjectID(),
		SlotID:             res.SlotID(),
		Kind:               string(res.Kind()),
		Status:             string(res.Status()),
		Path:               string(res.Path()),
		TotalFeeCents:      res.TotalFee().Cents(),
		NonRefundableCents: res.NonRefundable().Cents(),
		WalletPaidCents:    res.WalletPaid().Cents(),
		GatewayPaidCents:   res.GatewayPaid().Cents(),
		RemainingCents:     res.Remaining().Cents(),
		PaymentMethod:      string(res.PaymentMethod()),
		GatewayRef:         res.GatewayRef(),
		SeatsHeld:          res.SeatsHeld(),
		CreatedAt:          res.CreatedAt(),
		UpdatedAt:          res.UpdatedAt(),
	}
	if w := res.Window(); w != nil {
		start, end := w.Start(), w.End()
		view.StartsAt = &start
		view.EndsAt = &end
	}
	if note := res.Note(); note != "" {
		view.Note = &note
	}
	for _, item := range res.Items() {
		view.Items = append(view.Items, queries.ReservationItem{
			ID:             item.ID(),
			Kind:           item.Kind(),
			Tier:           item.Tier(),
			UnitFeeCents:   item.UnitFee().Cents(),
			Quantity:       item.Quantity(),
			CountsCapacity: item.CountsCapacity(),
		})
	}
	for _, h := range res.History() {
		entry := queries.StatusHistoryItem{
			ID:         h.ID(),
			ToStatus:   string(h.ToStatus()),
			ActorID:    h.ActorID(),
			OccurredAt: h.OccurredAt(),
		}
		if from := h.FromStatus(); from != nil {
			s := string(*from)
			entry.FromStatus = &s
		}
		if note := h.Note(); note != "" {
			entry.Note = &note
		}
		view.History = append(view.History, entry)
	}
	return view
}
