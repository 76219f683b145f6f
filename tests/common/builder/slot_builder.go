//go:build unit || e2e

package builder

import (
	"time"

	"alumni-reserve/internal/domain/reservation"

	"github.com/google/uuid"
)

// SlotBuilder assembles a slot snapshot for domain and usecase tests.
// Defaults describe a capacity-bounded event one week out with a single
// standard tier.
type SlotBuilder struct {
	ID               uuid.UUID
	Kind             reservation.ResourceKind
	ResourceClass    string
	Start            time.Time
	End              time.Time
	OccupiesWindow   bool
	Capacity         *int32
	BookingDeadline  *time.Time
	CancelDeadline   *time.Time
	AdminFeeCents    int64
	DeliveryFeeCents int64
	Tiers            []reservation.TierSpec
}

func NewSlotBuilder(now time.Time) *SlotBuilder {
	capacity := int32(10)
	start := now.Add(7 * 24 * time.Hour)
	return &SlotBuilder{
		ID:             uuid.New(),
		Kind:           reservation.KindEvent,
		ResourceClass:  "event:annual-dinner",
		Start:          start,
		End:            start.Add(2 * time.Hour),
		OccupiesWindow: true,
		Capacity:       &capacity,
		AdminFeeCents:  0,
		Tiers: []reservation.TierSpec{
			{Name: "standard", UnitFeeCents: 5000, CountsCapacity: true},
		},
	}
}

func (b *SlotBuilder) With(mutate func(*SlotBuilder)) *SlotBuilder {
	mutate(b)
	return b
}

func (b *SlotBuilder) WithKind(kind reservation.ResourceKind) *SlotBuilder {
	b.Kind = kind
	return b
}

func (b *SlotBuilder) WithAdminFee(cents int64) *SlotBuilder {
	b.AdminFeeCents = cents
	return b
}

func (b *SlotBuilder) WithDeliveryFee(cents int64) *SlotBuilder {
	b.DeliveryFeeCents = cents
	return b
}

func (b *SlotBuilder) WithTier(name string, unitFeeCents int64, countsCapacity bool) *SlotBuilder {
	b.Tiers = append(b.Tiers, reservation.TierSpec{
		Name:           name,
		UnitFeeCents:   unitFeeCents,
		CountsCapacity: countsCapacity,
	})
	return b
}

func (b *SlotBuilder) WithoutWindow() *SlotBuilder {
	b.OccupiesWindow = false
	return b
}

func (b *SlotBuilder) WithBookingDeadline(t time.Time) *SlotBuilder {
	b.BookingDeadline = &t
	return b
}

func (b *SlotBuilder) WithCancelDeadline(t time.Time) *SlotBuilder {
	b.CancelDeadline = &t
	return b
}

func (b *SlotBuilder) Build() reservation.SlotSpec {
	return reservation.SlotSpec{
		ID:               b.ID,
		Kind:             b.Kind,
		ResourceClass:    b.ResourceClass,
		Start:            b.Start,
		End:              b.End,
		OccupiesWindow:   b.OccupiesWindow,
		Capacity:         b.Capacity,
		BookingDeadline:  b.BookingDeadline,
		CancelDeadline:   b.CancelDeadline,
		AdminFeeCents:    b.AdminFeeCents,
		DeliveryFeeCents: b.DeliveryFeeCents,
		Tiers:            b.Tiers,
	}
}
