package reservation

import (
	"errors"
	"time"

	"alumni-reserve/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrUnknownTier   = errors.New("no pricing tier configured for item")
	ErrBookingClosed = errors.New("booking deadline passed")
)

// TierSpec is one pricing tier of a slot's fee schedule. Whether a tier
// occupies a seat is part of the slot configuration, not the booking.
type TierSpec struct {
	Name           string
	UnitFeeCents   int64
	CountsCapacity bool
}

// SlotSpec is a read-only snapshot of the bookable resource taken inside the
// booking transaction.
type SlotSpec struct {
	ID               uuid.UUID
	Kind             ResourceKind
	ResourceClass    string
	Start            time.Time
	End              time.Time
	OccupiesWindow   bool
	Capacity         *int32
	BookingDeadline  *time.Time
	CancelDeadline   *time.Time
	AdminFeeCents    int64
	DeliveryFeeCents int64
	Tiers            []TierSpec
}

// tier resolves a named tier, falling back to the first tier for inputs that
// leave it empty (single-tier slots).
func (s SlotSpec) tier(name string) (TierSpec, bool) {
	if name == "" && len(s.Tiers) > 0 {
		return s.Tiers[0], true
	}
	for _, t := range s.Tiers {
		if t.Name == name {
			return t, true
		}
	}
	return TierSpec{}, false
}

// CancelCutoff is the moment after which cancellation is refused: the
// explicit cutoff when configured, otherwise strictly before the slot start.
func (s SlotSpec) CancelCutoff() time.Time {
	if s.CancelDeadline != nil {
		return *s.CancelDeadline
	}
	return s.Start
}

func (s SlotSpec) bookingCutoff() time.Time {
	if s.BookingDeadline != nil {
		return *s.BookingDeadline
	}
	return s.Start
}

// ItemInput is the caller's request for one line of the booking.
type ItemInput struct {
	Kind     string
	Tier     string
	Quantity int32
}

type Factory struct {
	clock clock.Clock
}

func NewFactory(clk clock.Clock) *Factory {
	return &Factory{clock: clk}
}

// CreateReservation builds a fully settled aggregate: items are priced from
// the slot's tier snapshot, the total gets the admin fee plus the delivery
// fee when the delivery path is chosen, and the wallet/gateway split decides
// the initial status. Capacity reservation and wallet debiting stay with the
// orchestrator; the factory only does arithmetic and validation.
func (f *Factory) CreateReservation(
	slot SlotSpec,
	subjectID uuid.UUID,
	path FulfillmentPath,
	inputs []ItemInput,
	note string,
	walletBalance Money,
	actorID uuid.UUID,
) (*Reservation, Settlement, error) {
	now := f.clock.Now()
	if len(inputs) == 0 {
		return nil, Settlement{}, ErrNoItems
	}
	if !now.Before(slot.bookingCutoff()) {
		return nil, Settlement{}, ErrBookingClosed
	}

	items := make([]Item, 0, len(inputs))
	itemsTotal := ZeroMoney()
	var seats int32
	for _, in := range inputs {
		t, ok := slot.tier(in.Tier)
		if !ok {
			return nil, Settlement{}, ErrUnknownTier
		}
		unitFee, err := NewMoney(t.UnitFeeCents)
		if err != nil {
			return nil, Settlement{}, err
		}
		item, err := NewItem(in.Kind, t.Name, unitFee, in.Quantity, t.CountsCapacity)
		if err != nil {
			return nil, Settlement{}, err
		}
		items = append(items, item)
		itemsTotal = itemsTotal.Add(item.Subtotal())
		seats += item.SeatCount()
	}

	adminFee, err := NewMoney(slot.AdminFeeCents)
	if err != nil {
		return nil, Settlement{}, err
	}
	nonRefundable := adminFee
	if path == PathDelivery {
		deliveryFee, derr := NewMoney(slot.DeliveryFeeCents)
		if derr != nil {
			return nil, Settlement{}, derr
		}
		nonRefundable = nonRefundable.Add(deliveryFee)
	}
	totalFee := itemsTotal.Add(nonRefundable)

	var window *TimeWindow
	if slot.OccupiesWindow {
		w, werr := NewTimeWindow(slot.Start, slot.End)
		if werr != nil {
			return nil, Settlement{}, ErrWindowRequired
		}
		window = &w
	}

	r := &Reservation{
		id:            uuid.New(),
		subjectID:     subjectID,
		kind:          slot.Kind,
		slotID:        slot.ID,
		status:        StatusDraft,
		path:          path,
		items:         items,
		totalFee:      totalFee,
		nonRefundable: nonRefundable,
		window:        window,
		seatsHeld:     seats,
		note:          note,
		createdAt:     now,
		updatedAt:     now,
	}
	r.history = append(r.history, newHistoryEntry(nil, StatusDraft, actorID, "", now))

	settlement := SplitCharge(totalFee, walletBalance)
	if err := r.applySettlement(settlement, actorID, now); err != nil {
		return nil, Settlement{}, err
	}
	return r, settlement, nil
}
