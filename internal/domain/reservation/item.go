package reservation

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrEmptyItemKind   = errors.New("item kind cannot be empty")
	ErrInvalidQuantity = errors.New("item quantity must be positive")
)

// Item is one priced line of a reservation: a certificate copy, a trip
// attendee, a registered timeslot. The unit fee and the counts-capacity flag
// are snapshots taken from the slot's tier configuration at booking time, so
// later price or tier changes never affect an existing booking (and capacity
// releases use the exact flag the reservation was charged under).
type Item struct {
	id             uuid.UUID
	kind           string
	tier           string
	unitFee        Money
	quantity       int32
	countsCapacity bool
}

func NewItem(kind, tier string, unitFee Money, quantity int32, countsCapacity bool) (Item, error) {
	if kind == "" {
		return Item{}, ErrEmptyItemKind
	}
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	return Item{
		id:             uuid.New(),
		kind:           kind,
		tier:           tier,
		unitFee:        unitFee,
		quantity:       quantity,
		countsCapacity: countsCapacity,
	}, nil
}

func ReconstructItem(id uuid.UUID, kind, tier string, unitFee Money, quantity int32, countsCapacity bool) Item {
	return Item{
		id:             id,
		kind:           kind,
		tier:           tier,
		unitFee:        unitFee,
		quantity:       quantity,
		countsCapacity: countsCapacity,
	}
}

func (i Item) ID() uuid.UUID        { return i.id }
func (i Item) Kind() string         { return i.kind }
func (i Item) Tier() string         { return i.tier }
func (i Item) UnitFee() Money       { return i.unitFee }
func (i Item) Quantity() int32      { return i.quantity }
func (i Item) CountsCapacity() bool { return i.countsCapacity }

func (i Item) Subtotal() Money {
	return i.unitFee.Mul(int64(i.quantity))
}

// SeatCount is the number of seats this line occupies. Tiers excluded from
// capacity (e.g. infants on a trip) are recorded but hold no seat.
func (i Item) SeatCount() int32 {
	if !i.countsCapacity {
		return 0
	}
	return i.quantity
}
