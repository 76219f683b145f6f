package repository

import (
	"context"

	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/infra/db"
	"alumni-reserve/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type SlotRepository struct {
	db db.DBTX
}

func NewSlotRepository(dbtx db.DBTX) *SlotRepository {
	return &SlotRepository{db: dbtx}
}

const selectSlotSQL = `
SELECT id, kind, resource_class, starts_at, ends_at, occupies_window,
	capacity, booking_deadline, cancel_deadline, admin_fee_cents, delivery_fee_cents
FROM slots
WHERE id = $1`

const selectTiersSQL = `
SELECT name, unit_fee_cents, counts_capacity
FROM slot_tiers
WHERE slot_id = $1
ORDER BY position`

func (r *SlotRepository) Snapshot(ctx context.Context, id uuid.UUID) (reservation.SlotSpec, error) {
	var (
		spec                            reservation.SlotSpec
		kind                            string
		capacity                        pgtype.Int4
		bookingDeadline, cancelDeadline pgtype.Timestamptz
	)
	err := r.db.QueryRow(ctx, selectSlotSQL, id).Scan(
		&spec.ID, &kind, &spec.ResourceClass, &spec.Start, &spec.End, &spec.OccupiesWindow,
		&capacity, &bookingDeadline, &cancelDeadline, &spec.AdminFeeCents, &spec.DeliveryFeeCents,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return reservation.SlotSpec{}, infra.WrapRepoErr("slot not found", err, infra.KindNotFound)
		}
		return reservation.SlotSpec{}, infra.WrapRepoErr("failed to find slot", err)
	}
	spec.Kind = reservation.ResourceKind(kind)
	spec.Capacity = pgconv.Int32PtrFromPgtype(capacity)
	spec.BookingDeadline = pgconv.TimePtrFromPgtype(bookingDeadline)
	spec.CancelDeadline = pgconv.TimePtrFromPgtype(cancelDeadline)

	rows, err := r.db.Query(ctx, selectTiersSQL, id)
	if err != nil {
		return reservation.SlotSpec{}, infra.WrapRepoErr("failed to load slot tiers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t reservation.TierSpec
		if err := rows.Scan(&t.Name, &t.UnitFeeCents, &t.CountsCapacity); err != nil {
			return reservation.SlotSpec{}, infra.WrapRepoErr("failed to scan slot tier", err)
		}
		spec.Tiers = append(spec.Tiers, t)
	}
	if err := rows.Err(); err != nil {
		return reservation.SlotSpec{}, infra.WrapRepoErr("failed to read slot tiers", err)
	}
	return spec, nil
}

const tryReserveSQL = `
UPDATE slots
SET reserved_count = reserved_count + $2
WHERE id = $1
	AND (capacity IS NULL OR reserved_count + $2 <= capacity)`

// TryReserve is the capacity check-and-increment in a single statement, so
// two concurrent bookings can never both land in the last seat.
func (r *SlotRepository) TryReserve(ctx context.Context, id uuid.UUID, seats int32) error {
	tag, err := r.db.Exec(ctx, tryReserveSQL, id, seats)
	if err != nil {
		return infra.WrapRepoErr("failed to reserve slot capacity", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("slot capacity exceeded", nil, infra.KindConflict)
	}
	return nil
}

const releaseSQL = `
UPDATE slots
SET reserved_count = GREATEST(reserved_count - $2, 0)
WHERE id = $1`

func (r *SlotRepository) Release(ctx context.Context, id uuid.UUID, seats int32) error {
	if _, err := r.db.Exec(ctx, releaseSQL, id, seats); err != nil {
		return infra.WrapRepoErr("failed to release slot capacity", err)
	}
	return nil
}
