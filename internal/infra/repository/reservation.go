package repository

import (
	"context"
	"time"

	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/infra/db"
	"alumni-reserve/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type ReservationRepository struct {
	db db.DBTX
}

func NewReservationRepository(dbtx db.DBTX) *ReservationRepository {
	return &ReservationRepository{db: dbtx}
}

const insertReservationSQL = `
INSERT INTO reservations (
	id, subject_id, slot_id, kind, status, path,
	total_fee_cents, non_refundable_cents, wallet_paid_cents, gateway_paid_cents,
	payment_method, gateway_ref, starts_at, ends_at, seats_held, note,
	created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

const insertItemSQL = `
INSERT INTO reservation_items (id, reservation_id, kind, tier, unit_fee_cents, quantity, counts_capacity)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const insertHistorySQL = `
INSERT INTO status_history (id, reservation_id, from_status, to_status, actor_id, note, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	var startsAt, endsAt pgtype.Timestamptz
	if w := res.Window(); w != nil {
		startsAt = pgconv.TimeToPgtype(w.Start())
		endsAt = pgconv.TimeToPgtype(w.End())
	}

	_, err := r.db.Exec(ctx, insertReservationSQL,
		res.ID(), res.SubjectID(), res.SlotID(), string(res.Kind()), string(res.Status()), string(res.Path()),
		res.TotalFee().Cents(), res.NonRefundable().Cents(), res.WalletPaid().Cents(), res.GatewayPaid().Cents(),
		string(res.PaymentMethod()), pgconv.StringPtrToPgtype(res.GatewayRef()), startsAt, endsAt,
		res.SeatsHeld(), res.Note(), res.CreatedAt(), res.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create reservation", err)
	}

	for _, item := range res.Items() {
		_, err := r.db.Exec(ctx, insertItemSQL,
			item.ID(), res.ID(), item.Kind(), item.Tier(),
			item.UnitFee().Cents(), item.Quantity(), item.CountsCapacity(),
		)
		if err != nil {
			return infra.WrapRepoErr("failed to create reservation item", err)
		}
	}
	return r.insertHistory(ctx, res.ID(), res.History())
}

func (r *ReservationRepository) insertHistory(ctx context.Context, reservationID uuid.UUID, entries []reservation.HistoryEntry) error {
	for _, h := range entries {
		var from pgtype.Text
		if f := h.FromStatus(); f != nil {
			from = pgconv.StringToPgtype(string(*f))
		}
		_, err := r.db.Exec(ctx, insertHistorySQL,
			h.ID(), reservationID, from, string(h.ToStatus()), h.ActorID(),
			pgconv.StringToPgtype(h.Note()), h.OccurredAt(),
		)
		if err != nil {
			return infra.WrapRepoErr("failed to append status history", err)
		}
	}
	return nil
}

const selectReservationForUpdateSQL = `
SELECT id, subject_id, slot_id, kind, status, path,
	total_fee_cents, non_refundable_cents, wallet_paid_cents, gateway_paid_cents,
	payment_method, gateway_ref, starts_at, ends_at, seats_held, note,
	created_at, updated_at
FROM reservations
WHERE id = $1
FOR UPDATE`

const selectItemsSQL = `
SELECT id, kind, tier, unit_fee_cents, quantity, counts_capacity
FROM reservation_items
WHERE reservation_id = $1
ORDER BY id`

const selectHistorySQL = `
SELECT id, from_status, to_status, actor_id, note, occurred_at
FROM status_history
WHERE reservation_id = $1
ORDER BY occurred_at, id`

func (r *ReservationRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	row := r.db.QueryRow(ctx, selectReservationForUpdateSQL, id)

	var (
		resID, subjectID, slotID                         uuid.UUID
		kind, status, path, paymentMethod, note          string
		totalFee, nonRefundable, walletPaid, gatewayPaid int64
		gatewayRef                                       pgtype.Text
		startsAt, endsAt                                 pgtype.Timestamptz
		seatsHeld                                        int32
		createdAt, updatedAt                             time.Time
	)
	err := row.Scan(&resID, &subjectID, &slotID, &kind, &status, &path,
		&totalFee, &nonRefundable, &walletPaid, &gatewayPaid,
		&paymentMethod, &gatewayRef, &startsAt, &endsAt, &seatsHeld, &note,
		&createdAt, &updatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}

	items, err := r.loadItems(ctx, resID)
	if err != nil {
		return nil, err
	}
	history, err := r.loadHistory(ctx, resID)
	if err != nil {
		return nil, err
	}

	var window *reservation.TimeWindow
	if startsAt.Valid && endsAt.Valid {
		w, werr := reservation.NewTimeWindow(startsAt.Time, endsAt.Time)
		if werr != nil {
			return nil, infra.WrapRepoErr("stored window is invalid", werr)
		}
		window = &w
	}

	return reservation.ReconstructReservation(
		resID, subjectID, slotID,
		reservation.ResourceKind(kind),
		reservation.Status(status),
		reservation.FulfillmentPath(path),
		items,
		reservation.MustMoney(totalFee), reservation.MustMoney(nonRefundable),
		reservation.MustMoney(walletPaid), reservation.MustMoney(gatewayPaid),
		reservation.PaymentMethod(paymentMethod),
		pgconv.StringPtrFromPgtype(gatewayRef),
		window, seatsHeld, note, history,
		createdAt, updatedAt,
	), nil
}

func (r *ReservationRepository) loadItems(ctx context.Context, reservationID uuid.UUID) ([]reservation.Item, error) {
	rows, err := r.db.Query(ctx, selectItemsSQL, reservationID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load reservation items", err)
	}
	defer rows.Close()

	var items []reservation.Item
	for rows.Next() {
		var (
			id             uuid.UUID
			kind, tier     string
			unitFee        int64
			quantity       int32
			countsCapacity bool
		)
		if err := rows.Scan(&id, &kind, &tier, &unitFee, &quantity, &countsCapacity); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation item", err)
		}
		items = append(items, reservation.ReconstructItem(id, kind, tier, reservation.MustMoney(unitFee), quantity, countsCapacity))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read reservation items", err)
	}
	return items, nil
}

func (r *ReservationRepository) loadHistory(ctx context.Context, reservationID uuid.UUID) ([]reservation.HistoryEntry, error) {
	rows, err := r.db.Query(ctx, selectHistorySQL, reservationID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load status history", err)
	}
	defer rows.Close()

	var history []reservation.HistoryEntry
	for rows.Next() {
		var (
			id         uuid.UUID
			from       pgtype.Text
			to         string
			actorID    uuid.UUID
			note       pgtype.Text
			occurredAt time.Time
		)
		if err := rows.Scan(&id, &from, &to, &actorID, &note, &occurredAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan status history", err)
		}
		var fromStatus *reservation.Status
		if from.Valid {
			s := reservation.Status(from.String)
			fromStatus = &s
		}
		history = append(history, reservation.ReconstructHistoryEntry(id, fromStatus, reservation.Status(to), actorID, note.String, occurredAt))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read status history", err)
	}
	return history, nil
}

const updateReservationSQL = `
UPDATE reservations
SET status = $2,
	wallet_paid_cents = $3,
	gateway_paid_cents = $4,
	payment_method = $5,
	gateway_ref = $6,
	updated_at = $7
WHERE id = $1`

// Save persists the mutable columns plus history entries appended since the
// aggregate was loaded. Items are immutable after creation.
func (r *ReservationRepository) Save(ctx context.Context, res *reservation.Reservation, newHistory []reservation.HistoryEntry) error {
	_, err := r.db.Exec(ctx, updateReservationSQL,
		res.ID(), string(res.Status()),
		res.WalletPaid().Cents(), res.GatewayPaid().Cents(),
		string(res.PaymentMethod()), pgconv.StringPtrToPgtype(res.GatewayRef()),
		res.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation", err)
	}
	return r.insertHistory(ctx, res.ID(), newHistory)
}

const findOverlappingSQL = `
SELECT id
FROM reservations
WHERE subject_id = $1
	AND starts_at IS NOT NULL
	AND starts_at < $3
	AND ends_at > $2
	AND status NOT IN ('rejected', 'cancelled')
LIMIT 1`

func (r *ReservationRepository) FindOverlapping(ctx context.Context, subjectID uuid.UUID, start, end time.Time) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, findOverlappingSQL, subjectID, start, end).Scan(&id)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to check overlapping reservations", err)
	}
	return &id, nil
}

const stalePendingSQL = `
SELECT id
FROM reservations
WHERE status = 'pending_payment'
	AND updated_at < $1
ORDER BY updated_at
LIMIT $2`

func (r *ReservationRepository) StalePendingPayments(ctx context.Context, cutoff time.Time, limit int32) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, stalePendingSQL, cutoff, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list stale pending payments", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan stale reservation id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read stale reservation ids", err)
	}
	return ids, nil
}
