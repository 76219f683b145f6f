package readstore

import (
	"context"
	"time"

	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/infra/db"
	"alumni-reserve/internal/pkg/pgconv"
	"alumni-reserve/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type ReservationReadStore struct {
	db db.DBTX
}

func NewReservationReadStore(dbtx db.DBTX) *ReservationReadStore {
	return &ReservationReadStore{db: dbtx}
}

const findReservationViewSQL = `
SELECT id, subject_id, slot_id, kind, status, path,
	total_fee_cents, non_refundable_cents, wallet_paid_cents, gateway_paid_cents,
	payment_method, gateway_ref, starts_at, ends_at, seats_held, note,
	created_at, updated_at
FROM reservations
WHERE id = $1`

const findItemsViewSQL = `
SELECT id, kind, tier, unit_fee_cents, quantity, counts_capacity
FROM reservation_items
WHERE reservation_id = $1
ORDER BY id`

const findHistoryViewSQL = `
SELECT id, from_status, to_status, actor_id, note, occurred_at
FROM status_history
WHERE reservation_id = $1
ORDER BY occurred_at, id`

func (r *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	var (
		v                queries.ReservationView
		gatewayRef, note pgtype.Text
		startsAt, endsAt pgtype.Timestamptz
	)
	err := r.db.QueryRow(ctx, findReservationViewSQL, id).Scan(
		&v.ID, &v.SubjectID, &v.SlotID, &v.Kind, &v.Status, &v.Path,
		&v.TotalFeeCents, &v.NonRefundableCents, &v.WalletPaidCents, &v.GatewayPaidCents,
		&v.PaymentMethod, &gatewayRef, &startsAt, &endsAt, &v.SeatsHeld, &note,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation view", err)
	}
	v.GatewayRef = pgconv.StringPtrFromPgtype(gatewayRef)
	v.StartsAt = pgconv.TimePtrFromPgtype(startsAt)
	v.EndsAt = pgconv.TimePtrFromPgtype(endsAt)
	if note.Valid && note.String != "" {
		v.Note = &note.String
	}
	v.RemainingCents = v.TotalFeeCents - v.WalletPaidCents - v.GatewayPaidCents
	if v.RemainingCents < 0 {
		v.RemainingCents = 0
	}

	if v.Items, err = r.loadItems(ctx, id); err != nil {
		return nil, err
	}
	if v.History, err = r.loadHistory(ctx, id); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ReservationReadStore) loadItems(ctx context.Context, reservationID uuid.UUID) ([]queries.ReservationItem, error) {
	rows, err := r.db.Query(ctx, findItemsViewSQL, reservationID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load item views", err)
	}
	defer rows.Close()

	var items []queries.ReservationItem
	for rows.Next() {
		var it queries.ReservationItem
		if err := rows.Scan(&it.ID, &it.Kind, &it.Tier, &it.UnitFeeCents, &it.Quantity, &it.CountsCapacity); err != nil {
			return nil, infra.WrapRepoErr("failed to scan item view", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read item views", err)
	}
	return items, nil
}

func (r *ReservationReadStore) loadHistory(ctx context.Context, reservationID uuid.UUID) ([]queries.StatusHistoryItem, error) {
	rows, err := r.db.Query(ctx, findHistoryViewSQL, reservationID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load history views", err)
	}
	defer rows.Close()

	var history []queries.StatusHistoryItem
	for rows.Next() {
		var (
			h          queries.StatusHistoryItem
			from, note pgtype.Text
		)
		if err := rows.Scan(&h.ID, &from, &h.ToStatus, &h.ActorID, &note, &h.OccurredAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan history view", err)
		}
		h.FromStatus = pgconv.StringPtrFromPgtype(from)
		if note.Valid && note.String != "" {
			h.Note = &note.String
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read history views", err)
	}
	return history, nil
}

const listBySubjectSQL = `
SELECT id, slot_id, kind, status, total_fee_cents, starts_at, ends_at, created_at
FROM reservations
WHERE subject_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

func (r *ReservationReadStore) FindBySubjectID(ctx context.Context, subjectID uuid.UUID, limit int32) ([]*queries.ReservationListItem, error) {
	rows, err := r.db.Query(ctx, listBySubjectSQL, subjectID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	defer rows.Close()

	var result []*queries.ReservationListItem
	for rows.Next() {
		var (
			item             queries.ReservationListItem
			startsAt, endsAt pgtype.Timestamptz
			createdAt        time.Time
		)
		if err := rows.Scan(&item.ID, &item.SlotID, &item.Kind, &item.Status, &item.TotalFeeCents, &startsAt, &endsAt, &createdAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation list item", err)
		}
		item.StartsAt = pgconv.TimePtrFromPgtype(startsAt)
		item.EndsAt = pgconv.TimePtrFromPgtype(endsAt)
		item.CreatedAt = createdAt
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read reservation list", err)
	}
	return result, nil
}
