package repository

import (
	"context"
	"time"

	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/infra/db"
	"alumni-reserve/internal/pkg/pgconv"
	"alumni-reserve/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(dbtx db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: dbtx}
}

const tryInsertKeySQL = `
INSERT INTO idempotency_keys (key, subject_id, endpoint, request_hash, status, expires_at, created_at)
VALUES ($1, $2, $3, $4, 'processing', $5, now())
ON CONFLICT (key, subject_id) DO NOTHING`

func (r *IdempotencyRepository) TryInsert(ctx context.Context, key, subjectID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, tryInsertKeySQL, key, subjectID, endpoint, requestHash, expiresAt)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

const getKeySQL = `
SELECT key, subject_id, endpoint, request_hash, status, result_reservation_id, expires_at
FROM idempotency_keys
WHERE key = $1 AND subject_id = $2`

func (r *IdempotencyRepository) Get(ctx context.Context, key, subjectID uuid.UUID) (*shared.IdempotencyRecord, error) {
	var (
		rec      shared.IdempotencyRecord
		resultID pgtype.UUID
	)
	err := r.db.QueryRow(ctx, getKeySQL, key, subjectID).Scan(
		&rec.Key, &rec.SubjectID, &rec.Endpoint, &rec.RequestHash, &rec.Status, &resultID, &rec.ExpiresAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find idempotency key", err)
	}
	rec.ResultReservationID = pgconv.UUIDPtrFromPgtype(resultID)
	return &rec, nil
}

const markCompletedSQL = `
UPDATE idempotency_keys
SET status = 'completed', result_reservation_id = $3
WHERE key = $1 AND subject_id = $2`

func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, key, subjectID uuid.UUID, resultReservationID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, markCompletedSQL, key, subjectID, resultReservationID); err != nil {
		return infra.WrapRepoErr("failed to complete idempotency key", err)
	}
	return nil
}
