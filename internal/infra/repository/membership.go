package repository

import (
	"context"
	"time"

	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/infra/db"

	"github.com/google/uuid"
)

type MembershipRepository struct {
	db db.DBTX
}

func NewMembershipRepository(dbtx db.DBTX) *MembershipRepository {
	return &MembershipRepository{db: dbtx}
}

const isActiveSQL = `
SELECT EXISTS (
	SELECT 1
	FROM memberships
	WHERE subject_id = $1
		AND active
		AND (expires_at IS NULL OR expires_at > now())
)`

func (r *MembershipRepository) IsActive(ctx context.Context, subjectID uuid.UUID) (bool, error) {
	var active bool
	if err := r.db.QueryRow(ctx, isActiveSQL, subjectID).Scan(&active); err != nil {
		return false, infra.WrapRepoErr("failed to check membership", err)
	}
	return active, nil
}

const expireLapsedSQL = `
UPDATE memberships
SET active = false, updated_at = now()
WHERE active
	AND expires_at IS NOT NULL
	AND expires_at <= $1`

func (r *MembershipRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, expireLapsedSQL, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to expire memberships", err)
	}
	return tag.RowsAffected(), nil
}
