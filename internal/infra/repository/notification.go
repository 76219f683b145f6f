package repository

import (
	"context"
	"time"

	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/infra/db"

	"github.com/google/uuid"
)

type NotificationRepository struct {
	db db.DBTX
}

func NewNotificationRepository(dbtx db.DBTX) *NotificationRepository {
	return &NotificationRepository{db: dbtx}
}

const insertJobSQL = `
INSERT INTO notification_jobs (id, kind, topic, payload, status, run_at, created_at)
VALUES ($1, $2, $3, $4, 'pending', $5, now())`

// CreateJob writes an outbox row in the caller's transaction; a dispatcher
// outside this process picks pending rows up.
func (r *NotificationRepository) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	if _, err := r.db.Exec(ctx, insertJobSQL, uuid.New(), kind, topic, payload, runAt); err != nil {
		return infra.WrapRepoErr("failed to enqueue notification job", err)
	}
	return nil
}
