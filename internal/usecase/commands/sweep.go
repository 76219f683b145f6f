package commands

import (
	"context"
	"errors"
	"time"

	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/pkg/clock"
	"alumni-reserve/internal/pkg/config"
	"alumni-reserve/internal/pkg/errs"
	"alumni-reserve/internal/usecase/shared"

	"github.com/google/uuid"
)

const staleBatchSize = 100

// SystemActorID marks history entries written by the maintenance sweep
// rather than a member or staff account.
var SystemActorID = uuid.Nil

type SweepResult struct {
	MembershipsExpired   int64
	ReservationsRejected int
}

// SweepCommands is the daily maintenance pass, run by cmd/sweep under cron.
type SweepCommands interface {
	Run(ctx context.Context) (*SweepResult, error)
}

type sweepCommandsImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
	cfg   config.SweepConfig
}

func NewSweepCommands(
	uow shared.UnitOfWork,
	clk clock.Clock,
	cfg config.SweepConfig,
) SweepCommands {
	return &sweepCommandsImpl{
		uow:   uow,
		clock: clk,
		cfg:   cfg,
	}
}

func (u *sweepCommandsImpl) Run(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}
	now := u.clock.Now()

	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		expired, err := tx.Memberships().ExpireLapsed(ctx, now)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		result.MembershipsExpired = expired
		return nil
	})
	if err != nil {
		return nil, err
	}

	if u.cfg.PendingPaymentMaxAge <= 0 {
		return result, nil
	}

	cutoff := now.Add(-u.cfg.PendingPaymentMaxAge)
	for {
		var stale []uuid.UUID
		err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			ids, err := tx.Reservations().StalePendingPayments(ctx, cutoff, staleBatchSize)
			if err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			stale = ids
			return nil
		})
		if err != nil {
			return result, err
		}
		if len(stale) == 0 {
			break
		}

		// One transaction per reservation so a single bad row cannot stall
		// the whole sweep.
		for _, id := range stale {
			expired, err := u.expire(ctx, id, now)
			if err != nil {
				return result, err
			}
			if expired {
				result.ReservationsRejected++
			}
		}
		if len(stale) < staleBatchSize {
			break
		}
	}
	return result, nil
}

// expire rejects one stale pending reservation. The status is re-checked
// under the row lock: a payment recorded between listing and locking wins the
// race and the row is left alone.
func (u *sweepCommandsImpl) expire(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	expired := false
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := loadForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if res.Status() != reservation.StatusPendingPayment {
			return nil
		}

		persisted := len(res.History())
		if err := res.Advance(reservation.StatusRejected, SystemActorID, "payment window expired", now); err != nil {
			return mapTransitionError(err)
		}

		refunds := reservation.ComputeRefund(res.WalletPaid(), res.GatewayPaid(), res.NonRefundable())
		if err := finalizeEnded(ctx, tx, res, refunds); err != nil {
			return err
		}
		if err := tx.Reservations().Save(ctx, res, res.UnsavedHistory(persisted)); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		expired = true
		return enqueueNotification(ctx, tx, res.ID(), res.SubjectID(), "status_changed", now)
	})
	if err != nil {
		if errors.Is(err, errs.ErrReservationNotFound) {
			return false, nil
		}
		return false, err
	}
	return expired, nil
}
