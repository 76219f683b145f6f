package commands

import (
	"context"
	"errors"

	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/pkg/errs"
	"alumni-reserve/internal/usecase/shared"

	"github.com/google/uuid"
)

func (u *reservationCommandsImpl) CancelReservation(
	ctx context.Context,
	reservationID, actorID uuid.UUID,
	reason string,
) (*CancelReservationResult, error) {
	var result CancelReservationResult
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := loadForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}

		slot, err := tx.Slots().Snapshot(ctx, res.SlotID())
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !u.clock.Now().Before(slot.CancelCutoff()) {
			return errs.ErrDeadlinePassed
		}

		persisted := len(res.History())
		refunds, err := res.Cancel(actorID, reason, u.clock.Now())
		if err != nil {
			return mapTransitionError(err)
		}

		if err := finalizeEnded(ctx, tx, res, refunds); err != nil {
			return err
		}
		if err := tx.Reservations().Save(ctx, res, res.UnsavedHistory(persisted)); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := enqueueNotification(ctx, tx, res.ID(), res.SubjectID(), "reservation_cancelled", u.clock.Now()); err != nil {
			return err
		}

		result = CancelReservationResult{
			RefundCents: reservation.TotalRefund(refunds).Cents(),
			Refunds:     refunds,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (u *reservationCommandsImpl) AdvanceStatus(
	ctx context.Context,
	reservationID uuid.UUID,
	target reservation.Status,
	actorID uuid.UUID,
	note string,
) error {
	if !target.IsValid() || target == reservation.StatusCancelled {
		// Cancellation carries deadline and refund semantics; it has its own
		// operation and is not reachable through the generic advance.
		return errs.ErrInvalidStatusTransition
	}

	return u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := loadForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}

		persisted := len(res.History())
		if err := res.Advance(target, actorID, note, u.clock.Now()); err != nil {
			return mapTransitionError(err)
		}

		if target == reservation.StatusRejected {
			refunds := reservation.ComputeRefund(res.WalletPaid(), res.GatewayPaid(), res.NonRefundable())
			if err := finalizeEnded(ctx, tx, res, refunds); err != nil {
				return err
			}
		}

		if err := tx.Reservations().Save(ctx, res, res.UnsavedHistory(persisted)); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return enqueueNotification(ctx, tx, res.ID(), res.SubjectID(), "status_changed", u.clock.Now())
	})
}

func (u *reservationCommandsImpl) RecordGatewayPayment(
	ctx context.Context,
	reservationID uuid.UUID,
	amountCents int64,
	gatewayRef *string,
	actorID uuid.UUID,
) error {
	amount, err := reservation.NewMoney(amountCents)
	if err != nil {
		return errs.Mark(err, ErrInvalidRequest)
	}

	return u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := loadForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}

		persisted := len(res.History())
		if err := res.RecordGatewayPayment(amount, gatewayRef, actorID, u.clock.Now()); err != nil {
			switch {
			case errors.Is(err, reservation.ErrOverpayment),
				errors.Is(err, reservation.ErrPaymentNotExpected),
				errors.Is(err, reservation.ErrAlreadyTerminal):
				return errs.Mark(err, ErrPaymentNotAccepted)
			default:
				return err
			}
		}

		if err := tx.Reservations().Save(ctx, res, res.UnsavedHistory(persisted)); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if res.IsSettled() {
			return enqueueNotification(ctx, tx, res.ID(), res.SubjectID(), "payment_completed", u.clock.Now())
		}
		return nil
	})
}

// finalizeEnded undoes the side effects of an ended booking: held seats go
// back to the slot and refund portions are applied. Wallet portions are
// credited in the same transaction; gateway portions are only recorded as owed.
func finalizeEnded(
	ctx context.Context,
	tx shared.Tx,
	res *reservation.Reservation,
	refunds []reservation.Refund,
) error {
	if res.SeatsHeld() > 0 {
		if err := tx.Slots().Release(ctx, res.SlotID(), res.SeatsHeld()); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
	}
	for _, rf := range refunds {
		if rf.Method == reservation.RefundWallet {
			if err := tx.Wallets().Credit(ctx, res.SubjectID(), rf.Amount.Cents()); err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}
		if err := tx.Wallets().RecordRefund(ctx, res.ID(), rf.Amount.Cents(), rf.Method, rf.State); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
	}
	return nil
}

func loadForUpdate(ctx context.Context, tx shared.Tx, id uuid.UUID) (*reservation.Reservation, error) {
	res, err := tx.Reservations().FindForUpdate(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrReservationNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return res, nil
}

func mapTransitionError(err error) error {
	switch {
	case errors.Is(err, reservation.ErrUnsettled):
		return errs.Mark(err, errs.ErrInsufficientSettlement)
	case errors.Is(err, reservation.ErrInvalidTransition),
		errors.Is(err, reservation.ErrWrongPath),
		errors.Is(err, reservation.ErrAlreadyTerminal):
		return errs.Mark(err, errs.ErrInvalidStatusTransition)
	default:
		return err
	}
}
