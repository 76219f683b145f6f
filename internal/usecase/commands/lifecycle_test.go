//go:build unit

package commands_test

import (
	"context"
	"testing"

	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/pkg/errs"
	"alumni-reserve/internal/usecase/commands"
	"alumni-reserve/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelReservationCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds the wallet and releases the seat", func(t *testing.T) {
		b := builder.NewReservationBuilder()
		b.Slot.WithAdminFee(1000)
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)
		require.Equal(t, int64(94_000), env.uow.tx.wallets.balances[b.SubjectID])

		result, err := env.cmds.CancelReservation(ctx, view.ID, b.ActorID, "plans changed")
		require.NoError(t, err)

		assert.Equal(t, int64(5000), result.RefundCents)
		assert.Equal(t, int64(99_000), env.uow.tx.wallets.balances[b.SubjectID])
		assert.Equal(t, int32(0), env.uow.tx.slots.reserved[b.Slot.ID])

		require.Len(t, env.uow.tx.wallets.refunds, 1)
		assert.Equal(t, reservation.RefundWallet, env.uow.tx.wallets.refunds[0].method)

		res := env.uow.tx.reservations.store[view.ID]
		assert.Equal(t, reservation.StatusCancelled, res.Status())
		assert.Contains(t, env.uow.tx.notifications.topics(), "reservation_cancelled")
	})

	t.Run("past the cancel cutoff", func(t *testing.T) {
		b := builder.NewReservationBuilder()
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		env.clk.Set(b.Slot.Start)
		_, err := env.cmds.CancelReservation(ctx, view.ID, b.ActorID, "")
		require.ErrorIs(t, err, errs.ErrDeadlinePassed)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		env := newCommandsEnv(builder.NewReservationBuilder().Now)

		_, err := env.cmds.CancelReservation(ctx, uuid.New(), uuid.New(), "")
		require.ErrorIs(t, err, errs.ErrReservationNotFound)
	})

	t.Run("cancelling twice", func(t *testing.T) {
		b := builder.NewReservationBuilder()
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		_, err := env.cmds.CancelReservation(ctx, view.ID, b.ActorID, "")
		require.NoError(t, err)

		_, err = env.cmds.CancelReservation(ctx, view.ID, b.ActorID, "")
		require.ErrorIs(t, err, errs.ErrInvalidStatusTransition)
	})
}

func TestAdvanceStatusCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("walks the pickup chain and persists each entry", func(t *testing.T) {
		b := builder.NewReservationBuilder()
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		require.NoError(t, env.cmds.AdvanceStatus(ctx, view.ID, reservation.StatusReadyForPickup, b.ActorID, "shelf 12"))
		require.NoError(t, env.cmds.AdvanceStatus(ctx, view.ID, reservation.StatusCompleted, b.ActorID, ""))

		res := env.uow.tx.reservations.store[view.ID]
		assert.Equal(t, reservation.StatusCompleted, res.Status())
		assert.Equal(t, 2, env.uow.tx.reservations.savedHistory)
		assert.Contains(t, env.uow.tx.notifications.topics(), "status_changed")
	})

	t.Run("cancelled is not reachable through advance", func(t *testing.T) {
		b := builder.NewReservationBuilder()
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		err := env.cmds.AdvanceStatus(ctx, view.ID, reservation.StatusCancelled, b.ActorID, "")
		require.ErrorIs(t, err, errs.ErrInvalidStatusTransition)
	})

	t.Run("unknown target status", func(t *testing.T) {
		b := builder.NewReservationBuilder()
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		err := env.cmds.AdvanceStatus(ctx, view.ID, reservation.Status("archived"), b.ActorID, "")
		require.ErrorIs(t, err, errs.ErrInvalidStatusTransition)
	})

	t.Run("wrong-path target", func(t *testing.T) {
		b := builder.NewReservationBuilder()
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		err := env.cmds.AdvanceStatus(ctx, view.ID, reservation.StatusOutForDelivery, b.ActorID, "")
		require.ErrorIs(t, err, errs.ErrInvalidStatusTransition)
	})

	t.Run("unsettled reservation cannot enter processing", func(t *testing.T) {
		b := builder.NewReservationBuilder().WithWalletBalance(0)
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		err := env.cmds.AdvanceStatus(ctx, view.ID, reservation.StatusProcessing, b.ActorID, "")
		require.ErrorIs(t, err, errs.ErrInsufficientSettlement)
	})

	t.Run("rejection refunds and releases like a cancellation", func(t *testing.T) {
		b := builder.NewReservationBuilder()
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		require.NoError(t, env.cmds.AdvanceStatus(ctx, view.ID, reservation.StatusRejected, b.ActorID, "out of stock"))

		assert.Equal(t, int64(100_000), env.uow.tx.wallets.balances[b.SubjectID])
		assert.Equal(t, int32(0), env.uow.tx.slots.reserved[b.Slot.ID])
		require.Len(t, env.uow.tx.wallets.refunds, 1)
		assert.Equal(t, int64(5000), env.uow.tx.wallets.refunds[0].amountCents)
	})
}

func TestRecordGatewayPaymentCommand(t *testing.T) {
	ctx := context.Background()
	ref := "pay_abc123"

	t.Run("final payment settles the reservation", func(t *testing.T) {
		b := builder.NewReservationBuilder().WithWalletBalance(0)
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		require.NoError(t, env.cmds.RecordGatewayPayment(ctx, view.ID, 5000, &ref, b.ActorID))

		res := env.uow.tx.reservations.store[view.ID]
		assert.Equal(t, reservation.StatusProcessing, res.Status())
		assert.Equal(t, &ref, res.GatewayRef())
		assert.Contains(t, env.uow.tx.notifications.topics(), "payment_completed")
	})

	t.Run("partial payment stays pending without a settle notification", func(t *testing.T) {
		b := builder.NewReservationBuilder().WithWalletBalance(0)
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		require.NoError(t, env.cmds.RecordGatewayPayment(ctx, view.ID, 2000, nil, b.ActorID))

		res := env.uow.tx.reservations.store[view.ID]
		assert.Equal(t, reservation.StatusPendingPayment, res.Status())
		assert.NotContains(t, env.uow.tx.notifications.topics(), "payment_completed")
	})

	t.Run("overpayment", func(t *testing.T) {
		b := builder.NewReservationBuilder().WithWalletBalance(0)
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		err := env.cmds.RecordGatewayPayment(ctx, view.ID, 5001, nil, b.ActorID)
		require.ErrorIs(t, err, commands.ErrPaymentNotAccepted)
	})

	t.Run("negative amount", func(t *testing.T) {
		b := builder.NewReservationBuilder().WithWalletBalance(0)
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		err := env.cmds.RecordGatewayPayment(ctx, view.ID, -100, nil, b.ActorID)
		require.ErrorIs(t, err, commands.ErrInvalidRequest)
	})

	t.Run("settled reservation expects no payment", func(t *testing.T) {
		b := builder.NewReservationBuilder()
		env := newCommandsEnv(b.Now)
		view := env.book(t, b)

		err := env.cmds.RecordGatewayPayment(ctx, view.ID, 100, nil, b.ActorID)
		require.ErrorIs(t, err, commands.ErrPaymentNotAccepted)
	})
}
