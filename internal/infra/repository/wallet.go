package repository

import (
	"context"

	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/infra/db"
	"alumni-reserve/internal/pkg/errs"

	"github.com/google/uuid"
)

type WalletRepository struct {
	db db.DBTX
}

func NewWalletRepository(dbtx db.DBTX) *WalletRepository {
	return &WalletRepository{db: dbtx}
}

const ensureAccountSQL = `
INSERT INTO wallet_accounts (subject_id, balance_cents, created_at, updated_at)
VALUES ($1, 0, now(), now())
ON CONFLICT (subject_id) DO NOTHING`

const balanceForUpdateSQL = `
SELECT balance_cents
FROM wallet_accounts
WHERE subject_id = $1
FOR UPDATE`

// BalanceForUpdate locks the subject's wallet row for the rest of the
// transaction; concurrent bookings for the same subject serialize on it. A
// subject who never held an account gets a zero-balance row first, so there
// is always a row to lock.
func (r *WalletRepository) BalanceForUpdate(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	if _, err := r.db.Exec(ctx, ensureAccountSQL, subjectID); err != nil {
		return 0, infra.WrapRepoErr("failed to ensure wallet account", err)
	}

	var balance int64
	if err := r.db.QueryRow(ctx, balanceForUpdateSQL, subjectID).Scan(&balance); err != nil {
		return 0, infra.WrapRepoErr("failed to lock wallet account", err)
	}
	return balance, nil
}

const debitSQL = `
UPDATE wallet_accounts
SET balance_cents = balance_cents - $2, updated_at = now()
WHERE subject_id = $1
	AND balance_cents >= $2`

// Debit double-checks the balance in the statement itself. The caller holds
// a row lock, so zero rows affected means a logic error upstream; it is
// surfaced as a retryable conflict rather than a silent negative balance.
func (r *WalletRepository) Debit(ctx context.Context, subjectID uuid.UUID, amountCents int64) error {
	tag, err := r.db.Exec(ctx, debitSQL, subjectID, amountCents)
	if err != nil {
		return infra.WrapRepoErr("failed to debit wallet", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.Mark(errs.ErrInsufficientBalance, errs.ErrConcurrencyConflict)
	}
	return nil
}

const creditSQL = `
INSERT INTO wallet_accounts (subject_id, balance_cents, created_at, updated_at)
VALUES ($1, $2, now(), now())
ON CONFLICT (subject_id)
DO UPDATE SET balance_cents = wallet_accounts.balance_cents + $2, updated_at = now()`

// Credit upserts so a refund still lands for a subject who never held an
// account (fully gateway-paid bookings).
func (r *WalletRepository) Credit(ctx context.Context, subjectID uuid.UUID, amountCents int64) error {
	if _, err := r.db.Exec(ctx, creditSQL, subjectID, amountCents); err != nil {
		return infra.WrapRepoErr("failed to credit wallet", err)
	}
	return nil
}

const insertRefundSQL = `
INSERT INTO refunds (id, reservation_id, amount_cents, method, state, created_at)
VALUES ($1, $2, $3, $4, $5, now())`

func (r *WalletRepository) RecordRefund(ctx context.Context, reservationID uuid.UUID, amountCents int64, method reservation.RefundMethod, state reservation.RefundState) error {
	_, err := r.db.Exec(ctx, insertRefundSQL, uuid.New(), reservationID, amountCents, string(method), string(state))
	if err != nil {
		return infra.WrapRepoErr("failed to record refund", err)
	}
	return nil
}
