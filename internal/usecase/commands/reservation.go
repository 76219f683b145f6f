package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/pkg/clock"
	"alumni-reserve/internal/pkg/errs"
	"alumni-reserve/internal/usecase/queries"
	"alumni-reserve/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrPaymentNotAccepted = errs.New("payment not accepted in current state")
	ErrInvalidRequest     = errs.New("invalid reservation request")
)

const idempotencyTTL = 24 * time.Hour

type CreateReservationCommand struct {
	SlotID uuid.UUID         `json:"slot_id"`
	Path   string            `json:"path"`
	Items  []ReservationLine `json:"items"`
	Note   string            `json:"note"`
}

type ReservationLine struct {
	Kind     string `json:"kind"`
	Tier     string `json:"tier"`
	Quantity int32  `json:"quantity"`
}

type CreateReservationResult struct {
	Reservation *queries.ReservationView
	IsReplayed  bool
}

type CancelReservationResult struct {
	RefundCents int64
	Refunds     []reservation.Refund
}

type ReservationCommands interface {
	CreateReservation(ctx context.Context, cmd CreateReservationCommand, subjectID, actorID, idempotencyKey uuid.UUID) (*CreateReservationResult, error)
	CancelReservation(ctx context.Context, reservationID, actorID uuid.UUID, reason string) (*CancelReservationResult, error)
	AdvanceStatus(ctx context.Context, reservationID uuid.UUID, target reservation.Status, actorID uuid.UUID, note string) error
	RecordGatewayPayment(ctx context.Context, reservationID uuid.UUID, amountCents int64, gatewayRef *string, actorID uuid.UUID) error
}

type reservationCommandsImpl struct {
	uow     shared.UnitOfWork
	factory *reservation.Factory
	views   queries.ReservationQueries
	clock   clock.Clock
}

func NewReservationCommands(
	uow shared.UnitOfWork,
	factory *reservation.Factory,
	views queries.ReservationQueries,
	clk clock.Clock,
) ReservationCommands {
	return &reservationCommandsImpl{
		uow:     uow,
		factory: factory,
		views:   views,
		clock:   clk,
	}
}

func (u *reservationCommandsImpl) CreateReservation(
	ctx context.Context,
	cmd CreateReservationCommand,
	subjectID, actorID, idempotencyKey uuid.UUID,
) (*CreateReservationResult, error) {
	path := reservation.FulfillmentPath(cmd.Path)
	if !path.IsValid() {
		return nil, ErrInvalidRequest
	}

	requestHash := calculateRequestHash(cmd)
	expiresAt := u.clock.Now().Add(idempotencyTTL)

	var (
		reservationID uuid.UUID
		replayed      bool
	)
	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		inserted, err := tx.Idempotency().TryInsert(ctx, idempotencyKey, subjectID, "POST /reservations", requestHash, expiresAt)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !inserted {
			record, gerr := tx.Idempotency().Get(ctx, idempotencyKey, subjectID)
			if gerr != nil {
				return errs.Mark(gerr, errs.ErrDatabaseOperationFailed)
			}
			if record.RequestHash != requestHash {
				return errs.ErrDuplicateRequest
			}
			if record.Status != shared.IdempotencyCompleted || record.ResultReservationID == nil {
				return errs.ErrIdempotencyInProgress
			}
			reservationID = *record.ResultReservationID
			replayed = true
			return nil
		}

		res, err := u.bookReservation(ctx, tx, cmd, path, subjectID, actorID)
		if err != nil {
			return err
		}
		reservationID = res.ID()

		if err := tx.Idempotency().MarkCompleted(ctx, idempotencyKey, subjectID, reservationID); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Read-after-write: serve the persisted view, same for fresh and replayed results.
	view, err := u.views.GetByID(ctx, reservationID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return &CreateReservationResult{Reservation: view, IsReplayed: replayed}, nil
}

// bookReservation runs the booking pipeline inside one transaction:
// eligibility gate, overlap check, capacity reservation, wallet settlement,
// aggregate persistence and the outbox notification.
func (u *reservationCommandsImpl) bookReservation(
	ctx context.Context,
	tx shared.Tx,
	cmd CreateReservationCommand,
	path reservation.FulfillmentPath,
	subjectID, actorID uuid.UUID,
) (*reservation.Reservation, error) {
	slot, err := tx.Slots().Snapshot(ctx, cmd.SlotID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrSlotNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if err := u.checkEligibility(ctx, tx, subjectID, slot.ResourceClass); err != nil {
		return nil, err
	}

	balance, err := tx.Wallets().BalanceForUpdate(ctx, subjectID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	walletBalance, err := reservation.NewMoney(balance)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	inputs := make([]reservation.ItemInput, len(cmd.Items))
	for i, line := range cmd.Items {
		inputs[i] = reservation.ItemInput{Kind: line.Kind, Tier: line.Tier, Quantity: line.Quantity}
	}

	res, settlement, err := u.factory.CreateReservation(slot, subjectID, path, inputs, cmd.Note, walletBalance, actorID)
	if err != nil {
		return nil, mapFactoryError(err)
	}

	if w := res.Window(); w != nil {
		conflict, oerr := tx.Reservations().FindOverlapping(ctx, subjectID, w.Start(), w.End())
		if oerr != nil {
			return nil, errs.Mark(oerr, errs.ErrDatabaseOperationFailed)
		}
		if conflict != nil {
			return nil, errs.ErrTimeOverlap
		}
	}

	if res.SeatsHeld() > 0 {
		if err := tx.Slots().TryReserve(ctx, slot.ID, res.SeatsHeld()); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return nil, errs.ErrCapacityExceeded
			}
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
	}

	if !settlement.WalletAmount.IsZero() {
		if err := tx.Wallets().Debit(ctx, subjectID, settlement.WalletAmount.Cents()); err != nil {
			return nil, err
		}
	}

	if err := tx.Reservations().Create(ctx, res); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if err := enqueueNotification(ctx, tx, res.ID(), subjectID, "reservation_created", u.clock.Now()); err != nil {
		return nil, err
	}
	return res, nil
}

// checkEligibility is a pure guard: no side effects, safe to call repeatedly.
// A resource class without a configured policy is members-only.
func (u *reservationCommandsImpl) checkEligibility(ctx context.Context, tx shared.Tx, subjectID uuid.UUID, resourceClass string) error {
	policy, err := tx.Policies().PolicyFor(ctx, resourceClass)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if policy == shared.PolicyOpen {
		return nil
	}

	active, err := tx.Memberships().IsActive(ctx, subjectID)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !active {
		return errs.ErrIneligibleSubject
	}
	return nil
}

func enqueueNotification(ctx context.Context, tx shared.Tx, reservationID, subjectID uuid.UUID, topic string, at time.Time) error {
	payload, err := json.Marshal(map[string]any{
		"reservation_id": reservationID,
		"subject_id":     subjectID,
		"type":           topic,
	})
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if err := tx.Notifications().CreateJob(ctx, "email", topic, payload, at); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}

func mapFactoryError(err error) error {
	switch {
	case errors.Is(err, reservation.ErrBookingClosed):
		return errs.Mark(err, errs.ErrDeadlinePassed)
	case errors.Is(err, reservation.ErrUnknownTier),
		errors.Is(err, reservation.ErrNoItems),
		errors.Is(err, reservation.ErrInvalidQuantity),
		errors.Is(err, reservation.ErrEmptyItemKind),
		errors.Is(err, reservation.ErrNegativeAmount):
		return errs.Mark(err, ErrInvalidRequest)
	default:
		return err
	}
}

func calculateRequestHash(cmd CreateReservationCommand) string {
	data, _ := json.Marshal(cmd)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
