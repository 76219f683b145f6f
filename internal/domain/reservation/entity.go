package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoItems            = errors.New("reservation needs at least one item")
	ErrOverpayment        = errors.New("payment exceeds total fee")
	ErrAlreadyTerminal    = errors.New("reservation is in a terminal status")
	ErrPaymentNotExpected = errors.New("reservation is not awaiting payment")
	ErrWindowRequired     = errors.New("slot occupies a window but has no bounds")
)

// Reservation is the aggregate root for one booking: a certificate request,
// an event registration, a career-service subscription or a trip booking.
// Items, settlement amounts and the status history share its lifetime.
// It is never hard-deleted; cancellation and rejection are terminal statuses.
type Reservation struct {
	id            uuid.UUID
	subjectID     uuid.UUID
	kind          ResourceKind
	slotID        uuid.UUID
	status        Status
	path          FulfillmentPath
	items         []Item
	totalFee      Money
	nonRefundable Money
	walletPaid    Money
	gatewayPaid   Money
	paymentMethod PaymentMethod
	gatewayRef    *string
	window        *TimeWindow
	seatsHeld     int32
	note          string
	history       []HistoryEntry
	createdAt     time.Time
	updatedAt     time.Time
}

func ReconstructReservation(
	id, subjectID, slotID uuid.UUID,
	kind ResourceKind,
	status Status,
	path FulfillmentPath,
	items []Item,
	totalFee, nonRefundable, walletPaid, gatewayPaid Money,
	paymentMethod PaymentMethod,
	gatewayRef *string,
	window *TimeWindow,
	seatsHeld int32,
	note string,
	history []HistoryEntry,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:            id,
		subjectID:     subjectID,
		kind:          kind,
		slotID:        slotID,
		status:        status,
		path:          path,
		items:         items,
		totalFee:      totalFee,
		nonRefundable: nonRefundable,
		walletPaid:    walletPaid,
		gatewayPaid:   gatewayPaid,
		paymentMethod: paymentMethod,
		gatewayRef:    gatewayRef,
		window:        window,
		seatsHeld:     seatsHeld,
		note:          note,
		history:       history,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (r *Reservation) ID() uuid.UUID                 { return r.id }
func (r *Reservation) SubjectID() uuid.UUID          { return r.subjectID }
func (r *Reservation) Kind() ResourceKind            { return r.kind }
func (r *Reservation) SlotID() uuid.UUID             { return r.slotID }
func (r *Reservation) Status() Status                { return r.status }
func (r *Reservation) Path() FulfillmentPath         { return r.path }
func (r *Reservation) Items() []Item                 { return r.items }
func (r *Reservation) TotalFee() Money               { return r.totalFee }
func (r *Reservation) NonRefundable() Money          { return r.nonRefundable }
func (r *Reservation) WalletPaid() Money             { return r.walletPaid }
func (r *Reservation) GatewayPaid() Money            { return r.gatewayPaid }
func (r *Reservation) PaymentMethod() PaymentMethod  { return r.paymentMethod }
func (r *Reservation) GatewayRef() *string           { return r.gatewayRef }
func (r *Reservation) Window() *TimeWindow           { return r.window }
func (r *Reservation) SeatsHeld() int32              { return r.seatsHeld }
func (r *Reservation) Note() string                  { return r.note }
func (r *Reservation) History() []HistoryEntry       { return r.history }
func (r *Reservation) CreatedAt() time.Time          { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time          { return r.updatedAt }

func (r *Reservation) AmountPaid() Money {
	return r.walletPaid.Add(r.gatewayPaid)
}

func (r *Reservation) Remaining() Money {
	return r.totalFee.Sub(r.AmountPaid())
}

func (r *Reservation) IsSettled() bool {
	return r.Remaining().IsZero()
}

func (r *Reservation) IsActive() bool {
	return r.status.IsActive()
}

// applySettlement records the charge split and moves the reservation out of
// draft: straight to processing when fully covered by the wallet, otherwise
// to pending_payment until the gateway collects the rest.
func (r *Reservation) applySettlement(s Settlement, actorID uuid.UUID, at time.Time) error {
	r.walletPaid = s.WalletAmount
	r.gatewayPaid = s.GatewayAmount
	r.paymentMethod = s.Method()

	next := StatusProcessing
	if !s.Remaining.IsZero() {
		next = StatusPendingPayment
	}
	return r.transition(next, actorID, "", at)
}

// RecordGatewayPayment adds an externally collected amount. The settlement
// invariant walletPaid+gatewayPaid <= totalFee is enforced; overpayment is a
// caller error, not something to silently cap.
func (r *Reservation) RecordGatewayPayment(amount Money, gatewayRef *string, actorID uuid.UUID, at time.Time) error {
	if r.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if r.status != StatusPendingPayment {
		return ErrPaymentNotExpected
	}
	if r.Remaining().LessThan(amount) {
		return ErrOverpayment
	}

	r.gatewayPaid = r.gatewayPaid.Add(amount)
	if gatewayRef != nil {
		r.gatewayRef = gatewayRef
	}
	r.updatedAt = at

	if r.IsSettled() {
		return r.transition(StatusProcessing, actorID, "payment completed", at)
	}
	return nil
}

// Advance performs an administrative status transition through the shared
// graph. Wrong-path or out-of-order targets are rejected, never no-ops.
func (r *Reservation) Advance(to Status, actorID uuid.UUID, note string, at time.Time) error {
	return r.transition(to, actorID, note, at)
}

// Cancel moves the reservation to cancelled and computes the refund owed.
// Deadline validation happens in the orchestrator, which knows the slot.
func (r *Reservation) Cancel(actorID uuid.UUID, reason string, at time.Time) ([]Refund, error) {
	if err := r.transition(StatusCancelled, actorID, reason, at); err != nil {
		return nil, err
	}
	return ComputeRefund(r.walletPaid, r.gatewayPaid, r.nonRefundable), nil
}

func (r *Reservation) transition(to Status, actorID uuid.UUID, note string, at time.Time) error {
	if err := checkTransition(r.status, to, r.path, r.IsSettled()); err != nil {
		return err
	}
	from := r.status
	r.status = to
	r.updatedAt = at
	r.history = append(r.history, newHistoryEntry(&from, to, actorID, note, at))
	return nil
}

// UnsavedHistory returns entries appended since reconstruction; the
// repository persists exactly these on update.
func (r *Reservation) UnsavedHistory(persistedCount int) []HistoryEntry {
	if persistedCount >= len(r.history) {
		return nil
	}
	return r.history[persistedCount:]
}
