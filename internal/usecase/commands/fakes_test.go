//go:build unit

package commands_test

import (
	"context"
	"time"

	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/infra"
	"alumni-reserve/internal/infra/db"
	"alumni-reserve/internal/pkg/errs"
	"alumni-reserve/internal/usecase/queries"
	"alumni-reserve/internal/usecase/shared"
	"alumni-reserve/tests/common/builder"

	"github.com/google/uuid"
)

// In-memory fakes for the unit of work. Within runs the function directly;
// there is no rollback, so assertions on failed commands check that the
// command refused before mutating, not transactional atomicity.

type fakeUoW struct {
	tx *fakeTx
}

func newFakeUoW() *fakeUoW {
	return &fakeUoW{tx: &fakeTx{
		reservations:  &fakeReservationRepo{store: map[uuid.UUID]*reservation.Reservation{}},
		slots:         &fakeSlotRepo{specs: map[uuid.UUID]reservation.SlotSpec{}, reserved: map[uuid.UUID]int32{}},
		wallets:       &fakeWalletRepo{balances: map[uuid.UUID]int64{}},
		policies:      &fakePolicyRepo{policies: map[string]shared.AccessPolicy{}},
		memberships:   &fakeMembershipRepo{active: map[uuid.UUID]bool{}},
		idempotency:   &fakeIdempotencyRepo{records: map[idemKey]*shared.IdempotencyRecord{}},
		notifications: &fakeNotificationRepo{},
	}}
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, u.tx)
}

func (u *fakeUoW) WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error {
	return fn(ctx, nil)
}

type fakeTx struct {
	reservations  *fakeReservationRepo
	slots         *fakeSlotRepo
	wallets       *fakeWalletRepo
	policies      *fakePolicyRepo
	memberships   *fakeMembershipRepo
	idempotency   *fakeIdempotencyRepo
	notifications *fakeNotificationRepo
}

func (t *fakeTx) Reservations() shared.ReservationRepository { return t.reservations }
func (t *fakeTx) Slots() shared.SlotRepository               { return t.slots }
func (t *fakeTx) Wallets() shared.WalletRepository           { return t.wallets }
func (t *fakeTx) Policies() shared.AccessPolicyRepository    { return t.policies }
func (t *fakeTx) Memberships() shared.MembershipRepository   { return t.memberships }
func (t *fakeTx) Idempotency() shared.IdempotencyRepository  { return t.idempotency }
func (t *fakeTx) Notifications() shared.NotificationRepository {
	return t.notifications
}
func (t *fakeTx) DB() db.DBTX { return nil }

type fakeReservationRepo struct {
	store        map[uuid.UUID]*reservation.Reservation
	staleBatches [][]uuid.UUID
	savedHistory int
}

func (r *fakeReservationRepo) Create(_ context.Context, res *reservation.Reservation) error {
	r.store[res.ID()] = res
	return nil
}

func (r *fakeReservationRepo) FindForUpdate(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	res, ok := r.store[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return res, nil
}

func (r *fakeReservationRepo) Save(_ context.Context, res *reservation.Reservation, newHistory []reservation.HistoryEntry) error {
	r.store[res.ID()] = res
	r.savedHistory += len(newHistory)
	return nil
}

func (r *fakeReservationRepo) FindOverlapping(_ context.Context, subjectID uuid.UUID, start, end time.Time) (*uuid.UUID, error) {
	probe, err := reservation.NewTimeWindow(start, end)
	if err != nil {
		return nil, err
	}
	for id, res := range r.store {
		if res.SubjectID() != subjectID || !res.IsActive() {
			continue
		}
		if w := res.Window(); w != nil && w.Overlaps(probe) {
			found := id
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeReservationRepo) StalePendingPayments(_ context.Context, _ time.Time, _ int32) ([]uuid.UUID, error) {
	if len(r.staleBatches) == 0 {
		return nil, nil
	}
	batch := r.staleBatches[0]
	r.staleBatches = r.staleBatches[1:]
	return batch, nil
}

type fakeSlotRepo struct {
	specs    map[uuid.UUID]reservation.SlotSpec
	reserved map[uuid.UUID]int32
}

func (s *fakeSlotRepo) Snapshot(_ context.Context, id uuid.UUID) (reservation.SlotSpec, error) {
	spec, ok := s.specs[id]
	if !ok {
		return reservation.SlotSpec{}, infra.WrapRepoErr("slot not found", nil, infra.KindNotFound)
	}
	return spec, nil
}

func (s *fakeSlotRepo) TryReserve(_ context.Context, id uuid.UUID, seats int32) error {
	spec := s.specs[id]
	if spec.Capacity != nil && s.reserved[id]+seats > *spec.Capacity {
		return infra.WrapRepoErr("slot capacity exceeded", nil, infra.KindConflict)
	}
	s.reserved[id] += seats
	return nil
}

func (s *fakeSlotRepo) Release(_ context.Context, id uuid.UUID, seats int32) error {
	s.reserved[id] -= seats
	if s.reserved[id] < 0 {
		s.reserved[id] = 0
	}
	return nil
}

type refundRecord struct {
	reservationID uuid.UUID
	amountCents   int64
	method        reservation.RefundMethod
	state         reservation.RefundState
}

type fakeWalletRepo struct {
	balances map[uuid.UUID]int64
	refunds  []refundRecord
}

func (w *fakeWalletRepo) BalanceForUpdate(_ context.Context, subjectID uuid.UUID) (int64, error) {
	if _, ok := w.balances[subjectID]; !ok {
		w.balances[subjectID] = 0
	}
	return w.balances[subjectID], nil
}

func (w *fakeWalletRepo) hasAccount(subjectID uuid.UUID) bool {
	_, ok := w.balances[subjectID]
	return ok
}

func (w *fakeWalletRepo) Debit(_ context.Context, subjectID uuid.UUID, amountCents int64) error {
	if w.balances[subjectID] < amountCents {
		return errs.Mark(errs.ErrInsufficientBalance, errs.ErrConcurrencyConflict)
	}
	w.balances[subjectID] -= amountCents
	return nil
}

func (w *fakeWalletRepo) Credit(_ context.Context, subjectID uuid.UUID, amountCents int64) error {
	w.balances[subjectID] += amountCents
	return nil
}

func (w *fakeWalletRepo) RecordRefund(_ context.Context, reservationID uuid.UUID, amountCents int64, method reservation.RefundMethod, state reservation.RefundState) error {
	w.refunds = append(w.refunds, refundRecord{reservationID, amountCents, method, state})
	return nil
}

type fakePolicyRepo struct {
	policies map[string]shared.AccessPolicy
}

func (p *fakePolicyRepo) PolicyFor(_ context.Context, resourceClass string) (shared.AccessPolicy, error) {
	if policy, ok := p.policies[resourceClass]; ok {
		return policy, nil
	}
	return shared.PolicyMembersOnly, nil
}

type fakeMembershipRepo struct {
	active  map[uuid.UUID]bool
	expired int64
}

func (m *fakeMembershipRepo) IsActive(_ context.Context, subjectID uuid.UUID) (bool, error) {
	return m.active[subjectID], nil
}

func (m *fakeMembershipRepo) ExpireLapsed(_ context.Context, _ time.Time) (int64, error) {
	return m.expired, nil
}

type idemKey struct {
	key       uuid.UUID
	subjectID uuid.UUID
}

type fakeIdempotencyRepo struct {
	records map[idemKey]*shared.IdempotencyRecord
}

func (i *fakeIdempotencyRepo) TryInsert(_ context.Context, key, subjectID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	k := idemKey{key, subjectID}
	if _, ok := i.records[k]; ok {
		return false, nil
	}
	i.records[k] = &shared.IdempotencyRecord{
		Key:         key,
		SubjectID:   subjectID,
		Endpoint:    endpoint,
		RequestHash: requestHash,
		Status:      shared.IdempotencyProcessing,
		ExpiresAt:   expiresAt,
	}
	return true, nil
}

func (i *fakeIdempotencyRepo) Get(_ context.Context, key, subjectID uuid.UUID) (*shared.IdempotencyRecord, error) {
	record, ok := i.records[idemKey{key, subjectID}]
	if !ok {
		return nil, infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	return record, nil
}

func (i *fakeIdempotencyRepo) MarkCompleted(_ context.Context, key, subjectID uuid.UUID, resultReservationID uuid.UUID) error {
	record := i.records[idemKey{key, subjectID}]
	record.Status = shared.IdempotencyCompleted
	record.ResultReservationID = &resultReservationID
	return nil
}

type notificationJob struct {
	kind  string
	topic string
}

type fakeNotificationRepo struct {
	jobs []notificationJob
}

func (n *fakeNotificationRepo) CreateJob(_ context.Context, kind, topic string, _ []byte, _ time.Time) error {
	n.jobs = append(n.jobs, notificationJob{kind, topic})
	return nil
}

func (n *fakeNotificationRepo) topics() []string {
	out := make([]string, len(n.jobs))
	for i, j := range n.jobs {
		out[i] = j.topic
	}
	return out
}

// fakeViews serves the read side straight from the write store.
type fakeViews struct {
	repo *fakeReservationRepo
}

func (v *fakeViews) GetByID(_ context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	res, ok := v.repo.store[id]
	if !ok {
		return nil, errs.ErrReservationNotFound
	}
	return builder.ViewFromDomain(res), nil
}

func (v *fakeViews) ListBySubject(_ context.Context, subjectID uuid.UUID, limit int32) ([]*queries.ReservationListItem, error) {
	var out []*queries.ReservationListItem
	for _, res := range v.repo.store {
		if res.SubjectID() != subjectID {
			continue
		}
		view := builder.ViewFromDomain(res)
		out = append(out, &queries.ReservationListItem{
			ID:            view.ID,
			SlotID:        view.SlotID,
			Kind:          view.Kind,
			Status:        view.Status,
			TotalFeeCents: view.TotalFeeCents,
			StartsAt:      view.StartsAt,
			EndsAt:        view.EndsAt,
			CreatedAt:     view.CreatedAt,
		})
		if limit > 0 && int32(len(out)) >= limit {
			break
		}
	}
	return out, nil
}
