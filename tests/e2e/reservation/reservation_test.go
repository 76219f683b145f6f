//go:build e2e

package reservation_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"alumni-reserve/internal/handler/dto/response"
	"alumni-reserve/internal/handler/middleware"
	"alumni-reserve/tests/common/authtest"
	"alumni-reserve/tests/common/builder"
	"alumni-reserve/tests/common/dbtest"
	"alumni-reserve/tests/common/httptest"
	"alumni-reserve/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const reservationsURL = "/api/reservations"

type ReservationSuite struct {
	e2e.SharedSuite
}

func (s *ReservationSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestReservationSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(ReservationSuite))
}

func (s *ReservationSuite) memberToken(t *testing.T, subjectID uuid.UUID) string {
	return authtest.TokenFor(t, s.Config, subjectID, middleware.RoleMember)
}

func (s *ReservationSuite) staffToken(t *testing.T) string {
	return authtest.TokenFor(t, s.Config, uuid.New(), middleware.RoleStaff)
}

func createBody(slotID uuid.UUID, path string, quantity int) map[string]any {
	return map[string]any{
		"slot_id": slotID.String(),
		"path":    path,
		"items":   []map[string]any{{"kind": "attendee", "quantity": quantity}},
	}
}

func idempotencyHeader() map[string]string {
	return map[string]string{"Idempotency-Key": uuid.New().String()}
}

// createReservation books through the API and returns the decoded response.
func (s *ReservationSuite) createReservation(t *testing.T, token string, body map[string]any) response.ReservationResponse {
	t.Helper()

	w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, reservationsURL, body, token, idempotencyHeader())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created response.ReservationResponse
	err := httptest.DecodeResponseBody(t, w.Body, &created)
	require.NoError(t, err)
	return created
}

// =============================================================================
// TestCreateReservation - Booking API tests
// =============================================================================

func (s *ReservationSuite) TestCreateReservation() {
	s.Run("Normal case: Wallet covers the full fee", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)
		token := s.memberToken(t, memberID)

		created := s.createReservation(t, token, createBody(slot.ID, "pickup", 2))

		require.Equal(t, "processing", created.Status)
		require.Equal(t, int64(10_000), created.TotalFeeCents)
		require.Equal(t, int64(10_000), created.WalletPaidCents)
		require.Equal(t, int64(0), created.RemainingCents)
		require.Equal(t, "wallet", created.PaymentMethod)
		require.Equal(t, int32(2), created.SeatsHeld)

		require.Equal(t, int64(90_000), dbtest.WalletBalance(t, s.DB, memberID))
		require.Equal(t, int32(2), dbtest.SlotReservedCount(t, s.DB, slot.ID))

		// Detail read must reproduce the create response
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, reservationsURL+"/"+created.ID.String(), nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var detail response.ReservationResponse
		err := httptest.DecodeResponseBody(t, w.Body, &detail)
		require.NoError(t, err)

		if diff := cmp.Diff(created, detail, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("Reservation detail mismatch (-create +get):\n%s", diff)
		}
	})

	s.Run("Normal case: Replay with the same idempotency key returns the original", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)
		token := s.memberToken(t, memberID)

		body := createBody(slot.ID, "pickup", 1)
		headers := idempotencyHeader()

		w1 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, reservationsURL, body, token, headers)
		require.Equal(t, http.StatusCreated, w1.Code, w1.Body.String())
		var first response.ReservationResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w1.Body, &first))

		w2 := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, reservationsURL, body, token, headers)
		require.Equal(t, http.StatusOK, w2.Code, "Replay should return 200, not create again")
		var second response.ReservationResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w2.Body, &second))

		require.Equal(t, first.ID, second.ID)
		require.Equal(t, int64(95_000), dbtest.WalletBalance(t, s.DB, memberID), "Wallet should be debited exactly once")
		require.Equal(t, int32(1), dbtest.SlotReservedCount(t, s.DB, slot.ID))
	})

	s.Run("Normal case: Partial wallet balance leaves the reservation pending payment", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 2000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)
		token := s.memberToken(t, memberID)

		created := s.createReservation(t, token, createBody(slot.ID, "pickup", 1))

		require.Equal(t, "pending_payment", created.Status)
		require.Equal(t, int64(2000), created.WalletPaidCents)
		require.Equal(t, int64(3000), created.RemainingCents)
		require.Equal(t, "mixed", created.PaymentMethod)
		require.Equal(t, int64(0), dbtest.WalletBalance(t, s.DB, memberID))
	})

	s.Run("Error case: Lapsed membership cannot book a members-only resource", func() {
		t := s.T()

		lapsedID := dbtest.CreateTestMember(t, s.DB, false, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, reservationsURL,
			createBody(slot.ID, "pickup", 1), s.memberToken(t, lapsedID), idempotencyHeader())
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("Error case: Fully booked slot returns conflict", func() {
		t := s.T()

		firstID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		secondID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		capacity := int32(1)
		slot := builder.NewSlotBuilder(time.Now()).With(func(b *builder.SlotBuilder) {
			b.Capacity = &capacity
		}).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		s.createReservation(t, s.memberToken(t, firstID), createBody(slot.ID, "pickup", 1))

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, reservationsURL,
			createBody(slot.ID, "pickup", 1), s.memberToken(t, secondID), idempotencyHeader())
		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, int64(100_000), dbtest.WalletBalance(t, s.DB, secondID), "Refused booking must not touch the wallet")
		require.Equal(t, int32(1), dbtest.SlotReservedCount(t, s.DB, slot.ID))
	})

	s.Run("Race case: Concurrent bookings for the last seat admit exactly one", func() {
		t := s.T()

		const contenders = 5
		capacity := int32(1)
		slot := builder.NewSlotBuilder(time.Now()).With(func(b *builder.SlotBuilder) {
			b.Capacity = &capacity
		}).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		tokens := make([]string, contenders)
		for i := range tokens {
			memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
			tokens[i] = s.memberToken(t, memberID)
		}

		codes := make(chan int, contenders)
		var wg sync.WaitGroup
		for i := range contenders {
			wg.Add(1)
			go func(token string) {
				defer wg.Done()
				w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, reservationsURL,
					createBody(slot.ID, "pickup", 1), token, idempotencyHeader())
				codes <- w.Code
			}(tokens[i])
		}
		wg.Wait()
		close(codes)

		var created, conflicted int
		for code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				conflicted++
			default:
				t.Errorf("unexpected status %d", code)
			}
		}
		require.Equal(t, 1, created, "Exactly one contender should win the last seat")
		require.Equal(t, contenders-1, conflicted)
		require.Equal(t, int32(1), dbtest.SlotReservedCount(t, s.DB, slot.ID))
	})

	s.Run("Error case: Overlapping reservation in the same time window", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		now := time.Now()
		slot1 := builder.NewSlotBuilder(now).Build()
		slot2 := builder.NewSlotBuilder(now).Build()
		dbtest.CreateTestSlot(t, s.DB, slot1)
		dbtest.CreateTestSlot(t, s.DB, slot2)
		token := s.memberToken(t, memberID)

		s.createReservation(t, token, createBody(slot1.ID, "pickup", 1))

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, reservationsURL,
			createBody(slot2.ID, "pickup", 1), token, idempotencyHeader())
		require.Equal(t, http.StatusConflict, w.Code)
	})

	s.Run("Race case: Concurrent overlapping bookings for a wallet-less subject admit exactly one", func() {
		t := s.T()

		subjectID := dbtest.CreateTestSubject(t, s.DB, true)
		now := time.Now()
		slotA := builder.NewSlotBuilder(now).Build()
		slotB := builder.NewSlotBuilder(now).Build()
		dbtest.CreateTestSlot(t, s.DB, slotA)
		dbtest.CreateTestSlot(t, s.DB, slotB)
		token := s.memberToken(t, subjectID)

		codes := make(chan int, 2)
		var wg sync.WaitGroup
		for _, slotID := range []uuid.UUID{slotA.ID, slotB.ID} {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, reservationsURL,
					createBody(id, "pickup", 1), token, idempotencyHeader())
				codes <- w.Code
			}(slotID)
		}
		wg.Wait()
		close(codes)

		var created, conflicted int
		for code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				conflicted++
			default:
				t.Errorf("unexpected status %d", code)
			}
		}
		require.Equal(t, 1, created, "Overlapping windows for one subject must admit exactly one booking")
		require.Equal(t, 1, conflicted)
		require.Equal(t, int64(0), dbtest.WalletBalance(t, s.DB, subjectID),
			"Booking should have created a zero-balance wallet row to lock")
	})

	s.Run("Error case: Missing Idempotency-Key header", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			createBody(slot.ID, "pickup", 1), s.memberToken(t, memberID))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	s.Run("Auth test - Unauthorized without a token", func() {
		t := s.T()

		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, reservationsURL,
			createBody(slot.ID, "pickup", 1), "", idempotencyHeader())
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// =============================================================================
// TestCancelReservation - Cancellation API tests
// =============================================================================

func (s *ReservationSuite) TestCancelReservation() {
	s.Run("Normal case: Cancel refunds the wallet minus the admin fee and releases the seat", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).WithAdminFee(1000).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)
		token := s.memberToken(t, memberID)

		created := s.createReservation(t, token, createBody(slot.ID, "pickup", 1))
		require.Equal(t, int64(94_000), dbtest.WalletBalance(t, s.DB, memberID))

		url := reservationsURL + "/" + created.ID.String() + "/cancel"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url,
			map[string]any{"reason": "plans changed"}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result response.CancelReservationResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &result))

		expected := &response.CancelReservationResponse{
			RefundTotalCents: 5000,
			Refunds: []response.RefundResponse{
				{AmountCents: 5000, Method: "wallet", State: "credited"},
			},
		}
		if diff := cmp.Diff(expected, &result); diff != "" {
			t.Errorf("Cancel result mismatch (-want +got):\n%s", diff)
		}

		require.Equal(t, int64(99_000), dbtest.WalletBalance(t, s.DB, memberID), "Admin fee stays withheld")
		require.Equal(t, int32(0), dbtest.SlotReservedCount(t, s.DB, slot.ID))

		dw := httptest.PerformRequest(t, s.Router, http.MethodGet, reservationsURL+"/"+created.ID.String(), nil, token)
		require.Equal(t, http.StatusOK, dw.Code)
		var detail response.ReservationResponse
		require.NoError(t, httptest.DecodeResponseBody(t, dw.Body, &detail))
		require.Equal(t, "cancelled", detail.Status)
	})

	s.Run("Error case: Cancellation after the cutoff is refused", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).
			WithCancelDeadline(time.Now().Add(-time.Hour)).
			Build()
		dbtest.CreateTestSlot(t, s.DB, slot)
		token := s.memberToken(t, memberID)

		created := s.createReservation(t, token, createBody(slot.ID, "pickup", 1))

		url := reservationsURL + "/" + created.ID.String() + "/cancel"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url, nil, token)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.Equal(t, int64(95_000), dbtest.WalletBalance(t, s.DB, memberID), "Refused cancellation must not refund")
	})

	s.Run("Error case: Another member cannot cancel someone else's reservation", func() {
		t := s.T()

		ownerID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		intruderID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		created := s.createReservation(t, s.memberToken(t, ownerID), createBody(slot.ID, "pickup", 1))

		url := reservationsURL + "/" + created.ID.String() + "/cancel"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url, nil, s.memberToken(t, intruderID))
		require.Equal(t, http.StatusForbidden, w.Code)

		require.Equal(t, int64(95_000), dbtest.WalletBalance(t, s.DB, ownerID), "Refused cancel must not refund")
		require.Equal(t, int32(1), dbtest.SlotReservedCount(t, s.DB, slot.ID), "Refused cancel must not release the seat")
	})

	s.Run("Error case: Cancelling twice conflicts", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)
		token := s.memberToken(t, memberID)

		created := s.createReservation(t, token, createBody(slot.ID, "pickup", 1))

		url := reservationsURL + "/" + created.ID.String() + "/cancel"
		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, url, nil, token)
		require.Equal(t, http.StatusOK, w1.Code)

		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, url, nil, token)
		require.Equal(t, http.StatusConflict, w2.Code)
		require.Equal(t, int64(100_000), dbtest.WalletBalance(t, s.DB, memberID), "Second cancel must not refund again")
	})
}

// =============================================================================
// TestGetReservation - Detail API authorization tests
// =============================================================================

func (s *ReservationSuite) TestGetReservation() {
	s.Run("Normal case: Owner and staff can read, other members cannot", func() {
		t := s.T()

		ownerID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		otherID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		created := s.createReservation(t, s.memberToken(t, ownerID), createBody(slot.ID, "pickup", 1))
		url := reservationsURL + "/" + created.ID.String()

		ownerResp := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, s.memberToken(t, ownerID))
		require.Equal(t, http.StatusOK, ownerResp.Code)

		staffResp := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, s.staffToken(t))
		require.Equal(t, http.StatusOK, staffResp.Code)

		otherResp := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, s.memberToken(t, otherID))
		require.Equal(t, http.StatusForbidden, otherResp.Code)
	})

	s.Run("Error case: Returns 404 Not Found for an unknown ID", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		url := reservationsURL + "/" + uuid.NewString()
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, s.memberToken(t, memberID))
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

// =============================================================================
// TestAdvanceStatus - Fulfillment progression API tests (staff only)
// =============================================================================

func (s *ReservationSuite) TestAdvanceStatus() {
	s.Run("Normal case: Staff advances a settled reservation through the pickup chain", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		created := s.createReservation(t, s.memberToken(t, memberID), createBody(slot.ID, "pickup", 1))
		require.Equal(t, "processing", created.Status)

		staff := s.staffToken(t)
		url := reservationsURL + "/" + created.ID.String() + "/status"

		for _, target := range []string{"ready_for_pickup", "completed"} {
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, url,
				map[string]any{"target": target}, staff)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var detail response.ReservationResponse
			require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &detail))
			require.Equal(t, target, detail.Status)
		}
	})

	s.Run("Error case: Member tokens cannot advance status", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)
		token := s.memberToken(t, memberID)

		created := s.createReservation(t, token, createBody(slot.ID, "pickup", 1))

		url := reservationsURL + "/" + created.ID.String() + "/status"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url,
			map[string]any{"target": "ready_for_pickup"}, token)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("Error case: Delivery leg is rejected on a pickup reservation", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		created := s.createReservation(t, s.memberToken(t, memberID), createBody(slot.ID, "pickup", 1))

		url := reservationsURL + "/" + created.ID.String() + "/status"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url,
			map[string]any{"target": "out_for_delivery"}, s.staffToken(t))
		require.Equal(t, http.StatusConflict, w.Code)
	})

	s.Run("Error case: Unsettled reservation cannot enter processing", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 2000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		created := s.createReservation(t, s.memberToken(t, memberID), createBody(slot.ID, "pickup", 1))
		require.Equal(t, "pending_payment", created.Status)

		url := reservationsURL + "/" + created.ID.String() + "/status"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url,
			map[string]any{"target": "processing"}, s.staffToken(t))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

// =============================================================================
// TestRecordPayment - Gateway payment API tests (staff only)
// =============================================================================

func (s *ReservationSuite) TestRecordPayment() {
	s.Run("Normal case: Gateway payment settles a pending reservation", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 2000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		created := s.createReservation(t, s.memberToken(t, memberID), createBody(slot.ID, "pickup", 1))
		require.Equal(t, "pending_payment", created.Status)

		url := reservationsURL + "/" + created.ID.String() + "/payments"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url,
			map[string]any{"amount_cents": 3000, "gateway_ref": "txn-e2e-1"}, s.staffToken(t))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var detail response.ReservationResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &detail))
		require.Equal(t, "processing", detail.Status)
		require.Equal(t, int64(3000), detail.GatewayPaidCents)
		require.Equal(t, int64(0), detail.RemainingCents)
		require.NotNil(t, detail.GatewayRef)
		require.Equal(t, "txn-e2e-1", *detail.GatewayRef)
	})

	s.Run("Error case: Overpayment is refused", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 2000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		created := s.createReservation(t, s.memberToken(t, memberID), createBody(slot.ID, "pickup", 1))

		url := reservationsURL + "/" + created.ID.String() + "/payments"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url,
			map[string]any{"amount_cents": 4000}, s.staffToken(t))
		require.Equal(t, http.StatusConflict, w.Code)
	})

	s.Run("Error case: Member tokens cannot record payments", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 2000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)
		token := s.memberToken(t, memberID)

		created := s.createReservation(t, token, createBody(slot.ID, "pickup", 1))

		url := reservationsURL + "/" + created.ID.String() + "/payments"
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url,
			map[string]any{"amount_cents": 3000}, token)
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

// =============================================================================
// TestGetMyReservations - Listing API tests
// =============================================================================

func (s *ReservationSuite) TestGetMyReservations() {
	s.Run("Normal case: Lists only the caller's reservations", func() {
		t := s.T()

		aliceID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		bobID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		aliceToken := s.memberToken(t, aliceID)
		created := s.createReservation(t, aliceToken, createBody(slot.ID, "pickup", 1))
		s.createReservation(t, s.memberToken(t, bobID), createBody(slot.ID, "pickup", 1))

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, reservationsURL, nil, aliceToken)
		require.Equal(t, http.StatusOK, w.Code)

		var items []*response.ReservationListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &items))
		require.Len(t, items, 1)
		require.Equal(t, created.ID, items[0].ID)
		require.Equal(t, "processing", items[0].Status)
	})

	s.Run("Normal case: Staff can list another subject's reservations", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)
		slot := builder.NewSlotBuilder(time.Now()).Build()
		dbtest.CreateTestSlot(t, s.DB, slot)

		created := s.createReservation(t, s.memberToken(t, memberID), createBody(slot.ID, "pickup", 1))

		url := reservationsURL + "?subject_id=" + memberID.String()
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, s.staffToken(t))
		require.Equal(t, http.StatusOK, w.Code)

		var items []*response.ReservationListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &items))
		require.Len(t, items, 1)
		require.Equal(t, created.ID, items[0].ID)
	})

	s.Run("Error case: Members cannot filter by another subject", func() {
		t := s.T()

		memberID := dbtest.CreateTestMember(t, s.DB, true, 100_000)

		url := reservationsURL + "?subject_id=" + uuid.NewString()
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, url, nil, s.memberToken(t, memberID))
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	s.Run("Auth test - Unauthorized without a token", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, reservationsURL, nil, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
