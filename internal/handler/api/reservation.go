package api

import (
	"errors"
	"net/http"

	"alumni-reserve/internal/domain/reservation"
	reqdto "alumni-reserve/internal/handler/dto/request"
	resdto "alumni-reserve/internal/handler/dto/response"
	"alumni-reserve/internal/handler/middleware"
	"alumni-reserve/internal/pkg/errs"
	"alumni-reserve/internal/usecase/commands"
	"alumni-reserve/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	commands commands.ReservationCommands
	queries  queries.ReservationQueries
}

func NewReservationHandler(cmds commands.ReservationCommands, qrs queries.ReservationQueries) *ReservationHandler {
	return &ReservationHandler{
		commands: cmds,
		queries:  qrs,
	}
}

func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	actorID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	idempotencyKey, err := h.getIdempotencyKey(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	var req reqdto.CreateReservationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.commands.CreateReservation(c.Request.Context(), req.ToCommand(), actorID, actorID, idempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrSlotNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Slot not found",
			})
		case errors.Is(err, errs.ErrIneligibleSubject):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Not eligible for this resource",
			})
		case errors.Is(err, errs.ErrDeadlinePassed):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Booking deadline passed",
			})
		case errors.Is(err, errs.ErrCapacityExceeded):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Slot is fully booked",
			})
		case errors.Is(err, errs.ErrTimeOverlap):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Conflicting reservation in the same time window",
			})
		case errors.Is(err, errs.ErrDuplicateRequest):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Duplicate request with different parameters",
			})
		case errors.Is(err, errs.ErrIdempotencyInProgress):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Request is currently being processed",
			})
		case errors.Is(err, commands.ErrInvalidRequest):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Invalid reservation request",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromReservationView(result.Reservation))
}

func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	actorID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation ID format",
		})
		return
	}

	var req reqdto.CancelReservationRequest
	if c.Request.ContentLength > 0 {
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request format",
			})
			return
		}
	}

	if !h.canActOnReservation(c, id, actorID) {
		return
	}

	result, err := h.commands.CancelReservation(c.Request.Context(), id, actorID, req.GetReason())
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation not found",
			})
		case errors.Is(err, errs.ErrDeadlinePassed):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Cancellation deadline passed",
			})
		case errors.Is(err, errs.ErrInvalidStatusTransition):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Reservation cannot be cancelled in its current status",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromCancelResult(result))
}

func (h *ReservationHandler) AdvanceStatus(c *gin.Context) {
	actorID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation ID format",
		})
		return
	}

	var req reqdto.AdvanceStatusRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	err = h.commands.AdvanceStatus(c.Request.Context(), id, reservation.Status(req.Target), actorID, req.GetNote())
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation not found",
			})
		case errors.Is(err, errs.ErrInsufficientSettlement):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Outstanding balance blocks this transition",
			})
		case errors.Is(err, errs.ErrInvalidStatusTransition):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Invalid status transition",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

func (h *ReservationHandler) RecordPayment(c *gin.Context) {
	actorID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation ID format",
		})
		return
	}

	var req reqdto.RecordPaymentRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	err = h.commands.RecordGatewayPayment(c.Request.Context(), id, req.AmountCents, req.GatewayRef, actorID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation not found",
			})
		case errors.Is(err, commands.ErrPaymentNotAccepted):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Payment not accepted in current state",
			})
		case errors.Is(err, commands.ErrInvalidRequest):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Invalid payment request",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	actorID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation ID format",
		})
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	if view.SubjectID != actorID && !actorIsStaff(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

func (h *ReservationHandler) GetMyReservations(c *gin.Context) {
	actorID, ok := middleware.GetActorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	// Staff may list another subject's reservations via ?subject_id=.
	subjectID := actorID
	if raw := c.Query("subject_id"); raw != "" {
		if !actorIsStaff(c) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid subject ID format",
			})
			return
		}
		subjectID = id
	}

	items, err := h.queries.ListBySubject(c.Request.Context(), subjectID, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response := make([]*resdto.ReservationListResponse, len(items))
	for i, item := range items {
		response[i] = resdto.FromReservationListItem(item)
	}
	c.JSON(http.StatusOK, response)
}

func actorIsStaff(c *gin.Context) bool {
	role, _ := middleware.GetActorRole(c)
	return middleware.RoleAtLeast(role, middleware.RoleStaff)
}

// canActOnReservation admits the reservation's subject and staff; it writes
// the refusal response itself so callers just return on false.
func (h *ReservationHandler) canActOnReservation(c *gin.Context, id, actorID uuid.UUID) bool {
	if actorIsStaff(c) {
		return true
	}

	view, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrReservationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Reservation not found",
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return false
	}
	if view.SubjectID != actorID {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
		return false
	}
	return true
}

func (h *ReservationHandler) getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader("Idempotency-Key")
	if keyStr == "" {
		return uuid.Nil, errs.ErrIdempotencyKeyRequired
	}

	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid idempotency key format")
	}

	return key, nil
}
