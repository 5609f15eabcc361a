package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-booking/internal/queue"
	"github.com/iliyamo/ticket-booking/internal/repository"
	"github.com/iliyamo/ticket-booking/internal/service/reservation"
)

// PublishFunc sends a reserved-ticket notification to the broker.  It
// is a function value so handlers can be tested without a broker.
type PublishFunc func(ctx context.Context, event queue.TicketReservedEvent) error

// TicketHandler serves the booking, cancellation and refund endpoints
// on top of the reservation engine.
type TicketHandler struct {
	Engine  *reservation.Engine
	Publish PublishFunc
}

// NewTicketHandler constructs a TicketHandler.  publish may be nil, in
// which case reserved-ticket notifications are skipped.
func NewTicketHandler(engine *reservation.Engine, publish PublishFunc) *TicketHandler {
	if engine == nil {
		panic("nil engine passed to NewTicketHandler")
	}
	return &TicketHandler{Engine: engine, Publish: publish}
}

// publishReserved fires the ticket.reserved notification in the
// background.  Delivery is best effort; a broker outage must never fail
// a booking that already committed.
func (h *TicketHandler) publishReserved(d repository.TicketDetail) {
	if h.Publish == nil {
		return
	}
	ev := queue.TicketReservedEvent{
		TicketID:   d.ID,
		EventID:    d.EventID,
		EventTitle: d.Event.Title,
		Location:   d.Event.Location,
		StartsAt:   d.Event.StartsAt.UTC().Format(time.RFC3339),
		SeatID:     d.SeatID,
		SeatNumber: d.Seat.SeatNumber,
		UserID:     d.UserID,
		GuestID:    d.GuestID,
		ReservedAt: d.ReservedAt.UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Publish(ctx, ev)
	}()
}

type createTicketReq struct {
	EventID uint64 `json:"event_id"`
	SeatID  uint64 `json:"seat_id"`
}

type createGuestTicketReq struct {
	Email   string `json:"email"`
	EventID uint64 `json:"event_id"`
	SeatID  uint64 `json:"seat_id"`
}

// Create handles POST /v1/tickets.  The owner is the authenticated
// user; the body names the event and seat.
func (h *TicketHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createTicketReq
	if err := c.Bind(&req); err != nil || req.EventID == 0 || req.SeatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and seat_id required"})
	}
	detail, err := h.Engine.CreateTicket(c.Request().Context(), userID, req.EventID, req.SeatID)
	if err != nil {
		return engineError(c, err)
	}
	h.publishReserved(detail)
	return c.JSON(http.StatusCreated, detail)
}

// CreateGuest handles POST /v1/tickets/guest.  No authentication; the
// guest is identified (or created) by email.
func (h *TicketHandler) CreateGuest(c echo.Context) error {
	var req createGuestTicketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email required"})
	}
	if req.EventID == 0 || req.SeatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and seat_id required"})
	}
	detail, err := h.Engine.CreateGuestTicket(c.Request().Context(), req.Email, req.EventID, req.SeatID)
	if err != nil {
		return engineError(c, err)
	}
	h.publishReserved(detail)
	return c.JSON(http.StatusCreated, detail)
}

// ListMine handles GET /v1/tickets.  Returns the caller's non-refunded
// tickets, newest first.
func (h *TicketHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tickets, err := h.Engine.ListUserTickets(c.Request().Context(), userID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tickets})
}

// ListGuest handles GET /v1/tickets/guest/:guestId.  Whoever knows a
// guest ID may read that guest's tickets; the anonymous flow has no
// stronger credential.
func (h *TicketHandler) ListGuest(c echo.Context) error {
	guestID, ok := pathID(c, "guestId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid guest id"})
	}
	tickets, err := h.Engine.ListGuestTickets(c.Request().Context(), guestID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tickets})
}

// Get handles GET /v1/tickets/:id.
func (h *TicketHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	detail, err := h.Engine.GetTicket(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// Cancel handles POST /v1/tickets/:id/cancel for authenticated users.
// The ticket must belong to the caller.
func (h *TicketHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	detail, err := h.Engine.CancelTicket(c.Request().Context(), id, &userID, nil)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// CancelGuest handles POST /v1/tickets/:id/cancel/guest.  The body
// carries the guest ID; the ticket must belong to that guest.
func (h *TicketHandler) CancelGuest(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var body struct {
		GuestID uint64 `json:"guest_id"`
	}
	if err := c.Bind(&body); err != nil || body.GuestID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_id required"})
	}
	detail, err := h.Engine.CancelTicket(c.Request().Context(), id, nil, &body.GuestID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// RequestRefund handles POST /v1/tickets/:id/refund.  Open to any
// caller who knows the ticket ID; the ticket must be CANCELLED and may
// carry at most one refund request.
func (h *TicketHandler) RequestRefund(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var body struct {
		Reason *string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Reason != nil {
		trimmed := strings.TrimSpace(*body.Reason)
		if trimmed == "" {
			body.Reason = nil
		} else {
			body.Reason = &trimmed
		}
	}
	rr, err := h.Engine.RequestRefund(c.Request().Context(), id, body.Reason)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, rr)
}

// ApproveRefund handles POST /v1/admin/refunds/:id/approve (admin).
// Approval moves the linked ticket to REFUNDED.
func (h *TicketHandler) ApproveRefund(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid refund request id"})
	}
	detail, err := h.Engine.ApproveRefund(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}
