package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-booking/internal/repository"
)

// EventHandler serves the event catalog: public browsing plus the
// administrator's CRUD and seat-setup endpoints.  Role gating is
// applied by middleware; handlers here only validate input and map
// repository errors to responses.
type EventHandler struct {
	Events *repository.EventRepo
	Seats  *repository.SeatRepo
}

// NewEventHandler constructs an EventHandler.  Both repositories must
// be non-nil.
func NewEventHandler(events *repository.EventRepo, seats *repository.SeatRepo) *EventHandler {
	if events == nil || seats == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Seats: seats}
}

type eventReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	PriceCents  uint32    `json:"price_cents"`
}

func (r eventReq) validate() (repository.EventInput, string) {
	in := repository.EventInput{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Location:    strings.TrimSpace(r.Location),
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		PriceCents:  r.PriceCents,
	}
	if in.Title == "" {
		return in, "title is required"
	}
	if in.StartsAt.IsZero() || in.EndsAt.IsZero() {
		return in, "starts_at and ends_at are required"
	}
	if !in.StartsAt.Before(in.EndsAt) {
		return in, "starts_at must precede ends_at"
	}
	return in, ""
}

// Create handles POST /v1/events (admin).
func (h *EventHandler) Create(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	in, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ev, err := h.Events.Create(c.Request().Context(), in)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// List handles GET /v1/events.  Events are ordered by start time.
func (h *EventHandler) List(c echo.Context) error {
	events, err := h.Events.List(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": events})
}

// Get handles GET /v1/events/:id.  The response includes the event's
// seats so a client can render the seat map in one request.
func (h *EventHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return engineError(c, err)
	}
	seats, err := h.Seats.ListByEvent(ctx, id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event": ev, "seats": seats})
}

// Update handles PUT /v1/events/:id (admin).
func (h *EventHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	in, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ev, err := h.Events.Update(c.Request().Context(), id, in)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// Delete handles DELETE /v1/events/:id (admin).
func (h *EventHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.Events.Delete(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetSeats handles GET /v1/events/:id/seats.  Seats are ordered by
// seat number; the event must exist.
func (h *EventHandler) GetSeats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, id); err != nil {
		return engineError(c, err)
	}
	seats, err := h.Seats.ListByEvent(ctx, id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}

// CreateSeats handles POST /v1/events/:id/seats (admin).  It bulk
// creates seats at event-setup time.  The body carries a
// "seat_numbers" array; duplicates within the request are dropped.
func (h *EventHandler) CreateSeats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		SeatNumbers []string `json:"seat_numbers"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	unique := make([]string, 0, len(body.SeatNumbers))
	seen := make(map[string]struct{})
	for _, num := range body.SeatNumbers {
		num = strings.TrimSpace(num)
		if num == "" {
			continue
		}
		if _, ok := seen[num]; !ok {
			seen[num] = struct{}{}
			unique = append(unique, num)
		}
	}
	if len(unique) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_numbers is required"})
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, id); err != nil {
		return engineError(c, err)
	}
	if err := h.Seats.CreateBulk(ctx, id, unique); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat numbers must be unique per event"})
	}
	seats, err := h.Seats.ListByEvent(ctx, id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"items": seats})
}
