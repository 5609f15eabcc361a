package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-booking/internal/model"
	"github.com/iliyamo/ticket-booking/internal/repository"
	"github.com/iliyamo/ticket-booking/internal/service/stats"
)

// AdminHandler serves the administrator's reporting surface: the
// cross-owner ticket list, the refund review queue and the statistics
// endpoints.
type AdminHandler struct {
	Stats   *stats.Reader
	Tickets *repository.TicketRepo
	Refunds *repository.RefundRepo
}

// NewAdminHandler constructs an AdminHandler.  All dependencies must
// be non-nil.
func NewAdminHandler(s *stats.Reader, t *repository.TicketRepo, r *repository.RefundRepo) *AdminHandler {
	if s == nil || t == nil || r == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Stats: s, Tickets: t, Refunds: r}
}

// ListTickets handles GET /v1/admin/tickets.  Query parameters: page
// (default 1), limit (default 10, max 100), status (optional filter).
func (h *AdminHandler) ListTickets(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	var status *model.TicketStatus
	if raw := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); raw != "" {
		st := model.TicketStatus(raw)
		if !st.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
		}
		status = &st
	}

	tickets, total, err := h.Tickets.ListAll(c.Request().Context(), page, limit, status)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": tickets,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}

// AllStatistics handles GET /v1/admin/statistics: per-event reports
// plus the cross-event summary.
func (h *AdminHandler) AllStatistics(c echo.Context) error {
	overview, err := h.Stats.AllStatistics(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, overview)
}

// EventStatistics handles GET /v1/admin/statistics/events/:id.
func (h *AdminHandler) EventStatistics(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	report, err := h.Stats.EventStatistics(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// PendingRefunds handles GET /v1/admin/refunds: the unapproved refund
// requests, oldest first.
func (h *AdminHandler) PendingRefunds(c echo.Context) error {
	pending, err := h.Refunds.ListPending(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": pending})
}
