// Package reservation implements the seat-to-ticket binding workflow:
// booking, cancellation and the refund state machine.  The engine
// performs the ordered precondition checks and delegates each atomic
// mutation to the storage layer, whose conditional updates guarantee
// that no two concurrent requests can claim the same seat or flip the
// same ticket twice.  Actor identity is always an explicit parameter;
// the engine never reads ambient request state.
package reservation

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/ticket-booking/internal/model"
	"github.com/iliyamo/ticket-booking/internal/repository"
	"github.com/iliyamo/ticket-booking/internal/utils"
)

// EventReader is the slice of the event repository the engine needs.
type EventReader interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
}

// SeatReader is the slice of the seat repository the engine needs.
type SeatReader interface {
	GetByID(ctx context.Context, id uint64) (model.Seat, error)
}

// GuestStore resolves or creates anonymous booking identities.
type GuestStore interface {
	FindByEmail(ctx context.Context, email string) (model.Guest, error)
	Create(ctx context.Context, email, verificationCode string) (model.Guest, error)
}

// TicketStore performs the atomic ticket mutations.  Implementations
// must serialize CreateReserved calls on the same seat and Cancel
// calls on the same ticket so that exactly one concurrent caller
// succeeds; the SQL implementation does this with conditional updates
// inside single transactions.
type TicketStore interface {
	GetByID(ctx context.Context, id uint64) (repository.TicketDetail, error)
	CreateReserved(ctx context.Context, owner repository.TicketOwner, eventID, seatID uint64) (repository.TicketDetail, error)
	Cancel(ctx context.Context, ticketID uint64) (repository.TicketDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]repository.TicketDetail, error)
	ListByGuest(ctx context.Context, guestID uint64) ([]repository.TicketDetail, error)
}

// RefundStore persists refund requests and performs the approval
// transition together with the linked ticket.
type RefundStore interface {
	GetByID(ctx context.Context, id uint64) (model.RefundRequest, error)
	ExistsForTicket(ctx context.Context, ticketID uint64) (bool, error)
	Create(ctx context.Context, ticketID uint64, reason *string) (model.RefundRequest, error)
	Approve(ctx context.Context, requestID uint64) (repository.TicketDetail, error)
}

// Engine validates and executes ticket lifecycle operations.  It is
// safe for concurrent use; all state lives in the storage layer.
type Engine struct {
	events  EventReader
	seats   SeatReader
	guests  GuestStore
	tickets TicketStore
	refunds RefundStore
}

// New constructs an Engine.  All dependencies must be non-nil.
func New(events EventReader, seats SeatReader, guests GuestStore, tickets TicketStore, refunds RefundStore) *Engine {
	if events == nil || seats == nil || guests == nil || tickets == nil || refunds == nil {
		panic("nil dependency passed to reservation.New")
	}
	return &Engine{events: events, seats: seats, guests: guests, tickets: tickets, refunds: refunds}
}

// checkBookable runs the ordered fast-fail preconditions shared by
// member and guest booking: the event exists, the seat exists, the
// seat is free and the event has not started.  The seat check here is
// advisory; the authoritative claim is the compare-and-set inside
// TicketStore.CreateReserved.
func (e *Engine) checkBookable(ctx context.Context, eventID, seatID uint64) error {
	ev, err := e.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	seat, err := e.seats.GetByID(ctx, seatID)
	if err != nil {
		return err
	}
	if seat.IsReserved {
		return repository.ErrSeatTaken
	}
	if ev.HasStarted(time.Now().UTC()) {
		return repository.ErrEventStarted
	}
	return nil
}

// CreateTicket books a seat for a registered user and returns the new
// ticket joined with its event and seat.
func (e *Engine) CreateTicket(ctx context.Context, userID, eventID, seatID uint64) (repository.TicketDetail, error) {
	if err := e.checkBookable(ctx, eventID, seatID); err != nil {
		return repository.TicketDetail{}, err
	}
	return e.tickets.CreateReserved(ctx, repository.TicketOwner{UserID: &userID}, eventID, seatID)
}

// CreateGuestTicket books a seat for an anonymous guest identified by
// email.  The guest record is resolved first: an existing guest with
// the same email is reused, otherwise one is created with a freshly
// generated verification code.  Everything after owner resolution is
// identical to CreateTicket.
func (e *Engine) CreateGuestTicket(ctx context.Context, email string, eventID, seatID uint64) (repository.TicketDetail, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	guest, err := e.guests.FindByEmail(ctx, email)
	if err != nil {
		if err != repository.ErrGuestNotFound {
			return repository.TicketDetail{}, err
		}
		code, err := utils.NewVerificationCode()
		if err != nil {
			return repository.TicketDetail{}, err
		}
		guest, err = e.guests.Create(ctx, email, code)
		if err != nil {
			return repository.TicketDetail{}, err
		}
	}
	if err := e.checkBookable(ctx, eventID, seatID); err != nil {
		return repository.TicketDetail{}, err
	}
	return e.tickets.CreateReserved(ctx, repository.TicketOwner{GuestID: &guest.ID}, eventID, seatID)
}

// CancelTicket moves a RESERVED ticket to CANCELLED and frees its
// seat.  When a userID or guestID is supplied it must match the
// ticket's owner; supplying neither skips the ownership check, which
// is the trust boundary of the anonymous guest-cancel flow (whoever
// knows the ticket and guest IDs may cancel).  Cancellation is only
// allowed before the event starts.
func (e *Engine) CancelTicket(ctx context.Context, ticketID uint64, userID, guestID *uint64) (repository.TicketDetail, error) {
	t, err := e.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return repository.TicketDetail{}, err
	}
	if userID != nil && (t.UserID == nil || *t.UserID != *userID) {
		return repository.TicketDetail{}, repository.ErrForbidden
	}
	if guestID != nil && (t.GuestID == nil || *t.GuestID != *guestID) {
		return repository.TicketDetail{}, repository.ErrForbidden
	}
	if t.Status != model.StatusReserved {
		return repository.TicketDetail{}, repository.ErrTicketNotReserved
	}
	if !t.Event.StartsAt.After(time.Now().UTC()) {
		return repository.TicketDetail{}, repository.ErrEventStarted
	}
	return e.tickets.Cancel(ctx, ticketID)
}

// RequestRefund files a refund request for a cancelled ticket.  At
// most one request may exist per ticket.  No ownership check is
// performed: the refund-request endpoint is public, so any caller who
// knows the ticket ID may file.
func (e *Engine) RequestRefund(ctx context.Context, ticketID uint64, reason *string) (model.RefundRequest, error) {
	t, err := e.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return model.RefundRequest{}, err
	}
	if t.Status != model.StatusCancelled {
		return model.RefundRequest{}, repository.ErrTicketNotCancelled
	}
	exists, err := e.refunds.ExistsForTicket(ctx, ticketID)
	if err != nil {
		return model.RefundRequest{}, err
	}
	if exists {
		return model.RefundRequest{}, repository.ErrRefundExists
	}
	return e.refunds.Create(ctx, ticketID, reason)
}

// ApproveRefund marks a pending refund request approved and moves the
// linked ticket to REFUNDED.  Approving twice fails with
// ErrRefundApproved.  Role gating is the API surface's concern.
func (e *Engine) ApproveRefund(ctx context.Context, requestID uint64) (repository.TicketDetail, error) {
	rr, err := e.refunds.GetByID(ctx, requestID)
	if err != nil {
		return repository.TicketDetail{}, err
	}
	if rr.Approved {
		return repository.TicketDetail{}, repository.ErrRefundApproved
	}
	return e.refunds.Approve(ctx, requestID)
}

// GetTicket returns a single ticket with event and seat.
func (e *Engine) GetTicket(ctx context.Context, id uint64) (repository.TicketDetail, error) {
	return e.tickets.GetByID(ctx, id)
}

// ListUserTickets returns a user's non-refunded tickets, newest first.
func (e *Engine) ListUserTickets(ctx context.Context, userID uint64) ([]repository.TicketDetail, error) {
	return e.tickets.ListByUser(ctx, userID)
}

// ListGuestTickets returns a guest's non-refunded tickets, newest first.
func (e *Engine) ListGuestTickets(ctx context.Context, guestID uint64) ([]repository.TicketDetail, error) {
	return e.tickets.ListByGuest(ctx, guestID)
}
