// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// reservation engine and handlers to distinguish between different
// failure scenarios without inspecting SQL error strings. The values
// fall into four families: not-found (entity absent), conflict
// (concurrent or duplicate claim on a unique resource), invalid state
// (operation not valid for the current lifecycle stage or timing) and
// forbidden (ownership mismatch).
package repository

import "errors"

// Not-found errors. Handlers translate these into HTTP 404 responses.
var (
	ErrEventNotFound  = errors.New("event not found")
	ErrSeatNotFound   = errors.New("seat not found")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrGuestNotFound  = errors.New("guest not found")
	ErrRefundNotFound = errors.New("refund request not found")
)

// Conflict errors. Handlers translate these into HTTP 409 responses.
var (
	// ErrSeatTaken is returned when a seat already carries a RESERVED
	// ticket. It is raised both by the engine's fast-fail check and by
	// the transactional compare-and-set on seats.is_reserved, which is
	// what actually serializes concurrent bookings of the same seat.
	ErrSeatTaken = errors.New("seat already reserved")

	// ErrRefundExists is returned when a refund request has already
	// been filed for the ticket.
	ErrRefundExists = errors.New("refund request already exists")

	// ErrEmailExists is returned when registering with an email that is
	// already taken.
	ErrEmailExists = errors.New("email already exists")
)

// Invalid-state errors. Handlers translate these into HTTP 400 responses.
var (
	// ErrEventStarted rejects booking or cancelling once the event's
	// start time has passed.
	ErrEventStarted = errors.New("event already started")

	// ErrTicketNotReserved rejects cancellation of a ticket that is no
	// longer in RESERVED state.
	ErrTicketNotReserved = errors.New("ticket already cancelled or refunded")

	// ErrTicketNotCancelled rejects a refund request for a ticket that
	// has not been cancelled first.
	ErrTicketNotCancelled = errors.New("only cancelled tickets can be refunded")

	// ErrRefundApproved rejects approving a refund request a second time.
	ErrRefundApproved = errors.New("refund request already approved")
)

// ErrForbidden is returned when the caller attempts an operation on a
// ticket they do not own. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")
