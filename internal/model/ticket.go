package model

import "time"

// TicketStatus enumerates the lifecycle states of a ticket.  The
// state machine only moves forward: RESERVED -> CANCELLED ->
// REFUNDED.  No transition returns a ticket to RESERVED and no
// transition skips CANCELLED.  This is the single canonical
// definition shared by every package; callers must not redeclare it.
type TicketStatus string

const (
	StatusReserved  TicketStatus = "RESERVED"  // initial state, seat is claimed
	StatusCancelled TicketStatus = "CANCELLED" // booking withdrawn, seat released
	StatusRefunded  TicketStatus = "REFUNDED"  // refund approved, terminal state
)

// Valid reports whether s is one of the known ticket statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusReserved, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the forward-only state machine
// permits moving from s to next.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	switch s {
	case StatusReserved:
		return next == StatusCancelled
	case StatusCancelled:
		return next == StatusRefunded
	}
	return false
}

// Ticket binds one seat to one owner for one event.  Exactly one of
// UserID and GuestID is set, never both and never neither.  Tickets
// are never deleted; their lifecycle is tracked through Status and
// the per-transition timestamps.
//
// Fields:
//  ID          – primary key identifier.
//  EventID     – event the ticket is for.
//  SeatID      – seat claimed by the ticket.
//  UserID      – owning user (nil for guest tickets).
//  GuestID     – owning guest (nil for member tickets).
//  Status      – current lifecycle state.
//  ReservedAt  – set when the ticket is created.
//  CancelledAt – set when the ticket is cancelled (nil before).
//  RefundedAt  – set when the refund is approved (nil before).
type Ticket struct {
	ID          uint64       `json:"id"`                     // tickets.id
	EventID     uint64       `json:"event_id"`               // tickets.event_id
	SeatID      uint64       `json:"seat_id"`                // tickets.seat_id
	UserID      *uint64      `json:"user_id,omitempty"`      // tickets.user_id (nullable)
	GuestID     *uint64      `json:"guest_id,omitempty"`     // tickets.guest_id (nullable)
	Status      TicketStatus `json:"status"`                 // tickets.status
	ReservedAt  time.Time    `json:"reserved_at"`            // tickets.reserved_at
	CancelledAt *time.Time   `json:"cancelled_at,omitempty"` // tickets.cancelled_at (nullable)
	RefundedAt  *time.Time   `json:"refunded_at,omitempty"`  // tickets.refunded_at (nullable)
}
