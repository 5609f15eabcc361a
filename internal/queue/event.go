// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketReservedEvent is published after a booking commits.  It
// carries enough information for downstream consumers to log, notify,
// or feed analytics without querying the primary database.
type TicketReservedEvent struct {
	TicketID   uint64  `json:"ticket_id"`
	EventID    uint64  `json:"event_id"`
	EventTitle string  `json:"event_title"`
	Location   string  `json:"location"`
	StartsAt   string  `json:"starts_at"`
	SeatID     uint64  `json:"seat_id"`
	SeatNumber string  `json:"seat_number"`
	UserID     *uint64 `json:"user_id,omitempty"`
	GuestID    *uint64 `json:"guest_id,omitempty"`
	ReservedAt string  `json:"reserved_at"`
}
