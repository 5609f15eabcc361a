package model

import "time"

// Seat describes one bookable unit belonging to exactly one event.
// Seats are created in bulk when an event is set up.  The IsReserved
// flag is mutated only by the reservation engine as part of the same
// transaction that creates or cancels the referencing ticket, so a
// seat is reserved if and only if exactly one RESERVED ticket points
// at it.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – event to which this seat belongs.
//  SeatNumber – human-readable label, unique within an event.
//  IsReserved – whether a RESERVED ticket currently claims this seat.
//  CreatedAt  – creation timestamp.
type Seat struct {
	ID         uint64    `json:"id"`          // seats.id
	EventID    uint64    `json:"event_id"`    // seats.event_id
	SeatNumber string    `json:"seat_number"` // seats.seat_number
	IsReserved bool      `json:"is_reserved"` // seats.is_reserved
	CreatedAt  time.Time `json:"created_at"`  // seats.created_at
}
