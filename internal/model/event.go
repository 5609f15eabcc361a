package model

import "time"

// Event represents a performance or showing that tickets can be
// booked for.  Events are created and maintained by administrators
// and own a fixed set of seats.  This struct corresponds to a row
// in the `events` table.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title of the event.
//  Description – longer free-text description.
//  Location    – venue name.
//  StartsAt    – when the event begins (must precede EndsAt).
//  EndsAt      – when the event ends.
//  PriceCents  – informational base price in cents.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
	ID          uint64    `json:"id"`          // events.id
	Title       string    `json:"title"`       // events.title
	Description string    `json:"description"` // events.description
	Location    string    `json:"location"`    // events.location
	StartsAt    time.Time `json:"starts_at"`   // events.starts_at
	EndsAt      time.Time `json:"ends_at"`     // events.ends_at
	PriceCents  uint32    `json:"price_cents"` // events.price_cents
	CreatedAt   time.Time `json:"created_at"`  // events.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // events.updated_at
}

// HasStarted reports whether the event has already begun at the
// given instant.  Booking and cancellation are only permitted while
// this returns false.
func (e Event) HasStarted(now time.Time) bool {
	return !e.StartsAt.After(now)
}
