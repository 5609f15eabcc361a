package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// EventRepo provides CRUD operations for events.  Events are created
// and maintained by administrators; the reservation engine only reads
// them.  All timestamp fields are stored in UTC.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying database handle so that callers can open
// transactions spanning multiple repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventCols = `id, title, description, location, starts_at, ends_at, price_cents, created_at, updated_at`

// EventInput carries the administrator-supplied fields for creating
// or updating an event.  Times must already be validated so that
// StartsAt precedes EndsAt.
type EventInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
	PriceCents  uint32
}

// Create inserts a new event and returns the stored row with
// generated ID and timestamps populated.
func (r *EventRepo) Create(ctx context.Context, in EventInput) (model.Event, error) {
	const q = `INSERT INTO events (title, description, location, starts_at, ends_at, price_cents)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		in.Title, in.Description, in.Location, in.StartsAt.UTC(), in.EndsAt.UTC(), in.PriceCents)
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID returns a single event.  ErrEventNotFound is returned when
// no event with the given ID exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE id = ?`
	var e model.Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.Title, &e.Description, &e.Location,
		&e.StartsAt, &e.EndsAt, &e.PriceCents, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return e, err
}

// List returns all events ordered by start time ascending.  When no
// events exist, an empty slice is returned.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location,
			&e.StartsAt, &e.EndsAt, &e.PriceCents, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update overwrites the mutable fields of an event.  ErrEventNotFound
// is returned when the event does not exist.  Changing starts_at after
// tickets exist is allowed; timing checks always read the current row.
func (r *EventRepo) Update(ctx context.Context, id uint64, in EventInput) (model.Event, error) {
	const q = `UPDATE events SET title = ?, description = ?, location = ?, starts_at = ?, ends_at = ?, price_cents = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		in.Title, in.Description, in.Location, in.StartsAt.UTC(), in.EndsAt.UTC(), in.PriceCents, id)
	if err != nil {
		return model.Event{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Event{}, err
	}
	if n == 0 {
		// Distinguish "missing" from "unchanged": an update with
		// identical values also affects zero rows on MySQL.
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.Event{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes an event.  ErrEventNotFound is returned when no row
// was deleted.  Seats and tickets referencing the event are removed by
// the schema's cascading foreign keys.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}
