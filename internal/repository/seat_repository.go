package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// SeatRepo provides read and bulk-create access to seats.  The
// is_reserved flag is deliberately not writable here: it is flipped
// only inside the ticket repository's transactions so that the seat
// and its ticket can never disagree.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// GetByID returns a single seat.  ErrSeatNotFound is returned when no
// seat with the given ID exists.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (model.Seat, error) {
	const q = `SELECT id, event_id, seat_number, is_reserved, created_at FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.EventID, &s.SeatNumber, &s.IsReserved, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Seat{}, ErrSeatNotFound
	}
	return s, err
}

// ListByEvent returns all seats belonging to an event ordered by seat
// number.  When the event has no seats, an empty slice is returned.
func (r *SeatRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Seat, error) {
	const q = `SELECT id, event_id, seat_number, is_reserved, created_at
	           FROM seats WHERE event_id = ? ORDER BY seat_number ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.SeatNumber, &s.IsReserved, &s.CreatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// CreateBulk inserts seats for an event in a single statement.  It is
// used at event-setup time.  Passing an empty slice has no effect and
// returns nil.  A duplicate seat number within the event surfaces the
// driver's unique-constraint error unchanged.
func (r *SeatRepo) CreateBulk(ctx context.Context, eventID uint64, seatNumbers []string) error {
	if len(seatNumbers) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (event_id, seat_number) VALUES `)
	args := make([]interface{}, 0, len(seatNumbers)*2)
	for i, num := range seatNumbers {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?)")
		args = append(args, eventID, num)
	}
	_, err := r.db.ExecContext(ctx, b.String(), args...)
	return err
}
