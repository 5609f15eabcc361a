package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// TicketRepo owns the ticket lifecycle writes.  Every mutation that
// touches a ticket's status also touches its seat's is_reserved flag
// (or deliberately leaves it alone), and the two writes always share
// one transaction.  The conditional UPDATEs double as the concurrency
// backstop: when two requests race on the same row, the second one
// matches zero rows and the operation reports the conflict instead of
// committing a duplicate claim.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying database handle.
func (r *TicketRepo) DB() *sql.DB { return r.db }

// TicketOwner identifies who a ticket is being created for.  Exactly
// one of the two fields must be set.
type TicketOwner struct {
	UserID  *uint64
	GuestID *uint64
}

// TicketEvent is the event slice embedded in a ticket detail.
type TicketEvent struct {
	ID         uint64    `json:"id"`
	Title      string    `json:"title"`
	Location   string    `json:"location"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	PriceCents uint32    `json:"price_cents"`
}

// TicketSeat is the seat slice embedded in a ticket detail.
type TicketSeat struct {
	ID         uint64 `json:"id"`
	SeatNumber string `json:"seat_number"`
	IsReserved bool   `json:"is_reserved"`
}

// TicketDetail is a ticket joined with its event and seat.  It is the
// shape returned to API callers after every engine operation.
type TicketDetail struct {
	ID          uint64             `json:"id"`
	EventID     uint64             `json:"event_id"`
	SeatID      uint64             `json:"seat_id"`
	UserID      *uint64            `json:"user_id,omitempty"`
	GuestID     *uint64            `json:"guest_id,omitempty"`
	Status      model.TicketStatus `json:"status"`
	ReservedAt  time.Time          `json:"reserved_at"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty"`
	RefundedAt  *time.Time         `json:"refunded_at,omitempty"`
	Event       TicketEvent        `json:"event"`
	Seat        TicketSeat         `json:"seat"`
}

const ticketDetailQuery = `SELECT t.id, t.event_id, t.seat_id, t.user_id, t.guest_id,
       t.status, t.reserved_at, t.cancelled_at, t.refunded_at,
       e.id, e.title, e.location, e.starts_at, e.ends_at, e.price_cents,
       s.id, s.seat_number, s.is_reserved
FROM tickets t
JOIN events e ON e.id = t.event_id
JOIN seats s ON s.id = t.seat_id`

// queryRower is satisfied by both *sql.DB and *sql.Tx so detail rows
// can be loaded inside or outside a transaction.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanTicketDetail(row *sql.Row) (TicketDetail, error) {
	var (
		d           TicketDetail
		userID      sql.NullInt64
		guestID     sql.NullInt64
		cancelledAt sql.NullTime
		refundedAt  sql.NullTime
	)
	err := row.Scan(
		&d.ID, &d.EventID, &d.SeatID, &userID, &guestID,
		&d.Status, &d.ReservedAt, &cancelledAt, &refundedAt,
		&d.Event.ID, &d.Event.Title, &d.Event.Location, &d.Event.StartsAt, &d.Event.EndsAt, &d.Event.PriceCents,
		&d.Seat.ID, &d.Seat.SeatNumber, &d.Seat.IsReserved,
	)
	if err != nil {
		return TicketDetail{}, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		d.UserID = &uid
	}
	if guestID.Valid {
		gid := uint64(guestID.Int64)
		d.GuestID = &gid
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		d.CancelledAt = &t
	}
	if refundedAt.Valid {
		t := refundedAt.Time
		d.RefundedAt = &t
	}
	return d, nil
}

func getDetail(ctx context.Context, q queryRower, ticketID uint64) (TicketDetail, error) {
	d, err := scanTicketDetail(q.QueryRowContext(ctx, ticketDetailQuery+` WHERE t.id = ?`, ticketID))
	if errors.Is(err, sql.ErrNoRows) {
		return TicketDetail{}, ErrTicketNotFound
	}
	return d, err
}

// GetByID returns a ticket joined with its event and seat.
// ErrTicketNotFound is returned when the ticket does not exist.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (TicketDetail, error) {
	return getDetail(ctx, r.db, id)
}

// CreateReserved atomically claims a seat and creates its RESERVED
// ticket.  The seat flip is a compare-and-set: the UPDATE only matches
// when is_reserved is still false, so of any number of concurrent
// callers targeting the same seat exactly one commits and the rest get
// ErrSeatTaken.  The inserted ticket carries the owner from the given
// TicketOwner; exactly one of its fields must be set.
func (r *TicketRepo) CreateReserved(ctx context.Context, owner TicketOwner, eventID, seatID uint64) (TicketDetail, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return TicketDetail{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE seats SET is_reserved = 1 WHERE id = ? AND is_reserved = 0`, seatID)
	if err != nil {
		return TicketDetail{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return TicketDetail{}, err
	}
	if n == 0 {
		// Either the seat vanished or another booking won the race.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM seats WHERE id = ?)`, seatID).Scan(&exists); err != nil {
			return TicketDetail{}, err
		}
		if !exists {
			return TicketDetail{}, ErrSeatNotFound
		}
		return TicketDetail{}, ErrSeatTaken
	}

	reservedAt := time.Now().UTC()
	ins, err := tx.ExecContext(ctx,
		`INSERT INTO tickets (event_id, seat_id, user_id, guest_id, status, reserved_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		eventID, seatID, owner.UserID, owner.GuestID, model.StatusReserved, reservedAt)
	if err != nil {
		return TicketDetail{}, err
	}
	ticketID, err := ins.LastInsertId()
	if err != nil {
		return TicketDetail{}, err
	}

	detail, err := getDetail(ctx, tx, uint64(ticketID))
	if err != nil {
		return TicketDetail{}, err
	}
	if err := tx.Commit(); err != nil {
		return TicketDetail{}, err
	}
	committed = true
	return detail, nil
}

// Cancel atomically moves a RESERVED ticket to CANCELLED and frees its
// seat.  The status flip is conditional on the current status, so two
// concurrent cancels of the same ticket produce exactly one success;
// the loser observes the committed CANCELLED row and gets
// ErrTicketNotReserved.
func (r *TicketRepo) Cancel(ctx context.Context, ticketID uint64) (TicketDetail, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return TicketDetail{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cancelledAt := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = ?, cancelled_at = ? WHERE id = ? AND status = ?`,
		model.StatusCancelled, cancelledAt, ticketID, model.StatusReserved)
	if err != nil {
		return TicketDetail{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return TicketDetail{}, err
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM tickets WHERE id = ?)`, ticketID).Scan(&exists); err != nil {
			return TicketDetail{}, err
		}
		if !exists {
			return TicketDetail{}, ErrTicketNotFound
		}
		return TicketDetail{}, ErrTicketNotReserved
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE seats SET is_reserved = 0 WHERE id = (SELECT seat_id FROM tickets WHERE id = ?)`,
		ticketID); err != nil {
		return TicketDetail{}, err
	}

	detail, err := getDetail(ctx, tx, ticketID)
	if err != nil {
		return TicketDetail{}, err
	}
	if err := tx.Commit(); err != nil {
		return TicketDetail{}, err
	}
	committed = true
	return detail, nil
}

func (r *TicketRepo) listByOwner(ctx context.Context, column string, ownerID uint64) ([]TicketDetail, error) {
	// Refunded tickets are hidden from the owner's list; that matches
	// the behavior the frontend was built against.
	q := ticketDetailQuery + ` WHERE t.` + column + ` = ? AND t.status <> ? ORDER BY t.reserved_at DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID, model.StatusRefunded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]TicketDetail, 0)
	for rows.Next() {
		var (
			d           TicketDetail
			userID      sql.NullInt64
			guestID     sql.NullInt64
			cancelledAt sql.NullTime
			refundedAt  sql.NullTime
		)
		if err := rows.Scan(
			&d.ID, &d.EventID, &d.SeatID, &userID, &guestID,
			&d.Status, &d.ReservedAt, &cancelledAt, &refundedAt,
			&d.Event.ID, &d.Event.Title, &d.Event.Location, &d.Event.StartsAt, &d.Event.EndsAt, &d.Event.PriceCents,
			&d.Seat.ID, &d.Seat.SeatNumber, &d.Seat.IsReserved,
		); err != nil {
			return nil, err
		}
		if userID.Valid {
			uid := uint64(userID.Int64)
			d.UserID = &uid
		}
		if guestID.Valid {
			gid := uint64(guestID.Int64)
			d.GuestID = &gid
		}
		if cancelledAt.Valid {
			t := cancelledAt.Time
			d.CancelledAt = &t
		}
		if refundedAt.Valid {
			t := refundedAt.Time
			d.RefundedAt = &t
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// ListByUser returns a user's non-refunded tickets, newest first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketDetail, error) {
	return r.listByOwner(ctx, "user_id", userID)
}

// ListByGuest returns a guest's non-refunded tickets, newest first.
func (r *TicketRepo) ListByGuest(ctx context.Context, guestID uint64) ([]TicketDetail, error) {
	return r.listByOwner(ctx, "guest_id", guestID)
}

// AdminTicket extends TicketDetail with the owner's email for the
// administrator's ticket listing.
type AdminTicket struct {
	TicketDetail
	UserEmail  *string `json:"user_email,omitempty"`
	GuestEmail *string `json:"guest_email,omitempty"`
}

// ListAll returns one page of tickets across all owners, newest first,
// optionally filtered by status, together with the total row count for
// pagination.  Page numbering starts at 1.
func (r *TicketRepo) ListAll(ctx context.Context, page, limit int, status *model.TicketStatus) ([]AdminTicket, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	where := ""
	args := make([]interface{}, 0, 3)
	if status != nil {
		where = ` WHERE t.status = ?`
		args = append(args, *status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets t`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	const adminQuery = `SELECT t.id, t.event_id, t.seat_id, t.user_id, t.guest_id,
       t.status, t.reserved_at, t.cancelled_at, t.refunded_at,
       e.id, e.title, e.location, e.starts_at, e.ends_at, e.price_cents,
       s.id, s.seat_number, s.is_reserved,
       u.email, g.email
FROM tickets t
JOIN events e ON e.id = t.event_id
JOIN seats s ON s.id = t.seat_id
LEFT JOIN users u ON u.id = t.user_id
LEFT JOIN guests g ON g.id = t.guest_id`
	q := adminQuery + where + ` ORDER BY t.reserved_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	tickets := make([]AdminTicket, 0)
	for rows.Next() {
		var (
			a           AdminTicket
			userID      sql.NullInt64
			guestID     sql.NullInt64
			cancelledAt sql.NullTime
			refundedAt  sql.NullTime
			userEmail   sql.NullString
			guestEmail  sql.NullString
		)
		if err := rows.Scan(
			&a.ID, &a.EventID, &a.SeatID, &userID, &guestID,
			&a.Status, &a.ReservedAt, &cancelledAt, &refundedAt,
			&a.Event.ID, &a.Event.Title, &a.Event.Location, &a.Event.StartsAt, &a.Event.EndsAt, &a.Event.PriceCents,
			&a.Seat.ID, &a.Seat.SeatNumber, &a.Seat.IsReserved,
			&userEmail, &guestEmail,
		); err != nil {
			return nil, 0, err
		}
		if userID.Valid {
			uid := uint64(userID.Int64)
			a.UserID = &uid
		}
		if guestID.Valid {
			gid := uint64(guestID.Int64)
			a.GuestID = &gid
		}
		if cancelledAt.Valid {
			t := cancelledAt.Time
			a.CancelledAt = &t
		}
		if refundedAt.Valid {
			t := refundedAt.Time
			a.RefundedAt = &t
		}
		if userEmail.Valid {
			e := userEmail.String
			a.UserEmail = &e
		}
		if guestEmail.Valid {
			e := guestEmail.String
			a.GuestEmail = &e
		}
		tickets = append(tickets, a)
	}
	return tickets, total, rows.Err()
}
