package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// RefundRepo stores refund requests and performs the approval
// transition.  Approval is the one operation here that spans two
// tables: flipping the request's approved flag and moving the linked
// ticket to REFUNDED happen in a single transaction so neither can be
// observed without the other.
type RefundRepo struct {
	db *sql.DB
}

// NewRefundRepo returns a new RefundRepo bound to the given database.
func NewRefundRepo(db *sql.DB) *RefundRepo { return &RefundRepo{db: db} }

func scanRefund(row *sql.Row) (model.RefundRequest, error) {
	var (
		rr         model.RefundRequest
		reason     sql.NullString
		approvedAt sql.NullTime
	)
	err := row.Scan(&rr.ID, &rr.TicketID, &reason, &rr.Approved, &rr.RequestedAt, &approvedAt)
	if err != nil {
		return model.RefundRequest{}, err
	}
	if reason.Valid {
		s := reason.String
		rr.Reason = &s
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		rr.ApprovedAt = &t
	}
	return rr, nil
}

// GetByID returns a refund request.  ErrRefundNotFound is returned
// when none exists.
func (r *RefundRepo) GetByID(ctx context.Context, id uint64) (model.RefundRequest, error) {
	const q = `SELECT id, ticket_id, reason, approved, requested_at, approved_at
	           FROM refund_requests WHERE id = ?`
	rr, err := scanRefund(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefundRequest{}, ErrRefundNotFound
	}
	return rr, err
}

// ExistsForTicket reports whether any refund request already
// references the ticket.
func (r *RefundRepo) ExistsForTicket(ctx context.Context, ticketID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM refund_requests WHERE ticket_id = ?)`, ticketID).Scan(&exists)
	return exists, err
}

// Create inserts a pending refund request for the ticket.  It is a
// single insert; duplicate prevention is the caller's existence check.
func (r *RefundRepo) Create(ctx context.Context, ticketID uint64, reason *string) (model.RefundRequest, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO refund_requests (ticket_id, reason, requested_at) VALUES (?, ?, ?)`,
		ticketID, reason, time.Now().UTC())
	if err != nil {
		return model.RefundRequest{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.RefundRequest{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Approve atomically marks the request approved and moves its ticket
// to REFUNDED.  The flag flip is conditional on approved = 0, so a
// second approval of the same request matches zero rows and returns
// ErrRefundApproved.  The updated ticket detail is returned.
func (r *RefundRepo) Approve(ctx context.Context, requestID uint64) (TicketDetail, error) {
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

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE refund_requests SET approved = 1, approved_at = ? WHERE id = ? AND approved = 0`,
		now, requestID)
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
			`SELECT EXISTS(SELECT 1 FROM refund_requests WHERE id = ?)`, requestID).Scan(&exists); err != nil {
			return TicketDetail{}, err
		}
		if !exists {
			return TicketDetail{}, ErrRefundNotFound
		}
		return TicketDetail{}, ErrRefundApproved
	}

	var ticketID uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT ticket_id FROM refund_requests WHERE id = ?`, requestID).Scan(&ticketID); err != nil {
		return TicketDetail{}, err
	}
	// The seat stays as-is: it was already freed when the ticket was
	// cancelled, which is the only path into a refund.
	if _, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = ?, refunded_at = ? WHERE id = ?`,
		model.StatusRefunded, now, ticketID); err != nil {
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

// PendingRefund is a refund request joined with its ticket, event and
// owner email for the administrator's review queue.
type PendingRefund struct {
	model.RefundRequest
	Ticket     TicketDetail `json:"ticket"`
	UserEmail  *string      `json:"user_email,omitempty"`
	GuestEmail *string      `json:"guest_email,omitempty"`
}

// ListPending returns all unapproved refund requests, oldest first,
// each joined with its ticket detail and the owner's email.
func (r *RefundRepo) ListPending(ctx context.Context) ([]PendingRefund, error) {
	const q = `SELECT rr.id, rr.ticket_id, rr.reason, rr.approved, rr.requested_at, rr.approved_at,
       t.id, t.event_id, t.seat_id, t.user_id, t.guest_id,
       t.status, t.reserved_at, t.cancelled_at, t.refunded_at,
       e.id, e.title, e.location, e.starts_at, e.ends_at, e.price_cents,
       s.id, s.seat_number, s.is_reserved,
       u.email, g.email
FROM refund_requests rr
JOIN tickets t ON t.id = rr.ticket_id
JOIN events e ON e.id = t.event_id
JOIN seats s ON s.id = t.seat_id
LEFT JOIN users u ON u.id = t.user_id
LEFT JOIN guests g ON g.id = t.guest_id
WHERE rr.approved = 0
ORDER BY rr.requested_at ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	pending := make([]PendingRefund, 0)
	for rows.Next() {
		var (
			p           PendingRefund
			reason      sql.NullString
			approvedAt  sql.NullTime
			userID      sql.NullInt64
			guestID     sql.NullInt64
			cancelledAt sql.NullTime
			refundedAt  sql.NullTime
			userEmail   sql.NullString
			guestEmail  sql.NullString
		)
		if err := rows.Scan(
			&p.ID, &p.TicketID, &reason, &p.Approved, &p.RequestedAt, &approvedAt,
			&p.Ticket.ID, &p.Ticket.EventID, &p.Ticket.SeatID, &userID, &guestID,
			&p.Ticket.Status, &p.Ticket.ReservedAt, &cancelledAt, &refundedAt,
			&p.Ticket.Event.ID, &p.Ticket.Event.Title, &p.Ticket.Event.Location,
			&p.Ticket.Event.StartsAt, &p.Ticket.Event.EndsAt, &p.Ticket.Event.PriceCents,
			&p.Ticket.Seat.ID, &p.Ticket.Seat.SeatNumber, &p.Ticket.Seat.IsReserved,
			&userEmail, &guestEmail,
		); err != nil {
			return nil, err
		}
		if reason.Valid {
			s := reason.String
			p.Reason = &s
		}
		if approvedAt.Valid {
			t := approvedAt.Time
			p.ApprovedAt = &t
		}
		if userID.Valid {
			uid := uint64(userID.Int64)
			p.Ticket.UserID = &uid
		}
		if guestID.Valid {
			gid := uint64(guestID.Int64)
			p.Ticket.GuestID = &gid
		}
		if cancelledAt.Valid {
			t := cancelledAt.Time
			p.Ticket.CancelledAt = &t
		}
		if refundedAt.Valid {
			t := refundedAt.Time
			p.Ticket.RefundedAt = &t
		}
		if userEmail.Valid {
			e := userEmail.String
			p.UserEmail = &e
		}
		if guestEmail.Valid {
			e := guestEmail.String
			p.GuestEmail = &e
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}
