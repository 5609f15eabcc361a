package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/ticket-booking/internal/model"
)

// StatsRepo runs the aggregate queries behind the admin statistics
// endpoints.  It is read-only; consistency beyond a single query is
// not required for reporting.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo returns a new StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// SeatCounts holds per-event seat totals.
type SeatCounts struct {
	Total    int `json:"total_seats"`
	Reserved int `json:"reserved_seats"`
}

// TicketCounts holds per-event ticket totals broken down by status.
type TicketCounts struct {
	Reserved  int `json:"reserved_tickets"`
	Cancelled int `json:"cancelled_tickets"`
	Refunded  int `json:"refunded_tickets"`
}

// SeatCounts returns the total and currently reserved seat counts for
// an event.  An event with no seats yields zeros, not an error.
func (r *StatsRepo) SeatCounts(ctx context.Context, eventID uint64) (SeatCounts, error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(is_reserved), 0) FROM seats WHERE event_id = ?`
	var sc SeatCounts
	err := r.db.QueryRowContext(ctx, q, eventID).Scan(&sc.Total, &sc.Reserved)
	return sc, err
}

// TicketCounts returns the per-status ticket counts for an event in a
// single grouped query.
func (r *StatsRepo) TicketCounts(ctx context.Context, eventID uint64) (TicketCounts, error) {
	const q = `SELECT status, COUNT(*) FROM tickets WHERE event_id = ? GROUP BY status`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return TicketCounts{}, err
	}
	defer rows.Close()
	var tc TicketCounts
	for rows.Next() {
		var status model.TicketStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return TicketCounts{}, err
		}
		switch status {
		case model.StatusReserved:
			tc.Reserved = n
		case model.StatusCancelled:
			tc.Cancelled = n
		case model.StatusRefunded:
			tc.Refunded = n
		}
	}
	return tc, rows.Err()
}
