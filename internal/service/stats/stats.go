// Package stats aggregates ticket and seat counts into the admin
// reporting views.  It is purely read-side: counts come from the
// storage layer and the rates are computed here, so the arithmetic
// can be tested without a database.
package stats

import (
	"context"

	"github.com/iliyamo/ticket-booking/internal/model"
	"github.com/iliyamo/ticket-booking/internal/repository"
)

// Source provides the raw counts the reader aggregates.
type Source interface {
	SeatCounts(ctx context.Context, eventID uint64) (repository.SeatCounts, error)
	TicketCounts(ctx context.Context, eventID uint64) (repository.TicketCounts, error)
}

// EventLister enumerates events for the cross-event summary.
type EventLister interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
}

// EventStats is the per-event report: seat occupancy plus ticket
// counts per lifecycle state.
type EventStats struct {
	TotalSeats       int     `json:"total_seats"`
	AvailableSeats   int     `json:"available_seats"`
	ReservedTickets  int     `json:"reserved_tickets"`
	CancelledTickets int     `json:"cancelled_tickets"`
	RefundedTickets  int     `json:"refunded_tickets"`
	TotalTickets     int     `json:"total_tickets"`
	OccupancyRate    float64 `json:"occupancy_rate"`
}

// EventReport pairs an event with its statistics.
type EventReport struct {
	Event      model.Event `json:"event"`
	Statistics EventStats  `json:"statistics"`
}

// Summary is the cross-event rollup.
type Summary struct {
	TotalEvents           int     `json:"total_events"`
	TotalReservedTickets  int     `json:"total_reserved_tickets"`
	TotalCancelledTickets int     `json:"total_cancelled_tickets"`
	TotalRefundedTickets  int     `json:"total_refunded_tickets"`
	TotalTickets          int     `json:"total_tickets"`
	CancellationRate      float64 `json:"cancellation_rate"`
	RefundRate            float64 `json:"refund_rate"`
}

// Overview is the full cross-event report returned to administrators.
type Overview struct {
	Events  []EventReport `json:"events"`
	Summary Summary       `json:"summary"`
}

// Reader computes reporting views over the catalog and ticket data.
type Reader struct {
	events EventLister
	source Source
}

// NewReader constructs a Reader.  Both dependencies must be non-nil.
func NewReader(events EventLister, source Source) *Reader {
	if events == nil || source == nil {
		panic("nil dependency passed to stats.NewReader")
	}
	return &Reader{events: events, source: source}
}

// buildEventStats folds raw counts into a per-event report.  The
// occupancy rate is zero for an event without seats.
func buildEventStats(sc repository.SeatCounts, tc repository.TicketCounts) EventStats {
	s := EventStats{
		TotalSeats:       sc.Total,
		AvailableSeats:   sc.Total - sc.Reserved,
		ReservedTickets:  tc.Reserved,
		CancelledTickets: tc.Cancelled,
		RefundedTickets:  tc.Refunded,
		TotalTickets:     tc.Reserved + tc.Cancelled + tc.Refunded,
	}
	if sc.Total > 0 {
		s.OccupancyRate = float64(sc.Reserved) / float64(sc.Total) * 100
	}
	return s
}

// summarize rolls per-event reports up into the cross-event summary.
// Cancellation rate is cancelled over all tickets; refund rate is
// refunded over cancelled.  Both are zero when their denominator is.
func summarize(reports []EventReport) Summary {
	sum := Summary{TotalEvents: len(reports)}
	for _, r := range reports {
		sum.TotalReservedTickets += r.Statistics.ReservedTickets
		sum.TotalCancelledTickets += r.Statistics.CancelledTickets
		sum.TotalRefundedTickets += r.Statistics.RefundedTickets
	}
	sum.TotalTickets = sum.TotalReservedTickets + sum.TotalCancelledTickets + sum.TotalRefundedTickets
	if sum.TotalTickets > 0 {
		sum.CancellationRate = float64(sum.TotalCancelledTickets) / float64(sum.TotalTickets) * 100
	}
	if sum.TotalCancelledTickets > 0 {
		sum.RefundRate = float64(sum.TotalRefundedTickets) / float64(sum.TotalCancelledTickets) * 100
	}
	return sum
}

// EventStatistics returns the report for a single event.
// repository.ErrEventNotFound is passed through when the event does
// not exist.
func (r *Reader) EventStatistics(ctx context.Context, eventID uint64) (EventReport, error) {
	ev, err := r.events.GetByID(ctx, eventID)
	if err != nil {
		return EventReport{}, err
	}
	sc, err := r.source.SeatCounts(ctx, eventID)
	if err != nil {
		return EventReport{}, err
	}
	tc, err := r.source.TicketCounts(ctx, eventID)
	if err != nil {
		return EventReport{}, err
	}
	return EventReport{Event: ev, Statistics: buildEventStats(sc, tc)}, nil
}

// AllStatistics returns per-event reports for every event plus the
// cross-event summary.
func (r *Reader) AllStatistics(ctx context.Context) (Overview, error) {
	events, err := r.events.List(ctx)
	if err != nil {
		return Overview{}, err
	}
	reports := make([]EventReport, 0, len(events))
	for _, ev := range events {
		sc, err := r.source.SeatCounts(ctx, ev.ID)
		if err != nil {
			return Overview{}, err
		}
		tc, err := r.source.TicketCounts(ctx, ev.ID)
		if err != nil {
			return Overview{}, err
		}
		reports = append(reports, EventReport{Event: ev, Statistics: buildEventStats(sc, tc)})
	}
	return Overview{Events: reports, Summary: summarize(reports)}, nil
}
