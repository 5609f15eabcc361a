package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-booking/internal/model"
	"github.com/iliyamo/ticket-booking/internal/repository"
)

type mockEvents struct{ mock.Mock }

func (m *mockEvents) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *mockEvents) List(ctx context.Context) ([]model.Event, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Event), args.Error(1)
}

type mockSource struct{ mock.Mock }

func (m *mockSource) SeatCounts(ctx context.Context, eventID uint64) (repository.SeatCounts, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(repository.SeatCounts), args.Error(1)
}

func (m *mockSource) TicketCounts(ctx context.Context, eventID uint64) (repository.TicketCounts, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(repository.TicketCounts), args.Error(1)
}

func TestBuildEventStats(t *testing.T) {
	s := buildEventStats(
		repository.SeatCounts{Total: 100, Reserved: 25},
		repository.TicketCounts{Reserved: 25, Cancelled: 10, Refunded: 5},
	)
	assert.Equal(t, 100, s.TotalSeats)
	assert.Equal(t, 75, s.AvailableSeats)
	assert.Equal(t, 40, s.TotalTickets)
	assert.InDelta(t, 25.0, s.OccupancyRate, 1e-9)
}

func TestBuildEventStatsNoSeats(t *testing.T) {
	s := buildEventStats(repository.SeatCounts{}, repository.TicketCounts{})
	assert.Zero(t, s.OccupancyRate)
	assert.Zero(t, s.TotalTickets)
}

func TestSummarizeRates(t *testing.T) {
	reports := []EventReport{
		{Statistics: EventStats{ReservedTickets: 6, CancelledTickets: 3, RefundedTickets: 1}},
		{Statistics: EventStats{ReservedTickets: 4, CancelledTickets: 1, RefundedTickets: 1}},
	}
	sum := summarize(reports)
	assert.Equal(t, 2, sum.TotalEvents)
	assert.Equal(t, 16, sum.TotalTickets)
	assert.InDelta(t, 25.0, sum.CancellationRate, 1e-9) // 4 of 16
	assert.InDelta(t, 50.0, sum.RefundRate, 1e-9)       // 2 of 4 cancelled
}

func TestSummarizeZeroDenominators(t *testing.T) {
	// No tickets at all: both rates stay zero rather than dividing by zero.
	sum := summarize([]EventReport{{}, {}})
	assert.Zero(t, sum.CancellationRate)
	assert.Zero(t, sum.RefundRate)

	// Tickets but no cancellations: refund rate has no denominator.
	sum = summarize([]EventReport{{Statistics: EventStats{ReservedTickets: 5}}})
	assert.Zero(t, sum.RefundRate)
	assert.Zero(t, sum.CancellationRate)
}

func TestEventStatistics(t *testing.T) {
	events := new(mockEvents)
	source := new(mockSource)
	reader := NewReader(events, source)

	ev := model.Event{ID: 7, Title: "Jazz Night"}
	events.On("GetByID", mock.Anything, uint64(7)).Return(ev, nil)
	source.On("SeatCounts", mock.Anything, uint64(7)).Return(repository.SeatCounts{Total: 50, Reserved: 20}, nil)
	source.On("TicketCounts", mock.Anything, uint64(7)).Return(repository.TicketCounts{Reserved: 20, Cancelled: 4, Refunded: 2}, nil)

	report, err := reader.EventStatistics(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, ev, report.Event)
	assert.Equal(t, 30, report.Statistics.AvailableSeats)
	assert.InDelta(t, 40.0, report.Statistics.OccupancyRate, 1e-9)
}

func TestEventStatisticsUnknownEvent(t *testing.T) {
	events := new(mockEvents)
	source := new(mockSource)
	reader := NewReader(events, source)

	events.On("GetByID", mock.Anything, uint64(99)).Return(model.Event{}, repository.ErrEventNotFound)

	_, err := reader.EventStatistics(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
	source.AssertNotCalled(t, "SeatCounts", mock.Anything, mock.Anything)
}

func TestAllStatistics(t *testing.T) {
	events := new(mockEvents)
	source := new(mockSource)
	reader := NewReader(events, source)

	events.On("List", mock.Anything).Return([]model.Event{{ID: 1}, {ID: 2}}, nil)
	source.On("SeatCounts", mock.Anything, uint64(1)).Return(repository.SeatCounts{Total: 10, Reserved: 5}, nil)
	source.On("TicketCounts", mock.Anything, uint64(1)).Return(repository.TicketCounts{Reserved: 5, Cancelled: 2, Refunded: 1}, nil)
	source.On("SeatCounts", mock.Anything, uint64(2)).Return(repository.SeatCounts{Total: 20, Reserved: 0}, nil)
	source.On("TicketCounts", mock.Anything, uint64(2)).Return(repository.TicketCounts{}, nil)

	overview, err := reader.AllStatistics(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.Events, 2)
	assert.Equal(t, 2, overview.Summary.TotalEvents)
	assert.Equal(t, 8, overview.Summary.TotalTickets)
	assert.InDelta(t, 25.0, overview.Summary.CancellationRate, 1e-9)
	assert.InDelta(t, 50.0, overview.Summary.RefundRate, 1e-9)
}
