package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-booking/internal/model"
	"github.com/iliyamo/ticket-booking/internal/repository"
)

// ----- testify mocks for the engine's storage interfaces -----

type mockEvents struct{ mock.Mock }

func (m *mockEvents) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Event), args.Error(1)
}

type mockSeats struct{ mock.Mock }

func (m *mockSeats) GetByID(ctx context.Context, id uint64) (model.Seat, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Seat), args.Error(1)
}

type mockGuests struct{ mock.Mock }

func (m *mockGuests) FindByEmail(ctx context.Context, email string) (model.Guest, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Guest), args.Error(1)
}

func (m *mockGuests) Create(ctx context.Context, email, verificationCode string) (model.Guest, error) {
	args := m.Called(ctx, email, verificationCode)
	return args.Get(0).(model.Guest), args.Error(1)
}

type mockTickets struct{ mock.Mock }

func (m *mockTickets) GetByID(ctx context.Context, id uint64) (repository.TicketDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(repository.TicketDetail), args.Error(1)
}

func (m *mockTickets) CreateReserved(ctx context.Context, owner repository.TicketOwner, eventID, seatID uint64) (repository.TicketDetail, error) {
	args := m.Called(ctx, owner, eventID, seatID)
	return args.Get(0).(repository.TicketDetail), args.Error(1)
}

func (m *mockTickets) Cancel(ctx context.Context, ticketID uint64) (repository.TicketDetail, error) {
	args := m.Called(ctx, ticketID)
	return args.Get(0).(repository.TicketDetail), args.Error(1)
}

func (m *mockTickets) ListByUser(ctx context.Context, userID uint64) ([]repository.TicketDetail, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]repository.TicketDetail), args.Error(1)
}

func (m *mockTickets) ListByGuest(ctx context.Context, guestID uint64) ([]repository.TicketDetail, error) {
	args := m.Called(ctx, guestID)
	return args.Get(0).([]repository.TicketDetail), args.Error(1)
}

type mockRefunds struct{ mock.Mock }

func (m *mockRefunds) GetByID(ctx context.Context, id uint64) (model.RefundRequest, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.RefundRequest), args.Error(1)
}

func (m *mockRefunds) ExistsForTicket(ctx context.Context, ticketID uint64) (bool, error) {
	args := m.Called(ctx, ticketID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRefunds) Create(ctx context.Context, ticketID uint64, reason *string) (model.RefundRequest, error) {
	args := m.Called(ctx, ticketID, reason)
	return args.Get(0).(model.RefundRequest), args.Error(1)
}

func (m *mockRefunds) Approve(ctx context.Context, requestID uint64) (repository.TicketDetail, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(repository.TicketDetail), args.Error(1)
}

type fixtures struct {
	events  *mockEvents
	seats   *mockSeats
	guests  *mockGuests
	tickets *mockTickets
	refunds *mockRefunds
	engine  *Engine
}

func newFixtures() *fixtures {
	f := &fixtures{
		events:  new(mockEvents),
		seats:   new(mockSeats),
		guests:  new(mockGuests),
		tickets: new(mockTickets),
		refunds: new(mockRefunds),
	}
	f.engine = New(f.events, f.seats, f.guests, f.tickets, f.refunds)
	return f
}

func futureEvent(id uint64) model.Event {
	return model.Event{ID: id, Title: "Concert", StartsAt: time.Now().UTC().Add(24 * time.Hour)}
}

func startedEvent(id uint64) model.Event {
	return model.Event{ID: id, Title: "Concert", StartsAt: time.Now().UTC().Add(-time.Hour)}
}

func ptr(v uint64) *uint64 { return &v }

// ----- booking -----

func TestCreateTicket(t *testing.T) {
	f := newFixtures()
	f.events.On("GetByID", mock.Anything, uint64(1)).Return(futureEvent(1), nil)
	f.seats.On("GetByID", mock.Anything, uint64(2)).Return(model.Seat{ID: 2, EventID: 1}, nil)

	want := repository.TicketDetail{ID: 10, EventID: 1, SeatID: 2, UserID: ptr(5), Status: model.StatusReserved}
	f.tickets.On("CreateReserved", mock.Anything, repository.TicketOwner{UserID: ptr(5)}, uint64(1), uint64(2)).
		Return(want, nil)

	got, err := f.engine.CreateTicket(context.Background(), 5, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCreateTicketEventMissing(t *testing.T) {
	f := newFixtures()
	f.events.On("GetByID", mock.Anything, uint64(1)).Return(model.Event{}, repository.ErrEventNotFound)

	_, err := f.engine.CreateTicket(context.Background(), 5, 1, 2)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
	f.tickets.AssertNotCalled(t, "CreateReserved", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTicketSeatMissing(t *testing.T) {
	f := newFixtures()
	f.events.On("GetByID", mock.Anything, uint64(1)).Return(futureEvent(1), nil)
	f.seats.On("GetByID", mock.Anything, uint64(2)).Return(model.Seat{}, repository.ErrSeatNotFound)

	_, err := f.engine.CreateTicket(context.Background(), 5, 1, 2)
	assert.ErrorIs(t, err, repository.ErrSeatNotFound)
}

func TestCreateTicketSeatTaken(t *testing.T) {
	f := newFixtures()
	f.events.On("GetByID", mock.Anything, uint64(1)).Return(futureEvent(1), nil)
	f.seats.On("GetByID", mock.Anything, uint64(2)).Return(model.Seat{ID: 2, IsReserved: true}, nil)

	_, err := f.engine.CreateTicket(context.Background(), 5, 1, 2)
	assert.ErrorIs(t, err, repository.ErrSeatTaken)
	f.tickets.AssertNotCalled(t, "CreateReserved", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTicketEventStarted(t *testing.T) {
	f := newFixtures()
	f.events.On("GetByID", mock.Anything, uint64(1)).Return(startedEvent(1), nil)
	f.seats.On("GetByID", mock.Anything, uint64(2)).Return(model.Seat{ID: 2}, nil)

	_, err := f.engine.CreateTicket(context.Background(), 5, 1, 2)
	assert.ErrorIs(t, err, repository.ErrEventStarted)
}

// The free-seat pre-check is advisory; the storage layer's
// compare-and-set has the final word and its conflict must surface.
func TestCreateTicketLostRace(t *testing.T) {
	f := newFixtures()
	f.events.On("GetByID", mock.Anything, uint64(1)).Return(futureEvent(1), nil)
	f.seats.On("GetByID", mock.Anything, uint64(2)).Return(model.Seat{ID: 2}, nil)
	f.tickets.On("CreateReserved", mock.Anything, mock.Anything, uint64(1), uint64(2)).
		Return(repository.TicketDetail{}, repository.ErrSeatTaken)

	_, err := f.engine.CreateTicket(context.Background(), 5, 1, 2)
	assert.ErrorIs(t, err, repository.ErrSeatTaken)
}

// ----- guest booking -----

func TestCreateGuestTicketExistingGuest(t *testing.T) {
	f := newFixtures()
	f.guests.On("FindByEmail", mock.Anything, "guest@example.com").
		Return(model.Guest{ID: 3, Email: "guest@example.com"}, nil)
	f.events.On("GetByID", mock.Anything, uint64(1)).Return(futureEvent(1), nil)
	f.seats.On("GetByID", mock.Anything, uint64(2)).Return(model.Seat{ID: 2}, nil)

	want := repository.TicketDetail{ID: 11, GuestID: ptr(3), Status: model.StatusReserved}
	f.tickets.On("CreateReserved", mock.Anything, repository.TicketOwner{GuestID: ptr(3)}, uint64(1), uint64(2)).
		Return(want, nil)

	got, err := f.engine.CreateGuestTicket(context.Background(), "  Guest@Example.COM ", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	f.guests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateGuestTicketNewGuest(t *testing.T) {
	f := newFixtures()
	f.guests.On("FindByEmail", mock.Anything, "new@example.com").
		Return(model.Guest{}, repository.ErrGuestNotFound)
	f.guests.On("Create", mock.Anything, "new@example.com", mock.MatchedBy(func(code string) bool {
		return len(code) == 6
	})).Return(model.Guest{ID: 9, Email: "new@example.com"}, nil)
	f.events.On("GetByID", mock.Anything, uint64(1)).Return(futureEvent(1), nil)
	f.seats.On("GetByID", mock.Anything, uint64(2)).Return(model.Seat{ID: 2}, nil)

	want := repository.TicketDetail{ID: 12, GuestID: ptr(9), Status: model.StatusReserved}
	f.tickets.On("CreateReserved", mock.Anything, repository.TicketOwner{GuestID: ptr(9)}, uint64(1), uint64(2)).
		Return(want, nil)

	got, err := f.engine.CreateGuestTicket(context.Background(), "new@example.com", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// ----- cancellation -----

func reservedDetail(id uint64, owner repository.TicketOwner) repository.TicketDetail {
	return repository.TicketDetail{
		ID:      id,
		EventID: 1,
		SeatID:  2,
		UserID:  owner.UserID,
		GuestID: owner.GuestID,
		Status:  model.StatusReserved,
		Event:   repository.TicketEvent{ID: 1, StartsAt: time.Now().UTC().Add(24 * time.Hour)},
	}
}

func TestCancelTicketOwner(t *testing.T) {
	f := newFixtures()
	detail := reservedDetail(10, repository.TicketOwner{UserID: ptr(5)})
	f.tickets.On("GetByID", mock.Anything, uint64(10)).Return(detail, nil)

	cancelled := detail
	cancelled.Status = model.StatusCancelled
	f.tickets.On("Cancel", mock.Anything, uint64(10)).Return(cancelled, nil)

	got, err := f.engine.CancelTicket(context.Background(), 10, ptr(5), nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
}

func TestCancelTicketWrongUser(t *testing.T) {
	f := newFixtures()
	f.tickets.On("GetByID", mock.Anything, uint64(10)).
		Return(reservedDetail(10, repository.TicketOwner{UserID: ptr(5)}), nil)

	_, err := f.engine.CancelTicket(context.Background(), 10, ptr(6), nil)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	f.tickets.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestCancelTicketUserOnGuestTicket(t *testing.T) {
	f := newFixtures()
	f.tickets.On("GetByID", mock.Anything, uint64(10)).
		Return(reservedDetail(10, repository.TicketOwner{GuestID: ptr(3)}), nil)

	_, err := f.engine.CancelTicket(context.Background(), 10, ptr(5), nil)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestCancelTicketWrongGuest(t *testing.T) {
	f := newFixtures()
	f.tickets.On("GetByID", mock.Anything, uint64(10)).
		Return(reservedDetail(10, repository.TicketOwner{GuestID: ptr(3)}), nil)

	_, err := f.engine.CancelTicket(context.Background(), 10, nil, ptr(4))
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestCancelTicketNotReserved(t *testing.T) {
	f := newFixtures()
	detail := reservedDetail(10, repository.TicketOwner{UserID: ptr(5)})
	detail.Status = model.StatusCancelled
	f.tickets.On("GetByID", mock.Anything, uint64(10)).Return(detail, nil)

	_, err := f.engine.CancelTicket(context.Background(), 10, ptr(5), nil)
	assert.ErrorIs(t, err, repository.ErrTicketNotReserved)
}

func TestCancelTicketEventStarted(t *testing.T) {
	f := newFixtures()
	detail := reservedDetail(10, repository.TicketOwner{UserID: ptr(5)})
	detail.Event.StartsAt = time.Now().UTC().Add(-time.Minute)
	f.tickets.On("GetByID", mock.Anything, uint64(10)).Return(detail, nil)

	_, err := f.engine.CancelTicket(context.Background(), 10, ptr(5), nil)
	assert.ErrorIs(t, err, repository.ErrEventStarted)
}

func TestCancelTicketMissing(t *testing.T) {
	f := newFixtures()
	f.tickets.On("GetByID", mock.Anything, uint64(99)).
		Return(repository.TicketDetail{}, repository.ErrTicketNotFound)

	_, err := f.engine.CancelTicket(context.Background(), 99, ptr(5), nil)
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
}

// ----- refunds -----

func TestRequestRefund(t *testing.T) {
	f := newFixtures()
	detail := reservedDetail(10, repository.TicketOwner{UserID: ptr(5)})
	detail.Status = model.StatusCancelled
	f.tickets.On("GetByID", mock.Anything, uint64(10)).Return(detail, nil)
	f.refunds.On("ExistsForTicket", mock.Anything, uint64(10)).Return(false, nil)

	reason := "double booked"
	want := model.RefundRequest{ID: 1, TicketID: 10, Reason: &reason}
	f.refunds.On("Create", mock.Anything, uint64(10), &reason).Return(want, nil)

	got, err := f.engine.RequestRefund(context.Background(), 10, &reason)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRequestRefundTicketNotCancelled(t *testing.T) {
	f := newFixtures()
	f.tickets.On("GetByID", mock.Anything, uint64(10)).
		Return(reservedDetail(10, repository.TicketOwner{UserID: ptr(5)}), nil)

	_, err := f.engine.RequestRefund(context.Background(), 10, nil)
	assert.ErrorIs(t, err, repository.ErrTicketNotCancelled)
	f.refunds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestRefundDuplicate(t *testing.T) {
	f := newFixtures()
	detail := reservedDetail(10, repository.TicketOwner{UserID: ptr(5)})
	detail.Status = model.StatusCancelled
	f.tickets.On("GetByID", mock.Anything, uint64(10)).Return(detail, nil)
	f.refunds.On("ExistsForTicket", mock.Anything, uint64(10)).Return(true, nil)

	_, err := f.engine.RequestRefund(context.Background(), 10, nil)
	assert.ErrorIs(t, err, repository.ErrRefundExists)
}

func TestApproveRefund(t *testing.T) {
	f := newFixtures()
	f.refunds.On("GetByID", mock.Anything, uint64(1)).
		Return(model.RefundRequest{ID: 1, TicketID: 10}, nil)

	refunded := reservedDetail(10, repository.TicketOwner{UserID: ptr(5)})
	refunded.Status = model.StatusRefunded
	f.refunds.On("Approve", mock.Anything, uint64(1)).Return(refunded, nil)

	got, err := f.engine.ApproveRefund(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRefunded, got.Status)
}

func TestApproveRefundTwice(t *testing.T) {
	f := newFixtures()
	f.refunds.On("GetByID", mock.Anything, uint64(1)).
		Return(model.RefundRequest{ID: 1, TicketID: 10, Approved: true}, nil)

	_, err := f.engine.ApproveRefund(context.Background(), 1)
	assert.ErrorIs(t, err, repository.ErrRefundApproved)
	f.refunds.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything)
}

func TestApproveRefundMissing(t *testing.T) {
	f := newFixtures()
	f.refunds.On("GetByID", mock.Anything, uint64(1)).
		Return(model.RefundRequest{}, repository.ErrRefundNotFound)

	_, err := f.engine.ApproveRefund(context.Background(), 1)
	assert.ErrorIs(t, err, repository.ErrRefundNotFound)
}

// ----- double booking under concurrency -----

// casTicketStore is an in-memory TicketStore whose CreateReserved
// claims seats under a mutex, mirroring the conditional UPDATE the SQL
// implementation relies on.
type casTicketStore struct {
	mu     sync.Mutex
	nextID uint64
	taken  map[uint64]bool
	byID   map[uint64]repository.TicketDetail
}

func newCasTicketStore() *casTicketStore {
	return &casTicketStore{nextID: 1, taken: make(map[uint64]bool), byID: make(map[uint64]repository.TicketDetail)}
}

func (s *casTicketStore) GetByID(ctx context.Context, id uint64) (repository.TicketDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[id]
	if !ok {
		return repository.TicketDetail{}, repository.ErrTicketNotFound
	}
	return d, nil
}

func (s *casTicketStore) CreateReserved(ctx context.Context, owner repository.TicketOwner, eventID, seatID uint64) (repository.TicketDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taken[seatID] {
		return repository.TicketDetail{}, repository.ErrSeatTaken
	}
	s.taken[seatID] = true
	d := repository.TicketDetail{
		ID:      s.nextID,
		EventID: eventID,
		SeatID:  seatID,
		UserID:  owner.UserID,
		GuestID: owner.GuestID,
		Status:  model.StatusReserved,
	}
	s.nextID++
	s.byID[d.ID] = d
	return d, nil
}

func (s *casTicketStore) Cancel(ctx context.Context, ticketID uint64) (repository.TicketDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[ticketID]
	if !ok {
		return repository.TicketDetail{}, repository.ErrTicketNotFound
	}
	if d.Status != model.StatusReserved {
		return repository.TicketDetail{}, repository.ErrTicketNotReserved
	}
	d.Status = model.StatusCancelled
	s.taken[d.SeatID] = false
	s.byID[ticketID] = d
	return d, nil
}

func (s *casTicketStore) ListByUser(ctx context.Context, userID uint64) ([]repository.TicketDetail, error) {
	return nil, nil
}

func (s *casTicketStore) ListByGuest(ctx context.Context, guestID uint64) ([]repository.TicketDetail, error) {
	return nil, nil
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	events := new(mockEvents)
	seats := new(mockSeats)
	events.On("GetByID", mock.Anything, uint64(1)).Return(futureEvent(1), nil)
	seats.On("GetByID", mock.Anything, uint64(2)).Return(model.Seat{ID: 2, EventID: 1}, nil)

	store := newCasTicketStore()
	engine := New(events, seats, new(mockGuests), store, new(mockRefunds))

	const callers = 32
	var wg sync.WaitGroup
	var successes, conflicts int64
	var countMu sync.Mutex
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(userID uint64) {
			defer wg.Done()
			_, err := engine.CreateTicket(context.Background(), userID, 1, 2)
			countMu.Lock()
			defer countMu.Unlock()
			if err == nil {
				successes++
			} else if err == repository.ErrSeatTaken {
				conflicts++
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes, "exactly one booking may win the seat")
	assert.Equal(t, int64(callers-1), conflicts)
}

// ----- full lifecycle -----

func TestTicketLifecycle(t *testing.T) {
	events := new(mockEvents)
	seats := new(mockSeats)
	events.On("GetByID", mock.Anything, uint64(1)).Return(futureEvent(1), nil)
	seats.On("GetByID", mock.Anything, uint64(2)).Return(model.Seat{ID: 2, EventID: 1}, nil)

	store := newCasTicketStore()
	refunds := new(mockRefunds)
	engine := New(events, seats, new(mockGuests), store, refunds)
	ctx := context.Background()

	booked, err := engine.CreateTicket(ctx, 5, 1, 2)
	require.NoError(t, err)
	require.Equal(t, model.StatusReserved, booked.Status)

	// While the seat is held, any other booking of it must conflict.
	_, err = engine.CreateTicket(ctx, 6, 1, 2)
	assert.ErrorIs(t, err, repository.ErrSeatTaken)

	// Cancelling detaches the seat; a second booking may claim it.
	detail := store.byID[booked.ID]
	detail.Event.StartsAt = futureEvent(1).StartsAt
	store.byID[booked.ID] = detail

	cancelled, err := engine.CancelTicket(ctx, booked.ID, ptr(5), nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	rebooked, err := engine.CreateTicket(ctx, 6, 1, 2)
	require.NoError(t, err)
	assert.NotEqual(t, booked.ID, rebooked.ID)
	assert.Equal(t, uint64(2), rebooked.SeatID)

	// The cancelled ticket can move into the refund flow.
	refunds.On("ExistsForTicket", mock.Anything, booked.ID).Return(false, nil)
	refunds.On("Create", mock.Anything, booked.ID, (*string)(nil)).
		Return(model.RefundRequest{ID: 1, TicketID: booked.ID}, nil)

	rr, err := engine.RequestRefund(ctx, booked.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, booked.ID, rr.TicketID)
}
