package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avioline/airreserve/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Delete(ctx context.Context, id int64, restoreSeats bool) error {
	args := m.Called(ctx, id, restoreSeats)
	return args.Error(0)
}

func (m *MockBookingRepository) TicketData(ctx context.Context, id int64) (*domain.TicketData, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketData), args.Error(1)
}

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.FlightDetails, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.FlightDetails), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, filter domain.FlightSearch) ([]domain.FlightDetails, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.FlightDetails), args.Error(1)
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) Update(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SetLocked(ctx context.Context, id int64, locked bool) (*domain.User, error) {
	args := m.Called(ctx, id, locked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func testFlight() *domain.Flight {
	return &domain.Flight{
		ID:             4,
		FlightNumber:   "AV101",
		Airline:        "Avioline",
		DepartureTime:  time.Now().Add(24 * time.Hour),
		ArrivalTime:    time.Now().Add(27 * time.Hour),
		TotalSeats:     150,
		AvailableSeats: 42,
		PriceCents:     15000,
	}
}

func validInput() CreateBookingInput {
	return CreateBookingInput{
		FlightID:       4,
		Seats:          3,
		PassengerName:  "Ada Lovelace",
		PassengerEmail: "ada@example.com",
		PassengerPhone: "+15550100",
		CardNumber:     "4111111111111111",
		CardExpiry:     "12/30",
		CardCVV:        "123",
	}
}

func newTestService(bookings *MockBookingRepository, flights *MockFlightRepository, users *MockUserRepository, cache *MockCache, producer *MockProducer, opts ...BookingServiceOption) *BookingService {
	// Avoid wrapping typed nil pointers in non-nil interfaces, which would
	// defeat the service's nil checks for cache and producer.
	var c Cache
	if cache != nil {
		c = cache
	}
	var p Producer
	if producer != nil {
		p = producer
	}
	return NewBookingService(bookings, flights, users, c, p, "booking_events", 3, 3, nil, opts...)
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}
	mockUserRepo := &MockUserRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}

	service := newTestService(mockBookingRepo, mockFlightRepo, mockUserRepo, mockCache, mockProducer)

	ctx := context.Background()
	input := validInput()

	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockBookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockCache.On("InvalidateFlights", ctx).Return(nil).Once()
	mockProducer.On("Publish", ctx, "booking_events", mock.Anything, mock.Anything).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, input)

	assert.NoError(t, err)
	assert.NotNil(t, booking)
	assert.Len(t, booking.Reference, 8)
	assert.Equal(t, int64(45000), booking.TotalAmountCents)
	assert.Equal(t, domain.PaymentStatusCompleted, booking.PaymentStatus)
	assert.Equal(t, "1111", booking.CardLastFour)
	assert.Nil(t, booking.UserID)
	assert.Equal(t, 3, booking.Seats)

	mockUserRepo.AssertNotCalled(t, "GetByEmail")
	mockFlightRepo.AssertExpectations(t)
	mockBookingRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_ValidationErrors(t *testing.T) {
	mockFlightRepo := &MockFlightRepository{}
	service := newTestService(&MockBookingRepository{}, mockFlightRepo, &MockUserRepository{}, nil, nil)
	ctx := context.Background()

	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(testFlight(), nil)

	testCases := []struct {
		name        string
		mutate      func(*CreateBookingInput)
		expectedErr string
	}{
		{
			name:        "zero seats",
			mutate:      func(in *CreateBookingInput) { in.Seats = 0 },
			expectedErr: "number of seats must be positive",
		},
		{
			name:        "negative seats",
			mutate:      func(in *CreateBookingInput) { in.Seats = -5 },
			expectedErr: "number of seats must be positive",
		},
		{
			name:        "missing passenger name",
			mutate:      func(in *CreateBookingInput) { in.PassengerName = "" },
			expectedErr: "passenger name, email and phone are required",
		},
		{
			name:        "missing passenger email",
			mutate:      func(in *CreateBookingInput) { in.PassengerEmail = "" },
			expectedErr: "passenger name, email and phone are required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			booking, err := service.CreateBooking(ctx, input)
			assert.Error(t, err)
			assert.Nil(t, booking)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestBookingService_CreateBooking_CardValidation(t *testing.T) {
	mockFlightRepo := &MockFlightRepository{}
	service := newTestService(&MockBookingRepository{}, mockFlightRepo, &MockUserRepository{}, nil, nil)
	ctx := context.Background()

	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(testFlight(), nil)

	testCases := []struct {
		name string
		card string
	}{
		{name: "too short", card: "123"},
		{name: "letters", card: "4111abcd1111"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			input.CardNumber = tc.card
			booking, err := service.CreateBooking(ctx, input)
			assert.Error(t, err)
			assert.Nil(t, booking)
			assert.True(t, domain.IsValidation(err))
		})
	}
}

func TestBookingService_CreateBooking_CardlessBookingCompletes(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}

	service := newTestService(mockBookingRepo, mockFlightRepo, &MockUserRepository{}, nil, nil)

	ctx := context.Background()
	input := validInput()
	input.CardNumber = ""

	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockBookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, input)

	// A cardless booking still holds seats, so it must commit COMPLETED;
	// a PENDING state would break available = total - committed.
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, booking.PaymentStatus)
	assert.Empty(t, booking.CardLastFour)
}

func TestBookingService_CreateBooking_FlightNotFound(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}

	service := newTestService(mockBookingRepo, mockFlightRepo, &MockUserRepository{}, nil, nil)

	ctx := context.Background()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(nil, domain.ErrFlightNotFound).Once()

	booking, err := service.CreateBooking(ctx, validInput())

	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
	assert.Nil(t, booking)
	mockBookingRepo.AssertNotCalled(t, "Create")
}

func TestBookingService_CreateBooking_UnknownFlightWinsOverBadSeats(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}

	service := newTestService(mockBookingRepo, mockFlightRepo, &MockUserRepository{}, nil, nil)

	ctx := context.Background()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(nil, domain.ErrFlightNotFound).Once()

	input := validInput()
	input.Seats = 0

	_, err := service.CreateBooking(ctx, input)

	// The flight lookup comes first, so a bad flight id reports not-found
	// even when the seat count is also invalid.
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
	assert.False(t, domain.IsValidation(err))
}

func TestBookingService_CreateBooking_InsufficientSeats(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}

	service := newTestService(mockBookingRepo, mockFlightRepo, &MockUserRepository{}, nil, nil)

	ctx := context.Background()
	flight := testFlight()
	flight.AvailableSeats = 2

	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(flight, nil).Once()

	booking, err := service.CreateBooking(ctx, validInput())

	assert.ErrorIs(t, err, domain.ErrNoSeats)
	assert.Nil(t, booking)
	mockBookingRepo.AssertNotCalled(t, "Create")
}

func TestBookingService_CreateBooking_ResolvesUser(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}
	mockUserRepo := &MockUserRepository{}

	service := newTestService(mockBookingRepo, mockFlightRepo, mockUserRepo, nil, nil)

	ctx := context.Background()
	input := validInput()
	input.CustomerEmail = "ada@example.com"

	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockUserRepo.On("GetByEmail", ctx, "ada@example.com").Return(&domain.User{ID: 17, Email: "ada@example.com"}, nil).Once()
	mockBookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, input)

	assert.NoError(t, err)
	if assert.NotNil(t, booking.UserID) {
		assert.Equal(t, int64(17), *booking.UserID)
	}
	mockUserRepo.AssertExpectations(t)
}

func TestBookingService_CreateBooking_UnknownIdentityBooksAnonymously(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}
	mockUserRepo := &MockUserRepository{}

	service := newTestService(mockBookingRepo, mockFlightRepo, mockUserRepo, nil, nil)

	ctx := context.Background()
	input := validInput()
	input.CustomerEmail = "ghost@example.com"

	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockUserRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, domain.ErrUserNotFound).Once()
	mockBookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, input)

	assert.NoError(t, err)
	assert.Nil(t, booking.UserID)
}

func TestBookingService_CreateBooking_RegeneratesOnReferenceCollision(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}

	refs := []string{"AAAA1111", "BBBB2222"}
	next := 0
	service := newTestService(mockBookingRepo, mockFlightRepo, &MockUserRepository{}, nil, nil,
		WithReferenceGenerator(func() string {
			ref := refs[next]
			next++
			return ref
		}),
	)

	ctx := context.Background()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockBookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(domain.ErrDuplicateReference).Once()
	mockBookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, validInput())

	assert.NoError(t, err)
	assert.Equal(t, "BBBB2222", booking.Reference)
	mockBookingRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestBookingService_CreateBooking_ConflictRetriesExhausted(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}

	service := NewBookingService(mockBookingRepo, mockFlightRepo, &MockUserRepository{}, nil, nil, "booking_events", 3, 2, nil)

	ctx := context.Background()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockBookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(domain.ErrConflict)

	booking, err := service.CreateBooking(ctx, validInput())

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Nil(t, booking)
	// initial attempt plus two retries
	mockBookingRepo.AssertNumberOfCalls(t, "Create", 3)
}

func TestBookingService_CreateBooking_RepositoryError(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}

	service := newTestService(mockBookingRepo, mockFlightRepo, &MockUserRepository{}, nil, nil)

	ctx := context.Background()
	expectedErr := errors.New("database error")

	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(testFlight(), nil).Once()
	mockBookingRepo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(expectedErr).Once()

	booking, err := service.CreateBooking(ctx, validInput())

	assert.ErrorIs(t, err, expectedErr)
	assert.Nil(t, booking)
}

func TestBookingService_ListUserBookings(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockUserRepo := &MockUserRepository{}

	service := newTestService(mockBookingRepo, &MockFlightRepository{}, mockUserRepo, nil, nil)

	ctx := context.Background()
	mockUserRepo.On("GetByEmail", ctx, "ada@example.com").Return(&domain.User{ID: 17}, nil).Once()
	mockBookingRepo.On("ListByUser", ctx, int64(17)).Return([]domain.Booking{{ID: 1}, {ID: 2}}, nil).Once()

	bookings, err := service.ListUserBookings(ctx, "ada@example.com")

	assert.NoError(t, err)
	assert.Len(t, bookings, 2)
}

func TestBookingService_ListUserBookings_UnknownUser(t *testing.T) {
	mockUserRepo := &MockUserRepository{}

	service := newTestService(&MockBookingRepository{}, &MockFlightRepository{}, mockUserRepo, nil, nil)

	ctx := context.Background()
	mockUserRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, domain.ErrUserNotFound).Once()

	bookings, err := service.ListUserBookings(ctx, "ghost@example.com")

	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Nil(t, bookings)
}

func TestBookingService_DeleteBooking_DefaultKeepsSeats(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}

	service := newTestService(mockBookingRepo, &MockFlightRepository{}, &MockUserRepository{}, nil, nil)

	ctx := context.Background()
	mockBookingRepo.On("GetByID", ctx, int64(9)).Return(&domain.Booking{ID: 9, Reference: "AAAA1111", FlightID: 4, Seats: 2}, nil).Once()
	mockBookingRepo.On("Delete", ctx, int64(9), false).Return(nil).Once()

	err := service.DeleteBooking(ctx, 9)

	assert.NoError(t, err)
	mockBookingRepo.AssertExpectations(t)
}

func TestBookingService_DeleteBooking_RestoreFlag(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}

	service := newTestService(mockBookingRepo, &MockFlightRepository{}, &MockUserRepository{}, nil, nil,
		WithSeatRestoreOnDelete(true))

	ctx := context.Background()
	mockBookingRepo.On("GetByID", ctx, int64(9)).Return(&domain.Booking{ID: 9, Reference: "AAAA1111", FlightID: 4, Seats: 2}, nil).Once()
	mockBookingRepo.On("Delete", ctx, int64(9), true).Return(nil).Once()

	err := service.DeleteBooking(ctx, 9)

	assert.NoError(t, err)
	mockBookingRepo.AssertExpectations(t)
}

func TestBookingService_DeleteOwnBooking(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockUserRepo := &MockUserRepository{}

	service := newTestService(mockBookingRepo, &MockFlightRepository{}, mockUserRepo, nil, nil)

	ctx := context.Background()
	userID := int64(17)
	mockUserRepo.On("GetByEmail", ctx, "ada@example.com").Return(&domain.User{ID: 17}, nil).Once()
	mockBookingRepo.On("GetByID", ctx, int64(9)).Return(&domain.Booking{ID: 9, Reference: "AAAA1111", FlightID: 4, Seats: 2, UserID: &userID}, nil).Once()
	mockBookingRepo.On("Delete", ctx, int64(9), false).Return(nil).Once()

	err := service.DeleteOwnBooking(ctx, "ada@example.com", 9)

	assert.NoError(t, err)
	mockBookingRepo.AssertExpectations(t)
}

func TestBookingService_DeleteOwnBooking_ForeignBooking(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockUserRepo := &MockUserRepository{}

	service := newTestService(mockBookingRepo, &MockFlightRepository{}, mockUserRepo, nil, nil)

	ctx := context.Background()
	ownerID := int64(99)
	mockUserRepo.On("GetByEmail", ctx, "mallory@example.com").Return(&domain.User{ID: 17}, nil).Once()
	mockBookingRepo.On("GetByID", ctx, int64(9)).Return(&domain.Booking{ID: 9, Reference: "AAAA1111", FlightID: 4, Seats: 2, UserID: &ownerID}, nil).Once()

	err := service.DeleteOwnBooking(ctx, "mallory@example.com", 9)

	// Someone else's booking looks absent, and nothing is deleted.
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	mockBookingRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_DeleteOwnBooking_AnonymousBooking(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockUserRepo := &MockUserRepository{}

	service := newTestService(mockBookingRepo, &MockFlightRepository{}, mockUserRepo, nil, nil)

	ctx := context.Background()
	mockUserRepo.On("GetByEmail", ctx, "ada@example.com").Return(&domain.User{ID: 17}, nil).Once()
	mockBookingRepo.On("GetByID", ctx, int64(9)).Return(&domain.Booking{ID: 9, Reference: "AAAA1111", FlightID: 4, Seats: 2}, nil).Once()

	err := service.DeleteOwnBooking(ctx, "ada@example.com", 9)

	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	mockBookingRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_DeleteOwnBooking_UnknownIdentity(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockUserRepo := &MockUserRepository{}

	service := newTestService(mockBookingRepo, &MockFlightRepository{}, mockUserRepo, nil, nil)

	ctx := context.Background()
	mockUserRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, domain.ErrUserNotFound).Once()

	err := service.DeleteOwnBooking(ctx, "ghost@example.com", 9)

	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	mockBookingRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestMaskCard(t *testing.T) {
	lastFour, err := maskCard("4111 1111 1111 1111")
	assert.NoError(t, err)
	assert.Equal(t, "1111", lastFour)

	lastFour, err = maskCard("")
	assert.NoError(t, err)
	assert.Empty(t, lastFour)

	_, err = maskCard("12")
	assert.Error(t, err)
}
