package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/avioline/airreserve/internal/domain"
	"github.com/avioline/airreserve/internal/kafka"
	"github.com/avioline/airreserve/internal/logger"
	"github.com/avioline/airreserve/internal/reference"
	"github.com/avioline/airreserve/internal/repository"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, ref string) (*domain.Booking, error)
	ListUserBookings(ctx context.Context, email string) ([]domain.Booking, error)
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
	DeleteOwnBooking(ctx context.Context, email string, id int64) error
	TicketData(ctx context.Context, id int64) (*domain.TicketData, error)
}

type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	flights            repository.FlightRepository
	users              repository.UserRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	referenceRetries   int
	commitRetries      int
	restoreSeats       bool
	generate           func() string
	log                *logger.Logger
}

// CreateBookingInput carries one reservation request. CustomerEmail is the
// resolved identity of the caller (empty for anonymous); the passenger
// fields are who actually flies. CardExpiry and CardCVV are accepted for
// the simulated payment and dropped on the floor, never persisted.
type CreateBookingInput struct {
	FlightID       int64
	Seats          int
	PassengerName  string
	PassengerEmail string
	PassengerPhone string
	PassportNumber string
	CardNumber     string
	CardExpiry     string
	CardCVV        string
	CustomerEmail  string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithSeatRestoreOnDelete(restore bool) BookingServiceOption {
	return func(s *BookingService) {
		s.restoreSeats = restore
	}
}

// WithReferenceGenerator swaps the reference source, used by tests.
func WithReferenceGenerator(generate func() string) BookingServiceOption {
	return func(s *BookingService) {
		s.generate = generate
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	users repository.UserRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	referenceRetries, commitRetries int,
	log *logger.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:         bookings,
		flights:          flights,
		users:            users,
		cache:            cache,
		producer:         producer,
		eventsTopic:      eventsTopic,
		referenceRetries: referenceRetries,
		commitRetries:    commitRetries,
		generate:         reference.Generate,
		log:              log,
	}
	if service.log == nil {
		service.log = logger.Nop()
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking is the commit protocol: resolve the flight, validate,
// derive the card suffix, resolve the owning user, then hand the decrement
// and the ledger insert to the repository as one atomic unit. The seat
// pre-check here is only a fast rejection; the authoritative check rides
// the commit transaction.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if input.Seats <= 0 {
		return nil, domain.Invalid("number of seats must be positive")
	}
	if input.PassengerName == "" || input.PassengerEmail == "" || input.PassengerPhone == "" {
		return nil, domain.Invalid("passenger name, email and phone are required")
	}
	if flight.AvailableSeats < input.Seats {
		return nil, domain.ErrNoSeats
	}

	lastFour, err := maskCard(input.CardNumber)
	if err != nil {
		return nil, err
	}
	// Payment is simulated: every committed booking clears, card or not.
	// Seats are only ever held by COMPLETED bookings, so available_seats
	// always equals total_seats minus the committed ledger.
	status := domain.PaymentStatusCompleted

	userID, err := s.resolveUser(ctx, input.CustomerEmail)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		UserID:           userID,
		FlightID:         flight.ID,
		PassengerName:    input.PassengerName,
		PassengerEmail:   input.PassengerEmail,
		PassengerPhone:   input.PassengerPhone,
		PassportNumber:   input.PassportNumber,
		Seats:            input.Seats,
		TotalAmountCents: flight.PriceCents * int64(input.Seats),
		PaymentStatus:    status,
		CardLastFour:     lastFour,
	}

	refAttempts := s.referenceRetries
	conflictAttempts := s.commitRetries
	for {
		booking.Reference = s.generate()

		err := s.bookings.Create(ctx, booking)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrDuplicateReference) && refAttempts > 0 {
			refAttempts--
			continue
		}
		if errors.Is(err, domain.ErrConflict) && conflictAttempts > 0 {
			conflictAttempts--
			continue
		}
		return nil, err
	}

	s.afterCommit(ctx, "booking_created", booking, flight.FlightNumber)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	return s.bookings.GetByReference(ctx, ref)
}

// ListUserBookings requires a known account; anonymous bookings are only
// reachable by reference.
func (s *BookingService) ListUserBookings(ctx context.Context, email string) ([]domain.Booking, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.bookings.ListByUser(ctx, user.ID)
}

func (s *BookingService) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.List(ctx)
}

// DeleteOwnBooking deletes a booking only if it belongs to the caller.
// Foreign and anonymous bookings are indistinguishable from absent ones.
func (s *BookingService) DeleteOwnBooking(ctx context.Context, email string, id int64) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrBookingNotFound
	}
	if err != nil {
		return err
	}

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if booking.UserID == nil || *booking.UserID != user.ID {
		return domain.ErrBookingNotFound
	}

	if err := s.bookings.Delete(ctx, id, s.restoreSeats); err != nil {
		return err
	}
	s.afterCommit(ctx, "booking_deleted", booking, "")
	return nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, id int64) error {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bookings.Delete(ctx, id, s.restoreSeats); err != nil {
		return err
	}
	s.afterCommit(ctx, "booking_deleted", booking, "")
	return nil
}

func (s *BookingService) TicketData(ctx context.Context, id int64) (*domain.TicketData, error) {
	return s.bookings.TicketData(ctx, id)
}

func (s *BookingService) resolveUser(ctx context.Context, email string) (*int64, error) {
	if email == "" {
		return nil, nil
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		// Identity without a stored account: the booking stays anonymous.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user.ID, nil
}

// afterCommit runs outside the commit unit: cache invalidation and event
// publication are best-effort and never roll the booking back.
func (s *BookingService) afterCommit(ctx context.Context, eventType string, booking *domain.Booking, flightNumber string) {
	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.Warn("failed to invalidate flights cache", "error", err)
		}
	}
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:             eventType,
		Reference:        booking.Reference,
		FlightID:         booking.FlightID,
		FlightNumber:     flightNumber,
		Seats:            booking.Seats,
		PassengerEmail:   booking.PassengerEmail,
		PaymentStatus:    string(booking.PaymentStatus),
		TotalAmountCents: booking.TotalAmountCents,
		CreatedAt:        booking.CreatedAt,
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, booking.Reference, event); err != nil {
		s.log.Warn("failed to publish booking event", "type", eventType, "reference", booking.Reference, "error", err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.Reference, event); err != nil {
			s.log.Warn("failed to publish notification", "reference", booking.Reference, "error", err)
		}
	}
}

// maskCard reduces a card number to its last four digits. The full number
// is validated here and nowhere retained.
func maskCard(number string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, number)

	if cleaned == "" {
		return "", nil
	}
	if len(cleaned) < 4 {
		return "", domain.Invalid("card number is too short")
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", domain.Invalid("card number must contain only digits")
		}
	}
	return cleaned[len(cleaned)-4:], nil
}

var _ BookingUseCase = (*BookingService)(nil)
