package admin

import (
	"context"

	"github.com/avioline/airreserve/internal/domain"
	"github.com/avioline/airreserve/internal/repository"
)

type AdminUseCase interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	ToggleUserLock(ctx context.Context, id int64) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error

	ListAirports(ctx context.Context) ([]domain.Airport, error)
	CreateAirport(ctx context.Context, airport *domain.Airport) error
	UpdateAirport(ctx context.Context, airport *domain.Airport) error
	DeleteAirport(ctx context.Context, id int64) error

	ListFlights(ctx context.Context) ([]domain.FlightDetails, error)
	CreateFlight(ctx context.Context, flight *domain.Flight) error
	UpdateFlight(ctx context.Context, flight *domain.Flight) error
	DeleteFlight(ctx context.Context, id int64) error
}

type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

type AdminService struct {
	users    repository.UserRepository
	airports repository.AirportRepository
	flights  repository.FlightRepository
	cache    Cache
}

func NewAdminService(users repository.UserRepository, airports repository.AirportRepository, flights repository.FlightRepository, cache Cache) *AdminService {
	return &AdminService{users: users, airports: airports, flights: flights, cache: cache}
}

// invalidateFlights keeps the public flight list fresh after an
// administrative change. Best-effort; readers fall back to the TTL.
func (s *AdminService) invalidateFlights(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateFlights(ctx)
}

func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *AdminService) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, user.ID)
}

func (s *AdminService) ToggleUserLock(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.users.SetLocked(ctx, id, !user.Locked)
}

func (s *AdminService) DeleteUser(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}

func (s *AdminService) ListAirports(ctx context.Context) ([]domain.Airport, error) {
	return s.airports.List(ctx)
}

func (s *AdminService) CreateAirport(ctx context.Context, airport *domain.Airport) error {
	if airport.Code == "" || airport.Name == "" {
		return domain.Invalid("airport code and name are required")
	}
	return s.airports.Create(ctx, airport)
}

func (s *AdminService) UpdateAirport(ctx context.Context, airport *domain.Airport) error {
	return s.airports.Update(ctx, airport)
}

func (s *AdminService) DeleteAirport(ctx context.Context, id int64) error {
	return s.airports.Delete(ctx, id)
}

func (s *AdminService) ListFlights(ctx context.Context) ([]domain.FlightDetails, error) {
	return s.flights.List(ctx)
}

// CreateFlight validates the schedule and both endpoints, then seeds the
// seat counter: a new flight starts with every seat available.
func (s *AdminService) CreateFlight(ctx context.Context, flight *domain.Flight) error {
	if flight.FlightNumber == "" {
		return domain.Invalid("flight number is required")
	}
	if flight.TotalSeats <= 0 {
		return domain.Invalid("total seats must be positive")
	}
	if flight.PriceCents <= 0 {
		return domain.Invalid("price must be positive")
	}
	if !flight.ArrivalTime.After(flight.DepartureTime) {
		return domain.Invalid("arrival time must be after departure time")
	}
	if _, err := s.airports.GetByID(ctx, flight.SourceAirportID); err != nil {
		return err
	}
	if _, err := s.airports.GetByID(ctx, flight.DestinationAirportID); err != nil {
		return err
	}

	flight.AvailableSeats = flight.TotalSeats
	if err := s.flights.Create(ctx, flight); err != nil {
		return err
	}
	s.invalidateFlights(ctx)
	return nil
}

// UpdateFlight overwrites schedule, number, airline and price. Seat
// counters are deliberately untouched: only the booking commit path moves
// them.
func (s *AdminService) UpdateFlight(ctx context.Context, flight *domain.Flight) error {
	if !flight.ArrivalTime.After(flight.DepartureTime) {
		return domain.Invalid("arrival time must be after departure time")
	}
	if err := s.flights.Update(ctx, flight); err != nil {
		return err
	}
	s.invalidateFlights(ctx)
	return nil
}

func (s *AdminService) DeleteFlight(ctx context.Context, id int64) error {
	if err := s.flights.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateFlights(ctx)
	return nil
}

var _ AdminUseCase = (*AdminService)(nil)
