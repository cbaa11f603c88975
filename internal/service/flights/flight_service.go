package flights

import (
	"context"
	"time"

	"github.com/avioline/airreserve/internal/domain"
	"github.com/avioline/airreserve/internal/repository"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.FlightDetails, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Search(ctx context.Context, source, destination, date string) ([]domain.FlightDetails, error)
	FlexibleSearch(ctx context.Context, flightNumber, source, destination, date string) ([]domain.FlightDetails, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.FlightDetails, error)
	SetFlights(ctx context.Context, flights []domain.FlightDetails) error
}

type FlightService struct {
	repo     repository.FlightRepository
	cache    FlightCache
	cacheTTL time.Duration
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache, cacheTTL time.Duration) *FlightService {
	return &FlightService{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

func (s *FlightService) List(ctx context.Context) ([]domain.FlightDetails, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// Search is the strict route search: source, destination and departure date
// are all required.
func (s *FlightService) Search(ctx context.Context, source, destination, date string) ([]domain.FlightDetails, error) {
	if source == "" || destination == "" || date == "" {
		return nil, domain.Invalid("source, destination and date are required")
	}
	day, err := parseDay(date)
	if err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, domain.FlightSearch{Source: source, Destination: destination, Day: day})
}

// FlexibleSearch treats every filter as optional.
func (s *FlightService) FlexibleSearch(ctx context.Context, flightNumber, source, destination, date string) ([]domain.FlightDetails, error) {
	filter := domain.FlightSearch{
		FlightNumber: flightNumber,
		Source:       source,
		Destination:  destination,
	}
	if date != "" {
		day, err := parseDay(date)
		if err != nil {
			return nil, err
		}
		filter.Day = day
	}
	return s.repo.Search(ctx, filter)
}

func parseDay(date string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, domain.Invalid("date must be in YYYY-MM-DD format")
	}
	return day, nil
}

var _ FlightUseCase = (*FlightService)(nil)
