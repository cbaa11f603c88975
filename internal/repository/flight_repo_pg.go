package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/avioline/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.FlightDetails, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Search(ctx context.Context, filter domain.FlightSearch) ([]domain.FlightDetails, error)
	Create(ctx context.Context, flight *domain.Flight) error
	Update(ctx context.Context, flight *domain.Flight) error
	Delete(ctx context.Context, id int64) error
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightDetailsSelect = `SELECT f.id, f.flight_number, f.airline, f.source_airport_id, f.destination_airport_id,
	f.departure_time, f.arrival_time, f.total_seats, f.available_seats, f.price_cents, f.created_at, f.updated_at,
	src.code, src.name, src.city, dst.code, dst.name, dst.city
	FROM flights f
	JOIN airports src ON src.id = f.source_airport_id
	JOIN airports dst ON dst.id = f.destination_airport_id`

func scanFlightDetails(rows pgx.Rows) ([]domain.FlightDetails, error) {
	defer rows.Close()
	flights := make([]domain.FlightDetails, 0)
	for rows.Next() {
		var f domain.FlightDetails
		if err := rows.Scan(&f.ID, &f.FlightNumber, &f.Airline, &f.SourceAirportID, &f.DestinationAirportID,
			&f.DepartureTime, &f.ArrivalTime, &f.TotalSeats, &f.AvailableSeats, &f.PriceCents, &f.CreatedAt, &f.UpdatedAt,
			&f.SourceCode, &f.SourceName, &f.SourceCity, &f.DestinationCode, &f.DestinationName, &f.DestinationCity); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.FlightDetails, error) {
	rows, err := r.db.Query(ctx, flightDetailsSelect+` ORDER BY f.departure_time`)
	if err != nil {
		return nil, err
	}
	return scanFlightDetails(rows)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT id, flight_number, airline, source_airport_id, destination_airport_id,
		departure_time, arrival_time, total_seats, available_seats, price_cents, created_at, updated_at
		FROM flights WHERE id=$1`, id)
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNumber, &f.Airline, &f.SourceAirportID, &f.DestinationAirportID,
		&f.DepartureTime, &f.ArrivalTime, &f.TotalSeats, &f.AvailableSeats, &f.PriceCents, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Search applies whichever filters are set and only returns flights that
// still have seats to sell.
func (r *PGFlightRepository) Search(ctx context.Context, filter domain.FlightSearch) ([]domain.FlightDetails, error) {
	conds := []string{"f.available_seats > 0"}
	args := []any{}

	if filter.FlightNumber != "" {
		args = append(args, "%"+filter.FlightNumber+"%")
		conds = append(conds, "f.flight_number ILIKE $"+strconv.Itoa(len(args)))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		conds = append(conds, "src.code = $"+strconv.Itoa(len(args)))
	}
	if filter.Destination != "" {
		args = append(args, filter.Destination)
		conds = append(conds, "dst.code = $"+strconv.Itoa(len(args)))
	}
	if !filter.Day.IsZero() {
		args = append(args, filter.Day)
		conds = append(conds, "f.departure_time::date = $"+strconv.Itoa(len(args))+"::date")
	}

	query := flightDetailsSelect + ` WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY f.departure_time`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanFlightDetails(rows)
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	return r.db.QueryRow(ctx, `INSERT INTO flights (flight_number, airline, source_airport_id, destination_airport_id,
		departure_time, arrival_time, total_seats, available_seats, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		flight.FlightNumber, flight.Airline, flight.SourceAirportID, flight.DestinationAirportID,
		flight.DepartureTime, flight.ArrivalTime, flight.TotalSeats, flight.AvailableSeats, flight.PriceCents).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
}

// Update overwrites the administrative fields only. Seat counters are owned
// by the booking commit path and are never touched here.
func (r *PGFlightRepository) Update(ctx context.Context, flight *domain.Flight) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET flight_number=$1, airline=$2, departure_time=$3, arrival_time=$4,
		price_cents=$5, updated_at=now() WHERE id=$6`,
		flight.FlightNumber, flight.Airline, flight.DepartureTime, flight.ArrivalTime, flight.PriceCents, flight.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
