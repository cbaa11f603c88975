package repository

import (
	"context"
	"errors"

	"github.com/avioline/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// Create commits the booking and the seat decrement as one atomic
	// unit. It returns domain.ErrFlightNotFound, domain.ErrNoSeats,
	// domain.ErrDuplicateReference or domain.ErrConflict; any of them
	// means nothing was written.
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	Delete(ctx context.Context, id int64, restoreSeats bool) error
	TicketData(ctx context.Context, id int64) (*domain.TicketData, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, user_id, flight_id, passenger_name, passenger_email, passenger_phone,
	passport_number, seats, total_amount_cents, payment_status, card_last_four, created_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The decrement and the availability check are one statement, so two
	// concurrent commits on the same flight serialize on the row and only
	// as many succeed as there are seats.
	var available int
	err = tx.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats - $2, updated_at = now()
		WHERE id = $1 AND available_seats >= $2
		RETURNING available_seats`, booking.FlightID, booking.Seats).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id=$1)`, booking.FlightID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrFlightNotFound
		}
		return domain.ErrNoSeats
	}
	if err != nil {
		if isRetryableConflict(err) {
			return domain.ErrConflict
		}
		return err
	}

	err = tx.QueryRow(ctx, `INSERT INTO bookings (reference, user_id, flight_id, passenger_name, passenger_email,
		passenger_phone, passport_number, seats, total_amount_cents, payment_status, card_last_four)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		booking.Reference, booking.UserID, booking.FlightID, booking.PassengerName, booking.PassengerEmail,
		booking.PassengerPhone, booking.PassportNumber, booking.Seats, booking.TotalAmountCents,
		booking.PaymentStatus, booking.CardLastFour).
		Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReference
		}
		if isRetryableConflict(err) {
			return domain.ErrConflict
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if isRetryableConflict(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.FlightID, &b.PassengerName, &b.PassengerEmail,
		&b.PassengerPhone, &b.PassportNumber, &b.Seats, &b.TotalAmountCents, &b.PaymentStatus,
		&b.CardLastFour, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, reference))
}

func (r *PGBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.Reference, &b.UserID, &b.FlightID, &b.PassengerName, &b.PassengerEmail,
			&b.PassengerPhone, &b.PassportNumber, &b.Seats, &b.TotalAmountCents, &b.PaymentStatus,
			&b.CardLastFour, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// Delete removes the ledger row. When restoreSeats is set the flight gets
// its seats back in the same transaction, capped at total_seats.
func (r *PGBookingRepository) Delete(ctx context.Context, id int64, restoreSeats bool) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var flightID int64
	var seats int
	err = tx.QueryRow(ctx, `DELETE FROM bookings WHERE id=$1 RETURNING flight_id, seats`, id).Scan(&flightID, &seats)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrBookingNotFound
	}
	if err != nil {
		return err
	}

	if restoreSeats {
		if _, err := tx.Exec(ctx, `UPDATE flights SET available_seats = LEAST(total_seats, available_seats + $2), updated_at = now()
			WHERE id = $1`, flightID, seats); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) TicketData(ctx context.Context, id int64) (*domain.TicketData, error) {
	row := r.db.QueryRow(ctx, `SELECT b.reference, b.passenger_name, b.passenger_email, b.passenger_phone,
		f.flight_number, f.airline, src.name, dst.name, f.departure_time, f.arrival_time,
		b.seats, b.total_amount_cents, b.created_at
		FROM bookings b
		JOIN flights f ON f.id = b.flight_id
		JOIN airports src ON src.id = f.source_airport_id
		JOIN airports dst ON dst.id = f.destination_airport_id
		WHERE b.id=$1`, id)

	var t domain.TicketData
	if err := row.Scan(&t.Reference, &t.PassengerName, &t.PassengerEmail, &t.PassengerPhone,
		&t.FlightNumber, &t.Airline, &t.SourceName, &t.DestinationName, &t.DepartureTime, &t.ArrivalTime,
		&t.Seats, &t.TotalAmountCents, &t.BookedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &t, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
