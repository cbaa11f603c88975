package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

type Booking struct {
	ID        int64
	Reference string
	// UserID is nil for bookings made without a matching account.
	UserID           *int64
	FlightID         int64
	PassengerName    string
	PassengerEmail   string
	PassengerPhone   string
	PassportNumber   string
	Seats            int
	TotalAmountCents int64
	PaymentStatus    PaymentStatus
	// CardLastFour holds the only digits of the payment card that are ever
	// persisted.
	CardLastFour string
	CreatedAt    time.Time
}

// TicketData is everything the ticket renderer needs, read post-commit.
type TicketData struct {
	Reference        string
	PassengerName    string
	PassengerEmail   string
	PassengerPhone   string
	FlightNumber     string
	Airline          string
	SourceName       string
	DestinationName  string
	DepartureTime    time.Time
	ArrivalTime      time.Time
	Seats            int
	TotalAmountCents int64
	BookedAt         time.Time
}
