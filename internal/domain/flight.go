package domain

import "time"

type Flight struct {
	ID                   int64
	FlightNumber         string
	Airline              string
	SourceAirportID      int64
	DestinationAirportID int64
	DepartureTime        time.Time
	ArrivalTime          time.Time
	TotalSeats           int
	AvailableSeats       int
	PriceCents           int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FlightDetails is the read view used by search results and tickets, with
// the airports joined in for display.
type FlightDetails struct {
	Flight
	SourceCode      string
	SourceName      string
	SourceCity      string
	DestinationCode string
	DestinationName string
	DestinationCity string
}

// FlightSearch carries the optional filters of a flexible search. Empty
// fields are not applied; Day, when set, matches the departure date.
type FlightSearch struct {
	FlightNumber string
	Source       string
	Destination  string
	Day          time.Time
}
