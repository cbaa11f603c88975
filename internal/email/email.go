package email

import (
	"context"

	"github.com/avioline/airreserve/internal/kafka"
	"github.com/avioline/airreserve/internal/logger"
)

// Sender delivers booking notifications. Delivery is a log line for now; a
// real SMTP hookup slots in behind the same method.
type Sender struct {
	log *logger.Logger
}

func NewSender(log *logger.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	s.log.Info("sending booking email",
		"to", event.PassengerEmail,
		"event", event.Type,
		"reference", event.Reference,
		"flight", event.FlightNumber,
		"seats", event.Seats,
	)
	return nil
}
