// Package ticket renders a committed booking into the downloadable ticket
// document. It only ever reads post-commit state.
package ticket

import (
	"bytes"
	"fmt"

	"github.com/avioline/airreserve/internal/domain"
	"github.com/go-pdf/fpdf"
)

const timeLayout = "02-01-2006 15:04"

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Render(data *domain.TicketData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "FLIGHT TICKET", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Booking Reference: "+data.Reference, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	r.section(pdf, "Passenger Details:", []string{
		"Name: " + data.PassengerName,
		"Email: " + data.PassengerEmail,
		"Phone: " + data.PassengerPhone,
	})

	r.section(pdf, "Flight Details:", []string{
		"Flight Number: " + data.FlightNumber,
		"Airline: " + data.Airline,
		"From: " + data.SourceName,
		"To: " + data.DestinationName,
		"Departure: " + data.DepartureTime.Format(timeLayout),
		"Arrival: " + data.ArrivalTime.Format(timeLayout),
	})

	r.section(pdf, "Booking Details:", []string{
		fmt.Sprintf("Number of Seats: %d", data.Seats),
		fmt.Sprintf("Total Amount: $%.2f", float64(data.TotalAmountCents)/100),
		"Booking Date: " + data.BookedAt.Format(timeLayout),
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) section(pdf *fpdf.Fpdf, header string, lines []string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, header, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range lines {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}
