package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/avioline/airreserve/internal/domain"
	"github.com/avioline/airreserve/internal/service/booking"
	"github.com/avioline/airreserve/internal/ticket"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type BookingHandler struct {
	service  booking.BookingUseCase
	renderer *ticket.Renderer
}

type createBookingRequest struct {
	FlightID       int64  `json:"flight_id" binding:"required"`
	NumberOfSeats  int    `json:"number_of_seats" binding:"required,gt=0"`
	PassengerName  string `json:"passenger_name" binding:"required"`
	PassengerEmail string `json:"passenger_email" binding:"required,email"`
	PassengerPhone string `json:"passenger_phone" binding:"required"`
	PassportNumber string `json:"passport_number"`
	CardNumber     string `json:"card_number" binding:"omitempty,cardnumber"`
	CardExpiry     string `json:"card_expiry"`
	CardCVV        string `json:"card_cvv"`
}

type bookingResponse struct {
	ID               int64  `json:"id"`
	Reference        string `json:"reference"`
	FlightID         int64  `json:"flight_id"`
	PassengerName    string `json:"passenger_name"`
	PassengerEmail   string `json:"passenger_email"`
	PassengerPhone   string `json:"passenger_phone"`
	PassportNumber   string `json:"passport_number,omitempty"`
	NumberOfSeats    int    `json:"number_of_seats"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	PaymentStatus    string `json:"payment_status"`
	CardLastFour     string `json:"card_last_four,omitempty"`
	CreatedAt        string `json:"created_at"`
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("cardnumber", func(fl validator.FieldLevel) bool {
			digits := 0
			for _, r := range fl.Field().String() {
				switch {
				case r >= '0' && r <= '9':
					digits++
				case r == ' ' || r == '-':
				default:
					return false
				}
			}
			return digits >= 4
		})
	}
}

func NewBookingHandler(service booking.BookingUseCase, renderer *ticket.Renderer) *BookingHandler {
	return &BookingHandler{service: service, renderer: renderer}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings", h.listMine)
	router.GET("/bookings/:id/ticket", h.downloadTicket)
	router.DELETE("/bookings/:id", h.delete)
}

// RegisterPublic mounts reference lookup. Anonymous bookings have no owning
// account, so the reference is the only way to retrieve them.
func (h *BookingHandler) RegisterPublic(router *gin.RouterGroup) {
	router.GET("/bookings/by-reference/:reference", h.getByReference)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		FlightID:       req.FlightID,
		Seats:          req.NumberOfSeats,
		PassengerName:  req.PassengerName,
		PassengerEmail: req.PassengerEmail,
		PassengerPhone: req.PassengerPhone,
		PassportNumber: req.PassportNumber,
		CardNumber:     req.CardNumber,
		CardExpiry:     req.CardExpiry,
		CardCVV:        req.CardCVV,
		CustomerEmail:  identityEmail(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) getByReference(c *gin.Context) {
	found, err := h.service.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(found))
}

func (h *BookingHandler) listMine(c *gin.Context) {
	bookings, err := h.service.ListUserBookings(c.Request.Context(), identityEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) downloadTicket(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	data, err := h.service.TicketData(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	pdf, err := h.renderer.Render(data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="ticket-`+data.Reference+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *BookingHandler) delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.DeleteOwnBooking(c.Request.Context(), identityEmail(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		Reference:        b.Reference,
		FlightID:         b.FlightID,
		PassengerName:    b.PassengerName,
		PassengerEmail:   b.PassengerEmail,
		PassengerPhone:   b.PassengerPhone,
		PassportNumber:   b.PassportNumber,
		NumberOfSeats:    b.Seats,
		TotalAmountCents: b.TotalAmountCents,
		PaymentStatus:    string(b.PaymentStatus),
		CardLastFour:     b.CardLastFour,
		CreatedAt:        b.CreatedAt.Format(time.RFC3339),
	}
}
