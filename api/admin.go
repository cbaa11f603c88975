package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/avioline/airreserve/internal/domain"
	"github.com/avioline/airreserve/internal/service/admin"
	"github.com/avioline/airreserve/internal/service/auth"
	"github.com/avioline/airreserve/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service  admin.AdminUseCase
	auth     auth.AuthUseCase
	bookings booking.BookingUseCase
}

type airportRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	City    string `json:"city" binding:"required"`
	Country string `json:"country" binding:"required"`
}

type flightRequest struct {
	FlightNumber         string    `json:"flight_number" binding:"required"`
	Airline              string    `json:"airline"`
	SourceAirportID      int64     `json:"source_airport_id" binding:"required"`
	DestinationAirportID int64     `json:"destination_airport_id" binding:"required"`
	DepartureTime        time.Time `json:"departure_time" binding:"required"`
	ArrivalTime          time.Time `json:"arrival_time" binding:"required"`
	TotalSeats           int       `json:"total_seats" binding:"required,gt=0"`
	PriceCents           int64     `json:"price_cents" binding:"required,gt=0"`
}

type updateUserRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	PhoneNumber string `json:"phone_number"`
}

func NewAdminHandler(service admin.AdminUseCase, authSvc auth.AuthUseCase, bookings booking.BookingUseCase) *AdminHandler {
	return &AdminHandler{service: service, auth: authSvc, bookings: bookings}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/create-admin", h.createAdmin)

	router.GET("/users", h.listUsers)
	router.PUT("/users/:id", h.updateUser)
	router.PUT("/users/:id/toggle-lock", h.toggleUserLock)
	router.DELETE("/users/:id", h.deleteUser)

	router.GET("/airports", h.listAirports)
	router.POST("/airports", h.createAirport)
	router.PUT("/airports/:id", h.updateAirport)
	router.DELETE("/airports/:id", h.deleteAirport)

	router.GET("/flights", h.listFlights)
	router.POST("/flights", h.createFlight)
	router.PUT("/flights/:id", h.updateFlight)
	router.DELETE("/flights/:id", h.deleteFlight)

	router.GET("/bookings", h.listBookings)
	router.DELETE("/bookings/:id", h.deleteBooking)
}

func (h *AdminHandler) createAdmin(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.CreateAdmin(c.Request.Context(), auth.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAuthResponse(result))
}

func (h *AdminHandler) listUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]userResponse, 0, len(users))
	for i := range users {
		resp = append(resp, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) updateUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateUser(c.Request.Context(), &domain.User{
		ID:          id,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(updated))
}

func (h *AdminHandler) toggleUserLock(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	user, err := h.service.ToggleUserLock(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *AdminHandler) deleteUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) listAirports(c *gin.Context) {
	airports, err := h.service.ListAirports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, airports)
}

func (h *AdminHandler) createAirport(c *gin.Context) {
	var req airportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	airport := &domain.Airport{Code: req.Code, Name: req.Name, City: req.City, Country: req.Country}
	if err := h.service.CreateAirport(c.Request.Context(), airport); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, airport)
}

func (h *AdminHandler) updateAirport(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req airportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	airport := &domain.Airport{ID: id, Code: req.Code, Name: req.Name, City: req.City, Country: req.Country}
	if err := h.service.UpdateAirport(c.Request.Context(), airport); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, airport)
}

func (h *AdminHandler) deleteAirport(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteAirport(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) listFlights(c *gin.Context) {
	flights, err := h.service.ListFlights(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *AdminHandler) createFlight(c *gin.Context) {
	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	flight := flightFromRequest(0, req)
	if err := h.service.CreateFlight(c.Request.Context(), flight); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *AdminHandler) updateFlight(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	flight := flightFromRequest(id, req)
	if err := h.service.UpdateFlight(c.Request.Context(), flight); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *AdminHandler) deleteFlight(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteFlight(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) listBookings(c *gin.Context) {
	bookings, err := h.bookings.ListBookings(c.Request.Context())
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

func (h *AdminHandler) deleteBooking(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.bookings.DeleteBooking(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func flightFromRequest(id int64, req flightRequest) *domain.Flight {
	return &domain.Flight{
		ID:                   id,
		FlightNumber:         req.FlightNumber,
		Airline:              req.Airline,
		SourceAirportID:      req.SourceAirportID,
		DestinationAirportID: req.DestinationAirportID,
		DepartureTime:        req.DepartureTime,
		ArrivalTime:          req.ArrivalTime,
		TotalSeats:           req.TotalSeats,
		PriceCents:           req.PriceCents,
	}
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
