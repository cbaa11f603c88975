package api

import (
	"net/http"
	"strconv"

	"github.com/avioline/airreserve/internal/service/admin"
	"github.com/avioline/airreserve/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service  flights.FlightUseCase
	airports admin.AdminUseCase
}

type flightSearchRequest struct {
	FlightNumber string `json:"flight_number"`
	Source       string `json:"source"`
	Destination  string `json:"destination"`
	Date         string `json:"date"`
}

func NewFlightHandler(service flights.FlightUseCase, airports admin.AdminUseCase) *FlightHandler {
	return &FlightHandler{service: service, airports: airports}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/flights", h.list)
	router.GET("/flights/:id", h.get)
	router.POST("/flights/search", h.search)
	router.POST("/flights/flexible-search", h.flexibleSearch)
	router.GET("/airports", h.listAirports)
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) search(c *gin.Context) {
	var req flightSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.service.Search(c.Request.Context(), req.Source, req.Destination, req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *FlightHandler) flexibleSearch(c *gin.Context) {
	var req flightSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.service.FlexibleSearch(c.Request.Context(), req.FlightNumber, req.Source, req.Destination, req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *FlightHandler) listAirports(c *gin.Context) {
	airports, err := h.airports.ListAirports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, airports)
}
