package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/amadeus"
	"github.com/voyantic/farecast/internal/models"
	"github.com/voyantic/farecast/internal/services"
)

// FlightData is the slice of the flight-data service this handler consumes.
type FlightData interface {
	LivePrices(ctx context.Context, origin, destination, departureDate, cabin string) ([]models.FlightOffer, error)
	Insights(ctx context.Context, origin, destination, departureDate string) (*services.RouteInsights, error)
	SearchAirports(ctx context.Context, keyword string, limit int) ([]amadeus.Airport, error)
	BestBookingTime(ctx context.Context, origin, destination, departureDate string) (*services.BestBookingTime, error)
}

type FlightsHandler struct {
	flights FlightData
	logger  *logrus.Logger
}

type OffersResponse struct {
	Offers    []models.FlightOffer `json:"offers"`
	Count     int                  `json:"count"`
	Timestamp time.Time            `json:"timestamp"`
}

type AirportsResponse struct {
	Airports []amadeus.Airport `json:"airports"`
	Count    int               `json:"count"`
}

func NewFlightsHandler(flights FlightData, logger *logrus.Logger) *FlightsHandler {
	return &FlightsHandler{flights: flights, logger: logger}
}

func routeQuery(c *gin.Context) (origin, destination, date string, ok bool) {
	origin = c.Query("origin")
	destination = c.Query("destination")
	date = c.Query("date")
	if origin == "" || destination == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin, destination and date parameters are required"})
		return "", "", "", false
	}
	return origin, destination, date, true
}

// Search handles GET /api/v1/flights/search.
func (h *FlightsHandler) Search(c *gin.Context) {
	origin, destination, date, ok := routeQuery(c)
	if !ok {
		return
	}

	offers, err := h.flights.LivePrices(c.Request.Context(), origin, destination, date, c.Query("cabin"))
	if err != nil {
		if errors.Is(err, amadeus.ErrNoOffers) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Flight search failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "flight data provider unavailable"})
		return
	}

	c.JSON(http.StatusOK, OffersResponse{
		Offers:    offers,
		Count:     len(offers),
		Timestamp: time.Now().UTC(),
	})
}

// Insights handles GET /api/v1/flights/insights.
func (h *FlightsHandler) Insights(c *gin.Context) {
	origin, destination, date, ok := routeQuery(c)
	if !ok {
		return
	}

	insights, err := h.flights.Insights(c.Request.Context(), origin, destination, date)
	if err != nil {
		h.logger.WithError(err).Error("Insights lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "flight data provider unavailable"})
		return
	}
	c.JSON(http.StatusOK, insights)
}

// BookingTime handles GET /api/v1/flights/booking-time.
func (h *FlightsHandler) BookingTime(c *gin.Context) {
	origin, destination, date, ok := routeQuery(c)
	if !ok {
		return
	}

	result, err := h.flights.BestBookingTime(c.Request.Context(), origin, destination, date)
	if err != nil {
		if errors.Is(err, amadeus.ErrNoOffers) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Booking time lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "flight data provider unavailable"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Airports handles GET /api/v1/flights/airports.
func (h *FlightsHandler) Airports(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword parameter is required"})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	airports, err := h.flights.SearchAirports(c.Request.Context(), keyword, limit)
	if err != nil {
		h.logger.WithError(err).Error("Airport search failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "flight data provider unavailable"})
		return
	}
	c.JSON(http.StatusOK, AirportsResponse{Airports: airports, Count: len(airports)})
}
