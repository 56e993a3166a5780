package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantic/farecast/internal/amadeus"
	"github.com/voyantic/farecast/internal/models"
	"github.com/voyantic/farecast/internal/services"
)

type fakeFlightData struct {
	offers   []models.FlightOffer
	err      error
	insights *services.RouteInsights
	airports []amadeus.Airport
}

func (f *fakeFlightData) LivePrices(_ context.Context, _, _, _, _ string) ([]models.FlightOffer, error) {
	return f.offers, f.err
}

func (f *fakeFlightData) Insights(_ context.Context, _, _, _ string) (*services.RouteInsights, error) {
	return f.insights, f.err
}

func (f *fakeFlightData) SearchAirports(_ context.Context, _ string, _ int) ([]amadeus.Airport, error) {
	return f.airports, f.err
}

func (f *fakeFlightData) BestBookingTime(_ context.Context, _, _, _ string) (*services.BestBookingTime, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.BestBookingTime{Origin: "JFK", Destination: "LAX"}, nil
}

func newFlightsRouter(data FlightData) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewFlightsHandler(data, testHandlerLogger())
	router.GET("/api/v1/flights/search", h.Search)
	router.GET("/api/v1/flights/insights", h.Insights)
	router.GET("/api/v1/flights/booking-time", h.BookingTime)
	router.GET("/api/v1/flights/airports", h.Airports)
	return router
}

func getPath(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestFlightSearchEndpoint(t *testing.T) {
	router := newFlightsRouter(&fakeFlightData{offers: []models.FlightOffer{
		{ID: "1", Airline: "DL", Price: decimal.NewFromInt(300), Currency: "USD"},
	}})

	recorder := getPath(router, "/api/v1/flights/search?origin=JFK&destination=LAX&date=2024-07-01")
	require.Equal(t, http.StatusOK, recorder.Code)

	var response OffersResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, "DL", response.Offers[0].Airline)
}

func TestFlightSearchRequiresRouteParams(t *testing.T) {
	router := newFlightsRouter(&fakeFlightData{})

	recorder := getPath(router, "/api/v1/flights/search?origin=JFK")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestFlightSearchNoOffers(t *testing.T) {
	router := newFlightsRouter(&fakeFlightData{err: amadeus.ErrNoOffers})

	recorder := getPath(router, "/api/v1/flights/search?origin=JFK&destination=LAX&date=2024-07-01")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestFlightSearchProviderDown(t *testing.T) {
	router := newFlightsRouter(&fakeFlightData{err: assert.AnError})

	recorder := getPath(router, "/api/v1/flights/search?origin=JFK&destination=LAX&date=2024-07-01")
	assert.Equal(t, http.StatusBadGateway, recorder.Code)
}

func TestInsightsEndpoint(t *testing.T) {
	router := newFlightsRouter(&fakeFlightData{insights: &services.RouteInsights{
		Origin:      "JFK",
		Destination: "LAX",
		CheapestDate: &amadeus.DatePrice{
			DepartureDate: "2024-07-03",
			Price:         decimal.NewFromInt(250),
		},
	}})

	recorder := getPath(router, "/api/v1/flights/insights?origin=JFK&destination=LAX&date=2024-07-01")
	require.Equal(t, http.StatusOK, recorder.Code)

	var insights services.RouteInsights
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &insights))
	require.NotNil(t, insights.CheapestDate)
	assert.Equal(t, "2024-07-03", insights.CheapestDate.DepartureDate)
}

func TestAirportsEndpoint(t *testing.T) {
	router := newFlightsRouter(&fakeFlightData{airports: []amadeus.Airport{
		{IataCode: "JFK", Name: "JOHN F KENNEDY INTL", City: "NEW YORK"},
	}})

	recorder := getPath(router, "/api/v1/flights/airports?keyword=new+york")
	require.Equal(t, http.StatusOK, recorder.Code)

	var response AirportsResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, "JFK", response.Airports[0].IataCode)
}

func TestAirportsRequiresKeyword(t *testing.T) {
	router := newFlightsRouter(&fakeFlightData{})

	recorder := getPath(router, "/api/v1/flights/airports")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestBookingTimeEndpoint(t *testing.T) {
	router := newFlightsRouter(&fakeFlightData{})

	recorder := getPath(router, "/api/v1/flights/booking-time?origin=JFK&destination=LAX&date=2024-07-01")
	assert.Equal(t, http.StatusOK, recorder.Code)
}
