package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantic/farecast/internal/amadeus"
	"github.com/voyantic/farecast/internal/models"
	"github.com/voyantic/farecast/internal/services"
)

type fakeBundler struct {
	pkg *models.TravelPackage
	err error
}

func (f *fakeBundler) Build(_ context.Context, _ services.BundleRequest) (*models.TravelPackage, error) {
	return f.pkg, f.err
}

func newPackagesRouter(bundler PackageBuilder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewPackagesHandler(bundler, testHandlerLogger())
	router.POST("/api/v1/packages/bundle", h.Bundle)
	return router
}

func validBundleRequest() services.BundleRequest {
	return services.BundleRequest{
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureDate: "2024-07-01",
		HotelName:     "Harborview",
		Nights:        3,
		NightlyRate:   decimal.NewFromInt(180),
	}
}

func TestBundleEndpoint(t *testing.T) {
	bundler := &fakeBundler{pkg: &models.TravelPackage{
		ID:         "pkg-1",
		TotalPrice: decimal.NewFromInt(800),
		Currency:   "USD",
	}}
	router := newPackagesRouter(bundler)

	recorder := postJSON(t, router, "/api/v1/packages/bundle", validBundleRequest())
	require.Equal(t, http.StatusCreated, recorder.Code)

	var pkg models.TravelPackage
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &pkg))
	assert.Equal(t, "pkg-1", pkg.ID)
}

func TestBundleEndpointValidation(t *testing.T) {
	router := newPackagesRouter(&fakeBundler{})

	bad := validBundleRequest()
	bad.HotelName = ""
	recorder := postJSON(t, router, "/api/v1/packages/bundle", bad)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestBundleEndpointNoOffers(t *testing.T) {
	router := newPackagesRouter(&fakeBundler{err: amadeus.ErrNoOffers})

	recorder := postJSON(t, router, "/api/v1/packages/bundle", validBundleRequest())
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
