package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/models"
)

// Bundle discount tiers by combined pre-discount total.
var (
	bundleTierHigh          = decimal.NewFromInt(1000)
	bundleTierHighDiscount  = decimal.NewFromFloat(0.10)
	bundleTierMid           = decimal.NewFromInt(500)
	bundleTierMidDiscount   = decimal.NewFromFloat(0.05)
)

// BundleRequest describes a flight-plus-hotel package to price.
type BundleRequest struct {
	Origin        string          `json:"origin" binding:"required"`
	Destination   string          `json:"destination" binding:"required"`
	DepartureDate string          `json:"departure_date" binding:"required"`
	HotelName     string          `json:"hotel_name" binding:"required"`
	Nights        int             `json:"nights" binding:"required,min=1"`
	NightlyRate   decimal.Decimal `json:"nightly_rate" binding:"required"`
}

// BundleService prices flight-plus-hotel packages off live fares.
type BundleService struct {
	offers OfferLookup
	logger *logrus.Logger
}

func NewBundleService(offers OfferLookup, logger *logrus.Logger) *BundleService {
	return &BundleService{offers: offers, logger: logger}
}

// Build prices a package around the cheapest live fare. The discount scales
// with the combined total; savings report what the bundle shaves off booking
// the parts separately.
func (s *BundleService) Build(ctx context.Context, req BundleRequest) (*models.TravelPackage, error) {
	if req.Nights < 1 {
		return nil, fmt.Errorf("nights must be at least 1, got %d", req.Nights)
	}
	if !req.NightlyRate.IsPositive() {
		return nil, fmt.Errorf("nightly_rate must be positive, got %s", req.NightlyRate)
	}

	flight, err := s.offers.CheapestOffer(ctx, req.Origin, req.Destination, req.DepartureDate)
	if err != nil {
		return nil, fmt.Errorf("failed to price flight leg: %w", err)
	}

	hotelTotal := req.NightlyRate.Mul(decimal.NewFromInt(int64(req.Nights)))
	combined := flight.Price.Add(hotelTotal)

	discount := decimal.Zero
	switch {
	case combined.GreaterThanOrEqual(bundleTierHigh):
		discount = combined.Mul(bundleTierHighDiscount)
	case combined.GreaterThanOrEqual(bundleTierMid):
		discount = combined.Mul(bundleTierMidDiscount)
	}
	discount = discount.Round(2)

	pkg := &models.TravelPackage{
		ID:              uuid.New().String(),
		Flight:          *flight,
		HotelName:       req.HotelName,
		Nights:          req.Nights,
		NightlyRate:     req.NightlyRate,
		FlightTotal:     flight.Price,
		HotelTotal:      hotelTotal,
		BundleDiscount:  discount,
		TotalPrice:      combined.Sub(discount),
		ExpectedSavings: discount,
		Currency:        flight.Currency,
	}

	s.logger.WithFields(logrus.Fields{
		"package": pkg.ID,
		"route":   req.Origin + "-" + req.Destination,
		"total":   pkg.TotalPrice.StringFixed(2),
	}).Info("Travel package built")
	return pkg, nil
}
