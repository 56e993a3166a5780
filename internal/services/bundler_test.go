package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bundleRequest(nights int, nightlyRate int64) BundleRequest {
	return BundleRequest{
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureDate: "2024-07-01",
		HotelName:     "Harborview",
		Nights:        nights,
		NightlyRate:   decimal.NewFromInt(nightlyRate),
	}
}

func TestBundleAppliesTopTierDiscount(t *testing.T) {
	// Flight 300 + 5 nights x 200 = 1300 combined, top tier: 10% off.
	svc := NewBundleService(&fakeOfferLookup{price: decimal.NewFromInt(300)}, testServiceLogger())

	pkg, err := svc.Build(context.Background(), bundleRequest(5, 200))
	require.NoError(t, err)
	assert.True(t, pkg.FlightTotal.Equal(decimal.NewFromInt(300)))
	assert.True(t, pkg.HotelTotal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, pkg.BundleDiscount.Equal(decimal.NewFromInt(130)))
	assert.True(t, pkg.TotalPrice.Equal(decimal.NewFromInt(1170)))
	assert.True(t, pkg.ExpectedSavings.Equal(pkg.BundleDiscount))
	assert.Equal(t, "USD", pkg.Currency)
	assert.NotEmpty(t, pkg.ID)
}

func TestBundleAppliesMidTierDiscount(t *testing.T) {
	// Flight 300 + 2 nights x 150 = 600 combined, mid tier: 5% off.
	svc := NewBundleService(&fakeOfferLookup{price: decimal.NewFromInt(300)}, testServiceLogger())

	pkg, err := svc.Build(context.Background(), bundleRequest(2, 150))
	require.NoError(t, err)
	assert.True(t, pkg.BundleDiscount.Equal(decimal.NewFromInt(30)))
	assert.True(t, pkg.TotalPrice.Equal(decimal.NewFromInt(570)))
}

func TestBundleBelowDiscountThreshold(t *testing.T) {
	// Flight 100 + 1 night x 100 = 200 combined, no discount.
	svc := NewBundleService(&fakeOfferLookup{price: decimal.NewFromInt(100)}, testServiceLogger())

	pkg, err := svc.Build(context.Background(), bundleRequest(1, 100))
	require.NoError(t, err)
	assert.True(t, pkg.BundleDiscount.IsZero())
	assert.True(t, pkg.TotalPrice.Equal(decimal.NewFromInt(200)))
}

func TestBundleValidation(t *testing.T) {
	svc := NewBundleService(&fakeOfferLookup{price: decimal.NewFromInt(100)}, testServiceLogger())

	_, err := svc.Build(context.Background(), bundleRequest(0, 100))
	assert.Error(t, err)

	_, err = svc.Build(context.Background(), bundleRequest(2, 0))
	assert.Error(t, err)
}
