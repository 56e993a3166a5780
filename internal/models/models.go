package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is one historical fare sample for a route, as stored in
// the price history table.
type PriceObservation struct {
	ObservedAt      time.Time       `json:"observed_at"`
	Origin          string          `json:"origin"`
	Destination     string          `json:"destination"`
	Airline         string          `json:"airline"`
	CabinClass      string          `json:"cabin_class"`
	Price           decimal.Decimal `json:"price"`
	DaysToDeparture int             `json:"days_to_departure"`
	OccupancyRate   float64         `json:"occupancy_rate"`
}

// FlightOffer is a live bookable fare returned by the flight-data provider.
type FlightOffer struct {
	ID            string          `json:"id"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	DepartureDate string          `json:"departure_date"`
	Airline       string          `json:"airline"`
	CabinClass    string          `json:"cabin_class"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	Stops         int             `json:"stops"`
	Source        string          `json:"source,omitempty"`
	FetchedAt     time.Time       `json:"fetched_at,omitempty"`
}

// PricePoint is one step of a predicted price timeline.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// PricePrediction is the API-facing result of a forecast request.
type PricePrediction struct {
	Origin               string          `json:"origin"`
	Destination          string          `json:"destination"`
	CurrentPrice         decimal.Decimal `json:"current_price"`
	PredictedPrices      []PricePoint    `json:"predicted_prices"`
	Recommendation       string          `json:"recommendation"`
	OptimalBookingDate   time.Time       `json:"optimal_booking_date"`
	ExpectedSavings      decimal.Decimal `json:"expected_savings"`
	ConfidenceScore      float64         `json:"confidence_score"`
	SegmentationStrategy string          `json:"segmentation_strategy"`
	NumSegments          int             `json:"num_segments"`
	DroppedSegments      int             `json:"dropped_segments,omitempty"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

// PriceAlert is a user-configured watch on a route's fare.
type PriceAlert struct {
	ID            string          `json:"id"`
	UserEmail     string          `json:"user_email"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	TargetPrice   decimal.Decimal `json:"target_price"`
	DepartureDate string          `json:"departure_date"`
	CabinClass    string          `json:"cabin_class"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	TriggeredAt   *time.Time      `json:"triggered_at,omitempty"`
}

// RouteTrend summarizes recent pricing behavior on one route.
type RouteTrend struct {
	Route           string          `json:"route"`
	TimePeriod      string          `json:"time_period"`
	AveragePrice    decimal.Decimal `json:"avg_price"`
	MinPrice        decimal.Decimal `json:"min_price"`
	MaxPrice        decimal.Decimal `json:"max_price"`
	PriceVolatility float64         `json:"price_volatility"`
	TrendDirection  string          `json:"trend_direction"`
	SampleSize      int             `json:"sample_size"`
}

// TravelPackage bundles a flight with lodging into one priced offer.
type TravelPackage struct {
	ID              string          `json:"id"`
	Flight          FlightOffer     `json:"flight"`
	HotelName       string          `json:"hotel_name"`
	Nights          int             `json:"nights"`
	NightlyRate     decimal.Decimal `json:"nightly_rate"`
	FlightTotal     decimal.Decimal `json:"flight_total"`
	HotelTotal      decimal.Decimal `json:"hotel_total"`
	BundleDiscount  decimal.Decimal `json:"bundle_discount"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	ExpectedSavings decimal.Decimal `json:"expected_savings"`
	Currency        string          `json:"currency"`
}
