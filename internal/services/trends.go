package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/models"
)

// trendBand is the relative move the smoothed series must make before the
// direction leaves "stable".
const trendBand = 0.05

// smoothingPeriod is the SMA window used for direction detection.
const smoothingPeriod = 7

// TrendService summarizes historical pricing behavior per route.
type TrendService struct {
	history HistoryStore
	logger  *logrus.Logger
	now     func() time.Time
}

func NewTrendService(history HistoryStore, logger *logrus.Logger) *TrendService {
	return &TrendService{history: history, logger: logger, now: time.Now}
}

// RouteTrend computes fare statistics and a smoothed direction for a route
// over the trailing number of days.
func (s *TrendService) RouteTrend(ctx context.Context, origin, destination string, days int) (*models.RouteTrend, error) {
	if days < 1 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)

	observations, err := s.history.RouteHistory(ctx, origin, destination, "", since)
	if err != nil {
		return nil, fmt.Errorf("failed to load route history: %w", err)
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("%s-%s: %w", origin, destination, ErrNoHistory)
	}

	prices := make([]float64, len(observations))
	minPrice := observations[0].Price
	maxPrice := observations[0].Price
	total := decimal.Zero
	for i, obs := range observations {
		prices[i] = obs.Price.InexactFloat64()
		total = total.Add(obs.Price)
		if obs.Price.LessThan(minPrice) {
			minPrice = obs.Price
		}
		if obs.Price.GreaterThan(maxPrice) {
			maxPrice = obs.Price
		}
	}
	avgPrice := total.Div(decimal.NewFromInt(int64(len(observations))))

	return &models.RouteTrend{
		Route:           origin + "-" + destination,
		TimePeriod:      fmt.Sprintf("%dd", days),
		AveragePrice:    avgPrice,
		MinPrice:        minPrice,
		MaxPrice:        maxPrice,
		PriceVolatility: volatility(prices),
		TrendDirection:  direction(prices),
		SampleSize:      len(observations),
	}, nil
}

// direction classifies the series by comparing the ends of its smoothed
// curve. Short series fall back to comparing the raw endpoints.
func direction(prices []float64) string {
	series := prices
	if len(prices) >= smoothingPeriod {
		sma := trend.NewSmaWithPeriod[float64](smoothingPeriod)
		series = helper.ChanToSlice(sma.Compute(helper.SliceToChan(prices)))
	}
	if len(series) < 2 || series[0] == 0 {
		return "stable"
	}

	change := (series[len(series)-1] - series[0]) / series[0]
	switch {
	case change > trendBand:
		return "rising"
	case change < -trendBand:
		return "falling"
	default:
		return "stable"
	}
}

// volatility is the coefficient of variation of the series.
func volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	mean := 0.0
	for _, p := range prices {
		mean += p
	}
	mean /= float64(len(prices))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, p := range prices {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(len(prices))
	return math.Sqrt(variance) / mean
}
