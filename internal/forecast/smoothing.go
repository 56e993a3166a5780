package forecast

import "fmt"

// Fixed smoothing constants for the Holt-Winters fit. The original system
// let the optimizer pick them; fixed values keep the fit cheap and the
// pipeline deterministic while staying close to typical optimized values
// for daily fare series.
const (
	smoothingAlpha = 0.3
	smoothingBeta  = 0.1
	smoothingGamma = 0.1
)

// forecastExponentialSmoothing runs additive Holt-Winters with the given
// seasonal period (weekly for daily fares). Needs two full seasons to
// initialize level, trend, and the seasonal profile.
func forecastExponentialSmoothing(prices []float64, horizon, period int) ([]float64, error) {
	n := len(prices)
	if period < 2 {
		return nil, fmt.Errorf("seasonal period %d too short: %w", period, ErrModelFit)
	}
	if n < 2*period {
		return nil, fmt.Errorf("%d observations, need %d for seasonal init: %w", n, 2*period, ErrModelFit)
	}

	var firstSeason, secondSeason float64
	for i := 0; i < period; i++ {
		firstSeason += prices[i]
		secondSeason += prices[period+i]
	}
	firstSeason /= float64(period)
	secondSeason /= float64(period)

	level := firstSeason
	trend := (secondSeason - firstSeason) / float64(period)
	seasonal := make([]float64, period)
	for i := 0; i < period; i++ {
		seasonal[i] = prices[i] - firstSeason
	}

	for t := period; t < n; t++ {
		idx := t % period
		prevLevel := level
		level = smoothingAlpha*(prices[t]-seasonal[idx]) + (1-smoothingAlpha)*(level+trend)
		trend = smoothingBeta*(level-prevLevel) + (1-smoothingBeta)*trend
		seasonal[idx] = smoothingGamma*(prices[t]-level) + (1-smoothingGamma)*seasonal[idx]
	}

	forecast := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		forecast[h] = level + float64(h+1)*trend + seasonal[(n+h)%period]
	}
	return forecast, nil
}
