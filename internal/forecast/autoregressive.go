package forecast

import (
	"fmt"
	"math"
)

// Minimum observations for a meaningful ARIMA(1,1,1)-style fit. Below this
// the differenced series leaves too few lag pairs to estimate anything.
const minAutoregressiveObservations = 8

// forecastAutoregressive fits a difference-plus-lag model of order (1,1,1):
// the series is differenced once, an AR(1) coefficient is estimated on the
// differences by least squares, and an MA(1) coefficient is estimated from
// the AR residuals. The horizon is forecast on the differenced scale and
// integrated back to price levels.
func forecastAutoregressive(prices []float64, horizon int) ([]float64, error) {
	n := len(prices)
	if n < minAutoregressiveObservations {
		return nil, fmt.Errorf("%d observations, need %d: %w", n, minAutoregressiveObservations, ErrModelFit)
	}

	diffs := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diffs[i-1] = prices[i] - prices[i-1]
	}

	phi, err := lagOneCoefficient(diffs)
	if err != nil {
		return nil, err
	}

	// Residuals of the AR(1) fit carry the MA(1) structure.
	residuals := make([]float64, len(diffs)-1)
	for t := 1; t < len(diffs); t++ {
		residuals[t-1] = diffs[t] - phi*diffs[t-1]
	}
	theta, err := lagOneCoefficient(residuals)
	if err != nil {
		// A flat residual series just means no MA structure to exploit.
		theta = 0
	}

	forecast := make([]float64, horizon)
	level := prices[n-1]
	lastDiff := diffs[len(diffs)-1]
	lastResidual := residuals[len(residuals)-1]
	for h := 0; h < horizon; h++ {
		step := phi * lastDiff
		if h == 0 {
			step += theta * lastResidual
		}
		level += step
		forecast[h] = level
		lastDiff = step
	}
	return forecast, nil
}

// lagOneCoefficient estimates x[t] = c * x[t-1] by least squares, clamped to
// the stationary region.
func lagOneCoefficient(series []float64) (float64, error) {
	if len(series) < 2 {
		return 0, fmt.Errorf("series too short for lag fit: %w", ErrModelFit)
	}
	var num, den float64
	for t := 1; t < len(series); t++ {
		num += series[t-1] * series[t]
		den += series[t-1] * series[t-1]
	}
	if den < 1e-12 {
		return 0, fmt.Errorf("degenerate series, singular lag fit: %w", ErrModelFit)
	}
	c := num / den
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0, fmt.Errorf("unstable lag fit: %w", ErrModelFit)
	}
	// Clamp into the stationary region so integration cannot blow up.
	if c > 0.99 {
		c = 0.99
	}
	if c < -0.99 {
		c = -0.99
	}
	return c, nil
}
