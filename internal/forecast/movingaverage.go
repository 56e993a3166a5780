package forecast

// forecastMovingAverage is the universal fallback: the mean of the trailing
// window (or of the whole series when it is shorter than the window) is
// broadcast across the horizon as a constant. It is computable for any
// non-empty series, which is what makes the ensemble total.
func forecastMovingAverage(prices []float64, horizon, window int) ([]float64, error) {
	if len(prices) == 0 {
		return nil, ErrEmptySeries
	}
	if window < 1 {
		window = 1
	}

	start := len(prices) - window
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, p := range prices[start:] {
		sum += p
	}
	mean := sum / float64(len(prices)-start)

	forecast := make([]float64, horizon)
	for i := range forecast {
		forecast[i] = mean
	}
	return forecast, nil
}
