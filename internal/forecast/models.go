package forecast

// ModelKind names an ensemble member.
type ModelKind string

const (
	ModelAutoregressive       ModelKind = "autoregressive"
	ModelExponentialSmoothing ModelKind = "exponential-smoothing"
	ModelMovingAverage        ModelKind = "moving-average"
	ModelFeatureRegression    ModelKind = "feature-regression"
)

// ModelResult is the outcome of one model attempt. Fit failures are data,
// not control flow: the ensemble inspects which members succeeded instead of
// recovering from panics or swallowed exceptions.
type ModelResult struct {
	Kind     ModelKind
	Forecast []float64
	Err      error
}

// OK reports whether the attempt produced a usable forecast.
func (r ModelResult) OK() bool {
	return r.Err == nil
}

func attempt(kind ModelKind, forecast []float64, err error) ModelResult {
	if err != nil {
		return ModelResult{Kind: kind, Err: err}
	}
	return ModelResult{Kind: kind, Forecast: forecast}
}
