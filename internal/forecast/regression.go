package forecast

import (
	"fmt"
	"math"
)

// forecastRegression fits ordinary least squares of price on the named
// covariates (plus an intercept) and projects the horizon by holding the
// most recent covariate row constant. It is an alternative model for
// segments with informative covariates, not part of the default ensemble.
func forecastRegression(ds Dataset, horizon int, columns []string) ([]float64, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("no feature columns supplied: %w", ErrModelFit)
	}
	rows, err := ds.FeatureMatrix(columns)
	if err != nil {
		return nil, err
	}
	n := len(rows)
	p := len(columns) + 1 // intercept
	if n <= p {
		return nil, fmt.Errorf("%d observations for %d coefficients: %w", n, p, ErrModelFit)
	}

	// Normal equations: (X'X) beta = X'y.
	xtx := make([][]float64, p)
	for i := range xtx {
		xtx[i] = make([]float64, p)
	}
	xty := make([]float64, p)
	for i, row := range rows {
		x := append([]float64{1}, row...)
		y := ds[i].Price
		for a := 0; a < p; a++ {
			for b := 0; b < p; b++ {
				xtx[a][b] += x[a] * x[b]
			}
			xty[a] += x[a] * y
		}
	}

	beta, err := solveLinearSystem(xtx, xty)
	if err != nil {
		return nil, err
	}

	last := append([]float64{1}, rows[n-1]...)
	var predicted float64
	for i, b := range beta {
		predicted += b * last[i]
	}

	forecast := make([]float64, horizon)
	for i := range forecast {
		forecast[i] = predicted
	}
	return forecast, nil
}

// solveLinearSystem solves Ax = b in place via Gaussian elimination with
// partial pivoting. Matrices here are tiny (covariate count plus one).
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular design matrix: %w", ErrModelFit)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}
