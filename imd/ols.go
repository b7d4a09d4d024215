// Package imd assesses the relationship between brain-age prediction error
// and the English Index of Multiple Deprivation (IMD) variables.
package imd

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/brainage/pkg/errors"
)

// OLSResult holds the fit of a simple linear regression y = alpha + beta*x.
type OLSResult struct {
	Alpha  float64 // intercept
	Beta   float64 // slope
	PValue float64 // two-sided p-value of the slope under H0: beta=0
	N      int
}

// OLS fits an ordinary least squares regression of y on x and tests the
// slope against zero with a t test on n-2 degrees of freedom.
func OLS(x, y []float64) (OLSResult, error) {
	if len(x) != len(y) {
		return OLSResult{}, errors.NewDimensionError("imd.OLS", len(x), len(y), 0)
	}
	n := len(x)
	if n < 3 {
		return OLSResult{}, errors.NewValueError("imd.OLS", "need at least 3 observations")
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)

	xMean := stat.Mean(x, nil)
	var rss, sxx float64
	for i := range x {
		resid := y[i] - alpha - beta*x[i]
		rss += resid * resid
		dx := x[i] - xMean
		sxx += dx * dx
	}
	if sxx == 0 {
		return OLSResult{}, errors.NewValueError("imd.OLS", "regressor is constant")
	}

	dof := float64(n - 2)
	se := math.Sqrt(rss / dof / sxx)

	p := 1.0
	if se > 0 {
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
		p = 2 * t.Survival(math.Abs(beta/se))
	} else if beta != 0 {
		p = 0
	}

	return OLSResult{Alpha: alpha, Beta: beta, PValue: p, N: n}, nil
}
