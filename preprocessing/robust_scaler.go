// Package preprocessing provides the feature scalers applied to the
// TIV-normalised regional volumes before model fitting.
package preprocessing

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/brainage/core/model"
	"github.com/YuminosukeSato/brainage/pkg/errors"
)

// RobustScaler centers features on the median and scales by the
// interquartile range, making the scaling insensitive to the outlier
// volumes that survive quality control.
type RobustScaler struct {
	model.BaseEstimator

	// Center holds the per-feature median.
	Center []float64

	// Scale holds the per-feature quantile range.
	Scale []float64

	// NFeatures is the number of features seen during Fit.
	NFeatures int

	// WithCentering subtracts the median when true (default).
	WithCentering bool

	// WithScaling divides by the quantile range when true (default).
	WithScaling bool

	// QuantileMin and QuantileMax bound the quantile range (default 0.25, 0.75).
	QuantileMin float64
	QuantileMax float64
}

// NewRobustScaler creates a RobustScaler with the default quantile range.
func NewRobustScaler() *RobustScaler {
	return &RobustScaler{
		WithCentering: true,
		WithScaling:   true,
		QuantileMin:   0.25,
		QuantileMax:   0.75,
	}
}

// Fit computes the per-feature median and quantile range.
func (s *RobustScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("RobustScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if s.QuantileMin >= s.QuantileMax {
		return errors.NewValueError("RobustScaler.Fit", "quantile range must satisfy min < max")
	}

	s.NFeatures = c
	s.Center = make([]float64, c)
	s.Scale = make([]float64, c)

	column := make([]float64, r)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			column[i] = X.At(i, j)
		}
		sort.Float64s(column)

		if s.WithCentering {
			s.Center[j] = stat.Quantile(0.5, stat.LinInterp, column, nil)
		}

		if s.WithScaling {
			q1 := stat.Quantile(s.QuantileMin, stat.LinInterp, column, nil)
			q3 := stat.Quantile(s.QuantileMax, stat.LinInterp, column, nil)
			iqr := q3 - q1
			if iqr < 1e-12 {
				// Constant feature: leave it unscaled.
				iqr = 1.0
			}
			s.Scale[j] = iqr
		} else {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform applies the fitted centering and scaling.
func (s *RobustScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("RobustScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("RobustScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Center[j])/s.Scale[j])
		}
	}
	return result, nil
}

// FitTransform fits the scaler and transforms the same data.
func (s *RobustScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps scaled data back to the original feature space.
func (s *RobustScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("RobustScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("RobustScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Center[j])
		}
	}
	return result, nil
}
