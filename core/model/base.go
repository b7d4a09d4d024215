// Package model provides the estimator base type and model persistence shared
// by every regressor and transformer in the pipeline.
package model

// EstimatorState tracks whether an estimator has been fitted.
type EstimatorState int

const (
	// NotFitted marks an estimator that has not seen training data.
	NotFitted EstimatorState = iota
	// Fitted marks an estimator that has been trained.
	Fitted
)

// BaseEstimator is embedded by every estimator to carry its fitted state.
type BaseEstimator struct {
	State EstimatorState
}

// IsFitted reports whether the estimator has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the estimator to its unfitted state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}
