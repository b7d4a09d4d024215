package model

import "gonum.org/v1/gonum/mat"

// Regressor is the contract shared by the age-prediction estimators
// (SVR, RVM, GPR). X is either a feature matrix or, for the voxel models,
// a precomputed kernel block.
type Regressor interface {
	Fit(X mat.Matrix, y *mat.VecDense) error
	Predict(X mat.Matrix) (*mat.VecDense, error)
	// Score returns the coefficient of determination R^2.
	Score(X mat.Matrix, y *mat.VecDense) (float64, error)
}

// Transformer is the contract for feature scalers.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
