// Package gpr implements Gaussian process regression with the DotProduct
// kernel k(x, z) = sigma0^2 + x.z, the configuration the FreeSurfer
// sample-size analysis trains. With this kernel the posterior mean is a
// Bayesian linear model, so the fit is a single Cholesky solve.
package gpr

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/core/model"
	"github.com/YuminosukeSato/brainage/metrics"
	"github.com/YuminosukeSato/brainage/pkg/errors"
)

// GPR is a Gaussian process regressor with a DotProduct kernel.
type GPR struct {
	model.BaseEstimator

	// Sigma0 is the kernel inhomogeneity parameter; k(x,z) = Sigma0^2 + x.z.
	Sigma0 float64

	// Alpha is the value added to the kernel diagonal during fitting,
	// acting as observation noise and numerical jitter.
	Alpha float64

	// NormalizeY centers the targets before fitting.
	NormalizeY bool

	// Fitted parameters.
	Dual      []float64 // (K + alpha*I)^-1 (y - yMean)
	YMean     float64
	NTrain    int
	NFeatures int
	XTrain    []float64 // row-major training features
	LFactor   []float64 // lower Cholesky factor of K + alpha*I, row-major
}

// New creates a GPR with the scikit-learn defaults (sigma_0=1, alpha=1e-10).
func New() *GPR {
	return &GPR{Sigma0: 1.0, Alpha: 1e-10}
}

// Fit computes the posterior over the training data.
func (g *GPR) Fit(X mat.Matrix, y *mat.VecDense) error {
	n, c := X.Dims()
	if n == 0 || c == 0 {
		return errors.NewModelError("GPR.Fit", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != n {
		return errors.NewDimensionError("GPR.Fit", n, y.Len(), 0)
	}

	gram := mat.NewDense(n, n, nil)
	gram.Mul(X, X.T())

	s0 := g.Sigma0 * g.Sigma0
	K := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := gram.At(i, j) + s0
			if i == j {
				v += g.Alpha
			}
			K.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(K) {
		return errors.NewModelError("GPR.Fit", "kernel matrix not positive definite", errors.ErrSingularMatrix)
	}

	yMean := 0.0
	if g.NormalizeY {
		for i := 0; i < n; i++ {
			yMean += y.AtVec(i)
		}
		yMean /= float64(n)
	}

	target := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		target.SetVec(i, y.AtVec(i)-yMean)
	}

	dual := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(dual, target); err != nil {
		return errors.NewModelError("GPR.Fit", "solve failed", err)
	}

	var lower mat.TriDense
	chol.LTo(&lower)

	g.NTrain = n
	g.NFeatures = c
	g.YMean = yMean
	g.Dual = make([]float64, n)
	copy(g.Dual, dual.RawVector().Data)
	g.XTrain = make([]float64, n*c)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			g.XTrain[i*c+j] = X.At(i, j)
		}
	}
	g.LFactor = make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			g.LFactor[i*n+j] = lower.At(i, j)
		}
	}

	g.SetFitted()
	return nil
}

// Predict returns the posterior mean at X.
func (g *GPR) Predict(X mat.Matrix) (*mat.VecDense, error) {
	pred, _, err := g.predict(X, false)
	return pred, err
}

// PredictWithStd returns the posterior mean and standard deviation at X.
func (g *GPR) PredictWithStd(X mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	return g.predict(X, true)
}

func (g *GPR) predict(X mat.Matrix, withStd bool) (*mat.VecDense, *mat.VecDense, error) {
	if !g.IsFitted() {
		return nil, nil, errors.NewNotFittedError("GPR", "Predict")
	}

	m, c := X.Dims()
	if c != g.NFeatures {
		return nil, nil, errors.NewDimensionError("GPR.Predict", g.NFeatures, c, 1)
	}

	xTrain := mat.NewDense(g.NTrain, g.NFeatures, g.XTrain)
	s0 := g.Sigma0 * g.Sigma0

	kStar := mat.NewDense(m, g.NTrain, nil)
	kStar.Mul(X, xTrain.T())
	kStar.Apply(func(_, _ int, v float64) float64 { return v + s0 }, kStar)

	mean := mat.NewVecDense(m, nil)
	mean.MulVec(kStar, mat.NewVecDense(g.NTrain, g.Dual))
	for i := 0; i < m; i++ {
		mean.SetVec(i, mean.AtVec(i)+g.YMean)
	}

	if !withStd {
		return mean, nil, nil
	}

	// var(x) = k(x,x) - ||L^-1 k*||^2, computed per test point by forward
	// substitution against the stored factor.
	std := mat.NewVecDense(m, nil)
	v := make([]float64, g.NTrain)
	for i := 0; i < m; i++ {
		for j := 0; j < g.NTrain; j++ {
			v[j] = kStar.At(i, j)
		}
		forwardSolve(g.LFactor, v, g.NTrain)

		var selfDot float64
		for j := 0; j < c; j++ {
			selfDot += X.At(i, j) * X.At(i, j)
		}
		variance := selfDot + s0
		for j := 0; j < g.NTrain; j++ {
			variance -= v[j] * v[j]
		}
		if variance < 0 {
			variance = 0
		}
		std.SetVec(i, math.Sqrt(variance))
	}
	return mean, std, nil
}

// forwardSolve solves L v' = v in place for lower triangular L.
func forwardSolve(l []float64, v []float64, n int) {
	for i := 0; i < n; i++ {
		sum := v[i]
		for j := 0; j < i; j++ {
			sum -= l[i*n+j] * v[j]
		}
		v[i] = sum / l[i*n+i]
	}
}

// Score returns the coefficient of determination R^2 on the given data.
func (g *GPR) Score(X mat.Matrix, y *mat.VecDense) (float64, error) {
	pred, err := g.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2(y, pred)
}
