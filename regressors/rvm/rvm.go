// Package rvm implements relevance vector regression (Tipping's sparse
// Bayesian learning) fitted by expectation-maximisation, the EMRVR estimator
// the voxel-level sample-size analysis trains on precomputed kernels.
package rvm

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/brainage/core/model"
	"github.com/YuminosukeSato/brainage/metrics"
	"github.com/YuminosukeSato/brainage/pkg/errors"
)

// Kernel selects how Fit and Predict interpret X.
type Kernel string

const (
	// KernelLinear treats X as an (n x features) matrix.
	KernelLinear Kernel = "linear"
	// KernelPrecomputed treats X as a Gram matrix: (n x n) for Fit,
	// (m x n_train) for Predict.
	KernelPrecomputed Kernel = "precomputed"
)

// biasIndex marks the bias basis function in the active set.
const biasIndex = -1

// EMRVR is a relevance vector machine for regression.
type EMRVR struct {
	model.BaseEstimator

	Kernel Kernel

	// MaxIter bounds the EM iterations.
	MaxIter int

	// Tol is the convergence threshold on the largest change in the
	// per-basis precisions.
	Tol float64

	// ThresholdAlpha prunes basis functions whose precision exceeds it.
	ThresholdAlpha float64

	// Fitted parameters.
	ActiveIdx []int     // training-basis indices of retained vectors, biasIndex for the bias
	Weights   []float64 // posterior mean weights, aligned with ActiveIdx
	Beta      float64   // noise precision
	NTrain    int
	NFeatures int
	XTrain    []float64 // row-major training features, linear kernel only
}

// New creates an EMRVR with the library defaults.
func New(kernel Kernel) *EMRVR {
	return &EMRVR{
		Kernel:         kernel,
		MaxIter:        3000,
		Tol:            1e-3,
		ThresholdAlpha: 1e9,
	}
}

// Fit runs EM updates of the basis precisions and noise precision until the
// precisions stabilise, pruning basis functions as they are driven out.
func (r *EMRVR) Fit(X mat.Matrix, y *mat.VecDense) error {
	n, c := X.Dims()
	if n == 0 || c == 0 {
		return errors.NewModelError("EMRVR.Fit", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != n {
		return errors.NewDimensionError("EMRVR.Fit", n, y.Len(), 0)
	}
	if r.Kernel == KernelPrecomputed && c != n {
		return errors.NewDimensionError("EMRVR.Fit", n, c, 1)
	}

	K, err := r.trainKernel(X, n)
	if err != nil {
		return err
	}

	// Design matrix: kernel columns plus a bias column.
	nBasis := n + 1
	phi := mat.NewDense(n, nBasis, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			phi.Set(i, j, K.At(i, j))
		}
		phi.Set(i, n, 1.0)
	}

	active := make([]int, nBasis)
	alpha := make([]float64, nBasis)
	initAlpha := 1.0 / float64(nBasis*nBasis)
	for j := 0; j < nBasis; j++ {
		active[j] = j
		alpha[j] = initAlpha
	}

	yData := make([]float64, n)
	for i := 0; i < n; i++ {
		yData[i] = y.AtVec(i)
	}
	yVar := stat.Variance(yData, nil)
	if yVar < 1e-12 {
		yVar = 1.0
	}
	beta := 1.0 / (0.1 * yVar)

	var mu []float64
	converged := false
	for iter := 0; iter < r.MaxIter; iter++ {
		ma := len(active)
		phiA := activeColumns(phi, active, n)

		// Posterior: Sigma = (beta Phi^T Phi + diag(alpha))^-1,
		// mu = beta Sigma Phi^T y.
		var gramA mat.Dense
		gramA.Mul(phiA.T(), phiA)

		B := mat.NewSymDense(ma, nil)
		for i := 0; i < ma; i++ {
			for j := i; j < ma; j++ {
				v := beta * gramA.At(i, j)
				if i == j {
					v += alpha[i]
				}
				B.SetSym(i, j, v)
			}
		}

		var chol mat.Cholesky
		if !chol.Factorize(B) {
			return errors.NewModelError("EMRVR.Fit", "posterior precision not positive definite", errors.ErrSingularMatrix)
		}
		var sigma mat.SymDense
		if err := chol.InverseTo(&sigma); err != nil {
			return errors.NewModelError("EMRVR.Fit", "posterior inverse failed", err)
		}

		phiTy := mat.NewVecDense(ma, nil)
		phiTy.MulVec(phiA.T(), y)
		muVec := mat.NewVecDense(ma, nil)
		muVec.MulVec(&sigma, phiTy)
		muVec.ScaleVec(beta, muVec)

		// M step: alpha_i = gamma_i / mu_i^2, beta = (n - sum gamma) / ||y - Phi mu||^2.
		gammaSum := 0.0
		newAlpha := make([]float64, ma)
		for i := 0; i < ma; i++ {
			gamma := 1.0 - alpha[i]*sigma.At(i, i)
			gammaSum += gamma
			m2 := muVec.AtVec(i) * muVec.AtVec(i)
			if m2 < 1e-24 {
				newAlpha[i] = math.Inf(1)
				continue
			}
			newAlpha[i] = gamma / m2
		}

		resid := mat.NewVecDense(n, nil)
		resid.MulVec(phiA, muVec)
		var rss float64
		for i := 0; i < n; i++ {
			d := yData[i] - resid.AtVec(i)
			rss += d * d
		}
		if rss < 1e-24 {
			rss = 1e-24
		}
		denom := float64(n) - gammaSum
		if denom < 1e-12 {
			denom = 1e-12
		}
		beta = denom / rss

		maxDelta := 0.0
		for i := 0; i < ma; i++ {
			if math.IsInf(newAlpha[i], 1) {
				continue
			}
			delta := math.Abs(newAlpha[i]-alpha[i]) / (1.0 + math.Abs(alpha[i]))
			if delta > maxDelta {
				maxDelta = delta
			}
		}

		// Prune basis functions driven out of the model.
		keptActive := active[:0]
		keptAlpha := alpha[:0]
		keptMu := make([]float64, 0, ma)
		for i := 0; i < ma; i++ {
			if newAlpha[i] > r.ThresholdAlpha {
				continue
			}
			keptActive = append(keptActive, active[i])
			keptAlpha = append(keptAlpha, newAlpha[i])
			keptMu = append(keptMu, muVec.AtVec(i))
		}
		if len(keptActive) == 0 {
			// Degenerate pruning: retain the heaviest basis function.
			best := 0
			for i := 1; i < ma; i++ {
				if math.Abs(muVec.AtVec(i)) > math.Abs(muVec.AtVec(best)) {
					best = i
				}
			}
			keptActive = append(keptActive, active[best])
			keptAlpha = append(keptAlpha, r.ThresholdAlpha)
			keptMu = append(keptMu, muVec.AtVec(best))
		}
		active = keptActive
		alpha = keptAlpha
		mu = keptMu

		if maxDelta < r.Tol {
			converged = true
			break
		}
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("EMRVR", r.MaxIter, ""))
	}

	r.ActiveIdx = make([]int, len(active))
	for i, a := range active {
		if a == n {
			r.ActiveIdx[i] = biasIndex
		} else {
			r.ActiveIdx[i] = a
		}
	}
	r.Weights = mu
	r.Beta = beta
	r.NTrain = n
	if r.Kernel == KernelLinear {
		r.NFeatures = c
		r.XTrain = make([]float64, n*c)
		for i := 0; i < n; i++ {
			for j := 0; j < c; j++ {
				r.XTrain[i*c+j] = X.At(i, j)
			}
		}
	}

	r.SetFitted()
	return nil
}

func (r *EMRVR) trainKernel(X mat.Matrix, n int) (*mat.Dense, error) {
	K := mat.NewDense(n, n, nil)
	switch r.Kernel {
	case KernelPrecomputed:
		K.Copy(X)
		return K, nil
	case KernelLinear:
		K.Mul(X, X.T())
		return K, nil
	default:
		return nil, errors.NewValueError("EMRVR.Fit", "unknown kernel "+string(r.Kernel))
	}
}

func activeColumns(phi *mat.Dense, active []int, n int) *mat.Dense {
	out := mat.NewDense(n, len(active), nil)
	for j, a := range active {
		for i := 0; i < n; i++ {
			out.Set(i, j, phi.At(i, a))
		}
	}
	return out
}

// Predict returns the posterior mean prediction for X.
func (r *EMRVR) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("EMRVR", "Predict")
	}

	m, c := X.Dims()
	var K mat.Matrix
	switch r.Kernel {
	case KernelPrecomputed:
		if c != r.NTrain {
			return nil, errors.NewDimensionError("EMRVR.Predict", r.NTrain, c, 1)
		}
		K = X
	case KernelLinear:
		if c != r.NFeatures {
			return nil, errors.NewDimensionError("EMRVR.Predict", r.NFeatures, c, 1)
		}
		xTrain := mat.NewDense(r.NTrain, r.NFeatures, r.XTrain)
		cross := mat.NewDense(m, r.NTrain, nil)
		cross.Mul(X, xTrain.T())
		K = cross
	default:
		return nil, errors.NewValueError("EMRVR.Predict", "unknown kernel "+string(r.Kernel))
	}

	out := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		var sum float64
		for j, a := range r.ActiveIdx {
			if a == biasIndex {
				sum += r.Weights[j]
				continue
			}
			sum += r.Weights[j] * K.At(i, a)
		}
		out.SetVec(i, sum)
	}
	return out, nil
}

// Score returns the coefficient of determination R^2 on the given data.
func (r *EMRVR) Score(X mat.Matrix, y *mat.VecDense) (float64, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2(y, pred)
}

// NRelevance returns the number of retained relevance vectors (excluding the
// bias term).
func (r *EMRVR) NRelevance() int {
	var n int
	for _, a := range r.ActiveIdx {
		if a != biasIndex {
			n++
		}
	}
	return n
}
