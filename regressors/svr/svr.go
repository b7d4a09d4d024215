// Package svr implements epsilon-insensitive support vector regression.
//
// The dual problem is solved in the beta = alpha - alpha* parameterisation:
//
//	min  1/2 sum_ij beta_i beta_j K_ij + eps sum_i |beta_i| - sum_i y_i beta_i
//	s.t. sum_i beta_i = 0,  -C <= beta_i <= C
//
// by two-index SMO updates that move along e_i - e_j, which keeps the
// equality constraint satisfied. The epsilon kink is handled exactly by
// minimising the piecewise quadratic over its breakpoints.
//
// Two kernel modes are supported: "linear" for FreeSurfer feature matrices
// and "precomputed" for the voxel Gram matrices.
package svr

import (
	"math"

	"gonum.org/v1/gonum/mat"

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

// SVR is an epsilon-insensitive support vector regressor.
type SVR struct {
	model.BaseEstimator

	C       float64
	Epsilon float64
	Tol     float64
	MaxIter int
	Kernel  Kernel

	// Fitted parameters. Kept as plain slices so the estimator gob-encodes.
	Beta      []float64
	Bias      float64
	NTrain    int
	NFeatures int
	XTrain    []float64 // row-major training features, linear kernel only
}

// New creates an SVR with the library defaults (C=1, epsilon=0.1).
func New(kernel Kernel) *SVR {
	return &SVR{
		C:       1.0,
		Epsilon: 0.1,
		Tol:     1e-3,
		MaxIter: 1000,
		Kernel:  kernel,
	}
}

// WithC sets the box constraint.
func (s *SVR) WithC(c float64) *SVR {
	s.C = c
	return s
}

// Fit trains the regressor.
func (s *SVR) Fit(X mat.Matrix, y *mat.VecDense) error {
	n, c := X.Dims()
	if n == 0 || c == 0 {
		return errors.NewModelError("SVR.Fit", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != n {
		return errors.NewDimensionError("SVR.Fit", n, y.Len(), 0)
	}
	if s.C <= 0 {
		return errors.NewValueError("SVR.Fit", "C must be positive")
	}
	if s.Kernel == KernelPrecomputed && c != n {
		return errors.NewDimensionError("SVR.Fit", n, c, 1)
	}

	K, err := s.trainKernel(X, n, c)
	if err != nil {
		return err
	}

	beta := make([]float64, n)
	// fTilde_i = sum_k beta_k K_ik, maintained incrementally.
	fTilde := make([]float64, n)

	converged := false
	iter := 0
	for ; iter < s.MaxIter; iter++ {
		maxStep := 0.0
		for i := 0; i < n; i++ {
			j := s.selectPartner(i, n, fTilde, y)
			if j < 0 {
				continue
			}
			d := s.optimizePair(i, j, K, beta, fTilde, y)
			if d == 0 {
				continue
			}
			beta[i] += d
			beta[j] -= d
			for k := 0; k < n; k++ {
				fTilde[k] += d * (K.At(i, k) - K.At(j, k))
			}
			if a := math.Abs(d); a > maxStep {
				maxStep = a
			}
		}
		if maxStep < s.Tol {
			converged = true
			break
		}
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("SVR", s.MaxIter, ""))
	}

	s.Beta = beta
	s.Bias = s.computeBias(beta, fTilde, y, n)
	s.NTrain = n
	if s.Kernel == KernelLinear {
		s.NFeatures = c
		s.XTrain = make([]float64, n*c)
		for i := 0; i < n; i++ {
			for j := 0; j < c; j++ {
				s.XTrain[i*c+j] = X.At(i, j)
			}
		}
	}

	s.SetFitted()
	return nil
}

// trainKernel materialises the training Gram matrix.
func (s *SVR) trainKernel(X mat.Matrix, n, c int) (*mat.Dense, error) {
	switch s.Kernel {
	case KernelPrecomputed:
		K := mat.NewDense(n, n, nil)
		K.Copy(X)
		return K, nil
	case KernelLinear:
		K := mat.NewDense(n, n, nil)
		K.Mul(X, X.T())
		return K, nil
	default:
		return nil, errors.NewValueError("SVR.Fit", "unknown kernel "+string(s.Kernel))
	}
}

// selectPartner picks the index with the largest error gap to i, the usual
// maximal-violating-pair heuristic.
func (s *SVR) selectPartner(i, n int, fTilde []float64, y *mat.VecDense) int {
	ei := fTilde[i] - y.AtVec(i)
	best := -1
	bestGap := 0.0
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		gap := math.Abs(ei - (fTilde[j] - y.AtVec(j)))
		if gap > bestGap {
			bestGap = gap
			best = j
		}
	}
	return best
}

// optimizePair minimises the dual objective along beta + d*(e_i - e_j).
// The objective change is
//
//	phi(d) = 1/2 eta d^2 + G d + eps(|b_i+d| - |b_i|) + eps(|b_j-d| - |b_j|)
//
// with eta = K_ii + K_jj - 2 K_ij and G = E_i - E_j. The box on d follows
// from -C <= b_i+d, b_j-d <= C. phi is piecewise quadratic with breakpoints
// where b_i+d or b_j-d changes sign; the minimiser is found by evaluating
// the stationary point of each sign combination plus the breakpoints.
func (s *SVR) optimizePair(i, j int, K *mat.Dense, beta, fTilde []float64, y *mat.VecDense) float64 {
	eta := K.At(i, i) + K.At(j, j) - 2*K.At(i, j)
	if eta < 1e-12 {
		return 0
	}

	bi, bj := beta[i], beta[j]
	lo := math.Max(-s.C-bi, bj-s.C)
	hi := math.Min(s.C-bi, bj+s.C)
	if hi-lo < 1e-15 {
		return 0
	}

	g := (fTilde[i] - y.AtVec(i)) - (fTilde[j] - y.AtVec(j))
	eps := s.Epsilon

	phi := func(d float64) float64 {
		return 0.5*eta*d*d + g*d +
			eps*(math.Abs(bi+d)-math.Abs(bi)) +
			eps*(math.Abs(bj-d)-math.Abs(bj))
	}

	clamp := func(d float64) float64 {
		if d < lo {
			return lo
		}
		if d > hi {
			return hi
		}
		return d
	}

	candidates := []float64{lo, hi, clamp(-bi), clamp(bj)}
	for _, si := range []float64{-1, 1} {
		for _, sj := range []float64{-1, 1} {
			// Stationary point of the piece where sign(b_i+d)=si and
			// sign(b_j-d)=sj.
			candidates = append(candidates, clamp(-(g+eps*si-eps*sj)/eta))
		}
	}

	bestD := 0.0
	bestPhi := 0.0
	for _, d := range candidates {
		if v := phi(d); v < bestPhi-1e-15 {
			bestPhi = v
			bestD = d
		}
	}
	if math.Abs(bestD) < 1e-12 {
		return 0
	}
	return bestD
}

// computeBias recovers the intercept from the KKT conditions: for a free
// support vector (0 < |beta_i| < C) the point lies on the tube boundary, so
// b = y_i - fTilde_i - eps*sign(beta_i).
func (s *SVR) computeBias(beta, fTilde []float64, y *mat.VecDense, n int) float64 {
	const margin = 1e-8
	var sum float64
	var count int
	for i := 0; i < n; i++ {
		a := math.Abs(beta[i])
		if a > margin && a < s.C-margin {
			sum += y.AtVec(i) - fTilde[i] - s.Epsilon*sign(beta[i])
			count++
		}
	}
	if count > 0 {
		return sum / float64(count)
	}

	// No free vectors: fall back to all support vectors, then to the mean
	// residual (all-zero beta happens when y fits inside the tube).
	for i := 0; i < n; i++ {
		if math.Abs(beta[i]) > margin {
			sum += y.AtVec(i) - fTilde[i] - s.Epsilon*sign(beta[i])
			count++
		}
	}
	if count > 0 {
		return sum / float64(count)
	}
	for i := 0; i < n; i++ {
		sum += y.AtVec(i) - fTilde[i]
	}
	return sum / float64(n)
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// Predict returns the predicted targets for X.
func (s *SVR) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SVR", "Predict")
	}

	m, c := X.Dims()
	var K mat.Matrix
	switch s.Kernel {
	case KernelPrecomputed:
		if c != s.NTrain {
			return nil, errors.NewDimensionError("SVR.Predict", s.NTrain, c, 1)
		}
		K = X
	case KernelLinear:
		if c != s.NFeatures {
			return nil, errors.NewDimensionError("SVR.Predict", s.NFeatures, c, 1)
		}
		xTrain := mat.NewDense(s.NTrain, s.NFeatures, s.XTrain)
		cross := mat.NewDense(m, s.NTrain, nil)
		cross.Mul(X, xTrain.T())
		K = cross
	default:
		return nil, errors.NewValueError("SVR.Predict", "unknown kernel "+string(s.Kernel))
	}

	out := mat.NewVecDense(m, nil)
	beta := mat.NewVecDense(s.NTrain, s.Beta)
	out.MulVec(K, beta)
	for i := 0; i < m; i++ {
		out.SetVec(i, out.AtVec(i)+s.Bias)
	}
	return out, nil
}

// Score returns the coefficient of determination R^2 on the given data.
func (s *SVR) Score(X mat.Matrix, y *mat.VecDense) (float64, error) {
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2(y, pred)
}

// NSupport returns the number of support vectors of the fitted model.
func (s *SVR) NSupport() int {
	var n int
	for _, b := range s.Beta {
		if math.Abs(b) > 1e-8 {
			n++
		}
	}
	return n
}
