package modelselection

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/core/model"
	"github.com/YuminosukeSato/brainage/metrics"
	"github.com/YuminosukeSato/brainage/pkg/errors"
)

// DefaultCGrid is the regularisation grid searched for the SVR models,
// C in {2^-7, 2^-5, 2^-3, 2^-1, 2^0, 2^1, 2^3, 2^5, 2^7}.
func DefaultCGrid() []float64 {
	return []float64{
		0.0078125, // 2^-7
		0.03125,   // 2^-5
		0.125,     // 2^-3
		0.5,       // 2^-1
		1,
		2,
		8,   // 2^3
		32,  // 2^5
		128, // 2^7
	}
}

// GridSearchCV selects the candidate parameter with the lowest mean absolute
// error across the inner cross-validation folds and refits it on the full
// training data.
type GridSearchCV struct {
	// Candidates is the parameter grid.
	Candidates []float64

	// Build constructs a fresh estimator for a candidate value.
	Build func(param float64) model.Regressor

	// CV is the inner splitter (the sweeps use 5-fold, shuffled, seeded by
	// the bootstrap index).
	CV *KFold

	// Precomputed marks X as a square kernel matrix, requiring block
	// selection instead of row selection when splitting folds.
	Precomputed bool

	// Fitted results.
	BestParam     float64
	BestScore     float64 // mean MAE of the winning candidate
	BestEstimator model.Regressor
}

// Fit runs the search and refits the best candidate on all of X, y.
func (g *GridSearchCV) Fit(X mat.Matrix, y *mat.VecDense) error {
	if len(g.Candidates) == 0 {
		return errors.NewValueError("GridSearchCV.Fit", "no parameter candidates")
	}
	if g.Build == nil {
		return errors.NewValueError("GridSearchCV.Fit", "no estimator builder")
	}
	if g.CV == nil {
		g.CV = NewKFold(5, true, 0)
	}

	n, _ := X.Dims()
	if n != y.Len() {
		return errors.NewDimensionError("GridSearchCV.Fit", n, y.Len(), 0)
	}

	folds, err := g.CV.Split(n)
	if err != nil {
		return err
	}

	best := -1
	bestMAE := 0.0
	for ci, c := range g.Candidates {
		var sum float64
		var nScored int
		for _, fold := range folds {
			var xTrain, xTest mat.Matrix
			if g.Precomputed {
				xTrain = SelectBlock(X, fold.TrainIndices, fold.TrainIndices)
				xTest = SelectBlock(X, fold.TestIndices, fold.TrainIndices)
			} else {
				xTrain = SelectRows(X, fold.TrainIndices)
				xTest = SelectRows(X, fold.TestIndices)
			}
			yTrain := SelectVec(y, fold.TrainIndices)
			yTest := SelectVec(y, fold.TestIndices)

			est := g.Build(c)
			if err := est.Fit(xTrain, yTrain); err != nil {
				return errors.Wrapf(err, "grid search fold fit failed for C=%g", c)
			}
			pred, err := est.Predict(xTest)
			if err != nil {
				return errors.Wrapf(err, "grid search fold predict failed for C=%g", c)
			}
			mae, err := metrics.MAE(yTest, pred)
			if err != nil {
				return err
			}
			sum += mae
			nScored++
		}

		meanMAE := sum / float64(nScored)
		if best < 0 || meanMAE < bestMAE {
			best = ci
			bestMAE = meanMAE
		}
	}

	g.BestParam = g.Candidates[best]
	g.BestScore = bestMAE
	g.BestEstimator = g.Build(g.BestParam)
	if err := g.BestEstimator.Fit(X, y); err != nil {
		return errors.Wrapf(err, "grid search refit failed for C=%g", g.BestParam)
	}
	return nil
}
