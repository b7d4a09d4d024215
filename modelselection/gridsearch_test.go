package modelselection

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/core/model"
)

// constantRegressor predicts its parameter everywhere, so the candidate
// closest to the target mean wins the search.
type constantRegressor struct {
	value  float64
	fitted bool
}

func (c *constantRegressor) Fit(X mat.Matrix, y *mat.VecDense) error {
	c.fitted = true
	return nil
}

func (c *constantRegressor) Predict(X mat.Matrix) (*mat.VecDense, error) {
	n, _ := X.Dims()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetVec(i, c.value)
	}
	return out, nil
}

func (c *constantRegressor) Score(X mat.Matrix, y *mat.VecDense) (float64, error) {
	return 0, nil
}

func TestGridSearchCVPicksLowestMAE(t *testing.T) {
	n := 20
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.SetVec(i, 5)
	}

	search := &GridSearchCV{
		Candidates: []float64{1, 4.5, 10},
		Build: func(param float64) model.Regressor {
			return &constantRegressor{value: param}
		},
		CV: NewKFold(5, true, 3),
	}
	if err := search.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if search.BestParam != 4.5 {
		t.Errorf("BestParam = %v, want 4.5", search.BestParam)
	}
	if math.Abs(search.BestScore-0.5) > 1e-10 {
		t.Errorf("BestScore = %v, want 0.5", search.BestScore)
	}
	best, ok := search.BestEstimator.(*constantRegressor)
	if !ok || !best.fitted {
		t.Error("BestEstimator was not refitted on the full data")
	}
}

func TestGridSearchCVValidation(t *testing.T) {
	y := mat.NewVecDense(3, []float64{1, 2, 3})
	X := mat.NewDense(3, 1, []float64{1, 2, 3})

	noCandidates := &GridSearchCV{
		Build: func(float64) model.Regressor { return &constantRegressor{} },
	}
	if err := noCandidates.Fit(X, y); err == nil {
		t.Error("Fit() without candidates should fail")
	}

	noBuilder := &GridSearchCV{Candidates: []float64{1}}
	if err := noBuilder.Fit(X, y); err == nil {
		t.Error("Fit() without a builder should fail")
	}

	// Three samples cannot feed the default 5-fold inner CV.
	tooSmall := &GridSearchCV{
		Candidates: []float64{1},
		Build:      func(float64) model.Regressor { return &constantRegressor{} },
	}
	if err := tooSmall.Fit(X, y); err == nil {
		t.Error("Fit() with fewer samples than inner folds should fail")
	}
}

func TestDefaultCGrid(t *testing.T) {
	grid := DefaultCGrid()
	if len(grid) != 9 {
		t.Fatalf("grid size = %d, want 9", len(grid))
	}
	exponents := []float64{-7, -5, -3, -1, 0, 1, 3, 5, 7}
	for i, e := range exponents {
		if grid[i] != math.Pow(2, e) {
			t.Errorf("grid[%d] = %v, want 2^%v", i, grid[i], e)
		}
	}
}
