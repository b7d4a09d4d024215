package gpr

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/core/model"
)

func linearData(n int) (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		a := float64(i) / float64(n-1)
		b := float64(n-i) / float64(n)
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.SetVec(i, 3*a-2*b+1)
	}
	return X, y
}

func TestGPRFitLinear(t *testing.T) {
	// The DotProduct kernel spans linear functions plus a constant, so a
	// noiseless linear target is recovered almost exactly.
	X, y := linearData(20)

	reg := New()
	if err := reg.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := reg.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if !mat.EqualApprox(pred, y, 1e-4) {
		t.Errorf("Predict() = %v, want %v", mat.Formatted(pred.T()), mat.Formatted(y.T()))
	}

	r2, err := reg.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if r2 < 0.999 {
		t.Errorf("Score() = %v, want > 0.999", r2)
	}
}

func TestGPRPredictWithStd(t *testing.T) {
	X, y := linearData(10)

	reg := New()
	if err := reg.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	mean, std, err := reg.PredictWithStd(X)
	if err != nil {
		t.Fatalf("PredictWithStd() error = %v", err)
	}
	if mean.Len() != 10 || std.Len() != 10 {
		t.Fatalf("lengths = (%d, %d), want (10, 10)", mean.Len(), std.Len())
	}
	// At the training points the posterior collapses onto the data.
	for i := 0; i < std.Len(); i++ {
		if std.AtVec(i) < 0 || std.AtVec(i) > 1e-3 {
			t.Errorf("std[%d] = %v, want near 0", i, std.AtVec(i))
		}
	}
}

func TestGPRNormalizeY(t *testing.T) {
	X, y := linearData(15)
	// Shift targets far from zero; normalisation keeps the fit exact.
	shifted := mat.NewVecDense(y.Len(), nil)
	for i := 0; i < y.Len(); i++ {
		shifted.SetVec(i, y.AtVec(i)+70)
	}

	reg := New()
	reg.NormalizeY = true
	if err := reg.Fit(X, shifted); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if math.Abs(reg.YMean-vecMean(shifted)) > 1e-10 {
		t.Errorf("YMean = %v, want %v", reg.YMean, vecMean(shifted))
	}

	pred, err := reg.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if !mat.EqualApprox(pred, shifted, 1e-4) {
		t.Error("normalised fit does not reproduce the shifted targets")
	}
}

func vecMean(v *mat.VecDense) float64 {
	var sum float64
	for i := 0; i < v.Len(); i++ {
		sum += v.AtVec(i)
	}
	return sum / float64(v.Len())
}

func TestGPRValidation(t *testing.T) {
	X, _ := linearData(10)

	notFitted := New()
	if _, err := notFitted.Predict(X); err == nil {
		t.Error("Predict() before Fit should fail")
	}

	mismatch := New()
	if err := mismatch.Fit(X, mat.NewVecDense(3, nil)); err == nil {
		t.Error("Fit() with mismatched y should fail")
	}
}

func TestGPRGobRoundtrip(t *testing.T) {
	X, y := linearData(12)

	reg := New()
	if err := reg.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	path := t.TempDir() + "/gpr.gob"
	if err := model.Save(reg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	restored := &GPR{}
	if err := model.Load(restored, path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	orig, err := reg.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	rest, err := restored.Predict(X)
	if err != nil {
		t.Fatalf("restored Predict() error = %v", err)
	}
	if !mat.EqualApprox(orig, rest, 1e-12) {
		t.Error("restored model predicts differently")
	}
}
