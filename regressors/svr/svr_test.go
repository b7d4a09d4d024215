package svr

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/core/model"
)

func linearData(n int) (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1) * 10
		X.Set(i, 0, x)
		y.SetVec(i, 2*x+1)
	}
	return X, y
}

func TestSVRFitLinear(t *testing.T) {
	X, y := linearData(20)

	reg := New(KernelLinear).WithC(10)
	if err := reg.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := reg.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i := 0; i < y.Len(); i++ {
		// Predictions only need to land inside the epsilon tube.
		if diff := math.Abs(pred.AtVec(i) - y.AtVec(i)); diff > reg.Epsilon+0.2 {
			t.Errorf("prediction %d off by %v", i, diff)
		}
	}

	r2, err := reg.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if r2 < 0.99 {
		t.Errorf("Score() = %v, want > 0.99", r2)
	}
	if reg.NSupport() == 0 {
		t.Error("fitted model has no support vectors")
	}
}

func TestSVRPrecomputedMatchesLinear(t *testing.T) {
	X, y := linearData(15)

	linear := New(KernelLinear).WithC(5)
	if err := linear.Fit(X, y); err != nil {
		t.Fatalf("linear Fit() error = %v", err)
	}

	n, _ := X.Dims()
	K := mat.NewDense(n, n, nil)
	K.Mul(X, X.T())

	precomp := New(KernelPrecomputed).WithC(5)
	if err := precomp.Fit(K, y); err != nil {
		t.Fatalf("precomputed Fit() error = %v", err)
	}

	predLinear, err := linear.Predict(X)
	if err != nil {
		t.Fatalf("linear Predict() error = %v", err)
	}
	predPrecomp, err := precomp.Predict(K)
	if err != nil {
		t.Fatalf("precomputed Predict() error = %v", err)
	}
	if !mat.EqualApprox(predLinear, predPrecomp, 1e-8) {
		t.Errorf("kernel modes disagree:\n%v\n%v",
			mat.Formatted(predLinear.T()), mat.Formatted(predPrecomp.T()))
	}
}

func TestSVRAllInsideTube(t *testing.T) {
	// Constant targets fit inside the tube with beta = 0; the bias falls back
	// to the mean residual.
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewVecDense(4, []float64{5, 5, 5, 5})

	reg := New(KernelLinear)
	if err := reg.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	pred, err := reg.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i := 0; i < 4; i++ {
		if math.Abs(pred.AtVec(i)-5) > reg.Epsilon+1e-6 {
			t.Errorf("prediction %d = %v, want within the tube around 5", i, pred.AtVec(i))
		}
	}
}

func TestSVRValidation(t *testing.T) {
	X, y := linearData(10)

	notFitted := New(KernelLinear)
	if _, err := notFitted.Predict(X); err == nil {
		t.Error("Predict() before Fit should fail")
	}

	badC := New(KernelLinear).WithC(-1)
	if err := badC.Fit(X, y); err == nil {
		t.Error("Fit() with negative C should fail")
	}

	mismatch := New(KernelLinear)
	if err := mismatch.Fit(X, mat.NewVecDense(3, nil)); err == nil {
		t.Error("Fit() with mismatched y should fail")
	}

	// Precomputed training kernels must be square.
	rect := New(KernelPrecomputed)
	if err := rect.Fit(mat.NewDense(4, 3, nil), mat.NewVecDense(4, nil)); err == nil {
		t.Error("Fit() with rectangular precomputed kernel should fail")
	}
}

func TestSVRGobRoundtrip(t *testing.T) {
	X, y := linearData(12)

	reg := New(KernelLinear).WithC(10)
	if err := reg.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	path := t.TempDir() + "/svr.gob"
	if err := model.Save(reg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	restored := &SVR{}
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
