package preprocessing

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/core/model"
)

func TestRobustScalerFitTransform(t *testing.T) {
	// Column 1: median 3, IQR 2. Column 2: median 30, IQR 20.
	X := mat.NewDense(5, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
		5, 50,
	})

	scaler := NewRobustScaler()
	got, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	want := mat.NewDense(5, 2, []float64{
		-1, -1,
		-0.5, -0.5,
		0, 0,
		0.5, 0.5,
		1, 1,
	})
	if !mat.EqualApprox(got, want, 1e-10) {
		t.Errorf("FitTransform() = %v, want %v", mat.Formatted(got), mat.Formatted(want))
	}
}

func TestRobustScalerOutlierInsensitive(t *testing.T) {
	// The outlier must not move the median or the IQR.
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 1000})

	scaler := NewRobustScaler()
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if scaler.Center[0] != 3 {
		t.Errorf("Center = %v, want 3", scaler.Center[0])
	}
	if scaler.Scale[0] != 2 {
		t.Errorf("Scale = %v, want 2", scaler.Scale[0])
	}
}

func TestRobustScalerConstantFeature(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{7, 7, 7, 7})

	scaler := NewRobustScaler()
	got, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	for i := 0; i < 4; i++ {
		if got.At(i, 0) != 0 {
			t.Errorf("constant feature transformed to %v, want 0", got.At(i, 0))
		}
	}
}

func TestRobustScalerInverseTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1.2, -3.5,
		0.7, 2.2,
		-4.1, 0.3,
		2.8, 1.1,
	})

	scaler := NewRobustScaler()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	back, err := scaler.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform() error = %v", err)
	}
	if !mat.EqualApprox(back, X, 1e-10) {
		t.Errorf("InverseTransform() = %v, want %v", mat.Formatted(back), mat.Formatted(X))
	}
}

func TestRobustScalerNotFitted(t *testing.T) {
	scaler := NewRobustScaler()
	if _, err := scaler.Transform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Transform() before Fit should fail")
	}
}

func TestRobustScalerDimensionMismatch(t *testing.T) {
	scaler := NewRobustScaler()
	if err := scaler.Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := scaler.Transform(mat.NewDense(3, 3, nil)); err == nil {
		t.Error("Transform() with wrong feature count should fail")
	}
}

func TestRobustScalerGobRoundtrip(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{3, 1, 4, 1, 5})
	scaler := NewRobustScaler()
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	path := t.TempDir() + "/scaler.gob"
	if err := model.Save(scaler, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	restored := &RobustScaler{}
	if err := model.Load(restored, path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !restored.IsFitted() {
		t.Error("restored scaler is not fitted")
	}
	if restored.Center[0] != scaler.Center[0] || restored.Scale[0] != scaler.Scale[0] {
		t.Errorf("restored params = (%v, %v), want (%v, %v)",
			restored.Center[0], restored.Scale[0], scaler.Center[0], scaler.Scale[0])
	}

	orig, err := scaler.Transform(X)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	rest, err := restored.Transform(X)
	if err != nil {
		t.Fatalf("restored Transform() error = %v", err)
	}
	if !mat.EqualApprox(orig, rest, 1e-12) {
		t.Error("restored scaler transforms differently")
	}
}
