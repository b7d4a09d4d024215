package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSpearmanR(t *testing.T) {
	tests := []struct {
		name    string
		x       []float64
		y       []float64
		want    float64
		wantNaN bool
		wantErr bool
	}{
		{
			name: "perfect monotone",
			x:    []float64{1, 2, 3, 4, 5},
			y:    []float64{10, 20, 30, 40, 50},
			want: 1,
		},
		{
			name: "perfect inverse",
			x:    []float64{1, 2, 3, 4, 5},
			y:    []float64{50, 40, 30, 20, 10},
			want: -1,
		},
		{
			name: "nonlinear but monotone",
			x:    []float64{1, 2, 3, 4, 5},
			y:    []float64{1, 4, 9, 16, 25},
			want: 1,
		},
		{
			// scipy.stats.spearmanr([1, 2, 2, 3], [1, 2, 3, 4]) = 0.9486832...
			name: "ties averaged",
			x:    []float64{1, 2, 2, 3},
			y:    []float64{1, 2, 3, 4},
			want: 0.9486832980505138,
		},
		{
			// scipy.stats.spearmanr reports NaN, not an error.
			name:    "constant input",
			x:       []float64{1, 1, 1},
			y:       []float64{1, 2, 3},
			wantNaN: true,
		},
		{
			name:    "length mismatch",
			x:       []float64{1, 2},
			y:       []float64{1, 2, 3},
			wantErr: true,
		},
		{
			name:    "empty",
			x:       nil,
			y:       nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SpearmanR(tt.x, tt.y)
			if (err != nil) != tt.wantErr {
				t.Errorf("SpearmanR() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if tt.wantNaN {
				if !math.IsNaN(got) {
					t.Errorf("SpearmanR() = %v, want NaN", got)
				}
				return
			}
			if math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("SpearmanR() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAgeErrorCorrelation(t *testing.T) {
	// Errors grow strictly with age, so the rank correlation is 1.
	yTrue := mat.NewVecDense(5, []float64{50, 55, 60, 65, 70})
	yPred := mat.NewVecDense(5, []float64{50.1, 54.8, 60.5, 64.2, 71.2})

	got, err := AgeErrorCorrelation(yTrue, yPred)
	if err != nil {
		t.Fatalf("AgeErrorCorrelation() error = %v", err)
	}
	if math.Abs(got-1) > 1e-10 {
		t.Errorf("AgeErrorCorrelation() = %v, want 1", got)
	}
}

func TestSummarizeConstantErrors(t *testing.T) {
	// Identical absolute errors leave the rank correlation undefined; the
	// score vector records NaN and the summary still succeeds.
	yTrue := mat.NewVecDense(4, []float64{50, 55, 60, 65})
	yPred := mat.NewVecDense(4, []float64{51, 56, 61, 66})

	s, err := Summarize(yTrue, yPred)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !math.IsNaN(s.AgeErrorCorr) {
		t.Errorf("AgeErrorCorr = %v, want NaN", s.AgeErrorCorr)
	}
	if s.MAE != 1 {
		t.Errorf("MAE = %v, want 1", s.MAE)
	}
}
