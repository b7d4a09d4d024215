package modelselection

import (
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestKFoldSplitPartition(t *testing.T) {
	tests := []struct {
		name     string
		nSplits  int
		nSamples int
		shuffle  bool
	}{
		{name: "even split", nSplits: 5, nSamples: 100, shuffle: false},
		{name: "uneven split", nSplits: 10, nSamples: 103, shuffle: false},
		{name: "shuffled", nSplits: 5, nSamples: 47, shuffle: true},
		{name: "fold per pair", nSplits: 2, nSamples: 4, shuffle: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kf := NewKFold(tt.nSplits, tt.shuffle, 42)
			folds, err := kf.Split(tt.nSamples)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}

			if len(folds) != tt.nSplits {
				t.Fatalf("got %d folds, want %d", len(folds), tt.nSplits)
			}

			seen := make([]int, 0, tt.nSamples)
			for _, fold := range folds {
				if len(fold.TrainIndices)+len(fold.TestIndices) != tt.nSamples {
					t.Errorf("train+test = %d, want %d",
						len(fold.TrainIndices)+len(fold.TestIndices), tt.nSamples)
				}
				inTrain := make(map[int]bool, len(fold.TrainIndices))
				for _, i := range fold.TrainIndices {
					inTrain[i] = true
				}
				for _, i := range fold.TestIndices {
					if inTrain[i] {
						t.Errorf("index %d in both train and test", i)
					}
				}
				seen = append(seen, fold.TestIndices...)
			}

			// Test folds partition the whole sample.
			sort.Ints(seen)
			if len(seen) != tt.nSamples {
				t.Fatalf("test folds cover %d samples, want %d", len(seen), tt.nSamples)
			}
			for i, v := range seen {
				if v != i {
					t.Fatalf("test folds are not a partition: position %d holds %d", i, v)
				}
			}
		})
	}
}

func TestKFoldTooFewSamples(t *testing.T) {
	// Fewer samples than folds would leave empty test folds; that must be a
	// structured error, not a downstream matrix panic.
	if _, err := NewKFold(5, true, 1).Split(3); err == nil {
		t.Fatal("Split() with nSamples < NSplits should fail")
	}
	if _, err := NewKFold(5, false, 0).Split(5); err != nil {
		t.Errorf("Split() with nSamples == NSplits error = %v", err)
	}
}

func TestKFoldDeterministic(t *testing.T) {
	a, err := NewKFold(5, true, 7).Split(50)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewKFold(5, true, 7).Split(50)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		for j := range a[i].TestIndices {
			if a[i].TestIndices[j] != b[i].TestIndices[j] {
				t.Fatal("same seed produced different splits")
			}
		}
	}

	c, err := NewKFold(5, true, 8).Split(50)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range a {
		for j := range a[i].TestIndices {
			if a[i].TestIndices[j] != c[i].TestIndices[j] {
				same = false
			}
		}
	}
	if same {
		t.Error("different seeds produced identical splits")
	}
}

func TestKFoldFoldSizes(t *testing.T) {
	// 103 samples in 10 folds: the first 3 test folds get 11, the rest 10.
	folds, err := NewKFold(10, false, 0).Split(103)
	if err != nil {
		t.Fatal(err)
	}
	for i, fold := range folds {
		want := 10
		if i < 3 {
			want = 11
		}
		if len(fold.TestIndices) != want {
			t.Errorf("fold %d test size = %d, want %d", i, len(fold.TestIndices), want)
		}
	}
}

func TestSelectRows(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
		7, 8,
	})
	got := SelectRows(X, []int{3, 1})
	want := mat.NewDense(2, 2, []float64{7, 8, 3, 4})
	if !mat.Equal(got, want) {
		t.Errorf("SelectRows() = %v, want %v", mat.Formatted(got), mat.Formatted(want))
	}
}

func TestSelectBlock(t *testing.T) {
	K := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	got := SelectBlock(K, []int{2}, []int{0, 1})
	want := mat.NewDense(1, 2, []float64{7, 8})
	if !mat.Equal(got, want) {
		t.Errorf("SelectBlock() = %v, want %v", mat.Formatted(got), mat.Formatted(want))
	}
}

func TestSelectVec(t *testing.T) {
	y := mat.NewVecDense(4, []float64{10, 20, 30, 40})
	got := SelectVec(y, []int{2, 0})
	if got.AtVec(0) != 30 || got.AtVec(1) != 10 {
		t.Errorf("SelectVec() = %v", mat.Formatted(got))
	}
}
