package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/brainage/pkg/errors"
)

// SpearmanR computes the Spearman rank correlation between x and y.
// Ties receive the average of the ranks they span, as in scipy.stats.spearmanr,
// and a constant input yields NaN the way scipy reports it, so a degenerate
// fold records an undefined correlation instead of aborting the sweep.
func SpearmanR(x, y []float64) (float64, error) {
	n := len(x)
	if n == 0 {
		return 0, errors.NewValueError("SpearmanR", "empty slice")
	}
	if len(y) != n {
		return 0, errors.NewDimensionError("SpearmanR", n, len(y), 0)
	}
	if n < 2 {
		return 0, errors.NewValueError("SpearmanR", "need at least two observations")
	}

	rx := averageRanks(x)
	ry := averageRanks(y)
	return stat.Correlation(rx, ry, nil), nil
}

// AgeErrorCorrelation is the bias statistic the study reports alongside each
// model fit: the Spearman correlation between |yTrue - yPred| and yTrue.
func AgeErrorCorrelation(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("AgeErrorCorrelation", n, yPred.Len(), 0)
	}

	absErr := make([]float64, n)
	age := make([]float64, n)
	for i := 0; i < n; i++ {
		absErr[i] = math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
		age[i] = yTrue.AtVec(i)
	}
	return SpearmanR(absErr, age)
}

func averageRanks(x []float64) []float64 {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		// 1-based ranks, tied values share the mean rank of their span.
		mean := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = mean
		}
		i = j + 1
	}
	return ranks
}
