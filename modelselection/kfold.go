// Package modelselection provides the cross-validation splitter and the
// hyperparameter grid search driving the nested bootstrap/CV sweeps.
//
// KFold (not stratified) is used throughout because the bootstrap samples can
// hold very few participants per age year.
package modelselection

import (
	"fmt"
	"math/rand/v2"

	"github.com/YuminosukeSato/brainage/pkg/errors"
)

// Fold holds the train/test indices of a single cross-validation fold.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold is a k-fold cross-validation splitter.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a k-fold splitter.
func NewKFold(nSplits int, shuffle bool, seed uint64) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// Split partitions [0, nSamples) into NSplits folds. With Shuffle set, the
// permutation is drawn from a PCG seeded with Seed, so splits are
// reproducible per repetition/bootstrap index. Every fold must receive at
// least one test sample, so nSamples may not be smaller than NSplits.
func (kf *KFold) Split(nSamples int) ([]Fold, error) {
	if nSamples < kf.NSplits {
		return nil, errors.NewValueError("KFold.Split",
			fmt.Sprintf("cannot split %d samples into %d folds", nSamples, kf.NSplits))
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.Seed, kf.Seed))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	start := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		test := make([]int, testSize)
		copy(test, indices[start:start+testSize])

		train := make([]int, 0, nSamples-testSize)
		train = append(train, indices[:start]...)
		train = append(train, indices[start+testSize:]...)

		folds[i] = Fold{TrainIndices: train, TestIndices: test}
		start += testSize
	}
	return folds, nil
}
