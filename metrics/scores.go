package metrics

import "gonum.org/v1/gonum/mat"

// Scores is the four-value summary every pipeline stage persists per model
// fit, in the fixed artifact order [R2, MAE, RMSE, AgeErrorCorr].
type Scores struct {
	R2           float64
	MAE          float64
	RMSE         float64
	AgeErrorCorr float64
}

// Summarize computes the full score summary for a set of predictions.
func Summarize(yTrue, yPred *mat.VecDense) (Scores, error) {
	var s Scores
	var err error

	if s.R2, err = R2(yTrue, yPred); err != nil {
		return Scores{}, err
	}
	if s.MAE, err = MAE(yTrue, yPred); err != nil {
		return Scores{}, err
	}
	if s.RMSE, err = RMSE(yTrue, yPred); err != nil {
		return Scores{}, err
	}
	if s.AgeErrorCorr, err = AgeErrorCorrelation(yTrue, yPred); err != nil {
		return Scores{}, err
	}
	return s, nil
}

// Vector returns the scores in artifact order.
func (s Scores) Vector() []float64 {
	return []float64{s.R2, s.MAE, s.RMSE, s.AgeErrorCorr}
}
