package imd

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/brainage/pkg/errors"
	"github.com/YuminosukeSato/brainage/pkg/log"
)

// DeltaColumn is the mean brain-age delta (predicted minus chronological age)
// and AbsDeltaColumn its absolute value, both precomputed in the demographics
// table.
const (
	DeltaColumn    = "Diff_age-m"
	AbsDeltaColumn = "AbsDiff_age-mean"
)

// Alpha is the significance level for flagging deprivation effects.
const Alpha = 0.05

// Variables lists the IMD deprivation columns, decile, rank and score per
// domain. The Barries_housing spelling follows the released IMD table.
var Variables = []string{
	"IMD_decile", "IMD_rank", "IMD_score",
	"Income_deprivation_decile", "Income_deprivation_rank", "Income_deprivation_score",
	"Employment_deprivation_decile", "Employment_deprivation_rank", "Employment_deprivation_score",
	"Education_deprivation_decile", "Education_deprivation_rank", "Education_deprivation_score",
	"Health_deprivation_decile", "Health_deprivation_rank", "Health_deprivation_score",
	"Crime_decile", "Crime_rank", "Crime_score",
	"Barries_housing_decile", "Barries_housing_rank", "Barries_housing_score",
	"Environment_deprivation_decile", "Environment_deprivation_rank", "Environment_deprivation_score",
	"Income_deprivation_aff_children_decile", "Income_deprivation_aff_children_rank", "Income_deprivation_aff_children_score",
	"Income_deprivation_aff_elder_decile", "Income_deprivation_aff_elder_rank", "Income_deprivation_aff_elder_score",
}

// ScoreVariables returns the subset of Variables holding continuous scores,
// the ones worth a scatter plot.
func ScoreVariables() []string {
	var scores []string
	for _, v := range Variables {
		if strings.HasSuffix(v, "_score") {
			scores = append(scores, v)
		}
	}
	return scores
}

// VariableResult is the OLS fit of the brain-age delta against one
// deprivation variable.
type VariableResult struct {
	Variable    string
	OLSResult
	Significant bool
}

// Table is the joined predictions-plus-demographics dataset, keyed by column
// name. Missing cells are NaN.
type Table struct {
	Columns map[string][]float64
	N       int
}

// LoadTable reads an age_predictions_demographics.csv. Non-numeric and empty
// cells load as NaN so each analysis can drop them per variable.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	if len(records) < 2 {
		return nil, errors.NewModelError("imd.LoadTable", "demographics table is empty", errors.ErrEmptyData)
	}

	header := records[0]
	t := &Table{Columns: make(map[string][]float64, len(header)), N: len(records) - 1}
	for j, name := range header {
		col := make([]float64, 0, t.N)
		for _, record := range records[1:] {
			v := math.NaN()
			if j < len(record) && record[j] != "" {
				if parsed, err := strconv.ParseFloat(record[j], 64); err == nil {
					v = parsed
				}
			}
			col = append(col, v)
		}
		t.Columns[name] = col
	}
	return t, nil
}

// pairedValues drops rows where either column is NaN.
func (t *Table) pairedValues(xCol, yCol string) (x, y []float64, err error) {
	xv, ok := t.Columns[xCol]
	if !ok {
		return nil, nil, errors.NewValueError("imd.Table", "missing column "+xCol)
	}
	yv, ok := t.Columns[yCol]
	if !ok {
		return nil, nil, errors.NewValueError("imd.Table", "missing column "+yCol)
	}
	for i := range xv {
		if math.IsNaN(xv[i]) || math.IsNaN(yv[i]) {
			continue
		}
		x = append(x, xv[i])
		y = append(y, yv[i])
	}
	return x, y, nil
}

// Analyze regresses the brain-age delta on every deprivation variable and
// flags slopes significant at Alpha.
func Analyze(t *Table) ([]VariableResult, error) {
	logger := log.L().With().Str("analysis", "imd").Logger()

	results := make([]VariableResult, 0, len(Variables))
	for _, v := range Variables {
		x, y, err := t.pairedValues(v, DeltaColumn)
		if err != nil {
			return nil, err
		}
		fit, err := OLS(x, y)
		if err != nil {
			return nil, errors.Wrapf(err, "OLS failed for %s", v)
		}

		r := VariableResult{Variable: v, OLSResult: fit, Significant: fit.PValue < Alpha}
		if r.Significant {
			logger.Info().
				Str("variable", v).
				Int("n", fit.N).
				Float64("p", fit.PValue).
				Float64("coef", fit.Beta).
				Msg("reject H0")
		}
		results = append(results, r)
	}
	return results, nil
}
