package experiment

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/dataset"
	"github.com/YuminosukeSato/brainage/pkg/errors"
)

// AgePredictions accumulates one prediction column per fitted model for a
// fixed cohort, and persists as the age_predictions.csv artifact: Image_ID,
// Age, then the model columns in insertion order.
type AgePredictions struct {
	ids     []string
	ages    []float64
	columns []string
	values  map[string][]float64
	index   map[string]int
}

// NewAgePredictions creates a prediction table for a cohort.
func NewAgePredictions(subjects []dataset.Demographics) *AgePredictions {
	p := &AgePredictions{
		ids:    make([]string, len(subjects)),
		ages:   make([]float64, len(subjects)),
		values: make(map[string][]float64),
		index:  make(map[string]int, len(subjects)),
	}
	for i, s := range subjects {
		p.ids[i] = s.ImageID
		p.ages[i] = s.Age
		p.index[s.ImageID] = i
	}
	return p
}

// Set stores a full prediction column.
func (p *AgePredictions) Set(column string, preds *mat.VecDense) error {
	if preds.Len() != len(p.ids) {
		return errors.NewDimensionError("AgePredictions.Set", len(p.ids), preds.Len(), 0)
	}
	col := make([]float64, preds.Len())
	for i := range col {
		col[i] = preds.AtVec(i)
	}
	p.add(column, col)
	return nil
}

// SetPartial stores predictions for a subset of subjects (the held-out fold),
// leaving the rest of the column untouched. Missing entries stay NaN.
func (p *AgePredictions) SetPartial(column string, ids []string, preds *mat.VecDense) error {
	if preds.Len() != len(ids) {
		return errors.NewDimensionError("AgePredictions.SetPartial", len(ids), preds.Len(), 0)
	}
	col, ok := p.values[column]
	if !ok {
		col = make([]float64, len(p.ids))
		for i := range col {
			col[i] = nan
		}
		p.add(column, col)
	}
	for i, id := range ids {
		ri, ok := p.index[id]
		if !ok {
			return errors.NewSubjectError("AgePredictions.SetPartial", id)
		}
		col[ri] = preds.AtVec(i)
	}
	return nil
}

func (p *AgePredictions) add(column string, col []float64) {
	if _, exists := p.values[column]; !exists {
		p.columns = append(p.columns, column)
	}
	p.values[column] = col
}

// WriteCSV persists the table.
func (p *AgePredictions) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"Image_ID", "Age"}, p.columns...)
	if err := w.Write(header); err != nil {
		return errors.WithStack(err)
	}

	record := make([]string, len(header))
	for i, id := range p.ids {
		record[0] = id
		record[1] = formatFloat(p.ages[i])
		for j, column := range p.columns {
			record[j+2] = formatFloat(p.values[column][i])
		}
		if err := w.Write(record); err != nil {
			return errors.WithStack(err)
		}
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "failed to write %s", path)
}

var nan = math.NaN()

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
