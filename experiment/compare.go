package experiment

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/metrics"
	"github.com/YuminosukeSato/brainage/pkg/errors"
	"github.com/YuminosukeSato/brainage/pkg/log"
)

// CompareMAEPerAge computes, for each model's age_predictions.csv, the
// sample size, cohort percentage and MAE per integer age year, writing one
// <model>_mae_per_age.csv table per model directory. Each subject's brain
// age is the mean of that model's prediction columns.
func CompareMAEPerAge(l Layout, experiment string, models []string) error {
	logger := log.L().With().Str("experiment", experiment).Logger()

	for _, modelName := range models {
		modelDir := l.ModelDir(experiment, modelName)
		ages, meanPreds, err := readMeanPredictions(filepath.Join(modelDir, "age_predictions.csv"))
		if err != nil {
			return err
		}
		nTotal := len(ages)

		byYear := make(map[int][]int)
		for i, age := range ages {
			year := int(age)
			byYear[year] = append(byYear[year], i)
		}
		years := make([]int, 0, len(byYear))
		for y := range byYear {
			years = append(years, y)
		}
		sort.Ints(years)

		outPath := filepath.Join(modelDir, modelName+"_mae_per_age.csv")
		f, err := os.Create(outPath)
		if err != nil {
			return errors.Wrapf(err, "failed to create %s", outPath)
		}
		w := csv.NewWriter(f)
		if err := w.Write([]string{"Age", "n", "n_percentage", "mae_per_age"}); err != nil {
			f.Close()
			return errors.WithStack(err)
		}

		for _, year := range years {
			idx := byYear[year]
			yTrue := mat.NewVecDense(len(idx), nil)
			yPred := mat.NewVecDense(len(idx), nil)
			for j, i := range idx {
				yTrue.SetVec(j, ages[i])
				yPred.SetVec(j, meanPreds[i])
			}
			mae, err := metrics.MAE(yTrue, yPred)
			if err != nil {
				f.Close()
				return err
			}
			perc := float64(len(idx)) / float64(nTotal) * 100

			logger.Info().
				Str("model", modelName).
				Int("age", year).
				Int("n", len(idx)).
				Float64("n_percentage", perc).
				Float64("mae_per_age", mae).
				Msg("age group scored")

			record := []string{
				strconv.Itoa(year),
				strconv.Itoa(len(idx)),
				strconv.FormatFloat(perc, 'g', -1, 64),
				strconv.FormatFloat(mae, 'g', -1, 64),
			}
			if err := w.Write(record); err != nil {
				f.Close()
				return errors.WithStack(err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return errors.Wrapf(err, "failed to write %s", outPath)
		}
		if err := f.Close(); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// readMeanPredictions loads an age_predictions.csv and averages the
// prediction columns per subject, skipping NaN cells (folds a subject never
// appeared in).
func readMeanPredictions(path string) (ages, meanPreds []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	if len(records) < 2 || len(records[0]) < 3 {
		return nil, nil, errors.NewModelError("experiment.readMeanPredictions",
			"prediction table needs Image_ID, Age and at least one model column", errors.ErrEmptyData)
	}

	for _, record := range records[1:] {
		age, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "bad age for subject %s", record[0])
		}

		var sum float64
		var n int
		for _, field := range record[2:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "bad prediction for subject %s", record[0])
			}
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			return nil, nil, errors.NewValueError("experiment.readMeanPredictions",
				"no predictions for subject "+record[0])
		}
		ages = append(ages, age)
		meanPreds = append(meanPreds, sum/float64(n))
	}
	return ages, meanPreds, nil
}
