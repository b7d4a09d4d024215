package experiment

import (
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/brainage/core/model"
	"github.com/YuminosukeSato/brainage/metrics"
	"github.com/YuminosukeSato/brainage/npy"
	"github.com/YuminosukeSato/brainage/pkg/errors"
	"github.com/YuminosukeSato/brainage/pkg/log"
	"github.com/YuminosukeSato/brainage/preprocessing"
	"github.com/YuminosukeSato/brainage/regressors/gpr"
	"github.com/YuminosukeSato/brainage/regressors/rvm"
	"github.com/YuminosukeSato/brainage/regressors/svr"
)

// GeneraliseConfig configures the cross-scanner generalisation test: the
// repetition x fold models trained on one scanner are reloaded and applied
// to a previously unseen scanner's cohort.
type GeneraliseConfig struct {
	Layout          Layout
	TrainExperiment string
	TestExperiment  string
	Scanner         string // the unseen scanner, e.g. "Scanner2"
	Model           string // ModelSVM, ModelRVM or ModelGPR
	IDsFile         string // cleaned ID file under the test experiment dir
	Repetitions     int
	Folds           int
}

func (cfg *GeneraliseConfig) defaults() {
	if cfg.Repetitions == 0 {
		cfg.Repetitions = 10
	}
	if cfg.Folds == 0 {
		cfg.Folds = 10
	}
	if cfg.IDsFile == "" {
		cfg.IDsFile = "cleaned_ids_noqc.csv"
	}
}

// Generalise applies every saved fold model to the unseen scanner cohort and
// writes per-model score artifacts plus the combined prediction table.
func Generalise(cfg GeneraliseConfig) error {
	cfg.defaults()

	logger := log.L().With().
		Str("train_experiment", cfg.TrainExperiment).
		Str("test_experiment", cfg.TestExperiment).
		Str("model", cfg.Model).
		Logger()

	table, err := loadFreeSurferCohort(cfg.Layout, cfg.TestExperiment, cfg.Scanner, cfg.IDsFile)
	if err != nil {
		return err
	}
	regions := table.NormalizedRegions()
	age := table.Ages()

	trainCVDir := cfg.Layout.CVDir(cfg.TrainExperiment, cfg.Model)
	testCVDir := cfg.Layout.CVDir(cfg.TestExperiment, cfg.Model)
	if err := ensureDir(testCVDir); err != nil {
		return errors.Wrapf(err, "failed to create %s", testCVDir)
	}

	preds := NewAgePredictions(table.Subjects)
	logger.Info().Int("subjects", len(table.Subjects)).Msg("starting generalisation test")

	for rep := 0; rep < cfg.Repetitions; rep++ {
		for fold := 0; fold < cfg.Folds; fold++ {
			prefix := FoldPrefix(rep, fold)

			scaler := &preprocessing.RobustScaler{}
			if err := model.Load(scaler, filepath.Join(trainCVDir, prefix+"_scaler.gob")); err != nil {
				return err
			}
			reg, err := loadRegressor(cfg.Model, filepath.Join(trainCVDir, prefix+"_regressor.gob"))
			if err != nil {
				return err
			}

			xTest, err := scaler.Transform(regions)
			if err != nil {
				return err
			}
			predictions, err := reg.Predict(xTest)
			if err != nil {
				return err
			}

			scores, err := metrics.Summarize(age, predictions)
			if err != nil {
				return err
			}
			if err := npy.Write(filepath.Join(testCVDir, prefix+"_scores.npy"), scores.Vector()); err != nil {
				return err
			}
			if err := preds.Set(prefix, predictions); err != nil {
				return err
			}

			logger.Info().
				Str("fold_model", prefix).
				Float64("r2", scores.R2).
				Float64("mae", scores.MAE).
				Float64("rmse", scores.RMSE).
				Float64("age_error_corr", scores.AgeErrorCorr).
				Msg("fold model applied")
		}
	}

	name := strings.ToLower(cfg.Model) + "_testset_predictions.csv"
	predsPath := filepath.Join(cfg.Layout.ExperimentDir(cfg.TestExperiment), name)
	if err := preds.WriteCSV(predsPath); err != nil {
		return err
	}
	logger.Info().Str("path", predsPath).Msg("generalisation test finished")
	return nil
}

// loadRegressor restores a persisted fold regressor of the given kind.
func loadRegressor(modelName, path string) (model.Regressor, error) {
	switch modelName {
	case ModelSVM:
		reg := &svr.SVR{}
		if err := model.Load(reg, path); err != nil {
			return nil, err
		}
		return reg, nil
	case ModelRVM:
		reg := &rvm.EMRVR{}
		if err := model.Load(reg, path); err != nil {
			return nil, err
		}
		return reg, nil
	case ModelGPR:
		reg := &gpr.GPR{}
		if err := model.Load(reg, path); err != nil {
			return nil, err
		}
		return reg, nil
	default:
		return nil, errors.NewValueError("experiment.loadRegressor", "unknown model "+modelName)
	}
}
