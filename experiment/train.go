package experiment

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/core/model"
	"github.com/YuminosukeSato/brainage/dataset"
	"github.com/YuminosukeSato/brainage/metrics"
	"github.com/YuminosukeSato/brainage/modelselection"
	"github.com/YuminosukeSato/brainage/npy"
	"github.com/YuminosukeSato/brainage/pkg/errors"
	"github.com/YuminosukeSato/brainage/pkg/log"
	"github.com/YuminosukeSato/brainage/preprocessing"
	"github.com/YuminosukeSato/brainage/regressors/gpr"
	"github.com/YuminosukeSato/brainage/regressors/rvm"
	"github.com/YuminosukeSato/brainage/regressors/svr"
)

// TrainConfig configures a repetition x fold training run on one scanner's
// FreeSurfer data.
type TrainConfig struct {
	Layout      Layout
	Experiment  string
	Scanner     string
	Model       string // ModelSVM, ModelRVM or ModelGPR
	IDsFile     string // cleaned ID file under the experiment dir, optional
	Repetitions int
	Folds       int
	NestedFolds int // inner CV folds of the SVR grid search
	Seed        uint64
}

func (cfg *TrainConfig) defaults() {
	if cfg.Repetitions == 0 {
		cfg.Repetitions = 10
	}
	if cfg.Folds == 0 {
		cfg.Folds = 10
	}
	if cfg.NestedFolds == 0 {
		cfg.NestedFolds = 5
	}
}

// buildRegressor constructs the estimator for one fold. The SVR runs a
// nested grid search over C; GPR and RVM fit directly, as in the study.
func buildRegressor(modelName string, nestedFolds int, seed uint64) (model.Regressor, error) {
	switch modelName {
	case ModelSVM:
		return &gridSearchRegressor{
			search: &modelselection.GridSearchCV{
				Candidates: modelselection.DefaultCGrid(),
				Build: func(c float64) model.Regressor {
					return svr.New(svr.KernelLinear).WithC(c)
				},
				CV: modelselection.NewKFold(nestedFolds, true, seed),
			},
		}, nil
	case ModelRVM:
		return rvm.New(rvm.KernelLinear), nil
	case ModelGPR:
		return gpr.New(), nil
	default:
		return nil, errors.NewValueError("experiment.buildRegressor", "unknown model "+modelName)
	}
}

// gridSearchRegressor adapts GridSearchCV to the Regressor contract so the
// training loop can persist and score the refitted best estimator.
type gridSearchRegressor struct {
	search *modelselection.GridSearchCV
}

func (g *gridSearchRegressor) Fit(X mat.Matrix, y *mat.VecDense) error {
	return g.search.Fit(X, y)
}

func (g *gridSearchRegressor) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if g.search.BestEstimator == nil {
		return nil, errors.NewNotFittedError("GridSearchCV", "Predict")
	}
	return g.search.BestEstimator.Predict(X)
}

func (g *gridSearchRegressor) Score(X mat.Matrix, y *mat.VecDense) (float64, error) {
	if g.search.BestEstimator == nil {
		return 0, errors.NewNotFittedError("GridSearchCV", "Score")
	}
	return g.search.BestEstimator.Score(X, y)
}

// Train runs the cross-validated training for one model and writes the
// per-fold artifacts plus the out-of-fold prediction table.
func Train(cfg TrainConfig) error {
	cfg.defaults()

	logger := log.L().With().
		Str("experiment", cfg.Experiment).
		Str("scanner", cfg.Scanner).
		Str("model", cfg.Model).
		Logger()

	table, err := loadFreeSurferCohort(cfg.Layout, cfg.Experiment, cfg.Scanner, cfg.IDsFile)
	if err != nil {
		return err
	}
	x := table.NormalizedRegions()
	y := table.Ages()
	ids := table.IDs()
	n := len(ids)

	cvDir := cfg.Layout.CVDir(cfg.Experiment, cfg.Model)
	if err := ensureDir(cvDir); err != nil {
		return errors.Wrapf(err, "failed to create %s", cvDir)
	}

	preds := NewAgePredictions(table.Subjects)
	logger.Info().Int("subjects", n).Msg("starting cross-validated training")

	for rep := 0; rep < cfg.Repetitions; rep++ {
		kf := modelselection.NewKFold(cfg.Folds, true, cfg.Seed+uint64(rep))
		splits, err := kf.Split(n)
		if err != nil {
			return err
		}
		for fold, split := range splits {
			xTrain := modelselection.SelectRows(x, split.TrainIndices)
			xTest := modelselection.SelectRows(x, split.TestIndices)
			yTrain := modelselection.SelectVec(y, split.TrainIndices)
			yTest := modelselection.SelectVec(y, split.TestIndices)

			scaler := preprocessing.NewRobustScaler()
			xTrainScaled, err := scaler.FitTransform(xTrain)
			if err != nil {
				return err
			}
			xTestScaled, err := scaler.Transform(xTest)
			if err != nil {
				return err
			}

			reg, err := buildRegressor(cfg.Model, cfg.NestedFolds, cfg.Seed+uint64(rep*cfg.Folds+fold))
			if err != nil {
				return err
			}
			if err := reg.Fit(xTrainScaled, yTrain); err != nil {
				return errors.Wrapf(err, "fit failed at repetition %d fold %d", rep, fold)
			}

			predictions, err := reg.Predict(xTestScaled)
			if err != nil {
				return err
			}
			scores, err := metrics.Summarize(yTest, predictions)
			if err != nil {
				return err
			}

			prefix := FoldPrefix(rep, fold)
			if err := npy.Write(filepath.Join(cvDir, prefix+"_scores.npy"), scores.Vector()); err != nil {
				return err
			}
			if err := saveFoldModel(cvDir, prefix, cfg.Model, reg, scaler); err != nil {
				return err
			}

			testIDs := make([]string, len(split.TestIndices))
			for i, idx := range split.TestIndices {
				testIDs[i] = ids[idx]
			}
			if err := preds.SetPartial(repColumn(rep), testIDs, predictions); err != nil {
				return err
			}

			logger.Info().
				Int("repetition", rep).
				Int("fold", fold).
				Float64("r2", scores.R2).
				Float64("mae", scores.MAE).
				Float64("rmse", scores.RMSE).
				Float64("age_error_corr", scores.AgeErrorCorr).
				Msg("fold scored")
		}
	}

	predsPath := filepath.Join(cfg.Layout.ModelDir(cfg.Experiment, cfg.Model), "age_predictions.csv")
	if err := preds.WriteCSV(predsPath); err != nil {
		return err
	}
	logger.Info().Str("path", predsPath).Msg("training finished")
	return nil
}

func repColumn(rep int) string {
	return fmt.Sprintf("%02d", rep)
}

// saveFoldModel persists the regressor and scaler of one fold. The grid
// search wrapper stores its refitted best estimator so the artifact is the
// bare SVR.
func saveFoldModel(cvDir, prefix, modelName string, reg model.Regressor, scaler *preprocessing.RobustScaler) error {
	artifact := reg
	if g, ok := reg.(*gridSearchRegressor); ok {
		artifact = g.search.BestEstimator
	}
	if err := model.Save(artifact, filepath.Join(cvDir, prefix+"_regressor.gob")); err != nil {
		return err
	}
	return model.Save(scaler, filepath.Join(cvDir, prefix+"_scaler.gob"))
}

func loadFreeSurferCohort(l Layout, experiment, scanner, idsFile string) (*dataset.Table, error) {
	return dataset.LoadFreeSurfer(
		l.ParticipantsPath(scanner),
		l.IDsPath(experiment, idsFile),
		l.FreeSurferPath(scanner),
	)
}
