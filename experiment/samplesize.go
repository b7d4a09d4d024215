package experiment

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/core/model"
	"github.com/YuminosukeSato/brainage/dataset"
	"github.com/YuminosukeSato/brainage/kernel"
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

// SampleSizeConfig configures a bootstrap sample-size sweep: for every pair
// count up to MaxPairs, NBootstrap resampled cohorts are trained and scored.
// KFold is used for the SVR's inner search (never stratified) because the
// bootstrap samples can hold very few participants per age year.
type SampleSizeConfig struct {
	Layout     Layout
	Experiment string
	Scanner    string
	NBootstrap int
	MaxPairs   int

	// Generalisation cohort of the voxel SVM sweep.
	GeneralExperiment string
	GeneralScanner    string
	GeneralIDsFile    string
}

func (cfg *SampleSizeConfig) defaults() {
	if cfg.NBootstrap == 0 {
		cfg.NBootstrap = 1000
	}
	if cfg.MaxPairs == 0 {
		cfg.MaxPairs = 20
	}
	if cfg.GeneralIDsFile == "" {
		cfg.GeneralIDsFile = "cleaned_ids.csv"
	}
}

// SampleSizeGPR runs the FreeSurfer sample-size analysis with the
// DotProduct-kernel Gaussian process, saving test and train score vectors
// per bootstrap sample.
func SampleSizeGPR(cfg SampleSizeConfig) error {
	cfg.defaults()
	logger := log.L().With().Str("experiment", cfg.Experiment).Str("model", ModelGPR).Logger()

	participants := cfg.Layout.ParticipantsPath(cfg.Scanner)
	freesurfer := cfg.Layout.FreeSurferPath(cfg.Scanner)

	for pairs := 1; pairs <= cfg.MaxPairs; pairs++ {
		logger.Info().Int("pairs", pairs).Msg("bootstrap number of subject pairs")
		idsDir := cfg.Layout.SampleSizeIDsDir(cfg.Experiment, pairs)
		scoresDir := cfg.Layout.SampleSizeScoresDir(cfg.Experiment, pairs)
		if err := ensureDir(scoresDir); err != nil {
			return errors.Wrapf(err, "failed to create %s", scoresDir)
		}

		for b := 0; b < cfg.NBootstrap; b++ {
			prefix := BootstrapPrefix(b, pairs)
			trainTable, err := dataset.LoadFreeSurfer(participants,
				filepath.Join(idsDir, prefix+"_train.csv"), freesurfer)
			if err != nil {
				return err
			}
			testTable, err := dataset.LoadFreeSurfer(participants,
				filepath.Join(idsDir, prefix+"_test.csv"), freesurfer)
			if err != nil {
				return err
			}

			scaler := preprocessing.NewRobustScaler()
			xTrain, err := scaler.FitTransform(trainTable.NormalizedRegions())
			if err != nil {
				return err
			}
			xTest, err := scaler.Transform(testTable.NormalizedRegions())
			if err != nil {
				return err
			}
			yTrain := trainTable.Ages()
			yTest := testTable.Ages()

			reg := gpr.New()
			if err := reg.Fit(xTrain, yTrain); err != nil {
				return errors.Wrapf(err, "GPR fit failed at bootstrap %s", prefix)
			}

			scores, err := scoreOn(reg, xTest, yTest)
			if err != nil {
				return err
			}
			if err := npy.Write(filepath.Join(scoresDir,
				SampleSizeScoresName(b, ModelGPR, "")), scores.Vector()); err != nil {
				return err
			}

			trainScores, err := scoreOn(reg, xTrain, yTrain)
			if err != nil {
				return err
			}
			if err := npy.Write(filepath.Join(scoresDir,
				SampleSizeScoresName(b, ModelGPR, "train")), trainScores.Vector()); err != nil {
				return err
			}

			logScores(logger, b, scores)
		}
	}
	return nil
}

// SampleSizeVoxelSVR runs the voxel-level sample-size analysis with a
// precomputed-kernel SVR and the nested C grid search, including the
// cross-scanner generalisation scores.
func SampleSizeVoxelSVR(cfg SampleSizeConfig) error {
	cfg.defaults()
	logger := log.L().With().Str("experiment", cfg.Experiment).Str("model", ModelVoxelSVM).Logger()

	gram, err := kernel.ReadCSV(cfg.Layout.KernelPath())
	if err != nil {
		return err
	}
	gramGeneral, err := kernel.ReadCSV(cfg.Layout.GeneralKernelPath())
	if err != nil {
		return err
	}
	generalCohort, err := dataset.LoadDemographic(
		cfg.Layout.ParticipantsPath(cfg.GeneralScanner),
		cfg.Layout.IDsPath(cfg.GeneralExperiment, cfg.GeneralIDsFile))
	if err != nil {
		return err
	}
	generalIDs := make([]string, len(generalCohort))
	yGeneralData := make([]float64, len(generalCohort))
	for i, s := range generalCohort {
		generalIDs[i] = s.ImageID
		yGeneralData[i] = s.Age
	}
	yGeneral := mat.NewVecDense(len(yGeneralData), yGeneralData)

	participants := cfg.Layout.ParticipantsPath(cfg.Scanner)

	for pairs := 1; pairs <= cfg.MaxPairs; pairs++ {
		logger.Info().Int("pairs", pairs).Msg("bootstrap number of subject pairs")
		idsDir := cfg.Layout.SampleSizeIDsDir(cfg.Experiment, pairs)
		scoresDir := cfg.Layout.SampleSizeScoresDir(cfg.Experiment, pairs)
		if err := ensureDir(scoresDir); err != nil {
			return errors.Wrapf(err, "failed to create %s", scoresDir)
		}

		for b := 0; b < cfg.NBootstrap; b++ {
			prefix := BootstrapPrefix(b, pairs)
			trainIDs, yTrain, err := loadBootstrapCohort(participants, filepath.Join(idsDir, prefix+"_train.csv"))
			if err != nil {
				return err
			}
			testIDs, yTest, err := loadBootstrapCohort(participants, filepath.Join(idsDir, prefix+"_test.csv"))
			if err != nil {
				return err
			}

			xTrain, err := gram.Sub(trainIDs, trainIDs)
			if err != nil {
				return err
			}
			xTest, err := gram.Sub(testIDs, trainIDs)
			if err != nil {
				return err
			}

			// The inner splitter is seeded with the bootstrap index so
			// each sample draws its own reproducible folds.
			search := &modelselection.GridSearchCV{
				Candidates: modelselection.DefaultCGrid(),
				Build: func(c float64) model.Regressor {
					return svr.New(svr.KernelPrecomputed).WithC(c)
				},
				CV:          modelselection.NewKFold(5, true, uint64(b)),
				Precomputed: true,
			}
			if err := search.Fit(xTrain, yTrain); err != nil {
				return errors.Wrapf(err, "SVR grid search failed at bootstrap %s", prefix)
			}
			best := search.BestEstimator

			scores, err := scoreOn(best, xTest, yTest)
			if err != nil {
				return err
			}
			if err := npy.Write(filepath.Join(scoresDir,
				SampleSizeScoresName(b, ModelVoxelSVM, "")), scores.Vector()); err != nil {
				return err
			}

			trainScores, err := scoreOn(best, xTrain, yTrain)
			if err != nil {
				return err
			}
			if err := npy.Write(filepath.Join(scoresDir,
				SampleSizeScoresName(b, ModelVoxelSVM, "train")), trainScores.Vector()); err != nil {
				return err
			}

			// Generalisation block: kernel_general holds training subjects
			// on rows and the unseen scanner's subjects on columns, so the
			// prediction input is its transpose.
			kGeneral, err := gramGeneral.Sub(trainIDs, generalIDs)
			if err != nil {
				return err
			}
			xGeneral := mat.DenseCopyOf(kGeneral.T())
			generalScores, err := scoreOn(best, xGeneral, yGeneral)
			if err != nil {
				return err
			}
			if err := npy.Write(filepath.Join(scoresDir,
				SampleSizeScoresName(b, ModelVoxelSVM, "general")), generalScores.Vector()); err != nil {
				return err
			}

			logScores(logger, b, scores)
		}
	}
	return nil
}

// SampleSizeVoxelRVM runs the voxel-level sample-size analysis with a
// precomputed-kernel relevance vector machine.
func SampleSizeVoxelRVM(cfg SampleSizeConfig) error {
	cfg.defaults()
	logger := log.L().With().Str("experiment", cfg.Experiment).Str("model", ModelVoxelRVM).Logger()

	gram, err := kernel.ReadCSV(cfg.Layout.KernelPath())
	if err != nil {
		return err
	}
	participants := cfg.Layout.ParticipantsPath(cfg.Scanner)

	for pairs := 1; pairs <= cfg.MaxPairs; pairs++ {
		logger.Info().Int("pairs", pairs).Msg("bootstrap number of subject pairs")
		idsDir := cfg.Layout.SampleSizeIDsDir(cfg.Experiment, pairs)
		scoresDir := cfg.Layout.SampleSizeScoresDir(cfg.Experiment, pairs)
		if err := ensureDir(scoresDir); err != nil {
			return errors.Wrapf(err, "failed to create %s", scoresDir)
		}

		for b := 0; b < cfg.NBootstrap; b++ {
			prefix := BootstrapPrefix(b, pairs)
			trainIDs, yTrain, err := loadBootstrapCohort(participants, filepath.Join(idsDir, prefix+"_train.csv"))
			if err != nil {
				return err
			}
			testIDs, yTest, err := loadBootstrapCohort(participants, filepath.Join(idsDir, prefix+"_test.csv"))
			if err != nil {
				return err
			}

			xTrain, err := gram.Sub(trainIDs, trainIDs)
			if err != nil {
				return err
			}
			xTest, err := gram.Sub(testIDs, trainIDs)
			if err != nil {
				return err
			}

			reg := rvm.New(rvm.KernelPrecomputed)
			if err := reg.Fit(xTrain, yTrain); err != nil {
				return errors.Wrapf(err, "RVM fit failed at bootstrap %s", prefix)
			}

			scores, err := scoreOn(reg, xTest, yTest)
			if err != nil {
				return err
			}
			if err := npy.Write(filepath.Join(scoresDir,
				SampleSizeScoresName(b, ModelVoxelRVM, "")), scores.Vector()); err != nil {
				return err
			}

			logScores(logger, b, scores)
		}
	}
	return nil
}

func loadBootstrapCohort(participantsPath, idsPath string) ([]string, *mat.VecDense, error) {
	cohort, err := dataset.LoadDemographic(participantsPath, idsPath)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(cohort))
	ages := mat.NewVecDense(len(cohort), nil)
	for i, s := range cohort {
		ids[i] = s.ImageID
		ages.SetVec(i, s.Age)
	}
	return ids, ages, nil
}

func scoreOn(reg model.Regressor, X mat.Matrix, y *mat.VecDense) (metrics.Scores, error) {
	pred, err := reg.Predict(X)
	if err != nil {
		return metrics.Scores{}, err
	}
	return metrics.Summarize(y, pred)
}

func logScores(logger zerolog.Logger, bootstrap int, s metrics.Scores) {
	logger.Info().
		Int("bootstrap", bootstrap).
		Float64("r2", s.R2).
		Float64("mae", s.MAE).
		Float64("rmse", s.RMSE).
		Float64("age_error_corr", s.AgeErrorCorr).
		Msg("sample scored")
}
