package cmd

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/brainage/experiment"
)

var trainCfg = struct {
	experiment  string
	scanner     string
	model       string
	idsFile     string
	repetitions int
	folds       int
	nestedFolds int
	seed        uint64
}{}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run the cross-validated training for one model",
	Long: `Train runs the repetition x fold cross-validation on one scanner's
FreeSurfer data, saving per-fold scalers, regressors and score vectors plus
the out-of-fold age prediction table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return experiment.Train(experiment.TrainConfig{
			Layout:      layout(),
			Experiment:  trainCfg.experiment,
			Scanner:     trainCfg.scanner,
			Model:       trainCfg.model,
			IDsFile:     trainCfg.idsFile,
			Repetitions: trainCfg.repetitions,
			Folds:       trainCfg.folds,
			NestedFolds: trainCfg.nestedFolds,
			Seed:        trainCfg.seed,
		})
	},
}

func init() {
	f := trainCmd.Flags()
	f.StringVarP(&trainCfg.experiment, "experiment", "E", "total", "experiment name under outputs/")
	f.StringVarP(&trainCfg.scanner, "scanner", "S", "Scanner1", "scanner directory under data/BIOBANK/")
	f.StringVarP(&trainCfg.model, "model", "M", experiment.ModelSVM, "model to train (SVM, RVM or GPR)")
	f.StringVar(&trainCfg.idsFile, "ids", "cleaned_ids.csv", "ID file under the experiment dir")
	f.IntVarP(&trainCfg.repetitions, "repetitions", "R", 10, "number of CV repetitions")
	f.IntVar(&trainCfg.folds, "folds", 10, "number of CV folds")
	f.IntVar(&trainCfg.nestedFolds, "nested-folds", 5, "inner CV folds of the SVR grid search")
	f.Uint64Var(&trainCfg.seed, "seed", 42, "random seed")
	rootCmd.AddCommand(trainCmd)
}
