package cmd

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/brainage/experiment"
)

var generaliseCfg = struct {
	trainExperiment string
	testExperiment  string
	scanner         string
	model           string
	idsFile         string
	repetitions     int
	folds           int
}{}

var generaliseCmd = &cobra.Command{
	Use:   "generalise",
	Short: "Apply trained fold models to an unseen scanner",
	Long: `Generalise reloads every repetition x fold model trained on one scanner
and applies it to a previously unseen scanner's cohort, saving score vectors
and the combined prediction table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return experiment.Generalise(experiment.GeneraliseConfig{
			Layout:          layout(),
			TrainExperiment: generaliseCfg.trainExperiment,
			TestExperiment:  generaliseCfg.testExperiment,
			Scanner:         generaliseCfg.scanner,
			Model:           generaliseCfg.model,
			IDsFile:         generaliseCfg.idsFile,
			Repetitions:     generaliseCfg.repetitions,
			Folds:           generaliseCfg.folds,
		})
	},
}

func init() {
	f := generaliseCmd.Flags()
	f.StringVar(&generaliseCfg.trainExperiment, "train-experiment", "total", "experiment holding the trained models")
	f.StringVarP(&generaliseCfg.testExperiment, "experiment", "E", "generalisation", "experiment for the test artifacts")
	f.StringVarP(&generaliseCfg.scanner, "scanner", "S", "Scanner2", "unseen scanner directory under data/BIOBANK/")
	f.StringVarP(&generaliseCfg.model, "model", "M", experiment.ModelSVM, "model to evaluate (SVM, RVM or GPR)")
	f.StringVar(&generaliseCfg.idsFile, "ids", "cleaned_ids_noqc.csv", "ID file under the test experiment dir")
	f.IntVarP(&generaliseCfg.repetitions, "repetitions", "R", 10, "number of CV repetitions trained")
	f.IntVar(&generaliseCfg.folds, "folds", 10, "number of CV folds trained")
	rootCmd.AddCommand(generaliseCmd)
}
