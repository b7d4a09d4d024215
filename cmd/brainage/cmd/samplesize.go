package cmd

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/brainage/experiment"
	"github.com/YuminosukeSato/brainage/pkg/errors"
)

var sampleSizeCfg = struct {
	experiment        string
	scanner           string
	nBootstrap        int
	maxPairs          int
	generalExperiment string
	generalScanner    string
	generalIDs        string
}{}

var sampleSizeCmd = &cobra.Command{
	Use:   "sample-size <gpr|svm|rvm>",
	Short: "Run a bootstrap sample-size sweep",
	Long: `Sample-size trains and scores one model on every bootstrap sample of
every pair count. gpr uses FreeSurfer regional volumes; svm and rvm use the
precomputed voxel kernel, with svm also scoring the cross-scanner cohort.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := experiment.SampleSizeConfig{
			Layout:            layout(),
			Experiment:        sampleSizeCfg.experiment,
			Scanner:           sampleSizeCfg.scanner,
			NBootstrap:        sampleSizeCfg.nBootstrap,
			MaxPairs:          sampleSizeCfg.maxPairs,
			GeneralExperiment: sampleSizeCfg.generalExperiment,
			GeneralScanner:    sampleSizeCfg.generalScanner,
			GeneralIDsFile:    sampleSizeCfg.generalIDs,
		}
		switch args[0] {
		case "gpr":
			return experiment.SampleSizeGPR(cfg)
		case "svm":
			return experiment.SampleSizeVoxelSVR(cfg)
		case "rvm":
			return experiment.SampleSizeVoxelRVM(cfg)
		default:
			return errors.NewValueError("sample-size", "unknown model "+args[0])
		}
	},
}

func init() {
	f := sampleSizeCmd.Flags()
	f.StringVarP(&sampleSizeCfg.experiment, "experiment", "E", "total", "experiment name under outputs/")
	f.StringVarP(&sampleSizeCfg.scanner, "scanner", "S", "Scanner1", "scanner directory under data/BIOBANK/")
	f.IntVarP(&sampleSizeCfg.nBootstrap, "n-bootstrap", "N", 1000, "number of bootstrap samples per pair count")
	f.IntVarP(&sampleSizeCfg.maxPairs, "max-pairs", "P", 20, "maximum subject pairs per age year and gender")
	f.StringVar(&sampleSizeCfg.generalExperiment, "general-experiment", "generalisation", "experiment holding the cross-scanner cohort IDs")
	f.StringVar(&sampleSizeCfg.generalScanner, "general-scanner", "Scanner2", "cross-scanner cohort directory")
	f.StringVar(&sampleSizeCfg.generalIDs, "general-ids", "cleaned_ids.csv", "ID file of the cross-scanner cohort")
	rootCmd.AddCommand(sampleSizeCmd)
}
