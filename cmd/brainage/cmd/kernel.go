package cmd

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/brainage/experiment"
)

var kernelCfg = struct {
	experiment        string
	scanner           string
	idsFile           string
	generalExperiment string
	generalScanner    string
	generalIDs        string
}{}

var kernelCmd = &cobra.Command{
	Use:   "kernel",
	Short: "Precompute the voxel Gram matrices",
	Long: `Kernel computes the TIV-normalised linear Gram matrix of the training
cohort (kernel.csv) and, when a generalisation scanner is given, the
rectangular training-vs-unseen matrix (kernel_general.csv).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return experiment.ComputeKernels(experiment.KernelConfig{
			Layout:            layout(),
			Experiment:        kernelCfg.experiment,
			Scanner:           kernelCfg.scanner,
			IDsFile:           kernelCfg.idsFile,
			GeneralExperiment: kernelCfg.generalExperiment,
			GeneralScanner:    kernelCfg.generalScanner,
			GeneralIDsFile:    kernelCfg.generalIDs,
		})
	},
}

func init() {
	f := kernelCmd.Flags()
	f.StringVarP(&kernelCfg.experiment, "experiment", "E", "total", "experiment name under outputs/")
	f.StringVarP(&kernelCfg.scanner, "scanner", "S", "Scanner1", "scanner directory under data/BIOBANK/")
	f.StringVar(&kernelCfg.idsFile, "ids", "cleaned_ids.csv", "ID file under the experiment dir")
	f.StringVar(&kernelCfg.generalExperiment, "general-experiment", "generalisation", "experiment holding the cross-scanner cohort IDs")
	f.StringVar(&kernelCfg.generalScanner, "general-scanner", "", "cross-scanner cohort directory (empty skips kernel_general.csv)")
	f.StringVar(&kernelCfg.generalIDs, "general-ids", "cleaned_ids.csv", "ID file of the cross-scanner cohort")
	rootCmd.AddCommand(kernelCmd)
}
