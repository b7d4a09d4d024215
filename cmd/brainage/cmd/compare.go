package cmd

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/brainage/experiment"
)

var compareCfg = struct {
	experiment string
	models     []string
}{}

var compareCmd = &cobra.Command{
	Use:   "compare-mae",
	Short: "Tabulate MAE per age year for each model",
	Long: `Compare-mae averages each model's prediction columns into one brain age
per subject, then writes the per-age-year sample size, cohort percentage and
MAE as <model>_mae_per_age.csv.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return experiment.CompareMAEPerAge(layout(), compareCfg.experiment, compareCfg.models)
	},
}

func init() {
	f := compareCmd.Flags()
	f.StringVarP(&compareCfg.experiment, "experiment", "E", "total", "experiment name under outputs/")
	f.StringSliceVarP(&compareCfg.models, "models", "M",
		[]string{experiment.ModelSVM, experiment.ModelRVM, experiment.ModelGPR}, "models to tabulate")
	rootCmd.AddCommand(compareCmd)
}
