package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/brainage/imd"
)

var imdCfg = struct {
	experiment string
	plots      bool
}{}

var imdCmd = &cobra.Command{
	Use:   "imd-corr",
	Short: "Correlate brain-age delta with deprivation indices",
	Long: `Imd-corr regresses the brain-age delta on every English Index of
Multiple Deprivation variable in age_predictions_demographics.csv, printing
each fit and flagging slopes significant at the 0.05 level. With --plots it
also saves a scatter of the absolute delta against each deprivation score.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := layout().ExperimentDir(imdCfg.experiment)
		table, err := imd.LoadTable(filepath.Join(dir, "age_predictions_demographics.csv"))
		if err != nil {
			return err
		}

		results, err := imd.Analyze(table)
		if err != nil {
			return err
		}
		for _, r := range results {
			verdict := "fail to reject H0"
			if r.Significant {
				verdict = "reject H0"
			}
			fmt.Printf("n=%d, %s - %s: p = %.3f, coef = %.3f\n",
				r.N, r.Variable, verdict, r.PValue, r.Beta)
		}

		if imdCfg.plots {
			return imd.ScatterPlots(table, dir)
		}
		return nil
	},
}

func init() {
	f := imdCmd.Flags()
	f.StringVarP(&imdCfg.experiment, "experiment", "E", "total", "experiment name under outputs/")
	f.BoolVar(&imdCfg.plots, "plots", false, "save scatter plots of |delta| vs each deprivation score")
	rootCmd.AddCommand(imdCmd)
}
