package cmd

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/brainage/experiment"
)

var bootstrapCfg = struct {
	experiment string
	scanner    string
	nBootstrap int
	maxPairs   int
	idsFile    string
	seed       uint64
}{}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap-ids",
	Short: "Generate the gender-balanced bootstrap ID files",
	Long: `Bootstrap-ids draws, per pair count and bootstrap index, one male and
one female subject per pair per age year into a training sample, writing the
train and test ID files the sample-size sweeps consume.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return experiment.GenerateBootstrapIDs(experiment.BootstrapConfig{
			Layout:     layout(),
			Experiment: bootstrapCfg.experiment,
			Scanner:    bootstrapCfg.scanner,
			NBootstrap: bootstrapCfg.nBootstrap,
			MaxPairs:   bootstrapCfg.maxPairs,
			IDsFile:    bootstrapCfg.idsFile,
			Seed:       bootstrapCfg.seed,
		})
	},
}

func init() {
	f := bootstrapCmd.Flags()
	f.StringVarP(&bootstrapCfg.experiment, "experiment", "E", "total", "experiment name under outputs/")
	f.StringVarP(&bootstrapCfg.scanner, "scanner", "S", "Scanner1", "scanner directory under data/BIOBANK/")
	f.IntVarP(&bootstrapCfg.nBootstrap, "n-bootstrap", "N", 1000, "number of bootstrap samples per pair count")
	f.IntVarP(&bootstrapCfg.maxPairs, "max-pairs", "P", 20, "maximum subject pairs per age year and gender")
	f.StringVar(&bootstrapCfg.idsFile, "ids", "cleaned_ids.csv", "ID file under the experiment dir")
	f.Uint64Var(&bootstrapCfg.seed, "seed", 42, "random seed")
	rootCmd.AddCommand(bootstrapCmd)
}
