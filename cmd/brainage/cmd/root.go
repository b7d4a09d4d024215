// Package cmd implements the brainage command tree.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/brainage/experiment"
	"github.com/YuminosukeSato/brainage/pkg/log"
)

var (
	rootDir  string
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "brainage",
	Short: "Brain age prediction pipeline",
	Long: `Brainage trains and evaluates brain age regression models on FreeSurfer
regional volumes and precomputed voxel kernels, including cross-scanner
generalisation tests and bootstrap sample-size analyses.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return log.Setup(logLevel, logJSON)
	},
}

// Execute runs the root command, printing any error to stderr.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "project root holding data/ and outputs/")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit JSON logs instead of console output")
}

func layout() experiment.Layout {
	return experiment.Layout{Root: rootDir}
}
