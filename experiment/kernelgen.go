package experiment

import (
	"path/filepath"

	"github.com/YuminosukeSato/brainage/dataset"
	"github.com/YuminosukeSato/brainage/kernel"
	"github.com/YuminosukeSato/brainage/pkg/errors"
	"github.com/YuminosukeSato/brainage/pkg/log"
)

// KernelConfig configures the Gram matrix computation for the voxel-level
// models. The voxel feature table shares the freesurferData layout: an
// Image_ID column, one column per voxel feature and a TIV column, all
// volumes normalised by TIV before the dot products.
type KernelConfig struct {
	Layout     Layout
	Experiment string
	Scanner    string
	IDsFile    string

	// Generalisation cohort; leave GeneralScanner empty to skip the
	// cross-scanner kernel.
	GeneralExperiment string
	GeneralScanner    string
	GeneralIDsFile    string
}

// ComputeKernels builds kernel.csv (training cohort against itself) and,
// when a generalisation scanner is configured, kernel_general.csv (training
// cohort against the unseen cohort).
func ComputeKernels(cfg KernelConfig) error {
	if cfg.IDsFile == "" {
		cfg.IDsFile = "cleaned_ids.csv"
	}
	if cfg.GeneralIDsFile == "" {
		cfg.GeneralIDsFile = "cleaned_ids.csv"
	}
	logger := log.L().With().Str("experiment", cfg.Experiment).Logger()

	table, err := dataset.LoadFreeSurfer(
		cfg.Layout.ParticipantsPath(cfg.Scanner),
		cfg.Layout.IDsPath(cfg.Experiment, cfg.IDsFile),
		cfg.Layout.VoxelDataPath(cfg.Scanner))
	if err != nil {
		return err
	}
	x := table.NormalizedRegions()

	kernelsDir := filepath.Dir(cfg.Layout.KernelPath())
	if err := ensureDir(kernelsDir); err != nil {
		return errors.Wrapf(err, "failed to create %s", kernelsDir)
	}

	gram, err := kernel.Compute(table.IDs(), x)
	if err != nil {
		return err
	}
	if err := gram.WriteCSV(cfg.Layout.KernelPath()); err != nil {
		return err
	}
	logger.Info().Int("subjects", len(table.Subjects)).Str("path", cfg.Layout.KernelPath()).Msg("kernel written")

	if cfg.GeneralScanner == "" {
		return nil
	}

	generalTable, err := dataset.LoadFreeSurfer(
		cfg.Layout.ParticipantsPath(cfg.GeneralScanner),
		cfg.Layout.IDsPath(cfg.GeneralExperiment, cfg.GeneralIDsFile),
		cfg.Layout.VoxelDataPath(cfg.GeneralScanner))
	if err != nil {
		return err
	}
	if len(generalTable.RegionNames) != len(table.RegionNames) {
		return errors.NewDimensionError("experiment.ComputeKernels",
			len(table.RegionNames), len(generalTable.RegionNames), 1)
	}

	cross, err := kernel.ComputeCross(table.IDs(), x, generalTable.IDs(), generalTable.NormalizedRegions())
	if err != nil {
		return err
	}
	if err := cross.WriteCSV(cfg.Layout.GeneralKernelPath()); err != nil {
		return err
	}
	logger.Info().
		Int("general_subjects", len(generalTable.Subjects)).
		Str("path", cfg.Layout.GeneralKernelPath()).
		Msg("generalisation kernel written")
	return nil
}
