// Package experiment orchestrates the pipeline stages: the repetition x fold
// training runs, the cross-scanner generalisation test, the sample-size
// bootstrap sweeps and the comparison tables. All artifacts live under a
// fixed data/ and outputs/ tree keyed by experiment name, repetition, fold,
// pair count and bootstrap index.
package experiment

import (
	"fmt"
	"os"
	"path/filepath"
)

// Model directory names, matching the study's artifact tree.
const (
	ModelSVM      = "SVM"
	ModelRVM      = "RVM"
	ModelGPR      = "GPR"
	ModelVoxelSVM = "voxel_SVM"
	ModelVoxelRVM = "voxel_RVM"
)

// Layout resolves every pipeline path relative to the project root.
type Layout struct {
	Root string
}

// ParticipantsPath is data/BIOBANK/<scanner>/participants.tsv.
func (l Layout) ParticipantsPath(scanner string) string {
	return filepath.Join(l.Root, "data", "BIOBANK", scanner, "participants.tsv")
}

// FreeSurferPath is data/BIOBANK/<scanner>/freesurferData.csv.
func (l Layout) FreeSurferPath(scanner string) string {
	return filepath.Join(l.Root, "data", "BIOBANK", scanner, "freesurferData.csv")
}

// VoxelDataPath is data/BIOBANK/<scanner>/voxelData.csv.
func (l Layout) VoxelDataPath(scanner string) string {
	return filepath.Join(l.Root, "data", "BIOBANK", scanner, "voxelData.csv")
}

// ExperimentDir is outputs/<experiment>.
func (l Layout) ExperimentDir(experiment string) string {
	return filepath.Join(l.Root, "outputs", experiment)
}

// IDsPath resolves an ID file under the experiment directory; empty filename
// yields an empty path (meaning: no ID filtering).
func (l Layout) IDsPath(experiment, filename string) string {
	if filename == "" {
		return ""
	}
	return filepath.Join(l.ExperimentDir(experiment), filename)
}

// ModelDir is outputs/<experiment>/<model>.
func (l Layout) ModelDir(experiment, model string) string {
	return filepath.Join(l.ExperimentDir(experiment), model)
}

// CVDir holds the per-repetition, per-fold model artifacts.
func (l Layout) CVDir(experiment, model string) string {
	return filepath.Join(l.ModelDir(experiment, model), "cv")
}

// KernelPath is outputs/kernels/kernel.csv.
func (l Layout) KernelPath() string {
	return filepath.Join(l.Root, "outputs", "kernels", "kernel.csv")
}

// GeneralKernelPath is outputs/kernels/kernel_general.csv.
func (l Layout) GeneralKernelPath() string {
	return filepath.Join(l.Root, "outputs", "kernels", "kernel_general.csv")
}

// SampleSizeIDsDir holds the bootstrap ID files for one pair count.
func (l Layout) SampleSizeIDsDir(experiment string, pairs int) string {
	return filepath.Join(l.ExperimentDir(experiment), "sample_size", fmt.Sprintf("%02d", pairs), "ids")
}

// SampleSizeScoresDir holds the bootstrap score artifacts for one pair count.
func (l Layout) SampleSizeScoresDir(experiment string, pairs int) string {
	return filepath.Join(l.ExperimentDir(experiment), "sample_size", fmt.Sprintf("%02d", pairs), "scores")
}

// FoldPrefix names the artifacts of one repetition/fold model.
func FoldPrefix(repetition, fold int) string {
	return fmt.Sprintf("%02d_%02d", repetition, fold)
}

// BootstrapPrefix names the ID files of one bootstrap sample.
func BootstrapPrefix(bootstrap, pairs int) string {
	return fmt.Sprintf("%04d_%02d", bootstrap, pairs)
}

// SampleSizeScoresName names a bootstrap score artifact; suffix is "",
// "train" or "general".
func SampleSizeScoresName(bootstrap int, model, suffix string) string {
	if suffix == "" {
		return fmt.Sprintf("scores_%04d_%s.npy", bootstrap, model)
	}
	return fmt.Sprintf("scores_%04d_%s_%s.npy", bootstrap, model, suffix)
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
