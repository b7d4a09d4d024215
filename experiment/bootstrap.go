package experiment

import (
	"math/rand/v2"
	"path/filepath"
	"sort"

	"github.com/YuminosukeSato/brainage/dataset"
	"github.com/YuminosukeSato/brainage/pkg/errors"
	"github.com/YuminosukeSato/brainage/pkg/log"
)

// BootstrapConfig configures the generation of the gender-balanced bootstrap
// ID files the sample-size sweeps consume.
type BootstrapConfig struct {
	Layout     Layout
	Experiment string
	Scanner    string
	NBootstrap int
	MaxPairs   int
	IDsFile    string // cleaned cohort under the experiment dir
	Seed       uint64
}

func (cfg *BootstrapConfig) defaults() {
	if cfg.NBootstrap == 0 {
		cfg.NBootstrap = 1000
	}
	if cfg.MaxPairs == 0 {
		cfg.MaxPairs = 20
	}
	if cfg.IDsFile == "" {
		cfg.IDsFile = "cleaned_ids.csv"
	}
}

// GenerateBootstrapIDs draws, for every pair count and bootstrap index, one
// male and one female subject per pair per integer age year into the
// training sample; every subject not drawn forms the test sample. Train and
// test ID files are written under sample_size/<pairs>/ids.
func GenerateBootstrapIDs(cfg BootstrapConfig) error {
	cfg.defaults()
	logger := log.L().With().Str("experiment", cfg.Experiment).Logger()

	cohort, err := dataset.LoadDemographic(
		cfg.Layout.ParticipantsPath(cfg.Scanner),
		cfg.Layout.IDsPath(cfg.Experiment, cfg.IDsFile))
	if err != nil {
		return err
	}

	// Bucket subjects by integer age year and gender.
	type bucketKey struct {
		ageYear int
		gender  int
	}
	buckets := make(map[bucketKey][]string)
	for _, s := range cohort {
		k := bucketKey{ageYear: int(s.Age), gender: s.Gender}
		buckets[k] = append(buckets[k], s.ImageID)
	}

	ageYears := make(map[int]bool)
	for k := range buckets {
		ageYears[k.ageYear] = true
	}
	years := make([]int, 0, len(ageYears))
	for y := range ageYears {
		years = append(years, y)
	}
	sort.Ints(years)

	for pairs := 1; pairs <= cfg.MaxPairs; pairs++ {
		idsDir := cfg.Layout.SampleSizeIDsDir(cfg.Experiment, pairs)
		if err := ensureDir(idsDir); err != nil {
			return errors.Wrapf(err, "failed to create %s", idsDir)
		}
		logger.Info().Int("pairs", pairs).Msg("generating bootstrap samples")

		for b := 0; b < cfg.NBootstrap; b++ {
			r := rand.New(rand.NewPCG(cfg.Seed, uint64(pairs)<<32|uint64(b)))

			selected := make(map[string]bool)
			train := make([]string, 0, 2*pairs*len(years))
			for _, year := range years {
				for _, gender := range []int{0, 1} {
					pool := buckets[bucketKey{ageYear: year, gender: gender}]
					if len(pool) == 0 {
						continue
					}
					take := pairs
					if take > len(pool) {
						take = len(pool)
					}
					for _, pi := range r.Perm(len(pool))[:take] {
						train = append(train, pool[pi])
						selected[pool[pi]] = true
					}
				}
			}

			test := make([]string, 0, len(cohort)-len(train))
			for _, s := range cohort {
				if !selected[s.ImageID] {
					test = append(test, s.ImageID)
				}
			}
			if len(train) == 0 || len(test) == 0 {
				return errors.NewValueError("experiment.GenerateBootstrapIDs",
					"cohort too small for the requested pair count")
			}

			prefix := BootstrapPrefix(b, pairs)
			if err := dataset.WriteIDs(filepath.Join(idsDir, prefix+"_train.csv"), train); err != nil {
				return err
			}
			if err := dataset.WriteIDs(filepath.Join(idsDir, prefix+"_test.csv"), test); err != nil {
				return err
			}
		}
	}
	return nil
}
