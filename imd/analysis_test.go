package imd

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScoreVariables(t *testing.T) {
	scores := ScoreVariables()
	if len(scores) != 10 {
		t.Fatalf("ScoreVariables() has %d entries, want 10", len(scores))
	}
	for _, v := range scores {
		if !strings.HasSuffix(v, "_score") {
			t.Errorf("%s is not a score column", v)
		}
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "age_predictions_demographics.csv")
	content := "Image_ID,Age,Diff_age-m,IMD_score\n" +
		"sub-01,55,1.2,20.5\n" +
		"sub-02,61,-0.8,\n" +
		"sub-03,47,2.1,31.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if table.N != 3 {
		t.Errorf("N = %d, want 3", table.N)
	}
	if got := table.Columns[DeltaColumn]; got[1] != -0.8 {
		t.Errorf("delta[1] = %v, want -0.8", got[1])
	}
	// Empty cell loads as NaN; non-numeric ID column is all NaN.
	if !math.IsNaN(table.Columns["IMD_score"][1]) {
		t.Error("empty cell should load as NaN")
	}
	if !math.IsNaN(table.Columns["Image_ID"][0]) {
		t.Error("non-numeric cell should load as NaN")
	}
}

func TestAnalyze(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	n := 120

	// IMD_score drives the delta; everything else is noise, with some
	// missing cells that must be dropped per variable.
	var sb strings.Builder
	sb.WriteString("Image_ID,Age," + DeltaColumn + "," + AbsDeltaColumn)
	for _, v := range Variables {
		sb.WriteString("," + v)
	}
	sb.WriteString("\n")
	for i := 0; i < n; i++ {
		score := rng.Float64() * 40
		delta := 0.2*score + rng.NormFloat64()*0.5
		sb.WriteString(fmt.Sprintf("sub-%03d,%g,%g,%g", i, 50+rng.Float64()*20, delta, math.Abs(delta)))
		for _, v := range Variables {
			if v == "IMD_score" {
				sb.WriteString(fmt.Sprintf(",%g", score))
				continue
			}
			if v == "Crime_rank" && i%7 == 0 {
				sb.WriteString(",") // missing cell
				continue
			}
			sb.WriteString(fmt.Sprintf(",%g", rng.NormFloat64()))
		}
		sb.WriteString("\n")
	}

	path := filepath.Join(t.TempDir(), "age_predictions_demographics.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	results, err := Analyze(table)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(results) != len(Variables) {
		t.Fatalf("Analyze() returned %d results, want %d", len(results), len(Variables))
	}

	byVar := make(map[string]VariableResult, len(results))
	for _, r := range results {
		byVar[r.Variable] = r
	}

	if r := byVar["IMD_score"]; !r.Significant {
		t.Errorf("IMD_score p = %v, want significant", r.PValue)
	}
	if r := byVar["IMD_score"]; math.Abs(r.Beta-0.2) > 0.05 {
		t.Errorf("IMD_score Beta = %v, want ~0.2", r.Beta)
	}
	if r := byVar["Crime_rank"]; r.N >= n {
		t.Errorf("Crime_rank N = %d, missing cells were not dropped", r.N)
	}
}
