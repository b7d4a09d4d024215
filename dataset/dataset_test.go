package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const participantsTSV = "Image_ID\tAge\tGender\n" +
	"sub-01\t55.4\t0\n" +
	"sub-02\t61.0\t1\n" +
	"sub-03\t47.2\t0\n" +
	"sub-04\t70.1\t1\n"

const freesurferCSV = "Image_ID,Left-Hippocampus,Right-Hippocampus,EstimatedTotalIntraCranialVol\n" +
	"sub-01,4000,4100,1500000\n" +
	"sub-02,3900,3950,1400000\n" +
	"sub-04,4200,4300,1600000\n"

func TestLoadParticipants(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "participants.tsv", participantsTSV)

	subjects, err := LoadParticipants(path)
	require.NoError(t, err)
	require.Len(t, subjects, 4)

	assert.Equal(t, "sub-01", subjects[0].ImageID)
	assert.Equal(t, 55.4, subjects[0].Age)
	assert.Equal(t, 0, subjects[0].Gender)
	assert.Equal(t, 1, subjects[3].Gender)
}

func TestLoadParticipantsHeaderCase(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "participants.tsv",
		"image_id\tage\tgender\nsub-01\t50\t1\n")

	subjects, err := LoadParticipants(path)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "sub-01", subjects[0].ImageID)
}

func TestLoadIDs(t *testing.T) {
	dir := t.TempDir()

	withHeader := writeFile(t, dir, "with_header.csv", "Image_ID\nsub-02\nsub-01\n")
	ids, err := LoadIDs(withHeader)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-02", "sub-01"}, ids)

	bare := writeFile(t, dir, "bare.csv", "sub-03\nsub-04\n")
	ids, err = LoadIDs(bare)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-03", "sub-04"}, ids)

	empty := writeFile(t, dir, "empty.csv", "Image_ID\n")
	_, err = LoadIDs(empty)
	assert.Error(t, err)
}

func TestWriteIDsRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ids.csv")

	want := []string{"sub-02", "sub-04", "sub-01"}
	require.NoError(t, WriteIDs(path, want))

	got, err := LoadIDs(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadDemographic(t *testing.T) {
	dir := t.TempDir()
	participants := writeFile(t, dir, "participants.tsv", participantsTSV)

	t.Run("ordered by ID file", func(t *testing.T) {
		idsPath := writeFile(t, dir, "ids.csv", "Image_ID\nsub-03\nsub-01\n")
		subjects, err := LoadDemographic(participants, idsPath)
		require.NoError(t, err)
		require.Len(t, subjects, 2)
		assert.Equal(t, "sub-03", subjects[0].ImageID)
		assert.Equal(t, "sub-01", subjects[1].ImageID)
	})

	t.Run("no ID file keeps everyone", func(t *testing.T) {
		subjects, err := LoadDemographic(participants, "")
		require.NoError(t, err)
		assert.Len(t, subjects, 4)
	})

	t.Run("missing subject is an error", func(t *testing.T) {
		idsPath := writeFile(t, dir, "bad_ids.csv", "Image_ID\nsub-99\n")
		_, err := LoadDemographic(participants, idsPath)
		assert.Error(t, err)
	})
}

func TestLoadFreeSurfer(t *testing.T) {
	dir := t.TempDir()
	participants := writeFile(t, dir, "participants.tsv", participantsTSV)
	freesurfer := writeFile(t, dir, "freesurferData.csv", freesurferCSV)

	t.Run("inner join in participants order", func(t *testing.T) {
		table, err := LoadFreeSurfer(participants, "", freesurfer)
		require.NoError(t, err)

		// sub-03 has no FreeSurfer row and is dropped.
		assert.Equal(t, []string{"sub-01", "sub-02", "sub-04"}, table.IDs())
		assert.Equal(t, []string{"Left-Hippocampus", "Right-Hippocampus"}, table.RegionNames)
		assert.Equal(t, []float64{1500000, 1400000, 1600000}, table.TIV)

		ages := table.Ages()
		assert.Equal(t, 55.4, ages.AtVec(0))
		assert.Equal(t, 70.1, ages.AtVec(2))
	})

	t.Run("ID file order is strict", func(t *testing.T) {
		idsPath := writeFile(t, dir, "ids.csv", "Image_ID\nsub-04\nsub-01\n")
		table, err := LoadFreeSurfer(participants, idsPath, freesurfer)
		require.NoError(t, err)
		assert.Equal(t, []string{"sub-04", "sub-01"}, table.IDs())
	})

	t.Run("ID file naming a joined-out subject fails", func(t *testing.T) {
		idsPath := writeFile(t, dir, "missing.csv", "Image_ID\nsub-03\n")
		_, err := LoadFreeSurfer(participants, idsPath, freesurfer)
		assert.Error(t, err)
	})
}

func TestNormalizedRegions(t *testing.T) {
	dir := t.TempDir()
	participants := writeFile(t, dir, "participants.tsv", participantsTSV)
	freesurfer := writeFile(t, dir, "freesurferData.csv", freesurferCSV)

	table, err := LoadFreeSurfer(participants, "", freesurfer)
	require.NoError(t, err)

	normalized := table.NormalizedRegions()
	assert.InDelta(t, 4000.0/1500000, normalized.At(0, 0), 1e-12)
	assert.InDelta(t, 3950.0/1400000, normalized.At(1, 1), 1e-12)

	// Raw volumes stay untouched.
	assert.Equal(t, 4000.0, table.Regions.At(0, 0))
}
