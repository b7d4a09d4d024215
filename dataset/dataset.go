// Package dataset loads the demographic and FreeSurfer tables and joins them
// on subject ID. Joins are inner joins on Image_ID; when an ID file is given
// the result follows its order and a missing subject is an error rather than
// a silent drop.
package dataset

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/pkg/errors"
)

// TIVColumn is the total intracranial volume column of freesurferData.csv.
const TIVColumn = "EstimatedTotalIntraCranialVol"

// Demographics is one participants.tsv row.
type Demographics struct {
	ImageID string
	Age     float64
	Gender  int
}

// Table is a cohort with joined demographic and FreeSurfer data.
type Table struct {
	Subjects    []Demographics
	RegionNames []string
	Regions     *mat.Dense // raw regional volumes, one row per subject
	TIV         []float64
}

// IDs returns the subject IDs in table order.
func (t *Table) IDs() []string {
	ids := make([]string, len(t.Subjects))
	for i, s := range t.Subjects {
		ids[i] = s.ImageID
	}
	return ids
}

// Ages returns the chronological ages in table order.
func (t *Table) Ages() *mat.VecDense {
	ages := mat.NewVecDense(len(t.Subjects), nil)
	for i, s := range t.Subjects {
		ages.SetVec(i, s.Age)
	}
	return ages
}

// NormalizedRegions divides each regional volume by the subject's total
// intracranial volume.
func (t *Table) NormalizedRegions() *mat.Dense {
	r, c := t.Regions.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, t.Regions.At(i, j)/t.TIV[i])
		}
	}
	return out
}

// LoadParticipants reads a participants.tsv file. The Image_ID header is
// matched case-insensitively because the cohorts disagree on its spelling.
func LoadParticipants(path string) ([]Demographics, error) {
	records, err := readDelimited(path, '\t')
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.NewModelError("dataset.LoadParticipants", "no participant rows", errors.ErrEmptyData)
	}

	header := records[0]
	idCol := findColumn(header, "image_id")
	ageCol := findColumn(header, "age")
	genderCol := findColumn(header, "gender")
	if idCol < 0 || ageCol < 0 || genderCol < 0 {
		return nil, errors.NewValueError("dataset.LoadParticipants",
			"participants file must have Image_ID, Age and Gender columns")
	}

	subjects := make([]Demographics, 0, len(records)-1)
	for _, record := range records[1:] {
		age, err := strconv.ParseFloat(record[ageCol], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad age for subject %s", record[idCol])
		}
		gender, err := parseGender(record[genderCol])
		if err != nil {
			return nil, errors.Wrapf(err, "bad gender for subject %s", record[idCol])
		}
		subjects = append(subjects, Demographics{
			ImageID: record[idCol],
			Age:     age,
			Gender:  gender,
		})
	}
	return subjects, nil
}

// LoadIDs reads a single-column subject ID file, skipping an Image_ID header
// row when present.
func LoadIDs(path string) ([]string, error) {
	records, err := readDelimited(path, ',')
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for i, record := range records {
		id := strings.TrimSpace(record[0])
		if id == "" {
			continue
		}
		if i == 0 && strings.EqualFold(id, "image_id") {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.NewModelError("dataset.LoadIDs", "no subject IDs in "+path, errors.ErrEmptyData)
	}
	return ids, nil
}

// WriteIDs writes a subject ID file with an Image_ID header.
func WriteIDs(path string, ids []string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Image_ID"}); err != nil {
		return errors.WithStack(err)
	}
	for _, id := range ids {
		if err := w.Write([]string{id}); err != nil {
			return errors.WithStack(err)
		}
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "failed to write %s", path)
}

// LoadDemographic loads participants filtered and ordered by an ID file.
// With an empty idsPath the full participants table is returned.
func LoadDemographic(participantsPath, idsPath string) ([]Demographics, error) {
	subjects, err := LoadParticipants(participantsPath)
	if err != nil {
		return nil, err
	}
	if idsPath == "" {
		return subjects, nil
	}

	ids, err := LoadIDs(idsPath)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Demographics, len(subjects))
	for _, s := range subjects {
		byID[s.ImageID] = s
	}

	out := make([]Demographics, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, errors.NewSubjectError("dataset.LoadDemographic", id)
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadFreeSurfer joins the participants and FreeSurfer tables on Image_ID.
// Region columns are every freesurferData column except Image_ID and the TIV
// column. With an empty idsPath the join keeps every subject present in both
// tables, in participants order.
func LoadFreeSurfer(participantsPath, idsPath, freesurferPath string) (*Table, error) {
	subjects, err := LoadParticipants(participantsPath)
	if err != nil {
		return nil, err
	}

	records, err := readDelimited(freesurferPath, ',')
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.NewModelError("dataset.LoadFreeSurfer", "no FreeSurfer rows", errors.ErrEmptyData)
	}

	header := records[0]
	idCol := findColumn(header, "image_id")
	tivCol := findColumn(header, strings.ToLower(TIVColumn))
	if idCol < 0 {
		return nil, errors.NewValueError("dataset.LoadFreeSurfer", "freesurfer file must have an Image_ID column")
	}
	if tivCol < 0 {
		return nil, errors.NewValueError("dataset.LoadFreeSurfer", "freesurfer file must have an "+TIVColumn+" column")
	}

	regionCols := make([]int, 0, len(header)-2)
	regionNames := make([]string, 0, len(header)-2)
	for j, name := range header {
		if j == idCol || j == tivCol {
			continue
		}
		regionCols = append(regionCols, j)
		regionNames = append(regionNames, name)
	}

	type fsRow struct {
		regions []float64
		tiv     float64
	}
	fsByID := make(map[string]fsRow, len(records)-1)
	for _, record := range records[1:] {
		id := record[idCol]
		tiv, err := strconv.ParseFloat(record[tivCol], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad TIV for subject %s", id)
		}
		regions := make([]float64, len(regionCols))
		for k, j := range regionCols {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "bad volume %s for subject %s", header[j], id)
			}
			regions[k] = v
		}
		fsByID[id] = fsRow{regions: regions, tiv: tiv}
	}

	demoByID := make(map[string]Demographics, len(subjects))
	order := make([]string, 0, len(subjects))
	for _, s := range subjects {
		demoByID[s.ImageID] = s
		order = append(order, s.ImageID)
	}

	if idsPath != "" {
		ids, err := LoadIDs(idsPath)
		if err != nil {
			return nil, err
		}
		order = ids
	}

	t := &Table{RegionNames: regionNames}
	rows := make([]float64, 0, len(order)*len(regionNames))
	for _, id := range order {
		demo, okDemo := demoByID[id]
		fs, okFS := fsByID[id]
		if idsPath != "" && (!okDemo || !okFS) {
			return nil, errors.NewSubjectError("dataset.LoadFreeSurfer", id)
		}
		if !okDemo || !okFS {
			continue
		}
		t.Subjects = append(t.Subjects, demo)
		t.TIV = append(t.TIV, fs.tiv)
		rows = append(rows, fs.regions...)
	}
	if len(t.Subjects) == 0 {
		return nil, errors.NewModelError("dataset.LoadFreeSurfer", "no subjects after join", errors.ErrEmptyData)
	}
	t.Regions = mat.NewDense(len(t.Subjects), len(regionNames), rows)
	return t, nil
}

func readDelimited(path string, comma rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return records, nil
}

func findColumn(header []string, lowerName string) int {
	for j, name := range header {
		if strings.ToLower(strings.TrimSpace(name)) == lowerName {
			return j
		}
	}
	return -1
}

func parseGender(field string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return int(v), nil
}
