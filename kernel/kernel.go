// Package kernel computes and persists the precomputed Gram matrices the
// voxel-level models consume. The on-disk layout matches the study's
// kernel.csv: a header row of subject IDs and one leading index column, so
// the files interoperate with pandas' read_csv(..., index_col=0).
package kernel

import (
	"encoding/csv"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/brainage/pkg/errors"
)

// Gram is a kernel matrix indexed by subject IDs on both axes.
type Gram struct {
	RowIDs []string
	ColIDs []string
	M      *mat.Dense

	rowIndex map[string]int
	colIndex map[string]int
}

// New wraps a matrix with its subject indices.
func New(rowIDs, colIDs []string, m *mat.Dense) (*Gram, error) {
	r, c := m.Dims()
	if r != len(rowIDs) {
		return nil, errors.NewDimensionError("kernel.New", len(rowIDs), r, 0)
	}
	if c != len(colIDs) {
		return nil, errors.NewDimensionError("kernel.New", len(colIDs), c, 1)
	}
	g := &Gram{RowIDs: rowIDs, ColIDs: colIDs, M: m}
	g.buildIndex()
	return g, nil
}

func (g *Gram) buildIndex() {
	g.rowIndex = make(map[string]int, len(g.RowIDs))
	for i, id := range g.RowIDs {
		g.rowIndex[id] = i
	}
	g.colIndex = make(map[string]int, len(g.ColIDs))
	for i, id := range g.ColIDs {
		g.colIndex[id] = i
	}
}

// Compute builds the linear Gram matrix X X^T of one cohort's voxel features.
func Compute(ids []string, X mat.Matrix) (*Gram, error) {
	n, _ := X.Dims()
	if n != len(ids) {
		return nil, errors.NewDimensionError("kernel.Compute", len(ids), n, 0)
	}
	m := mat.NewDense(n, n, nil)
	m.Mul(X, X.T())
	return New(ids, ids, m)
}

// ComputeCross builds the rectangular Gram matrix X1 X2^T between two
// cohorts, used for the cross-scanner generalisation kernel.
func ComputeCross(rowIDs []string, X1 mat.Matrix, colIDs []string, X2 mat.Matrix) (*Gram, error) {
	r, c1 := X1.Dims()
	c, c2 := X2.Dims()
	if r != len(rowIDs) {
		return nil, errors.NewDimensionError("kernel.ComputeCross", len(rowIDs), r, 0)
	}
	if c != len(colIDs) {
		return nil, errors.NewDimensionError("kernel.ComputeCross", len(colIDs), c, 0)
	}
	if c1 != c2 {
		return nil, errors.NewDimensionError("kernel.ComputeCross", c1, c2, 1)
	}
	m := mat.NewDense(r, c, nil)
	m.Mul(X1, X2.T())
	return New(rowIDs, colIDs, m)
}

// Sub extracts the block of kernel values for the given row and column
// subject IDs, e.g. K[train, train] for fitting or K[test, train] for
// prediction.
func (g *Gram) Sub(rowIDs, colIDs []string) (*mat.Dense, error) {
	out := mat.NewDense(len(rowIDs), len(colIDs), nil)
	for i, rid := range rowIDs {
		ri, ok := g.rowIndex[rid]
		if !ok {
			return nil, errors.NewSubjectError("kernel.Sub", rid)
		}
		for j, cid := range colIDs {
			ci, ok := g.colIndex[cid]
			if !ok {
				return nil, errors.NewSubjectError("kernel.Sub", cid)
			}
			out.Set(i, j, g.M.At(ri, ci))
		}
	}
	return out, nil
}

// Rows extracts the full rows for the given subject IDs, keeping every
// column. The generalisation scoring uses this to pair scanner-2 subjects
// against all training subjects.
func (g *Gram) Rows(rowIDs []string) (*mat.Dense, error) {
	return g.Sub(rowIDs, g.ColIDs)
}

// WriteCSV persists the kernel with its subject ID header and index column.
func (g *Gram) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{""}, g.ColIDs...)
	if err := w.Write(header); err != nil {
		return errors.WithStack(err)
	}

	r, c := g.M.Dims()
	record := make([]string, c+1)
	for i := 0; i < r; i++ {
		record[0] = g.RowIDs[i]
		for j := 0; j < c; j++ {
			record[j+1] = strconv.FormatFloat(g.M.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return errors.WithStack(err)
		}
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "failed to write %s", path)
}

// ReadCSV loads a kernel written by WriteCSV (or pandas to_csv).
func ReadCSV(path string) (*Gram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	if len(records) < 2 {
		return nil, errors.NewModelError("kernel.ReadCSV", "empty kernel file", errors.ErrEmptyData)
	}

	colIDs := records[0][1:]
	rowIDs := make([]string, 0, len(records)-1)
	m := mat.NewDense(len(records)-1, len(colIDs), nil)
	for i, record := range records[1:] {
		if len(record) != len(colIDs)+1 {
			return nil, errors.NewDimensionError("kernel.ReadCSV", len(colIDs)+1, len(record), 1)
		}
		rowIDs = append(rowIDs, record[0])
		for j, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "bad kernel value at row %s column %s", record[0], colIDs[j])
			}
			m.Set(i, j, v)
		}
	}
	return New(rowIDs, colIDs, m)
}
