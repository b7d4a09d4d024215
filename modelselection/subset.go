package modelselection

import "gonum.org/v1/gonum/mat"

// SelectRows copies the given rows of X into a new matrix.
func SelectRows(X mat.Matrix, rows []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, ri := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(ri, j))
		}
	}
	return out
}

// SelectBlock copies the (rows × cols) block of a precomputed kernel matrix.
// For a fold of a kernel model the training block is K[train, train] and the
// evaluation block is K[test, train].
func SelectBlock(K mat.Matrix, rows, cols []int) *mat.Dense {
	out := mat.NewDense(len(rows), len(cols), nil)
	for i, ri := range rows {
		for j, cj := range cols {
			out.Set(i, j, K.At(ri, cj))
		}
	}
	return out
}

// SelectVec copies the given elements of y into a new vector.
func SelectVec(y *mat.VecDense, idx []int) *mat.VecDense {
	out := mat.NewVecDense(len(idx), nil)
	for i, ri := range idx {
		out.SetVec(i, y.AtVec(ri))
	}
	return out
}
