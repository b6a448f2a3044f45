package feature

import "fmt"

// Sparse is a compressed-sparse-row matrix. The feature space here is wide
// (hash spaces of a few thousand columns) but each row carries only a
// handful of non-zeros, so CSR keeps memory bounded.
type Sparse struct {
	rows    int
	cols    int
	indptr  []int
	indices []int
	data    []float64
}

// NewSparse creates an empty matrix with capacity hints for nnz.
func NewSparse(rows, cols, nnzHint int) *Sparse {
	return &Sparse{
		rows:    rows,
		cols:    cols,
		indptr:  make([]int, 1, rows+1),
		indices: make([]int, 0, nnzHint),
		data:    make([]float64, 0, nnzHint),
	}
}

// AppendRow adds the next row given its non-zero column indices and values.
// Rows must be appended in order; len(indices) must equal len(values).
func (m *Sparse) AppendRow(indices []int, values []float64) {
	m.indices = append(m.indices, indices...)
	m.data = append(m.data, values...)
	m.indptr = append(m.indptr, len(m.indices))
}

// FromDense builds a sparse matrix from a dense block, keeping explicit
// zeros out of the structure.
func FromDense(x [][]float64, cols int) *Sparse {
	m := NewSparse(len(x), cols, len(x)*cols/2)
	for _, row := range x {
		var idx []int
		var vals []float64
		for j, v := range row {
			if v != 0 {
				idx = append(idx, j)
				vals = append(vals, v)
			}
		}
		m.AppendRow(idx, vals)
	}
	return m
}

// Rows returns the row count.
func (m *Sparse) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Sparse) Cols() int { return m.cols }

// NNZ returns the number of stored non-zeros.
func (m *Sparse) NNZ() int { return len(m.data) }

// Row returns the non-zero column indices and values of row i. The returned
// slices are views into the matrix and must not be modified.
func (m *Sparse) Row(i int) ([]int, []float64) {
	lo, hi := m.indptr[i], m.indptr[i+1]
	return m.indices[lo:hi], m.data[lo:hi]
}

// At returns the value at (i, j).
func (m *Sparse) At(i, j int) float64 {
	idx, vals := m.Row(i)
	for k, col := range idx {
		if col == j {
			return vals[k]
		}
	}
	return 0
}

// SelectRows builds a new matrix from the given row indices, in order.
// Indices may repeat.
func (m *Sparse) SelectRows(rows []int) *Sparse {
	out := NewSparse(len(rows), m.cols, len(rows)*4)
	for _, i := range rows {
		idx, vals := m.Row(i)
		out.AppendRow(idx, vals)
	}
	return out
}

// HStack concatenates matrices column-wise. All blocks must have the same
// row count.
func HStack(blocks ...*Sparse) (*Sparse, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("hstack: no blocks")
	}

	rows := blocks[0].rows
	totalCols := 0
	totalNNZ := 0
	for _, b := range blocks {
		if b.rows != rows {
			return nil, fmt.Errorf("hstack: row count mismatch: %d vs %d", b.rows, rows)
		}
		totalCols += b.cols
		totalNNZ += b.NNZ()
	}

	out := NewSparse(rows, totalCols, totalNNZ)
	for i := 0; i < rows; i++ {
		offset := 0
		for _, b := range blocks {
			idx, vals := b.Row(i)
			for k, col := range idx {
				out.indices = append(out.indices, col+offset)
				out.data = append(out.data, vals[k])
			}
			offset += b.cols
		}
		out.indptr = append(out.indptr, len(out.indices))
	}
	return out, nil
}
