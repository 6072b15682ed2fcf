// SPDX-License-Identifier: MIT

// Package matrix: the public Matrix interface and sparse-entry types.
package matrix

// Matrix represents a two-dimensional mutable array of float64 values.
//
// Complexity notes: all methods are expected O(1) except Clone (O(r*c)).
type Matrix interface {
	// Rows returns the number of rows in the matrix.
	Rows() int

	// Cols returns the number of columns in the matrix.
	Cols() int

	// At retrieves the element at position (i, j).
	// Returns ErrOutOfRange if i<0, i>=Rows(), j<0 or j>=Cols().
	At(i, j int) (float64, error)

	// Set assigns the value v at position (i, j).
	// Returns ErrOutOfRange if indices are invalid.
	Set(i, j int, v float64) error

	// Clone returns a deep copy of the matrix.
	Clone() Matrix
}

// Triplet is one sparse (row, col, value) entry. Jacobian evaluators emit
// triplets; Assemble sums duplicates into a Dense.
type Triplet struct {
	Row int     // row index (0-based)
	Col int     // column index (0-based)
	Val float64 // contribution; duplicates at the same (Row, Col) are summed
}
