// SPDX-License-Identifier: MIT

// Package matrix - core kernels: Mul, Transpose, MatVec, Norm2, Assemble.
//
// Purpose:
//   - Provide exactly the dense kernels a Newton step needs: Jacobian assembly from
//     sparse contributions, products with the transpose (Gram matrix), and norms.
//
// Determinism:
//   - Fixed loop orders; no map iteration; Assemble sums duplicates in input order.
//
// AI-Hints:
//   - Keep operands as *Dense to hit the flat fast-paths.

package matrix

import (
	"fmt"
	"math"
)

// NormZero is the additive identity for norm and accumulation operations.
const NormZero = 0.0

// ZeroSum is the initial sum value for substitution and dot products.
const ZeroSum = 0.0

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opMul       = "Mul"
	opTranspose = "Transpose"
	opMatVec    = "MatVec"
	opAssemble  = "Assemble"
	opLU        = "LU"
	opSolve     = "Solve"
	opMinNorm   = "SolveMinNorm"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// Mul computes the product a*b into a freshly allocated Dense.
// Implementation:
//   - Stage 1: ValidateMulCompatible(a, b); allocate result.
//   - Stage 2: fast-path i→k→j on two *Dense (skipping zero a[i,k]); else At/Set fallback.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch.
//
// Complexity:
//   - Time O(r*n*c), Space O(r*c).
func Mul(a, b Matrix) (*Dense, error) {
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	aRows, aCols, bCols := a.Rows(), a.Cols(), b.Cols()
	res, err := NewDense(aRows, bCols)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	var (
		i, j, k         int
		av, bv, current float64
	)
	if da, okA := a.(*Dense); okA {
		if db, okB := b.(*Dense); okB {
			var rowOffsetA, rowOffsetB, rowOffsetR int
			for i = 0; i < aRows; i++ {
				rowOffsetA = i * aCols
				rowOffsetR = i * bCols
				for k = 0; k < aCols; k++ {
					av = da.data[rowOffsetA+k]
					if av == 0 {
						continue // skip zero for performance
					}
					rowOffsetB = k * bCols
					for j = 0; j < bCols; j++ {
						res.data[rowOffsetR+j] += av * db.data[rowOffsetB+j]
					}
				}
			}

			return res, nil
		}
	}

	// Fallback: generic interface triple-loop (i-j-k)
	for i = 0; i < aRows; i++ {
		for j = 0; j < bCols; j++ {
			current = ZeroSum
			for k = 0; k < aCols; k++ {
				if av, err = a.At(i, k); err != nil {
					return nil, matrixErrorf(opMul, err)
				}
				if av == 0 {
					continue
				}
				if bv, err = b.At(k, j); err != nil {
					return nil, matrixErrorf(opMul, err)
				}
				current += av * bv
			}
			res.data[i*bCols+j] = current
		}
	}

	return res, nil
}

// Transpose returns a new Dense with rows and columns swapped (mᵀ).
// Errors: ErrNilMatrix.
// Complexity: Time O(r*c), Space O(r*c).
func Transpose(m Matrix) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	rows, cols := m.Rows(), m.Cols()
	res, err := NewDense(cols, rows)
	if err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	var i, j int
	if d, ok := m.(*Dense); ok {
		for i = 0; i < rows; i++ {
			for j = 0; j < cols; j++ {
				res.data[j*rows+i] = d.data[i*cols+j]
			}
		}

		return res, nil
	}
	var v float64
	for i = 0; i < rows; i++ {
		for j = 0; j < cols; j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, matrixErrorf(opTranspose, err)
			}
			res.data[j*rows+i] = v
		}
	}

	return res, nil
}

// MatVec computes y = m * x for a column vector x.
//
// Contract: m non-nil; len(x) == m.Cols().
// Determinism: fixed i→j loop order.
// Complexity: Time O(r*c), Space O(r) for y.
func MatVec(m Matrix, x []float64) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	if err := ValidateVecLen(x, m.Cols()); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	rows, cols := m.Rows(), m.Cols()
	y := make([]float64, rows)

	var i, j int
	if d, ok := m.(*Dense); ok {
		var base int
		var acc float64
		for i = 0; i < rows; i++ {
			acc = ZeroSum
			base = i * cols
			for j = 0; j < cols; j++ {
				if x[j] != 0 {
					acc += d.data[base+j] * x[j]
				}
			}
			y[i] = acc
		}

		return y, nil
	}
	var mv float64
	var err error
	for i = 0; i < rows; i++ {
		for j = 0; j < cols; j++ {
			if mv, err = m.At(i, j); err != nil {
				return nil, matrixErrorf(opMatVec, err)
			}
			y[i] += mv * x[j]
		}
	}

	return y, nil
}

// Norm2 returns the Euclidean norm of x, scaled to avoid overflow.
// Complexity: O(len(x)).
func Norm2(x []float64) float64 {
	var scale, ssq = NormZero, 1.0
	var a, r float64
	var i int
	for i = range x {
		if x[i] == 0 {
			continue
		}
		a = math.Abs(x[i])
		if scale < a {
			r = scale / a
			ssq = 1 + ssq*r*r
			scale = a
		} else {
			r = a / scale
			ssq += r * r
		}
	}
	if scale == NormZero {
		return NormZero
	}

	return scale * math.Sqrt(ssq)
}

// Assemble materialises a rows×cols Dense from sparse triplets, summing
// duplicate (Row, Col) entries in input order.
// MAIN DESCRIPTION:
//   - Jacobian evaluators emit independent contributions; Assemble is the single
//     place where they meet, so no evaluator ever sees another's partials.
//
// Errors:
//   - ErrInvalidDimensions (rows/cols <= 0).
//   - ErrOutOfRange (a triplet outside the shape), ErrNaNInf (non-finite value).
//
// Complexity:
//   - Time O(r*c + len(ts)), Space O(r*c).
func Assemble(rows, cols int, ts []Triplet) (*Dense, error) {
	d, err := NewDense(rows, cols)
	if err != nil {
		return nil, matrixErrorf(opAssemble, err)
	}
	var t Triplet
	for _, t = range ts {
		if t.Row < 0 || t.Row >= rows || t.Col < 0 || t.Col >= cols {
			return nil, matrixErrorf(opAssemble, denseErrorf(ctxSet, t.Row, t.Col, ErrOutOfRange))
		}
		if math.IsNaN(t.Val) || math.IsInf(t.Val, 0) {
			return nil, matrixErrorf(opAssemble, denseErrorf(ctxSet, t.Row, t.Col, ErrNaNInf))
		}
		d.data[t.Row*cols+t.Col] += t.Val
	}

	return d, nil
}
