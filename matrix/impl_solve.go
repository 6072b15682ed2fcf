// SPDX-License-Identifier: MIT

// Package matrix - linear solves for Newton updates.
//
// Purpose:
//   - Factorize: LU with partial (row) pivoting, PA = LU, stored compactly.
//   - Solve: square systems A x = b through the factorisation.
//   - SolveMinNorm: the minimum-norm solution of an under-determined system
//     A x = b (rows < cols) via the Gram system (A Aᵀ) w = b, x = Aᵀ w.
//
// Determinism:
//   - Pivot search scans rows top-down and keeps the first maximal |a|, so ties
//     resolve identically across runs.
//
// AI-Hints:
//   - Over-determined systems are rejected with ErrOverdetermined; there is no
//     least-squares fallback here.

package matrix

import (
	"fmt"
	"math"
)

// LUFactors holds a partially pivoted LU factorisation PA = LU of an n×n matrix.
//   - lu stores L (strictly below the diagonal, unit diagonal implied) and U (on/above).
//   - piv[i] is the original row placed at position i.
type LUFactors struct {
	n   int
	lu  []float64
	piv []int
}

// Factorize computes PA = LU with partial pivoting.
// Implementation:
//   - Stage 1: ValidateSquare; copy A into a flat work buffer; record max|A|.
//   - Stage 2: for each column k pick the largest |a[i,k]| (i ≥ k), swap rows,
//     eliminate below the pivot.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare.
//   - ErrSingular when a pivot falls below DefaultPivotTol·max|A| (or A is all zeros).
//
// Complexity:
//   - Time O(n^3), Space O(n^2).
func Factorize(m Matrix) (*LUFactors, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opLU, err)
	}
	n := m.Rows()
	work := make([]float64, n*n)
	var i, j, k int
	var v float64
	var err error
	if d, ok := m.(*Dense); ok {
		copy(work, d.data)
	} else {
		for i = 0; i < n; i++ {
			for j = 0; j < n; j++ {
				if v, err = m.At(i, j); err != nil {
					return nil, matrixErrorf(opLU, err)
				}
				work[i*n+j] = v
			}
		}
	}

	var maxAbs float64
	for i = range work {
		if math.IsNaN(work[i]) || math.IsInf(work[i], 0) {
			return nil, matrixErrorf(opLU, ErrNaNInf)
		}
		maxAbs = math.Max(maxAbs, math.Abs(work[i]))
	}
	if maxAbs == 0 {
		return nil, matrixErrorf(opLU, ErrSingular)
	}
	threshold := DefaultPivotTol * maxAbs

	piv := make([]int, n)
	for i = range piv {
		piv[i] = i
	}
	var p int
	var best, factor float64
	for k = 0; k < n; k++ {
		// Pivot search: first maximal |a[i,k]|, i in [k, n).
		p, best = k, math.Abs(work[k*n+k])
		for i = k + 1; i < n; i++ {
			if v = math.Abs(work[i*n+k]); v > best {
				p, best = i, v
			}
		}
		if best <= threshold {
			return nil, matrixErrorf(opLU, fmt.Errorf("column %d: %w", k, ErrSingular))
		}
		if p != k {
			for j = 0; j < n; j++ {
				work[k*n+j], work[p*n+j] = work[p*n+j], work[k*n+j]
			}
			piv[k], piv[p] = piv[p], piv[k]
		}
		for i = k + 1; i < n; i++ {
			factor = work[i*n+k] / work[k*n+k]
			work[i*n+k] = factor
			if factor == 0 {
				continue
			}
			for j = k + 1; j < n; j++ {
				work[i*n+j] -= factor * work[k*n+j]
			}
		}
	}

	return &LUFactors{n: n, lu: work, piv: piv}, nil
}

// Solve returns x with A x = b using the stored factorisation.
// Errors: ErrDimensionMismatch when len(b) != n.
// Complexity: O(n^2).
func (f *LUFactors) Solve(b []float64) ([]float64, error) {
	if err := ValidateVecLen(b, f.n); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	n := f.n
	x := make([]float64, n)
	var i, j int
	var sum float64
	// Forward substitution on Pb with unit-lower L.
	for i = 0; i < n; i++ {
		sum = b[f.piv[i]]
		for j = 0; j < i; j++ {
			sum -= f.lu[i*n+j] * x[j]
		}
		x[i] = sum
	}
	// Back substitution with U.
	for i = n - 1; i >= 0; i-- {
		sum = x[i]
		for j = i + 1; j < n; j++ {
			sum -= f.lu[i*n+j] * x[j]
		}
		x[i] = sum / f.lu[i*n+i]
	}

	return x, nil
}

// Solve solves the square system a x = b.
// Errors:
//   - ErrNilMatrix; ErrUnderdetermined / ErrOverdetermined for rectangular a;
//     ErrDimensionMismatch for len(b) != rows; ErrSingular.
func Solve(a Matrix, b []float64) ([]float64, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	switch {
	case a.Rows() < a.Cols():
		return nil, matrixErrorf(opSolve, ErrUnderdetermined)
	case a.Rows() > a.Cols():
		return nil, matrixErrorf(opSolve, ErrOverdetermined)
	}
	f, err := Factorize(a)
	if err != nil {
		return nil, matrixErrorf(opSolve, err)
	}

	return f.Solve(b)
}

// SolveMinNorm returns the minimum-norm x satisfying a x = b.
// Implementation:
//   - rows == cols: direct factorisation (Solve).
//   - rows <  cols: G = a aᵀ; solve G w = b; x = aᵀ w.
//   - rows >  cols: ErrOverdetermined.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrSingular (rank-deficient a), ErrOverdetermined.
//
// Complexity:
//   - Time O(r^2 c + r^3), Space O(r^2 + r c).
func SolveMinNorm(a Matrix, b []float64) ([]float64, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, matrixErrorf(opMinNorm, err)
	}
	rows, cols := a.Rows(), a.Cols()
	if rows > cols {
		return nil, matrixErrorf(opMinNorm, ErrOverdetermined)
	}
	if rows == cols {
		return Solve(a, b)
	}
	if err := ValidateVecLen(b, rows); err != nil {
		return nil, matrixErrorf(opMinNorm, err)
	}
	at, err := Transpose(a)
	if err != nil {
		return nil, matrixErrorf(opMinNorm, err)
	}
	gram, err := Mul(a, at)
	if err != nil {
		return nil, matrixErrorf(opMinNorm, err)
	}
	f, err := Factorize(gram)
	if err != nil {
		return nil, matrixErrorf(opMinNorm, err)
	}
	w, err := f.Solve(b)
	if err != nil {
		return nil, matrixErrorf(opMinNorm, err)
	}

	return MatVec(at, w)
}
