// SPDX-License-Identifier: MIT

// Package matrix provides the small dense linear-algebra core used by the
// multiple-shooting corrector: a row-major Dense type with safe accessors,
// sparse triplet assembly, products, norms, and the two solves a Newton step
// needs (square LU with partial pivoting, minimum-norm Gram solve).
//
// Errors:
//   - ErrInvalidDimensions, ErrOutOfRange, ErrDimensionMismatch, ErrNonSquare
//   - ErrNaNInf, ErrNilMatrix
//   - ErrSingular, ErrUnderdetermined, ErrOverdetermined
//
// Every kernel wraps its sentinel with an operation tag ("Solve: ...") so
// errors.Is keeps working through the corrector's own wrapping.
package matrix
