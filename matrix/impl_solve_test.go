// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlarc/matrix"
)

func TestSolve_NeedsPivoting(t *testing.T) {
	// A zero leading entry defeats a non-pivoting Doolittle scheme.
	a := MustDense(t, 3, 3,
		0, 2, 1,
		1, 1, 1,
		2, 1, 0,
	)
	x, err := matrix.Solve(a, []float64{5, 4, 4})
	require.NoError(t, err)
	// Exact solution x = (1, 2, 1).
	require.InDeltaSlice(t, []float64{1, 2, 1}, x, 1e-12)

	viaIface, err := matrix.Solve(hide{a}, []float64{5, 4, 4})
	require.NoError(t, err)
	require.InDeltaSlice(t, x, viaIface, 1e-15)
}

func TestSolve_Singular(t *testing.T) {
	a := MustDense(t, 2, 2, 1, 2, 2, 4)
	_, err := matrix.Solve(a, []float64{1, 2})
	require.ErrorIs(t, err, matrix.ErrSingular)

	zero := MustDense(t, 2, 2)
	_, err = matrix.Solve(zero, []float64{0, 0})
	require.ErrorIs(t, err, matrix.ErrSingular)
}

func TestSolve_Rectangular(t *testing.T) {
	_, err := matrix.Solve(MustDense(t, 1, 2, 1, 1), []float64{1})
	require.ErrorIs(t, err, matrix.ErrUnderdetermined)
	_, err = matrix.Solve(MustDense(t, 2, 1, 1, 1), []float64{1, 1})
	require.ErrorIs(t, err, matrix.ErrOverdetermined)
}

func TestSolveMinNorm(t *testing.T) {
	// x0 + x1 = 2 has minimum-norm solution (1, 1).
	a := MustDense(t, 1, 2, 1, 1)
	x, err := matrix.SolveMinNorm(a, []float64{2})
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1, 1}, x, 1e-14)

	// Two equations, three unknowns: check residual and orthogonality to the null space.
	b := MustDense(t, 2, 3,
		1, 0, 1,
		0, 1, 1,
	)
	x, err = matrix.SolveMinNorm(b, []float64{1, 2})
	require.NoError(t, err)
	y, err := matrix.MatVec(b, x)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1, 2}, y, 1e-12)
	// Null space of b is span{(1, 1, -1)}.
	require.InDelta(t, 0.0, x[0]+x[1]-x[2], 1e-12)

	_, err = matrix.SolveMinNorm(MustDense(t, 3, 2), []float64{0, 0, 0})
	require.ErrorIs(t, err, matrix.ErrOverdetermined)

	// Rank-deficient rows make the Gram matrix singular.
	_, err = matrix.SolveMinNorm(MustDense(t, 2, 3, 1, 1, 1, 2, 2, 2), []float64{1, 2})
	require.ErrorIs(t, err, matrix.ErrSingular)
}
