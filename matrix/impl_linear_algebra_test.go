// SPDX-License-Identifier: MIT

package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlarc/matrix"
)

func TestMul_FastPathMatchesFallback(t *testing.T) {
	a := MustDense(t, 2, 3, 1, 2, 3, 4, 5, 6)
	b := MustDense(t, 3, 2, 7, 8, 9, 10, 11, 12)

	fast, err := matrix.Mul(a, b)
	require.NoError(t, err)
	slow, err := matrix.Mul(hide{a}, hide{b})
	require.NoError(t, err)

	require.Equal(t, []float64{58, 64, 139, 154}, fast.Flat())
	require.Equal(t, fast.Flat(), slow.Flat())

	_, err = matrix.Mul(a, a)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestTranspose(t *testing.T) {
	a := MustDense(t, 2, 3, 1, 2, 3, 4, 5, 6)
	at, err := matrix.Transpose(a)
	require.NoError(t, err)
	require.Equal(t, 3, at.Rows())
	require.Equal(t, []float64{1, 4, 2, 5, 3, 6}, at.Flat())

	viaIface, err := matrix.Transpose(hide{a})
	require.NoError(t, err)
	require.Equal(t, at.Flat(), viaIface.Flat())

	_, err = matrix.Transpose(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestMatVec(t *testing.T) {
	a := MustDense(t, 2, 3, 1, 2, 3, 4, 5, 6)
	y, err := matrix.MatVec(a, []float64{1, 0, -1})
	require.NoError(t, err)
	require.Equal(t, []float64{-2, -2}, y)

	_, err = matrix.MatVec(a, []float64{1})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestNorm2(t *testing.T) {
	require.Equal(t, 0.0, matrix.Norm2(nil))
	require.InDelta(t, 5.0, matrix.Norm2([]float64{3, 4}), 1e-15)
	// No overflow for large magnitudes.
	big := 1e300
	require.InDelta(t, big*math.Sqrt2, matrix.Norm2([]float64{big, big}), 1e286)
}

func TestAssemble_SumsDuplicates(t *testing.T) {
	d, err := matrix.Assemble(2, 2, []matrix.Triplet{
		{Row: 0, Col: 0, Val: 1},
		{Row: 0, Col: 0, Val: 2},
		{Row: 1, Col: 1, Val: -1},
	})
	require.NoError(t, err)
	require.Equal(t, []float64{3, 0, 0, -1}, d.Flat())

	_, err = matrix.Assemble(2, 2, []matrix.Triplet{{Row: 2, Col: 0, Val: 1}})
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	_, err = matrix.Assemble(2, 2, []matrix.Triplet{{Row: 0, Col: 0, Val: math.NaN()}})
	require.ErrorIs(t, err, matrix.ErrNaNInf)
}
