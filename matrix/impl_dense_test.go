// SPDX-License-Identifier: MIT

package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlarc/matrix"
)

func TestNewDense_InvalidDimensions(t *testing.T) {
	for _, tc := range []struct{ r, c int }{{0, 1}, {1, 0}, {-1, 3}} {
		_, err := matrix.NewDense(tc.r, tc.c)
		require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
	}
}

func TestDense_AtSetBounds(t *testing.T) {
	m := MustDense(t, 2, 3)
	require.NoError(t, m.Set(1, 2, 4.5))
	require.Equal(t, 4.5, MustAt(t, m, 1, 2))

	_, err := m.At(2, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(0, -1, 1), matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
}

func TestNewDenseFrom_RoundTripFlat(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6}
	m := MustDense(t, 2, 3, vals...)
	require.Equal(t, vals, m.Flat())
	require.Equal(t, 6.0, MustAt(t, m, 1, 2))

	_, err := matrix.NewDenseFrom(2, 2, vals)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.NewDenseFrom(1, 2, []float64{1, math.Inf(1)})
	require.ErrorIs(t, err, matrix.ErrNaNInf)
}

func TestDense_CloneIsIndependent(t *testing.T) {
	m := MustDense(t, 2, 2, 1, 2, 3, 4)
	cp := m.Clone()
	require.NoError(t, cp.Set(0, 0, 9))
	require.Equal(t, 1.0, MustAt(t, m, 0, 0))
	require.Equal(t, "[1, 2]\n[3, 4]\n", m.String())
}

func TestNewIdentity(t *testing.T) {
	id, err := matrix.NewIdentity(3)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, id.Flat())
}
