package corrector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlarc/arcset"
	"github.com/katalvlaran/lvlarc/constraint"
)

// twoSegs builds N0 -> N1 -> N2 with the given TOFs.
func twoSegs(t *testing.T, tof0, tof1 float64) *arcset.Arcset {
	t.Helper()
	a := arcset.New("drift")
	for i := 0; i < 3; i++ {
		a.AddNode(arcset.NewNode([]float64{float64(i), 0, 0, 1, 0, 0}, float64(i)))
	}
	_, err := a.AddSeg(arcset.NewSegment(0, 1, tof0))
	require.NoError(t, err)
	_, err = a.AddSeg(arcset.NewSegment(1, 2, tof1))
	require.NoError(t, err)

	return a
}

func TestBuildVarMapLayout(t *testing.T) {
	a := twoSegs(t, 1, 2)

	m, x, err := buildVarMap(a.Nodes(), a.Segs(), true, TOFFree)
	require.NoError(t, err)
	require.Equal(t, 20, m.Len())
	require.Equal(t, 20, m.Primary())
	require.Len(t, x, 20)
	require.Equal(t, 6, m.Row(VarState, 1))
	require.Equal(t, 18, m.Row(VarTOF, 0))
	require.Equal(t, 19, m.Row(VarTOF, 1))
	require.Equal(t, -1, m.Row(VarEpoch, 0), "autonomous: no epochs")
	require.Equal(t, 2.0, x[19])

	m, x, err = buildVarMap(a.Nodes(), a.Segs(), false, TOFFree)
	require.NoError(t, err)
	require.Equal(t, 23, m.Len())
	require.Equal(t, 20, m.Row(VarEpoch, 0))
	require.Equal(t, 22, m.Row(VarEpoch, 2))
	require.Equal(t, 2.0, x[22])

	col := m.addSlack(7)
	require.Equal(t, 23, col)
	require.Equal(t, 24, m.Len())
	require.Equal(t, 23, m.Primary())
	require.Equal(t, 23, m.Row(VarSlack, 7))
}

func TestBuildVarMapRemovals(t *testing.T) {
	a := twoSegs(t, 1, 2)
	require.NoError(t, a.AddConstraint(constraint.New(constraint.RmState, 0)))
	require.NoError(t, a.AddConstraint(constraint.New(constraint.RmEpoch, 1)))
	require.NoError(t, a.AddConstraint(constraint.New(constraint.RmTOF, 0)))

	m, x, err := buildVarMap(a.Nodes(), a.Segs(), false, TOFFree)
	require.NoError(t, err)
	require.Equal(t, -1, m.Row(VarState, 0))
	require.Equal(t, 0, m.Row(VarState, 1))
	require.Equal(t, -1, m.Row(VarTOF, 0))
	require.Equal(t, 12, m.Row(VarTOF, 1))
	require.Equal(t, []int{13, -1, 14}, []int{m.Row(VarEpoch, 0), m.Row(VarEpoch, 1), m.Row(VarEpoch, 2)})
	require.Len(t, x, 15)

	tof, col, coeff := m.tofAt(0, 1, x)
	require.Equal(t, 1.0, tof)
	require.Equal(t, -1, col)
	require.Zero(t, coeff)
}

func TestBuildVarMapTOFModes(t *testing.T) {
	a := twoSegs(t, 1, 3)

	m, x, err := buildVarMap(a.Nodes(), a.Segs(), true, TOFFixed)
	require.NoError(t, err)
	require.Equal(t, 18, m.Len())
	require.Equal(t, -1, m.Row(VarTOF, 1))
	tof, _, _ := m.tofAt(1, 3, x)
	require.Equal(t, 3.0, tof)

	m, x, err = buildVarMap(a.Nodes(), a.Segs(), true, TOFEqualArc)
	require.NoError(t, err)
	require.Equal(t, 19, m.Len())
	require.Equal(t, m.Row(VarTOF, 0), m.Row(VarTOF, 1))
	require.Equal(t, 4.0, x[18])
	tof, col, coeff := m.tofAt(0, 1, x)
	require.Equal(t, 2.0, tof, "each segment flies T/N")
	require.Equal(t, 18, col)
	require.Equal(t, 0.5, coeff)

	back := arcset.New("drift")
	back.AddNode(arcset.NewNode([]float64{0, 0, 0, 1, 0, 0}, 0))
	back.AddNode(arcset.NewNode([]float64{-2, 0, 0, 1, 0, 0}, -2))
	_, err = back.AddSeg(arcset.NewSegment(0, 1, -2))
	require.NoError(t, err)
	m, x, err = buildVarMap(back.Nodes(), back.Segs(), true, TOFFixedSign)
	require.NoError(t, err)
	require.InDelta(t, math.Sqrt2, x[12], 1e-15)
	tof, col, coeff = m.tofAt(0, -2, x)
	require.InDelta(t, -2.0, tof, 1e-14)
	require.Equal(t, 12, col)
	require.InDelta(t, -2*math.Sqrt2, coeff, 1e-14)
}

func TestBuildVarMapErrors(t *testing.T) {
	a := arcset.New("drift")
	a.AddNode(arcset.NewNode([]float64{0, 0, 0}, 0))
	_, _, err := buildVarMap(a.Nodes(), a.Segs(), true, TOFFree)
	require.ErrorIs(t, err, ErrInvalidArcset)

	mixed := arcset.New("drift")
	for i := 0; i < 3; i++ {
		mixed.AddNode(arcset.NewNode([]float64{0, 0, 0, 1, 0, 0}, 0))
	}
	_, err = mixed.AddSeg(arcset.NewSegment(1, 0, 1))
	require.NoError(t, err)
	_, err = mixed.AddSeg(arcset.NewSegment(1, 2, -1))
	require.NoError(t, err)
	_, _, err = buildVarMap(mixed.Nodes(), mixed.Segs(), true, TOFEqualArc)
	require.ErrorIs(t, err, ErrInvalidArcset)

	held := twoSegs(t, 1, 1)
	require.NoError(t, held.AddConstraint(constraint.New(constraint.RmTOF, 1)))
	_, _, err = buildVarMap(held.Nodes(), held.Segs(), true, TOFEqualArc)
	require.ErrorIs(t, err, ErrUnsupportedConstraint)
}

func TestRegistryWithAndContribution(t *testing.T) {
	base := CoreRegistry()
	require.True(t, base.Supports(constraint.ContPV))
	require.False(t, base.Supports(constraint.Apse))

	extra := Registry{constraint.Apse: {Rows: RowsFixed(1)}}
	merged := base.With(extra)
	require.True(t, merged.Supports(constraint.Apse))
	require.False(t, base.Supports(constraint.Apse), "With copies")

	c := NewContribution(2)
	c.Add(0, 3, 1.5)
	c.Add(1, -1, 2) // held variable
	c.Add(1, 4, 0)
	require.Len(t, c.DF, 1)
	require.Equal(t, 3, c.DF[0].Col)
	require.Equal(t, 2, len(c.F))

	require.Equal(t, -1, ColOf(-1, 3))
	require.Equal(t, 9, ColOf(6, 3))
}

func TestTOFModeNames(t *testing.T) {
	for _, m := range []TOFMode{TOFFree, TOFFixed, TOFFixedSign, TOFEqualArc} {
		got, err := ParseTOFMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
	got, err := ParseTOFMode(" equal_arc ")
	require.NoError(t, err)
	require.Equal(t, TOFEqualArc, got)
	_, err = ParseTOFMode("sideways")
	require.Error(t, err)

	require.Panics(t, func() { WithTOFMode(TOFMode(9)) })
	require.Panics(t, func() { WithMaxIterations(0) })
	require.Panics(t, func() { WithParallelism(0) })
	require.Panics(t, func() { WithTolerance(-1) })
}
