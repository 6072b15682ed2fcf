// SPDX-License-Identifier: MIT

package constraint_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/lvlarc/constraint"
)

var nan = math.NaN()

func TestScopeDerivedFromType(t *testing.T) {
	cases := map[constraint.Type]constraint.Scope{
		constraint.State:       constraint.ScopeNode,
		constraint.MatchAll:    constraint.ScopeNode,
		constraint.Epoch:       constraint.ScopeNode,
		constraint.MaxDist:     constraint.ScopeNode,
		constraint.RmState:     constraint.ScopeNode,
		constraint.RmEpoch:     constraint.ScopeNode,
		constraint.ContPV:      constraint.ScopeSegment,
		constraint.ContEx:      constraint.ScopeSegment,
		constraint.EndSegState: constraint.ScopeSegment,
		constraint.RmTOF:       constraint.ScopeSegment,
		constraint.TOFTotal:    constraint.ScopeArc,
		constraint.DeltaV:      constraint.ScopeArc,
		constraint.MaxDeltaV:   constraint.ScopeArc,
		constraint.SegContPV:   constraint.ScopeArc,
		constraint.SegContEx:   constraint.ScopeArc,
	}
	for typ, want := range cases {
		require.Equal(t, want, constraint.New(typ, 0).Scope(), typ.String())
	}
}

func TestCountAndConstrained(t *testing.T) {
	c := constraint.New(constraint.State, 3, 1, nan, 2, nan, nan, 0)
	require.Equal(t, 3, c.CountConstrained())
	require.Equal(t, []int{0, 2, 5}, c.Constrained())

	ix, v, ok := c.FirstValue()
	require.True(t, ok)
	require.Equal(t, 0, ix)
	require.Equal(t, 1.0, v)

	_, _, ok = constraint.New(constraint.State, 0, nan, nan).FirstValue()
	require.False(t, ok)
}

func TestNewCopiesData(t *testing.T) {
	data := []float64{1, 2}
	c := constraint.New(constraint.State, 0, data...)
	data[0] = 9
	require.Equal(t, 1.0, c.Data[0])

	cp := c.Clone()
	cp.Data[1] = 7
	require.Equal(t, 2.0, c.Data[1])
}

func TestConflicts(t *testing.T) {
	a := constraint.New(constraint.State, 0, 1, nan, nan)
	b := constraint.New(constraint.State, 0, nan, 2, nan)
	c := constraint.New(constraint.State, 0, 3, nan, nan)
	require.False(t, a.Conflicts(b), "disjoint components")
	require.True(t, a.Conflicts(c), "overlapping component")

	tof1 := constraint.New(constraint.TOFTotal, 0, 10)
	tof2 := constraint.New(constraint.TOFTotal, 0, 12)
	require.True(t, tof1.Conflicts(tof2))
	require.False(t, tof1.Conflicts(constraint.New(constraint.DeltaV, 0, 0)))

	near := constraint.New(constraint.MinDist, 2, 0, 1.5)
	require.False(t, near.Conflicts(constraint.New(constraint.MinDist, 2, 1, 1.5)), "different primaries")
	require.True(t, near.Conflicts(constraint.New(constraint.MinDist, 2, 0, 3)))
}

func TestRemap(t *testing.T) {
	nodeMap := map[int]int{0: 10, 1: 11}
	segMap := map[int]int{0: 20, 1: 21}

	m := constraint.New(constraint.MatchCust, 1, 0, nan, 0, nan, nan, nan).Remap(nodeMap, segMap)
	require.Equal(t, 1, m.ID, "owner ID is set by the arcset, not by Remap")
	require.Equal(t, 10.0, m.Data[0])
	require.True(t, math.IsNaN(m.Data[1]))
	require.Equal(t, 10.0, m.Data[2])

	s := constraint.New(constraint.SegContPV, 0, 1, 1, 1, nan, nan, nan).Remap(nodeMap, segMap)
	require.Equal(t, 20, s.ID)
	require.Equal(t, 21.0, s.Data[0])

	st := constraint.New(constraint.State, 0, 0, 1)
	require.Equal(t, st.Data, st.Remap(nodeMap, segMap).Data, "numeric targets are untouched")
}

func TestFlags(t *testing.T) {
	require.True(t, constraint.MinDist.Inequality())
	require.True(t, constraint.MaxDeltaV.Inequality())
	require.False(t, constraint.DeltaV.Inequality())

	require.True(t, constraint.TOFTotal.Singleton())
	require.True(t, constraint.DeltaV.Singleton())
	require.False(t, constraint.State.Singleton())

	require.True(t, constraint.RmTOF.Removal())
	require.True(t, constraint.New(constraint.MatchCust, 0).StoresID())
	require.False(t, constraint.New(constraint.State, 0).StoresID())
}

func TestParseTypeAndYAML(t *testing.T) {
	typ, err := constraint.ParseType("max_dist")
	require.NoError(t, err)
	require.Equal(t, constraint.MaxDist, typ)

	_, err = constraint.ParseType("JACOBI")
	require.ErrorIs(t, err, constraint.ErrUnknownType)

	var c constraint.Constraint
	require.NoError(t, yaml.Unmarshal([]byte("type: EPOCH\nid: 4\ndata: [12.5]\n"), &c))
	require.Equal(t, constraint.Epoch, c.Type)
	require.Equal(t, 4, c.ID)
	require.Equal(t, []float64{12.5}, c.Data)

	out, err := yaml.Marshal(constraint.New(constraint.TOFTotal, 0, 3))
	require.NoError(t, err)
	require.Contains(t, string(out), "type: TOF_TOTAL")
}

func TestString(t *testing.T) {
	c := constraint.New(constraint.State, 2, 1, nan)
	require.Equal(t, "STATE(node 2)[1 -]", c.String())
	require.Equal(t, "Type(99)", constraint.Type(99).String())
}
