package arcset_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlarc/arcset"
)

func TestDeleteSeg(t *testing.T) {
	a := chain(t, 1, 2)

	require.NoError(t, a.DeleteSeg(0))
	require.Equal(t, 1, a.NumSegs())

	_, err := a.Seg(0)
	require.ErrorIs(t, err, arcset.ErrSegDeleted)
	n, _ := a.Node(0)
	require.False(t, n.IsLinkedTo(0))

	require.NoError(t, a.DeleteSeg(0), "deleting twice is a no-op")
	require.ErrorIs(t, a.DeleteSeg(5), arcset.ErrIDOutOfRange)

	// Storage compaction keeps the survivor reachable by ID and index.
	ix, err := a.SegIx(1)
	require.NoError(t, err)
	require.Equal(t, 0, ix)
}

func TestDeleteSegClearsSegmentLink(t *testing.T) {
	a := arcset.New("drift")
	nodes(a, 0, 4)
	s0 := mustSeg(t, a, 0, arcset.InvalidID, 2)
	s1 := mustSeg(t, a, 1, arcset.InvalidID, -2)
	require.NoError(t, a.LinkSegments(s0, s1))

	require.NoError(t, a.DeleteSeg(s1))
	seg, _ := a.Seg(s0)
	require.Equal(t, arcset.InvalidID, seg.SegLink())
}

func TestDeleteNodeHealing(t *testing.T) {
	type want struct {
		origin, terminus int
		tof              float64
	}
	cases := []struct {
		name  string
		build func(t *testing.T) *arcset.Arcset
		want  want
	}{
		{
			name:  "pass through",
			build: func(t *testing.T) *arcset.Arcset { return chain(t, 2, 3) },
			want:  want{0, 2, 5},
		},
		{
			name: "reverse pass through",
			build: func(t *testing.T) *arcset.Arcset {
				a := arcset.New("drift")
				nodes(a, 5, 3, 0)
				mustSeg(t, a, 0, 1, -2)
				mustSeg(t, a, 1, 2, -3)
				return a
			},
			want: want{0, 2, -5},
		},
		{
			name: "direction switch",
			build: func(t *testing.T) *arcset.Arcset {
				a := arcset.New("drift")
				nodes(a, 0, 2, 5)
				mustSeg(t, a, 1, 0, -2)
				mustSeg(t, a, 1, 2, 3)
				return a
			},
			want: want{0, 2, 5},
		},
		{
			name: "direction switch with open reverse side",
			build: func(t *testing.T) *arcset.Arcset {
				a := arcset.New("drift")
				nodes(a, 0, 2, 5)
				mustSeg(t, a, 1, arcset.InvalidID, -2)
				mustSeg(t, a, 1, 2, 3)
				return a
			},
			want: want{2, arcset.InvalidID, -5},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := tc.build(t)
			nextSeg := a.NextSegID()

			require.NoError(t, a.DeleteNode(1))
			require.Equal(t, 1, a.NumSegs())
			require.Equal(t, 2, a.NumNodes())

			s, err := a.SegByIx(0)
			require.NoError(t, err)
			require.Equal(t, nextSeg, s.ID(), "replacement gets a fresh ID")
			require.Equal(t, tc.want.origin, s.Origin())
			require.Equal(t, tc.want.terminus, s.Terminus())
			require.InDelta(t, tc.want.tof, s.TOF, 1e-15)

			_, err = a.Node(1)
			require.ErrorIs(t, err, arcset.ErrNodeDeleted)
			require.NoError(t, a.DeleteNode(1), "deleting twice is a no-op")
		})
	}
}

func TestDeleteNodeConservesForwardTOF(t *testing.T) {
	a := chain(t, 1.5, 2.5, 4)
	require.NoError(t, a.DeleteNode(1))
	require.NoError(t, a.DeleteNode(2))
	require.Equal(t, 1, a.NumSegs())
	require.InDelta(t, 8.0, a.TotalTOF(), 1e-15)

	_, err := a.ChronoOrder()
	require.NoError(t, err)
}

func TestDeleteNodeAmbiguous(t *testing.T) {
	a := arcset.New("drift")
	nodes(a, 0)
	mustSeg(t, a, 0, arcset.InvalidID, -2)
	mustSeg(t, a, 0, arcset.InvalidID, 3)
	before := a.String()

	require.ErrorIs(t, a.DeleteNode(0), arcset.ErrAmbiguousHeal)
	require.Equal(t, before, a.String(), "failed heal leaves the arcset untouched")
}

func TestDeleteNodeRejectedHealLeavesArcsetUntouched(t *testing.T) {
	// N0 -> N1 -> N0: healing N1 would need a segment from N0 back to itself.
	a := arcset.New("drift")
	nodes(a, 0, 1)
	mustSeg(t, a, 0, 1, 1)
	mustSeg(t, a, 1, 0, 1)
	before := a.String()

	require.ErrorIs(t, a.DeleteNode(1), arcset.ErrLinkConflict)
	require.Equal(t, 2, a.NumNodes())
	require.Equal(t, 2, a.NumSegs())
	require.Equal(t, before, a.String())

	n, err := a.Node(1)
	require.NoError(t, err)
	require.True(t, n.IsLinkedTo(0))
	require.True(t, n.IsLinkedTo(1))
}

func TestDeleteNodeSingleLink(t *testing.T) {
	a := chain(t, 2)
	require.NoError(t, a.DeleteNode(1))

	s, err := a.Seg(0)
	require.NoError(t, err)
	require.Equal(t, 0, s.Origin())
	require.Equal(t, arcset.InvalidID, s.Terminus())

	require.ErrorIs(t, a.DeleteNode(9), arcset.ErrIDOutOfRange)
}

func TestDeleteNodeMovesSegmentLink(t *testing.T) {
	// N0 -> N1 -> open ~ open <- N2
	a := arcset.New("drift")
	nodes(a, 0, 1, 6)
	mustSeg(t, a, 0, 1, 1)
	open := mustSeg(t, a, 1, arcset.InvalidID, 2)
	back := mustSeg(t, a, 2, arcset.InvalidID, -3)
	require.NoError(t, a.LinkSegments(open, back))

	require.NoError(t, a.DeleteNode(1))
	s, err := a.SegByIx(-1)
	require.NoError(t, err)
	require.Equal(t, 0, s.Origin())
	require.Equal(t, 3.0, s.TOF)
	require.Equal(t, back, s.SegLink())

	b, _ := a.Seg(back)
	require.Equal(t, s.ID(), b.SegLink())
}
