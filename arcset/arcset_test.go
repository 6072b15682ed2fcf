package arcset_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlarc/arcset"
	"github.com/katalvlaran/lvlarc/constraint"
)

func TestAddNodeAssignsSequentialIDs(t *testing.T) {
	a := arcset.New("drift")
	n := arcset.NewNode(stateAt(1), 0)
	n.AddConstraint(constraint.New(constraint.State, 99, 1, nan, nan, nan, nan, nan))

	require.Equal(t, 0, a.AddNode(n))
	require.Equal(t, 1, a.AddNode(n))
	require.Equal(t, 2, a.NextNodeID())

	got, err := a.Node(1)
	require.NoError(t, err)
	require.Equal(t, 1, got.ID())
	require.Equal(t, [2]int{arcset.InvalidID, arcset.InvalidID}, got.Links())
	require.Equal(t, 1, got.Constraints()[0].ID, "constraint retargeted at the new node")

	// The caller's node is copied, not aliased.
	n.State[0] = 42
	got, _ = a.Node(0)
	require.Equal(t, 1.0, got.State[0])
}

func TestAddSegLinkingRules(t *testing.T) {
	type seg struct {
		origin, terminus int
		tof              float64
	}
	cases := []struct {
		name    string
		setup   []seg
		add     seg
		wantErr error
	}{
		{name: "first segment", add: seg{0, 1, 1}},
		{name: "two terminate at one node", setup: []seg{{0, 1, 1}}, add: seg{2, 1, 1}, wantErr: arcset.ErrLinkConflict},
		{name: "two leave forward", setup: []seg{{0, 1, 1}}, add: seg{0, 2, 1}, wantErr: arcset.ErrLinkConflict},
		{name: "direction switch", setup: []seg{{0, 1, 1}}, add: seg{0, 2, -1}},
		{name: "parallel structure", setup: []seg{{0, 1, 1}}, add: seg{1, 2, -1}, wantErr: arcset.ErrLinkConflict},
		{name: "pass through", setup: []seg{{0, 1, 1}}, add: seg{1, 2, 1}},
		{name: "reverse pass through", setup: []seg{{1, 0, -1}}, add: seg{2, 1, -1}},
		{name: "open terminus", add: seg{0, arcset.InvalidID, 3}},
		{name: "no origin", add: seg{arcset.InvalidID, 1, 1}, wantErr: arcset.ErrInvalidOrigin},
		{name: "self loop", add: seg{1, 1, 1}, wantErr: arcset.ErrLinkConflict},
		{name: "unknown node", add: seg{0, 7, 1}, wantErr: arcset.ErrIDOutOfRange},
		{name: "no open slot", setup: []seg{{0, 1, 1}, {1, 2, 1}}, add: seg{1, 3, -1}, wantErr: arcset.ErrNoOpenSlot},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := arcset.New("drift")
			nodes(a, 0, 1, 2, 3)
			for _, s := range tc.setup {
				mustSeg(t, a, s.origin, s.terminus, s.tof)
			}
			before := a.Clone()

			id, err := a.AddSeg(arcset.NewSegment(tc.add.origin, tc.add.terminus, tc.add.tof))
			if tc.wantErr == nil {
				require.NoError(t, err)
				require.Equal(t, len(tc.setup), id)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
			require.ErrorIs(t, err, arcset.ErrStructural)
			require.Equal(t, arcset.InvalidID, id)
			require.Equal(t, before.String(), a.String(), "rejected insertion must not mutate")
			require.Equal(t, before.NextSegID(), a.NextSegID())
			for _, n := range a.Nodes() {
				bn, _ := before.Node(n.ID())
				require.Equal(t, bn.Links(), n.Links())
			}
		})
	}
}

func TestAddSegDeletedNode(t *testing.T) {
	a := arcset.New("drift")
	nodes(a, 0, 1)
	require.NoError(t, a.DeleteNode(1))

	_, err := a.AddSeg(arcset.NewSegment(0, 1, 1))
	require.ErrorIs(t, err, arcset.ErrNodeDeleted)
}

func TestLinkedNodeAcceptsAtMostOneBranchPerDirection(t *testing.T) {
	a := chain(t, 1, 1)
	n, err := a.Node(1)
	require.NoError(t, err)
	require.True(t, n.IsLinkedTo(0))
	require.True(t, n.IsLinkedTo(1))
}

func TestLinkSegments(t *testing.T) {
	a := arcset.New("drift")
	nodes(a, 0, 4)
	s0 := mustSeg(t, a, 0, arcset.InvalidID, 2)
	s1 := mustSeg(t, a, 1, arcset.InvalidID, -2)
	s2 := mustSeg(t, a, 1, arcset.InvalidID, 1)

	require.NoError(t, a.LinkSegments(s0, s1))
	seg, _ := a.Seg(s1)
	require.Equal(t, s0, seg.SegLink())

	require.ErrorIs(t, a.LinkSegments(s0, s0), arcset.ErrLinkConflict)
	require.ErrorIs(t, a.LinkSegments(s2, s0), arcset.ErrLinkConflict, "s0 already joined")
	require.ErrorIs(t, a.LinkSegments(s2, 9), arcset.ErrIDOutOfRange)

	b := chain(t, 1)
	require.ErrorIs(t, b.LinkSegments(0, 0), arcset.ErrLinkConflict)
}

func TestAddConstraintRouting(t *testing.T) {
	a := chain(t, 2)

	require.NoError(t, a.AddConstraint(constraint.New(constraint.State, 0, 0, nan, nan, nan, nan, nan)))
	require.NoError(t, a.AddConstraint(constraint.New(constraint.State, 0, nan, 0, nan, nan, nan, nan)))
	err := a.AddConstraint(constraint.New(constraint.State, 0, 1, nan, nan, nan, nan, nan))
	require.ErrorIs(t, err, arcset.ErrConstraintConflict)

	require.NoError(t, a.AddConstraint(constraint.New(constraint.RmTOF, 0)))
	require.NoError(t, a.AddConstraint(constraint.New(constraint.TOFTotal, 0, 2)))
	require.ErrorIs(t, a.AddConstraint(constraint.New(constraint.TOFTotal, 0, 3)), arcset.ErrConstraintConflict)

	require.ErrorIs(t, a.AddConstraint(constraint.New(constraint.Epoch, 5, 0)), arcset.ErrIDOutOfRange)
	require.ErrorIs(t, a.AddConstraint(constraint.New(constraint.RmTOF, 3)), arcset.ErrIDOutOfRange)
	require.ErrorIs(t, a.AddConstraint(constraint.Constraint{Type: 99}), constraint.ErrUnknownType)

	all := a.AllConstraints()
	require.Len(t, all, 4)
	require.Equal(t, constraint.TOFTotal, all[3].Type, "arc constraints come last")
	require.Len(t, a.ArcConstraints(), 1)

	a.ClearConstraints()
	require.Empty(t, a.AllConstraints())
}

func TestGettersReturnCopies(t *testing.T) {
	a := chain(t, 2)
	n, err := a.NodeByIx(-1)
	require.NoError(t, err)
	require.Equal(t, 1, n.ID())
	n.State[0] = 100

	again, _ := a.NodeByIx(1)
	require.Equal(t, 2.0, again.State[0])

	_, err = a.SegByIx(3)
	require.ErrorIs(t, err, arcset.ErrIDOutOfRange)
}

func TestSetters(t *testing.T) {
	a := chain(t, 2)

	require.NoError(t, a.SetNodeState(0, stateAt(5)))
	require.NoError(t, a.SetNodeEpoch(0, 7))
	require.NoError(t, a.SetNodeExtra(0, "mass", []float64{1000}))
	require.NoError(t, a.SetSegTOF(0, 3))
	require.ErrorIs(t, a.SetSegTOF(0, -3), arcset.ErrLinkConflict)
	require.NoError(t, a.SetSegSTM(0, make([]float64, arcset.STMSize)))
	require.NoError(t, a.SetSegTrace(0, []float64{0, 3}, [][]float64{stateAt(5), stateAt(8)}))
	require.NoError(t, a.SetSegVelCon(0, [3]bool{true, false, true}))

	n, _ := a.Node(0)
	require.Equal(t, 5.0, n.State[0])
	require.Equal(t, 7.0, n.Epoch)
	require.Equal(t, []float64{1000}, n.Extra["mass"])

	s, _ := a.Seg(0)
	require.Equal(t, 3.0, s.TOF)
	require.True(t, s.Forward())
	require.Len(t, s.STM, arcset.STMSize)
	require.Equal(t, stateAt(8), s.FinalState())
	require.Equal(t, [3]bool{true, false, true}, s.VelCon)
	require.Equal(t, 3.0, a.TotalTOF())

	require.ErrorIs(t, a.SetNodeState(4, nil), arcset.ErrIDOutOfRange)
}

func TestWithTolerancePanicsOnInvalid(t *testing.T) {
	require.Panics(t, func() { arcset.WithTolerance(0) })
	require.Panics(t, func() { arcset.WithTolerance(-1) })
	require.Equal(t, 1e-9, arcset.New("drift", arcset.WithTolerance(1e-9)).Tol())
}

func TestCloneIsIndependent(t *testing.T) {
	a := chain(t, 1, 2)
	b := a.Clone()
	require.NoError(t, b.DeleteNode(1))

	require.Equal(t, 3, a.NumNodes())
	require.Equal(t, 2, a.NumSegs())
	require.Equal(t, 2, b.NumNodes())
	require.Equal(t, 1, b.NumSegs())
}
