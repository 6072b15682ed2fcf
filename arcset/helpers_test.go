package arcset_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlarc/arcset"
)

var nan = math.NaN()

// stateAt returns a 6-element state at x on the first axis with unit x-velocity.
func stateAt(x float64) []float64 { return []float64{x, 0, 0, 1, 0, 0} }

// nodes adds one node per x coordinate and returns their IDs.
func nodes(a *arcset.Arcset, xs ...float64) []int {
	ids := make([]int, len(xs))
	for i, x := range xs {
		ids[i] = a.AddNode(arcset.NewNode(stateAt(x), x))
	}

	return ids
}

// mustSeg inserts a segment and fails the test on any rejection.
func mustSeg(t *testing.T, a *arcset.Arcset, origin, terminus int, tof float64) int {
	t.Helper()
	id, err := a.AddSeg(arcset.NewSegment(origin, terminus, tof))
	require.NoError(t, err)
	require.NotEqual(t, arcset.InvalidID, id)

	return id
}

// chain builds N0 -> N1 -> ... with the given forward TOFs.
func chain(t *testing.T, tofs ...float64) *arcset.Arcset {
	t.Helper()
	a := arcset.New("drift")
	x := 0.0
	prev := a.AddNode(arcset.NewNode(stateAt(x), x))
	for _, tof := range tofs {
		x += tof
		next := a.AddNode(arcset.NewNode(stateAt(x), x))
		mustSeg(t, a, prev, next, tof)
		prev = next
	}

	return a
}

func pieceIDs(ps []arcset.Piece) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}

	return out
}
