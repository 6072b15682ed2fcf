package dynamics

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlarc/constraint"
	"github.com/katalvlaran/lvlarc/corrector"
)

// PrimaryHandlers evaluates the constraints measured against a primary body.
func PrimaryHandlers() corrector.Registry {
	return corrector.Registry{
		constraint.Dist:    {Rows: corrector.RowsFixed(1), Eval: evalDist},
		constraint.MinDist: {Rows: corrector.RowsFixed(1), Eval: evalDist, Margin: marginDist},
		constraint.MaxDist: {Rows: corrector.RowsFixed(1), Eval: evalDist, Margin: marginDist},
		constraint.Apse:    {Rows: corrector.RowsFixed(1), Eval: evalApse},
	}
}

// relative is a node's position and velocity relative to a primary.
type relative struct {
	node    corrector.NodeView
	prim    corrector.PrimaryState
	dr, dv  [3]float64
	primary int
}

func relativeTo(ev *corrector.Eval, con constraint.Constraint) (relative, error) {
	if len(con.Data) == 0 || math.IsNaN(con.Data[0]) {
		return relative{}, fmt.Errorf("%v: %w", con, ErrUnknownPrimary)
	}
	n, err := ev.Node(con.ID)
	if err != nil {
		return relative{}, err
	}
	rel := relative{node: n, primary: int(con.Data[0])}
	if rel.prim, err = ev.Model().Primary(rel.primary, n.Epoch); err != nil {
		return relative{}, err
	}
	var k int
	for k = 0; k < 3; k++ {
		rel.dr[k] = n.State[k] - rel.prim.Pos[k]
		rel.dv[k] = n.State[3+k] - rel.prim.Vel[k]
	}

	return rel, nil
}

func norm3(v [3]float64) float64 { return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]) }

func dot3(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

// distance reads the target distance and the current one.
func distance(ev *corrector.Eval, con constraint.Constraint) (relative, float64, float64, error) {
	rel, err := relativeTo(ev, con)
	if err != nil {
		return relative{}, 0, 0, err
	}
	if len(con.Data) < 2 || math.IsNaN(con.Data[1]) {
		return relative{}, 0, 0, fmt.Errorf("%v: %w: no target distance", con, corrector.ErrInvalidArcset)
	}
	h := norm3(rel.dr)
	if h == 0 {
		return relative{}, 0, 0, fmt.Errorf("%v: node on primary %d: %w", con, rel.primary, ErrSingularity)
	}

	return rel, con.Data[1], h, nil
}

// evalDist: h − d, with − s² for MIN_DIST and + s² for MAX_DIST.
func evalDist(ev *corrector.Eval, t corrector.Target) (corrector.Contribution, error) {
	rel, d, h, err := distance(ev, t.Con)
	if err != nil {
		return corrector.Contribution{}, err
	}
	c := corrector.NewContribution(1)
	c.F[0] = h - d
	var k int
	for k = 0; k < 3; k++ {
		c.Add(0, corrector.ColOf(rel.node.StateCol, k), rel.dr[k]/h)
	}
	c.Add(0, rel.node.EpochCol, -dot3(rel.dr, rel.prim.Vel)/h)

	if t.SlackCol >= 0 {
		s := ev.Value(t.SlackCol)
		sign := -1.0
		if t.Con.Type == constraint.MaxDist {
			sign = 1
		}
		c.F[0] += sign * s * s
		c.Add(0, t.SlackCol, sign*2*s)
	}

	return c, nil
}

// marginDist: h − d for MIN_DIST, d − h for MAX_DIST.
func marginDist(ev *corrector.Eval, con constraint.Constraint) (float64, error) {
	_, d, h, err := distance(ev, con)
	if err != nil {
		return 0, err
	}
	if con.Type == constraint.MaxDist {
		return d - h, nil
	}

	return h - d, nil
}

// evalApse: (r − rp)·(v − vp) vanishes at an apsis.
func evalApse(ev *corrector.Eval, t corrector.Target) (corrector.Contribution, error) {
	rel, err := relativeTo(ev, t.Con)
	if err != nil {
		return corrector.Contribution{}, err
	}
	c := corrector.NewContribution(1)
	c.F[0] = dot3(rel.dr, rel.dv)
	var k int
	for k = 0; k < 3; k++ {
		c.Add(0, corrector.ColOf(rel.node.StateCol, k), rel.dv[k])
		c.Add(0, corrector.ColOf(rel.node.StateCol, 3+k), rel.dr[k])
	}
	c.Add(0, rel.node.EpochCol, -dot3(rel.prim.Vel, rel.dv)-dot3(rel.dr, rel.prim.Acc))

	return c, nil
}
