// File: handlers_core.go
// Role: constraint handlers owned by the corrector itself: continuity,
//       state, match, epoch, total TOF, delta-V and the hold-fixed flags.
// Determinism:
//   - Rows follow the ascending order of the constraint's non-NaN components.
// AI-Hints (file):
//   - Partials of a propagated final state always go through finalPartials so
//     the STM, TOF-mode chain factor and epoch partials stay consistent.

package corrector

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlarc/arcset"
	"github.com/katalvlaran/lvlarc/constraint"
)

const dim = arcset.StateDim

// CoreRegistry returns the handlers for every type the corrector defines.
func CoreRegistry() Registry {
	removal := Handler{Rows: RowsFixed(0), Eval: evalNothing}

	return Registry{
		constraint.None:        removal,
		constraint.ContPV:      {Rows: rowsConstrained, Eval: evalContPV},
		constraint.ContEx:      {Rows: RowsFixed(1), Eval: evalContEx},
		constraint.SegContPV:   {Rows: rowsConstrained, Eval: evalSegContPV},
		constraint.SegContEx:   {Rows: RowsFixed(1), Eval: evalSegContEx},
		constraint.State:       {Rows: rowsConstrained, Eval: evalState},
		constraint.EndSegState: {Rows: rowsConstrained, Eval: evalEndSegState},
		constraint.MatchAll:    {Rows: RowsFixed(dim), Eval: evalMatchAll},
		constraint.MatchCust:   {Rows: rowsConstrained, Eval: evalMatchCust},
		constraint.Epoch:       {Rows: RowsFixed(1), Eval: evalEpoch},
		constraint.TOFTotal:    {Rows: RowsFixed(1), Eval: evalTOFTotal},
		constraint.DeltaV:      {Rows: RowsFixed(1), Eval: evalDeltaV},
		constraint.MaxDeltaV:   {Rows: RowsFixed(1), Eval: evalDeltaV, Margin: marginMaxDeltaV},
		constraint.RmState:     removal,
		constraint.RmEpoch:     removal,
		constraint.RmTOF:       removal,
	}
}

func evalNothing(*Eval, Target) (Contribution, error) { return NewContribution(0), nil }

// ColOf offsets a base column, keeping -1 for held variables.
func ColOf(base, k int) int {
	if base < 0 {
		return -1
	}

	return base + k
}

// components returns the constrained indices, rejecting any beyond the state.
func components(c constraint.Constraint) ([]int, error) {
	ix := c.Constrained()
	if len(ix) > 0 && ix[len(ix)-1] >= dim {
		return nil, fmt.Errorf("%w: %v constrains component %d of a %d-state", ErrInvalidArcset, c, ix[len(ix)-1], dim)
	}

	return ix, nil
}

// checkProp rejects a segment that was not propagated with the full result.
func checkProp(s SegView, needEpoch bool) error {
	p := s.Prop
	if len(p.FinalState) < dim || len(p.FinalDeriv) < dim || len(p.STM) != arcset.STMSize ||
		(needEpoch && len(p.EpochPartials) < dim) {
		return fmt.Errorf("segment %d: %w", s.ID, ErrInvalidPropagation)
	}

	return nil
}

// FinalPartials adds Σ_i w[i]·∂xf[i] (xf = the segment's final state) to row r:
// origin-state columns through the STM, the TOF column through the final
// state derivative, and the origin epoch column through the epoch partials.
func FinalPartials(ev *Eval, c *Contribution, r int, s SegView, w [dim]float64) error {
	o, err := ev.Node(s.Origin)
	if err != nil {
		return err
	}
	var i, j int
	for j = 0; j < dim; j++ {
		var v float64
		for i = 0; i < dim; i++ {
			v += w[i] * s.Prop.STM[i*dim+j]
		}
		c.Add(r, ColOf(o.StateCol, j), v)
	}
	var dt, de float64
	for i = 0; i < dim; i++ {
		dt += w[i] * s.Prop.FinalDeriv[i]
		if len(s.Prop.EpochPartials) > i {
			de += w[i] * s.Prop.EpochPartials[i]
		}
	}
	c.Add(r, s.TOFCol, s.TOFCoeff*dt)
	c.Add(r, o.EpochCol, de)

	return nil
}

func unit(i int, sign float64) [dim]float64 {
	var w [dim]float64
	w[i] = sign

	return w
}

// evalContPV: xf[i] − X_terminus[i] for each constrained component.
func evalContPV(ev *Eval, t Target) (Contribution, error) {
	s, err := ev.Seg(t.Con.ID)
	if err != nil {
		return Contribution{}, err
	}
	if s.Terminus == arcset.InvalidID {
		return Contribution{}, fmt.Errorf("%w: segment %d has no terminus to be continuous with", ErrInvalidArcset, s.ID)
	}
	if err = checkProp(s, false); err != nil {
		return Contribution{}, err
	}
	term, err := ev.Node(s.Terminus)
	if err != nil {
		return Contribution{}, err
	}
	ix, err := components(t.Con)
	if err != nil {
		return Contribution{}, err
	}
	c := NewContribution(len(ix))
	for r, i := range ix {
		c.F[r] = s.Prop.FinalState[i] - term.State[i]
		c.Add(r, ColOf(term.StateCol, i), -1)
		if err = FinalPartials(ev, &c, r, s, unit(i, 1)); err != nil {
			return Contribution{}, err
		}
	}

	return c, nil
}

// evalContEx: T_terminus − (T_origin + tof).
func evalContEx(ev *Eval, t Target) (Contribution, error) {
	s, err := ev.Seg(t.Con.ID)
	if err != nil {
		return Contribution{}, err
	}
	if s.Terminus == arcset.InvalidID {
		return Contribution{}, fmt.Errorf("%w: segment %d has no terminus to be continuous with", ErrInvalidArcset, s.ID)
	}
	o, err := ev.Node(s.Origin)
	if err != nil {
		return Contribution{}, err
	}
	term, err := ev.Node(s.Terminus)
	if err != nil {
		return Contribution{}, err
	}
	c := NewContribution(1)
	c.F[0] = term.Epoch - (o.Epoch + s.TOF)
	c.Add(0, term.EpochCol, 1)
	c.Add(0, o.EpochCol, -1)
	c.Add(0, s.TOFCol, -s.TOFCoeff)

	return c, nil
}

// linkedSegs resolves the two segments of a segment-to-segment constraint.
func linkedSegs(ev *Eval, con constraint.Constraint, needProp bool) (SegView, SegView, error) {
	_, other, ok := con.FirstValue()
	if !ok {
		return SegView{}, SegView{}, fmt.Errorf("%w: %v names no partner segment", ErrInvalidArcset, con)
	}
	a, err := ev.Seg(con.ID)
	if err != nil {
		return SegView{}, SegView{}, err
	}
	b, err := ev.Seg(int(other))
	if err != nil {
		return SegView{}, SegView{}, err
	}
	if needProp {
		if err = checkProp(a, false); err != nil {
			return SegView{}, SegView{}, err
		}
		if err = checkProp(b, false); err != nil {
			return SegView{}, SegView{}, err
		}
	}

	return a, b, nil
}

// evalSegContPV: xf_A[i] − xf_B[i].
func evalSegContPV(ev *Eval, t Target) (Contribution, error) {
	a, b, err := linkedSegs(ev, t.Con, true)
	if err != nil {
		return Contribution{}, err
	}
	ix, err := components(t.Con)
	if err != nil {
		return Contribution{}, err
	}
	c := NewContribution(len(ix))
	for r, i := range ix {
		c.F[r] = a.Prop.FinalState[i] - b.Prop.FinalState[i]
		if err = FinalPartials(ev, &c, r, a, unit(i, 1)); err != nil {
			return Contribution{}, err
		}
		if err = FinalPartials(ev, &c, r, b, unit(i, -1)); err != nil {
			return Contribution{}, err
		}
	}

	return c, nil
}

// evalSegContEx: (T0_A + tof_A) − (T0_B + tof_B).
func evalSegContEx(ev *Eval, t Target) (Contribution, error) {
	a, b, err := linkedSegs(ev, t.Con, false)
	if err != nil {
		return Contribution{}, err
	}
	oa, err := ev.Node(a.Origin)
	if err != nil {
		return Contribution{}, err
	}
	ob, err := ev.Node(b.Origin)
	if err != nil {
		return Contribution{}, err
	}
	c := NewContribution(1)
	c.F[0] = (oa.Epoch + a.TOF) - (ob.Epoch + b.TOF)
	c.Add(0, oa.EpochCol, 1)
	c.Add(0, a.TOFCol, a.TOFCoeff)
	c.Add(0, ob.EpochCol, -1)
	c.Add(0, b.TOFCol, -b.TOFCoeff)

	return c, nil
}

// evalState: X[i] − data[i].
func evalState(ev *Eval, t Target) (Contribution, error) {
	n, err := ev.Node(t.Con.ID)
	if err != nil {
		return Contribution{}, err
	}
	ix, err := components(t.Con)
	if err != nil {
		return Contribution{}, err
	}
	c := NewContribution(len(ix))
	for r, i := range ix {
		c.F[r] = n.State[i] - t.Con.Data[i]
		c.Add(r, ColOf(n.StateCol, i), 1)
	}

	return c, nil
}

// evalEndSegState: xf[i] − data[i].
func evalEndSegState(ev *Eval, t Target) (Contribution, error) {
	s, err := ev.Seg(t.Con.ID)
	if err != nil {
		return Contribution{}, err
	}
	if err = checkProp(s, false); err != nil {
		return Contribution{}, err
	}
	ix, err := components(t.Con)
	if err != nil {
		return Contribution{}, err
	}
	c := NewContribution(len(ix))
	for r, i := range ix {
		c.F[r] = s.Prop.FinalState[i] - t.Con.Data[i]
		if err = FinalPartials(ev, &c, r, s, unit(i, 1)); err != nil {
			return Contribution{}, err
		}
	}

	return c, nil
}

// match fills X_n[i] − X_m[i] for the given components.
func match(ev *Eval, id, other int, ix []int) (Contribution, error) {
	n, err := ev.Node(id)
	if err != nil {
		return Contribution{}, err
	}
	m, err := ev.Node(other)
	if err != nil {
		return Contribution{}, err
	}
	c := NewContribution(len(ix))
	for r, i := range ix {
		c.F[r] = n.State[i] - m.State[i]
		c.Add(r, ColOf(n.StateCol, i), 1)
		c.Add(r, ColOf(m.StateCol, i), -1)
	}

	return c, nil
}

func evalMatchAll(ev *Eval, t Target) (Contribution, error) {
	_, other, ok := t.Con.FirstValue()
	if !ok {
		return Contribution{}, fmt.Errorf("%w: %v names no node", ErrInvalidArcset, t.Con)
	}

	return match(ev, t.Con.ID, int(other), []int{0, 1, 2, 3, 4, 5})
}

func evalMatchCust(ev *Eval, t Target) (Contribution, error) {
	_, other, ok := t.Con.FirstValue()
	if !ok {
		return Contribution{}, fmt.Errorf("%w: %v names no node", ErrInvalidArcset, t.Con)
	}
	ix, err := components(t.Con)
	if err != nil {
		return Contribution{}, err
	}

	return match(ev, t.Con.ID, int(other), ix)
}

// evalEpoch: T − data[0].
func evalEpoch(ev *Eval, t Target) (Contribution, error) {
	n, err := ev.Node(t.Con.ID)
	if err != nil {
		return Contribution{}, err
	}
	_, want, ok := t.Con.FirstValue()
	if !ok {
		return Contribution{}, fmt.Errorf("%w: %v has no target epoch", ErrInvalidArcset, t.Con)
	}
	c := NewContribution(1)
	c.F[0] = n.Epoch - want
	c.Add(0, n.EpochCol, 1)

	return c, nil
}

// evalTOFTotal: Σ tof − data[0].
func evalTOFTotal(ev *Eval, t Target) (Contribution, error) {
	_, want, ok := t.Con.FirstValue()
	if !ok {
		return Contribution{}, fmt.Errorf("%w: %v has no target TOF", ErrInvalidArcset, t.Con)
	}
	c := NewContribution(1)
	var total float64
	for _, id := range ev.SegIDs() {
		s, err := ev.Seg(id)
		if err != nil {
			return Contribution{}, err
		}
		total += s.TOF
		c.Add(0, s.TOFCol, s.TOFCoeff)
	}
	c.F[0] = total - want

	return c, nil
}

// totalDeltaV sums ‖Δv‖ over segments ending at a node and adds the
// partials of total/scale to row 0 of c.
func totalDeltaV(ev *Eval, c *Contribution, scale float64) (float64, error) {
	var total float64
	for _, id := range ev.SegIDs() {
		s, err := ev.Seg(id)
		if err != nil {
			return 0, err
		}
		if s.Terminus == arcset.InvalidID {
			continue
		}
		mag := math.Sqrt(s.DeltaV[0]*s.DeltaV[0] + s.DeltaV[1]*s.DeltaV[1] + s.DeltaV[2]*s.DeltaV[2])
		if mag == 0 {
			continue
		}
		if err = checkProp(s, false); err != nil {
			return 0, err
		}
		total += mag
		if c == nil {
			continue
		}
		term, err := ev.Node(s.Terminus)
		if err != nil {
			return 0, err
		}
		var w [dim]float64
		var k int
		for k = 0; k < 3; k++ {
			u := s.DeltaV[k] / mag
			w[3+k] = u / scale
			c.Add(0, ColOf(term.StateCol, 3+k), -u/scale)
		}
		if err = FinalPartials(ev, c, 0, s, w); err != nil {
			return 0, err
		}
	}

	return total, nil
}

// deltaVScale returns the normaliser D (1 when data[0] is 0).
func deltaVScale(con constraint.Constraint) (target, scale float64, err error) {
	_, target, ok := con.FirstValue()
	if !ok {
		return 0, 0, fmt.Errorf("%w: %v has no delta-V bound", ErrInvalidArcset, con)
	}
	if target < 0 || (target == 0 && con.Type == constraint.MaxDeltaV) {
		return 0, 0, fmt.Errorf("%w: %v needs a positive delta-V bound", ErrInvalidArcset, con)
	}
	scale = target
	if target == 0 {
		scale = 1
	}

	return target, scale, nil
}

// evalDeltaV: Σ‖Δv‖/D − 1 (Σ‖Δv‖ when D = 0); MAX_DELTA_V adds + s².
func evalDeltaV(ev *Eval, t Target) (Contribution, error) {
	target, scale, err := deltaVScale(t.Con)
	if err != nil {
		return Contribution{}, err
	}
	c := NewContribution(1)
	total, err := totalDeltaV(ev, &c, scale)
	if err != nil {
		return Contribution{}, err
	}
	if target == 0 {
		c.F[0] = total
	} else {
		c.F[0] = total/target - 1
	}
	if t.SlackCol >= 0 {
		s := ev.Value(t.SlackCol)
		c.F[0] += s * s
		c.Add(0, t.SlackCol, 2*s)
	}

	return c, nil
}

// marginMaxDeltaV: 1 − Σ‖Δv‖/D.
func marginMaxDeltaV(ev *Eval, con constraint.Constraint) (float64, error) {
	target, _, err := deltaVScale(con)
	if err != nil {
		return 0, err
	}
	total, err := totalDeltaV(ev, nil, target)
	if err != nil {
		return 0, err
	}

	return 1 - total/target, nil
}
