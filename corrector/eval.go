package corrector

import (
	"fmt"

	"github.com/katalvlaran/lvlarc/arcset"
)

// Eval is the immutable per-iteration snapshot handed to constraint handlers:
// the free-variable vector, the problem layout, and every segment's
// propagation result and velocity discontinuity.
type Eval struct {
	p    *problem
	x    []float64
	segs []segState
}

type segState struct {
	res PropagationResult
	dv  [3]float64
}

// NodeView is a node as seen at one iterate.
type NodeView struct {
	ID       int
	State    []float64 // from X, or the input state when held
	Epoch    float64   // from X, or the input epoch when held or autonomous
	StateCol int       // column of State[0]; -1 when held
	EpochCol int       // -1 when held or autonomous
}

// SegView is a segment as seen at one iterate.
type SegView struct {
	ID, Origin, Terminus int
	TOF                  float64
	TOFCol               int     // -1 when the TOF is fixed
	TOFCoeff             float64 // ∂TOF/∂X[TOFCol]
	VelCon               [3]bool
	Prop                 PropagationResult
	DeltaV               [3]float64 // final minus terminus velocity, zero where continuous
}

// Model returns the dynamical model of the correction.
func (e *Eval) Model() Model { return e.p.model }

// Value returns X[col].
func (e *Eval) Value(col int) float64 { return e.x[col] }

// Node returns the view of node id.
func (e *Eval) Node(id int) (NodeView, error) {
	ix, ok := e.p.nodeIx[id]
	if !ok {
		return NodeView{}, fmt.Errorf("%w: node %d is not in the arcset", ErrInvalidArcset, id)
	}
	n := e.p.nodes[ix]
	v := NodeView{
		ID:       id,
		Epoch:    n.Epoch,
		StateCol: e.p.vars.Row(VarState, id),
		EpochCol: e.p.vars.Row(VarEpoch, id),
	}
	if v.StateCol >= 0 {
		v.State = append([]float64(nil), e.x[v.StateCol:v.StateCol+arcset.StateDim]...)
	} else {
		v.State = append([]float64(nil), n.State...)
	}
	if v.EpochCol >= 0 {
		v.Epoch = e.x[v.EpochCol]
	}

	return v, nil
}

// Seg returns the view of segment id.
func (e *Eval) Seg(id int) (SegView, error) {
	ix, ok := e.p.segIx[id]
	if !ok {
		return SegView{}, fmt.Errorf("%w: segment %d is not in the arcset", ErrInvalidArcset, id)
	}
	s := e.p.segs[ix]
	v := SegView{
		ID:       id,
		Origin:   s.Origin(),
		Terminus: s.Terminus(),
		VelCon:   s.VelCon,
	}
	v.TOF, v.TOFCol, v.TOFCoeff = e.p.vars.tofAt(id, s.TOF, e.x)
	if e.segs != nil {
		v.Prop = e.segs[ix].res
		v.DeltaV = e.segs[ix].dv
	}

	return v, nil
}

// SegIDs lists the segment IDs in storage order.
func (e *Eval) SegIDs() []int {
	out := make([]int, len(e.p.segs))
	var i int
	for i = range e.p.segs {
		out[i] = e.p.segs[i].ID()
	}

	return out
}
