package arcset

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlarc/constraint"
)

// Arcset owns the nodes, segments and arc-scoped constraints of one trajectory.
//
// Storage order (nodes, segs) is what ByIx accessors and the tables export
// see; PutInChronoOrder rewrites it. nodeIx/segIx map an ID to its storage
// index, holding InvalidID once the ID has been deleted; their length is the
// next ID to be issued.
type Arcset struct {
	system string
	tol    float64

	nodes  []Node
	segs   []Segment
	nodeIx []int
	segIx  []int

	cons []constraint.Constraint
}

// Option configures an Arcset at construction.
type Option func(*Arcset)

// WithTolerance sets the numeric tolerance carried by the arcset.
// Panics if tol is not a positive finite number.
func WithTolerance(tol float64) Option {
	if !(tol > 0) || math.IsInf(tol, 0) {
		panic(fmt.Sprintf("arcset: WithTolerance(%g): tolerance must be positive and finite", tol))
	}

	return func(a *Arcset) { a.tol = tol }
}

// New returns an empty arcset for the named dynamical system. Two arcsets can
// only be concatenated when their system names match.
func New(system string, opts ...Option) *Arcset {
	a := &Arcset{system: system, tol: DefaultTolerance}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// System returns the dynamical-system name the arcset was built for.
func (a *Arcset) System() string { return a.system }

// Tol returns the numeric tolerance.
func (a *Arcset) Tol() float64 { return a.tol }

// SetTol replaces the numeric tolerance.
func (a *Arcset) SetTol(tol float64) { a.tol = tol }

// NumNodes returns the number of live nodes.
func (a *Arcset) NumNodes() int { return len(a.nodes) }

// NumSegs returns the number of live segments.
func (a *Arcset) NumSegs() int { return len(a.segs) }

// NextNodeID returns the ID the next AddNode will assign.
func (a *Arcset) NextNodeID() int { return len(a.nodeIx) }

// NextSegID returns the ID the next AddSeg will assign.
func (a *Arcset) NextSegID() int { return len(a.segIx) }

// AddNode copies n into the arcset with its links cleared, assigns the next
// node ID and returns it. Node-scoped constraints are re-targeted at the new ID.
// Complexity: O(len(state) + #constraints).
func (a *Arcset) AddNode(n Node) int {
	id := len(a.nodeIx)
	n = n.clone()
	n.id = id
	n.links = [2]int{InvalidID, InvalidID}
	var i int
	for i = range n.cons {
		n.cons[i].ID = id
	}
	a.nodes = append(a.nodes, n)
	a.nodeIx = append(a.nodeIx, len(a.nodes)-1)

	return id
}

// AddSeg links s into the graph and returns its new ID.
//
// Implementation:
//   - Stage 1: require a valid origin that differs from the terminus.
//   - Stage 2: for each linked node check existence, an open slot, and the
//     time-direction rules against the segments already linked there:
//     two terminating segments, same-kind links running the same way
//     (collision or parallel branch), opposite-kind links running opposite
//     ways (parallel structure).
//   - Stage 3: only when every check passed, register links and append.
//
// Returns (InvalidID, nil) without mutating when no link was accepted; callers
// must check for it.
//
// Errors:
//   - ErrInvalidOrigin, ErrIDOutOfRange, ErrNodeDeleted, ErrNoOpenSlot, ErrLinkConflict.
//
// Complexity: O(1) plus O(#constraints) copying.
func (a *Arcset) AddSeg(s Segment) (int, error) {
	if s.links[OriginIx] == InvalidID {
		return InvalidID, arcErrorf(opAddSeg, ErrInvalidOrigin)
	}
	if s.links[OriginIx] == s.links[TermIx] {
		return InvalidID, arcErrorf(opAddSeg, fmt.Errorf("origin and terminus are both node %d: %w", s.links[OriginIx], ErrLinkConflict))
	}

	var (
		accepted [2]bool
		nodeIxs  [2]int
		i        int
	)
	for i = range s.links {
		nid := s.links[i]
		if nid == InvalidID {
			continue
		}
		nix, err := a.liveNodeIx(nid)
		if err != nil {
			return InvalidID, arcErrorf(opAddSeg, err)
		}
		if !a.nodes[nix].hasOpenSlot() {
			return InvalidID, arcErrorf(opAddSeg, fmt.Errorf("node %d: %w", nid, ErrNoOpenSlot))
		}
		ok, err := a.checkLink(a.nodes[nix], i, s.TOF)
		if err != nil {
			return InvalidID, arcErrorf(opAddSeg, err)
		}
		accepted[i], nodeIxs[i] = ok, nix
	}
	if !accepted[OriginIx] && !accepted[TermIx] {
		return InvalidID, nil
	}

	id := len(a.segIx)
	for i = range accepted {
		if accepted[i] {
			// AI-HINT: cannot fail; the open slot was checked above and origin != terminus.
			_ = a.nodes[nodeIxs[i]].addLink(id)
		}
	}
	s = s.clone()
	s.id = id
	s.segLink = InvalidID
	for i = range s.cons {
		s.cons[i].ID = id
	}
	a.segs = append(a.segs, s)
	a.segIx = append(a.segIx, len(a.segs)-1)

	return id, nil
}

// checkLink validates a new link of kind linkIx (OriginIx/TermIx) with the
// given TOF against every live segment already linked to node.
func (a *Arcset) checkLink(node Node, linkIx int, tof float64) (bool, error) {
	var secondary int
	var found bool
	for _, segID := range node.links {
		if segID == InvalidID {
			continue
		}
		six := a.segIx[segID]
		if six == InvalidID {
			continue
		}
		secondary++
		near := a.segs[six]
		sameKind := near.links[linkIx] == node.id
		sameDir := sameDirection(near.TOF, tof)
		switch {
		case sameKind && linkIx == TermIx:
			return false, fmt.Errorf("node %d: segment %d also terminates here: %w", node.id, near.id, ErrLinkConflict)
		case sameKind && sameDir:
			return false, fmt.Errorf("node %d: segment %d leaves in the same time direction: %w", node.id, near.id, ErrLinkConflict)
		case !sameKind && !sameDir:
			return false, fmt.Errorf("node %d: segment %d forms a parallel structure: %w", node.id, near.id, ErrLinkConflict)
		default:
			found = true
		}
	}

	return found || secondary == 0, nil
}

// LinkSegments joins the open ends of segments a and b with an explicit
// segment-to-segment edge. Chronological traversal crosses the edge and the
// corrector enforces continuity across it.
//
// Errors: ErrIDOutOfRange, ErrSegDeleted; ErrLinkConflict when either end is
// not open, the IDs are equal, or either segment is already joined elsewhere.
func (a *Arcset) LinkSegments(segA, segB int) error {
	if segA == segB {
		return arcErrorf(opLinkSegs, fmt.Errorf("segment %d linked to itself: %w", segA, ErrLinkConflict))
	}
	ia, err := a.liveSegIx(segA)
	if err != nil {
		return arcErrorf(opLinkSegs, err)
	}
	ib, err := a.liveSegIx(segB)
	if err != nil {
		return arcErrorf(opLinkSegs, err)
	}
	for _, ix := range []int{ia, ib} {
		s := a.segs[ix]
		if s.Terminus() != InvalidID {
			return arcErrorf(opLinkSegs, fmt.Errorf("segment %d terminates at node %d: %w", s.id, s.Terminus(), ErrLinkConflict))
		}
		if s.segLink != InvalidID && s.segLink != segA && s.segLink != segB {
			return arcErrorf(opLinkSegs, fmt.Errorf("segment %d already joined to %d: %w", s.id, s.segLink, ErrLinkConflict))
		}
	}
	a.segs[ia].segLink = segB
	a.segs[ib].segLink = segA

	return nil
}

// AddConstraint stores c on the entity its scope names.
//
// Errors: ErrIDOutOfRange / ErrNodeDeleted / ErrSegDeleted for a bad target,
// ErrConstraintConflict when c conflicts with a constraint already there.
func (a *Arcset) AddConstraint(c constraint.Constraint) error {
	if !c.Type.Valid() {
		return arcErrorf(opAddConstraint, fmt.Errorf("%w: %v", constraint.ErrUnknownType, c.Type))
	}
	var target *[]constraint.Constraint
	switch c.Scope() {
	case constraint.ScopeNode:
		ix, err := a.liveNodeIx(c.ID)
		if err != nil {
			return arcErrorf(opAddConstraint, err)
		}
		target = &a.nodes[ix].cons
	case constraint.ScopeSegment:
		ix, err := a.liveSegIx(c.ID)
		if err != nil {
			return arcErrorf(opAddConstraint, err)
		}
		target = &a.segs[ix].cons
	default:
		target = &a.cons
	}
	for _, have := range *target {
		if have.Conflicts(c) {
			return arcErrorf(opAddConstraint, fmt.Errorf("%v vs %v: %w", c, have, ErrConstraintConflict))
		}
	}
	*target = append(*target, c.Clone())

	return nil
}

// ArcConstraints returns a copy of the arc-scoped constraints.
func (a *Arcset) ArcConstraints() []constraint.Constraint { return cloneCons(a.cons) }

// ClearConstraints removes every constraint from every node, segment and the arc.
func (a *Arcset) ClearConstraints() {
	var i int
	for i = range a.nodes {
		a.nodes[i].cons = nil
	}
	for i = range a.segs {
		a.segs[i].cons = nil
	}
	a.cons = nil
}

// AllConstraints returns node, then segment, then arc constraints, each group
// in storage order.
func (a *Arcset) AllConstraints() []constraint.Constraint {
	var out []constraint.Constraint
	var i int
	for i = range a.nodes {
		out = append(out, cloneCons(a.nodes[i].cons)...)
	}
	for i = range a.segs {
		out = append(out, cloneCons(a.segs[i].cons)...)
	}

	return append(out, cloneCons(a.cons)...)
}

// liveNodeIx resolves a node ID to its storage index.
func (a *Arcset) liveNodeIx(id int) (int, error) {
	if id < 0 || id >= len(a.nodeIx) {
		return InvalidID, fmt.Errorf("node %d: %w", id, ErrIDOutOfRange)
	}
	if a.nodeIx[id] == InvalidID {
		return InvalidID, fmt.Errorf("node %d: %w", id, ErrNodeDeleted)
	}

	return a.nodeIx[id], nil
}

// liveSegIx resolves a segment ID to its storage index.
func (a *Arcset) liveSegIx(id int) (int, error) {
	if id < 0 || id >= len(a.segIx) {
		return InvalidID, fmt.Errorf("segment %d: %w", id, ErrIDOutOfRange)
	}
	if a.segIx[id] == InvalidID {
		return InvalidID, fmt.Errorf("segment %d: %w", id, ErrSegDeleted)
	}

	return a.segIx[id], nil
}

// Node returns a copy of the node with the given ID.
func (a *Arcset) Node(id int) (Node, error) {
	ix, err := a.liveNodeIx(id)
	if err != nil {
		return Node{}, err
	}

	return a.nodes[ix].clone(), nil
}

// Seg returns a copy of the segment with the given ID.
func (a *Arcset) Seg(id int) (Segment, error) {
	ix, err := a.liveSegIx(id)
	if err != nil {
		return Segment{}, err
	}

	return a.segs[ix].clone(), nil
}

// NodeByIx returns a copy of the node at storage index ix; negative ix counts from the end.
func (a *Arcset) NodeByIx(ix int) (Node, error) {
	if ix < 0 {
		ix += len(a.nodes)
	}
	if ix < 0 || ix >= len(a.nodes) {
		return Node{}, fmt.Errorf("node index %d: %w", ix, ErrIDOutOfRange)
	}

	return a.nodes[ix].clone(), nil
}

// SegByIx returns a copy of the segment at storage index ix; negative ix counts from the end.
func (a *Arcset) SegByIx(ix int) (Segment, error) {
	if ix < 0 {
		ix += len(a.segs)
	}
	if ix < 0 || ix >= len(a.segs) {
		return Segment{}, fmt.Errorf("segment index %d: %w", ix, ErrIDOutOfRange)
	}

	return a.segs[ix].clone(), nil
}

// NodeIx returns the storage index of node id.
func (a *Arcset) NodeIx(id int) (int, error) { return a.liveNodeIx(id) }

// SegIx returns the storage index of segment id.
func (a *Arcset) SegIx(id int) (int, error) { return a.liveSegIx(id) }

// Nodes returns copies of all live nodes in storage order.
func (a *Arcset) Nodes() []Node {
	out := make([]Node, len(a.nodes))
	var i int
	for i = range a.nodes {
		out[i] = a.nodes[i].clone()
	}

	return out
}

// Segs returns copies of all live segments in storage order.
func (a *Arcset) Segs() []Segment {
	out := make([]Segment, len(a.segs))
	var i int
	for i = range a.segs {
		out[i] = a.segs[i].clone()
	}

	return out
}

// SetNodeState replaces the state of node id (copied).
func (a *Arcset) SetNodeState(id int, state []float64) error {
	ix, err := a.liveNodeIx(id)
	if err != nil {
		return err
	}
	a.nodes[ix].State = append([]float64(nil), state...)

	return nil
}

// SetNodeEpoch replaces the epoch of node id.
func (a *Arcset) SetNodeEpoch(id int, epoch float64) error {
	ix, err := a.liveNodeIx(id)
	if err != nil {
		return err
	}
	a.nodes[ix].Epoch = epoch

	return nil
}

// SetNodeExtra stores a named extra parameter on node id (copied).
func (a *Arcset) SetNodeExtra(id int, name string, value []float64) error {
	ix, err := a.liveNodeIx(id)
	if err != nil {
		return err
	}
	if a.nodes[ix].Extra == nil {
		a.nodes[ix].Extra = make(map[string][]float64)
	}
	a.nodes[ix].Extra[name] = append([]float64(nil), value...)

	return nil
}

// SetSegTOF replaces the TOF of segment id. The sign may not change, since
// that would silently violate the linking rules checked by AddSeg.
func (a *Arcset) SetSegTOF(id int, tof float64) error {
	ix, err := a.liveSegIx(id)
	if err != nil {
		return err
	}
	if tof != 0 && a.segs[ix].TOF != 0 && !sameDirection(tof, a.segs[ix].TOF) {
		return fmt.Errorf("segment %d: TOF sign flip %g -> %g: %w", id, a.segs[ix].TOF, tof, ErrLinkConflict)
	}
	a.segs[ix].TOF = tof

	return nil
}

// SetSegSTM replaces the STM of segment id (copied).
func (a *Arcset) SetSegSTM(id int, stm []float64) error {
	ix, err := a.liveSegIx(id)
	if err != nil {
		return err
	}
	a.segs[ix].STM = append([]float64(nil), stm...)

	return nil
}

// SetSegTrace replaces the raw propagation trace of segment id (copied).
func (a *Arcset) SetSegTrace(id int, times []float64, states [][]float64) error {
	ix, err := a.liveSegIx(id)
	if err != nil {
		return err
	}
	cp := Segment{Times: times, States: states}.clone()
	a.segs[ix].Times, a.segs[ix].States = cp.Times, cp.States

	return nil
}

// SetSegVelCon replaces the velocity-continuity flags of segment id.
func (a *Arcset) SetSegVelCon(id int, flags [3]bool) error {
	ix, err := a.liveSegIx(id)
	if err != nil {
		return err
	}
	a.segs[ix].VelCon = flags

	return nil
}

// TotalTOF returns the sum of all signed segment TOFs.
func (a *Arcset) TotalTOF() float64 {
	var total float64
	var i int
	for i = range a.segs {
		total += a.segs[i].TOF
	}

	return total
}

// Clone returns a deep, independent copy (same IDs, same storage order).
func (a *Arcset) Clone() *Arcset {
	out := &Arcset{
		system: a.system,
		tol:    a.tol,
		nodes:  make([]Node, len(a.nodes)),
		segs:   make([]Segment, len(a.segs)),
		nodeIx: append([]int(nil), a.nodeIx...),
		segIx:  append([]int(nil), a.segIx...),
		cons:   cloneCons(a.cons),
	}
	var i int
	for i = range a.nodes {
		out.nodes[i] = a.nodes[i].clone()
	}
	for i = range a.segs {
		out.segs[i] = a.segs[i].clone()
	}

	return out
}
