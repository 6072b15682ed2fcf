// File: methods_join.go
// Role: combining arcsets: Concat (purely additive), AppendSetAtNode (stitch
//       with a new connecting segment) and Sum (end-to-start join).
// Determinism:
//   - Nodes are copied in the other arcset's storage order, then segments,
//     then arc constraints; new IDs are issued in that order.
// Concurrency:
//   - Mutates the receiver only; the argument is never modified.
// AI-Hints (file):
//   - Every operation works on a clone and swaps it in on success, so a
//     failed join leaves the receiver untouched.

package arcset

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlarc/constraint"
)

// Concat copies every node (links cleared), every segment (endpoints and
// segment-to-segment edges remapped) and every arc constraint of other into a.
// Constraint data that stores entity IDs is remapped too. The larger of the
// two tolerances is kept.
//
// Returns the old→new node ID map.
//
// Errors: ErrSystemMismatch; any AddSeg error for a segment of other.
func (a *Arcset) Concat(other *Arcset) (map[int]int, error) {
	work := a.Clone()
	nodeMap, err := work.concat(other)
	if err != nil {
		return nil, arcErrorf(opConcat, err)
	}
	*a = *work

	return nodeMap, nil
}

func (a *Arcset) concat(other *Arcset) (map[int]int, error) {
	if other.system != a.system {
		return nil, fmt.Errorf("%q vs %q: %w", a.system, other.system, ErrSystemMismatch)
	}
	nodeMap := make(map[int]int, len(other.nodes))
	segMap := make(map[int]int, len(other.segs))
	var i int
	for i = range other.nodes {
		nodeMap[other.nodes[i].id] = a.AddNode(other.nodes[i])
	}
	for i = range other.segs {
		s := other.segs[i].clone()
		for k, nid := range s.links {
			if nid != InvalidID {
				s.links[k] = nodeMap[nid]
			}
		}
		newID, err := a.AddSeg(s)
		if err != nil {
			return nil, err
		}
		if newID == InvalidID {
			return nil, fmt.Errorf("segment %d rejected: %w", other.segs[i].id, ErrLinkConflict)
		}
		segMap[other.segs[i].id] = newID
	}
	for i = range other.segs {
		if link := other.segs[i].segLink; link != InvalidID {
			a.segs[a.segIx[segMap[other.segs[i].id]]].segLink = segMap[link]
		}
	}
	for _, id := range nodeMap {
		remapConstraints(a.nodes[a.nodeIx[id]].cons, nodeMap, segMap)
	}
	for _, id := range segMap {
		remapConstraints(a.segs[a.segIx[id]].cons, nodeMap, segMap)
	}
	arcCons := cloneCons(other.cons)
	remapConstraints(arcCons, nodeMap, segMap)
	a.cons = append(a.cons, arcCons...)
	a.tol = math.Max(a.tol, other.tol)

	return nodeMap, nil
}

// remapConstraints rewrites entity IDs stored in constraint data in place.
func remapConstraints(cons []constraint.Constraint, nodeMap, segMap map[int]int) {
	var i int
	for i = range cons {
		cons[i] = cons[i].Remap(nodeMap, segMap)
	}
}

// joinRole classifies a join node by its single live segment.
type joinRole int

const (
	roleFree joinRole = iota
	roleOrigin
	roleTerminus
)

func (a *Arcset) roleOf(id int) (joinRole, Segment) {
	for _, sid := range a.nodes[a.nodeIx[id]].links {
		if sid == InvalidID || a.segIx[sid] == InvalidID {
			continue
		}
		s := a.segs[a.segIx[sid]]
		if s.Origin() == id {
			return roleOrigin, s
		}

		return roleTerminus, s
	}

	return roleFree, Segment{}
}

// AppendSetAtNode splices other into a and creates a segment joining node
// linkTo (in a) to node linkFrom (in other).
//
// Implementation:
//   - Stage 1: both join nodes must exist and have an open link slot.
//   - Stage 2 (tof == 0): the join nodes are the same point. In a working copy
//     of other, delete linkFrom and its one segment, inherit that segment's
//     TOF and re-point linkFrom to the segment's far node. A linkFrom with no
//     segment is simply dropped and no connecting segment is created.
//   - Stage 3: orient the new segment. A terminus-only side must become the
//     origin (the other side must not also be terminus-only); a side with no
//     segment takes whatever role the other leaves. When both sides are
//     origins, the one whose existing segment already runs in reverse time
//     decides: the new segment leaves that side when tof > 0.
//   - Stage 4: Concat the working copy, then AddSeg the connector.
//
// Returns the connecting segment's ID (InvalidID when none was created).
//
// Errors: ErrSystemMismatch, ErrIDOutOfRange, ErrNodeDeleted, ErrNoOpenSlot,
// ErrLinkConflict (no valid orientation, or AddSeg rejects the connector).
func (a *Arcset) AppendSetAtNode(other *Arcset, linkTo, linkFrom int, tof float64) (int, error) {
	if other.system != a.system {
		return InvalidID, arcErrorf(opAppend, fmt.Errorf("%q vs %q: %w", a.system, other.system, ErrSystemMismatch))
	}
	toIx, err := a.liveNodeIx(linkTo)
	if err != nil {
		return InvalidID, arcErrorf(opAppend, err)
	}
	work := other.Clone()
	fromIx, err := work.liveNodeIx(linkFrom)
	if err != nil {
		return InvalidID, arcErrorf(opAppend, err)
	}
	if !a.nodes[toIx].hasOpenSlot() {
		return InvalidID, arcErrorf(opAppend, fmt.Errorf("node %d: %w", linkTo, ErrNoOpenSlot))
	}
	if !work.nodes[fromIx].hasOpenSlot() {
		return InvalidID, arcErrorf(opAppend, fmt.Errorf("other node %d: %w", linkFrom, ErrNoOpenSlot))
	}

	toRole, toSeg := a.roleOf(linkTo)
	fromRole, fromSeg := work.roleOf(linkFrom)

	if tof == 0 {
		if fromRole == roleFree {
			if err = work.DeleteNode(linkFrom); err != nil {
				return InvalidID, arcErrorf(opAppend, err)
			}
			if _, err = a.Concat(work); err != nil {
				return InvalidID, arcErrorf(opAppend, err)
			}
			return InvalidID, nil
		}
		next := fromSeg.otherEnd(linkFrom)
		if next == InvalidID {
			return InvalidID, arcErrorf(opAppend, fmt.Errorf("other node %d: segment %d has no far node to re-point to: %w",
				linkFrom, fromSeg.id, ErrLinkConflict))
		}
		tof = fromSeg.TOF
		if err = work.DeleteSeg(fromSeg.id); err != nil {
			return InvalidID, arcErrorf(opAppend, err)
		}
		if err = work.DeleteNode(linkFrom); err != nil {
			return InvalidID, arcErrorf(opAppend, err)
		}
		linkFrom = next
		fromRole, fromSeg = work.roleOf(linkFrom)
	}

	toIsOrigin, err := orientJoin(toRole, fromRole, toSeg, fromSeg, tof)
	if err != nil {
		return InvalidID, arcErrorf(opAppend, err)
	}

	out := a.Clone()
	nodeMap, err := out.concat(work)
	if err != nil {
		return InvalidID, arcErrorf(opAppend, err)
	}
	origin, terminus := linkTo, nodeMap[linkFrom]
	if !toIsOrigin {
		origin, terminus = terminus, origin
	}
	id, err := out.AddSeg(NewSegment(origin, terminus, tof))
	if err != nil {
		return InvalidID, arcErrorf(opAppend, err)
	}
	*a = *out

	return id, nil
}

// orientJoin reports whether the linkTo side becomes the new segment's origin.
func orientJoin(toRole, fromRole joinRole, toSeg, fromSeg Segment, tof float64) (bool, error) {
	switch {
	case toRole == roleTerminus && fromRole == roleTerminus:
		return false, fmt.Errorf("neither join node is an origin: %w", ErrLinkConflict)
	case toRole == roleTerminus:
		return true, nil
	case fromRole == roleTerminus:
		return false, nil
	case toRole == roleFree:
		return true, nil
	case fromRole == roleFree:
		return false, nil
	case toSeg.TOF < 0:
		return tof > 0, nil
	case fromSeg.TOF < 0:
		return tof < 0, nil
	default:
		return false, fmt.Errorf("both join nodes originate forward-time segments: %w", ErrLinkConflict)
	}
}

// Sum joins rhs onto the end of lhs: both are put in chronological order and
// the last node of lhs is identified with the first node of rhs (tof = 0).
// Neither input is modified.
//
// Errors: ErrSystemMismatch, ErrNotChronological, AppendSetAtNode errors.
func Sum(lhs, rhs *Arcset) (*Arcset, error) {
	out := lhs.Clone()
	if rhs.NumNodes() == 0 {
		return out, nil
	}
	if lhs.NumNodes() == 0 {
		if lhs.system != rhs.system {
			return nil, arcErrorf(opSum, fmt.Errorf("%q vs %q: %w", lhs.system, rhs.system, ErrSystemMismatch))
		}
		return rhs.Clone(), nil
	}
	right := rhs.Clone()
	if err := out.PutInChronoOrder(); err != nil {
		return nil, arcErrorf(opSum, err)
	}
	if err := right.PutInChronoOrder(); err != nil {
		return nil, arcErrorf(opSum, err)
	}
	last := out.nodes[len(out.nodes)-1].id
	first := right.nodes[0].id
	if _, err := out.AppendSetAtNode(right, last, first, 0); err != nil {
		return nil, arcErrorf(opSum, err)
	}

	return out, nil
}
