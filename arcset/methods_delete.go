// File: methods_delete.go
// Role: node and segment deletion, including "healing" of the graph around a
//       deleted node so the trajectory stays one time-continuous chain.
// Determinism:
//   - Storage order of survivors is preserved; IDs are tombstoned, never reused.
// Concurrency:
//   - None; callers serialise mutation of an Arcset.

package arcset

import (
	"fmt"
	"math"
)

// DeleteSeg removes segment id, clears the link entries on the nodes it
// touched and any segment-to-segment edge pointing at it, tombstones the ID
// and compacts storage.
//
// Errors: ErrIDOutOfRange. Deleting an already-deleted segment is a no-op.
// Complexity: O(#segments) for the index shift.
func (a *Arcset) DeleteSeg(id int) error {
	if id < 0 || id >= len(a.segIx) {
		return arcErrorf(opDeleteSeg, fmt.Errorf("segment %d: %w", id, ErrIDOutOfRange))
	}
	six := a.segIx[id]
	if six == InvalidID {
		return nil
	}
	seg := a.segs[six]
	for _, nid := range seg.links {
		if nid == InvalidID || a.nodeIx[nid] == InvalidID {
			continue
		}
		a.nodes[a.nodeIx[nid]].removeLink(id)
	}
	if seg.segLink != InvalidID && a.segIx[seg.segLink] != InvalidID {
		a.segs[a.segIx[seg.segLink]].segLink = InvalidID
	}

	a.segs = append(a.segs[:six], a.segs[six+1:]...)
	a.segIx[id] = InvalidID
	shiftDown(a.segIx, six)

	return nil
}

// DeleteNode removes node id and heals the graph around it.
//
// Implementation:
//   - One live link: the segment simply loses its link to the node.
//   - Pass-through (one segment terminates here, the other originates): both
//     are replaced by one segment whose TOF is the sum of the signed TOFs.
//   - Direction switch (two originating segments, opposite signs): when the
//     reverse-time side ends at a node, the replacement runs forward from that
//     node across the span (|TOF_rev| + TOF_fwd); otherwise it runs backward
//     from the forward side's terminus (TOF_rev − TOF_fwd) and keeps the open
//     end. Both sides open is ambiguous.
//   - A segment-to-segment edge on a replaced open end moves to the replacement.
//   - The heal runs on a clone; a failed deletion leaves a untouched.
//
// Errors:
//   - ErrIDOutOfRange; ErrAmbiguousHeal; ErrLinkConflict when the two links
//     contradict the linking rules. Deleting an already-deleted node is a no-op.
//
// Complexity: O(#nodes + #segments).
func (a *Arcset) DeleteNode(id int) error {
	if id < 0 || id >= len(a.nodeIx) {
		return arcErrorf(opDeleteNode, fmt.Errorf("node %d: %w", id, ErrIDOutOfRange))
	}
	if a.nodeIx[id] == InvalidID {
		return nil
	}

	work := a.Clone()
	if err := work.deleteNode(id); err != nil {
		return arcErrorf(opDeleteNode, err)
	}
	*a = *work

	return nil
}

// deleteNode heals and removes a live node. It may leave a half-healed graph
// behind on error, so DeleteNode runs it on a clone.
func (a *Arcset) deleteNode(id int) error {
	nix := a.nodeIx[id]
	var linked []Segment
	for _, sid := range a.nodes[nix].links {
		if sid != InvalidID && a.segIx[sid] != InvalidID {
			linked = append(linked, a.segs[a.segIx[sid]])
		}
	}

	switch len(linked) {
	case 2:
		combo, partner, err := healPlan(id, linked[0], linked[1])
		if err != nil {
			return err
		}
		// Stage: swap the two segments for their combination.
		if err = a.DeleteSeg(linked[0].id); err != nil {
			return err
		}
		if err = a.DeleteSeg(linked[1].id); err != nil {
			return err
		}
		newID, err := a.AddSeg(combo)
		if err != nil {
			return err
		}
		if newID == InvalidID {
			return fmt.Errorf("node %d: healed segment rejected: %w", id, ErrLinkConflict)
		}
		if partner != InvalidID && a.segIx[partner] != InvalidID {
			if err = a.LinkSegments(newID, partner); err != nil {
				return err
			}
		}
	case 1:
		a.segs[a.segIx[linked[0].id]].removeLink(id)
	}

	// Storage index may have shifted while segments were replaced; re-read it.
	nix = a.nodeIx[id]
	a.nodes = append(a.nodes[:nix], a.nodes[nix+1:]...)
	a.nodeIx[id] = InvalidID
	shiftDown(a.nodeIx, nix)

	return nil
}

// healPlan works out the replacement for two segments meeting at node id.
// It returns the combined segment and the segment-to-segment partner of the
// open end the combination inherits (InvalidID when there is none).
func healPlan(id int, s0, s1 Segment) (Segment, int, error) {
	if s0.Terminus() == id || s1.Terminus() == id {
		term, orig := s0, s1
		if s1.Terminus() == id {
			term, orig = s1, s0
		}
		if term.TOF*orig.TOF < 0 {
			return Segment{}, InvalidID, fmt.Errorf("node %d: pass-through segments %d and %d run opposite ways: %w",
				id, term.id, orig.id, ErrLinkConflict)
		}
		combo := NewSegment(term.Origin(), orig.Terminus(), term.TOF+orig.TOF)
		combo.VelCon = orig.VelCon

		return combo, openPartner(orig), nil
	}

	if s0.Origin() != id || s1.Origin() != id || s0.TOF*s1.TOF > 0 {
		return Segment{}, InvalidID, fmt.Errorf("node %d: segments %d and %d do not form a direction switch: %w",
			id, s0.id, s1.id, ErrLinkConflict)
	}
	rev, fwd := s0, s1
	if s1.TOF < 0 {
		rev, fwd = s1, s0
	}
	if rev.Terminus() != InvalidID {
		combo := NewSegment(rev.Terminus(), fwd.Terminus(), math.Abs(rev.TOF)+fwd.TOF)
		combo.VelCon = fwd.VelCon

		return combo, openPartner(fwd), nil
	}
	if fwd.Terminus() == InvalidID {
		return Segment{}, InvalidID, fmt.Errorf("node %d: both segments end at other segments: %w", id, ErrAmbiguousHeal)
	}
	combo := NewSegment(fwd.Terminus(), InvalidID, rev.TOF-fwd.TOF)
	combo.VelCon = rev.VelCon

	return combo, openPartner(rev), nil
}

// openPartner returns the segment joined to s's open end, if any.
func openPartner(s Segment) int {
	if s.Terminus() != InvalidID {
		return InvalidID
	}

	return s.segLink
}

// removeLink clears whichever link slot points at nodeID.
func (s *Segment) removeLink(nodeID int) {
	var i int
	for i = range s.links {
		if s.links[i] == nodeID {
			s.links[i] = InvalidID
		}
	}
}

// shiftDown decrements every live index greater than removed.
func shiftDown(ix []int, removed int) {
	var i int
	for i = range ix {
		if ix[i] != InvalidID && ix[i] > removed {
			ix[i]--
		}
	}
}
