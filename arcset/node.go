package arcset

import (
	"github.com/katalvlaran/lvlarc/constraint"
)

// Node is one state point of a trajectory.
//
// State and Epoch are the design values the corrector adjusts. Extra holds
// named extra parameters (scalar or vector) that are persisted alongside the
// state tables. Links and the ID are owned by the Arcset.
type Node struct {
	// State is the node's state vector (position/velocity first).
	State []float64

	// Epoch is the node's time coordinate.
	Epoch float64

	// Extra holds named extra parameters; nil when unused.
	Extra map[string][]float64

	id    int
	links [2]int
	cons  []constraint.Constraint
}

// NewNode returns an unlinked node holding a copy of state.
func NewNode(state []float64, epoch float64) Node {
	return Node{
		State: append([]float64(nil), state...),
		Epoch: epoch,
		id:    InvalidID,
		links: [2]int{InvalidID, InvalidID},
	}
}

// ID returns the ID assigned by the owning Arcset (InvalidID before insertion).
func (n Node) ID() int { return n.id }

// Links returns both link slots; empty slots hold InvalidID.
func (n Node) Links() [2]int { return n.links }

// Constraints returns a copy of the node's constraints.
func (n Node) Constraints() []constraint.Constraint { return cloneCons(n.cons) }

// AddConstraint attaches c before the node is inserted. Its ID is rewritten
// to the node's ID on insertion.
func (n *Node) AddConstraint(c constraint.Constraint) {
	n.cons = append(n.cons, c.Clone())
}

// IsLinkedTo reports whether segID occupies one of the link slots.
func (n Node) IsLinkedTo(segID int) bool {
	return n.links[0] == segID || n.links[1] == segID
}

func (n Node) hasOpenSlot() bool { return n.IsLinkedTo(InvalidID) }

// addLink places segID in the first open slot; linking twice is a no-op.
func (n *Node) addLink(segID int) error {
	if n.IsLinkedTo(segID) {
		return nil
	}
	var i int
	for i = range n.links {
		if n.links[i] == InvalidID {
			n.links[i] = segID
			return nil
		}
	}

	return ErrNoOpenSlot
}

func (n *Node) removeLink(segID int) {
	var i int
	for i = range n.links {
		if n.links[i] == segID {
			n.links[i] = InvalidID
		}
	}
}

func (n Node) clone() Node {
	out := n
	out.State = append([]float64(nil), n.State...)
	out.cons = cloneCons(n.cons)
	out.Extra = cloneExtra(n.Extra)

	return out
}

func cloneCons(in []constraint.Constraint) []constraint.Constraint {
	if in == nil {
		return nil
	}
	out := make([]constraint.Constraint, len(in))
	var i int
	for i = range in {
		out[i] = in[i].Clone()
	}

	return out
}

func cloneExtra(in map[string][]float64) map[string][]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string][]float64, len(in))
	for k, v := range in {
		out[k] = append([]float64(nil), v...)
	}

	return out
}
