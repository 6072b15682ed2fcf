package arcset

import (
	"github.com/katalvlaran/lvlarc/constraint"
)

// Segment is a propagated arc from an origin node to a terminus node, or to
// an open end (terminus InvalidID).
//
// The sign of TOF is the propagation direction. STM is row-major and empty
// until the segment has been propagated. Times/States hold the raw trace the
// propagator produced.
type Segment struct {
	// TOF is the signed time of flight.
	TOF float64

	// STM is the row-major state transition matrix from origin to final state.
	STM []float64

	// VelCon flags which velocity components must be continuous at the terminus.
	VelCon [3]bool

	// Times and States are the raw propagation trace.
	Times  []float64
	States [][]float64

	id      int
	links   [2]int
	cons    []constraint.Constraint
	segLink int
}

// NewSegment returns a segment from origin to terminus (InvalidID for an open end)
// with all velocity components continuous.
func NewSegment(origin, terminus int, tof float64) Segment {
	return Segment{
		TOF:     tof,
		VelCon:  [3]bool{true, true, true},
		id:      InvalidID,
		links:   [2]int{origin, terminus},
		segLink: InvalidID,
	}
}

// ID returns the ID assigned by the owning Arcset.
func (s Segment) ID() int { return s.id }

// Origin returns the origin node ID.
func (s Segment) Origin() int { return s.links[OriginIx] }

// Terminus returns the terminus node ID, or InvalidID for an open end.
func (s Segment) Terminus() int { return s.links[TermIx] }

// SegLink returns the segment this one's open end is joined to, or InvalidID.
func (s Segment) SegLink() int { return s.segLink }

// Constraints returns a copy of the segment's constraints.
func (s Segment) Constraints() []constraint.Constraint { return cloneCons(s.cons) }

// AddConstraint attaches c before insertion; the ID is rewritten on insertion.
func (s *Segment) AddConstraint(c constraint.Constraint) {
	s.cons = append(s.cons, c.Clone())
}

// Forward reports whether the segment propagates in forward time.
func (s Segment) Forward() bool { return s.TOF > 0 }

// FinalState returns the last state of the raw trace, or nil when there is none.
func (s Segment) FinalState() []float64 {
	if len(s.States) == 0 {
		return nil
	}

	return append([]float64(nil), s.States[len(s.States)-1]...)
}

// sameDirection reports whether two TOFs run the same way in time.
// A zero TOF runs neither way.
func sameDirection(a, b float64) bool { return a*b > 0 }

// otherEnd returns the node at the far end from nodeID.
func (s Segment) otherEnd(nodeID int) int {
	if s.links[TermIx] == nodeID {
		return s.links[OriginIx]
	}

	return s.links[TermIx]
}

// continues reports whether walking from nodeID through s moves in direction dir (+1/-1).
func (s Segment) continues(nodeID, dir int) bool {
	if dir > 0 {
		return (s.Terminus() == nodeID && s.TOF < 0) || (s.Origin() == nodeID && s.TOF > 0)
	}

	return (s.Terminus() == nodeID && s.TOF > 0) || (s.Origin() == nodeID && s.TOF < 0)
}

func (s Segment) clone() Segment {
	out := s
	out.STM = append([]float64(nil), s.STM...)
	out.Times = append([]float64(nil), s.Times...)
	if s.States != nil {
		out.States = make([][]float64, len(s.States))
		var i int
		for i = range s.States {
			out.States[i] = append([]float64(nil), s.States[i]...)
		}
	}
	out.cons = cloneCons(s.cons)

	return out
}
