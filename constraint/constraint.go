// SPDX-License-Identifier: MIT

package constraint

import (
	"fmt"
	"math"
	"strings"
)

// Constraint is one declarative condition.
//   - Type fixes the meaning of Data and, through Type.Scope, what ID refers to.
//   - Data entries that are NaN are unconstrained.
type Constraint struct {
	Type Type      `yaml:"type"`
	ID   int       `yaml:"id"`
	Data []float64 `yaml:"data,omitempty"`
}

// New builds a constraint, copying data so the caller keeps ownership of its slice.
func New(t Type, id int, data ...float64) Constraint {
	c := Constraint{Type: t, ID: id}
	if len(data) > 0 {
		c.Data = append([]float64(nil), data...)
	}

	return c
}

// Scope is the scope derived from the type.
func (c Constraint) Scope() Scope { return c.Type.Scope() }

// Clone returns a deep copy.
func (c Constraint) Clone() Constraint {
	c.Data = append([]float64(nil), c.Data...)

	return c
}

// CountConstrained returns the number of non-NaN data entries.
func (c Constraint) CountConstrained() int {
	var n, i int
	for i = range c.Data {
		if !math.IsNaN(c.Data[i]) {
			n++
		}
	}

	return n
}

// Constrained returns the indices of the non-NaN data entries, ascending.
func (c Constraint) Constrained() []int {
	out := make([]int, 0, len(c.Data))
	var i int
	for i = range c.Data {
		if !math.IsNaN(c.Data[i]) {
			out = append(out, i)
		}
	}

	return out
}

// FirstValue returns the first non-NaN data entry.
func (c Constraint) FirstValue() (ix int, v float64, ok bool) {
	for ix = range c.Data {
		if !math.IsNaN(c.Data[ix]) {
			return ix, c.Data[ix], true
		}
	}

	return -1, math.NaN(), false
}

// StoresID reports whether the non-NaN data entries are entity IDs rather
// than numeric targets; copies into another arcset must remap them.
func (c Constraint) StoresID() bool {
	switch c.Type {
	case MatchAll, MatchCust, SegContPV, SegContEx:
		return true
	default:
		return false
	}
}

// Conflicts reports whether c and other cannot both hold on the same entity.
//   - STATE and ENDSEG_STATE conflict only when both constrain some component.
//   - Segment-to-segment links conflict only when they start at the same segment.
//   - Primary-relative types (DIST family, APSE) and matches conflict only when
//     they name the same primary or the same partner node.
//   - Every other same-type pair is a duplicate.
func (c Constraint) Conflicts(other Constraint) bool {
	if c.Scope() != other.Scope() || c.Type != other.Type {
		return false
	}
	switch c.Type {
	case State, EndSegState:
		n := min(len(c.Data), len(other.Data))
		var i int
		for i = 0; i < n; i++ {
			if !math.IsNaN(c.Data[i]) && !math.IsNaN(other.Data[i]) {
				return true
			}
		}
		return false
	case SegContPV, SegContEx:
		return c.ID == other.ID
	case Dist, MinDist, MaxDist, Apse, MatchAll, MatchCust:
		_, a, okA := c.FirstValue()
		_, b, okB := other.FirstValue()
		return okA == okB && (!okA || a == b)
	default:
		return true
	}
}

// Remap returns a copy whose stored entity IDs (see StoresID) are translated
// through nodeMap, or through segMap for the segment-to-segment types, whose
// target ID is translated too. IDs absent from the map are kept.
func (c Constraint) Remap(nodeMap, segMap map[int]int) Constraint {
	c = c.Clone()
	if !c.StoresID() {
		return c
	}
	m := nodeMap
	if c.Type == SegContPV || c.Type == SegContEx {
		m = segMap
		if id, ok := m[c.ID]; ok {
			c.ID = id
		}
	}
	var i int
	for i = range c.Data {
		if math.IsNaN(c.Data[i]) {
			continue
		}
		if id, ok := m[int(c.Data[i])]; ok {
			c.Data[i] = float64(id)
		}
	}

	return c
}

// String renders "TYPE(scope id)[data]" with NaN shown as "-".
func (c Constraint) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s(%s %d)[", c.Type, c.Scope(), c.ID))
	var i int
	for i = range c.Data {
		if i > 0 {
			b.WriteString(" ")
		}
		if math.IsNaN(c.Data[i]) {
			b.WriteString("-")
		} else {
			b.WriteString(fmt.Sprintf("%g", c.Data[i]))
		}
	}
	b.WriteString("]")

	return b.String()
}
