package corrector

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlarc/arcset"
	"github.com/katalvlaran/lvlarc/constraint"
)

// VarKind names a category of free variable.
type VarKind int

const (
	VarState VarKind = iota // owner: node ID; the row of the first of StateDim entries
	VarTOF                  // owner: segment ID (EQUAL_ARC: every segment maps to the shared total)
	VarEpoch                // owner: node ID
	VarSlack                // owner: index of the constraint in evaluation order
)

// VarMap records where each (kind, owner) lives in X; -1 means "not free".
//
// Layout: node states in storage order, then segment TOFs (or the single
// EQUAL_ARC total), then node epochs, then slack variables.
type VarMap struct {
	mode    TOFMode
	state   map[int]int
	tof     map[int]int
	epoch   map[int]int
	slack   map[int]int
	sign    map[int]float64
	total   int
	numSegs int
	primary int
	size    int
}

// Row returns the row of (kind, owner) in X, or -1 when that variable is held
// fixed or does not exist.
func (m *VarMap) Row(kind VarKind, owner int) int {
	var tbl map[int]int
	switch kind {
	case VarState:
		tbl = m.state
	case VarTOF:
		tbl = m.tof
	case VarEpoch:
		tbl = m.epoch
	case VarSlack:
		tbl = m.slack
	}
	if row, ok := tbl[owner]; ok {
		return row
	}

	return -1
}

// Len is the total number of free variables, slack included.
func (m *VarMap) Len() int { return m.size }

// Primary is the number of non-slack free variables.
func (m *VarMap) Primary() int { return m.primary }

// addSlack appends a slack column for constraint index owner.
func (m *VarMap) addSlack(owner int) int {
	col := m.size
	m.slack[owner] = col
	m.size++

	return col
}

// tofAt returns the TOF of segment id at x, its column and ∂tof/∂x[col].
func (m *VarMap) tofAt(id int, input float64, x []float64) (tof float64, col int, coeff float64) {
	col = m.Row(VarTOF, id)
	if col < 0 {
		return input, -1, 0
	}
	switch m.mode {
	case TOFFixedSign:
		s := m.sign[id]
		return s * x[col] * x[col], col, 2 * s * x[col]
	case TOFEqualArc:
		n := float64(m.numSegs)
		return x[col] / n, col, 1 / n
	default:
		return x[col], col, 1
	}
}

// hasType reports whether any constraint in cons has type t.
func hasType(cons []constraint.Constraint, t constraint.Type) bool {
	for _, c := range cons {
		if c.Type == t {
			return true
		}
	}

	return false
}

// buildVarMap lays out the free variables and returns the initial vector.
//
// Errors: ErrInvalidArcset for a node state that is not StateDim long or for
// EQUAL_ARC over segments of mixed direction; ErrUnsupportedConstraint for
// RM_TOF under EQUAL_ARC (no single segment owns the shared variable).
func buildVarMap(nodes []arcset.Node, segs []arcset.Segment, autonomous bool, mode TOFMode) (*VarMap, []float64, error) {
	m := &VarMap{
		mode:    mode,
		state:   make(map[int]int, len(nodes)),
		tof:     make(map[int]int, len(segs)),
		epoch:   make(map[int]int, len(nodes)),
		slack:   make(map[int]int),
		sign:    make(map[int]float64),
		total:   -1,
		numSegs: len(segs),
	}
	var x []float64

	for _, n := range nodes {
		if len(n.State) != arcset.StateDim {
			return nil, nil, fmt.Errorf("%w: node %d has %d state entries, want %d",
				ErrInvalidArcset, n.ID(), len(n.State), arcset.StateDim)
		}
		if hasType(n.Constraints(), constraint.RmState) {
			continue
		}
		m.state[n.ID()] = len(x)
		x = append(x, n.State...)
	}

	switch mode {
	case TOFFree, TOFFixedSign:
		for _, s := range segs {
			if hasType(s.Constraints(), constraint.RmTOF) {
				continue
			}
			m.tof[s.ID()] = len(x)
			if mode == TOFFree {
				x = append(x, s.TOF)
				continue
			}
			m.sign[s.ID()] = 1
			if s.TOF < 0 {
				m.sign[s.ID()] = -1
			}
			x = append(x, math.Sqrt(math.Abs(s.TOF)))
		}
	case TOFEqualArc:
		if len(segs) > 0 {
			var total float64
			for _, s := range segs {
				if hasType(s.Constraints(), constraint.RmTOF) {
					return nil, nil, fmt.Errorf("%w: RM_TOF on segment %d under %v", ErrUnsupportedConstraint, s.ID(), mode)
				}
				if s.TOF*segs[0].TOF < 0 {
					return nil, nil, fmt.Errorf("%w: %v needs every segment to run the same way in time", ErrInvalidArcset, mode)
				}
				total += s.TOF
			}
			m.total = len(x)
			for _, s := range segs {
				m.tof[s.ID()] = m.total
			}
			x = append(x, total)
		}
	}

	if !autonomous {
		for _, n := range nodes {
			if hasType(n.Constraints(), constraint.RmEpoch) {
				continue
			}
			m.epoch[n.ID()] = len(x)
			x = append(x, n.Epoch)
		}
	}

	m.primary = len(x)
	m.size = len(x)

	return m, x, nil
}
