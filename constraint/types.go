// SPDX-License-Identifier: MIT

package constraint

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when parsing a type name outside the closed set.
var ErrUnknownType = errors.New("constraint: unknown type")

// Type enumerates every constraint the corrector understands.
type Type int

const (
	None        Type = iota // placeholder; contributes nothing
	State                   // node state components equal Data (NaN = free)
	MatchAll                // all six node state components equal another node's (Data[0] = node ID)
	MatchCust               // selected components equal another node's (Data[i] = node ID or NaN)
	Epoch                   // node epoch equals Data[0]
	Dist                    // node distance from primary Data[0] equals Data[1]
	MinDist                 // node distance from primary Data[0] is at least Data[1]
	MaxDist                 // node distance from primary Data[0] is at most Data[1]
	DeltaV                  // total delta-V equals Data[0]
	MaxDeltaV               // total delta-V is at most Data[0]
	TOFTotal                // sum of segment TOFs equals Data[0]
	Apse                    // node is an apsis relative to primary Data[0]
	EndSegState             // segment final state components equal Data (NaN = free)
	ContPV                  // position/velocity continuity at a segment terminus
	ContEx                  // extra-variable (epoch) continuity at a segment terminus
	SegContPV               // two open segment ends meet in position/velocity (Data[i] = other segment ID or NaN)
	SegContEx               // two open segment ends meet in epoch (Data[0] = other segment ID)
	RmState                 // hold a node's state fixed
	RmEpoch                 // hold a node's epoch fixed
	RmTOF                   // hold a segment's TOF fixed
)

var typeNames = [...]string{
	None:        "NONE",
	State:       "STATE",
	MatchAll:    "MATCH_ALL",
	MatchCust:   "MATCH_CUST",
	Epoch:       "EPOCH",
	Dist:        "DIST",
	MinDist:     "MIN_DIST",
	MaxDist:     "MAX_DIST",
	DeltaV:      "DELTA_V",
	MaxDeltaV:   "MAX_DELTA_V",
	TOFTotal:    "TOF_TOTAL",
	Apse:        "APSE",
	EndSegState: "ENDSEG_STATE",
	ContPV:      "CONT_PV",
	ContEx:      "CONT_EX",
	SegContPV:   "SEG_CONT_PV",
	SegContEx:   "SEG_CONT_EX",
	RmState:     "RM_STATE",
	RmEpoch:     "RM_EPOCH",
	RmTOF:       "RM_TOF",
}

// String returns the canonical upper-case name.
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}

	return typeNames[t]
}

// Valid reports whether t belongs to the closed set.
func (t Type) Valid() bool { return t >= 0 && int(t) < len(typeNames) }

// ParseType maps a canonical name (case-insensitive) back to its Type.
func ParseType(s string) (Type, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	var i int
	for i = range typeNames {
		if typeNames[i] == name {
			return Type(i), nil
		}
	}

	return None, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// MarshalText encodes the canonical name (used by YAML problem files and tables).
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}

	return []byte(t.String()), nil
}

// UnmarshalText decodes a canonical name.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v

	return nil
}

// Scope says which entity a constraint's ID refers to.
type Scope int

const (
	ScopeNode    Scope = iota // ID is a node ID
	ScopeSegment              // ID is a segment ID
	ScopeArc                  // applies to the whole arcset; ID is informational
)

// String returns "node", "segment" or "arc".
func (s Scope) String() string {
	switch s {
	case ScopeNode:
		return "node"
	case ScopeSegment:
		return "segment"
	case ScopeArc:
		return "arc"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// Scope derives the scope from the type.
func (t Type) Scope() Scope {
	switch t {
	case TOFTotal, DeltaV, MaxDeltaV, SegContPV, SegContEx:
		return ScopeArc
	case ContPV, ContEx, EndSegState, RmTOF:
		return ScopeSegment
	default:
		return ScopeNode
	}
}

// Inequality reports whether the type is enforced through a slack variable.
func (t Type) Inequality() bool {
	return t == MinDist || t == MaxDist || t == MaxDeltaV
}

// Singleton reports whether at most one constraint of this type may appear
// in one correction problem.
func (t Type) Singleton() bool {
	return t == TOFTotal || t == DeltaV || t == MaxDeltaV
}

// Removal reports whether the type is a "hold fixed" flag rather than an equation.
func (t Type) Removal() bool {
	return t == RmState || t == RmEpoch || t == RmTOF
}
