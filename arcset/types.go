// Package arcset defines the Node, Segment and Arcset types that represent a
// trajectory as a graph of state points linked by propagated arcs.
//
// An Arcset owns its nodes and segments. IDs are handed out from monotonic
// counters and never reused; deleting an entity tombstones its ID while the
// storage slices are compacted, so "storage index" and "ID" are different
// things once anything has been deleted.
//
// Time direction is part of the structure: a segment with negative TOF is
// propagated in reverse time from its origin. Linking rules keep every node
// on at most one forward and one backward branch.
//
// An Arcset is not safe for concurrent mutation; callers serialise writers.
//
// Errors (all wrap ErrStructural):
//
//	ErrIDOutOfRange       - an ID that was never issued.
//	ErrNodeDeleted        - a node ID that has been tombstoned.
//	ErrSegDeleted         - a segment ID that has been tombstoned.
//	ErrInvalidOrigin      - a segment without an origin node.
//	ErrNoOpenSlot         - a node already carries two links.
//	ErrLinkConflict       - a link would break the time-direction rules.
//	ErrAmbiguousHeal      - a deletion cannot be healed unambiguously.
//	ErrSystemMismatch     - two arcsets built for different dynamical systems.
//	ErrNotChronological   - traversal did not reach every node and segment.
//	ErrConstraintConflict - a constraint clashes with one already on the entity.
//	ErrBadTables          - persisted tables with inconsistent shapes.
package arcset

import (
	"errors"
	"fmt"
)

// ErrStructural is the root of every graph-invariant violation.
var ErrStructural = errors.New("arcset: structural violation")

// Sentinel errors for arc graph operations.
var (
	// ErrIDOutOfRange indicates an ID outside [0, next ID).
	ErrIDOutOfRange = fmt.Errorf("%w: id out of range", ErrStructural)

	// ErrNodeDeleted indicates a lookup of a tombstoned node.
	ErrNodeDeleted = fmt.Errorf("%w: node has been deleted", ErrStructural)

	// ErrSegDeleted indicates a lookup of a tombstoned segment.
	ErrSegDeleted = fmt.Errorf("%w: segment has been deleted", ErrStructural)

	// ErrInvalidOrigin indicates a segment was added without an origin node.
	ErrInvalidOrigin = fmt.Errorf("%w: segment must have a valid origin", ErrStructural)

	// ErrNoOpenSlot indicates both link slots of a node are taken.
	ErrNoOpenSlot = fmt.Errorf("%w: node has no open link slot", ErrStructural)

	// ErrLinkConflict indicates two terminating segments, a time collision or a parallel structure.
	ErrLinkConflict = fmt.Errorf("%w: link conflict", ErrStructural)

	// ErrAmbiguousHeal indicates a node deletion whose neighbours both end open.
	ErrAmbiguousHeal = fmt.Errorf("%w: ambiguous heal", ErrStructural)

	// ErrSystemMismatch indicates arcsets built for different systems.
	ErrSystemMismatch = fmt.Errorf("%w: system mismatch", ErrStructural)

	// ErrNotChronological indicates the chronological walk missed pieces.
	ErrNotChronological = fmt.Errorf("%w: arcset is not one connected chain", ErrStructural)

	// ErrConstraintConflict indicates a constraint conflicting with an existing one.
	ErrConstraintConflict = fmt.Errorf("%w: conflicting constraint", ErrStructural)

	// ErrBadTables indicates persisted tables with inconsistent shapes.
	ErrBadTables = fmt.Errorf("%w: inconsistent tables", ErrStructural)
)

const (
	// InvalidID marks an empty link slot, an open segment end, or a rejected insertion.
	InvalidID = -1

	// OriginIx and TermIx index a segment's two links.
	OriginIx = 0
	TermIx   = 1

	// StateDim is the position/velocity dimension the corrector constrains.
	StateDim = 6

	// STMSize is the number of entries of a row-major StateDim×StateDim STM.
	STMSize = StateDim * StateDim

	// DefaultTolerance is the numeric tolerance given to a new Arcset.
	DefaultTolerance = 1e-12
)

// Operation tags for error wrapping.
const (
	opAddNode       = "AddNode"
	opAddSeg        = "AddSeg"
	opDeleteNode    = "DeleteNode"
	opDeleteSeg     = "DeleteSeg"
	opLinkSegs      = "LinkSegments"
	opAddConstraint = "AddConstraint"
	opSort          = "SortFrom"
	opChrono        = "PutInChronoOrder"
	opUpdateEpochs  = "UpdateEpochs"
	opConcat        = "Concat"
	opAppend        = "AppendSetAtNode"
	opSum           = "Sum"
	opTables        = "Tables"
)

// arcErrorf wraps err with an operation tag, preserving the sentinel via %w.
func arcErrorf(op string, err error) error {
	return fmt.Errorf("arcset.%s: %w", op, err)
}

// PieceKind distinguishes nodes from segments in a chronological listing.
type PieceKind int

const (
	PieceNode PieceKind = iota
	PieceSeg
)

// Piece is one element of a chronological listing.
type Piece struct {
	Kind PieceKind
	ID   int
}

// String renders "N3" or "S2".
func (p Piece) String() string {
	if p.Kind == PieceNode {
		return fmt.Sprintf("N%d", p.ID)
	}

	return fmt.Sprintf("S%d", p.ID)
}
