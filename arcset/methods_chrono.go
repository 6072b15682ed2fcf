// File: methods_chrono.go
// Role: chronological traversal of the arc graph, storage reordering and
//       epoch propagation along the chronological chain.
// Determinism:
//   - At each node the link slots are scanned in slot order; the first live
//     segment that continues the walking direction wins.
// Concurrency:
//   - Read-only except PutInChronoOrder/UpdateEpochs; no internal locking.
// AI-Hints (file):
//   - Open segment ends are bridged through the explicit segment-to-segment
//     edge (Segment.SegLink); the linked component is spliced in recursively.

package arcset

import (
	"fmt"
	"math"
)

// SortFrom lists the nodes and segments of the component containing node id
// in chronological (increasing time) order.
//
// Implementation:
//   - Stage 1: start with the node; walk forward then backward in time.
//   - Stage 2: at each node take the live segment whose TOF sign continues the
//     direction; append (forward) or prepend (backward) it and its far node.
//   - Stage 3: at an open end follow the segment-to-segment edge, if any, and
//     splice in the linked component sorted from that segment's origin.
//
// Visited pieces are never revisited, so cycles terminate.
//
// Errors: ErrIDOutOfRange, ErrNodeDeleted.
// Complexity: O(#nodes + #segments).
func (a *Arcset) SortFrom(id int) ([]Piece, error) {
	if _, err := a.liveNodeIx(id); err != nil {
		return nil, arcErrorf(opSort, err)
	}

	return a.sortFrom(id, make(map[Piece]bool)), nil
}

func (a *Arcset) sortFrom(startID int, visited map[Piece]bool) []Piece {
	start := Piece{Kind: PieceNode, ID: startID}
	pieces := []Piece{start}
	visited[start] = true

	for _, dir := range [2]int{1, -1} {
		nodeID := startID
		walking := true
		for walking {
			walking = false
			for _, sid := range a.nodes[a.nodeIx[nodeID]].links {
				if sid == InvalidID || a.segIx[sid] == InvalidID {
					continue
				}
				seg := a.segs[a.segIx[sid]]
				sp := Piece{Kind: PieceSeg, ID: sid}
				if visited[sp] || !seg.continues(nodeID, dir) {
					continue
				}
				visited[sp] = true
				pieces = place(pieces, dir, sp)

				next := seg.otherEnd(nodeID)
				if next != InvalidID {
					np := Piece{Kind: PieceNode, ID: next}
					if !visited[np] {
						visited[np] = true
						pieces = place(pieces, dir, np)
						nodeID = next
						walking = true
					}
					break
				}

				// Open end: splice in whatever is joined to it.
				if seg.segLink != InvalidID && a.segIx[seg.segLink] != InvalidID && !visited[Piece{Kind: PieceSeg, ID: seg.segLink}] {
					origin := a.segs[a.segIx[seg.segLink]].Origin()
					if origin != InvalidID && a.nodeIx[origin] != InvalidID && !visited[Piece{Kind: PieceNode, ID: origin}] {
						section := a.sortFrom(origin, visited)
						pieces = place(pieces, dir, section...)
					}
				}
				break
			}
		}
	}

	return pieces
}

// place appends (dir > 0) or prepends (dir < 0) ps to pieces.
func place(pieces []Piece, dir int, ps ...Piece) []Piece {
	if dir > 0 {
		return append(pieces, ps...)
	}

	return append(append(make([]Piece, 0, len(pieces)+len(ps)), ps...), pieces...)
}

// ChronoOrder lists every node and segment chronologically, starting from the
// first node in storage.
//
// Errors: ErrNotChronological when the walk does not reach exactly
// #nodes + #segments pieces (disconnected or partially detached graph); the
// partial listing is still returned.
func (a *Arcset) ChronoOrder() ([]Piece, error) {
	if len(a.nodes) == 0 {
		return nil, nil
	}
	pieces := a.sortFrom(a.nodes[0].id, make(map[Piece]bool))
	if len(pieces) != len(a.nodes)+len(a.segs) {
		return pieces, arcErrorf(opSort, fmt.Errorf("%d pieces for %d nodes and %d segments: %w",
			len(pieces), len(a.nodes), len(a.segs), ErrNotChronological))
	}

	return pieces, nil
}

// PutInChronoOrder reorders storage (not IDs) to match ChronoOrder.
// Nothing is changed when the traversal does not cover every piece.
func (a *Arcset) PutInChronoOrder() error {
	pieces, err := a.ChronoOrder()
	if err != nil {
		return arcErrorf(opChrono, err)
	}
	nodes := make([]Node, 0, len(a.nodes))
	segs := make([]Segment, 0, len(a.segs))
	for _, p := range pieces {
		if p.Kind == PieceNode {
			nodes = append(nodes, a.nodes[a.nodeIx[p.ID]])
			a.nodeIx[p.ID] = len(nodes) - 1
		} else {
			segs = append(segs, a.segs[a.segIx[p.ID]])
			a.segIx[p.ID] = len(segs) - 1
		}
	}
	a.nodes, a.segs = nodes, segs

	return nil
}

// UpdateEpochs sets node id's epoch and assigns consistent epochs to every
// node reachable from it chronologically. Each segment advances (forward in
// the listing) or rewinds (backward) the clock by |TOF|.
// Epochs past a segment-to-segment link are not reliable: the linked
// segment's origin is dated from the previous node, not from the shared
// open end.
//
// Errors: ErrIDOutOfRange, ErrNodeDeleted.
func (a *Arcset) UpdateEpochs(id int, epoch float64) error {
	pieces, err := a.SortFrom(id)
	if err != nil {
		return arcErrorf(opUpdateEpochs, err)
	}
	a.nodes[a.nodeIx[id]].Epoch = epoch

	var k int
	for k = range pieces {
		if pieces[k].Kind == PieceNode && pieces[k].ID == id {
			break
		}
	}
	var i int
	var elapsed float64
	for _, dir := range [2]int{1, -1} {
		elapsed = 0
		for i = k + dir; i >= 0 && i < len(pieces); i += dir {
			if pieces[i].Kind == PieceSeg {
				elapsed += float64(dir) * math.Abs(a.segs[a.segIx[pieces[i].ID]].TOF)
				continue
			}
			a.nodes[a.nodeIx[pieces[i].ID]].Epoch = epoch + elapsed
		}
	}

	return nil
}
