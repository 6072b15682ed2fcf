package arcset

import (
	"fmt"
	"strings"
)

// String renders a storage-order listing for diagnostics and golden tests:
//
//	Arcset "drift" (2 nodes, 1 segments, tol 1e-12)
//	N0 epoch 0 state [1 0 0 0 1 0]
//	S0 N0 -> N1 tof 5
func (a *Arcset) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Arcset %q (%d nodes, %d segments, tol %g)\n", a.system, len(a.nodes), len(a.segs), a.tol)
	for _, n := range a.nodes {
		fmt.Fprintf(&b, "N%d epoch %g state %v", n.id, n.Epoch, n.State)
		for _, c := range n.cons {
			fmt.Fprintf(&b, " %v", c)
		}
		b.WriteString("\n")
	}
	for _, s := range a.segs {
		fmt.Fprintf(&b, "S%d N%d -> %s tof %g", s.id, s.Origin(), endName(s.Terminus()), s.TOF)
		if s.segLink != InvalidID {
			fmt.Fprintf(&b, " joined S%d", s.segLink)
		}
		for _, c := range s.cons {
			fmt.Fprintf(&b, " %v", c)
		}
		b.WriteString("\n")
	}
	for _, c := range a.cons {
		fmt.Fprintf(&b, "arc %v\n", c)
	}

	return b.String()
}

func endName(id int) string {
	if id == InvalidID {
		return "open"
	}

	return fmt.Sprintf("N%d", id)
}
