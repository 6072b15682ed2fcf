package corrector

import (
	"fmt"

	"github.com/katalvlaran/lvlarc/arcset"
)

// output builds the corrected arcset at the iterate ev: fresh IDs in the
// input's storage order, corrected states, epochs and TOFs, the propagated
// STM and trace per segment, and every stored constraint remapped.
func (p *problem) output(ev *Eval, system string, tol float64) (*arcset.Arcset, error) {
	out := arcset.New(system, arcset.WithTolerance(tol))
	nodeMap := make(map[int]int, len(p.nodes))
	segMap := make(map[int]int, len(p.segs))
	var i int
	for i = range p.nodes {
		nodeMap[p.nodes[i].ID()] = i
	}
	for i = range p.segs {
		segMap[p.segs[i].ID()] = i
	}

	epochs, err := p.epochs(ev)
	if err != nil {
		return nil, err
	}
	for _, n := range p.nodes {
		v, err := ev.Node(n.ID())
		if err != nil {
			return nil, err
		}
		nn := arcset.NewNode(v.State, epochs[n.ID()])
		nn.Extra = n.Extra
		for _, c := range n.Constraints() {
			nn.AddConstraint(c.Remap(nodeMap, segMap))
		}
		out.AddNode(nn)
	}

	for _, s := range p.segs {
		v, err := ev.Seg(s.ID())
		if err != nil {
			return nil, err
		}
		term := arcset.InvalidID
		if s.Terminus() != arcset.InvalidID {
			term = nodeMap[s.Terminus()]
		}
		ns := arcset.NewSegment(nodeMap[s.Origin()], term, v.TOF)
		ns.VelCon = s.VelCon
		ns.STM = append([]float64(nil), v.Prop.STM...)
		ns.Times = append([]float64(nil), v.Prop.Times...)
		ns.States = make([][]float64, len(v.Prop.States))
		for i = range v.Prop.States {
			ns.States[i] = append([]float64(nil), v.Prop.States[i]...)
		}
		for _, c := range s.Constraints() {
			ns.AddConstraint(c.Remap(nodeMap, segMap))
		}
		id, err := out.AddSeg(ns)
		if err != nil {
			return nil, fmt.Errorf("corrector: rebuild segment %d: %w", s.ID(), err)
		}
		if id == arcset.InvalidID {
			return nil, fmt.Errorf("%w: segment %d could not be relinked", ErrInvalidArcset, s.ID())
		}
	}

	for _, s := range p.segs {
		if other := s.SegLink(); other != arcset.InvalidID && other > s.ID() {
			if err := out.LinkSegments(segMap[s.ID()], segMap[other]); err != nil {
				return nil, fmt.Errorf("corrector: relink segments %d and %d: %w", s.ID(), other, err)
			}
		}
	}
	for _, c := range p.arcCons {
		if err := out.AddConstraint(c.Remap(nodeMap, segMap)); err != nil {
			return nil, fmt.Errorf("corrector: copy %v: %w", c, err)
		}
	}

	return out, nil
}

// epochs returns every node's epoch at ev. Autonomous models carry no epoch
// variables, so there the epochs are re-derived from the first stored node
// through the corrected TOFs and segment links; nodes it cannot reach keep
// their input epoch.
func (p *problem) epochs(ev *Eval) (map[int]float64, error) {
	out := make(map[int]float64, len(p.nodes))
	for _, n := range p.nodes {
		v, err := ev.Node(n.ID())
		if err != nil {
			return nil, err
		}
		out[n.ID()] = v.Epoch
	}
	if !p.model.Autonomous() || len(p.nodes) == 0 {
		return out, nil
	}

	views := make([]SegView, len(p.segs))
	var i int
	for i = range p.segs {
		v, err := ev.Seg(p.segs[i].ID())
		if err != nil {
			return nil, err
		}
		views[i] = v
	}
	known := map[int]bool{p.nodes[0].ID(): true}
	for changed := true; changed; {
		changed = false
		for _, s := range views {
			switch {
			case s.Terminus == arcset.InvalidID:
			case known[s.Origin] && !known[s.Terminus]:
				out[s.Terminus] = out[s.Origin] + s.TOF
				known[s.Terminus], changed = true, true
			case known[s.Terminus] && !known[s.Origin]:
				out[s.Origin] = out[s.Terminus] - s.TOF
				known[s.Origin], changed = true, true
			}
			link := p.segs[p.segIx[s.ID]].SegLink()
			if link == arcset.InvalidID || !known[s.Origin] {
				continue
			}
			o := views[p.segIx[link]]
			if !known[o.Origin] {
				out[o.Origin] = out[s.Origin] + s.TOF - o.TOF
				known[o.Origin], changed = true, true
			}
		}
	}

	return out, nil
}
