package corrector

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlarc/arcset"
	"github.com/katalvlaran/lvlarc/constraint"
)

// problem is the fixed layout of one correction: a snapshot of the input
// arcset, the variable map, and the ordered constraint targets with their
// row offsets. Nothing in it changes across iterations.
type problem struct {
	model    Model
	prop     Propagator
	opts     Options
	handlers Registry

	nodes   []arcset.Node
	segs    []arcset.Segment
	nodeIx  map[int]int
	segIx   map[int]int
	arcCons []constraint.Constraint

	vars    *VarMap
	x0      []float64
	targets []Target
	rowOff  []int // rowOff[i] is the first row of targets[i]; len(targets)+1 entries
}

// Rows is the number of rows of F.
func (p *problem) Rows() int { return p.rowOff[len(p.rowOff)-1] }

// newProblem validates the inputs and lays out variables and rows.
//
// Implementation:
//   - Stage 1: model and system checks; index nodes and segments.
//   - Stage 2: free-variable map for the TOF mode and model autonomy.
//   - Stage 3: targets in evaluation order: auto CONT_PV (and CONT_EX),
//     node, segment and arc constraints, then auto SEG_CONT_PV (and SEG_CONT_EX).
//   - Stage 4: support checks, singletons, row offsets and slack columns.
//   - Stage 5: reject more rows than free variables.
func newProblem(set *arcset.Arcset, model Model, opts Options) (*problem, error) {
	if model == nil {
		return nil, ErrNilModel
	}
	if set == nil {
		return nil, fmt.Errorf("%w: arcset is nil", ErrInvalidArcset)
	}
	if model.Name() != set.System() {
		return nil, fmt.Errorf("%w: model %q, arcset %q", ErrSystemMismatch, model.Name(), set.System())
	}

	p := &problem{
		model:    model,
		prop:     model.Propagator(),
		opts:     opts,
		handlers: CoreRegistry().With(model.Handlers()).With(opts.Registry),
		nodes:    set.Nodes(),
		segs:     set.Segs(),
	}
	if p.prop == nil {
		return nil, fmt.Errorf("%w: model %q has no propagator", ErrNilModel, model.Name())
	}
	p.nodeIx = make(map[int]int, len(p.nodes))
	p.segIx = make(map[int]int, len(p.segs))
	var i int
	for i = range p.nodes {
		p.nodeIx[p.nodes[i].ID()] = i
	}
	for i = range p.segs {
		if _, ok := p.nodeIx[p.segs[i].Origin()]; !ok {
			return nil, fmt.Errorf("%w: segment %d has no origin", ErrInvalidArcset, p.segs[i].ID())
		}
		p.segIx[p.segs[i].ID()] = i
	}

	var err error
	if p.vars, p.x0, err = buildVarMap(p.nodes, p.segs, model.Autonomous(), opts.TOFMode); err != nil {
		return nil, err
	}

	p.arcCons = set.ArcConstraints()
	cons := p.collect(p.arcCons)
	if err = p.validate(cons); err != nil {
		return nil, err
	}
	p.layout(cons)

	if rows, cols := p.Rows(), p.vars.Len(); rows > cols {
		return nil, fmt.Errorf("%w: %d rows, %d free variables", ErrOverConstrained, rows, cols)
	}

	return p, nil
}

// collect assembles every constraint in evaluation order.
func (p *problem) collect(arcCons []constraint.Constraint) []constraint.Constraint {
	autonomous := p.model.Autonomous()
	var out []constraint.Constraint

	for _, s := range p.segs {
		if s.Terminus() == arcset.InvalidID {
			continue
		}
		out = append(out, contPV(s))
		if !autonomous {
			out = append(out, constraint.New(constraint.ContEx, s.ID(), 1))
		}
	}
	for _, n := range p.nodes {
		out = append(out, n.Constraints()...)
	}
	for _, s := range p.segs {
		out = append(out, s.Constraints()...)
	}
	out = append(out, arcCons...)

	for _, s := range p.segs {
		other := s.SegLink()
		if other == arcset.InvalidID || other < s.ID() {
			continue
		}
		if !linkedBy(out, constraint.SegContPV, s.ID(), other) {
			out = append(out, segContPV(s, p.segs[p.segIx[other]]))
		}
		if !autonomous && !linkedBy(out, constraint.SegContEx, s.ID(), other) {
			out = append(out, constraint.New(constraint.SegContEx, s.ID(), float64(other)))
		}
	}

	return out
}

// contPV constrains position always and velocity where the segment says so.
func contPV(s arcset.Segment) constraint.Constraint {
	data := []float64{1, 1, 1, math.NaN(), math.NaN(), math.NaN()}
	var k int
	for k = 0; k < 3; k++ {
		if s.VelCon[k] {
			data[3+k] = 1
		}
	}

	return constraint.New(constraint.ContPV, s.ID(), data...)
}

// segContPV joins two open ends; a velocity component is constrained only when
// both segments require it.
func segContPV(a, b arcset.Segment) constraint.Constraint {
	id := float64(b.ID())
	data := []float64{id, id, id, math.NaN(), math.NaN(), math.NaN()}
	var k int
	for k = 0; k < 3; k++ {
		if a.VelCon[k] && b.VelCon[k] {
			data[3+k] = id
		}
	}

	return constraint.New(constraint.SegContPV, a.ID(), data...)
}

// linkedBy reports whether an explicit constraint of type t already joins a and b.
func linkedBy(cons []constraint.Constraint, t constraint.Type, a, b int) bool {
	for _, c := range cons {
		if c.Type != t {
			continue
		}
		_, v, ok := c.FirstValue()
		if !ok {
			continue
		}
		if (c.ID == a && int(v) == b) || (c.ID == b && int(v) == a) {
			return true
		}
	}

	return false
}

// validate rejects constraints the registry, model or TOF mode cannot host.
func (p *problem) validate(cons []constraint.Constraint) error {
	autonomous := p.model.Autonomous()
	var tofTotal, deltaV int
	for _, c := range cons {
		if !p.handlers.Supports(c.Type) {
			return fmt.Errorf("%w: %v", ErrUnsupportedConstraint, c)
		}
		switch c.Type {
		case constraint.Epoch, constraint.ContEx, constraint.SegContEx, constraint.RmEpoch:
			if autonomous {
				return fmt.Errorf("%w: %v needs a time-dependent model, %q is autonomous",
					ErrUnsupportedConstraint, c, p.model.Name())
			}
		case constraint.TOFTotal:
			if p.opts.TOFMode == TOFFixed {
				return fmt.Errorf("%w: %v with every TOF fixed", ErrUnsupportedConstraint, c)
			}
			tofTotal++
		case constraint.DeltaV, constraint.MaxDeltaV:
			deltaV++
		}
	}
	if tofTotal > 1 {
		return fmt.Errorf("%w: %d TOF_TOTAL constraints", ErrDuplicateSingleton, tofTotal)
	}
	if deltaV > 1 {
		return fmt.Errorf("%w: %d DELTA_V/MAX_DELTA_V constraints", ErrDuplicateSingleton, deltaV)
	}

	return nil
}

// layout fixes row offsets and appends a slack column per inequality.
func (p *problem) layout(cons []constraint.Constraint) {
	p.targets = make([]Target, len(cons))
	p.rowOff = make([]int, len(cons)+1)
	var i int
	for i = range cons {
		h := p.handlers[cons[i].Type]
		p.targets[i] = Target{Con: cons[i], SlackCol: -1}
		if h.Margin != nil {
			p.targets[i].SlackCol = p.vars.addSlack(i)
		}
		p.rowOff[i+1] = p.rowOff[i] + h.Rows(cons[i])
	}
}
