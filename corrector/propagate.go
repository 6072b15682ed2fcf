// File: propagate.go
// Role: propagate every segment at one iterate and evaluate F and DF.
// Determinism:
//   - Each segment writes its own slot; F rows and DF triplets are emitted in
//     target order regardless of propagation order.
// Concurrency:
//   - Up to Options.Parallelism propagations run at once (errgroup); the first
//     error cancels the rest through the group context.

package corrector

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/lvlarc/arcset"
	"github.com/katalvlaran/lvlarc/matrix"
)

// propagate runs the model's propagator for every segment at x.
func (p *problem) propagate(ctx context.Context, x []float64) (*Eval, error) {
	ev := &Eval{p: p, x: x}
	out := make([]segState, len(p.segs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Parallelism)
	var i int
	for i = range p.segs {
		ix := i
		g.Go(func() error {
			st, err := p.propagateSeg(gctx, ev, p.segs[ix].ID())
			if err != nil {
				return fmt.Errorf("corrector: propagate segment %d: %w", p.segs[ix].ID(), err)
			}
			out[ix] = st

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ev.segs = out

	return ev, nil
}

func (p *problem) propagateSeg(ctx context.Context, ev *Eval, id int) (segState, error) {
	s, err := ev.Seg(id)
	if err != nil {
		return segState{}, err
	}
	o, err := ev.Node(s.Origin)
	if err != nil {
		return segState{}, err
	}
	res, err := p.prop.Propagate(ctx, PropagationRequest{State: o.State, Epoch: o.Epoch, TOF: s.TOF})
	if err != nil {
		return segState{}, err
	}
	s.Prop = res
	if err = checkProp(s, !p.model.Autonomous()); err != nil {
		return segState{}, err
	}

	st := segState{res: res}
	if s.Terminus == arcset.InvalidID {
		return st, nil
	}
	term, err := ev.Node(s.Terminus)
	if err != nil {
		return segState{}, err
	}
	var k int
	for k = 0; k < 3; k++ {
		if !s.VelCon[k] {
			st.dv[k] = res.FinalState[3+k] - term.State[3+k]
		}
	}

	return st, nil
}

// evaluate stacks every target's rows into F and DF triplets.
func (p *problem) evaluate(ev *Eval) ([]float64, []matrix.Triplet, error) {
	f := make([]float64, p.Rows())
	var df []matrix.Triplet
	var i int
	for i = range p.targets {
		t := p.targets[i]
		c, err := p.handlers[t.Con.Type].Eval(ev, t)
		if err != nil {
			return nil, nil, fmt.Errorf("corrector: evaluate %v: %w", t.Con, err)
		}
		want := p.rowOff[i+1] - p.rowOff[i]
		if len(c.F) != want {
			return nil, nil, fmt.Errorf("%w: %v produced %d rows, want %d", ErrUnsupportedConstraint, t.Con, len(c.F), want)
		}
		copy(f[p.rowOff[i]:], c.F)
		for _, tr := range c.DF {
			tr.Row += p.rowOff[i]
			df = append(df, tr)
		}
	}

	return f, df, nil
}

// initSlack sets each slack variable so its row starts at zero when the
// inequality already holds, and at initialSlack otherwise.
func (p *problem) initSlack(ev *Eval, x []float64) error {
	for _, t := range p.targets {
		if t.SlackCol < 0 {
			continue
		}
		m, err := p.handlers[t.Con.Type].Margin(ev, t.Con)
		if err != nil {
			return fmt.Errorf("corrector: margin of %v: %w", t.Con, err)
		}
		x[t.SlackCol] = initialSlack
		if m >= 0 {
			x[t.SlackCol] = math.Sqrt(m)
		}
	}

	return nil
}
