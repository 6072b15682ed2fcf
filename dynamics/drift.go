package dynamics

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/lvlarc/arcset"
	"github.com/katalvlaran/lvlarc/corrector"
)

// Sentinel errors for the reference models.
var (
	// ErrBadState indicates a state vector that is not arcset.StateDim long.
	ErrBadState = errors.New("dynamics: state must have 6 entries")

	// ErrUnknownPrimary indicates a primary index outside the model's bodies.
	ErrUnknownPrimary = errors.New("dynamics: unknown primary")

	// ErrSingularity indicates a state at the centre of a primary.
	ErrSingularity = errors.New("dynamics: state at a primary's centre")
)

// DriftName is the system name of the drift model.
const DriftName = "drift"

// defaultTraceSteps is the number of trace intervals per propagated arc.
const defaultTraceSteps = 8

// Drift is free motion under the time-linear forcing a(t) = g·t. It is
// immutable and safe for concurrent use.
type Drift struct {
	g         [3]float64
	primaries []corrector.PrimaryState
	steps     int
}

// DriftOption configures a Drift model.
type DriftOption func(*Drift)

// WithForcing sets g. A non-zero g makes the model time-dependent.
func WithForcing(g [3]float64) DriftOption {
	return func(d *Drift) { d.g = g }
}

// WithPrimary adds a body at pos (epoch 0) moving with constant vel.
// Primaries are indexed in the order they are added.
func WithPrimary(pos, vel [3]float64) DriftOption {
	return func(d *Drift) {
		d.primaries = append(d.primaries, corrector.PrimaryState{Pos: pos, Vel: vel})
	}
}

// WithTraceSteps sets how many intervals the recorded trace has. Panics if n < 1.
func WithTraceSteps(n int) DriftOption {
	if n < 1 {
		panic(fmt.Sprintf("dynamics: WithTraceSteps(%d): need at least one step", n))
	}

	return func(d *Drift) { d.steps = n }
}

// NewDrift returns a drift model with one primary at rest at the origin
// unless WithPrimary adds others.
func NewDrift(opts ...DriftOption) *Drift {
	d := &Drift{steps: defaultTraceSteps}
	for _, opt := range opts {
		opt(d)
	}
	if len(d.primaries) == 0 {
		d.primaries = []corrector.PrimaryState{{}}
	}

	return d
}

// Name returns "drift".
func (d *Drift) Name() string { return DriftName }

// Autonomous reports whether the forcing is zero.
func (d *Drift) Autonomous() bool { return d.g == [3]float64{} }

// Propagator returns the model itself.
func (d *Drift) Propagator() corrector.Propagator { return d }

// Handlers returns the primary-relative constraint handlers.
func (d *Drift) Handlers() corrector.Registry { return PrimaryHandlers() }

// Primary returns body ix at epoch.
func (d *Drift) Primary(ix int, epoch float64) (corrector.PrimaryState, error) {
	if ix < 0 || ix >= len(d.primaries) {
		return corrector.PrimaryState{}, fmt.Errorf("%w: %d of %d", ErrUnknownPrimary, ix, len(d.primaries))
	}
	p := d.primaries[ix]
	var k int
	for k = 0; k < 3; k++ {
		p.Pos[k] += p.Vel[k] * epoch
	}

	return p, nil
}

// at returns the state τ after epoch t0.
func (d *Drift) at(x0 []float64, t0, tau float64) []float64 {
	out := make([]float64, arcset.StateDim)
	var k int
	for k = 0; k < 3; k++ {
		out[k] = x0[k] + x0[3+k]*tau + d.g[k]*(t0*tau*tau/2+tau*tau*tau/6)
		out[3+k] = x0[3+k] + d.g[k]*(t0*tau+tau*tau/2)
	}

	return out
}

// Propagate evaluates the closed-form solution.
func (d *Drift) Propagate(ctx context.Context, req corrector.PropagationRequest) (corrector.PropagationResult, error) {
	if err := ctx.Err(); err != nil {
		return corrector.PropagationResult{}, err
	}
	if len(req.State) != arcset.StateDim {
		return corrector.PropagationResult{}, fmt.Errorf("%w: got %d", ErrBadState, len(req.State))
	}
	tau := req.TOF
	res := corrector.PropagationResult{
		FinalState:    d.at(req.State, req.Epoch, tau),
		FinalDeriv:    make([]float64, arcset.StateDim),
		STM:           make([]float64, arcset.STMSize),
		EpochPartials: make([]float64, arcset.StateDim),
	}
	var i, k int
	for k = 0; k < 3; k++ {
		res.FinalDeriv[k] = res.FinalState[3+k]
		res.FinalDeriv[3+k] = d.g[k] * (req.Epoch + tau)
		res.EpochPartials[k] = d.g[k] * tau * tau / 2
		res.EpochPartials[3+k] = d.g[k] * tau
	}
	for i = 0; i < arcset.StateDim; i++ {
		res.STM[i*arcset.StateDim+i] = 1
	}
	for k = 0; k < 3; k++ {
		res.STM[k*arcset.StateDim+3+k] = tau
	}

	res.Times = make([]float64, d.steps+1)
	res.States = make([][]float64, d.steps+1)
	for i = 0; i <= d.steps; i++ {
		dt := tau * float64(i) / float64(d.steps)
		res.Times[i] = req.Epoch + dt
		res.States[i] = d.at(req.State, req.Epoch, dt)
	}

	return res, nil
}
