package dynamics

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/lvlarc/arcset"
	"github.com/katalvlaran/lvlarc/corrector"
)

// TwoBodyName is the system name of the two-body model.
const TwoBodyName = "two-body"

// Integration defaults.
const (
	DefaultMaxStep  = 1e-2
	defaultMinSteps = 16

	// augmented state: 6 state entries followed by the row-major 6×6 STM.
	augDim = arcset.StateDim + arcset.STMSize
)

// TwoBody is Keplerian motion about a fixed body at the origin with
// gravitational parameter mu. Primary 0 is that body. Autonomous.
type TwoBody struct {
	mu      float64
	maxStep float64
}

// TwoBodyOption configures a TwoBody model.
type TwoBodyOption func(*TwoBody)

// WithMaxStep bounds the RK4 step length. Panics if h is not positive.
func WithMaxStep(h float64) TwoBodyOption {
	if !(h > 0) || math.IsInf(h, 0) {
		panic(fmt.Sprintf("dynamics: WithMaxStep(%g): step must be positive and finite", h))
	}

	return func(m *TwoBody) { m.maxStep = h }
}

// NewTwoBody returns a two-body model. Panics if mu is not positive.
func NewTwoBody(mu float64, opts ...TwoBodyOption) *TwoBody {
	if !(mu > 0) || math.IsInf(mu, 0) {
		panic(fmt.Sprintf("dynamics: NewTwoBody(%g): mu must be positive and finite", mu))
	}
	m := &TwoBody{mu: mu, maxStep: DefaultMaxStep}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Name returns "two-body".
func (m *TwoBody) Name() string { return TwoBodyName }

// Autonomous is always true.
func (m *TwoBody) Autonomous() bool { return true }

// Propagator returns the model itself.
func (m *TwoBody) Propagator() corrector.Propagator { return m }

// Handlers returns the primary-relative constraint handlers.
func (m *TwoBody) Handlers() corrector.Registry { return PrimaryHandlers() }

// Primary returns the fixed central body for ix == 0.
func (m *TwoBody) Primary(ix int, _ float64) (corrector.PrimaryState, error) {
	if ix != 0 {
		return corrector.PrimaryState{}, fmt.Errorf("%w: %d of 1", ErrUnknownPrimary, ix)
	}

	return corrector.PrimaryState{}, nil
}

// deriv writes the time derivative of the augmented state y into dy:
// ṙ = v, v̇ = −μ r/|r|³, Φ̇ = A Φ with A = [[0, I], [G, 0]].
func (m *TwoBody) deriv(y, dy []float64) error {
	const n = arcset.StateDim
	r := math.Sqrt(y[0]*y[0] + y[1]*y[1] + y[2]*y[2])
	if r == 0 {
		return ErrSingularity
	}
	r3 := r * r * r
	r5 := r3 * r * r

	var g [3][3]float64
	var i, j, k int
	for i = 0; i < 3; i++ {
		dy[i] = y[3+i]
		dy[3+i] = -m.mu * y[i] / r3
		for j = 0; j < 3; j++ {
			g[i][j] = 3 * m.mu * y[i] * y[j] / r5
		}
		g[i][i] -= m.mu / r3
	}

	phi := y[n:]
	dphi := dy[n:]
	for j = 0; j < n; j++ {
		for i = 0; i < 3; i++ {
			dphi[i*n+j] = phi[(3+i)*n+j]
			var acc float64
			for k = 0; k < 3; k++ {
				acc += g[i][k] * phi[k*n+j]
			}
			dphi[(3+i)*n+j] = acc
		}
	}

	return nil
}

// Propagate integrates the state and STM with fixed-step RK4.
func (m *TwoBody) Propagate(ctx context.Context, req corrector.PropagationRequest) (corrector.PropagationResult, error) {
	const n = arcset.StateDim
	if len(req.State) != n {
		return corrector.PropagationResult{}, fmt.Errorf("%w: got %d", ErrBadState, len(req.State))
	}
	steps := int(math.Ceil(math.Abs(req.TOF) / m.maxStep))
	if steps < defaultMinSteps {
		steps = defaultMinSteps
	}
	h := req.TOF / float64(steps)

	y := make([]float64, augDim)
	copy(y, req.State)
	var i int
	for i = 0; i < n; i++ {
		y[n+i*n+i] = 1
	}

	res := corrector.PropagationResult{
		Times:  []float64{req.Epoch},
		States: [][]float64{append([]float64(nil), req.State...)},
	}
	k1 := make([]float64, augDim)
	k2 := make([]float64, augDim)
	k3 := make([]float64, augDim)
	k4 := make([]float64, augDim)
	tmp := make([]float64, augDim)
	stage := func(k, base []float64, scale float64) error {
		var j int
		for j = range tmp {
			tmp[j] = y[j] + scale*base[j]
		}

		return m.deriv(tmp, k)
	}

	var s, j int
	for s = 0; s < steps; s++ {
		if err := ctx.Err(); err != nil {
			return corrector.PropagationResult{}, err
		}
		if err := m.deriv(y, k1); err != nil {
			return corrector.PropagationResult{}, err
		}
		if err := stage(k2, k1, h/2); err != nil {
			return corrector.PropagationResult{}, err
		}
		if err := stage(k3, k2, h/2); err != nil {
			return corrector.PropagationResult{}, err
		}
		if err := stage(k4, k3, h); err != nil {
			return corrector.PropagationResult{}, err
		}
		for j = range y {
			y[j] += h / 6 * (k1[j] + 2*k2[j] + 2*k3[j] + k4[j])
		}
		res.Times = append(res.Times, req.Epoch+h*float64(s+1))
		res.States = append(res.States, append([]float64(nil), y[:n]...))
	}

	res.FinalState = append([]float64(nil), y[:n]...)
	res.STM = append([]float64(nil), y[n:]...)
	res.FinalDeriv = make([]float64, augDim)
	if err := m.deriv(y, res.FinalDeriv); err != nil {
		return corrector.PropagationResult{}, err
	}
	res.FinalDeriv = res.FinalDeriv[:n]

	return res, nil
}
