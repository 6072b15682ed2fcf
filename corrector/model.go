package corrector

import "context"

// PropagationRequest asks for one arc. A negative TOF propagates in reverse time.
type PropagationRequest struct {
	State []float64
	Epoch float64
	TOF   float64
}

// PropagationResult is what the corrector needs back from one arc.
//
//   - FinalState:    state at Epoch+TOF (at least arcset.StateDim entries).
//   - FinalDeriv:    time derivative of FinalState (TOF partials).
//   - STM:           row-major 6×6 ∂FinalState/∂State.
//   - EpochPartials: ∂FinalState/∂Epoch; nil for autonomous models.
//   - Times/States:  raw trace, copied onto the output segment.
type PropagationResult struct {
	FinalState    []float64
	FinalDeriv    []float64
	STM           []float64
	EpochPartials []float64
	Times         []float64
	States        [][]float64
}

// Propagator integrates one arc. Implementations must be safe for concurrent
// use when Correct runs with Parallelism > 1.
type Propagator interface {
	Propagate(ctx context.Context, req PropagationRequest) (PropagationResult, error)
}

// PrimaryState is the position, velocity and acceleration of a primary body.
type PrimaryState struct {
	Pos, Vel, Acc [3]float64
}

// Model is the dynamical-system collaborator.
//
//   - Name must equal the arcset's System.
//   - Autonomous models have no epoch variables; EPOCH, CONT_EX, SEG_CONT_EX
//     and RM_EPOCH are unsupported for them. For the others the node epoch is
//     the only extra continuity variable.
//   - Handlers supplies evaluators for the constraint types the core does not
//     define; a type absent from both is unsupported.
//   - Primary looks up primary body ix at an epoch for distance/apse handlers.
type Model interface {
	Name() string
	Autonomous() bool
	Propagator() Propagator
	Handlers() Registry
	Primary(ix int, epoch float64) (PrimaryState, error)
}
