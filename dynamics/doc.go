// Package dynamics provides reference dynamical models for the corrector:
//
//   - Drift ("drift"): free motion under an optional time-linear forcing
//     a(t) = g·t. Closed-form propagation, STM and epoch partials; autonomous
//     exactly when g is zero. Primaries move on straight lines.
//   - TwoBody ("two-body"): Keplerian motion about a fixed central body,
//     integrated with fixed-step RK4 together with the variational equations.
//
// Both models register handlers for the primary-relative constraint types
// (DIST, MIN_DIST, MAX_DIST, APSE) through PrimaryHandlers.
//
// Errors (sentinel):
//
//	ErrBadState       – a propagation request whose state is not 6 entries long.
//	ErrUnknownPrimary – a primary index the model does not define.
//	ErrSingularity    – the two-body integrator reached the central body.
//
// Example usage:
//
//	m := dynamics.NewDrift(dynamics.WithForcing([3]float64{0, 0, -1e-3}))
//	res, err := corrector.Correct(ctx, set, m)
package dynamics
