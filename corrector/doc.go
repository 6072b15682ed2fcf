// Package corrector implements multiple-shooting differential correction of
// an arcset: every node state, segment time-of-flight and (for time-dependent
// models) node epoch becomes an entry of a free-variable vector X, every
// constraint contributes rows to a residual F(X), and Newton iterations drive
// ‖F‖ below a tolerance.
//
// Pipeline of one Correct call:
//
//	1. Variable map:  node states, then segment TOFs (by TOF mode), then node
//	                  epochs (non-autonomous models only); RM_STATE, RM_EPOCH
//	                  and RM_TOF hold the matching variable fixed.
//	2. Constraints:   auto-generated CONT_PV per segment ending at a node,
//	                  CONT_EX per such segment for non-autonomous models, then
//	                  node, segment and arc constraints, then SEG_CONT_PV (and
//	                  SEG_CONT_EX) for every segment-to-segment link.
//	3. Slack:         MIN_DIST, MAX_DIST and MAX_DELTA_V append one slack
//	                  variable each after the primary variables; its starting
//	                  value zeroes the row when the inequality already holds.
//	4. Newton loop:   propagate every segment, evaluate F and DF, stop when
//	                  ‖F‖ < tol, otherwise solve DF·ΔX = −F (square: LU;
//	                  fewer rows than columns: minimum-norm) and update X.
//	5. Output:        a new arcset with fresh IDs, the corrected values, the
//	                  propagated STMs and traces, and every constraint copied.
//
// Constraint evaluation is table driven: a Registry maps each constraint type
// to a Handler. CoreRegistry covers continuity, state, match, epoch, TOF and
// delta-V types; a Model contributes handlers for the types that need its
// dynamics (distance, apse, ...). Handlers receive an immutable per-iteration
// Eval snapshot and return their rows as a Contribution.
//
// Errors (sentinel):
//
//	ErrUnsupportedConstraint – a type without a handler, or one the model/mode cannot host.
//	ErrDuplicateSingleton    – a second TOF_TOTAL or delta-V constraint (wraps ErrUnsupportedConstraint).
//	ErrSingularSystem        – the Newton step's linear solve failed.
//	ErrOverConstrained       – more rows than free variables (wraps ErrSingularSystem).
//	ErrDiverged              – the iteration budget ran out (unless WithAllowDivergence).
//	ErrSystemMismatch        – the model is not the arcset's dynamical system.
//	ErrInvalidArcset         – a segment without an origin, or a malformed node state.
//	ErrInvalidPropagation    – the Propagator returned too few entries.
//
// Propagation errors from the Model are wrapped with the segment ID and
// returned; errors.Is still reaches the collaborator's own sentinels.
//
// Example usage:
//
//	res, err := corrector.Correct(ctx, set, dynamics.NewDrift(),
//	    corrector.WithTOFMode(corrector.TOFFree),
//	    corrector.WithMaxIterations(30),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Status, res.Iterations, res.Arcset.TotalTOF())
package corrector
