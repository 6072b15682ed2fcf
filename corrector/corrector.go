package corrector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/katalvlaran/lvlarc/arcset"
	"github.com/katalvlaran/lvlarc/matrix"
)

// Correct runs multiple-shooting differential correction on set with the
// dynamics of model and returns the corrected copy. set is not modified.
//
// Implementation:
//   - Stage 1: lay out the problem (fails fast, before any propagation, on
//     unsupported or duplicate constraints and over-constrained systems).
//   - Stage 2: propagate at X0 and seed the slack variables.
//   - Stage 3: Newton loop. Each iteration propagates every segment,
//     evaluates F and DF, returns when ‖F‖ < tol, otherwise solves for ΔX.
//     The last iteration evaluates only.
//   - Stage 4: on success, or on divergence with WithAllowDivergence, build the
//     output arcset from the iterate with the smallest ‖F‖ seen.
//
// Errors: ErrNilModel, ErrSystemMismatch, ErrInvalidArcset,
// ErrUnsupportedConstraint, ErrDuplicateSingleton, ErrOverConstrained,
// ErrSingularSystem, ErrInvalidPropagation, ErrDiverged, the context's error,
// and wrapped propagation errors.
//
// Complexity: per iteration O(#segments) propagations plus a dense solve,
// O(rows²·cols).
func Correct(ctx context.Context, set *arcset.Arcset, model Model, opts ...Option) (*Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p, err := newProblem(set, model, o)
	if err != nil {
		return nil, err
	}
	tol := o.Tolerance
	if tol == 0 {
		tol = set.Tol()
	}

	runID := uuid.NewString()
	log := o.Logger.With(slog.String("run", runID), slog.String("system", model.Name()))
	rows, cols := p.Rows(), p.vars.Len()
	log.Debug("correction set up",
		slog.Int("rows", rows), slog.Int("cols", cols),
		slog.Int("slack", cols-p.vars.Primary()),
		slog.String("tof_mode", o.TOFMode.String()),
		slog.Float64("tol", tol))

	x := make([]float64, cols)
	copy(x, p.x0)
	ev, err := p.propagate(ctx, x)
	if err != nil {
		return nil, err
	}
	if err = p.initSlack(ev, x); err != nil {
		return nil, err
	}

	res := &Result{Rows: rows, Cols: cols, RunID: runID}
	var (
		bestEv   *Eval
		bestF    []float64
		bestNorm float64
		it       int
	)
	for it = 1; it <= o.MaxIterations; it++ {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("corrector: iteration %d: %w", it, err)
		}
		if it > 1 {
			if ev, err = p.propagate(ctx, x); err != nil {
				return nil, err
			}
		}
		f, df, err := p.evaluate(ev)
		if err != nil {
			return nil, err
		}
		norm := matrix.Norm2(f)
		rec := Iteration{Index: it, ErrNorm: norm}
		if bestEv == nil || norm < bestNorm {
			bestEv, bestF, bestNorm = ev, f, norm
		}
		res.Iterations = it

		if norm < tol {
			res.History = append(res.History, rec)
			log.Info("correction converged", slog.Int("iterations", it), slog.Float64("err", norm))

			return p.finish(res, Converged, ev, f, norm, set)
		}
		if it == o.MaxIterations {
			res.History = append(res.History, rec)
			break
		}

		dx, err := solveStep(rows, cols, df, f)
		if err != nil {
			return nil, fmt.Errorf("corrector: iteration %d: %w", it, err)
		}
		rec.StepNorm = matrix.Norm2(dx)
		res.History = append(res.History, rec)
		log.Debug("iteration", slog.Int("iter", it), slog.Float64("err", norm), slog.Float64("step", rec.StepNorm))

		next := make([]float64, cols)
		var i int
		for i = range x {
			next[i] = x[i] + dx[i]
		}
		x = next
	}

	log.Warn("correction diverged",
		slog.Int("iterations", res.Iterations),
		slog.Float64("best_err", bestNorm),
		slog.Float64("tol", tol))
	if !o.AllowDivergence {
		return nil, fmt.Errorf("%w: ‖F‖ = %g after %d iterations (tol %g)", ErrDiverged, bestNorm, res.Iterations, tol)
	}

	return p.finish(res, Diverged, bestEv, bestF, bestNorm, set)
}

// finish fills the result from the chosen iterate.
func (p *problem) finish(res *Result, st Status, ev *Eval, f []float64, norm float64, set *arcset.Arcset) (*Result, error) {
	out, err := p.output(ev, set.System(), set.Tol())
	if err != nil {
		return nil, err
	}
	res.Status = st
	res.Arcset = out
	res.X = append([]float64(nil), ev.x...)
	res.F = f
	res.ErrNorm = norm

	return res, nil
}
