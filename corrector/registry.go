package corrector

import (
	"github.com/katalvlaran/lvlarc/constraint"
	"github.com/katalvlaran/lvlarc/matrix"
)

// Target is one constraint instance being evaluated.
//   - Con is the constraint as stored (or auto-generated).
//   - SlackCol is the column of its slack variable, -1 for equalities.
type Target struct {
	Con      constraint.Constraint
	SlackCol int
}

// Contribution holds the rows one constraint adds to F and DF.
// F is indexed by local row; DF triplets use local rows and absolute columns.
type Contribution struct {
	F  []float64
	DF []matrix.Triplet
}

// NewContribution allocates n zero rows.
func NewContribution(n int) Contribution {
	return Contribution{F: make([]float64, n)}
}

// Add records ∂F[row]/∂X[col] += v. Columns of held variables (col < 0) and
// zero entries are skipped.
func (c *Contribution) Add(row, col int, v float64) {
	if col < 0 || v == 0 {
		return
	}
	c.DF = append(c.DF, matrix.Triplet{Row: row, Col: col, Val: v})
}

// Handler evaluates one constraint type.
//
//   - Rows returns the fixed number of rows (0 allowed).
//   - Margin, when non-nil, marks an inequality: it returns how far the
//     constraint is from its bound (≥ 0 when satisfied) so the slack variable
//     can start at √margin. Eval must then use the slack column in Target.
//   - Eval computes the rows at the snapshot.
type Handler struct {
	Rows   func(c constraint.Constraint) int
	Margin func(ev *Eval, c constraint.Constraint) (float64, error)
	Eval   func(ev *Eval, t Target) (Contribution, error)
}

// Registry maps constraint types to their handlers.
type Registry map[constraint.Type]Handler

// With returns a new registry holding r overlaid by other.
func (r Registry) With(other Registry) Registry {
	out := make(Registry, len(r)+len(other))
	for t, h := range r {
		out[t] = h
	}
	for t, h := range other {
		out[t] = h
	}

	return out
}

// Supports reports whether t has a handler.
func (r Registry) Supports(t constraint.Type) bool {
	_, ok := r[t]

	return ok
}

// RowsFixed returns a Rows function for a constant row count.
func RowsFixed(n int) func(constraint.Constraint) int {
	return func(constraint.Constraint) int { return n }
}

// rowsConstrained counts the non-NaN data entries.
func rowsConstrained(c constraint.Constraint) int { return c.CountConstrained() }
