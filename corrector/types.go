package corrector

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/katalvlaran/lvlarc/arcset"
)

// Sentinel errors returned by Correct.
var (
	// ErrUnsupportedConstraint indicates a constraint type with no handler, or
	// one that the model or TOF mode cannot host. Raised before any propagation.
	ErrUnsupportedConstraint = errors.New("corrector: unsupported constraint")

	// ErrDuplicateSingleton indicates a second TOF_TOTAL, or a second DELTA_V/MAX_DELTA_V.
	ErrDuplicateSingleton = fmt.Errorf("%w: duplicate singleton", ErrUnsupportedConstraint)

	// ErrSingularSystem indicates the Newton update could not be solved.
	ErrSingularSystem = errors.New("corrector: singular system")

	// ErrOverConstrained indicates more constraint rows than free variables.
	ErrOverConstrained = fmt.Errorf("%w: more constraint rows than free variables", ErrSingularSystem)

	// ErrDiverged indicates the iteration budget ran out above tolerance.
	ErrDiverged = errors.New("corrector: did not converge")

	// ErrSystemMismatch indicates a model whose name differs from the arcset's system.
	ErrSystemMismatch = fmt.Errorf("corrector: %w", arcset.ErrSystemMismatch)

	// ErrInvalidArcset indicates an arcset the corrector cannot map onto free variables.
	ErrInvalidArcset = fmt.Errorf("corrector: %w", arcset.ErrStructural)

	// ErrInvalidPropagation indicates a propagation result missing required entries.
	ErrInvalidPropagation = errors.New("corrector: malformed propagation result")

	// ErrNilModel indicates a nil Model.
	ErrNilModel = errors.New("corrector: model is nil")
)

// TOFMode selects how segment times-of-flight enter the free-variable vector.
type TOFMode int

const (
	// TOFFree makes every segment TOF a free variable (the default).
	TOFFree TOFMode = iota

	// TOFFixed holds every TOF at its input value.
	TOFFixed

	// TOFFixedSign frees the magnitude only: tof = sign·x², sign taken from the input.
	TOFFixedSign

	// TOFEqualArc uses one shared total T; every segment flies T/N.
	TOFEqualArc
)

var tofModeNames = [...]string{
	TOFFree:      "FREE",
	TOFFixed:     "FIXED",
	TOFFixedSign: "FIXED_SIGN",
	TOFEqualArc:  "EQUAL_ARC",
}

// String returns the canonical upper-case name.
func (m TOFMode) String() string {
	if m < 0 || int(m) >= len(tofModeNames) {
		return fmt.Sprintf("TOFMode(%d)", int(m))
	}

	return tofModeNames[m]
}

// ParseTOFMode maps a canonical name (case-insensitive) to its TOFMode.
func ParseTOFMode(s string) (TOFMode, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	var i int
	for i = range tofModeNames {
		if tofModeNames[i] == name {
			return TOFMode(i), nil
		}
	}

	return TOFFree, fmt.Errorf("corrector: unknown TOF mode %q", s)
}

// Status is the terminal state of a correction.
type Status int

const (
	Converged Status = iota
	Diverged
)

// String returns "converged" or "diverged".
func (s Status) String() string {
	if s == Converged {
		return "converged"
	}

	return "diverged"
}

// Defaults used by DefaultOptions.
const (
	DefaultMaxIterations = 20
	DefaultParallelism   = 1

	// initialSlack is the slack value used when an inequality starts violated.
	initialSlack = 1e-4
)

// Options configures Correct.
//
// Tolerance        – convergence threshold on ‖F‖; 0 means use the arcset's tolerance.
// MaxIterations    – number of F evaluations before giving up (≥ 1).
// TOFMode          – how segment TOFs are freed.
// AllowDivergence  – return the best iterate with Status Diverged instead of ErrDiverged.
// Parallelism      – maximum number of segments propagated concurrently (≥ 1).
// Logger           – structured logger; defaults to a discarding logger.
// Registry         – extra or overriding constraint handlers.
type Options struct {
	Tolerance       float64
	MaxIterations   int
	TOFMode         TOFMode
	AllowDivergence bool
	Parallelism     int
	Logger          *slog.Logger
	Registry        Registry
}

// Option represents a functional option for configuring Correct.
type Option func(*Options)

// DefaultOptions returns the settings used when no Option is given.
func DefaultOptions() Options {
	return Options{
		MaxIterations: DefaultMaxIterations,
		TOFMode:       TOFFree,
		Parallelism:   DefaultParallelism,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithTolerance sets the convergence threshold on ‖F‖.
// Panics if tol is not positive and finite.
func WithTolerance(tol float64) Option {
	if !(tol > 0) || math.IsInf(tol, 0) {
		panic(fmt.Sprintf("corrector: WithTolerance(%g): tolerance must be positive and finite", tol))
	}

	return func(o *Options) { o.Tolerance = tol }
}

// WithMaxIterations sets the iteration budget. Panics if n < 1.
func WithMaxIterations(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("corrector: WithMaxIterations(%d): need at least one iteration", n))
	}

	return func(o *Options) { o.MaxIterations = n }
}

// WithTOFMode selects how segment TOFs are freed. Panics on an unknown mode.
func WithTOFMode(m TOFMode) Option {
	if m < 0 || int(m) >= len(tofModeNames) {
		panic(fmt.Sprintf("corrector: WithTOFMode(%d): unknown mode", int(m)))
	}

	return func(o *Options) { o.TOFMode = m }
}

// WithAllowDivergence opts in to receiving the best iterate when the budget
// runs out; Result.Status is then Diverged and no error is returned.
func WithAllowDivergence() Option {
	return func(o *Options) { o.AllowDivergence = true }
}

// WithParallelism bounds concurrent segment propagation. Panics if n < 1.
func WithParallelism(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("corrector: WithParallelism(%d): need at least one worker", n))
	}

	return func(o *Options) { o.Parallelism = n }
}

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithRegistry adds handlers that take precedence over the core and model ones.
func WithRegistry(r Registry) Option {
	return func(o *Options) { o.Registry = r }
}

// Iteration records one Newton iteration.
type Iteration struct {
	Index    int     // 1-based
	ErrNorm  float64 // ‖F‖ at the iterate
	StepNorm float64 // ‖ΔX‖ applied after evaluation; 0 on the final iteration
}

// Result is the outcome of Correct.
type Result struct {
	Status     Status
	Arcset     *arcset.Arcset // corrected arcset with fresh IDs
	X          []float64      // free variables of the returned iterate (slack last)
	F          []float64      // residual at X
	ErrNorm    float64        // ‖F‖
	Iterations int
	Rows, Cols int // size of DF
	History    []Iteration
	RunID      string
}
