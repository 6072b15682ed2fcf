package corrector

import (
	"fmt"

	"github.com/katalvlaran/lvlarc/matrix"
)

// solveStep returns ΔX with DF·ΔX = −F: LU for a square DF, the minimum-norm
// update when DF has fewer rows than columns.
func solveStep(rows, cols int, df []matrix.Triplet, f []float64) ([]float64, error) {
	a, err := matrix.Assemble(rows, cols, df)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSingularSystem, err)
	}
	rhs := make([]float64, len(f))
	var i int
	for i = range f {
		rhs[i] = -f[i]
	}

	var dx []float64
	if rows == cols {
		dx, err = matrix.Solve(a, rhs)
	} else {
		dx, err = matrix.SolveMinNorm(a, rhs)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSingularSystem, err)
	}

	return dx, nil
}
