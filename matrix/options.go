// SPDX-License-Identifier: MIT

// Package matrix: numeric policy defaults (single source of truth).
package matrix

// Numeric policy.
const (
	// DefaultValidateNaNInf toggles strict finite-value validation on Set.
	DefaultValidateNaNInf = true

	// DefaultPivotTol is the relative singularity threshold used by the pivoted LU:
	// a pivot with |p| <= DefaultPivotTol * max|A| is treated as zero.
	DefaultPivotTol = 1e-14
)
