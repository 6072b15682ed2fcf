// SPDX-License-Identifier: MIT

// Package constraint defines the declarative conditions a multiple-shooting
// corrector drives to zero: a closed set of types, a scope derived from the
// type (node, segment or whole arc), a target ID and a data vector in which
// NaN entries mean "leave this component free".
//
// Constraints are plain values. The arc graph stores them on the entity they
// target; the corrector reads them and never mutates them.
//
// Errors:
//   - ErrUnknownType: a type name that is not part of the closed set.
package constraint
