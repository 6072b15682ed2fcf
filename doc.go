// Package lvlarc models spacecraft trajectories as arcsets, graphs of state
// points (nodes) joined by propagated arcs (segments), and corrects them with
// a multiple-shooting Newton method until their constraints hold.
//
// What is inside
//
//	• Arc graph: nodes, segments, linking rules, chronological sorting,
//	  deletion with healing, concatenation and persisted tables
//	• Constraints: declarative conditions on nodes, segments or the whole set
//	• Corrector: free-variable vector, constraint vector, sparse Jacobian,
//	  minimum-norm Newton updates, TOF modes and slack variables
//	• Dynamics: a closed-form drift model and a two-body propagator
//
// Packages:
//
//	arcset/     - Node, Segment, Arcset and their graph operations
//	constraint/ - constraint types, scopes and conflict rules
//	corrector/  - multiple-shooting differential corrector (Correct)
//	dynamics/   - reference models and primary-relative constraint handlers
//	matrix/     - dense linear algebra used by the Newton step
//	config/     - viper-backed settings for the CLI
//	cmd/lvlarc/ - command-line front end (correct, inspect)
//
// Quick ASCII example:
//
//	N3 ◀──S2── N0 ──S0──▶ N1 ──S1──▶ N2
//
//	a forward chain from N0, extended into the past by S2 (negative TOF,
//	origin N0).
//
//	go get github.com/katalvlaran/lvlarc
package lvlarc
