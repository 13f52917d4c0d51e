// Package harness runs weak-convergence scenarios end to end.
//
// A scenario names a limit measure on [0,1], a measure sequence and the
// sets to reason about. The harness builds the problem, derives the
// Liminf, Limsup and Pointwise witnesses, records them in a ledger and
// evaluates the scenario's assertions.
//
// # Scenario Format
//
// Scenarios are YAML (or CUE, via the compiler package):
//
//	name: blend_to_uniform
//	description: "A Dirac blend settles on the uniform law"
//	limit: {kind: uniform}
//	sequence:
//	  head:
//	    - {kind: dirac, at: "0"}
//	  cycle:
//	    - kind: blend
//	      from: {kind: dirac, at: "0.9"}
//	      to: {kind: uniform}
//	sets: ["[0,0.5]"]
//	assertions:
//	  - {type: pointwise_limit, set: "[0,0.5]", value: "0.5"}
//	  - {type: round_trip}
//
// Decimals are strings. Sets use the interval syntax
// "[0,0.5) u {0.7} u (0.8,1]", "empty" and "all".
//
// # Measures
//
//   - uniform: Lebesgue measure on [0,1]
//   - uniform_on: normalized Lebesgue measure on [a,b]
//   - dirac: unit point mass at "at"
//   - atoms: finitely many weighted points
//   - mixture: weighted parts, each itself a measure
//
// # Paths
//
//   - steady: the same measure at every step
//   - blend: to + (from - to)/(k+1)
//   - drift: Dirac at at + offset/(k+1)
//
// # Assertion Types
//
//   - liminf_holds, limsup_holds: the one-sided criterion holds on set
//   - pointwise_limit: mu_n(set) converges to mu(set) (optionally = value)
//   - continuity, not_continuity: whether the limit charges set's frontier
//   - mass: mu(set) = value
//   - round_trip: Liminf -> Limsup -> Liminf reproduces the derived witness,
//     and every stored payload still hashes to its id
//   - violation: checking kind on set fails, optionally with code
//
// # Deterministic Testing
//
// Each run uses a fresh in-memory ledger, a testutil.DeterministicClock and
// a testutil.FixedIDGenerator seeded from run_id, so stored witnesses are
// identical across runs and can be compared with golden files.
package harness
