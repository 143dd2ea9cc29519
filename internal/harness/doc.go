// Package harness provides conformance testing for the tether safe
// reference.
//
// The harness loads scenarios, executes their operation flows against
// real referents and real refs, and validates the resulting trace and
// final state. Fatal contract violations are first-class expected
// outcomes: a step may declare that it must crash, and with which
// code.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	objects:
//	  - id: x
//	    value: 1
//	    label: "widget-x"
//	flow:
//	  - op: ref
//	    object: x
//	    to: s
//	  - op: deref
//	    ref: s
//	    expect: { outcome: ok, same_as: x, value: 1 }
//	  - op: destroy
//	    object: x
//	  - op: deref
//	    ref: s
//	    expect: { outcome: fatal, code: STALE_USE }
//	assertions:
//	  - type: final_state
//	    where: { ref_id: s }
//	    expect: { outcome: fatal, code: STALE_USE }
//
// # Operations
//
//   - create: construct a referent mid-flow (objects are created up
//     front; create exists for referents born after the flow starts)
//   - destroy: run the referent's teardown path (factory invalidation)
//   - ref: mint a safe reference from an object's factory
//   - deref: dereference a ref, optionally checking address identity
//     (same_as) and the value read through it
//   - clone: checked copy of a ref into a new (or existing) name
//   - move: checked transfer; the source name becomes consumed
//   - upcast: converting clone or move to the referent's Plate view
//   - drop: release the ref's token handle
//
// Writing clone/move/upcast results `to` an existing name replaces
// that name's state wholesale, which is how assignment-over-stale
// scenarios are expressed.
//
// # Assertion Types
//
//   - trace_contains: an event with the given op/ref/outcome/code is
//     present (subset match)
//   - trace_order: ops appear in the given order (gaps allowed)
//   - trace_count: events matching op/outcome appear exactly N times
//   - final_state: SQL query over the events table; the last matching
//     event must carry the expected column values
//
// # Deterministic Testing
//
// Runs use a deterministic seq clock and alias liveness-token UUIDs to
// ordinals in first-seen order, so the same scenario produces
// byte-identical traces for golden snapshot comparison.
package harness
