// Package trace provides durable storage for safe-reference lifecycle
// event logs.
//
// Every operation the conformance harness performs against the tether
// primitive (minting, dereferencing, cloning, moving, upcasting,
// dropping, destroying) is recorded as one Event. The store backs the
// harness's final_state assertions (plain SQL over the events table)
// and its golden trace snapshots.
//
// Uses SQLite; harness runs open an in-memory database per scenario
// for isolation, while the CLI can persist a trace to disk for later
// inspection with `tether trace`.
package trace
