// Package harness provides conformance testing for the service-type
// governance engine.
//
// The harness runs YAML scenarios against a real engine backed by an
// in-memory store, checks each step's outcome, and evaluates assertions on
// the final statuses, tag index, and links.
//
// # Scenario Format
//
//	name: approve_then_discover
//	description: "What this scenario validates"
//	catalog: catalog.cue          # optional CUE catalog seeded first
//	admins: [admin]               # default [admin]
//	setup:
//	  - op: suggest
//	    as: alice
//	    bind: web
//	    input: { name: "Web Development", tags: [javascript, react] }
//	flow:
//	  - op: approve
//	    as: admin
//	    target: web
//	    expect: { status: approved }
//	  - op: reject
//	    as: admin
//	    target: web
//	    expect: { error: NOT_PENDING }
//	assertions:
//	  - type: by_tag
//	    tag: javascript
//	    want: [web]
//
// Lineages are referred to by the name they were bound under (bind, or the
// input name, or the catalog key). Query results are reported the same way.
//
// # Assertion Types
//
//   - status: a lineage's status, or "deleted"
//   - by_tag, by_tags, by_prefix: tag queries in a view
//   - all_tags: distinct tags in a view
//   - links_for_posting, links_for_service_type: link sets
//   - events: a lineage's outbox event kinds, in order
//   - reconciled: the incremental index and links match a rebuild
//
// # Deterministic Testing
//
// Every run uses testutil.DeterministicClock and testutil.SequentialTokens
// with a fresh database, so the trace is byte-identical across runs and can
// be compared against golden files in testdata/golden.
package harness
