// Package store provides SQLite-backed durable storage for service-type
// governance.
//
// The store holds:
//   - Revisions: immutable, content-addressed snapshots of a service type
//   - Lineages: one row per origin with its head revision and status
//   - Tag index: derived tag → lineage entries for every live lineage
//   - Links: posting → service type edges and their reverse
//   - Events: an outbox of committed lineage changes
//
// # Critical Patterns
//
// Single transaction per operation
//   - Store.Update runs a mutation and all of its derived-state updates in
//     one transaction; a failure anywhere rolls back everything
//
// Compare-and-swap status
//   - Status changes are UPDATE ... WHERE status = ? so concurrent
//     transitions on one lineage cannot both succeed
//
// Logical time
//   - All ordering uses seq INTEGER (logical clock), never timestamps
//
// Deterministic query results
//   - Every multi-row query ends in an ORDER BY with a COLLATE BINARY
//     tiebreaker
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Revision IDs are computed in internal/ir/hash.go from RFC 8785 canonical
// JSON and SHA-256 with domain separation.
package store
