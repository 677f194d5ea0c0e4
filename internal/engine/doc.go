// Package engine implements service-type governance: the revisioned record
// store operations, the Pending → Approved → Rejected status machine, the
// posting link manager, reconciliation of derived state, and delivery of
// lineage events to subscribers.
//
// ARCHITECTURE:
//
// One transaction per operation:
// Each mutation opens a store transaction, re-reads the lineage it acts on,
// applies the status or revision change with compare-and-swap, updates the
// tag index and links, and appends an outbox event. Nothing is visible
// until commit, and a failure at any step rolls everything back.
//
// Status machine:
//
//	pending  --approve-------->  approved
//	pending  --reject--------->  rejected
//	approved --rejectApproved->  rejected   (removes all links)
//
// Rejected is terminal. Wrong source states fail NOT_PENDING or
// NOT_APPROVED; unknown or deleted lineages fail NOT_FOUND.
//
// Derived state:
// The tag index and link tables are derived from the lineage records.
// Verify rebuilds them with pure functions (tagindex.Build, links.Verify)
// and reports drift; Reindex repairs it.
//
// Events:
// Committed events are published to a Dispatcher, which delivers them to
// Subscribers from a single goroutine in commit order. The events table is
// the durable outbox for consumers that were not running; a Relay tails it
// so events committed by other processes reach the same Dispatcher.
//
// CRITICAL PATTERNS:
//
// Logical Clock
// Every revision, transition, and event is stamped with Clock.Next(),
// taken inside the store transaction after advancing to Tx.LastSeq.
// NEVER use wall-clock timestamps for ordering.
package engine
