// Package queryir provides the query intermediate representation for tag
// discovery and status listing.
//
// QueryIR is the boundary between the query facade and the storage backend:
//
//	[facade] → [Query IR] → [SQL backend (querysql)]
//	                      → [in-memory rebuild (tagindex)]
//
// Both backends evaluate the same query values, which is what lets the
// reconciler compare an incrementally maintained index against one rebuilt
// from scratch.
//
// # Views
//
// Every query carries a View. ViewDiscovery (the zero value) only sees live
// Approved lineages and is what public discovery uses. ViewAll sees every
// live lineage regardless of status and is meant for administrative tooling.
//
// # Sealed interfaces
//
// Query and Predicate are sealed with marker methods so backends can switch
// over them exhaustively:
//
//	switch q := query.(type) {
//	case Lineages:
//	    // lineage lookup
//	case TagCounts:
//	    // tag statistics
//	}
package queryir
