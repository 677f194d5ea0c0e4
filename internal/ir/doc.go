// Package ir provides the canonical domain types for stgov.
//
// This package contains type definitions and content hashing only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key constraints:
//   - NO float types anywhere; counts and sequence numbers are int64 or int
//   - Revision identity is content-addressed (see hash.go)
//   - All JSON tags use snake_case
//   - Ordering uses logical clocks (seq) only, never wall-clock timestamps
package ir
