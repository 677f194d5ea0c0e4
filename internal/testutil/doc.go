// Package testutil provides deterministic stand-ins for the engine's clock
// and token generator, used by the conformance harness and golden traces.
package testutil
