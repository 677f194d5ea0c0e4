// Package links holds the pure algorithms behind posting↔service-type
// associations: computing link deltas and checking that the forward and
// reverse edge sets mirror each other.
package links

import (
	"cmp"
	"slices"
	"strings"

	"github.com/roach88/stgov/internal/ir"
)

// Dedupe removes duplicate origin IDs, keeping the first occurrence.
// The result is never nil.
func Dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Diff computes which service types to link and unlink to move a posting
// from its current set to the desired set. add keeps desired's order and
// remove keeps current's order.
func Diff(current, desired []string) (add, remove []string) {
	desired = Dedupe(desired)
	cur := make(map[string]struct{}, len(current))
	for _, id := range current {
		cur[id] = struct{}{}
	}
	want := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
	}

	add = []string{}
	for _, id := range desired {
		if _, ok := cur[id]; !ok {
			add = append(add, id)
		}
	}
	remove = []string{}
	for _, id := range Dedupe(current) {
		if _, ok := want[id]; !ok {
			remove = append(remove, id)
		}
	}
	return add, remove
}

// Side names the half of a bidirectional link.
type Side string

const (
	Forward Side = "forward"
	Reverse Side = "reverse"
)

// Asymmetry is a link present on one side only.
type Asymmetry struct {
	Link ir.Link `json:"link"`
	// MissingFrom names the side that lacks the edge.
	MissingFrom Side `json:"missing_from"`
}

// Verify reports every edge that is not mirrored. The forward and reverse
// slices are read from the two independent link tables.
func Verify(forward, reverse []ir.Link) []Asymmetry {
	fwd := toSet(forward)
	rev := toSet(reverse)

	out := []Asymmetry{}
	for l := range fwd {
		if _, ok := rev[l]; !ok {
			out = append(out, Asymmetry{Link: l, MissingFrom: Reverse})
		}
	}
	for l := range rev {
		if _, ok := fwd[l]; !ok {
			out = append(out, Asymmetry{Link: l, MissingFrom: Forward})
		}
	}
	slices.SortFunc(out, func(a, b Asymmetry) int {
		return cmp.Or(
			Compare(a.Link, b.Link),
			strings.Compare(string(a.MissingFrom), string(b.MissingFrom)),
		)
	})
	return out
}

// Compare orders links by origin ID, then posting kind, then posting ID.
func Compare(a, b ir.Link) int {
	return cmp.Or(
		strings.Compare(a.OriginID, b.OriginID),
		strings.Compare(string(a.Posting.Kind), string(b.Posting.Kind)),
		strings.Compare(a.Posting.ID, b.Posting.ID),
	)
}

// Sort orders links in place using Compare.
func Sort(ls []ir.Link) {
	slices.SortFunc(ls, Compare)
}

func toSet(ls []ir.Link) map[ir.Link]struct{} {
	m := make(map[ir.Link]struct{}, len(ls))
	for _, l := range ls {
		m[l] = struct{}{}
	}
	return m
}
