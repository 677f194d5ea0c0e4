package queryir

import (
	"fmt"

	"github.com/roach88/stgov/internal/ir"
)

// View selects which lineages a query can see.
type View int

const (
	// ViewDiscovery sees only live, Approved lineages.
	ViewDiscovery View = iota
	// ViewAll sees every live lineage regardless of status.
	ViewAll
)

func (v View) String() string {
	switch v {
	case ViewDiscovery:
		return "discovery"
	case ViewAll:
		return "all"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

// ParseView converts a view name to a View. The empty string selects the
// discovery view.
func ParseView(s string) (View, error) {
	switch s {
	case "", "discovery":
		return ViewDiscovery, nil
	case "all":
		return ViewAll, nil
	default:
		return 0, fmt.Errorf("unknown view %q: must be discovery or all", s)
	}
}

// Eligible reports whether a lineage is visible through the view.
func (v View) Eligible(l ir.Lineage) bool {
	if l.Deleted {
		return false
	}
	if v == ViewAll {
		return true
	}
	return l.Status == ir.StatusApproved
}

// Query is a sealed interface for lineage and tag queries.
type Query interface {
	queryNode()
}

// Predicate is a sealed interface for lineage filters.
type Predicate interface {
	predicateNode()
}

// Lineages selects the lineages visible through View that satisfy Where.
// A nil Where matches every visible lineage.
//
// Results are ordered by creation seq, then origin ID.
type Lineages struct {
	View  View
	Where Predicate
}

func (Lineages) queryNode() {}

// TagCounts lists every tag carried by at least one lineage visible
// through View, with the number of distinct lineages carrying it.
//
// Results are ordered by count descending, then tag ascending (byte order).
type TagCounts struct {
	View View
}

func (TagCounts) queryNode() {}

// HasTag matches lineages carrying Tag exactly (case-sensitive).
type HasTag struct {
	Tag string
}

func (HasTag) predicateNode() {}

// HasTagPrefix matches lineages carrying at least one tag that starts with
// Prefix under Unicode case folding. The empty prefix matches any lineage
// that carries at least one tag.
type HasTagPrefix struct {
	Prefix string
}

func (HasTagPrefix) predicateNode() {}

// StatusIs matches lineages whose current status equals Status.
type StatusIs struct {
	Status ir.Status
}

func (StatusIs) predicateNode() {}

// And matches lineages satisfying every predicate. An empty And is rejected
// by Validate: an intersection over no tags matches nothing, and callers
// short-circuit that case instead of compiling it.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// ByTag builds the exact-match lookup.
func ByTag(view View, tag string) Lineages {
	return Lineages{View: view, Where: HasTag{Tag: tag}}
}

// ByTags builds the intersection lookup. Duplicate tags are harmless.
func ByTags(view View, tags []string) Lineages {
	preds := make([]Predicate, len(tags))
	for i, t := range tags {
		preds[i] = HasTag{Tag: t}
	}
	return Lineages{View: view, Where: And{Predicates: preds}}
}

// ByPrefix builds the case-insensitive prefix lookup.
func ByPrefix(view View, prefix string) Lineages {
	return Lineages{View: view, Where: HasTagPrefix{Prefix: prefix}}
}

// ByStatus lists live lineages in one status, independent of any view.
func ByStatus(status ir.Status) Lineages {
	return Lineages{View: ViewAll, Where: StatusIs{Status: status}}
}
