package tagindex

import (
	"cmp"
	"slices"
	"strings"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/queryir"
)

// Index is an in-memory tag index rebuilt from a full lineage set.
// It answers the same queries as the SQL backend and is used to verify it.
type Index struct {
	view     queryir.View
	lineages map[string]ir.Lineage
	byTag    map[string]map[string]struct{}
}

// Build constructs an Index from every lineage, keeping only those eligible
// under view. Build is a pure function: it never mutates its input.
func Build(lineages []ir.Lineage, view queryir.View) *Index {
	ix := &Index{
		view:     view,
		lineages: make(map[string]ir.Lineage),
		byTag:    make(map[string]map[string]struct{}),
	}
	for _, l := range lineages {
		if !view.Eligible(l) {
			continue
		}
		ix.lineages[l.OriginID] = l
		for _, t := range l.Tags {
			set, ok := ix.byTag[t]
			if !ok {
				set = make(map[string]struct{})
				ix.byTag[t] = set
			}
			set[l.OriginID] = struct{}{}
		}
	}
	return ix
}

// View returns the view the index was built for.
func (ix *Index) View() queryir.View {
	return ix.view
}

// AllTags returns the distinct indexed tags in byte order.
func (ix *Index) AllTags() []string {
	tags := make([]string, 0, len(ix.byTag))
	for t := range ix.byTag {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

// ByTag returns lineages carrying tag exactly.
func (ix *Index) ByTag(tag string) []ir.Lineage {
	return ix.collect(func(l ir.Lineage) bool { return ix.has(tag, l.OriginID) })
}

// ByTags returns lineages carrying every tag. No tags matches nothing.
func (ix *Index) ByTags(tags []string) []ir.Lineage {
	if len(tags) == 0 {
		return []ir.Lineage{}
	}
	return ix.collect(func(l ir.Lineage) bool {
		for _, t := range tags {
			if !ix.has(t, l.OriginID) {
				return false
			}
		}
		return true
	})
}

// ByPrefix returns lineages carrying a tag that starts with prefix under
// case folding.
func (ix *Index) ByPrefix(prefix string) []ir.Lineage {
	folded := Fold(prefix)
	return ix.collect(func(l ir.Lineage) bool {
		for _, t := range l.Tags {
			if strings.HasPrefix(Fold(t), folded) {
				return true
			}
		}
		return false
	})
}

// Statistics returns per-tag lineage counts, count descending then tag
// ascending.
func (ix *Index) Statistics() []ir.TagCount {
	stats := make([]ir.TagCount, 0, len(ix.byTag))
	for t, set := range ix.byTag {
		stats = append(stats, ir.TagCount{Tag: t, Count: len(set)})
	}
	SortStatistics(stats)
	return stats
}

// Entries returns every (tag, lineage) pair ordered by tag then origin ID.
func (ix *Index) Entries() []ir.TagEntry {
	entries := []ir.TagEntry{}
	for t, set := range ix.byTag {
		for origin := range set {
			entries = append(entries, ir.TagEntry{Tag: t, OriginID: origin})
		}
	}
	SortEntries(entries)
	return entries
}

// Lineages evaluates a lineage query against the index. The query's view is
// ignored; the index was already filtered when it was built.
func (ix *Index) Lineages(q queryir.Lineages) ([]ir.Lineage, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return nil, err
	}
	return ix.collect(func(l ir.Lineage) bool { return ix.match(q.Where, l) }), nil
}

func (ix *Index) match(p queryir.Predicate, l ir.Lineage) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case queryir.HasTag:
		return ix.has(pred.Tag, l.OriginID)
	case queryir.HasTagPrefix:
		folded := Fold(pred.Prefix)
		for _, t := range l.Tags {
			if strings.HasPrefix(Fold(t), folded) {
				return true
			}
		}
		return false
	case queryir.StatusIs:
		return l.Status == pred.Status
	case queryir.And:
		for _, sub := range pred.Predicates {
			if !ix.match(sub, l) {
				return false
			}
		}
		return len(pred.Predicates) > 0
	default:
		return false
	}
}

func (ix *Index) has(tag, origin string) bool {
	_, ok := ix.byTag[tag][origin]
	return ok
}

func (ix *Index) collect(keep func(ir.Lineage) bool) []ir.Lineage {
	out := []ir.Lineage{}
	for _, l := range ix.lineages {
		if keep(l) {
			out = append(out, l)
		}
	}
	SortLineages(out)
	return out
}

// SortLineages orders lineages by creation seq, then origin ID.
func SortLineages(ls []ir.Lineage) {
	slices.SortFunc(ls, func(a, b ir.Lineage) int {
		return cmp.Or(
			cmp.Compare(a.CreatedSeq, b.CreatedSeq),
			strings.Compare(a.OriginID, b.OriginID),
		)
	})
}

// SortStatistics orders counts descending, ties broken by tag ascending.
func SortStatistics(stats []ir.TagCount) {
	slices.SortFunc(stats, func(a, b ir.TagCount) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			strings.Compare(a.Tag, b.Tag),
		)
	})
}

// SortEntries orders entries by tag, then origin ID.
func SortEntries(entries []ir.TagEntry) {
	slices.SortFunc(entries, func(a, b ir.TagEntry) int {
		return cmp.Or(
			strings.Compare(a.Tag, b.Tag),
			strings.Compare(a.OriginID, b.OriginID),
		)
	})
}
