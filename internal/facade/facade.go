// Package facade is the read-only query surface used by the HTTP API, the
// CLI, and the conformance harness. It never mutates state.
//
// Tag queries run against a view: the discovery view (default) sees only
// Approved lineages; the administrative view sees every live lineage.
package facade

import (
	"context"
	"slices"
	"unicode/utf8"

	"github.com/roach88/stgov/internal/engine"
	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/queryir"
)

// Facade composes the tag index, status lists, and link lookups.
type Facade struct {
	engine *engine.Engine
	view   queryir.View
}

// New creates a Facade over e using the discovery view.
func New(e *engine.Engine) *Facade {
	return &Facade{engine: e, view: queryir.ViewDiscovery}
}

// WithView returns a copy of the facade that answers tag queries in view.
func (f *Facade) WithView(view queryir.View) *Facade {
	c := *f
	c.view = view
	return &c
}

// View returns the view used for tag queries.
func (f *Facade) View() queryir.View {
	return f.view
}

// AllTags returns the distinct tags carried by at least one lineage in the
// view, in byte order.
func (f *Facade) AllTags(ctx context.Context) ([]string, error) {
	stats, err := f.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	tags := make([]string, len(stats))
	for i, s := range stats {
		tags[i] = s.Tag
	}
	slices.Sort(tags)
	return tags, nil
}

// ByTag returns lineages carrying tag exactly. An unknown tag yields an
// empty result; that includes tags that could never be indexed.
func (f *Facade) ByTag(ctx context.Context, tag string) ([]ir.Lineage, error) {
	if unindexable(tag) {
		return []ir.Lineage{}, nil
	}
	return f.engine.Store().QueryLineages(ctx, queryir.ByTag(f.view, tag))
}

// ByTags returns lineages carrying every tag. An empty tag list yields an
// empty result, not every lineage.
func (f *Facade) ByTags(ctx context.Context, tags []string) ([]ir.Lineage, error) {
	if len(tags) == 0 || slices.ContainsFunc(tags, unindexable) {
		return []ir.Lineage{}, nil
	}
	if len(tags) == 1 {
		return f.ByTag(ctx, tags[0])
	}
	return f.engine.Store().QueryLineages(ctx, queryir.ByTags(f.view, tags))
}

// ByPrefix returns lineages carrying a tag that starts with prefix under
// Unicode case folding. The empty prefix matches every tagged lineage.
// A prefix that is not valid UTF-8 fails INVALID_INPUT.
func (f *Facade) ByPrefix(ctx context.Context, prefix string) ([]ir.Lineage, error) {
	if !utf8.ValidString(prefix) {
		return nil, engine.NewInvalidInputError("prefix is not valid UTF-8")
	}
	return f.engine.Store().QueryLineages(ctx, queryir.ByPrefix(f.view, prefix))
}

// unindexable reports whether no lineage can carry tag.
func unindexable(tag string) bool {
	return tag == "" || !utf8.ValidString(tag)
}

// Statistics returns per-tag lineage counts, count descending then tag
// ascending.
func (f *Facade) Statistics(ctx context.Context) ([]ir.TagCount, error) {
	return f.engine.Store().QueryTagCounts(ctx, queryir.TagCounts{View: f.view})
}

// List returns the live lineages in one status. Status lists ignore the
// view.
func (f *Facade) List(ctx context.Context, status ir.Status) ([]ir.Lineage, error) {
	return f.engine.Store().QueryLineages(ctx, queryir.ByStatus(status))
}

// PendingList returns lineages awaiting review.
func (f *Facade) PendingList(ctx context.Context) ([]ir.Lineage, error) {
	return f.List(ctx, ir.StatusPending)
}

// ApprovedList returns lineages that may be linked.
func (f *Facade) ApprovedList(ctx context.Context) ([]ir.Lineage, error) {
	return f.List(ctx, ir.StatusApproved)
}

// RejectedList returns rejected lineages.
func (f *Facade) RejectedList(ctx context.Context) ([]ir.Lineage, error) {
	return f.List(ctx, ir.StatusRejected)
}

// LinksForServiceType returns the postings linked to a lineage.
func (f *Facade) LinksForServiceType(ctx context.Context, originID string) ([]ir.PostingRef, error) {
	return f.engine.LinksForServiceType(ctx, originID)
}

// LinksForPosting returns the service types linked to a posting.
func (f *Facade) LinksForPosting(ctx context.Context, posting ir.PostingRef) ([]string, error) {
	return f.engine.LinksForPosting(ctx, posting)
}

// Get returns a live lineage.
func (f *Facade) Get(ctx context.Context, originID string) (ir.Lineage, error) {
	return f.engine.Get(ctx, originID)
}

// Revisions returns a lineage's revision chain, oldest first.
func (f *Facade) Revisions(ctx context.Context, originID string) ([]ir.Revision, error) {
	return f.engine.Revisions(ctx, originID)
}
