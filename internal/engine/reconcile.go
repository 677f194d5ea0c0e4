package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/links"
	"github.com/roach88/stgov/internal/queryir"
	"github.com/roach88/stgov/internal/store"
	"github.com/roach88/stgov/internal/tagindex"
)

// Report is the result of comparing derived state against a rebuild from
// the authoritative lineage records.
type Report struct {
	// Lineages is the number of lineage records examined, deleted included.
	Lineages int `json:"lineages"`

	// Links is the number of forward edges examined.
	Links int `json:"links"`

	// TagDrift compares stored tag index rows with a rebuild.
	TagDrift tagindex.Drift `json:"tag_drift"`

	// StatisticsMismatch names the views whose SQL statistics differ from
	// the in-memory rebuild.
	StatisticsMismatch []string `json:"statistics_mismatch"`

	// Asymmetries lists edges present in only one link table.
	Asymmetries []links.Asymmetry `json:"asymmetries"`

	// InvalidLinks lists edges to lineages that are not live and Approved.
	InvalidLinks []InvalidLink `json:"invalid_links"`

	// IndexDigest is the snapshot hash of the rebuilt tag index. Two
	// databases with the same live tag assignments have the same digest.
	IndexDigest string `json:"index_digest"`
}

// InvalidLink is an edge whose service type can no longer be linked.
type InvalidLink struct {
	Link   ir.Link `json:"link"`
	Reason string  `json:"reason"`
}

// Clean reports whether derived state matches the rebuild exactly.
func (r Report) Clean() bool {
	return r.TagDrift.Empty() &&
		len(r.StatisticsMismatch) == 0 &&
		len(r.Asymmetries) == 0 &&
		len(r.InvalidLinks) == 0
}

// Verify rebuilds the tag index from every lineage and compares it with
// the incrementally maintained one, checks that the forward and reverse
// link tables mirror each other, and checks that every link targets a live
// Approved lineage. Verify never writes.
func (e *Engine) Verify(ctx context.Context) (Report, error) {
	lineages, err := e.store.AllLineages(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("verify: %w", err)
	}
	stored, err := e.store.TagEntries(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("verify: %w", err)
	}
	forward, err := e.store.ForwardLinks(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("verify: %w", err)
	}
	reverse, err := e.store.ReverseLinks(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("verify: %w", err)
	}

	rebuilt := tagindex.Build(lineages, queryir.ViewAll).Entries()
	digest, err := ir.SnapshotHash(entriesValue(rebuilt))
	if err != nil {
		return Report{}, fmt.Errorf("verify: %w", err)
	}

	report := Report{
		Lineages:           len(lineages),
		Links:              len(forward),
		TagDrift:           tagindex.Compare(rebuilt, stored),
		StatisticsMismatch: []string{},
		Asymmetries:        links.Verify(forward, reverse),
		InvalidLinks:       invalidLinks(lineages, forward),
		IndexDigest:        digest,
	}

	for _, view := range []queryir.View{queryir.ViewDiscovery, queryir.ViewAll} {
		got, err := e.store.QueryTagCounts(ctx, queryir.TagCounts{View: view})
		if err != nil {
			return Report{}, fmt.Errorf("verify: %w", err)
		}
		want := tagindex.Build(lineages, view).Statistics()
		if !slices.Equal(got, want) {
			report.StatisticsMismatch = append(report.StatisticsMismatch, view.String())
		}
	}

	e.logger.Info("verify complete",
		"lineages", report.Lineages,
		"links", report.Links,
		"clean", report.Clean(),
	)
	return report, nil
}

// Reindex repairs derived state from the authoritative lineage records in
// one transaction: the tag index is replaced by a rebuild, links to
// lineages that are not live and Approved are removed, and the reverse link
// table is rewritten from the forward one.
//
// The returned Report describes the state before the repair.
func (e *Engine) Reindex(ctx context.Context) (Report, error) {
	before, err := e.Verify(ctx)
	if err != nil {
		return Report{}, err
	}

	err = e.store.Update(ctx, func(tx *store.Tx) error {
		lineages, err := tx.AllLineages(ctx)
		if err != nil {
			return err
		}
		if err := tx.ReplaceTagIndex(ctx, tagindex.Build(lineages, queryir.ViewAll).Entries()); err != nil {
			return err
		}

		forward, err := tx.ForwardLinks(ctx)
		if err != nil {
			return err
		}
		for _, bad := range invalidLinks(lineages, forward) {
			if _, err := tx.RemoveLink(ctx, bad.Link); err != nil {
				return err
			}
		}
		return tx.RebuildReverseLinks(ctx)
	})
	if err != nil {
		return Report{}, fmt.Errorf("reindex: %w", err)
	}

	e.logger.Info("reindex complete",
		"tag_rows_added", len(before.TagDrift.Missing),
		"tag_rows_removed", len(before.TagDrift.Extra),
		"invalid_links_removed", len(before.InvalidLinks),
		"asymmetries_repaired", len(before.Asymmetries),
	)
	return before, nil
}

func invalidLinks(lineages []ir.Lineage, forward []ir.Link) []InvalidLink {
	byOrigin := make(map[string]ir.Lineage, len(lineages))
	for _, l := range lineages {
		byOrigin[l.OriginID] = l
	}

	out := []InvalidLink{}
	for _, link := range forward {
		l, ok := byOrigin[link.OriginID]
		switch {
		case !ok:
			out = append(out, InvalidLink{Link: link, Reason: "unknown service type"})
		case l.Deleted:
			out = append(out, InvalidLink{Link: link, Reason: "service type deleted"})
		case l.Status != ir.StatusApproved:
			out = append(out, InvalidLink{Link: link, Reason: "service type " + string(l.Status)})
		}
	}
	return out
}

// entriesValue converts sorted index entries to a canonical value.
func entriesValue(entries []ir.TagEntry) ir.Array {
	arr := make(ir.Array, len(entries))
	for i, e := range entries {
		arr[i] = ir.Object{"tag": ir.String(e.Tag), "origin_id": ir.String(e.OriginID)}
	}
	return arr
}
