package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/links"
	"github.com/roach88/stgov/internal/store"
)

// Link attaches an Approved service type to a posting. Linking an existing
// edge is a no-op. The status is read in the same transaction as the write,
// so a lineage rejected or deleted concurrently can never gain a link.
func (e *Engine) Link(ctx context.Context, originID string, posting ir.PostingRef) error {
	if err := validatePosting(posting); err != nil {
		return err
	}
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		return linkInTx(ctx, tx, ir.Link{OriginID: originID, Posting: posting})
	})
	if err != nil {
		return wrapOp("link", err)
	}
	return nil
}

// Unlink detaches a service type from a posting. An absent edge is a no-op.
func (e *Engine) Unlink(ctx context.Context, originID string, posting ir.PostingRef) error {
	if err := validatePosting(posting); err != nil {
		return err
	}
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		_, err := tx.RemoveLink(ctx, ir.Link{OriginID: originID, Posting: posting})
		return err
	})
	if err != nil {
		return fmt.Errorf("unlink: %w", err)
	}
	return nil
}

// ReplaceLinks makes a posting's service types exactly originIDs.
// Edges not in the new set are removed and new edges are linked, each one
// re-checked for Approved status. If any new edge fails, nothing changes.
// An empty set clears the posting.
func (e *Engine) ReplaceLinks(ctx context.Context, posting ir.PostingRef, originIDs []string) error {
	if err := validatePosting(posting); err != nil {
		return err
	}
	desired := links.Dedupe(originIDs)

	var added, removed []string
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		current, err := tx.LinksForPosting(ctx, posting)
		if err != nil {
			return err
		}
		added, removed = links.Diff(current, desired)

		for _, origin := range removed {
			if _, err := tx.RemoveLink(ctx, ir.Link{OriginID: origin, Posting: posting}); err != nil {
				return err
			}
		}
		for _, origin := range added {
			if err := linkInTx(ctx, tx, ir.Link{OriginID: origin, Posting: posting}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapOp("replace links", err)
	}

	e.logger.Debug("links replaced",
		"posting", posting.String(),
		"added", len(added),
		"removed", len(removed),
	)
	return nil
}

// DeleteAllLinksForPosting removes every link of a deleted posting.
func (e *Engine) DeleteAllLinksForPosting(ctx context.Context, posting ir.PostingRef) error {
	if err := validatePosting(posting); err != nil {
		return err
	}
	var removed []string
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		removed, err = tx.RemoveLinksForPosting(ctx, posting)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete links for posting: %w", err)
	}
	e.logger.Debug("posting links cleared", "posting", posting.String(), "removed", len(removed))
	return nil
}

// LinksForServiceType returns the postings linked to a live lineage.
// Unknown or deleted lineages fail NOT_FOUND.
func (e *Engine) LinksForServiceType(ctx context.Context, originID string) ([]ir.PostingRef, error) {
	if _, err := e.Get(ctx, originID); err != nil {
		return nil, err
	}
	postings, err := e.store.LinksForServiceType(ctx, originID)
	if err != nil {
		return nil, fmt.Errorf("links for service type: %w", err)
	}
	return postings, nil
}

// LinksForPosting returns the service types linked to a posting. A posting
// with no links yields an empty slice.
func (e *Engine) LinksForPosting(ctx context.Context, posting ir.PostingRef) ([]string, error) {
	if err := validatePosting(posting); err != nil {
		return nil, err
	}
	origins, err := e.store.LinksForPosting(ctx, posting)
	if err != nil {
		return nil, fmt.Errorf("links for posting: %w", err)
	}
	return origins, nil
}

func linkInTx(ctx context.Context, tx *store.Tx, link ir.Link) error {
	l, err := tx.GetLineage(ctx, link.OriginID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && l.Deleted) {
		return NewNotFoundError(link.OriginID)
	}
	if err != nil {
		return err
	}
	if l.Status != ir.StatusApproved {
		return NewNotApprovedError(link.OriginID, l.Status)
	}
	_, err = tx.AddLink(ctx, link)
	return err
}
