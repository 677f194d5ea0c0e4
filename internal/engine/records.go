package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/store"
	"github.com/roach88/stgov/internal/tagindex"
)

// Suggest creates a Pending lineage. Any authenticated caller may suggest.
func (e *Engine) Suggest(ctx context.Context, caller ir.SecurityContext, in Input) (ir.Lineage, error) {
	if !caller.Authenticated() {
		return ir.Lineage{}, NewUnauthorizedError("suggest requires an authenticated caller")
	}
	return e.createLineage(ctx, caller, in, ir.StatusPending)
}

// Create creates a lineage directly as Approved. Administrators only.
func (e *Engine) Create(ctx context.Context, caller ir.SecurityContext, in Input) (ir.Lineage, error) {
	if err := e.requireAdmin(ctx, caller, "create"); err != nil {
		return ir.Lineage{}, err
	}
	return e.createLineage(ctx, caller, in, ir.StatusApproved)
}

func (e *Engine) createLineage(ctx context.Context, caller ir.SecurityContext, in Input, status ir.Status) (ir.Lineage, error) {
	content, err := in.content()
	if err != nil {
		return ir.Lineage{}, err
	}

	var (
		l  ir.Lineage
		ev ir.Event
	)
	err = e.store.Update(ctx, func(tx *store.Tx) error {
		seq, err := e.nextSeq(ctx, tx)
		if err != nil {
			return err
		}
		id, err := ir.RevisionID(content, "", caller.UserID, seq)
		if err != nil {
			return err
		}

		l = ir.Lineage{
			OriginID:   id,
			RevisionID: id,
			Content:    content,
			Status:     status,
			Author:     caller.UserID,
			CreatedSeq: seq,
			UpdatedSeq: seq,
		}
		ev = e.newEvent(ir.EventCreated, seq, id, status, caller.UserID)

		if err := tx.InsertRevision(ctx, ir.Revision{
			ID:       id,
			OriginID: id,
			Content:  content,
			Author:   caller.UserID,
			Seq:      seq,
		}); err != nil {
			return err
		}
		if err := tx.InsertLineage(ctx, l); err != nil {
			return err
		}
		if err := tx.AddTags(ctx, id, content.Tags); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, ev)
	})
	if err != nil {
		return ir.Lineage{}, fmt.Errorf("create service type: %w", err)
	}

	e.publish(ev)
	return l, nil
}

// Update appends a revision with new content. The author of the lineage or
// an administrator may update it; status is unchanged.
//
// expectedRevision must match the current head, or be empty to mean "the
// current head". A stale value fails with CONFLICT.
func (e *Engine) Update(ctx context.Context, caller ir.SecurityContext, originID, expectedRevision string, in Input) (ir.Lineage, error) {
	if !caller.Authenticated() {
		return ir.Lineage{}, NewUnauthorizedError("update requires an authenticated caller")
	}
	content, err := in.content()
	if err != nil {
		return ir.Lineage{}, err
	}
	isAdmin := e.authorizer.IsAdministrator(ctx, caller)

	var (
		updated ir.Lineage
		ev      ir.Event
	)
	err = e.store.Update(ctx, func(tx *store.Tx) error {
		seq, err := e.nextSeq(ctx, tx)
		if err != nil {
			return err
		}
		cur, err := liveLineage(ctx, tx, originID)
		if err != nil {
			return err
		}
		if cur.Author != caller.UserID && !isAdmin {
			return NewUnauthorizedError("only the author or an administrator may update a service type")
		}
		if expectedRevision == "" {
			expectedRevision = cur.RevisionID
		}
		if expectedRevision != cur.RevisionID {
			return NewConflictError(originID, expectedRevision, cur.RevisionID)
		}

		id, err := ir.RevisionID(content, cur.RevisionID, caller.UserID, seq)
		if err != nil {
			return err
		}
		if err := tx.InsertRevision(ctx, ir.Revision{
			ID:         id,
			OriginID:   originID,
			PreviousID: cur.RevisionID,
			Content:    content,
			Author:     caller.UserID,
			Seq:        seq,
		}); err != nil {
			return err
		}
		ok, err := tx.AdvanceRevision(ctx, originID, cur.RevisionID, id, seq)
		if err != nil {
			return err
		}
		if !ok {
			return NewConflictError(originID, cur.RevisionID, "unknown")
		}

		added, removed := tagindex.Diff(cur.Tags, content.Tags)
		if err := tx.RemoveTags(ctx, originID, removed); err != nil {
			return err
		}
		if err := tx.AddTags(ctx, originID, added); err != nil {
			return err
		}

		ev = e.newEvent(ir.EventUpdated, seq, originID, cur.Status, caller.UserID)
		if err := tx.AppendEvent(ctx, ev); err != nil {
			return err
		}

		updated = cur
		updated.RevisionID = id
		updated.Content = content
		updated.UpdatedSeq = seq
		return nil
	})
	if err != nil {
		return ir.Lineage{}, wrapOp("update service type", err)
	}

	e.publish(ev)
	return updated, nil
}

// Delete tombstones a lineage. The author or an administrator may delete.
// The lineage leaves every status list, every tag index entry, and every
// link in the same transaction; its revisions are kept for history.
func (e *Engine) Delete(ctx context.Context, caller ir.SecurityContext, originID string) error {
	if !caller.Authenticated() {
		return NewUnauthorizedError("delete requires an authenticated caller")
	}
	isAdmin := e.authorizer.IsAdministrator(ctx, caller)

	var (
		ev       ir.Event
		unlinked []ir.PostingRef
	)
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		seq, err := e.nextSeq(ctx, tx)
		if err != nil {
			return err
		}
		cur, err := liveLineage(ctx, tx, originID)
		if err != nil {
			return err
		}
		if cur.Author != caller.UserID && !isAdmin {
			return NewUnauthorizedError("only the author or an administrator may delete a service type")
		}

		ok, err := tx.MarkDeleted(ctx, originID, seq)
		if err != nil {
			return err
		}
		if !ok {
			return NewNotFoundError(originID)
		}
		if err := tx.RemoveAllTags(ctx, originID); err != nil {
			return err
		}
		unlinked, err = tx.RemoveLinksForServiceType(ctx, originID)
		if err != nil {
			return err
		}

		ev = e.newEvent(ir.EventDeleted, seq, originID, cur.Status, caller.UserID)
		return tx.AppendEvent(ctx, ev)
	})
	if err != nil {
		return wrapOp("delete service type", err)
	}

	e.logger.Debug("links removed", "origin_id", originID, "postings", len(unlinked))
	e.publish(ev)
	return nil
}

// Get returns a live lineage. Deleted or unknown lineages fail NOT_FOUND.
func (e *Engine) Get(ctx context.Context, originID string) (ir.Lineage, error) {
	l, err := e.store.GetLineage(ctx, originID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && l.Deleted) {
		return ir.Lineage{}, NewNotFoundError(originID)
	}
	if err != nil {
		return ir.Lineage{}, fmt.Errorf("get service type: %w", err)
	}
	return l, nil
}

// Revisions returns the full revision chain of a lineage, oldest first.
// History stays readable after deletion.
func (e *Engine) Revisions(ctx context.Context, originID string) ([]ir.Revision, error) {
	revs, err := e.store.Revisions(ctx, originID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewNotFoundError(originID)
	}
	if err != nil {
		return nil, fmt.Errorf("read revisions: %w", err)
	}
	return revs, nil
}

// ResolveOrigin maps any revision ID to its lineage's origin ID.
func (e *Engine) ResolveOrigin(ctx context.Context, revisionID string) (string, error) {
	origin, err := e.store.ResolveOrigin(ctx, revisionID)
	if errors.Is(err, store.ErrNotFound) {
		return "", &Error{Code: ErrCodeNotFound, Message: "revision not found: " + revisionID}
	}
	if err != nil {
		return "", fmt.Errorf("resolve origin: %w", err)
	}
	return origin, nil
}

// wrapOp adds operation context to infrastructure errors. Typed governance
// errors are returned unchanged so callers see the bare Code.
func wrapOp(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
