package engine

import (
	"context"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/store"
)

// transition describes one edge of the status machine.
//
//	pending  --approve-------->  approved
//	pending  --reject--------->  rejected
//	approved --rejectApproved->  rejected
//
// There is no edge out of rejected.
type transition struct {
	op          string
	from, to    ir.Status
	event       ir.EventKind
	unlinkAll   bool
	wrongSource func(originID string, current ir.Status) *Error
}

var (
	approveTransition = transition{
		op:          "approve",
		from:        ir.StatusPending,
		to:          ir.StatusApproved,
		event:       ir.EventApproved,
		wrongSource: NewNotPendingError,
	}
	rejectTransition = transition{
		op:          "reject",
		from:        ir.StatusPending,
		to:          ir.StatusRejected,
		event:       ir.EventRejected,
		wrongSource: NewNotPendingError,
	}
	rejectApprovedTransition = transition{
		op:          "reject approved",
		from:        ir.StatusApproved,
		to:          ir.StatusRejected,
		event:       ir.EventRejected,
		unlinkAll:   true,
		wrongSource: NewNotApprovedError,
	}
)

// Approve moves a Pending lineage to Approved. Any other source status
// fails NOT_PENDING, so approving twice fails the second time.
func (e *Engine) Approve(ctx context.Context, caller ir.SecurityContext, originID string) (ir.Lineage, error) {
	return e.transition(ctx, caller, originID, approveTransition)
}

// Reject moves a Pending lineage to Rejected.
func (e *Engine) Reject(ctx context.Context, caller ir.SecurityContext, originID string) (ir.Lineage, error) {
	return e.transition(ctx, caller, originID, rejectTransition)
}

// RejectApproved moves an Approved lineage to Rejected and removes every
// link to it in the same transaction.
func (e *Engine) RejectApproved(ctx context.Context, caller ir.SecurityContext, originID string) (ir.Lineage, error) {
	return e.transition(ctx, caller, originID, rejectApprovedTransition)
}

func (e *Engine) transition(ctx context.Context, caller ir.SecurityContext, originID string, t transition) (ir.Lineage, error) {
	if err := e.requireAdmin(ctx, caller, t.op); err != nil {
		return ir.Lineage{}, err
	}

	var (
		result   ir.Lineage
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
		if cur.Status != t.from {
			return t.wrongSource(originID, cur.Status)
		}

		ok, err := tx.CompareAndSwapStatus(ctx, originID, t.from, t.to, seq)
		if err != nil {
			return err
		}
		if !ok {
			// Status moved after the read above; report where it is now.
			now, err := liveLineage(ctx, tx, originID)
			if err != nil {
				return err
			}
			return t.wrongSource(originID, now.Status)
		}

		if t.unlinkAll {
			unlinked, err = tx.RemoveLinksForServiceType(ctx, originID)
			if err != nil {
				return err
			}
		}

		ev = e.newEvent(t.event, seq, originID, t.to, caller.UserID)
		if err := tx.AppendEvent(ctx, ev); err != nil {
			return err
		}

		result = cur
		result.Status = t.to
		result.UpdatedSeq = seq
		return nil
	})
	if err != nil {
		return ir.Lineage{}, wrapOp(t.op, err)
	}

	if t.unlinkAll {
		e.logger.Debug("links removed", "origin_id", originID, "postings", len(unlinked))
	}
	e.publish(ev)
	return result, nil
}
