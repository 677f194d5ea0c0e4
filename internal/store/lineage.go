package store

import (
	"context"
	"fmt"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/querysql"
)

// InsertRevision writes an immutable revision.
// Uses ON CONFLICT(id) DO NOTHING: a revision ID is a content hash, so
// rewriting the same ID is a no-op.
func (t *Tx) InsertRevision(ctx context.Context, rev ir.Revision) error {
	tagsJSON, err := marshalTags(rev.Content.Tags)
	if err != nil {
		return fmt.Errorf("write revision: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO revisions
		(id, origin_id, previous_id, name, description, category, technical, tags, author, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rev.ID,
		rev.OriginID,
		rev.PreviousID,
		rev.Content.Name,
		rev.Content.Description,
		rev.Content.Category,
		boolToInt(rev.Content.Technical),
		tagsJSON,
		rev.Author,
		rev.Seq,
	)
	if err != nil {
		return fmt.Errorf("write revision: %w", err)
	}
	return nil
}

// InsertLineage creates the lineage row for a new origin.
// The head revision must already exist (foreign key constraint).
func (t *Tx) InsertLineage(ctx context.Context, l ir.Lineage) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO lineages
		(origin_id, revision_id, status, author, created_seq, updated_seq, deleted)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`,
		l.OriginID,
		l.RevisionID,
		string(l.Status),
		l.Author,
		l.CreatedSeq,
		l.UpdatedSeq,
	)
	if err != nil {
		return fmt.Errorf("write lineage: %w", err)
	}
	return nil
}

// GetLineage reads a lineage inside the transaction.
// Tombstoned lineages are returned with Deleted set.
// Returns ErrNotFound if the origin was never created.
func (t *Tx) GetLineage(ctx context.Context, originID string) (ir.Lineage, error) {
	return getLineage(ctx, t.tx, originID)
}

// AdvanceRevision moves a lineage's head from expectedRevision to
// newRevision. It reports false when the head has moved on or the lineage
// is deleted, leaving the row untouched.
func (t *Tx) AdvanceRevision(ctx context.Context, originID, expectedRevision, newRevision string, seq int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE lineages
		SET revision_id = ?, updated_seq = ?
		WHERE origin_id = ? AND revision_id = ? AND deleted = 0
	`, newRevision, seq, originID, expectedRevision)
	if err != nil {
		return false, fmt.Errorf("advance revision: %w", err)
	}
	return affectedOne(res)
}

// CompareAndSwapStatus changes a lineage's status only if it is currently
// from. It reports whether the swap happened.
func (t *Tx) CompareAndSwapStatus(ctx context.Context, originID string, from, to ir.Status, seq int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE lineages
		SET status = ?, updated_seq = ?
		WHERE origin_id = ? AND status = ? AND deleted = 0
	`, string(to), seq, originID, string(from))
	if err != nil {
		return false, fmt.Errorf("swap status: %w", err)
	}
	return affectedOne(res)
}

// MarkDeleted tombstones a lineage. Revisions and events are kept for
// history. It reports false if the lineage was already deleted.
func (t *Tx) MarkDeleted(ctx context.Context, originID string, seq int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE lineages
		SET deleted = 1, updated_seq = ?
		WHERE origin_id = ? AND deleted = 0
	`, seq, originID)
	if err != nil {
		return false, fmt.Errorf("delete lineage: %w", err)
	}
	return affectedOne(res)
}

// GetLineage returns the lineage for an origin, including tombstoned ones.
// Returns ErrNotFound if the origin was never created.
func (s *Store) GetLineage(ctx context.Context, originID string) (ir.Lineage, error) {
	return getLineage(ctx, s.db, originID)
}

// AllLineages returns every lineage, deleted ones included, ordered by
// creation.
//
// Returns empty slice (not nil) if the store is empty.
func (s *Store) AllLineages(ctx context.Context) ([]ir.Lineage, error) {
	return allLineages(ctx, s.db)
}

// AllLineages reads every lineage inside the transaction.
func (t *Tx) AllLineages(ctx context.Context) ([]ir.Lineage, error) {
	return allLineages(ctx, t.tx)
}

func allLineages(ctx context.Context, q querier) ([]ir.Lineage, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		ORDER BY l.created_seq ASC, l.origin_id ASC COLLATE BINARY
	`, querysql.LineageColumns, querysql.LineageSource)
	return queryLineages(ctx, q, query)
}

// Revisions returns every revision of a lineage, oldest first.
// Returns ErrNotFound if the lineage does not exist.
func (s *Store) Revisions(ctx context.Context, originID string) ([]ir.Revision, error) {
	if _, err := s.GetLineage(ctx, originID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+revisionColumns+`
		FROM revisions
		WHERE origin_id = ?
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`, originID)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	revisions := []ir.Revision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revisions, nil
}

// GetRevision returns a single revision by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) GetRevision(ctx context.Context, id string) (ir.Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+revisionColumns+`
		FROM revisions
		WHERE id = ?
	`, id)
	return scanRevision(row)
}

// ResolveOrigin maps any revision ID to the origin of its lineage.
// Returns ErrNotFound if the revision is unknown.
func (s *Store) ResolveOrigin(ctx context.Context, revisionID string) (string, error) {
	rev, err := s.GetRevision(ctx, revisionID)
	if err != nil {
		return "", err
	}
	return rev.OriginID, nil
}

func getLineage(ctx context.Context, q querier, originID string) (ir.Lineage, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE l.origin_id = ?`,
		querysql.LineageColumns, querysql.LineageSource)
	return scanLineage(q.QueryRowContext(ctx, query, originID))
}

func queryLineages(ctx context.Context, q querier, query string, args ...any) ([]ir.Lineage, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lineages: %w", err)
	}
	defer rows.Close()

	lineages := []ir.Lineage{}
	for rows.Next() {
		l, err := scanLineage(rows)
		if err != nil {
			return nil, err
		}
		lineages = append(lineages, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lineages: %w", err)
	}
	return lineages, nil
}

func affectedOne(res interface{ RowsAffected() (int64, error) }) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
