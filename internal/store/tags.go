package store

import (
	"context"
	"fmt"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/tagindex"
)

// AddTags indexes originID under each tag. Existing entries are kept
// (ON CONFLICT DO NOTHING), so re-adding a tag is a no-op.
func (t *Tx) AddTags(ctx context.Context, originID string, tags []string) error {
	for _, tag := range tags {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO tag_index (tag, tag_folded, origin_id)
			VALUES (?, ?, ?)
			ON CONFLICT(tag, origin_id) DO NOTHING
		`, tag, tagindex.Fold(tag), originID)
		if err != nil {
			return fmt.Errorf("index tag %q: %w", tag, err)
		}
	}
	return nil
}

// RemoveTags drops the index entries for the given tags of originID.
// Missing entries are ignored.
func (t *Tx) RemoveTags(ctx context.Context, originID string, tags []string) error {
	for _, tag := range tags {
		_, err := t.tx.ExecContext(ctx, `
			DELETE FROM tag_index WHERE tag = ? AND origin_id = ?
		`, tag, originID)
		if err != nil {
			return fmt.Errorf("unindex tag %q: %w", tag, err)
		}
	}
	return nil
}

// RemoveAllTags drops every index entry for originID.
func (t *Tx) RemoveAllTags(ctx context.Context, originID string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM tag_index WHERE origin_id = ?`, originID); err != nil {
		return fmt.Errorf("unindex lineage: %w", err)
	}
	return nil
}

// ReplaceTagIndex discards the whole tag index and writes entries in its
// place.
func (t *Tx) ReplaceTagIndex(ctx context.Context, entries []ir.TagEntry) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM tag_index`); err != nil {
		return fmt.Errorf("clear tag index: %w", err)
	}
	for _, e := range entries {
		if err := t.AddTags(ctx, e.OriginID, []string{e.Tag}); err != nil {
			return err
		}
	}
	return nil
}

// TagEntries returns the stored tag index, whatever the status of the
// indexed lineages. Ordered by tag, then origin.
//
// Returns empty slice (not nil) if the index is empty.
func (s *Store) TagEntries(ctx context.Context) ([]ir.TagEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag, origin_id
		FROM tag_index
		ORDER BY tag ASC COLLATE BINARY, origin_id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("query tag index: %w", err)
	}
	defer rows.Close()

	entries := []ir.TagEntry{}
	for rows.Next() {
		var e ir.TagEntry
		if err := rows.Scan(&e.Tag, &e.OriginID); err != nil {
			return nil, fmt.Errorf("scan tag entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag index: %w", err)
	}
	return entries, nil
}
