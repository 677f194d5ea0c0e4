package store

import (
	"context"
	"fmt"

	"github.com/roach88/stgov/internal/ir"
)

// AppendEvent writes an outbox record in the same transaction as the change
// it describes. A seq or token that is already recorded is an error, so a
// mutation can never commit without its event.
func (t *Tx) AppendEvent(ctx context.Context, ev ir.Event) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO events (seq, kind, origin_id, status, actor, token)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.Seq, string(ev.Kind), ev.OriginID, string(ev.Status), ev.Actor, ev.Token)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Events returns outbox records with seq greater than since, oldest first.
// A limit of zero or less returns every remaining record.
//
// Returns empty slice (not nil) if there are none.
func (s *Store) Events(ctx context.Context, since int64, limit int) ([]ir.Event, error) {
	query := `
		SELECT seq, kind, origin_id, status, actor, token
		FROM events
		WHERE seq > ?
		ORDER BY seq ASC`
	args := []any{since}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.readEvents(ctx, query, args...)
}

// EventsForOrigin returns the history of one lineage, oldest first.
func (s *Store) EventsForOrigin(ctx context.Context, originID string) ([]ir.Event, error) {
	return s.readEvents(ctx, `
		SELECT seq, kind, origin_id, status, actor, token
		FROM events
		WHERE origin_id = ?
		ORDER BY seq ASC
	`, originID)
}

// LastSeq returns the highest logical clock value recorded anywhere in the
// store, or 0 for an empty store. Engines resume their clock from it.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	return lastSeq(ctx, s.db)
}

// LastSeq is Store.LastSeq read under the transaction's write lock. No
// other writer can commit a higher seq before this transaction ends.
func (t *Tx) LastSeq(ctx context.Context) (int64, error) {
	return lastSeq(ctx, t.tx)
}

func lastSeq(ctx context.Context, q querier) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM events), 0),
			COALESCE((SELECT MAX(seq) FROM revisions), 0),
			COALESCE((SELECT MAX(updated_seq) FROM lineages), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq, nil
}

func (s *Store) readEvents(ctx context.Context, query string, args ...any) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		var (
			ev           ir.Event
			kind, status string
		)
		if err := rows.Scan(&ev.Seq, &kind, &ev.OriginID, &status, &ev.Actor, &ev.Token); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = ir.EventKind(kind)
		ev.Status = ir.Status(status)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
