package store

import (
	"context"
	"fmt"

	"github.com/roach88/stgov/internal/ir"
)

// AddLink writes both directions of a posting↔service-type link.
// It reports false if the link already existed.
func (t *Tx) AddLink(ctx context.Context, link ir.Link) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO posting_links (posting_id, kind, origin_id)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, link.Posting.ID, string(link.Posting.Kind), link.OriginID)
	if err != nil {
		return false, fmt.Errorf("write forward link: %w", err)
	}
	inserted, err := affectedOne(res)
	if err != nil {
		return false, err
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO service_type_links (origin_id, posting_id, kind)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, link.OriginID, link.Posting.ID, string(link.Posting.Kind))
	if err != nil {
		return false, fmt.Errorf("write reverse link: %w", err)
	}
	return inserted, nil
}

// RemoveLink deletes both directions of a link.
// It reports false if there was nothing to remove.
func (t *Tx) RemoveLink(ctx context.Context, link ir.Link) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		DELETE FROM posting_links
		WHERE posting_id = ? AND kind = ? AND origin_id = ?
	`, link.Posting.ID, string(link.Posting.Kind), link.OriginID)
	if err != nil {
		return false, fmt.Errorf("delete forward link: %w", err)
	}
	removed, err := affectedOne(res)
	if err != nil {
		return false, err
	}

	_, err = t.tx.ExecContext(ctx, `
		DELETE FROM service_type_links
		WHERE origin_id = ? AND kind = ? AND posting_id = ?
	`, link.OriginID, string(link.Posting.Kind), link.Posting.ID)
	if err != nil {
		return false, fmt.Errorf("delete reverse link: %w", err)
	}
	return removed, nil
}

// LinksForPosting reads a posting's service types inside the transaction.
func (t *Tx) LinksForPosting(ctx context.Context, posting ir.PostingRef) ([]string, error) {
	return linksForPosting(ctx, t.tx, posting)
}

// RemoveLinksForServiceType deletes every link touching originID, in both
// directions, and returns the postings that lost it.
func (t *Tx) RemoveLinksForServiceType(ctx context.Context, originID string) ([]ir.PostingRef, error) {
	postings, err := linksForServiceType(ctx, t.tx, originID)
	if err != nil {
		return nil, err
	}
	for _, p := range postings {
		if _, err := t.RemoveLink(ctx, ir.Link{OriginID: originID, Posting: p}); err != nil {
			return nil, err
		}
	}
	return postings, nil
}

// RemoveLinksForPosting deletes every link of a posting, in both directions,
// and returns the service types it was linked to.
func (t *Tx) RemoveLinksForPosting(ctx context.Context, posting ir.PostingRef) ([]string, error) {
	origins, err := linksForPosting(ctx, t.tx, posting)
	if err != nil {
		return nil, err
	}
	for _, origin := range origins {
		if _, err := t.RemoveLink(ctx, ir.Link{OriginID: origin, Posting: posting}); err != nil {
			return nil, err
		}
	}
	return origins, nil
}

// RebuildReverseLinks rewrites the service type → posting table from the
// forward table. The forward table is authoritative.
func (t *Tx) RebuildReverseLinks(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM service_type_links`); err != nil {
		return fmt.Errorf("clear reverse links: %w", err)
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO service_type_links (origin_id, posting_id, kind)
		SELECT origin_id, posting_id, kind FROM posting_links
	`)
	if err != nil {
		return fmt.Errorf("rebuild reverse links: %w", err)
	}
	return nil
}

// LinksForServiceType returns the postings linked to originID, ordered by
// kind then posting ID. Returns empty slice (not nil) if there are none.
func (s *Store) LinksForServiceType(ctx context.Context, originID string) ([]ir.PostingRef, error) {
	return linksForServiceType(ctx, s.db, originID)
}

// LinksForPosting returns the origins linked to a posting in ascending
// order. Returns empty slice (not nil) if there are none.
func (s *Store) LinksForPosting(ctx context.Context, posting ir.PostingRef) ([]string, error) {
	return linksForPosting(ctx, s.db, posting)
}

// ForwardLinks returns every row of the posting → service type table.
func (s *Store) ForwardLinks(ctx context.Context) ([]ir.Link, error) {
	return forwardLinks(ctx, s.db)
}

// ForwardLinks reads the forward link table inside the transaction.
func (t *Tx) ForwardLinks(ctx context.Context) ([]ir.Link, error) {
	return forwardLinks(ctx, t.tx)
}

func forwardLinks(ctx context.Context, q querier) ([]ir.Link, error) {
	return readLinks(ctx, q, `
		SELECT origin_id, posting_id, kind FROM posting_links
		ORDER BY origin_id ASC COLLATE BINARY, kind ASC, posting_id ASC COLLATE BINARY
	`)
}

// ReverseLinks returns every row of the service type → posting table.
func (s *Store) ReverseLinks(ctx context.Context) ([]ir.Link, error) {
	return readLinks(ctx, s.db, `
		SELECT origin_id, posting_id, kind FROM service_type_links
		ORDER BY origin_id ASC COLLATE BINARY, kind ASC, posting_id ASC COLLATE BINARY
	`)
}

func linksForServiceType(ctx context.Context, q querier, originID string) ([]ir.PostingRef, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT posting_id, kind
		FROM service_type_links
		WHERE origin_id = ?
		ORDER BY kind ASC, posting_id ASC COLLATE BINARY
	`, originID)
	if err != nil {
		return nil, fmt.Errorf("query service type links: %w", err)
	}
	defer rows.Close()

	postings := []ir.PostingRef{}
	for rows.Next() {
		var (
			p    ir.PostingRef
			kind string
		)
		if err := rows.Scan(&p.ID, &kind); err != nil {
			return nil, fmt.Errorf("scan service type link: %w", err)
		}
		p.Kind = ir.EntityKind(kind)
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service type links: %w", err)
	}
	return postings, nil
}

func linksForPosting(ctx context.Context, q querier, posting ir.PostingRef) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT origin_id
		FROM posting_links
		WHERE posting_id = ? AND kind = ?
		ORDER BY origin_id ASC COLLATE BINARY
	`, posting.ID, string(posting.Kind))
	if err != nil {
		return nil, fmt.Errorf("query posting links: %w", err)
	}
	defer rows.Close()

	origins := []string{}
	for rows.Next() {
		var origin string
		if err := rows.Scan(&origin); err != nil {
			return nil, fmt.Errorf("scan posting link: %w", err)
		}
		origins = append(origins, origin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posting links: %w", err)
	}
	return origins, nil
}

func readLinks(ctx context.Context, q querier, query string) ([]ir.Link, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	links := []ir.Link{}
	for rows.Next() {
		var (
			l    ir.Link
			kind string
		)
		if err := rows.Scan(&l.OriginID, &l.Posting.ID, &kind); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.Posting.Kind = ir.EntityKind(kind)
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}
