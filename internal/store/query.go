package store

import (
	"context"
	"fmt"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/queryir"
	"github.com/roach88/stgov/internal/querysql"
)

var compiler = querysql.NewSQLCompiler()

// QueryLineages evaluates a lineage query against the stored tag index.
// Returns empty slice (not nil) if nothing matches.
func (s *Store) QueryLineages(ctx context.Context, q queryir.Lineages) ([]ir.Lineage, error) {
	query, args, err := compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile lineage query: %w", err)
	}
	return queryLineages(ctx, s.db, query, args...)
}

// QueryTagCounts evaluates tag usage statistics for a view.
// Ordered by count descending, then tag ascending.
func (s *Store) QueryTagCounts(ctx context.Context, q queryir.TagCounts) ([]ir.TagCount, error) {
	query, args, err := compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile tag count query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tag counts: %w", err)
	}
	defer rows.Close()

	counts := []ir.TagCount{}
	for rows.Next() {
		var tc ir.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag count: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag counts: %w", err)
	}
	return counts, nil
}
