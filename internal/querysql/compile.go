package querysql

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/stgov/internal/queryir"
	"github.com/roach88/stgov/internal/tagindex"
)

// LineageColumns is the column list every lineage query selects.
// store.scanLineage reads columns in exactly this order.
const LineageColumns = `l.origin_id, l.revision_id, r.name, r.description, r.category, r.technical, r.tags, ` +
	`l.status, l.author, l.created_seq, l.updated_seq, l.deleted`

// LineageSource joins each lineage with its head revision.
const LineageSource = `lineages l JOIN revisions r ON r.id = l.revision_id`

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: every query ends in an ORDER BY with a COLLATE BINARY tiebreaker.
// CRITICAL: values are always bound as parameters, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to SQL and its parameters.
// Invalid queries are rejected before any SQL is produced.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Lineages:
		return c.compileLineages(query)
	case queryir.TagCounts:
		return c.compileTagCounts(query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileLineages(q queryir.Lineages) (string, []any, error) {
	where, params := c.viewFilter(q.View)

	if q.Where != nil {
		sql, predParams, err := c.compilePredicate(q.Where)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = append(where, sql)
		params = append(params, predParams...)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		LineageColumns,
		LineageSource,
		strings.Join(where, " AND "),
		"l.created_seq ASC, l.origin_id ASC COLLATE BINARY")

	return sql, params, nil
}

func (c *SQLCompiler) compileTagCounts(q queryir.TagCounts) (string, []any, error) {
	where, params := c.viewFilter(q.View)

	sql := fmt.Sprintf("SELECT ti.tag, COUNT(DISTINCT ti.origin_id) AS n "+
		"FROM tag_index ti JOIN lineages l ON l.origin_id = ti.origin_id "+
		"WHERE %s GROUP BY ti.tag ORDER BY n DESC, ti.tag ASC COLLATE BINARY",
		strings.Join(where, " AND "))

	return sql, params, nil
}

// viewFilter returns the conditions that implement a view.
func (c *SQLCompiler) viewFilter(v queryir.View) ([]string, []any) {
	where := []string{"l.deleted = 0"}
	var params []any
	if v == queryir.ViewDiscovery {
		where = append(where, "l.status = ?")
		params = append(params, "approved")
	}
	return where, params
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.HasTag:
		return "EXISTS (SELECT 1 FROM tag_index ti WHERE ti.origin_id = l.origin_id AND ti.tag = ?)",
			[]any{pred.Tag}, nil
	case queryir.HasTagPrefix:
		// substr counts characters, so the folded prefix length is given in runes.
		folded := tagindex.Fold(pred.Prefix)
		return "EXISTS (SELECT 1 FROM tag_index ti WHERE ti.origin_id = l.origin_id AND substr(ti.tag_folded, 1, ?) = ?)",
			[]any{utf8.RuneCountInString(folded), folded}, nil
	case queryir.StatusIs:
		return "l.status = ?", []any{string(pred.Status)}, nil
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}
