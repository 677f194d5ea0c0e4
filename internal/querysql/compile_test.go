package querysql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/queryir"
)

func TestCompileByTagDiscovery(t *testing.T) {
	c := NewSQLCompiler()
	sql, params, err := c.Compile(queryir.ByTag(queryir.ViewDiscovery, "react"))
	require.NoError(t, err)

	assert.Contains(t, sql, "SELECT "+LineageColumns+" FROM "+LineageSource)
	assert.Contains(t, sql, "l.deleted = 0 AND l.status = ?")
	assert.Contains(t, sql, "ti.tag = ?")
	assert.Equal(t, []any{"approved", "react"}, params)
}

func TestCompileAllViewHasNoStatusFilter(t *testing.T) {
	c := NewSQLCompiler()
	sql, params, err := c.Compile(queryir.ByTag(queryir.ViewAll, "react"))
	require.NoError(t, err)

	assert.NotContains(t, sql, "l.status = ?")
	assert.Equal(t, []any{"react"}, params)
}

func TestCompileByTagsIntersection(t *testing.T) {
	c := NewSQLCompiler()
	sql, params, err := c.Compile(queryir.ByTags(queryir.ViewAll, []string{"a", "b"}))
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(sql, "EXISTS"))
	assert.Contains(t, sql, ") AND EXISTS")
	assert.Equal(t, []any{"a", "b"}, params)
}

func TestCompileByPrefixFoldsAndCountsRunes(t *testing.T) {
	c := NewSQLCompiler()
	_, params, err := c.Compile(queryir.ByPrefix(queryir.ViewAll, "RÉa"))
	require.NoError(t, err)
	assert.Equal(t, []any{3, "réa"}, params)

	_, params, err = c.Compile(queryir.ByPrefix(queryir.ViewAll, ""))
	require.NoError(t, err)
	assert.Equal(t, []any{0, ""}, params)
}

func TestCompileByStatus(t *testing.T) {
	c := NewSQLCompiler()
	sql, params, err := c.Compile(queryir.ByStatus(ir.StatusRejected))
	require.NoError(t, err)

	assert.Contains(t, sql, "l.deleted = 0 AND l.status = ?")
	assert.Equal(t, []any{"rejected"}, params)
}

func TestCompileTagCounts(t *testing.T) {
	c := NewSQLCompiler()
	sql, params, err := c.Compile(queryir.TagCounts{})
	require.NoError(t, err)

	assert.Contains(t, sql, "COUNT(DISTINCT ti.origin_id)")
	assert.Contains(t, sql, "GROUP BY ti.tag")
	assert.Equal(t, []any{"approved"}, params)
}

func TestCompileAlwaysOrders(t *testing.T) {
	c := NewSQLCompiler()
	queries := []queryir.Query{
		queryir.Lineages{},
		queryir.ByTag(queryir.ViewAll, "x"),
		queryir.ByPrefix(queryir.ViewDiscovery, "x"),
		queryir.TagCounts{View: queryir.ViewAll},
	}
	for _, q := range queries {
		sql, _, err := c.Compile(q)
		require.NoError(t, err)
		assert.Contains(t, sql, "ORDER BY")
		assert.True(t, strings.HasSuffix(sql, "COLLATE BINARY"), sql)
	}
}

func TestCompileNeverInterpolates(t *testing.T) {
	c := NewSQLCompiler()
	evil := "x'; DROP TABLE lineages; --"
	sql, params, err := c.Compile(queryir.ByTag(queryir.ViewAll, evil))
	require.NoError(t, err)

	assert.NotContains(t, sql, "DROP TABLE")
	assert.Contains(t, params, evil)
}

func TestCompileRejectsInvalid(t *testing.T) {
	c := NewSQLCompiler()

	_, _, err := c.Compile(queryir.ByTags(queryir.ViewAll, nil))
	assert.Error(t, err)

	_, _, err = c.Compile(queryir.ByTag(queryir.ViewAll, ""))
	assert.Error(t, err)

	_, _, err = c.Compile(nil)
	assert.Error(t, err)
}
