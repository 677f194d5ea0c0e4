package facade

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stgov/internal/engine"
	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/queryir"
	"github.com/roach88/stgov/internal/store"
)

var (
	admin = ir.SecurityContext{UserID: "admin", Permissions: []string{engine.AdminPermission}}
	alice = ir.SecurityContext{UserID: "alice"}
)

type fixture struct {
	facade *Facade
	web    ir.Lineage
	api    ir.Lineage
	ops    ir.Lineage
	art    ir.Lineage
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	e, err := engine.New(ctx, s)
	require.NoError(t, err)

	create := func(caller ir.SecurityContext, name string, tags ...string) ir.Lineage {
		var (
			l   ir.Lineage
			err error
		)
		if caller.UserID == admin.UserID {
			l, err = e.Create(ctx, caller, engine.Input{Name: name, Tags: tags})
		} else {
			l, err = e.Suggest(ctx, caller, engine.Input{Name: name, Tags: tags})
		}
		require.NoError(t, err)
		return l
	}

	f := fixture{
		web: create(admin, "web", "javascript", "react", "nodejs"),
		api: create(admin, "api", "backend", "nodejs"),
		ops: create(alice, "ops", "backend", "ReactOps"),
		art: create(alice, "art", "design"),
	}
	_, err = e.Reject(ctx, admin, f.art.OriginID)
	require.NoError(t, err)
	require.NoError(t, e.Link(ctx, f.web.OriginID, ir.PostingRef{ID: "r1", Kind: ir.KindRequest}))

	f.facade = New(e)
	return f
}

func ids(ls []ir.Lineage) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.OriginID
	}
	return out
}

func TestFacade_DiscoveryView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.facade
	assert.Equal(t, queryir.ViewDiscovery, q.View())

	tags, err := q.AllTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"backend", "javascript", "nodejs", "react"}, tags)

	got, err := q.ByTag(ctx, "nodejs")
	require.NoError(t, err)
	assert.Equal(t, []string{f.web.OriginID, f.api.OriginID}, ids(got))

	got, err = q.ByTag(ctx, "design")
	require.NoError(t, err)
	assert.Empty(t, got, "rejected lineages are not discoverable")

	got, err = q.ByTag(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFacade_ByTagsIntersection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.facade

	got, err := q.ByTags(ctx, []string{"nodejs", "react"})
	require.NoError(t, err)
	assert.Equal(t, []string{f.web.OriginID}, ids(got))

	one, err := q.ByTags(ctx, []string{"nodejs"})
	require.NoError(t, err)
	exact, err := q.ByTag(ctx, "nodejs")
	require.NoError(t, err)
	assert.Equal(t, exact, one, "single-element byTags behaves like byTag")

	empty, err := q.ByTags(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty, "empty input is not match-all")
}

func TestFacade_ByPrefixCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.facade.WithView(queryir.ViewAll)

	upper, err := admin.ByPrefix(ctx, "REACT")
	require.NoError(t, err)
	lower, err := admin.ByPrefix(ctx, "react")
	require.NoError(t, err)
	assert.Equal(t, ids(lower), ids(upper))
	assert.Equal(t, []string{f.web.OriginID, f.ops.OriginID}, ids(upper))

	all, err := f.facade.ByPrefix(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{f.web.OriginID, f.api.OriginID}, ids(all))

	none, err := f.facade.ByPrefix(ctx, " react")
	require.NoError(t, err)
	assert.Empty(t, none, "prefix is not trimmed")
}

func TestFacade_InvalidUTF8(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bad := string([]byte{0xff})

	byTag, err := f.facade.ByTag(ctx, bad)
	require.NoError(t, err)
	assert.NotNil(t, byTag)
	assert.Empty(t, byTag, "a tag that cannot be indexed is unknown")

	byTags, err := f.facade.ByTags(ctx, []string{"react", bad})
	require.NoError(t, err)
	assert.NotNil(t, byTags)
	assert.Empty(t, byTags)

	_, err = f.facade.ByPrefix(ctx, bad)
	assert.True(t, engine.IsInvalidInput(err), "got %v", err)
}

func TestFacade_Statistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stats, err := f.facade.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ir.TagCount{
		{Tag: "nodejs", Count: 2},
		{Tag: "backend", Count: 1},
		{Tag: "javascript", Count: 1},
		{Tag: "react", Count: 1},
	}, stats)

	stats, err = f.facade.WithView(queryir.ViewAll).Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ir.TagCount{
		{Tag: "backend", Count: 2},
		{Tag: "nodejs", Count: 2},
		{Tag: "ReactOps", Count: 1},
		{Tag: "design", Count: 1},
		{Tag: "javascript", Count: 1},
		{Tag: "react", Count: 1},
	}, stats)
}

func TestFacade_StatusLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.facade.PendingList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ops.OriginID}, ids(pending))

	approved, err := f.facade.ApprovedList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{f.web.OriginID, f.api.OriginID}, ids(approved))

	rejected, err := f.facade.RejectedList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{f.art.OriginID}, ids(rejected))
}

func TestFacade_Links(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	postings, err := f.facade.LinksForServiceType(ctx, f.web.OriginID)
	require.NoError(t, err)
	assert.Equal(t, []ir.PostingRef{{ID: "r1", Kind: ir.KindRequest}}, postings)

	origins, err := f.facade.LinksForPosting(ctx, ir.PostingRef{ID: "nobody", Kind: ir.KindOffer})
	require.NoError(t, err)
	assert.Empty(t, origins)

	_, err = f.facade.LinksForServiceType(ctx, "missing")
	assert.True(t, engine.IsNotFound(err))
}

func TestFacade_GetAndRevisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.facade.Get(ctx, f.api.OriginID)
	require.NoError(t, err)
	assert.Equal(t, "api", got.Name)

	revs, err := f.facade.Revisions(ctx, f.api.OriginID)
	require.NoError(t, err)
	assert.Len(t, revs, 1)
}
