package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stgov/internal/engine"
	"github.com/roach88/stgov/internal/ir"
)

// envelope is CLIResponse with a typed payload.
type envelope[T any] struct {
	Status string    `json:"status"`
	Data   T         `json:"data"`
	Error  *CLIError `json:"error"`
}

// cliEnv runs commands against one database with "admin" configured as an
// administrator.
type cliEnv struct {
	t  *testing.T
	db string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{t: t, db: filepath.Join(t.TempDir(), "stgov.db")}
}

func (e *cliEnv) run(format string, args ...string) (string, error) {
	e.t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", e.db, "--admin", "admin", "--format", format}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func runJSON[T any](e *cliEnv, args ...string) (envelope[T], error) {
	e.t.Helper()
	out, err := e.run("json", args...)
	var env envelope[T]
	require.NoError(e.t, json.Unmarshal([]byte(out), &env), "output: %s", out)
	return env, err
}

func (e *cliEnv) suggest(as, name string, tags ...string) ir.Lineage {
	e.t.Helper()
	args := []string{"suggest", "--as", as, "--name", name}
	for _, tag := range tags {
		args = append(args, "--tag", tag)
	}
	env, err := runJSON[ir.Lineage](e, args...)
	require.NoError(e.t, err)
	return env.Data
}

func requireEngineError(t *testing.T, err error, out *CLIError, code engine.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, code, engine.CodeOf(err))
	require.NotNil(t, out)
	assert.Equal(t, string(code), out.Code)
}

func TestCLI_ReviewLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	web := env.suggest("alice", "Web Development", "javascript", "react")
	assert.Equal(t, ir.StatusPending, web.Status)
	assert.Equal(t, "alice", web.Author)
	assert.Equal(t, []string{"javascript", "react"}, web.Tags)

	pending, err := runJSON[[]ir.Lineage](env, "list")
	require.NoError(t, err)
	require.Len(t, pending.Data, 1)
	assert.Equal(t, web.OriginID, pending.Data[0].OriginID)

	// Pending is invisible to discovery but present in the all view.
	found, err := runJSON[[]ir.Lineage](env, "search", "--tag", "javascript")
	require.NoError(t, err)
	assert.Empty(t, found.Data)
	found, err = runJSON[[]ir.Lineage](env, "search", "--tag", "javascript", "--view", "all")
	require.NoError(t, err)
	require.Len(t, found.Data, 1)

	denied, err := runJSON[ir.Lineage](env, "approve", web.OriginID, "--as", "alice")
	requireEngineError(t, err, denied.Error, engine.ErrCodeUnauthorized)

	approved, err := runJSON[ir.Lineage](env, "approve", web.OriginID, "--as", "admin")
	require.NoError(t, err)
	assert.Equal(t, ir.StatusApproved, approved.Data.Status)

	found, err = runJSON[[]ir.Lineage](env, "search", "--prefix", "JAVA")
	require.NoError(t, err)
	require.Len(t, found.Data, 1)
	assert.Equal(t, web.OriginID, found.Data[0].OriginID)

	again, err := runJSON[ir.Lineage](env, "reject", web.OriginID, "--as", "admin")
	requireEngineError(t, err, again.Error, engine.ErrCodeNotPending)

	events, err := runJSON[[]ir.Event](env, "events", web.OriginID)
	require.NoError(t, err)
	kinds := make([]ir.EventKind, 0, len(events.Data))
	for _, ev := range events.Data {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []ir.EventKind{ir.EventCreated, ir.EventApproved}, kinds)
}

func TestCLI_SuggestRequiresCaller(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := runJSON[ir.Lineage](env, "suggest", "--name", "Web Development")
	requireEngineError(t, err, resp.Error, engine.ErrCodeUnauthorized)
}

func TestCLI_SuggestRejectsBlankName(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := runJSON[ir.Lineage](env, "suggest", "--as", "alice", "--name", "   ")
	requireEngineError(t, err, resp.Error, engine.ErrCodeInvalidInput)
}

func TestCLI_PermissionGrantsAdmin(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := runJSON[ir.Lineage](env, "create", "--as", "carol", "--permission", engine.AdminPermission, "--name", "API Design")
	require.NoError(t, err)
	assert.Equal(t, ir.StatusApproved, resp.Data.Status)
}

func TestCLI_UpdateAndHistory(t *testing.T) {
	env := newCLIEnv(t)
	web := env.suggest("alice", "Web Development", "javascript")

	updated, err := runJSON[ir.Lineage](env, "update", web.OriginID, "--as", "alice",
		"--name", "Web Development", "--tag", "typescript", "--revision", web.RevisionID)
	require.NoError(t, err)
	assert.Equal(t, web.OriginID, updated.Data.OriginID)
	assert.NotEqual(t, web.RevisionID, updated.Data.RevisionID)
	assert.Equal(t, []string{"typescript"}, updated.Data.Tags)

	stale, err := runJSON[ir.Lineage](env, "update", web.OriginID, "--as", "alice",
		"--name", "Web", "--revision", web.RevisionID)
	requireEngineError(t, err, stale.Error, engine.ErrCodeConflict)

	other, err := runJSON[ir.Lineage](env, "update", web.OriginID, "--as", "bob", "--name", "Web")
	requireEngineError(t, err, other.Error, engine.ErrCodeUnauthorized)

	// Any revision id resolves to the lineage.
	got, err := runJSON[GetResult](env, "get", web.RevisionID, "--history")
	require.NoError(t, err)
	assert.Equal(t, web.OriginID, got.Data.OriginID)
	assert.Equal(t, updated.Data.RevisionID, got.Data.RevisionID)
	require.Len(t, got.Data.Revisions, 2)
	assert.Equal(t, web.RevisionID, got.Data.Revisions[1].PreviousID)
}

func TestCLI_DeleteRemovesFromQueries(t *testing.T) {
	env := newCLIEnv(t)
	web := env.suggest("alice", "Web Development", "javascript")

	_, err := runJSON[map[string]any](env, "delete", web.OriginID, "--as", "alice")
	require.NoError(t, err)

	missing, err := runJSON[GetResult](env, "get", web.OriginID)
	requireEngineError(t, err, missing.Error, engine.ErrCodeNotFound)

	tags, err := runJSON[[]string](env, "tags", "--view", "all")
	require.NoError(t, err)
	assert.Empty(t, tags.Data)
}

func TestCLI_Links(t *testing.T) {
	env := newCLIEnv(t)
	web := env.suggest("alice", "Web Development", "javascript")

	notApproved, err := runJSON[ir.Link](env, "link", web.OriginID, "request/r1")
	requireEngineError(t, err, notApproved.Error, engine.ErrCodeNotApproved)

	_, err = env.run("json", "approve", web.OriginID, "--as", "admin")
	require.NoError(t, err)

	_, err = runJSON[ir.Link](env, "link", web.OriginID, "request/r1")
	require.NoError(t, err)
	_, err = runJSON[ir.Link](env, "link", web.OriginID, "offer/o1")
	require.NoError(t, err)

	byPosting, err := runJSON[LinksResult](env, "links", "--posting", "request/r1")
	require.NoError(t, err)
	assert.Equal(t, []string{web.OriginID}, byPosting.Data.ServiceTypes)

	byOrigin, err := runJSON[LinksResult](env, "links", web.OriginID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ir.PostingRef{
		{ID: "r1", Kind: ir.KindRequest},
		{ID: "o1", Kind: ir.KindOffer},
	}, byOrigin.Data.Postings)

	cleared, err := runJSON[LinksResult](env, "replace-links", "request/r1")
	require.NoError(t, err)
	assert.Empty(t, cleared.Data.ServiceTypes)

	_, err = runJSON[LinksResult](env, "clear-links", "offer/o1")
	require.NoError(t, err)

	report, err := runJSON[engine.Report](env, "verify")
	require.NoError(t, err)
	assert.True(t, report.Data.Clean())
}

func TestCLI_UsageErrors(t *testing.T) {
	env := newCLIEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad posting", []string{"link", "abc", "request"}},
		{"bad posting kind", []string{"link", "abc", "invoice/1"}},
		{"bad status", []string{"list", "--status", "archived"}},
		{"bad view", []string{"tags", "--view", "everything"}},
		{"search needs a criterion", []string{"search"}},
		{"search takes one criterion", []string{"search", "--tag", "a", "--prefix", "b"}},
		{"links needs a target", []string{"links"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := runJSON[any](env, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeUsage, resp.Error.Code)
		})
	}
}

func TestCLI_Statistics(t *testing.T) {
	env := newCLIEnv(t)
	for _, name := range []string{"Web Development", "Frontend"} {
		_, err := env.run("json", "create", "--as", "admin", "--name", name, "--tag", "javascript")
		require.NoError(t, err)
	}
	env.suggest("alice", "Backend", "javascript", "go")

	stats, err := runJSON[[]ir.TagCount](env, "stats")
	require.NoError(t, err)
	assert.Equal(t, []ir.TagCount{{Tag: "javascript", Count: 2}}, stats.Data)

	stats, err = runJSON[[]ir.TagCount](env, "stats", "--view", "all")
	require.NoError(t, err)
	assert.Equal(t, []ir.TagCount{{Tag: "javascript", Count: 3}, {Tag: "go", Count: 1}}, stats.Data)
}

func TestCLI_Seed(t *testing.T) {
	env := newCLIEnv(t)
	dir := writeCatalog(t, map[string]string{"catalog.cue": validCatalog})

	seeded, err := runJSON[SeedResult](env, "seed", dir, "--as", "admin")
	require.NoError(t, err)
	require.Len(t, seeded.Data.Created, 2)
	assert.Equal(t, "web", seeded.Data.Created[0].Key)
	assert.Equal(t, ir.StatusApproved, seeded.Data.Created[0].Status)
	assert.Equal(t, "design", seeded.Data.Created[1].Key)
	assert.Equal(t, ir.StatusPending, seeded.Data.Created[1].Status)

	tags, err := runJSON[[]string](env, "tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"javascript", "react"}, tags.Data)
}

func TestCLI_SeedNeedsAdminForApprovedEntries(t *testing.T) {
	env := newCLIEnv(t)
	dir := writeCatalog(t, map[string]string{"catalog.cue": validCatalog})

	resp, err := runJSON[SeedResult](env, "seed", dir, "--as", "alice")
	requireEngineError(t, err, resp.Error, engine.ErrCodeUnauthorized)
}

func TestCLI_SeedInvalidCatalogWritesNothing(t *testing.T) {
	env := newCLIEnv(t)
	dir := writeCatalog(t, map[string]string{
		"catalog.cue": `service_type: { a: { name: "Same" }, b: { name: "Same" } }`,
	})

	_, err := env.run("json", "seed", dir, "--as", "admin")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	pending, err := runJSON[[]ir.Lineage](env, "list")
	require.NoError(t, err)
	assert.Empty(t, pending.Data)
}

func TestCLI_TextOutput(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("text", "suggest", "--as", "alice", "--name", "Web Development", "--tag", "javascript")
	require.NoError(t, err)
	assert.Contains(t, out, "Web Development  [pending]")
	assert.Contains(t, out, "tags: javascript")

	out, err = env.run("text", "list", "--status", "approved")
	require.NoError(t, err)
	assert.Equal(t, "No service types.\n", out)

	out, err = env.run("text", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Clean")

	out, err = env.run("text", "approve", "missing", "--as", "admin")
	require.Error(t, err)
	assert.Contains(t, out, "Error [NOT_FOUND]")
}
