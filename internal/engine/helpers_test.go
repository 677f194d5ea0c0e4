package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/queryir"
	"github.com/roach88/stgov/internal/store"
)

var (
	admin = ir.SecurityContext{UserID: "admin", Permissions: []string{AdminPermission}}
	alice = ir.SecurityContext{UserID: "alice"}
	bob   = ir.SecurityContext{UserID: "bob"}
	anon  = ir.SecurityContext{}
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(context.Background(), setupTestStore(t), opts...)
	require.NoError(t, err)
	return e
}

func suggest(t *testing.T, e *Engine, name string, tags ...string) ir.Lineage {
	t.Helper()
	l, err := e.Suggest(context.Background(), alice, Input{Name: name, Tags: tags})
	require.NoError(t, err)
	return l
}

func approved(t *testing.T, e *Engine, name string, tags ...string) ir.Lineage {
	t.Helper()
	l, err := e.Create(context.Background(), admin, Input{Name: name, Tags: tags})
	require.NoError(t, err)
	return l
}

func origins(ls []ir.Lineage) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.OriginID
	}
	return out
}

func statusList(t *testing.T, e *Engine, status ir.Status) []string {
	t.Helper()
	ls, err := e.Store().QueryLineages(context.Background(), queryir.ByStatus(status))
	require.NoError(t, err)
	return origins(ls)
}

func byTag(t *testing.T, e *Engine, tag string) []string {
	t.Helper()
	ls, err := e.Store().QueryLineages(context.Background(), queryir.ByTag(queryir.ViewDiscovery, tag))
	require.NoError(t, err)
	return origins(ls)
}

// requireClean asserts the incremental index and links match a rebuild.
func requireClean(t *testing.T, e *Engine) {
	t.Helper()
	report, err := e.Verify(context.Background())
	require.NoError(t, err)
	require.True(t, report.Clean(), "derived state drifted: %+v", report)
}
