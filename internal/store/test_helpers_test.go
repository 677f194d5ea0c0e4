package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stgov/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedLineage writes a first revision, its lineage row, and its tag index
// entries, the way the engine does for suggest/create.
func seedLineage(t *testing.T, s *Store, name string, status ir.Status, seq int64, tags ...string) ir.Lineage {
	t.Helper()
	if tags == nil {
		tags = []string{}
	}
	content := ir.Content{Name: name, Tags: tags}
	id := ir.MustRevisionID(content, "", "alice", seq)

	l := ir.Lineage{
		OriginID:   id,
		RevisionID: id,
		Content:    content,
		Status:     status,
		Author:     "alice",
		CreatedSeq: seq,
		UpdatedSeq: seq,
	}
	err := s.Update(context.Background(), func(tx *Tx) error {
		if err := tx.InsertRevision(context.Background(), ir.Revision{
			ID: id, OriginID: id, Content: content, Author: "alice", Seq: seq,
		}); err != nil {
			return err
		}
		if err := tx.InsertLineage(context.Background(), l); err != nil {
			return err
		}
		return tx.AddTags(context.Background(), id, tags)
	})
	require.NoError(t, err)
	return l
}
