package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"revisions", "lineages", "tag_index", "posting_links", "service_type_links", "events"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM lineages").Scan(&count); err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"}, // ON
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSchema_LineagesTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "lineages")
	expected := []string{"origin_id", "revision_id", "status", "author", "created_seq", "updated_seq", "deleted"}
	for _, col := range expected {
		if !slices.Contains(columns, col) {
			t.Errorf("lineages table missing column %q", col)
		}
	}
}

func TestSchema_TagIndexTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "tag_index")
	for _, col := range []string{"tag", "tag_folded", "origin_id"} {
		if !slices.Contains(columns, col) {
			t.Errorf("tag_index table missing column %q", col)
		}
	}

	indexes := getTableIndexes(t, s.db, "tag_index")
	for _, idx := range []string{"idx_tag_index_origin", "idx_tag_index_folded"} {
		if !slices.Contains(indexes, idx) {
			t.Errorf("tag_index missing index %q, got %v", idx, indexes)
		}
	}
}

func TestConstraint_StatusCheck(t *testing.T) {
	s := createTestStore(t)
	l := seedLineage(t, s, "Web", "pending", 1)

	_, err := s.db.Exec("UPDATE lineages SET status = 'archived' WHERE origin_id = ?", l.OriginID)
	if err == nil {
		t.Error("expected CHECK constraint failure for unknown status")
	}
}

func TestConstraint_LinkRequiresLineage(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(
		"INSERT INTO posting_links (posting_id, kind, origin_id) VALUES ('r1', 'request', 'missing')")
	if err == nil {
		t.Error("expected foreign key failure for link to unknown lineage")
	}
}

func TestUpdate_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	l := seedLineage(t, s, "Web", "pending", 1, "go")

	boom := errors.New("boom")
	err := s.Update(context.Background(), func(tx *Tx) error {
		if _, err := tx.CompareAndSwapStatus(context.Background(), l.OriginID, "pending", "approved", 2); err != nil {
			return err
		}
		if err := tx.RemoveAllTags(context.Background(), l.OriginID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want %v", err, boom)
	}

	got, err := s.GetLineage(context.Background(), l.OriginID)
	if err != nil {
		t.Fatalf("GetLineage() failed: %v", err)
	}
	if got.Status != "pending" {
		t.Errorf("status = %q after rollback, want pending", got.Status)
	}
	entries, err := s.TagEntries(context.Background())
	if err != nil {
		t.Fatalf("TagEntries() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("tag entries = %v after rollback, want 1 entry", entries)
	}
}

// Migration tests

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Apply schema but NOT migrations (simulates pre-migration state)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d after migration", version, currentSchemaVersion)
	}

	indexes := getTableIndexes(t, s.db, "events")
	if !slices.Contains(indexes, "idx_events_origin") {
		t.Errorf("expected idx_events_origin after migration, got indexes: %v", indexes)
	}
}

// Helper functions

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
