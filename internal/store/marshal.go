package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/stgov/internal/ir"
)

// marshalTags converts a tag list to JSON TEXT for storage.
// Tags are stored exactly as given: no NFC normalization, since tag lookups
// are byte-exact and must round-trip unchanged.
func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tags); err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalTags parses JSON TEXT to a tag list. The result is never nil.
func unmarshalTags(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(data), &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanLineage reads one row selected with querysql.LineageColumns.
func scanLineage(row rowScanner) (ir.Lineage, error) {
	var (
		l         ir.Lineage
		technical int
		tagsJSON  string
		status    string
		deleted   int
	)
	err := row.Scan(
		&l.OriginID,
		&l.RevisionID,
		&l.Name,
		&l.Description,
		&l.Category,
		&technical,
		&tagsJSON,
		&status,
		&l.Author,
		&l.CreatedSeq,
		&l.UpdatedSeq,
		&deleted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Lineage{}, ErrNotFound
		}
		return ir.Lineage{}, fmt.Errorf("scan lineage: %w", err)
	}

	tags, err := unmarshalTags(tagsJSON)
	if err != nil {
		return ir.Lineage{}, fmt.Errorf("scan lineage %s: %w", l.OriginID, err)
	}
	l.Tags = tags
	l.Technical = technical != 0
	l.Status = ir.Status(status)
	l.Deleted = deleted != 0
	return l, nil
}

// scanRevision reads one row from the revisions table.
func scanRevision(row rowScanner) (ir.Revision, error) {
	var (
		r         ir.Revision
		technical int
		tagsJSON  string
	)
	err := row.Scan(
		&r.ID,
		&r.OriginID,
		&r.PreviousID,
		&r.Content.Name,
		&r.Content.Description,
		&r.Content.Category,
		&technical,
		&tagsJSON,
		&r.Author,
		&r.Seq,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Revision{}, ErrNotFound
		}
		return ir.Revision{}, fmt.Errorf("scan revision: %w", err)
	}

	tags, err := unmarshalTags(tagsJSON)
	if err != nil {
		return ir.Revision{}, fmt.Errorf("scan revision %s: %w", r.ID, err)
	}
	r.Content.Tags = tags
	r.Content.Technical = technical != 0
	return r, nil
}

const revisionColumns = `id, origin_id, previous_id, name, description, category, technical, tags, author, seq`
