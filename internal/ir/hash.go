package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainRevision = "stgov/revision/v" + SchemaVersion
	DomainSnapshot = "stgov/snapshot/v" + SchemaVersion
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RevisionID computes the content-addressed ID of a revision.
// previousID is empty for the first revision of a lineage.
//
// The author and seq are part of the hash so that two callers suggesting
// identical content still get distinct lineages.
func RevisionID(content Content, previousID, author string, seq int64) (string, error) {
	obj := Object{
		"content":  content.Object(),
		"previous": String(previousID),
		"author":   String(author),
		"seq":      Int(seq),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RevisionID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainRevision, canonical), nil
}

// SnapshotHash computes a stable digest of any canonical value.
// Used to compare rebuilt and incrementally maintained index state.
func SnapshotHash(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("SnapshotHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// MustRevisionID is like RevisionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRevisionID(content Content, previousID, author string, seq int64) string {
	id, err := RevisionID(content, previousID, author, seq)
	if err != nil {
		panic(err)
	}
	return id
}
