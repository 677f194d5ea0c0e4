package tagindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDedupesKeepingFirst(t *testing.T) {
	got, err := Normalize([]string{"react", "javascript", "react", "nodejs", "javascript"})
	require.NoError(t, err)
	assert.Equal(t, []string{"react", "javascript", "nodejs"}, got)
}

func TestNormalizeKeepsLiteralTags(t *testing.T) {
	got, err := Normalize([]string{" react", "react", "React", "日本語"})
	require.NoError(t, err)
	assert.Equal(t, []string{" react", "react", "React", "日本語"}, got,
		"whitespace and case are significant")
}

func TestNormalizeNilIsEmpty(t *testing.T) {
	got, err := Normalize(nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalizeRejects(t *testing.T) {
	_, err := Normalize([]string{"ok", ""})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTag)
	assert.Contains(t, err.Error(), "tags[1]")

	_, err = Normalize([]string{"\xff\xfe"})
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name        string
		prev, next  []string
		wantAdded   []string
		wantRemoved []string
	}{
		{"create", nil, []string{"a", "b"}, []string{"a", "b"}, []string{}},
		{"delete", []string{"a", "b"}, nil, []string{}, []string{"a", "b"}},
		{"unchanged", []string{"a", "b"}, []string{"b", "a"}, []string{}, []string{}},
		{"swap one", []string{"a", "b"}, []string{"a", "c"}, []string{"c"}, []string{"b"}},
		{"case differs", []string{"React"}, []string{"react"}, []string{"react"}, []string{"React"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, removed := Diff(tt.prev, tt.next)
			assert.Equal(t, tt.wantAdded, added)
			assert.Equal(t, tt.wantRemoved, removed)
		})
	}
}

func TestFoldAndPrefix(t *testing.T) {
	assert.Equal(t, Fold("react"), Fold("REACT"))
	assert.Equal(t, Fold("Ärger"), Fold("äRGER"))

	assert.True(t, HasPrefixFold("React-Native", "REACT"))
	assert.True(t, HasPrefixFold("react", ""))
	assert.True(t, HasPrefixFold("Éclair", "éC"))
	assert.False(t, HasPrefixFold(" react", "react"), "leading space is not trimmed")
	assert.False(t, HasPrefixFold("re", "react"))
}
