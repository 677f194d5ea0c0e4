package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineageJSONFieldNaming(t *testing.T) {
	l := Lineage{
		OriginID:   "o1",
		RevisionID: "r1",
		Content:    Content{Name: "Design", Tags: []string{"ux"}},
		Status:     StatusPending,
		CreatedSeq: 1,
		UpdatedSeq: 1,
	}
	data, err := json.Marshal(l)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"origin_id":"o1"`)
	assert.Contains(t, s, `"revision_id":"r1"`)
	assert.Contains(t, s, `"name":"Design"`, "content fields are flattened")
	assert.Contains(t, s, `"status":"pending"`)
	assert.Contains(t, s, `"created_seq":1`)
	assert.NotContains(t, s, `"deleted"`, "live lineages omit the tombstone flag")
	assert.NotContains(t, s, `"originId"`)
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "approved", "rejected"} {
		st, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), st)
	}

	_, err := ParseStatus("Approved")
	assert.Error(t, err, "status names are lower case")
	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestParseEntityKind(t *testing.T) {
	k, err := ParseEntityKind("offer")
	require.NoError(t, err)
	assert.Equal(t, KindOffer, k)

	_, err = ParseEntityKind("posting")
	assert.Error(t, err)
}

func TestSecurityContext(t *testing.T) {
	assert.False(t, SecurityContext{}.Authenticated())

	sc := SecurityContext{UserID: "alice", Permissions: []string{"service_types:admin"}}
	assert.True(t, sc.Authenticated())
	assert.True(t, sc.HasPermission("service_types:admin"))
	assert.False(t, sc.HasPermission("other"))
}

func TestPostingRefString(t *testing.T) {
	assert.Equal(t, "request/p1", PostingRef{ID: "p1", Kind: KindRequest}.String())
}

func TestToValueConversions(t *testing.T) {
	v, err := ToValue(map[string]any{"n": 3, "tags": []string{"a"}})
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, Int(3), obj["n"])
	assert.Equal(t, Array{String("a")}, obj["tags"])
}
