package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stgov/internal/compiler"
)

const validCatalog = `
service_type: {
	web: {
		name:     "Web Development"
		category: "engineering"
		tags: ["javascript", "react"]
		status: "approved"
	}
	design: {
		name: "Graphic Design"
		tags: ["design"]
	}
}
`

// writeCatalog writes files into a fresh catalog directory.
func writeCatalog(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func runValidateCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidCatalog(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"catalog.cue": validCatalog})

	output, err := runValidateCmd(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ Catalog valid (2 service types)")
}

func TestValidateValidCatalogJSON(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"catalog.cue": validCatalog})

	output, err := runValidateCmd(t, "json", dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Entries)
}

func TestValidateCatalogAcrossFiles(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"a.cue": `service_type: web: { name: "Web Development", tags: ["javascript"] }`,
		"b.cue": `service_type: api: { name: "API Design", tags: ["backend"] }`,
	})

	output, err := runValidateCmd(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "(2 service types)")
}

func TestValidateNonExistentDirectory(t *testing.T) {
	output, err := runValidateCmd(t, "text", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, output, "not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateEmptyDirectory(t *testing.T) {
	output, err := runValidateCmd(t, "text", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
	assert.Contains(t, output, "no CUE files found")
}

func TestValidateNoServiceTypes(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"catalog.cue": `other: 1`})

	output, err := runValidateCmd(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "no service types found")
}

func TestValidateMissingName(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"catalog.cue": `service_type: web: { tags: ["javascript"] }`,
	})

	output, err := runValidateCmd(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, compiler.ErrNameEmpty)
	assert.Contains(t, output, "service_type.web")
}

func TestValidateInvalidCatalogJSON(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"catalog.cue": `
service_type: {
	web: { name: "Web Development", tags: ["javascript", "javascript"] }
	web2: { name: "Web Development" }
	ops: { name: "Operations", status: "rejected" }
}
`,
	})

	output, err := runValidateCmd(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Error)

	codes := make([]string, 0, len(resp.Data.Errors))
	for _, e := range resp.Data.Errors {
		codes = append(codes, e.Code)
	}
	assert.ElementsMatch(t, []string{
		compiler.ErrTagDuplicate,
		compiler.ErrDuplicateName,
		compiler.ErrInvalidStatus,
	}, codes)
}

func TestValidateCollectsCompileErrors(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"catalog.cue": `
service_type: {
	web: { name: "Web Development", tags: [1] }
	api: { description: "no name" }
	ops: { name: "Operations" }
}
`,
	})

	output, err := runValidateCmd(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, output, "service_type.web: tags[0] must be a string")
	assert.Contains(t, output, "service_type.api: name is required")
}

func TestValidateSyntaxError(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"catalog.cue": `service_type: web: { name: "Web Development"`,
	})

	_, err := runValidateCmd(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateVerboseOutput(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"catalog.cue": validCatalog})

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbose: true}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errBuf.String(), "Found 1 CUE file(s)")
	assert.Contains(t, errBuf.String(), "Validating service type: web")
}

func TestFindCUEFiles(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"b.cue":     "",
		"a.cue":     "",
		"notes.txt": "",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.cue"), nil, 0644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.cue", "b.cue"}, files)
}

func TestLoadCatalog_FailFast(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"catalog.cue": `
service_type: {
	bad1: { tags: ["x"] }
	bad2: { tags: ["y"] }
}
`,
	})

	_, failFast := LoadCatalog(dir, LoadModeFailFast)
	assert.Len(t, failFast, 1)

	_, all := LoadCatalog(dir, LoadModeCollectAll)
	assert.Len(t, all, 2)
}

func TestLoadCatalog_SourceOrder(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"catalog.cue": validCatalog})

	result, errs := LoadCatalog(dir, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, result.Drafts, 2)
	assert.Equal(t, "web", result.Drafts[0].Key)
	assert.Equal(t, "design", result.Drafts[1].Key)
	assert.Equal(t, 1, result.FileCount)
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"name", compiler.ErrNameEmpty},
		{"tags", compiler.ErrTagInvalid},
		{"status", compiler.ErrInvalidStatus},
		{"cue", ErrCodeBuildFailed},
		{"other", ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}
