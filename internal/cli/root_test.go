package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "stgov", cmd.Use)
	assert.Contains(t, cmd.Long, "service types")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"suggest", "create", "update", "delete",
		"approve", "reject", "reject-approved",
		"link", "unlink", "replace-links", "clear-links", "links",
		"get", "list", "tags", "search", "stats", "events",
		"verify", "reindex", "seed", "validate", "test", "serve",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "stgov.db", dbFlag.DefValue)

	for _, name := range []string{"as", "permission", "admin", "log-level", "listen", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
}

func TestContentFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"suggest", "create", "update"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			for _, flag := range []string{"name", "description", "category", "technical", "tag"} {
				assert.NotNil(t, sub.Flags().Lookup(flag), "missing flag %s", flag)
			}
		})
	}
}

func TestUpdateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	updateCmd, _, err := cmd.Find([]string{"update"})
	require.NoError(t, err)

	revisionFlag := updateCmd.Flags().Lookup("revision")
	require.NotNil(t, revisionFlag)
	assert.Equal(t, "", revisionFlag.DefValue)
}

func TestQueryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	listCmd, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)
	statusFlag := listCmd.Flags().Lookup("status")
	require.NotNil(t, statusFlag)
	assert.Equal(t, "pending", statusFlag.DefValue)

	for _, name := range []string{"tags", "search", "stats"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		viewFlag := sub.Flags().Lookup("view")
		require.NotNil(t, viewFlag, "%s should have --view", name)
		assert.Equal(t, "discovery", viewFlag.DefValue)
	}
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	pollFlag := serveCmd.Flags().Lookup("poll-interval")
	require.NotNil(t, pollFlag)
	assert.Equal(t, "1s", pollFlag.DefValue)

	replayFlag := serveCmd.Flags().Lookup("replay")
	require.NotNil(t, replayFlag)
	assert.Equal(t, "false", replayFlag.DefValue)

	assert.Contains(t, serveCmd.Long, "outbox")
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "tags"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidLogLevel(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--log-level", "loud", "tags"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
