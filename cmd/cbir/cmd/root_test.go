package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RegistersAllSubcommands(t *testing.T) {
	rootCmd := NewRootCmd()

	for _, name := range []string{"add", "search", "delete", "reset", "benchmark", "status", "version"} {
		found, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, "expected %q to be registered", name)
		assert.Equal(t, name, found.Name())
	}
}

func TestRootCmd_HasNoImportSubcommand(t *testing.T) {
	// A bulk importer CLI is explicitly out of scope even though
	// Retriever.ImportBatch is fully implemented and tested.
	rootCmd := NewRootCmd()

	for _, c := range rootCmd.Commands() {
		assert.NotEqual(t, "import", c.Name())
	}
}

func TestRootCmd_JSONErrorsFlagTogglesAccessor(t *testing.T) {
	t.Cleanup(func() { jsonErrors = false })

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"delete", "does-not-matter", "--json-errors"})

	withTestProject(t, 16)
	require.NoError(t, rootCmd.Execute())

	assert.True(t, JSONErrorsEnabled())
}
