package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCmd_ReportsItemCountAndCategory(t *testing.T) {
	withTestProject(t, 16)
	path := writeTestImage(t, "status command integration test content")

	addCmd := newAddCmd()
	addCmd.SetArgs([]string{path, "--category", "demo"})
	require.NoError(t, addCmd.Execute())

	cmd := newStatusCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})
	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "items:      1")
	assert.Contains(t, output, "demo")
}

func TestStatusCmd_EmptyStoreReportsZeroItems(t *testing.T) {
	withTestProject(t, 16)

	cmd := newStatusCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})
	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "items:      0")
}
