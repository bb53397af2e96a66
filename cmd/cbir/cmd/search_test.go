package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCmd_FindsIndexedImage(t *testing.T) {
	withTestProject(t, 16)
	path := writeTestImage(t, "search command integration test content")

	addCmd := newAddCmd()
	addCmd.SetArgs([]string{path})
	require.NoError(t, addCmd.Execute())

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--k", "1", "--method", "brute_force"})
	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), path)
}

func TestSearchCmd_EmptyStoreReportsNoResults(t *testing.T) {
	withTestProject(t, 16)
	path := writeTestImage(t, "query image with nothing indexed yet")

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no results")
}
