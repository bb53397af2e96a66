package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCmd_IndexesImageAndPrintsID(t *testing.T) {
	// Given: a fresh project and an image file on disk
	withTestProject(t, 16)
	path := writeTestImage(t, "add command integration test content block")

	// When: running add with a category flag
	cmd := newAddCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--category", "demo"})
	err := cmd.Execute()

	// Then: it succeeds and reports the new id
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "added")
	assert.Contains(t, buf.String(), path)
}

func TestAddCmd_MissingFileFails(t *testing.T) {
	withTestProject(t, 16)

	cmd := newAddCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/does/not/exist.jpg"})

	err := cmd.Execute()
	assert.Error(t, err)
}
