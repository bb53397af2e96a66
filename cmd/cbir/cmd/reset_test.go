package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetCmd_SkipsPromptWithYesFlag(t *testing.T) {
	withTestProject(t, 16)
	path := writeTestImage(t, "reset command integration test content")

	addCmd := newAddCmd()
	addCmd.SetArgs([]string{path})
	require.NoError(t, addCmd.Execute())

	cmd := newResetCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--yes"})
	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "reset")
}

func TestResetCmd_RequiresYesFlagWhenStdinNotATerminal(t *testing.T) {
	withTestProject(t, 16)

	// go test's stdin is never an interactive terminal, so the
	// confirmation prompt path is unreachable here without --yes.
	cmd := newResetCmd()
	cmd.SetArgs([]string{})

	err := cmd.Execute()

	assert.Error(t, err)
}
