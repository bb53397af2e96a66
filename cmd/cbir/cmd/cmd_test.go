package cmd

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// withTestProject chdirs into a fresh temp directory and points CBIR_DATA_DIR
// / CBIR_DIMENSIONS at a small, fast configuration for the duration of t,
// mirroring amanmcp's root_test.go temp-dir-plus-chdir pattern.
func withTestProject(t *testing.T, dimensions int) {
	t.Helper()

	projectDir := t.TempDir()
	dataDir := filepath.Join(t.TempDir(), "data")

	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(projectDir))

	t.Setenv("CBIR_DATA_DIR", dataDir)
	t.Setenv("CBIR_DIMENSIONS", strconv.Itoa(dimensions))

	t.Cleanup(func() {
		_ = os.Chdir(oldDir)
	})
}

func writeTestImage(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jpg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
