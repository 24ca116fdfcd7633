package fs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWriteFileAtomic(t *testing.T) {
	t.Run("creates and replaces", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "note.md")

		require.NoError(t, writeFileAtomic(target, []byte("first"), 0644))
		require.NoError(t, writeFileAtomic(target, []byte("second"), 0644))

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
		assert.Equal(t, []string{"note.md"}, listDir(t, dir))
	})

	t.Run("applies permissions", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("permission bits are not enforced on windows")
		}
		target := filepath.Join(t.TempDir(), "private.md")
		require.NoError(t, writeFileAtomic(target, []byte("x"), 0600))

		info, err := os.Stat(target)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("fails without directory", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "missing", "note.md")
		assert.Error(t, writeFileAtomic(target, []byte("x"), 0644))
	})
}

func TestStageFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "note.md")

	staged, err := stageFile(target, []byte("staged"), 0644)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(staged))
	assert.True(t, strings.HasPrefix(filepath.Base(staged), TempFilePrefix))
	assert.NoFileExists(t, target, "nothing is visible before commit")

	require.NoError(t, commitFile(staged, target))
	assert.NoFileExists(t, staged)
	assert.Equal(t, []string{"note.md"}, listDir(t, dir))
}

func TestCommitFile_CleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	staged, err := stageFile(filepath.Join(dir, "note.md"), []byte("x"), 0644)
	require.NoError(t, err)

	err = commitFile(staged, filepath.Join(dir, "missing", "note.md"))
	assert.Error(t, err)
	assert.NoFileExists(t, staged)
}
