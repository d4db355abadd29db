package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir_CreatesDirectory(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "state", "nested", "client.db")

	got, err := EnsureParentDir(file)
	require.NoError(t, err)
	require.Equal(t, file, got)

	fi, err := os.Stat(filepath.Dir(file))
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
	}
}

func TestEnsureParentDir_Idempotent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state", "client.db")

	first, err := EnsureParentDir(file)
	require.NoError(t, err)
	second, err := EnsureParentDir(file)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureParentDir_FailsIfFileBlocksDirectory(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "state"), []byte("x"), 0o600))

	_, err := EnsureParentDir(filepath.Join(tmp, "state", "client.db"))
	require.Error(t, err)
}

func TestWritePrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "archive.json")
	require.NoError(t, WritePrivateFile(path, []byte(`{"entries":[]}`)))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"entries":[]}`, string(b))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}
}
