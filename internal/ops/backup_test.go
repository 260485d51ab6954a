package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupRestoreRoundTrip(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "tasks.json"), []byte(`{"tasks":{}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "streak.json"), []byte(`{"streak":3}`), 0o644))
	// Not a data blob; must not end up in the archive.
	require.NoError(t, os.WriteFile(filepath.Join(src, "server.log"), []byte("noise"), 0o644))

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	require.NoError(t, BackupDataDir(src, archive))

	target := t.TempDir()
	require.NoError(t, RestoreDataDir(archive, target))

	b, err := os.ReadFile(filepath.Join(target, "streak.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"streak":3}`, string(b))

	_, err = os.Stat(filepath.Join(target, "server.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestBackup_MissingBlobsAreSkipped(t *testing.T) {
	src := t.TempDir()
	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	require.NoError(t, BackupDataDir(src, archive))

	target := t.TempDir()
	require.NoError(t, RestoreDataDir(archive, target))
}

func TestBackup_RejectsMissingSource(t *testing.T) {
	err := BackupDataDir(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "x.tar.gz"))
	assert.Error(t, err)
}
