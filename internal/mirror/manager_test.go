package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftsync/driftsync/internal/config"
)

func TestManager_OnceMode(t *testing.T) {
	source := t.TempDir()
	replica := filepath.Join(t.TempDir(), "replica")
	logDir := t.TempDir()
	writeFile(t, source, "a.txt", "hello")

	cfg := &config.Config{
		SourceDir:  source,
		ReplicaDir: replica,
		Frequency:  config.DefaultFrequency,
		LogDir:     logDir,
		Compare:    CompareSmart,
		Once:       true,
	}
	require.NoError(t, cfg.Validate())

	m, err := NewManager(cfg)
	require.NoError(t, err)

	require.NoError(t, m.Run(context.Background()))

	// replica was created and mirrored
	data, err := os.ReadFile(filepath.Join(replica, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// the pass was journaled
	journal, err := NewPassJournal(filepath.Join(logDir, journalFile))
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })
	count, err := journal.PassCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// the lock was released on the way out
	_, statErr := os.Stat(filepath.Join(logDir, lockFile))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestManager_BadCompareStrategy(t *testing.T) {
	cfg := &config.Config{
		SourceDir:  t.TempDir(),
		ReplicaDir: t.TempDir(),
		Frequency:  config.DefaultFrequency,
		Compare:    "bogus",
	}

	_, err := NewManager(cfg)
	assert.Error(t, err)
}
