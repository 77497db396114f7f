package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	t.Run("empty path errors", func(t *testing.T) {
		_, err := ResolvePath("")
		assert.Error(t, err)
	})

	t.Run("relative becomes absolute", func(t *testing.T) {
		resolved, err := ResolvePath("some/rel/path")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(resolved))
	})

	t.Run("tilde expands to home", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)
		resolved, err := ResolvePath("~/stuff")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(resolved, home))
	})

	t.Run("dots are cleaned", func(t *testing.T) {
		resolved, err := ResolvePath("/a/b/../c/./d")
		require.NoError(t, err)
		assert.Equal(t, filepath.FromSlash("/a/c/d"), resolved)
	})
}

func TestEnsureDirAndParent(t *testing.T) {
	tmp := t.TempDir()

	dir := filepath.Join(tmp, "x", "y")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))

	// idempotent
	require.NoError(t, EnsureDir(dir))

	file := filepath.Join(tmp, "a", "b", "f.txt")
	require.NoError(t, EnsureParent(file))
	assert.True(t, DirExists(filepath.Join(tmp, "a", "b")))
}

func TestDirAndFileExists(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, DirExists(tmp))
	assert.False(t, DirExists(file))
	assert.True(t, FileExists(file))
	assert.False(t, FileExists(tmp))
	assert.False(t, FileExists(filepath.Join(tmp, "nope")))
}

func TestIsWithin(t *testing.T) {
	cases := []struct {
		name   string
		parent string
		child  string
		within bool
	}{
		{"same path", "/a/b", "/a/b", true},
		{"direct child", "/a/b", "/a/b/c", true},
		{"deep child", "/a/b", "/a/b/c/d/e", true},
		{"sibling", "/a/b", "/a/bc", false},
		{"parent of parent", "/a/b", "/a", false},
		{"unrelated", "/a/b", "/x/y", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			parent := filepath.FromSlash(c.parent)
			child := filepath.FromSlash(c.child)
			assert.Equal(t, c.within, IsWithin(parent, child))
		})
	}
}
