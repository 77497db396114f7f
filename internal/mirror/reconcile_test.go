package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileEntry(relPath string, size int64) *Entry {
	return &Entry{RelPath: relPath, Kind: KindFile, Size: size}
}

func dirEntry(relPath string) *Entry {
	return &Entry{RelPath: relPath, Kind: KindDir}
}

func relPaths(ops []*SyncOperation) []string {
	paths := make([]string, 0, len(ops))
	for _, op := range ops {
		paths = append(paths, op.RelPath)
	}
	return paths
}

func TestReconcile_Batches(t *testing.T) {
	src := map[string]*Entry{
		"new.txt":       fileEntry("new.txt", 3),
		"same.txt":      fileEntry("same.txt", 5),
		"changed.txt":   fileEntry("changed.txt", 10),
		"newdir":        dirEntry("newdir"),
		"shared":        dirEntry("shared"),
		"flip":          fileEntry("flip", 1),
		"newdir/in.txt": fileEntry("newdir/in.txt", 2),
	}
	dst := map[string]*Entry{
		"same.txt":    fileEntry("same.txt", 5),
		"changed.txt": fileEntry("changed.txt", 7),
		"shared":      dirEntry("shared"),
		"flip":        dirEntry("flip"),
		"extra.txt":   fileEntry("extra.txt", 4),
		"extradir":    dirEntry("extradir"),
	}

	// size-only keeps the comparison off the filesystem for these
	// fabricated entries
	result := reconcile(src, dst, &SizeOnlyComparator{}, nil)

	assert.Equal(t, []string{"newdir"}, relPaths(result.DirCreates))
	assert.Equal(t, []string{"new.txt", "newdir/in.txt"}, relPaths(result.FileCopies))
	assert.Equal(t, []string{"changed.txt"}, relPaths(result.FileUpdates))
	assert.Equal(t, []string{"flip"}, relPaths(result.KindFlips))
	assert.ElementsMatch(t, []string{"extra.txt", "extradir"}, relPaths(result.Deletes))
	assert.Equal(t, 2, result.Unchanged) // same.txt and shared/
}

func TestReconcile_CreateOrderParentsFirst(t *testing.T) {
	src := map[string]*Entry{
		"a/b/c": dirEntry("a/b/c"),
		"a":     dirEntry("a"),
		"a/b":   dirEntry("a/b"),
	}
	dst := map[string]*Entry{}

	result := reconcile(src, dst, &SizeOnlyComparator{}, nil)
	require.Equal(t, []string{"a", "a/b", "a/b/c"}, relPaths(result.DirCreates))
}

func TestReconcile_DeleteOrderDeepestFirst(t *testing.T) {
	src := map[string]*Entry{}
	dst := map[string]*Entry{
		"a":         dirEntry("a"),
		"a/b":       dirEntry("a/b"),
		"a/b/c.txt": fileEntry("a/b/c.txt", 1),
	}

	result := reconcile(src, dst, &SizeOnlyComparator{}, nil)
	require.Equal(t, []string{"a/b/c.txt", "a/b", "a"}, relPaths(result.Deletes))
}

func TestReconcile_IgnoredPathsOnBothSides(t *testing.T) {
	ignore := NewIgnoreList(t.TempDir())

	src := map[string]*Entry{
		"keep.txt":  fileEntry("keep.txt", 1),
		".DS_Store": fileEntry(".DS_Store", 1),
	}
	dst := map[string]*Entry{
		"junk.tmp": fileEntry("junk.tmp", 1),
	}

	result := reconcile(src, dst, &SizeOnlyComparator{}, ignore)

	assert.Equal(t, []string{"keep.txt"}, relPaths(result.FileCopies))
	assert.Empty(t, result.Deletes)
	assert.Equal(t, 2, result.Ignored)
}

func TestReconcile_DirRuleExcludesDirOnBothSides(t *testing.T) {
	source := t.TempDir()
	writeFile(t, source, IgnoreFileName, "secrets/\n")
	ignore := NewIgnoreList(source)

	t.Run("source dir not created", func(t *testing.T) {
		src := map[string]*Entry{
			"secrets":         dirEntry("secrets"),
			"secrets/key.pem": fileEntry("secrets/key.pem", 8),
			"app.txt":         fileEntry("app.txt", 1),
		}
		result := reconcile(src, map[string]*Entry{}, &SizeOnlyComparator{}, ignore)

		assert.Empty(t, result.DirCreates)
		assert.Equal(t, []string{"app.txt"}, relPaths(result.FileCopies))
		assert.Equal(t, 2, result.Ignored)
	})

	t.Run("replica dir not deleted", func(t *testing.T) {
		dst := map[string]*Entry{
			"secrets":         dirEntry("secrets"),
			"secrets/key.pem": fileEntry("secrets/key.pem", 8),
		}
		result := reconcile(map[string]*Entry{}, dst, &SizeOnlyComparator{}, ignore)

		assert.Empty(t, result.Deletes)
		assert.Equal(t, 2, result.Ignored)
	})
}

func TestReconcile_EmptyPlanWhenIdentical(t *testing.T) {
	src := map[string]*Entry{
		"a.txt": fileEntry("a.txt", 5),
		"sub":   dirEntry("sub"),
	}
	dst := map[string]*Entry{
		"a.txt": fileEntry("a.txt", 5),
		"sub":   dirEntry("sub"),
	}

	result := reconcile(src, dst, &SizeOnlyComparator{}, nil)
	assert.True(t, result.Empty())
	assert.Equal(t, 2, result.Unchanged)
}
