package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

var ErrNotADirectory = errors.New("not a directory")

// Walk scans the tree rooted at root and returns every file and directory
// under it, keyed by slash-normalized path relative to root. The root itself
// is not included. Symlinks and other non-regular files are skipped with a
// warning; stat failures inside the tree are warned about and skipped so one
// bad entry never aborts the scan.
func Walk(ctx context.Context, root string) (map[string]*Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "walk", Path: root, Err: ErrNotADirectory}
	}

	state := make(map[string]*Entry)

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("walk", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.Type()&fs.ModeSymlink != 0 || (!d.IsDir() && !d.Type().IsRegular()) {
			slog.Warn("walk skipping non-regular entry", "path", path, "mode", d.Type().String())
			return nil
		}

		if d.IsDir() {
			state[relPath] = &Entry{RelPath: relPath, AbsPath: path, Kind: KindDir}
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			slog.Warn("walk", "path", path, "error", err)
			return nil
		}

		state[relPath] = &Entry{
			RelPath: relPath,
			AbsPath: path,
			Kind:    KindFile,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		}
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, err
	}

	return state, nil
}
