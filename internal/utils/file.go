package utils

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileHash calculates the MD5 hash of a file.
func FileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// CopyFile copies src to dst through a temp file in the destination
// directory, so a crash mid-copy never leaves a half-written dst behind.
// The source's modification time is carried over to dst. Returns the
// number of bytes copied.
func CopyFile(src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, err
	}

	if err := EnsureParent(dst); err != nil {
		return 0, err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer srcFile.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".driftsync-*")
	if err != nil {
		return 0, err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	written, err := io.Copy(tmp, srcFile)
	if err != nil {
		return written, err
	}
	if err := tmp.Close(); err != nil {
		return written, err
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return written, err
	}

	// Keep the replica's mtime in step with the source so cheap
	// fingerprint comparisons hold on the next pass.
	if err := os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return written, err
	}

	return written, nil
}
