package mirror

import (
	"fmt"
	"log/slog"
	"time"
)

// Comparator decides whether a replica file's content is stale relative to
// its source counterpart. Both entries are regular files.
type Comparator interface {
	HasChanged(src, dst *Entry) (bool, error)
}

const (
	CompareSmart = "smart"
	CompareSize  = "size"
	CompareHash  = "hash"
)

// NewComparator returns the comparator for a strategy name.
func NewComparator(strategy string) (Comparator, error) {
	switch strategy {
	case CompareSmart, "":
		return NewSmartComparator(), nil
	case CompareSize:
		return &SizeOnlyComparator{}, nil
	case CompareHash:
		return &ChecksumComparator{}, nil
	default:
		return nil, fmt.Errorf("unknown compare strategy %q", strategy)
	}
}

// SmartComparator is the default strategy: different sizes mean changed,
// equal sizes are settled by MD5, and a hash failure falls back to
// modification time with a small tolerance.
type SmartComparator struct {
	// MaxTimeDiff is the tolerance for the mtime fallback, absorbing
	// filesystems with coarse timestamp resolution.
	MaxTimeDiff time.Duration
}

func NewSmartComparator() *SmartComparator {
	return &SmartComparator{MaxTimeDiff: 2 * time.Second}
}

func (c *SmartComparator) HasChanged(src, dst *Entry) (bool, error) {
	if src.Size != dst.Size {
		return true, nil
	}

	srcTag, err := src.ETag()
	if err == nil {
		dstTag, dstErr := dst.ETag()
		if dstErr == nil {
			return srcTag != dstTag, nil
		}
		err = dstErr
	}

	slog.Warn("compare falling back to mtime", "path", src.RelPath, "error", err)
	return changedByTime(src, dst, c.MaxTimeDiff), nil
}

// SizeOnlyComparator only compares sizes. Fastest, but misses changes that
// keep the size identical.
type SizeOnlyComparator struct{}

func (c *SizeOnlyComparator) HasChanged(src, dst *Entry) (bool, error) {
	return src.Size != dst.Size, nil
}

// ChecksumComparator always hashes both files.
type ChecksumComparator struct{}

func (c *ChecksumComparator) HasChanged(src, dst *Entry) (bool, error) {
	srcTag, err := src.ETag()
	if err != nil {
		return false, fmt.Errorf("hash source %s: %w", src.RelPath, err)
	}
	dstTag, err := dst.ETag()
	if err != nil {
		return false, fmt.Errorf("hash replica %s: %w", dst.RelPath, err)
	}
	return srcTag != dstTag, nil
}

func changedByTime(src, dst *Entry, tolerance time.Duration) bool {
	diff := src.ModTime.Sub(dst.ModTime)
	if diff < 0 {
		diff = -diff
	}
	return diff > tolerance
}
