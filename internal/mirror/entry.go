package mirror

import (
	"sync"
	"time"

	"github.com/driftsync/driftsync/internal/utils"
)

type EntryKind uint8

const (
	KindFile EntryKind = iota
	KindDir
)

var kindNames = []string{"file", "dir"}

func (k EntryKind) String() string {
	return kindNames[k]
}

// Entry is a single node of a scanned tree, identified by its
// slash-normalized path relative to the tree root.
type Entry struct {
	RelPath string
	AbsPath string
	Kind    EntryKind
	Size    int64
	ModTime time.Time

	etagOnce sync.Once
	etag     string
	etagErr  error
}

func (e *Entry) IsDir() bool {
	return e.Kind == KindDir
}

// ETag returns the MD5 content hash of a file entry. The hash is computed
// on first use and memoized for the remainder of the pass.
func (e *Entry) ETag() (string, error) {
	e.etagOnce.Do(func() {
		e.etag, e.etagErr = utils.FileHash(e.AbsPath)
	})
	return e.etag, e.etagErr
}
