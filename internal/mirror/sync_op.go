package mirror

type OpType uint8

var opTypeNames = []string{
	"Mkdir",
	"Copy",
	"Update",
	"Replace",
	"Delete",
}

const (
	OpMkdir OpType = iota
	OpCopy
	OpUpdate
	OpReplace
	OpDelete
)

func (op OpType) String() string {
	return opTypeNames[op]
}

// SyncOperation is one planned mutation of the replica tree.
type SyncOperation struct {
	Op      OpType
	RelPath string
	Source  *Entry
	Replica *Entry
}
