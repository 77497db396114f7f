package mirror

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS passes (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    started       TEXT    NOT NULL, -- RFC3339
    took_ms       INTEGER NOT NULL,
    dirs_created  INTEGER NOT NULL,
    files_copied  INTEGER NOT NULL,
    files_updated INTEGER NOT NULL,
    replaced      INTEGER NOT NULL,
    deleted       INTEGER NOT NULL,
    unchanged     INTEGER NOT NULL,
    errors        INTEGER NOT NULL,
    bytes_copied  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS actions (
    pass_id INTEGER NOT NULL REFERENCES passes(id),
    op      TEXT    NOT NULL,
    path    TEXT    NOT NULL,
    error   TEXT
);

CREATE INDEX IF NOT EXISTS idx_actions_pass ON actions(pass_id);
CREATE INDEX IF NOT EXISTS idx_actions_path ON actions(path);
`

// PassJournal is an append-only SQLite audit of passes and the actions they
// applied. It is a record, not state: every pass still derives its plan
// fresh from the two trees.
type PassJournal struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// NewPassJournal creates or opens the journal database at dbPath.
func NewPassJournal(dbPath string) (*PassJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db at %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // SQLite best practice for WAL mode

	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}

	return &PassJournal{db: db, dbPath: dbPath}, nil
}

func (j *PassJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// RecordPass appends one pass row plus all of its actions in a single
// transaction.
func (j *PassJournal) RecordPass(stats *PassStats) error {
	if stats == nil {
		return fmt.Errorf("cannot record nil stats")
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO passes (started, took_ms, dirs_created, files_copied, files_updated, replaced, deleted, unchanged, errors, bytes_copied)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.Started.Format(time.RFC3339), stats.Took.Milliseconds(),
		stats.DirsCreated, stats.FilesCopied, stats.FilesUpdated,
		stats.Replaced, stats.Deleted, stats.Unchanged, stats.Errors,
		stats.BytesCopied,
	)
	if err != nil {
		return fmt.Errorf("record pass: %w", err)
	}

	passID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("pass id: %w", err)
	}

	for _, action := range stats.Actions {
		var actionErr any
		if action.Err != nil {
			actionErr = action.Err.Error()
		}
		if _, err := tx.Exec(
			"INSERT INTO actions (pass_id, op, path, error) VALUES (?, ?, ?, ?)",
			passID, action.Op.String(), action.RelPath, actionErr,
		); err != nil {
			return fmt.Errorf("record action %s: %w", action.RelPath, err)
		}
	}

	return tx.Commit()
}

// PassCount returns the number of recorded passes.
func (j *PassJournal) PassCount() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var count int
	if err := j.db.QueryRow("SELECT COUNT(*) FROM passes").Scan(&count); err != nil {
		return 0, fmt.Errorf("count passes: %w", err)
	}
	return count, nil
}

// ActionCount returns the number of actions recorded for a pass.
func (j *PassJournal) ActionCount(passID int64) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var count int
	if err := j.db.QueryRow("SELECT COUNT(*) FROM actions WHERE pass_id = ?", passID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count actions: %w", err)
	}
	return count, nil
}
