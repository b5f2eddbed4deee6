package sync

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const logSchema = `
CREATE TABLE IF NOT EXISTS sync_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    folder_name TEXT NOT NULL,
    rel_path TEXT NOT NULL,
    branch TEXT NOT NULL,
    ts TEXT NOT NULL,             -- RFC3339
    type TEXT NOT NULL,           -- 'auto' | 'manual'
    status TEXT NOT NULL,         -- 'success' | 'fail'
    message TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sync_log_ts ON sync_log(ts);
`

// defaultLogCap bounds the retained window; oldest entries are
// silently dropped past it.
const defaultLogCap = 500

// LogType tags how a push was initiated.
type LogType string

const (
	LogTypeAuto   LogType = "auto"
	LogTypeManual LogType = "manual"
)

// LogStatus is the outcome of one push attempt.
type LogStatus string

const (
	LogStatusSuccess LogStatus = "success"
	LogStatusFail    LogStatus = "fail"
)

// LogEntry is an immutable record of one file push attempt.
type LogEntry struct {
	ID         int64     `db:"id" json:"id"`
	FolderName string    `db:"folder_name" json:"folder"`
	RelPath    string    `db:"rel_path" json:"path"`
	Branch     string    `db:"branch" json:"branch"`
	Timestamp  string    `db:"ts" json:"timestamp"`
	Type       LogType   `db:"type" json:"type"`
	Status     LogStatus `db:"status" json:"status"`
	Message    string    `db:"message" json:"message,omitempty"`
}

// LogStore appends and reads the bounded sync log window.
type LogStore struct {
	db  *sqlx.DB
	cap int
}

// NewLogStoreWithDB wraps an existing database handle and applies the
// log schema.
func NewLogStoreWithDB(d *sqlx.DB) (*LogStore, error) {
	if _, err := d.Exec(logSchema); err != nil {
		return nil, fmt.Errorf("init sync log schema: %w", err)
	}
	return &LogStore{db: d, cap: defaultLogCap}, nil
}

// SetCap overrides the retained window size.
func (l *LogStore) SetCap(n int) {
	if n > 0 {
		l.cap = n
	}
}

// Append records one push attempt and trims entries past the cap.
func (l *LogStore) Append(folderName, relPath, branch string, typ LogType, status LogStatus, message string) error {
	entry := LogEntry{
		FolderName: folderName,
		RelPath:    relPath,
		Branch:     branch,
		Timestamp:  time.Now().Format(time.RFC3339),
		Type:       typ,
		Status:     status,
		Message:    message,
	}

	const q = `INSERT INTO sync_log (folder_name, rel_path, branch, ts, type, status, message)
	    VALUES (:folder_name, :rel_path, :branch, :ts, :type, :status, :message)`
	if _, err := l.db.NamedExec(q, entry); err != nil {
		return fmt.Errorf("append sync log: %w", err)
	}

	// drop the oldest rows beyond the window
	const trim = `DELETE FROM sync_log WHERE id NOT IN (SELECT id FROM sync_log ORDER BY id DESC LIMIT ?)`
	if _, err := l.db.Exec(trim, l.cap); err != nil {
		return fmt.Errorf("trim sync log: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *LogStore) Recent(limit int) ([]LogEntry, error) {
	if limit <= 0 || limit > l.cap {
		limit = l.cap
	}
	var entries []LogEntry
	if err := l.db.Select(&entries, "SELECT * FROM sync_log ORDER BY id DESC LIMIT ?", limit); err != nil {
		return nil, fmt.Errorf("read sync log: %w", err)
	}
	return entries, nil
}
