package sync

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	"github.com/gitnexus/gitnexus/internal/db"
	"github.com/gitnexus/gitnexus/internal/localfs"
)

const folderSchema = `
CREATE TABLE IF NOT EXISTS folders (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    source_kind TEXT NOT NULL,       -- 'live' | 'snapshot'
    source_data TEXT NOT NULL,       -- JSON of the variant
    owner TEXT NOT NULL,
    repo TEXT NOT NULL,
    branch TEXT NOT NULL,
    status TEXT NOT NULL,
    last_error TEXT NOT NULL DEFAULT '',
    last_sync TEXT NOT NULL DEFAULT '',
    last_sync_ts INTEGER NOT NULL DEFAULT 0,
    sync_interval_min INTEGER NOT NULL DEFAULT 0
);
`

const (
	sourceKindLive     = "live"
	sourceKindSnapshot = "snapshot"
)

// ErrFolderNotFound is returned when a folder id is not registered.
var ErrFolderNotFound = errors.New("sync: folder not found")

// dbFolder is the row form of a MonitoredFolder.
type dbFolder struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	SourceKind  string `db:"source_kind"`
	SourceData  string `db:"source_data"`
	Owner       string `db:"owner"`
	Repo        string `db:"repo"`
	Branch      string `db:"branch"`
	Status      string `db:"status"`
	LastError   string `db:"last_error"`
	LastSync    string `db:"last_sync"`
	LastSyncTS  int64  `db:"last_sync_ts"`
	IntervalMin int    `db:"sync_interval_min"`
}

// FolderStore is the single owner of the persisted monitored-folder
// collection. Registration and edits replace the whole row keyed by
// id; status transitions update only their own columns so they never
// clobber a concurrent edit.
type FolderStore struct {
	db *sqlx.DB
	mu sync.Mutex
}

// OpenFolderStore opens (and migrates) the folder store at dbPath.
func OpenFolderStore(dbPath string) (*FolderStore, error) {
	d, err := db.NewSqliteDb(db.WithPath(dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("open folder store: %w", err)
	}
	if _, err := d.Exec(folderSchema); err != nil {
		d.Close()
		return nil, fmt.Errorf("init folder schema: %w", err)
	}
	return &FolderStore{db: d}, nil
}

// NewFolderStoreWithDB wraps an existing database handle. The schema
// must be applied by the caller (used by the daemon which shares one
// db between stores).
func NewFolderStoreWithDB(d *sqlx.DB) (*FolderStore, error) {
	if _, err := d.Exec(folderSchema); err != nil {
		return nil, fmt.Errorf("init folder schema: %w", err)
	}
	return &FolderStore{db: d}, nil
}

func (s *FolderStore) Close() error {
	return s.db.Close()
}

// List returns all monitored folders.
func (s *FolderStore) List() ([]*MonitoredFolder, error) {
	var rows []dbFolder
	if err := s.db.Select(&rows, "SELECT * FROM folders ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	folders := make([]*MonitoredFolder, 0, len(rows))
	for _, row := range rows {
		folder, err := rowToFolder(&row)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	return folders, nil
}

// Get returns the current entry for id.
func (s *FolderStore) Get(id string) (*MonitoredFolder, error) {
	var row dbFolder
	err := s.db.Get(&row, "SELECT * FROM folders WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFolderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get folder %s: %w", id, err)
	}
	return rowToFolder(&row)
}

// Put inserts or replaces the whole folder row.
func (s *FolderStore) Put(folder *MonitoredFolder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := folderToRow(folder)
	if err != nil {
		return err
	}

	const q = `INSERT OR REPLACE INTO folders
	    (id, name, source_kind, source_data, owner, repo, branch, status, last_error, last_sync, last_sync_ts, sync_interval_min)
	    VALUES (:id, :name, :source_kind, :source_data, :owner, :repo, :branch, :status, :last_error, :last_sync, :last_sync_ts, :sync_interval_min)`
	if _, err := s.db.NamedExec(q, row); err != nil {
		return fmt.Errorf("put folder %s: %w", folder.ID, err)
	}
	return nil
}

// MarkSynced records a successful cycle in place. Only the status and
// sync bookkeeping columns change, so a branch or interval edit that
// lands mid-cycle survives.
func (s *FolderStore) MarkSynced(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"UPDATE folders SET status = ?, last_error = '', last_sync = ?, last_sync_ts = ? WHERE id = ?",
		string(StatusActive), humanize.Time(at), at.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("mark synced %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFolderNotFound
	}
	return nil
}

// SetStatus transitions the folder's status, clearing or recording
// the failure message.
func (s *FolderStore) SetStatus(id string, status FolderStatus, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE folders SET status = ?, last_error = ? WHERE id = ?", string(status), lastError, id)
	if err != nil {
		return fmt.Errorf("set status %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFolderNotFound
	}
	return nil
}

// Delete removes the folder from the monitored set.
func (s *FolderStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM folders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete folder %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFolderNotFound
	}
	return nil
}

func folderToRow(f *MonitoredFolder) (*dbFolder, error) {
	var kind string
	switch f.Source.(type) {
	case *localfs.LiveDirectory:
		kind = sourceKindLive
	case *localfs.StaticSnapshot:
		kind = sourceKindSnapshot
	default:
		return nil, fmt.Errorf("folder %s has no source", f.ID)
	}

	data, err := json.Marshal(f.Source)
	if err != nil {
		return nil, fmt.Errorf("encode source: %w", err)
	}

	return &dbFolder{
		ID:          f.ID,
		Name:        f.Name,
		SourceKind:  kind,
		SourceData:  string(data),
		Owner:       f.Owner,
		Repo:        f.Repo,
		Branch:      f.Branch,
		Status:      string(f.Status),
		LastError:   f.LastError,
		LastSync:    f.LastSync,
		LastSyncTS:  f.LastSyncTimestamp,
		IntervalMin: f.SyncIntervalMinutes,
	}, nil
}

func rowToFolder(row *dbFolder) (*MonitoredFolder, error) {
	var source localfs.Source
	switch row.SourceKind {
	case sourceKindLive:
		var dir localfs.LiveDirectory
		if err := json.Unmarshal([]byte(row.SourceData), &dir); err != nil {
			return nil, fmt.Errorf("decode live source for %s: %w", row.ID, err)
		}
		source = &dir
	case sourceKindSnapshot:
		var snap localfs.StaticSnapshot
		if err := json.Unmarshal([]byte(row.SourceData), &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot source for %s: %w", row.ID, err)
		}
		source = &snap
	default:
		return nil, fmt.Errorf("folder %s has unknown source kind %q", row.ID, row.SourceKind)
	}

	return &MonitoredFolder{
		ID:                  row.ID,
		Name:                row.Name,
		Source:              source,
		Owner:               row.Owner,
		Repo:                row.Repo,
		Branch:              row.Branch,
		Status:              FolderStatus(row.Status),
		LastError:           row.LastError,
		LastSync:            row.LastSync,
		LastSyncTimestamp:   row.LastSyncTS,
		SyncIntervalMinutes: row.IntervalMin,
	}, nil
}
