package sync

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/gitnexus/gitnexus/internal/localfs"
)

// FolderStatus is the lifecycle state of a monitored folder.
type FolderStatus string

const (
	// StatusIdle means the folder has never completed a cycle.
	StatusIdle FolderStatus = "idle"
	// StatusSyncing means a cycle is in progress. It doubles as the
	// per-folder lock: a folder in this state is never re-entered.
	StatusSyncing FolderStatus = "syncing"
	// StatusActive means the last cycle pushed every file.
	StatusActive FolderStatus = "active"
	// StatusError means the last cycle failed unexpectedly.
	StatusError FolderStatus = "error"
	// StatusPermissionRequired means local read access was revoked
	// and the user must re-authorize the folder.
	StatusPermissionRequired FolderStatus = "permission-required"
)

// MonitoredFolder links one local source to one repository branch.
type MonitoredFolder struct {
	ID     string
	Name   string
	Source localfs.Source

	Owner  string
	Repo   string
	Branch string

	Status    FolderStatus
	LastError string

	// LastSync is the display form; LastSyncTimestamp (unix millis)
	// drives interval arithmetic.
	LastSync          string
	LastSyncTimestamp int64

	// SyncIntervalMinutes of 0 disables automatic scheduling.
	SyncIntervalMinutes int
}

// NewMonitoredFolder materializes a folder registration.
func NewMonitoredFolder(name string, source localfs.Source, owner, repo, branch string, intervalMinutes int) *MonitoredFolder {
	return &MonitoredFolder{
		ID:                  uuid.NewString(),
		Name:                name,
		Source:              source,
		Owner:               owner,
		Repo:                repo,
		Branch:              branch,
		Status:              StatusIdle,
		SyncIntervalMinutes: intervalMinutes,
	}
}

// MarkSynced records a successful cycle completion.
func (f *MonitoredFolder) MarkSynced(at time.Time) {
	f.Status = StatusActive
	f.LastError = ""
	f.LastSync = humanize.Time(at)
	f.LastSyncTimestamp = at.UnixMilli()
}

// DueAt reports whether a scheduled cycle should run at now.
func (f *MonitoredFolder) DueAt(now time.Time) bool {
	if f.SyncIntervalMinutes <= 0 {
		return false
	}
	if f.LastSyncTimestamp == 0 {
		return true
	}
	elapsed := now.Sub(time.UnixMilli(f.LastSyncTimestamp))
	return elapsed >= time.Duration(f.SyncIntervalMinutes)*time.Minute
}
