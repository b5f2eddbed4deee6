package handlers

import (
	"github.com/gitnexus/gitnexus/internal/sync"
)

// FolderView is the wire form of a monitored folder.
type FolderView struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Source              string            `json:"source"`
	Owner               string            `json:"owner"`
	Repo                string            `json:"repo"`
	Branch              string            `json:"branch"`
	Status              sync.FolderStatus `json:"status"`
	LastError           string            `json:"lastError,omitempty"`
	LastSync            string            `json:"lastSync,omitempty"`
	LastSyncTimestamp   int64             `json:"lastSyncTimestamp,omitempty"`
	SyncIntervalMinutes int               `json:"syncInterval"`
}

func toFolderView(f *sync.MonitoredFolder) FolderView {
	return FolderView{
		ID:                  f.ID,
		Name:                f.Name,
		Source:              f.Source.Label(),
		Owner:               f.Owner,
		Repo:                f.Repo,
		Branch:              f.Branch,
		Status:              f.Status,
		LastError:           f.LastError,
		LastSync:            f.LastSync,
		LastSyncTimestamp:   f.LastSyncTimestamp,
		SyncIntervalMinutes: f.SyncIntervalMinutes,
	}
}

// SnapshotFileRequest is one captured file in a snapshot registration.
type SnapshotFileRequest struct {
	Path string `json:"path" binding:"required"`
	// Data is base64, same convention as the push payload.
	Data string `json:"data" binding:"required"`
}

// DraftRequest asks for a registration draft for a local source.
type DraftRequest struct {
	Path  string                `json:"path"`
	Name  string                `json:"name"`
	Files []SnapshotFileRequest `json:"files"`
}

// DraftResponse carries the repository guess and branch choices.
type DraftResponse struct {
	Name     string   `json:"name"`
	Owner    string   `json:"owner"`
	Repo     string   `json:"repo"`
	Branch   string   `json:"branch"`
	Branches []string `json:"branches"`
	Warning  string   `json:"warning,omitempty"`
}

// RegisterFolderRequest finalizes a registration.
type RegisterFolderRequest struct {
	Name  string                `json:"name"`
	Path  string                `json:"path"`
	Files []SnapshotFileRequest `json:"files"`

	Owner  string `json:"owner" binding:"required"`
	Repo   string `json:"repo" binding:"required"`
	Branch string `json:"branch"`

	CreateNewBranch bool   `json:"createNewBranch"`
	NewBranchName   string `json:"newBranchName"`

	SyncIntervalMinutes int `json:"syncInterval"`
}

// UpdateFolderRequest edits a registration in place.
type UpdateFolderRequest struct {
	Branch              *string `json:"branch"`
	SyncIntervalMinutes *int    `json:"syncInterval"`
}

// PushRequest is a manual single-file edit.
type PushRequest struct {
	FolderID string `json:"folderId" binding:"required"`
	Path     string `json:"path" binding:"required"`
	// Content is the raw text; ContentBase64 takes precedence for
	// binary payloads.
	Content       string `json:"content"`
	ContentBase64 string `json:"contentBase64"`
}
