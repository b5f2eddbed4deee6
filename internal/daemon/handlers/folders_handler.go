package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitnexus/gitnexus/internal/localfs"
	"github.com/gitnexus/gitnexus/internal/sync"
	"github.com/gitnexus/gitnexus/internal/utils"
)

// FoldersHandler exposes the monitored-folder collection and its
// sync triggers.
type FoldersHandler struct {
	store     *sync.FolderStore
	scheduler *sync.Scheduler
	registrar *sync.Registrar
	executor  *sync.Executor

	// onChanged re-arms the watcher after collection mutations
	onChanged func()
}

func NewFoldersHandler(store *sync.FolderStore, scheduler *sync.Scheduler, registrar *sync.Registrar, executor *sync.Executor, onChanged func()) *FoldersHandler {
	return &FoldersHandler{
		store:     store,
		scheduler: scheduler,
		registrar: registrar,
		executor:  executor,
		onChanged: onChanged,
	}
}

// List returns all monitored folders.
func (h *FoldersHandler) List(c *gin.Context) {
	folders, err := h.store.List()
	if err != nil {
		AbortClassified(c, err)
		return
	}

	views := make([]FolderView, 0, len(folders))
	for _, folder := range folders {
		views = append(views, toFolderView(folder))
	}
	c.JSON(http.StatusOK, gin.H{"folders": views})
}

// Draft builds the pre-registration confirmation state: repository
// guess from git metadata plus the branch list.
func (h *FoldersHandler) Draft(c *gin.Context) {
	var body DraftRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	source, err := sourceFromRequest(body.Path, body.Name, body.Files)
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	draft, err := h.registrar.Draft(c.Request.Context(), source)
	resp := DraftResponse{
		Name:   draft.Name,
		Owner:  draft.Owner,
		Repo:   draft.Repo,
		Branch: draft.Branch,
	}
	for _, b := range draft.Branches {
		resp.Branches = append(resp.Branches, b.Name)
	}
	if err != nil {
		// the guess is still useful; surface the fetch failure so the
		// user can correct owner/repo
		resp.Warning = err.Error()
	}

	c.JSON(http.StatusOK, resp)
}

// Register finalizes a registration and materializes the folder.
func (h *FoldersHandler) Register(c *gin.Context) {
	var body RegisterFolderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	source, err := sourceFromRequest(body.Path, body.Name, body.Files)
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	name := body.Name
	if name == "" {
		name = source.Label()
	}

	draft := &sync.FolderDraft{
		Name:            name,
		Source:          source,
		Owner:           body.Owner,
		Repo:            body.Repo,
		Branch:          body.Branch,
		CreateNewBranch: body.CreateNewBranch,
		NewBranchName:   body.NewBranchName,
	}

	folder, err := h.registrar.Finalize(c.Request.Context(), draft, body.SyncIntervalMinutes)
	if err != nil {
		AbortClassified(c, err)
		return
	}

	h.onChanged()
	c.JSON(http.StatusCreated, toFolderView(folder))
}

// Update edits a folder's branch target or sync interval.
func (h *FoldersHandler) Update(c *gin.Context) {
	var body UpdateFolderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	folder, err := h.store.Get(c.Param("id"))
	if err != nil {
		AbortClassified(c, err)
		return
	}

	if body.Branch != nil && *body.Branch != "" {
		folder.Branch = *body.Branch
	}
	if body.SyncIntervalMinutes != nil && *body.SyncIntervalMinutes >= 0 {
		folder.SyncIntervalMinutes = *body.SyncIntervalMinutes
	}

	if err := h.store.Put(folder); err != nil {
		AbortClassified(c, err)
		return
	}

	c.JSON(http.StatusOK, toFolderView(folder))
}

// Delete removes a folder from the monitored set.
func (h *FoldersHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		AbortClassified(c, err)
		return
	}

	h.onChanged()
	c.JSON(http.StatusOK, ControlPlaneResponse{Code: CodeOk})
}

// Sync force-runs a cycle for one folder, bypassing interval gating.
// The cycle runs in the background; poll the folder status for the
// outcome.
func (h *FoldersHandler) Sync(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.Get(id); err != nil {
		AbortClassified(c, err)
		return
	}

	go func() {
		err := h.scheduler.ForceSync(context.Background(), id)
		if err != nil && !errors.Is(err, sync.ErrCycleRunning) {
			slog.Debug("manual sync finished with error", "folder", id, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "sync started"})
}

// Push performs a manual single-file edit through the same push
// primitive as traversal, tagged separately in the log.
func (h *FoldersHandler) Push(c *gin.Context) {
	var body PushRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	folder, err := h.store.Get(body.FolderID)
	if err != nil {
		AbortClassified(c, err)
		return
	}

	data := []byte(body.Content)
	if body.ContentBase64 != "" {
		data, err = base64.StdEncoding.DecodeString(body.ContentBase64)
		if err != nil {
			AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Errorf("invalid base64 content: %w", err))
			return
		}
	}

	if err := h.executor.PushContent(c.Request.Context(), folder, body.Path, data); err != nil {
		AbortClassified(c, err)
		return
	}

	c.JSON(http.StatusOK, ControlPlaneResponse{Code: CodeOk})
}

// sourceFromRequest builds the Source variant: a path means a live
// directory, an explicit file list means a static snapshot.
func sourceFromRequest(path, name string, files []SnapshotFileRequest) (localfs.Source, error) {
	if path != "" && len(files) > 0 {
		return nil, errors.New("path and files are mutually exclusive")
	}

	if path != "" {
		resolved, err := utils.ResolvePath(path)
		if err != nil {
			return nil, err
		}
		if !utils.DirExists(resolved) {
			return nil, fmt.Errorf("not a directory: %s", resolved)
		}
		return &localfs.LiveDirectory{Root: resolved}, nil
	}

	if len(files) == 0 {
		return nil, errors.New("either path or files is required")
	}

	snap := &localfs.StaticSnapshot{Name: name}
	for _, f := range files {
		data, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 for %s: %w", f.Path, err)
		}
		snap.Files = append(snap.Files, localfs.SnapshotFile{Path: f.Path, Data: data})
	}
	return snap, nil
}
