package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/gitnexus/gitnexus/internal/localfs"
)

var (
	// ErrCycleRunning means a sync cycle for this folder id is already
	// in flight; the trigger is a no-op.
	ErrCycleRunning = errors.New("sync: cycle already running for folder")

	// ErrPermissionRequired means the cycle ended because local read
	// access is not granted.
	ErrPermissionRequired = errors.New("sync: folder requires permission")
)

// Trigger distinguishes how a cycle was initiated. Manual triggers
// bypass interval gating and may actively re-request permission.
type Trigger int

const (
	TriggerScheduled Trigger = iota
	TriggerManual
)

// Engine runs sync cycles and owns the folder state machine:
//
//	idle → syncing → active | error | permission-required
//
// Entry into syncing is gated per folder id, so two overlapping
// triggers result in exactly one cycle.
type Engine struct {
	store    *FolderStore
	executor *Executor
	ignore   *IgnoreList

	// ids with a cycle in flight; the persisted syncing status
	// mirrors this set for the UI
	inflight mapset.Set[string]

	now func() time.Time
}

func NewEngine(store *FolderStore, executor *Executor, ignore *IgnoreList) *Engine {
	return &Engine{
		store:    store,
		executor: executor,
		ignore:   ignore,
		inflight: mapset.NewSet[string](),
		now:      time.Now,
	}
}

// SyncFolder runs one full cycle for the folder id: permission check,
// traversal, sequential per-file push, terminal status transition.
func (e *Engine) SyncFolder(ctx context.Context, folderID string, trigger Trigger) error {
	if !e.inflight.Add(folderID) {
		return ErrCycleRunning
	}
	defer e.inflight.Remove(folderID)

	// always look up the latest entry at the point of use; an edit or
	// deletion may have landed since the trigger fired
	folder, err := e.store.Get(folderID)
	if err != nil {
		return err
	}
	if folder.Status == StatusSyncing {
		// stale status from a crashed run; the in-flight set is the
		// authoritative gate, so recover rather than deadlock
		slog.Warn("folder stuck in syncing status, recovering", "folder", folder.Name)
	}

	if err := e.store.SetStatus(folderID, StatusSyncing, ""); err != nil {
		return err
	}

	slog.Info("sync cycle start", "folder", folder.Name, "trigger", triggerName(trigger))
	err = e.runCycle(ctx, folder, trigger)
	return e.finish(folderID, folder.Name, err)
}

func (e *Engine) runCycle(ctx context.Context, folder *MonitoredFolder, trigger Trigger) error {
	mode := localfs.PermissionQuery
	if trigger == TriggerManual {
		mode = localfs.PermissionRequest
	}

	// permission precedes traversal; on failure the cycle ends
	// without touching the remote
	if !localfs.HasPermission(folder.Source, mode) {
		return ErrPermissionRequired
	}

	// files are pushed one at a time in discovery order; concurrent
	// writes against one branch ref would race on blob SHA resolution
	// and produce spurious conflicts
	return localfs.Walk(ctx, folder.Source, e.ignore.ShouldIgnore, func(visit localfs.FileVisit) error {
		return e.executor.PushVisit(ctx, folder, visit)
	})
}

// finish maps the cycle outcome onto the terminal status.
func (e *Engine) finish(folderID, name string, err error) error {
	switch {
	case err == nil:
		if markErr := e.store.MarkSynced(folderID, e.now()); markErr != nil {
			return markErr
		}
		slog.Info("sync cycle complete", "folder", name)
		return nil

	case errors.Is(err, ErrPermissionRequired), errors.Is(err, localfs.ErrPermissionLost):
		slog.Warn("sync cycle needs permission", "folder", name)
		if setErr := e.store.SetStatus(folderID, StatusPermissionRequired, err.Error()); setErr != nil {
			return setErr
		}
		return ErrPermissionRequired

	default:
		slog.Error("sync cycle failed", "folder", name, "error", err)
		if setErr := e.store.SetStatus(folderID, StatusError, err.Error()); setErr != nil {
			return setErr
		}
		return err
	}
}

// Syncing reports whether a cycle is currently running for the id.
func (e *Engine) Syncing(folderID string) bool {
	return e.inflight.Contains(folderID)
}

func triggerName(t Trigger) string {
	if t == TriggerManual {
		return "manual"
	}
	return "scheduled"
}
