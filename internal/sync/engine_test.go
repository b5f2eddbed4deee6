package sync

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitnexus/gitnexus/internal/localfs"
)

func projectSnapshot() *localfs.StaticSnapshot {
	return &localfs.StaticSnapshot{
		Name: "project",
		Files: []localfs.SnapshotFile{
			{Path: "project/src/app.ts", Data: []byte("console.log('hi')")},
			{Path: "project/README.md", Data: []byte("# project")},
			{Path: "project/.git/config", Data: []byte("[core]")},
			{Path: "project/node_modules/react/index.js", Data: []byte("x")},
		},
	}
}

func TestSyncFolderSuccess(t *testing.T) {
	h := newHarness(t)

	folder := NewMonitoredFolder("project", projectSnapshot(), "octocat", "notes", "main", 5)
	require.NoError(t, h.store.Put(folder))

	err := h.engine.SyncFolder(context.Background(), folder.ID, TriggerManual)
	require.NoError(t, err)

	// only the non-ignored files reach the remote
	assert.ElementsMatch(t, []string{"src/app.ts", "README.md"}, h.remote.pushedPaths())

	got, err := h.store.Get(folder.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
	assert.Empty(t, got.LastError)
	assert.NotZero(t, got.LastSyncTimestamp)
	assert.NotEmpty(t, got.LastSync)

	entries, err := h.logs.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, LogStatusSuccess, e.Status)
		assert.Equal(t, LogTypeAuto, e.Type)
		assert.Equal(t, "main", e.Branch)
	}
}

func TestSyncFolderUnknownID(t *testing.T) {
	h := newHarness(t)

	err := h.engine.SyncFolder(context.Background(), "no-such-id", TriggerManual)
	assert.ErrorIs(t, err, ErrFolderNotFound)
}

func TestSyncFolderPermissionRequired(t *testing.T) {
	h := newHarness(t)

	gone := filepath.Join(t.TempDir(), "revoked")
	folder := NewMonitoredFolder("project", &localfs.LiveDirectory{Root: gone}, "octocat", "notes", "main", 5)
	require.NoError(t, h.store.Put(folder))

	err := h.engine.SyncFolder(context.Background(), folder.ID, TriggerScheduled)
	assert.ErrorIs(t, err, ErrPermissionRequired)

	got, err := h.store.Get(folder.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPermissionRequired, got.Status)
	assert.NotEmpty(t, got.LastError)

	// the remote was never touched
	assert.Empty(t, h.remote.pushedPaths())
}

func TestSyncFolderPermissionLostMidTraversal(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("mode bits do not restrict root")
	}
	h := newHarness(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Mkdir(locked, 0755))
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	folder := NewMonitoredFolder("project", &localfs.LiveDirectory{Root: root}, "octocat", "notes", "main", 5)
	require.NoError(t, h.store.Put(folder))

	// the root itself is readable, so the pre-traversal check passes
	// and the revocation only surfaces while walking
	err := h.engine.SyncFolder(context.Background(), folder.ID, TriggerScheduled)
	assert.ErrorIs(t, err, ErrPermissionRequired)

	got, err := h.store.Get(folder.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPermissionRequired, got.Status)
	assert.NotEmpty(t, got.LastError)
}

func TestFinishClassifiesWrappedPermissionLoss(t *testing.T) {
	h := newHarness(t)

	folder := NewMonitoredFolder("project", projectSnapshot(), "octocat", "notes", "main", 5)
	require.NoError(t, h.store.Put(folder))

	err := h.engine.finish(folder.ID, folder.Name, fmt.Errorf("read locked: %w", localfs.ErrPermissionLost))
	assert.ErrorIs(t, err, ErrPermissionRequired)

	got, getErr := h.store.Get(folder.ID)
	require.NoError(t, getErr)
	assert.Equal(t, StatusPermissionRequired, got.Status)
}

func TestSyncFolderPermissionRecovers(t *testing.T) {
	h := newHarness(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))

	folder := NewMonitoredFolder("project", &localfs.LiveDirectory{Root: root}, "octocat", "notes", "main", 5)
	folder.Status = StatusPermissionRequired
	folder.LastError = "revoked earlier"
	require.NoError(t, h.store.Put(folder))

	err := h.engine.SyncFolder(context.Background(), folder.ID, TriggerManual)
	require.NoError(t, err)

	got, err := h.store.Get(folder.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
	assert.Empty(t, got.LastError)
}

func TestSyncFolderPushFailure(t *testing.T) {
	h := newHarness(t)
	h.remote.forcePut = http.StatusForbidden

	folder := NewMonitoredFolder("project", projectSnapshot(), "octocat", "notes", "main", 5)
	require.NoError(t, h.store.Put(folder))

	err := h.engine.SyncFolder(context.Background(), folder.ID, TriggerManual)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermissionRequired)

	got, getErr := h.store.Get(folder.ID)
	require.NoError(t, getErr)
	assert.Equal(t, StatusError, got.Status)
	assert.NotEmpty(t, got.LastError)

	// the failed push lands in the log
	entries, logErr := h.logs.Recent(10)
	require.NoError(t, logErr)
	require.NotEmpty(t, entries)
	assert.Equal(t, LogStatusFail, entries[0].Status)
}

func TestSyncFolderSingleFlight(t *testing.T) {
	h := newHarness(t)
	h.remote.blockPut = make(chan struct{})

	folder := NewMonitoredFolder("project", projectSnapshot(), "octocat", "notes", "main", 5)
	require.NoError(t, h.store.Put(folder))

	done := make(chan error, 1)
	go func() {
		done <- h.engine.SyncFolder(context.Background(), folder.ID, TriggerManual)
	}()

	require.Eventually(t, func() bool {
		return h.engine.Syncing(folder.ID)
	}, 5*time.Second, 10*time.Millisecond)

	// the second trigger must bounce off the in-flight cycle
	err := h.engine.SyncFolder(context.Background(), folder.ID, TriggerManual)
	assert.ErrorIs(t, err, ErrCycleRunning)

	close(h.remote.blockPut)
	require.NoError(t, <-done)
	assert.False(t, h.engine.Syncing(folder.ID))
}

func TestSyncFolderRecoversStaleSyncingStatus(t *testing.T) {
	h := newHarness(t)

	folder := NewMonitoredFolder("project", projectSnapshot(), "octocat", "notes", "main", 5)
	folder.Status = StatusSyncing // as left behind by a crashed run
	require.NoError(t, h.store.Put(folder))

	err := h.engine.SyncFolder(context.Background(), folder.ID, TriggerManual)
	require.NoError(t, err)

	got, err := h.store.Get(folder.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
}
