// Package daemon assembles the sync engine, scheduler, watcher and
// control-plane HTTP server into one long-running process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/gitnexus/gitnexus/internal/chat"
	"github.com/gitnexus/gitnexus/internal/daemon/config"
	"github.com/gitnexus/gitnexus/internal/db"
	"github.com/gitnexus/gitnexus/internal/gh"
	"github.com/gitnexus/gitnexus/internal/sync"
	"github.com/gitnexus/gitnexus/internal/utils"
)

const shutdownTimeout = 5 * time.Second

// Daemon owns all long-lived components and their lifecycle.
type Daemon struct {
	cfg *config.Config

	gh   *gh.Client
	chat *chat.Client

	folders   *sync.FolderStore
	logs      *sync.LogStore
	executor  *sync.Executor
	engine    *sync.Engine
	scheduler *sync.Scheduler
	watcher   *sync.Watcher
	registrar *sync.Registrar

	lock *flock.Flock
}

// New wires up a daemon from config. Nothing starts until Start.
func New(cfg *config.Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := utils.EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	database, err := db.NewSqliteDb(
		db.WithPath(filepath.Join(cfg.DataDir, "gitnexus.db")),
		db.WithMaxOpenConns(1),
	)
	if err != nil {
		return nil, err
	}

	folders, err := sync.NewFolderStoreWithDB(database)
	if err != nil {
		database.Close()
		return nil, err
	}
	logs, err := sync.NewLogStoreWithDB(database)
	if err != nil {
		database.Close()
		return nil, err
	}

	ghClient := gh.New(cfg.GithubToken)

	var chatClient *chat.Client
	if cfg.GeminiAPIKey != "" {
		chatClient = chat.New(cfg.GeminiAPIKey)
	}

	executor := sync.NewExecutor(ghClient, logs)
	engine := sync.NewEngine(folders, executor, sync.NewIgnoreList())
	scheduler := sync.NewScheduler(folders, engine)
	watcher := sync.NewWatcher(scheduler.MarkDirty)
	registrar := sync.NewRegistrar(ghClient, folders)

	return &Daemon{
		cfg:       cfg,
		gh:        ghClient,
		chat:      chatClient,
		folders:   folders,
		logs:      logs,
		executor:  executor,
		engine:    engine,
		scheduler: scheduler,
		watcher:   watcher,
		registrar: registrar,
		lock:      flock.New(filepath.Join(cfg.DataDir, "gitnexus.lock")),
	}, nil
}

// Start runs until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another instance is already running (lock: %s)", d.lock.Path())
	}
	defer d.lock.Unlock()

	if err := d.recoverStaleStatuses(); err != nil {
		return err
	}

	folders, err := d.folders.List()
	if err != nil {
		return err
	}
	d.watcher.Rearm(folders)
	d.watcher.Start(ctx)
	d.scheduler.Start(ctx)

	server := &http.Server{
		Addr:    d.cfg.HTTPAddr,
		Handler: d.setupRoutes(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("control plane listening", "addr", d.cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown", "error", err)
		}

		d.watcher.Stop()
		d.scheduler.Stop()
		return nil
	})

	err = g.Wait()
	d.folders.Close()
	return err
}

// rearmWatcher reloads the folder collection into the watcher after a
// registration, deletion or edit.
func (d *Daemon) rearmWatcher() {
	folders, err := d.folders.List()
	if err != nil {
		slog.Warn("rearm watcher", "error", err)
		return
	}
	d.watcher.Rearm(folders)
}

// recoverStaleStatuses resets folders that a previous process left in
// syncing. A never-synced folder falls back to idle, a previously
// synced one to active.
func (d *Daemon) recoverStaleStatuses() error {
	folders, err := d.folders.List()
	if err != nil {
		return err
	}

	for _, folder := range folders {
		if folder.Status != sync.StatusSyncing {
			continue
		}
		status := sync.StatusIdle
		if folder.LastSyncTimestamp > 0 {
			status = sync.StatusActive
		}
		slog.Warn("recovering folder stuck in syncing", "folder", folder.Name, "status", status)
		if err := d.folders.SetStatus(folder.ID, status, "interrupted by restart"); err != nil {
			return err
		}
	}
	return nil
}
