package sync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// defaultTickInterval is the fixed scan period, independent of any
// folder's configured sync interval.
const defaultTickInterval = 30 * time.Second

// Scheduler drives automatic cycles: each tick it evaluates every
// monitored folder and runs the due ones one at a time. A single
// in-flight guard prevents overlapping scans.
type Scheduler struct {
	store  *FolderStore
	engine *Engine

	tickInterval time.Duration

	// dirty holds folder ids whose live directory changed since the
	// last scan; they become due ahead of their interval
	dirty mapset.Set[string]

	muScan sync.Mutex
	wg     sync.WaitGroup
	now    func() time.Time
}

func NewScheduler(store *FolderStore, engine *Engine) *Scheduler {
	return &Scheduler{
		store:        store,
		engine:       engine,
		tickInterval: defaultTickInterval,
		dirty:        mapset.NewSet[string](),
		now:          time.Now,
	}
}

// SetTickInterval overrides the scan period (tests).
func (s *Scheduler) SetTickInterval(d time.Duration) {
	if d > 0 {
		s.tickInterval = d
	}
}

// MarkDirty flags a folder for early pickup on the next tick.
func (s *Scheduler) MarkDirty(folderID string) {
	s.dirty.Add(folderID)
}

// Start runs the scheduling loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// a timer, not a ticker, so a slow scan never queues ticks
		timer := time.NewTimer(s.tickInterval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				s.Scan(ctx)
				timer.Reset(s.tickInterval)
			}
		}
	}()
}

// Stop waits for the loop (and any running scan) to finish.
func (s *Scheduler) Stop() {
	s.wg.Wait()
}

// Scan evaluates all folders once. Folders are processed
// sequentially; a previous scan still in flight makes this a no-op.
func (s *Scheduler) Scan(ctx context.Context) {
	if !s.muScan.TryLock() {
		slog.Debug("scheduler scan skipped, previous scan in flight")
		return
	}
	defer s.muScan.Unlock()

	folders, err := s.store.List()
	if err != nil {
		slog.Error("scheduler list folders", "error", err)
		return
	}

	now := s.now()
	for _, folder := range folders {
		if ctx.Err() != nil {
			return
		}

		dirty := s.dirty.Contains(folder.ID)
		if !folder.DueAt(now) && !(dirty && folder.SyncIntervalMinutes > 0) {
			continue
		}
		if s.engine.Syncing(folder.ID) {
			// never double-enter a folder mid-cycle
			continue
		}

		err := s.engine.SyncFolder(ctx, folder.ID, TriggerScheduled)
		switch {
		case err == nil:
			s.dirty.Remove(folder.ID)
		case errors.Is(err, ErrCycleRunning):
			// lost the race to a manual trigger, fine
		case errors.Is(err, ErrPermissionRequired):
			// background cycles never prompt; the folder card surfaces it
			s.dirty.Remove(folder.ID)
		default:
			slog.Error("scheduled sync failed", "folder", folder.Name, "error", err)
			s.dirty.Remove(folder.ID)
		}
	}
}

// ForceSync runs a manual cycle for one folder, bypassing interval
// gating and using an active permission request.
func (s *Scheduler) ForceSync(ctx context.Context, folderID string) error {
	return s.engine.SyncFolder(ctx, folderID, TriggerManual)
}
