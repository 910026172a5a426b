package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"eventetl/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Ingest Service: triggers pipeline runs for one target
// ─────────────────────────────────────────────────────────────

// ErrAlreadyRunning is returned when a run is triggered for a target that
// already has one in flight.
var ErrAlreadyRunning = errors.New("run already in progress")

const defaultDebounce = 500 * time.Millisecond

// IngestService runs the pipeline for one target table, on demand, on a
// cron schedule or whenever the source directory changes.
type IngestService struct {
	engine   *etl.Engine
	location string
	table    string
	reporter etl.Reporter
	guard    runningGuard

	// Debounce is how long a watch waits after the last file event before
	// it triggers a run.
	Debounce time.Duration
	// RunTimeout bounds a single run when set. The default of zero lets a
	// run go to completion.
	RunTimeout time.Duration

	mu          sync.Mutex
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewIngestService returns a service writing tableName at location
// through engine.
func NewIngestService(engine *etl.Engine, location, tableName string, reporter etl.Reporter) *IngestService {
	if reporter == nil {
		reporter = etl.NopReporter{}
	}
	return &IngestService{
		engine:   engine,
		location: location,
		table:    tableName,
		reporter: reporter,
		Debounce: defaultDebounce,
	}
}

func (s *IngestService) key() string {
	return s.location + "#" + s.table
}

// ── Run ────────────────────────────────────────────────────

// RunOnce executes the pipeline synchronously. A second call while one is
// in flight returns ErrAlreadyRunning without running.
func (s *IngestService) RunOnce(ctx context.Context) (*etl.SyncResult, error) {
	key := s.key()
	if !s.guard.TryLock(key) {
		s.reporter.Emit(ctx, etl.EventTriggerSkipped, etl.Fields{"target": key})
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, key)
	}
	defer s.guard.Unlock(key)

	if s.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RunTimeout)
		defer cancel()
	}
	return s.engine.Run(ctx, s.location, s.table)
}

// trigger runs the pipeline on behalf of a background trigger.
func (s *IngestService) trigger(ctx context.Context, source string) {
	s.reporter.Emit(ctx, etl.EventTriggerFired, etl.Fields{"trigger": source, "target": s.key()})
	if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
		s.reporter.Emit(ctx, etl.EventTriggerFailed, etl.Fields{"trigger": source, "error": err.Error()})
	}
}

// ── Triggers (cron + file watch) ──────────────────────────

// StartSchedule runs the pipeline on every tick of the cron expression,
// replacing any schedule started before.
func (s *IngestService) StartSchedule(ctx context.Context, expr string) error {
	c := cron.New()
	if _, err := c.AddFunc(expr, func() { s.trigger(ctx, "schedule") }); err != nil {
		return fmt.Errorf("%w: schedule %q: %v", etl.ErrInvalidConfig, expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronSched != nil {
		s.cronSched.Stop()
	}
	c.Start()
	s.cronSched = c
	return nil
}

// StartWatch runs the pipeline, debounced, whenever a file with a
// registered reader is created, written, removed or renamed in the
// source directory. It replaces any watch started before.
func (s *IngestService) StartWatch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.engine.Dir); err != nil {
		watcher.Close()
		return fmt.Errorf("%w: watch %s: %v", etl.ErrSourceDir, s.engine.Dir, err)
	}

	s.mu.Lock()
	s.stopWatchLocked()
	watchCtx, cancel := context.WithCancel(ctx)
	s.watchCancel = cancel
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(watchCtx, watcher)
	return nil
}

func (s *IngestService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&relevant == 0 {
				continue
			}
			if _, ok := etl.ReaderFor(filepath.Base(event.Name)); !ok {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.Debounce, func() {
				if ctx.Err() == nil {
					s.trigger(ctx, "watch")
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.reporter.Emit(ctx, etl.EventTriggerFailed, etl.Fields{"trigger": "watch", "error": err.Error()})
		}
	}
}

// WaitRunning blocks until in-flight runs finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *IngestService) WaitRunning(ctx context.Context) {
	s.guard.WaitAll(ctx)
}

// Stop tears down the watcher and the scheduler. Safe to call repeatedly.
func (s *IngestService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopWatchLocked()
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}

func (s *IngestService) stopWatchLocked() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}
