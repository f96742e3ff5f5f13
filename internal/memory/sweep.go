package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/logger"
)

// maxPending bounds transcripts held back while the archiver is failing.
const maxPending = 1000

// Sweeper periodically removes expired sessions from a Store and hands
// their transcripts to an optional Archiver.
type Sweeper struct {
	store     *Store
	archiver  Archiver
	schedule  cron.Schedule
	retry     time.Duration
	onFailure func(error)

	runMu   sync.Mutex
	pending []Transcript

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewSweeper builds a sweeper from the store config. archiver may be nil.
func NewSweeper(store *Store, archiver Archiver) (*Sweeper, error) {
	cfg := store.Config()

	var schedule cron.Schedule = cron.Every(cfg.SweepInterval)
	if cfg.SweepSchedule != "" {
		sched, err := cron.ParseStandard(cfg.SweepSchedule)
		if err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.SweepSchedule, err)
		}
		schedule = sched
	}

	return &Sweeper{
		store:    store,
		archiver: archiver,
		schedule: schedule,
		retry:    cfg.RetryInterval,
	}, nil
}

// SetFailureHandler registers fn to be called after every failed pass.
func (w *Sweeper) SetFailureHandler(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onFailure = fn
}

func (w *Sweeper) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.run(runCtx, w.done)

	logger.Info("session sweeper started", "first_run", w.schedule.Next(time.Now()).Format(time.RFC3339), "retry", w.retry)
}

// Stop cancels the loop and waits for it to exit.
func (w *Sweeper) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
}

func (w *Sweeper) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Pending reports how many transcripts are waiting for a retried archive.
func (w *Sweeper) Pending() int {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	return len(w.pending)
}

func (w *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(done)
	}()

	now := time.Now()
	timer := time.NewTimer(w.schedule.Next(now).Sub(now))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("session sweeper stopping")
			return
		case <-timer.C:
			err := w.RunOnce(ctx)
			if err != nil {
				logger.Error("session sweep failed", "error", err, "retry_in", w.retry)
				w.mu.Lock()
				onFailure := w.onFailure
				w.mu.Unlock()
				if onFailure != nil {
					onFailure(err)
				}
			}

			now := time.Now()
			timer.Reset(w.nextRun(now, err).Sub(now))
		}
	}
}

func (w *Sweeper) nextRun(now time.Time, err error) time.Time {
	if err != nil {
		return now.Add(w.retry)
	}
	return w.schedule.Next(now)
}

// RunOnce performs a single sweep pass. A panic inside the pass is
// returned as an error.
func (w *Sweeper) RunOnce(ctx context.Context) (err error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panic: %v", r)
		}
	}()

	start := time.Now()
	expired := w.store.Sweep(w.store.cfg.Clock())

	if len(expired) > 0 {
		logger.Info("expired sessions cleaned up", "count", len(expired), "duration", time.Since(start))
	}

	stats := w.store.Stats()
	logger.Debug("session stats after sweep", "sessions", stats.TotalSessions, "messages", stats.TotalMessages)

	if w.archiver == nil {
		return nil
	}

	w.pending = append(w.pending, expired...)
	if over := len(w.pending) - maxPending; over > 0 {
		logger.Warn("dropping unarchived transcripts", "count", over)
		w.pending = w.pending[over:]
	}

	if len(w.pending) == 0 {
		return nil
	}

	if err := w.archiver.Archive(ctx, w.pending); err != nil {
		return fmt.Errorf("archive %d transcripts: %w", len(w.pending), err)
	}

	logger.Debug("transcripts archived", "count", len(w.pending))
	w.pending = nil

	return nil
}

// MultiArchiver hands every batch to each archiver in order.
type MultiArchiver []Archiver

func (m MultiArchiver) Archive(ctx context.Context, transcripts []Transcript) error {
	var errs []error
	for _, a := range m {
		if err := a.Archive(ctx, transcripts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
