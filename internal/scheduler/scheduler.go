// Package scheduler supervises background sync loops. Each resource with a
// positive interval gets its own goroutine that syncs immediately, then on
// every tick. Jobs are keyed by resource so they can be added, replaced, or
// removed while the scheduler is running.
package scheduler

import (
	"context"
	"fmt"
	"log"
	stdsync "sync"
	"time"

	"github.com/davsync/davsync/internal/db"
	"github.com/davsync/davsync/internal/sync"
)

// Kind distinguishes the two resource types sharing the scheduler.
type Kind string

const (
	KindSource      Kind = "source"
	KindDestination Kind = "destination"
)

// Runner executes a single sync attempt for a resource.
type Runner interface {
	SyncSource(ctx context.Context, id string) (string, error)
	SyncDestination(ctx context.Context, id string) (string, error)
}

// Options tune the retry behaviour of every loop.
type Options struct {
	// RetryBase is the delay before the first retry; it doubles on each
	// subsequent retry.
	RetryBase time.Duration
	// RetryMax caps the backoff delay.
	RetryMax time.Duration
	// MaxAttempts bounds the total attempts per run, the first included.
	MaxAttempts int
}

// DefaultOptions returns the production retry settings.
func DefaultOptions() Options {
	return Options{
		RetryBase:   30 * time.Second,
		RetryMax:    5 * time.Minute,
		MaxAttempts: 5,
	}
}

type job struct {
	cancel context.CancelFunc
}

// Scheduler owns every background sync loop.
type Scheduler struct {
	db     *db.DB
	runner Runner
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     stdsync.WaitGroup

	mu   stdsync.Mutex
	jobs map[string]*job
}

// New creates a scheduler. Nothing runs until Start.
func New(database *db.DB, runner Runner, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		db:     database,
		runner: runner,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*job),
	}
}

// Start launches a loop for every stored resource with a positive interval.
func (s *Scheduler) Start() error {
	sources, err := s.db.ListSources()
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	for _, src := range sources {
		s.Schedule(KindSource, src.ID, time.Duration(src.SyncIntervalSecs)*time.Second)
	}

	dests, err := s.db.ListDestinations()
	if err != nil {
		return fmt.Errorf("failed to list destinations: %w", err)
	}
	for _, dest := range dests {
		s.Schedule(KindDestination, dest.ID, time.Duration(dest.SyncIntervalSecs)*time.Second)
	}
	return nil
}

// Schedule starts or replaces the loop for one resource. A zero or negative
// interval only removes any existing loop.
func (s *Scheduler) Schedule(kind Kind, id string, interval time.Duration) {
	key := jobKey(kind, id)

	s.mu.Lock()
	if existing, ok := s.jobs[key]; ok {
		existing.cancel()
		delete(s.jobs, key)
	}
	if interval <= 0 {
		s.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.jobs[key] = &job{cancel: cancel}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLoop(ctx, kind, id, interval)
	}()
}

// Remove stops and forgets the loop for one resource, if any.
func (s *Scheduler) Remove(kind Kind, id string) {
	key := jobKey(kind, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.jobs[key]; ok {
		existing.cancel()
		delete(s.jobs, key)
	}
}

// Stop cancels every loop and waits for them to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// runLoop syncs once immediately, then on every tick until cancelled or the
// resource turns out to be gone.
func (s *Scheduler) runLoop(ctx context.Context, kind Kind, id string, interval time.Duration) {
	if !s.runWithRetry(ctx, kind, id) {
		s.Remove(kind, id)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.runWithRetry(ctx, kind, id) {
				s.Remove(kind, id)
				return
			}
		}
	}
}

// runWithRetry attempts one sync run, retrying retryable failures with
// exponential backoff. It returns false when the loop should be dropped
// because the resource no longer exists.
func (s *Scheduler) runWithRetry(ctx context.Context, kind Kind, id string) bool {
	delay := s.opts.RetryBase

	for attempt := 1; ; attempt++ {
		message, err := s.run(ctx, kind, id)
		if err == nil {
			log.Printf("%s %s: %s", kind, id, message)
			return true
		}

		if sync.ClassOf(err) == sync.ClassFatal {
			log.Printf("%s %s: dropping sync loop: %v", kind, id, err)
			return false
		}

		if attempt >= s.opts.MaxAttempts {
			log.Printf("%s %s: giving up after %d attempts: %v", kind, id, attempt, err)
			s.recordFailure(kind, id, err)
			return true
		}

		log.Printf("%s %s: attempt %d failed, retrying in %s: %v", kind, id, attempt, delay, err)
		select {
		case <-ctx.Done():
			return true
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.opts.RetryMax {
			delay = s.opts.RetryMax
		}
	}
}

func (s *Scheduler) run(ctx context.Context, kind Kind, id string) (string, error) {
	if kind == KindDestination {
		return s.runner.SyncDestination(ctx, id)
	}
	return s.runner.SyncSource(ctx, id)
}

// recordFailure writes the error status after retries are exhausted. The
// loop itself stays alive and tries again on the next tick.
func (s *Scheduler) recordFailure(kind Kind, id string, err error) {
	var updateErr error
	if kind == KindDestination {
		updateErr = s.db.UpdateDestinationSyncStatus(id, db.SyncStatusError, err.Error())
	} else {
		updateErr = s.db.UpdateSourceSyncStatus(id, db.SyncStatusError, err.Error())
	}
	if updateErr != nil {
		log.Printf("%s %s: failed to record sync failure: %v", kind, id, updateErr)
	}
}

func jobKey(kind Kind, id string) string {
	return string(kind) + ":" + id
}
