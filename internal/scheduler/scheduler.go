// Package scheduler runs keyed interval jobs in-process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type JobFunc func(ctx context.Context) error

type JobInfo struct {
	Key      string
	Name     string
	Interval time.Duration
}

var ErrStopped = errors.New("scheduler stopped")

type state int

const (
	statePending state = iota
	stateRunning
	stateStopped
)

type job struct {
	info   JobInfo
	fn     JobFunc
	state  state
	cancel context.CancelFunc
	// slot holds a token while a run is in flight. A replacement job shares
	// the slot of the job it replaces.
	slot chan struct{}
}

// Scheduler fires every job on its own ticker. A key never runs twice at
// once: a tick that lands while a run for the same key is in flight, even one
// started by a job that has since been replaced, is dropped.
type Scheduler struct {
	log *zap.Logger

	mu      sync.Mutex
	jobs    map[string]*job
	baseCtx context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool

	wg sync.WaitGroup
}

func New(log *zap.Logger) *Scheduler {
	return &Scheduler{
		log:  log.With(zap.String("component", "scheduler")),
		jobs: make(map[string]*job),
	}
}

// Start launches every job registered so far. Calling it twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.started = true
	for _, j := range s.jobs {
		s.launchLocked(j)
	}
	s.log.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop halts every ticker and waits for in-flight runs. Running jobs keep a
// live context and are allowed to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
	for _, j := range s.jobs {
		j.state = stateStopped
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// AddJob registers fn under key, replacing any job already stored there. The
// first run happens one interval after the job starts ticking.
func (s *Scheduler) AddJob(key string, fn JobFunc, interval time.Duration, name string) error {
	if fn == nil {
		return fmt.Errorf("add job %q: nil func", key)
	}
	if interval <= 0 {
		return fmt.Errorf("add job %q: interval must be > 0, got %s", key, interval)
	}
	if name == "" {
		name = key
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("add job %q: %w", key, ErrStopped)
	}

	slot := make(chan struct{}, 1)
	if old, ok := s.jobs[key]; ok {
		s.haltLocked(old)
		slot = old.slot
	}
	j := &job{info: JobInfo{Key: key, Name: name, Interval: interval}, fn: fn, slot: slot}
	s.jobs[key] = j
	if s.started {
		s.launchLocked(j)
	}
	mRegistered.Set(float64(len(s.jobs)))

	s.log.Debug("job added", zap.String("key", key), zap.String("name", name), zap.Duration("interval", interval))
	return nil
}

// RemoveJob drops key. It reports false when the key is unknown or its
// ticker was already torn down, for example by Stop.
func (s *Scheduler) RemoveJob(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[key]
	if !ok {
		return false
	}
	delete(s.jobs, key)
	mRegistered.Set(float64(len(s.jobs)))

	if j.state == stateStopped {
		s.log.Warn("job already stopped", zap.String("key", key))
		return false
	}
	s.haltLocked(j)
	s.log.Debug("job removed", zap.String("key", key))
	return true
}

func (s *Scheduler) HasJob(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[key]
	return ok
}

func (s *Scheduler) Job(key string) (JobInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[key]
	if !ok {
		return JobInfo{}, false
	}
	return j.info, true
}

// GetAllJobs returns the registered keys in lexical order.
func (s *Scheduler) GetAllJobs() []string {
	s.mu.Lock()
	keys := make([]string, 0, len(s.jobs))
	for k := range s.jobs {
		keys = append(keys, k)
	}
	s.mu.Unlock()
	sort.Strings(keys)
	return keys
}

func (s *Scheduler) launchLocked(j *job) {
	ctx, cancel := context.WithCancel(s.baseCtx)
	j.cancel = cancel
	j.state = stateRunning
	s.wg.Add(1)
	go s.loop(ctx, j)
}

func (s *Scheduler) haltLocked(j *job) {
	if j.cancel != nil {
		j.cancel()
	}
	j.state = stateStopped
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.info.Interval)
	defer ticker.Stop()

	runCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			select {
			case j.slot <- struct{}{}:
			default:
				mSkipped.WithLabelValues(j.info.Name).Inc()
				s.log.Debug("tick skipped, run for key still in flight", zap.String("key", j.info.Key))
				continue
			}
			s.run(runCtx, j)
			<-j.slot
			select {
			case <-ticker.C:
				mSkipped.WithLabelValues(j.info.Name).Inc()
				s.log.Debug("tick skipped, previous run still in flight", zap.String("key", j.info.Key))
			default:
			}
		}
	}
}

func (s *Scheduler) run(ctx context.Context, j *job) {
	start := time.Now()
	mRuns.WithLabelValues(j.info.Name).Inc()

	defer func() {
		if rec := recover(); rec != nil {
			mErrors.WithLabelValues(j.info.Name).Inc()
			s.log.Error("job panicked",
				zap.String("key", j.info.Key),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
		}
		mDuration.WithLabelValues(j.info.Name).Observe(time.Since(start).Seconds())
	}()

	if err := j.fn(ctx); err != nil {
		mErrors.WithLabelValues(j.info.Name).Inc()
		s.log.Error("job failed", zap.String("key", j.info.Key), zap.String("name", j.info.Name), zap.Error(err))
	}
}
