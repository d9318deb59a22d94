// Package healthcheck keeps one probe job per monitored component and turns
// probe outcomes into component status transitions.
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/healthlog"
	"github.com/lmello0/status-page/internal/domain/status"
	"github.com/lmello0/status-page/internal/obs"
	"github.com/lmello0/status-page/internal/scheduler"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	SyncJobKey          = "sync_components"
	DefaultSyncInterval = 60 * time.Second

	probeJobName = "health_check"
)

type Scheduler interface {
	Start(ctx context.Context)
	Stop()
	AddJob(key string, fn scheduler.JobFunc, interval time.Duration, name string) error
	RemoveJob(key string) bool
}

type Registry interface {
	Set(c *component.Component)
	Get(id int64) (*component.Component, bool)
	SetStatus(id int64, s status.Status) bool
	Remove(id int64)
	IDs() []int64
	Len() int
}

type ComponentSource interface {
	FindAllActive(ctx context.Context) ([]*component.Component, error)
}

type StatusUpdater interface {
	UpdateComponentStatus(ctx context.Context, id int64, s status.Status, log *healthlog.Log) (*component.Component, error)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Deps struct {
	Scheduler  Scheduler
	Registry   Registry
	Components ComponentSource
	Updater    StatusUpdater
	Prober     Prober
	Clock      Clock
}

type Engine struct {
	log          *zap.Logger
	sched        Scheduler
	reg          Registry
	source       ComponentSource
	updater      StatusUpdater
	prober       Prober
	clock        Clock
	syncInterval time.Duration
	tracer       trace.Tracer

	// syncMu serializes sync passes started by the scheduler and by the API.
	syncMu sync.Mutex

	mu       sync.Mutex
	failures map[int64]int
}

func NewEngine(log *zap.Logger, d Deps, syncInterval time.Duration) *Engine {
	if syncInterval <= 0 {
		syncInterval = DefaultSyncInterval
	}
	clock := d.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Engine{
		log:          log.With(zap.String("component", "healthcheck")),
		sched:        d.Scheduler,
		reg:          d.Registry,
		source:       d.Components,
		updater:      d.Updater,
		prober:       d.Prober,
		clock:        clock,
		syncInterval: syncInterval,
		tracer:       otel.Tracer("healthcheck"),
		failures:     make(map[int64]int),
	}
}

func JobKey(c *component.Component) string {
	return fmt.Sprintf("health_check_component_%d_product_%d", c.ID, c.ProductID)
}

// Start registers the periodic sync, starts the scheduler and runs a first
// sync pass right away. A failed first pass is logged; the periodic job
// retries it.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.sched.AddJob(SyncJobKey, e.SyncComponents, e.syncInterval, SyncJobKey); err != nil {
		return fmt.Errorf("register sync job: %w", err)
	}
	e.sched.Start(ctx)

	if err := e.SyncComponents(ctx); err != nil {
		e.log.Error("initial component sync failed", zap.Error(err))
	}
	e.log.Info("health-check engine started", zap.Duration("sync_interval", e.syncInterval))
	return nil
}

func (e *Engine) Stop() {
	e.sched.Stop()
	e.log.Info("health-check engine stopped")
}

// SyncComponents reconciles the probe jobs with the active components in storage.
func (e *Engine) SyncComponents(ctx context.Context) error {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()
	ctx, span := e.tracer.Start(ctx, "healthcheck.sync")
	defer span.End()
	start := time.Now()
	defer func() { mSyncDuration.Observe(time.Since(start).Seconds()) }()

	log := obs.WithTrace(ctx, e.log)

	comps, err := e.source.FindAllActive(ctx)
	if err != nil {
		mSyncErrors.Inc()
		span.RecordError(err)
		return fmt.Errorf("sync components: %w", err)
	}

	active := make(map[int64]struct{}, len(comps))
	for _, c := range comps {
		if c.ID != 0 && c.IsActive && c.IsLeaf() {
			active[c.ID] = struct{}{}
		}
	}

	removed := 0
	for _, id := range e.reg.IDs() {
		if _, ok := active[id]; !ok && e.unschedule(id) {
			removed++
		}
	}

	var toSchedule []*component.Component
	for _, c := range comps {
		switch {
		case c.ID == 0:
			log.Warn("skipping component without id", zap.String("name", c.Name))
			continue
		case !c.IsActive || !c.IsLeaf():
			log.Debug("skipping unmonitored component", zap.Int64("component_id", c.ID))
			continue
		}

		cached, ok := e.reg.Get(c.ID)
		needsReschedule := !ok || !component.SameMonitoring(cached.Monitoring, c.Monitoring)
		if ok && JobKey(cached) != JobKey(c) {
			e.sched.RemoveJob(JobKey(cached))
			needsReschedule = true
		}
		e.reg.Set(c)
		if needsReschedule {
			toSchedule = append(toSchedule, c)
		}
	}

	var errs []error
	for _, c := range toSchedule {
		if err := e.schedule(c); err != nil {
			errs = append(errs, err)
		}
	}

	mMonitored.Set(float64(e.reg.Len()))
	span.SetAttributes(attribute.Int("synced", len(comps)), attribute.Int("removed", removed))
	log.Info("components synced",
		zap.Int("synced", len(comps)),
		zap.Int("added_or_updated", len(toSchedule)-len(errs)),
		zap.Int("removed", removed),
	)

	if err := errors.Join(errs...); err != nil {
		mSyncErrors.Inc()
		span.RecordError(err)
		return fmt.Errorf("sync components: %w", err)
	}
	return nil
}

func (e *Engine) schedule(c *component.Component) error {
	id := c.ID
	job := func(ctx context.Context) error {
		_, err := e.checkComponent(ctx, id)
		if errors.Is(err, ErrNotMonitored) {
			return nil
		}
		return err
	}
	if err := e.sched.AddJob(JobKey(c), job, c.Monitoring.Interval(), probeJobName); err != nil {
		e.sched.RemoveJob(JobKey(c))
		e.reg.Remove(id)
		e.mu.Lock()
		delete(e.failures, id)
		e.mu.Unlock()
		return fmt.Errorf("schedule component %d: %w", id, err)
	}
	e.log.Debug("component scheduled",
		zap.Int64("component_id", id),
		zap.String("key", JobKey(c)),
		zap.Duration("interval", c.Monitoring.Interval()),
	)
	return nil
}

func (e *Engine) unschedule(id int64) bool {
	c, ok := e.reg.Get(id)
	if !ok {
		e.log.Warn("unschedule: component not cached", zap.Int64("component_id", id))
		return false
	}
	if !e.sched.RemoveJob(JobKey(c)) {
		e.log.Warn("unschedule: job not found", zap.Int64("component_id", id), zap.String("key", JobKey(c)))
		return false
	}
	e.reg.Remove(id)
	e.mu.Lock()
	delete(e.failures, id)
	e.mu.Unlock()
	e.log.Info("component unscheduled", zap.Int64("component_id", id))
	return true
}

// TriggerImmediateCheck probes a cached component outside its schedule and
// returns it with the new status.
func (e *Engine) TriggerImmediateCheck(ctx context.Context, id int64) (*component.Component, error) {
	return e.checkComponent(ctx, id)
}

// FailureCount returns the consecutive failures recorded for id.
func (e *Engine) FailureCount(id int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failures[id]
}

func (e *Engine) recordFailure(id int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[id]++
	return e.failures[id]
}

func (e *Engine) resetFailures(id int64) {
	e.mu.Lock()
	e.failures[id] = 0
	e.mu.Unlock()
}

func (e *Engine) checkComponent(ctx context.Context, id int64) (*component.Component, error) {
	c, ok := e.reg.Get(id)
	if !ok || c.Monitoring == nil {
		e.log.Warn("component not in cache, skipping check", zap.Int64("component_id", id))
		return nil, fmt.Errorf("component %d: %w", id, ErrNotMonitored)
	}
	m := c.Monitoring

	ctx, span := e.tracer.Start(ctx, "healthcheck.probe", trace.WithAttributes(
		attribute.Int64("component.id", id),
	))
	defer span.End()
	log := obs.WithTrace(ctx, e.log).With(zap.Int64("component_id", id))

	start := e.clock.Now()
	res, probeErr := e.safeProbe(ctx, m.HealthURL, m.Timeout())
	end := e.clock.Now()
	mProbeLatency.Observe(end.Sub(start).Seconds())

	entry := &healthlog.Log{
		ComponentID:  id,
		CheckedAt:    end.UTC(),
		StatusBefore: c.StatusOrDefault(),
	}

	var next status.Status
	if probeErr != nil {
		e.recordFailure(id)
		next = status.Outage
		msg := probeErrorMessage(probeErr)
		entry.ResponseTimeMs = m.TimeoutSeconds
		entry.ErrorMessage = &msg
		mProbes.WithLabelValues(probeResultLabel(probeErr)).Inc()
		span.RecordError(probeErr)
		log.Warn("health check failed", zap.String("url", m.HealthURL), zap.String("error", msg))
	} else {
		ms := end.Sub(start).Milliseconds()
		statusOK := res.StatusCode == m.ExpectedStatusCode
		latencyOK := ms <= int64(m.MaxResponseTimeMs)

		code := res.StatusCode
		entry.StatusCode = &code
		entry.ResponseTimeMs = int(ms)
		if !statusOK {
			body := res.Body
			entry.ErrorMessage = &body
		}

		if statusOK && latencyOK {
			e.resetFailures(id)
			next = status.Operational
			entry.IsSuccessful = true
			mProbes.WithLabelValues("healthy").Inc()
		} else {
			n := e.recordFailure(id)
			next = status.Degraded
			if n >= m.FailuresBeforeOutage {
				next = status.Outage
			}
			mProbes.WithLabelValues("unhealthy").Inc()
			log.Warn("component unhealthy",
				zap.Int("status_code", code),
				zap.Int64("response_ms", ms),
				zap.Int("consecutive_failures", n),
			)
		}
	}
	entry.StatusAfter = next
	span.SetAttributes(attribute.String("status.after", next.String()))

	e.reg.SetStatus(id, next)

	updated, err := e.updater.UpdateComponentStatus(ctx, id, next, entry)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update status of component %d: %w", id, err)
	}
	if entry.StatusBefore != next {
		log.Info("component status changed",
			zap.Stringer("from", entry.StatusBefore),
			zap.Stringer("to", next),
		)
	}
	return updated, nil
}

func (e *Engine) safeProbe(ctx context.Context, url string, timeout time.Duration) (res ProbeResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("probe panic: %v", rec)
		}
	}()
	return e.prober.Probe(ctx, url, timeout)
}
