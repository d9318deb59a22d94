package healthcheck

import (
	"context"
	"sync"
	"time"

	"github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/healthlog"
	"github.com/lmello0/status-page/internal/domain/outbox"
	"github.com/lmello0/status-page/internal/domain/page"
	"github.com/lmello0/status-page/internal/domain/status"
)

type fakeSource struct {
	mu    sync.Mutex
	items []*component.Component
	err   error
}

func (f *fakeSource) set(items ...*component.Component) {
	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
}

func (f *fakeSource) FindAllActive(context.Context) ([]*component.Component, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*component.Component, 0, len(f.items))
	for _, c := range f.items {
		out = append(out, c.Clone())
	}
	return out, nil
}

type recordingUpdater struct {
	mu   sync.Mutex
	logs []*healthlog.Log
	err  error
}

func (u *recordingUpdater) UpdateComponentStatus(_ context.Context, id int64, s status.Status, l *healthlog.Log) (*component.Component, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return nil, u.err
	}
	u.logs = append(u.logs, l)
	return &component.Component{ID: id, CurrentStatus: status.Ptr(s)}, nil
}

func (u *recordingUpdater) statuses() []status.Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]status.Status, 0, len(u.logs))
	for _, l := range u.logs {
		out = append(out, l.StatusAfter)
	}
	return out
}

type proberFunc func(ctx context.Context, url string, timeout time.Duration) (ProbeResult, error)

func (f proberFunc) Probe(ctx context.Context, url string, timeout time.Duration) (ProbeResult, error) {
	return f(ctx, url, timeout)
}

func respond(code int, body string) Prober {
	return proberFunc(func(context.Context, string, time.Duration) (ProbeResult, error) {
		return ProbeResult{StatusCode: code, Body: body}, nil
	})
}

func fail(err error) Prober {
	return proberFunc(func(context.Context, string, time.Duration) (ProbeResult, error) {
		return ProbeResult{}, err
	})
}

// stepClock advances by step on every read.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

type memComponents struct {
	mu      sync.Mutex
	items   map[int64]*component.Component
	updates []status.Status
	failOn  string
}

func newMemComponents(cs ...*component.Component) *memComponents {
	m := &memComponents{items: map[int64]*component.Component{}}
	for _, c := range cs {
		m.items[c.ID] = c.Clone()
	}
	return m
}

func (m *memComponents) FindAllActive(context.Context) ([]*component.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*component.Component
	for _, c := range m.items {
		if c.IsActive && c.IsLeaf() {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (m *memComponents) FindByID(_ context.Context, id int64) (*component.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, component.ErrComponentNotFound
	}
	return c.Clone(), nil
}

func (m *memComponents) Save(_ context.Context, c *component.Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[c.ID] = c.Clone()
	return nil
}

func (m *memComponents) UpdateStatus(_ context.Context, id int64, s status.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "update" {
		return errBoom
	}
	m.items[id].CurrentStatus = status.Ptr(s)
	m.updates = append(m.updates, s)
	return nil
}

func (m *memComponents) ListByProduct(context.Context, int64, page.Request) (page.Page[*component.Component], error) {
	return page.Page[*component.Component]{}, nil
}

func (m *memComponents) ListByProducts(context.Context, []int64) (map[int64][]*component.Component, error) {
	return nil, nil
}

func (m *memComponents) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	delete(m.items, id)
	return ok, nil
}

type memLogs struct {
	mu   sync.Mutex
	logs []*healthlog.Log
	err  error
}

func (m *memLogs) AddLog(_ context.Context, l *healthlog.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, l)
	return nil
}

func (m *memLogs) GetLogs(context.Context, int64, int) ([]*healthlog.Log, error) { return nil, nil }

func (m *memLogs) LastNDaySummary(context.Context, int64, int) ([]healthlog.DaySummary, error) {
	return nil, nil
}

func (m *memLogs) LastNDaySummaryBulk(context.Context, []int64, int) (map[int64][]healthlog.DaySummary, error) {
	return nil, nil
}

type outboxRow struct {
	key     string
	kind    outbox.Kind
	payload []byte
}

type memOutbox struct {
	mu   sync.Mutex
	rows []outboxRow
}

func (m *memOutbox) Enqueue(_ context.Context, key string, kind outbox.Kind, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, outboxRow{key: key, kind: kind, payload: payload})
	return nil
}

func (m *memOutbox) PickBatch(context.Context, int, time.Duration) ([]outbox.Message, error) {
	return nil, nil
}

func (m *memOutbox) MarkSuccess(context.Context, []string) error { return nil }

// inlineTx runs the callback without a real transaction.
type inlineTx struct{ calls int }

func (t *inlineTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}
