package component

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	domain "github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/healthlog"
	"github.com/lmello0/status-page/internal/domain/page"
	"github.com/lmello0/status-page/internal/domain/product"
	"github.com/lmello0/status-page/internal/domain/status"
	"github.com/lmello0/status-page/internal/services/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memComponents struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*domain.Component
}

func (m *memComponents) FindAllActive(context.Context) ([]*domain.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Component
	for _, c := range m.items {
		if c.IsActive && c.IsLeaf() {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (m *memComponents) FindByID(_ context.Context, id int64) (*domain.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, domain.ErrComponentNotFound
	}
	return c.Clone(), nil
}

func (m *memComponents) Save(_ context.Context, c *domain.Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.items {
		if id == c.ID {
			continue
		}
		if other.Name == c.Name {
			return &domain.AlreadyExistsError{Field: "name", Value: c.Name}
		}
	}
	if c.ID == 0 {
		m.nextID++
		c.ID = m.nextID
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = time.Now().UTC()
	m.items[c.ID] = c.Clone()
	return nil
}

func (m *memComponents) UpdateStatus(_ context.Context, id int64, s status.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return domain.ErrComponentNotFound
	}
	c.CurrentStatus = status.Ptr(s)
	return nil
}

func (m *memComponents) ListByProduct(_ context.Context, productID int64, req page.Request) (page.Page[*domain.Component], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Component
	for _, c := range m.items {
		if c.ProductID == productID {
			all = append(all, c.Clone())
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	lo := min(req.Offset(), len(all))
	hi := min(lo+req.Normalize().PageSize, len(all))
	return page.New(req, len(all), all[lo:hi]), nil
}

func (m *memComponents) ListByProducts(context.Context, []int64) (map[int64][]*domain.Component, error) {
	return nil, nil
}

func (m *memComponents) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	delete(m.items, id)
	return ok, nil
}

type stubProducts struct {
	product.Repo
	ids map[int64]bool
}

func (s *stubProducts) FindByID(_ context.Context, id int64) (*product.Product, error) {
	if !s.ids[id] {
		return nil, product.ErrProductNotFound
	}
	return &product.Product{ID: id}, nil
}

type stubLogs struct {
	healthlog.Repo
	mu        sync.Mutex
	summaries map[int64][]healthlog.DaySummary
	logs      []*healthlog.Log
	gotDays   int
}

func (s *stubLogs) seed(summaries map[int64][]healthlog.DaySummary, logs []*healthlog.Log) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = summaries
	s.logs = logs
}

func (s *stubLogs) days() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gotDays
}

func (s *stubLogs) LastNDaySummaryBulk(_ context.Context, ids []int64, days int) (map[int64][]healthlog.DaySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotDays = days
	out := map[int64][]healthlog.DaySummary{}
	for _, id := range ids {
		out[id] = s.summaries[id]
	}
	return out, nil
}

func (s *stubLogs) GetLogs(_ context.Context, _ int64, limit int) ([]*healthlog.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit < len(s.logs) {
		return s.logs[:limit], nil
	}
	return s.logs, nil
}

// fakeEngine caches whatever the last sync saw and reports a fixed status on check.
type fakeEngine struct {
	mu     sync.Mutex
	repo   *memComponents
	cached map[int64]bool
	syncs  int
}

func (e *fakeEngine) SyncComponents(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.syncs++
	active, _ := e.repo.FindAllActive(ctx)
	e.cached = map[int64]bool{}
	for _, c := range active {
		e.cached[c.ID] = true
	}
	return nil
}

func (e *fakeEngine) isCached(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cached[id]
}

func (e *fakeEngine) syncCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncs
}

func (e *fakeEngine) forget() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cached = map[int64]bool{}
}

func (e *fakeEngine) TriggerImmediateCheck(ctx context.Context, id int64) (*domain.Component, error) {
	e.mu.Lock()
	ok := e.cached[id]
	e.mu.Unlock()
	if !ok {
		return nil, healthcheck.ErrNotMonitored
	}
	if err := e.repo.UpdateStatus(ctx, id, status.Degraded); err != nil {
		return nil, err
	}
	return e.repo.FindByID(ctx, id)
}

type fixture struct {
	srv    *httptest.Server
	repo   *memComponents
	logs   *stubLogs
	engine *fakeEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := &memComponents{items: map[int64]*domain.Component{}}
	logs := &stubLogs{}
	eng := &fakeEngine{repo: repo}
	uc := NewUsecase(repo, &stubProducts{ids: map[int64]bool{1: true, 2: true}}, logs, eng, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/component", NewHandler(uc, zap.NewNop()).Routes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, repo: repo, logs: logs, engine: eng}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var raw json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&raw)
	return resp.StatusCode, raw
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

const createAPI = `{"productId":1,"name":"api","type":"backend","monitoringConfig":{"healthUrl":"https://api.example.com/health","timeoutSeconds":5}}`

func TestCreate_AppliesDefaultsAndSchedules(t *testing.T) {
	f := newFixture(t)

	code, raw := f.do(t, http.MethodPost, "/component", createAPI)
	require.Equal(t, http.StatusCreated, code)
	body := decode(t, raw)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "BACKEND", body["type"])
	assert.Equal(t, true, body["isActive"])
	assert.Nil(t, body["currentStatus"])

	mc := body["monitoringConfig"].(map[string]any)
	assert.Equal(t, float64(60), mc["checkIntervalSeconds"])
	assert.Equal(t, float64(5), mc["timeoutSeconds"])
	assert.Equal(t, float64(200), mc["expectedStatusCode"])
	assert.Equal(t, float64(3), mc["failuresBeforeOutage"])

	assert.Equal(t, 1, f.engine.syncCount())
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/component", createAPI)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"duplicate name", createAPI, http.StatusConflict},
		{"bad scheme", `{"productId":1,"name":"x","type":"BACKEND","monitoringConfig":{"healthUrl":"ftp://x.example.com"}}`, http.StatusBadRequest},
		{"bad type", `{"productId":1,"name":"x","type":"DATABASE","monitoringConfig":{"healthUrl":"http://x"}}`, http.StatusBadRequest},
		{"missing product", `{"productId":7,"name":"x","type":"BACKEND"}`, http.StatusNotFound},
		{"missing name", `{"productId":1,"type":"BACKEND"}`, http.StatusBadRequest},
		{"unknown parent", `{"productId":1,"parentId":99,"name":"x","type":"BACKEND"}`, http.StatusBadRequest},
		{"zero interval", `{"productId":1,"name":"x","type":"BACKEND","monitoringConfig":{"healthUrl":"http://x","checkIntervalSeconds":0}}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := f.do(t, http.MethodPost, "/component", tc.body)
			assert.Equal(t, tc.code, code)
		})
	}

	code, raw := f.do(t, http.MethodPost, "/component", createAPI)
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Component with name='api' already exists", decode(t, raw)["detail"])
}

func TestCreate_ParentFromOtherProduct(t *testing.T) {
	f := newFixture(t)
	code, _ := f.do(t, http.MethodPost, "/component", `{"productId":2,"name":"group","type":"BACKEND"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = f.do(t, http.MethodPost, "/component", `{"productId":1,"parentId":1,"name":"child","type":"BACKEND"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestList_AttachesSummaries(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/component", createAPI)
	_, _ = f.do(t, http.MethodPost, "/component", `{"productId":1,"name":"web","type":"FRONTEND","monitoringConfig":{"healthUrl":"https://web.example.com"}}`)
	f.logs.seed(map[int64][]healthlog.DaySummary{
		1: {{ComponentID: 1, TotalChecks: 10, SuccessfulChecks: 9, Uptime: 90, OverallStatus: status.Degraded}},
	}, nil)

	code, raw := f.do(t, http.MethodGet, "/component?product_id=1&summary_days=30", "")
	require.Equal(t, http.StatusOK, code)
	body := decode(t, raw)
	assert.Equal(t, float64(2), body["totalElements"])
	assert.Equal(t, 30, f.logs.days())

	content := body["content"].([]any)
	require.Len(t, content, 2)
	first := content[0].(map[string]any)["healthcheckDayLogs"].([]any)
	require.Len(t, first, 1)
	assert.Equal(t, "DEGRADED", first[0].(map[string]any)["overallStatus"])
	assert.Equal(t, []any{}, content[1].(map[string]any)["healthcheckDayLogs"])
}

func TestList_QueryValidation(t *testing.T) {
	f := newFixture(t)
	for _, q := range []string{"", "?product_id=1&summary_days=0", "?product_id=1&summary_days=366", "?product_id=abc", "?product_id=1&page_size=0"} {
		code, _ := f.do(t, http.MethodGet, "/component"+q, "")
		assert.Equal(t, http.StatusBadRequest, code, q)
	}
	code, _ := f.do(t, http.MethodGet, "/component?product_id=1&summary_days=365", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestUpdate_MergesMonitoring(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/component", createAPI)

	code, raw := f.do(t, http.MethodPatch, "/component/1", `{"monitoringConfig":{"checkIntervalSeconds":15}}`)
	require.Equal(t, http.StatusOK, code)
	mc := decode(t, raw)["monitoringConfig"].(map[string]any)
	assert.Equal(t, float64(15), mc["checkIntervalSeconds"])
	assert.Equal(t, float64(5), mc["timeoutSeconds"])
	assert.Equal(t, "https://api.example.com/health", mc["healthUrl"])

	code, _ = f.do(t, http.MethodPatch, "/component/1", `{"monitoringConfig":{"healthUrl":"ftp://nope"}}`)
	assert.Equal(t, http.StatusBadRequest, code)

	stored, err := f.repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.Monitoring.CheckIntervalSeconds)
}

func TestUpdate_DeactivateAndErrors(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/component", createAPI)
	_, _ = f.do(t, http.MethodPost, "/component", `{"productId":1,"name":"web","type":"FRONTEND"}`)

	code, raw := f.do(t, http.MethodPatch, "/component/1", `{"isActive":false}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, decode(t, raw)["isActive"])
	assert.False(t, f.engine.isCached(1))

	code, _ = f.do(t, http.MethodPatch, "/component/9", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, http.MethodPatch, "/component/2", `{"name":"api"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = f.do(t, http.MethodPatch, "/component/2", `{"monitoringConfig":{"timeoutSeconds":3}}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPatch, "/component/2", `{"parentId":2}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDelete_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/component", createAPI)

	code, _ := f.do(t, http.MethodDelete, "/component/1", "")
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = f.do(t, http.MethodDelete, "/component/1", "")
	assert.Equal(t, http.StatusNoContent, code)

	_, err := f.repo.FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrComponentNotFound)
	assert.False(t, f.engine.isCached(1))
}

func TestLogs(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/component", createAPI)
	f.logs.seed(nil, []*healthlog.Log{{ID: 3, ComponentID: 1}, {ID: 2, ComponentID: 1}, {ID: 1, ComponentID: 1}})

	code, raw := f.do(t, http.MethodGet, "/component/1/logs?limit=2", "")
	require.Equal(t, http.StatusOK, code)
	var logs []map[string]any
	require.NoError(t, json.Unmarshal(raw, &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, float64(3), logs[0]["id"])

	code, _ = f.do(t, http.MethodGet, "/component/5/logs", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCheck_SyncsOnCacheMiss(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/component", createAPI)
	f.engine.forget()

	code, raw := f.do(t, http.MethodPost, "/component/1/check", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "DEGRADED", decode(t, raw)["currentStatus"])
}

func TestCheck_NotMonitored(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/component", `{"productId":1,"name":"group","type":"BACKEND"}`)

	code, raw := f.do(t, http.MethodPost, "/component/1/check", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Component is not monitored", decode(t, raw)["detail"])

	code, _ = f.do(t, http.MethodPost, "/component/8/check", "")
	assert.Equal(t, http.StatusNotFound, code)
}
