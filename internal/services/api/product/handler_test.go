package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/page"
	domain "github.com/lmello0/status-page/internal/domain/product"
	"github.com/lmello0/status-page/internal/domain/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memProducts struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*domain.Product
}

func newMemProducts() *memProducts { return &memProducts{items: map[int64]*domain.Product{}} }

func (m *memProducts) Save(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.items {
		if other.Name == p.Name && id != p.ID {
			return fmt.Errorf("%w: name '%s'", domain.ErrAlreadyExists, p.Name)
		}
	}
	if p.ID == 0 {
		m.nextID++
		p.ID = m.nextID
		p.CreatedAt = time.Now().UTC()
	} else if _, ok := m.items[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memProducts) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) FindByName(_ context.Context, name string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *memProducts) FindAll(_ context.Context, isVisible bool, req page.Request) (page.Page[*domain.Product], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Product
	for _, p := range m.items {
		if p.IsVisible == isVisible {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	req = req.Normalize()
	lo := min(req.Offset(), len(all))
	hi := min(lo+req.PageSize, len(all))
	return page.New(req, len(all), all[lo:hi]), nil
}

func (m *memProducts) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	delete(m.items, id)
	return ok, nil
}

type stubComponents struct {
	component.Repo
	byProduct map[int64][]*component.Component
}

func (s *stubComponents) ListByProducts(_ context.Context, ids []int64) (map[int64][]*component.Component, error) {
	out := map[int64][]*component.Component{}
	for _, id := range ids {
		out[id] = s.byProduct[id]
	}
	return out, nil
}

func newServer(t *testing.T, comps map[int64][]*component.Component) (*httptest.Server, *memProducts) {
	t.Helper()
	products := newMemProducts()
	h := NewHandler(NewUsecase(products, &stubComponents{byProduct: comps}), zap.NewNop())
	r := chi.NewRouter()
	r.Route("/product", h.Routes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, products
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestCreateAndGet(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/product", `{"name":"Payments","description":"card flows"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Payments", body["name"])
	assert.Equal(t, true, body["isVisible"])
	assert.Equal(t, "OPERATIONAL", body["overallStatus"])
	assert.Equal(t, []any{}, body["components"])

	resp, body = do(t, http.MethodGet, srv.URL+"/product/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "card flows", body["description"])

	resp, body = do(t, http.MethodGet, srv.URL+"/product/name/Payments", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["id"])
}

func TestCreate_Validation(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/product", `{"description":"no name"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["detail"], "Name")

	resp, _ = do(t, http.MethodPost, srv.URL+"/product", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreate_DuplicateName(t *testing.T) {
	srv, _ := newServer(t, nil)
	resp, _ := do(t, http.MethodPost, srv.URL+"/product", `{"name":"Search"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/product", `{"name":"Search"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGet_NotFoundAndBadID(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/product/42", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", body["detail"])

	resp, _ = do(t, http.MethodGet, srv.URL+"/product/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestList_FiltersVisibilityAndPages(t *testing.T) {
	srv, products := newServer(t, nil)
	for i := 0; i < 3; i++ {
		require.NoError(t, products.Save(context.Background(), &domain.Product{Name: fmt.Sprintf("p%d", i), IsVisible: true}))
	}
	require.NoError(t, products.Save(context.Background(), &domain.Product{Name: "hidden"}))

	resp, body := do(t, http.MethodGet, srv.URL+"/product?is_visible=true&page=2&page_size=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["totalElements"])
	assert.Equal(t, float64(2), body["totalPages"])
	assert.Equal(t, float64(1), body["pageCount"])

	resp, body = do(t, http.MethodGet, srv.URL+"/product", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["totalElements"])

	resp, _ = do(t, http.MethodGet, srv.URL+"/product?page=0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGet_BuildsTreeAndOverallStatus(t *testing.T) {
	parent := int64(10)
	comps := map[int64][]*component.Component{
		1: {
			{ID: 11, ProductID: 1, ParentID: &parent, Name: "db", CurrentStatus: status.Ptr(status.Outage)},
			{ID: 10, ProductID: 1, Name: "backend"},
		},
	}
	srv, products := newServer(t, comps)
	require.NoError(t, products.Save(context.Background(), &domain.Product{Name: "core", IsVisible: true}))

	resp, body := do(t, http.MethodGet, srv.URL+"/product/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OUTAGE", body["overallStatus"])

	roots := body["components"].([]any)
	require.Len(t, roots, 1)
	root := roots[0].(map[string]any)
	assert.Equal(t, "backend", root["name"])
	subs := root["subcomponents"].([]any)
	require.Len(t, subs, 1)
	assert.Equal(t, "db", subs[0].(map[string]any)["name"])
}

func TestUpdate_Partial(t *testing.T) {
	srv, products := newServer(t, nil)
	desc := "old"
	require.NoError(t, products.Save(context.Background(), &domain.Product{Name: "api", Description: &desc, IsVisible: true}))

	resp, body := do(t, http.MethodPut, srv.URL+"/product/1", `{"isVisible":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "api", body["name"])
	assert.Equal(t, "old", body["description"])
	assert.Equal(t, false, body["isVisible"])

	resp, _ = do(t, http.MethodPut, srv.URL+"/product/9", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDelete(t *testing.T) {
	srv, products := newServer(t, nil)
	require.NoError(t, products.Save(context.Background(), &domain.Product{Name: "gone"}))

	resp, body := do(t, http.MethodDelete, srv.URL+"/product/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["deleted"])

	resp, _ = do(t, http.MethodDelete, srv.URL+"/product/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
