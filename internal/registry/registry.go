// Package registry holds the in-memory snapshot of monitored components.
package registry

import (
	"sync"

	"github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/status"
)

// Registry maps component id to a private copy of the component. Every read
// and write goes through Clone, so callers never alias stored values.
type Registry struct {
	mu    sync.RWMutex
	items map[int64]*component.Component
}

func New() *Registry {
	return &Registry{items: make(map[int64]*component.Component)}
}

func (r *Registry) Set(c *component.Component) {
	if c == nil {
		return
	}
	cp := c.Clone()
	r.mu.Lock()
	r.items[cp.ID] = cp
	r.mu.Unlock()
}

func (r *Registry) Get(id int64) (*component.Component, bool) {
	r.mu.RLock()
	c, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// SetStatus updates the cached status in place. It reports false when id is unknown.
func (r *Registry) SetStatus(id int64, s status.Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return false
	}
	c.CurrentStatus = status.Ptr(s)
	return true
}

func (r *Registry) Remove(id int64) {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
}

func (r *Registry) GetAll() map[int64]*component.Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int64]*component.Component, len(r.items))
	for id, c := range r.items {
		out[id] = c.Clone()
	}
	return out
}

func (r *Registry) IDs() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int64, 0, len(r.items))
	for id := range r.items {
		out = append(out, id)
	}
	return out
}

func (r *Registry) Clear() {
	r.mu.Lock()
	r.items = make(map[int64]*component.Component)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
