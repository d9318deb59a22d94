package product

import (
	"errors"
	"sort"
	"time"

	"github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/status"
)

type Product struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	Description *string                `json:"description"`
	IsVisible   bool                   `json:"isVisible"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	Components  []*component.Component `json:"components"`
}

// OverallStatus is the worst status among the product's components.
func (p *Product) OverallStatus() status.Status {
	var all []status.Status
	var walk func([]*component.Component)
	walk = func(cs []*component.Component) {
		for _, c := range cs {
			all = append(all, c.StatusOrDefault())
			walk(c.Subcomponents)
		}
	}
	walk(p.Components)
	return status.Worst(all...)
}

// BuildTree nests components under their parents, ordered by id. Components
// whose parent is not in the list are treated as roots.
func BuildTree(flat []*component.Component) []*component.Component {
	byID := make(map[int64]*component.Component, len(flat))
	for _, c := range flat {
		cp := c.Clone()
		cp.Subcomponents = nil
		byID[c.ID] = cp
	}

	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	roots := make([]*component.Component, 0)
	for _, id := range ids {
		c := byID[id]
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok && parent != c {
				parent.Subcomponents = append(parent.Subcomponents, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}

var (
	ErrProductNotFound = errors.New("product not found")
	ErrAlreadyExists   = errors.New("product already exists")
)
