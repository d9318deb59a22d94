package component

import (
	"context"

	"github.com/lmello0/status-page/internal/domain/page"
	"github.com/lmello0/status-page/internal/domain/status"
)

type Repo interface {
	// FindAllActive returns every active component that has a monitoring config.
	FindAllActive(ctx context.Context) ([]*Component, error)
	FindByID(ctx context.Context, id int64) (*Component, error)
	Save(ctx context.Context, c *Component) error
	UpdateStatus(ctx context.Context, id int64, s status.Status) error
	ListByProduct(ctx context.Context, productID int64, req page.Request) (page.Page[*Component], error)
	ListByProducts(ctx context.Context, productIDs []int64) (map[int64][]*Component, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
