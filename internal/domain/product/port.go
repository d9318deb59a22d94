package product

import (
	"context"

	"github.com/lmello0/status-page/internal/domain/page"
)

type Repo interface {
	Save(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	FindAll(ctx context.Context, isVisible bool, req page.Request) (page.Page[*Product], error)
	Delete(ctx context.Context, id int64) (bool, error)
}
