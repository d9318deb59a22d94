package product

import (
	"context"
	"fmt"

	"github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/page"
	domain "github.com/lmello0/status-page/internal/domain/product"
)

type CreateInput struct {
	Name        string
	Description *string
	IsVisible   bool
}

// UpdateInput holds a partial update; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	IsVisible   *bool
}

type Usecase struct {
	products   domain.Repo
	components component.Repo
}

func NewUsecase(products domain.Repo, components component.Repo) *Usecase {
	return &Usecase{products: products, components: components}
}

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	p := &domain.Product{
		Name:        in.Name,
		Description: in.Description,
		IsVisible:   in.IsVisible,
		Components:  []*component.Component{},
	}
	if err := u.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (u *Usecase) List(ctx context.Context, isVisible bool, req page.Request) (page.Page[*domain.Product], error) {
	res, err := u.products.FindAll(ctx, isVisible, req.Normalize())
	if err != nil {
		return page.Page[*domain.Product]{}, err
	}
	if err := u.attachComponents(ctx, res.Content...); err != nil {
		return page.Page[*domain.Product]{}, err
	}
	return res, nil
}

func (u *Usecase) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := u.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, u.attachComponents(ctx, p)
}

func (u *Usecase) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	p, err := u.products.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return p, u.attachComponents(ctx, p)
}

func (u *Usecase) Update(ctx context.Context, id int64, in UpdateInput) (*domain.Product, error) {
	p, err := u.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.IsVisible != nil {
		p.IsVisible = *in.IsVisible
	}
	if err := u.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, u.attachComponents(ctx, p)
}

func (u *Usecase) Delete(ctx context.Context, id int64) (bool, error) {
	return u.products.Delete(ctx, id)
}

func (u *Usecase) attachComponents(ctx context.Context, ps ...*domain.Product) error {
	if len(ps) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	byProduct, err := u.components.ListByProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("load product components: %w", err)
	}
	for _, p := range ps {
		p.Components = domain.BuildTree(byProduct[p.ID])
	}
	return nil
}
