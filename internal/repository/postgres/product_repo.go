package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lmello0/status-page/internal/domain/page"
	"github.com/lmello0/status-page/internal/domain/product"
)

var _ product.Repo = (*ProductRepoImpl)(nil)

type ProductRepoImpl struct {
	db *DB
}

func NewProductRepo(db *DB) *ProductRepoImpl { return &ProductRepoImpl{db: db} }

const (
	qProductInsert = `
INSERT INTO products (name, description, is_visible)
VALUES ($1, $2, $3)
RETURNING id, name, description, is_visible, created_at, updated_at;`

	qProductUpdate = `
UPDATE products
SET name = $2, description = $3, is_visible = $4, updated_at = now()
WHERE id = $1
RETURNING id, name, description, is_visible, created_at, updated_at;`

	qProductByID = `
SELECT id, name, description, is_visible, created_at, updated_at
FROM products
WHERE id = $1;`

	qProductByName = `
SELECT id, name, description, is_visible, created_at, updated_at
FROM products
WHERE name = $1;`

	qProductsPage = `
SELECT id, name, description, is_visible, created_at, updated_at
FROM products
WHERE is_visible = $1
ORDER BY id
LIMIT $2 OFFSET $3;`

	qProductsCount = `SELECT COUNT(*) FROM products WHERE is_visible = $1;`

	qProductDelete = `DELETE FROM products WHERE id = $1;`
)

func scanProduct(row pgx.Row) (*product.Product, error) {
	var p product.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.IsVisible, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrProductNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (r *ProductRepoImpl) Save(ctx context.Context, p *product.Product) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	var row pgx.Row
	if p.ID == 0 {
		row = eq.QueryRow(ctx, qProductInsert, p.Name, p.Description, p.IsVisible)
	} else {
		row = eq.QueryRow(ctx, qProductUpdate, p.ID, p.Name, p.Description, p.IsVisible)
	}

	saved, err := scanProduct(row)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return fmt.Errorf("%w: name '%s'", product.ErrAlreadyExists, p.Name)
		}
		return err
	}
	saved.Components = p.Components
	*p = *saved
	return nil
}

func (r *ProductRepoImpl) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	return scanProduct(r.db.execQueryer(ctx).QueryRow(ctx, qProductByID, id))
}

func (r *ProductRepoImpl) FindByName(ctx context.Context, name string) (*product.Product, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	return scanProduct(r.db.execQueryer(ctx).QueryRow(ctx, qProductByName, name))
}

func (r *ProductRepoImpl) FindAll(ctx context.Context, isVisible bool, req page.Request) (page.Page[*product.Product], error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	req = req.Normalize()
	eq := r.db.execQueryer(ctx)

	var total int
	if err := eq.QueryRow(ctx, qProductsCount, isVisible).Scan(&total); err != nil {
		return page.Page[*product.Product]{}, fmt.Errorf("count products: %w", err)
	}

	rows, err := eq.Query(ctx, qProductsPage, isVisible, req.PageSize, req.Offset())
	if err != nil {
		return page.Page[*product.Product]{}, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	items := make([]*product.Product, 0, req.PageSize)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return page.Page[*product.Product]{}, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return page.Page[*product.Product]{}, fmt.Errorf("iterate products: %w", err)
	}
	return page.New(req, total, items), nil
}

func (r *ProductRepoImpl) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qProductDelete, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
