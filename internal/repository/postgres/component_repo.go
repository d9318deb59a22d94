package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/page"
	"github.com/lmello0/status-page/internal/domain/status"
)

var _ component.Repo = (*ComponentRepoImpl)(nil)

type ComponentRepoImpl struct {
	db *DB
}

func NewComponentRepo(db *DB) *ComponentRepoImpl { return &ComponentRepoImpl{db: db} }

const componentColumns = `id, product_id, parent_id, name, type, health_url, check_interval_seconds,
       timeout_seconds, expected_status_code, max_response_time_ms, failures_before_outage,
       current_status, is_active, created_at, updated_at`

const (
	qComponentInsert = `
INSERT INTO components (product_id, parent_id, name, type, health_url, check_interval_seconds,
                        timeout_seconds, expected_status_code, max_response_time_ms,
                        failures_before_outage, current_status, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + componentColumns + `;`

	qComponentUpdate = `
UPDATE components
SET product_id = $2, parent_id = $3, name = $4, type = $5, health_url = $6,
    check_interval_seconds = $7, timeout_seconds = $8, expected_status_code = $9,
    max_response_time_ms = $10, failures_before_outage = $11, current_status = $12,
    is_active = $13, updated_at = now()
WHERE id = $1
RETURNING ` + componentColumns + `;`

	qComponentByID = `SELECT ` + componentColumns + ` FROM components WHERE id = $1;`

	qComponentsActive = `
SELECT ` + componentColumns + `
FROM components
WHERE is_active = TRUE AND health_url IS NOT NULL
ORDER BY id;`

	qComponentsByProduct = `
SELECT ` + componentColumns + `
FROM components
WHERE product_id = $1
ORDER BY id
LIMIT $2 OFFSET $3;`

	qComponentsCountByProduct = `SELECT COUNT(*) FROM components WHERE product_id = $1;`

	qComponentsByProducts = `
SELECT ` + componentColumns + `
FROM components
WHERE product_id = ANY($1)
ORDER BY product_id, id;`

	qComponentUpdateStatus = `
UPDATE components
SET current_status = $2, updated_at = now()
WHERE id = $1;`

	qComponentDelete = `DELETE FROM components WHERE id = $1;`
)

func scanComponent(row pgx.Row) (*component.Component, error) {
	var (
		c                                                 component.Component
		typ                                               string
		healthURL, currentStatus                          *string
		interval, timeout, expected, maxResponse, failMax *int32
	)
	if err := row.Scan(
		&c.ID,
		&c.ProductID,
		&c.ParentID,
		&c.Name,
		&typ,
		&healthURL,
		&interval,
		&timeout,
		&expected,
		&maxResponse,
		&failMax,
		&currentStatus,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, component.ErrComponentNotFound
		}
		return nil, fmt.Errorf("scan component: %w", err)
	}

	c.Type = component.Type(typ)
	if healthURL != nil {
		c.Monitoring = &component.MonitoringConfig{
			HealthURL:            *healthURL,
			CheckIntervalSeconds: intOr(interval, component.DefaultCheckIntervalSeconds),
			TimeoutSeconds:       intOr(timeout, component.DefaultTimeoutSeconds),
			ExpectedStatusCode:   intOr(expected, component.DefaultExpectedStatusCode),
			MaxResponseTimeMs:    intOr(maxResponse, component.DefaultMaxResponseTimeMs),
			FailuresBeforeOutage: intOr(failMax, component.DefaultFailuresBeforeOutage),
		}
	}
	if currentStatus != nil {
		s, err := status.Parse(*currentStatus)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", c.ID, err)
		}
		c.CurrentStatus = &s
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func collectComponents(rows pgx.Rows) ([]*component.Component, error) {
	defer rows.Close()
	out := make([]*component.Component, 0)
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate components: %w", err)
	}
	return out, nil
}

func intOr(v *int32, def int) int {
	if v == nil {
		return def
	}
	return int(*v)
}

// componentArgs flattens the writable columns in insert order.
func componentArgs(c *component.Component) []any {
	var (
		healthURL                                         *string
		interval, timeout, expected, maxResponse, failMax *int
		currentStatus                                     *string
	)
	if m := c.Monitoring; m != nil {
		healthURL = &m.HealthURL
		interval = &m.CheckIntervalSeconds
		timeout = &m.TimeoutSeconds
		expected = &m.ExpectedStatusCode
		maxResponse = &m.MaxResponseTimeMs
		failMax = &m.FailuresBeforeOutage
	}
	if c.CurrentStatus != nil {
		s := c.CurrentStatus.String()
		currentStatus = &s
	}
	return []any{
		c.ProductID, c.ParentID, c.Name, string(c.Type), healthURL,
		interval, timeout, expected, maxResponse, failMax,
		currentStatus, c.IsActive,
	}
}

func (r *ComponentRepoImpl) Save(ctx context.Context, c *component.Component) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	var row pgx.Row
	if c.ID == 0 {
		row = eq.QueryRow(ctx, qComponentInsert, componentArgs(c)...)
	} else {
		row = eq.QueryRow(ctx, qComponentUpdate, append([]any{c.ID}, componentArgs(c)...)...)
	}

	saved, err := scanComponent(row)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return componentConflict(constraint, c)
		}
		return err
	}
	saved.DayLogs = c.DayLogs
	*c = *saved
	return nil
}

func componentConflict(constraint string, c *component.Component) error {
	switch constraint {
	case "components_health_url_key":
		url := ""
		if c.Monitoring != nil {
			url = c.Monitoring.HealthURL
		}
		return &component.AlreadyExistsError{Field: "health_url", Value: url}
	default:
		return &component.AlreadyExistsError{Field: "name", Value: c.Name}
	}
}

func (r *ComponentRepoImpl) FindByID(ctx context.Context, id int64) (*component.Component, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	return scanComponent(r.db.execQueryer(ctx).QueryRow(ctx, qComponentByID, id))
}

func (r *ComponentRepoImpl) FindAllActive(ctx context.Context) ([]*component.Component, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qComponentsActive)
	if err != nil {
		return nil, fmt.Errorf("query active components: %w", err)
	}
	return collectComponents(rows)
}

func (r *ComponentRepoImpl) UpdateStatus(ctx context.Context, id int64, s status.Status) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qComponentUpdateStatus, id, s.String())
	if err != nil {
		return fmt.Errorf("update component status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return component.ErrComponentNotFound
	}
	return nil
}

func (r *ComponentRepoImpl) ListByProduct(ctx context.Context, productID int64, req page.Request) (page.Page[*component.Component], error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	req = req.Normalize()
	eq := r.db.execQueryer(ctx)

	var total int
	if err := eq.QueryRow(ctx, qComponentsCountByProduct, productID).Scan(&total); err != nil {
		return page.Page[*component.Component]{}, fmt.Errorf("count components: %w", err)
	}

	rows, err := eq.Query(ctx, qComponentsByProduct, productID, req.PageSize, req.Offset())
	if err != nil {
		return page.Page[*component.Component]{}, fmt.Errorf("query components: %w", err)
	}
	items, err := collectComponents(rows)
	if err != nil {
		return page.Page[*component.Component]{}, err
	}
	return page.New(req, total, items), nil
}

func (r *ComponentRepoImpl) ListByProducts(ctx context.Context, productIDs []int64) (map[int64][]*component.Component, error) {
	out := make(map[int64][]*component.Component, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qComponentsByProducts, productIDs)
	if err != nil {
		return nil, fmt.Errorf("query components by products: %w", err)
	}
	items, err := collectComponents(rows)
	if err != nil {
		return nil, err
	}
	for _, c := range items {
		out[c.ProductID] = append(out[c.ProductID], c)
	}
	return out, nil
}

func (r *ComponentRepoImpl) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qComponentDelete, id)
	if err != nil {
		return false, fmt.Errorf("delete component: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
