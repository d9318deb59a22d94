package component

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/healthlog"
	"github.com/lmello0/status-page/internal/domain/page"
	"github.com/lmello0/status-page/internal/domain/product"
	"github.com/lmello0/status-page/internal/services/healthcheck"
	"go.uber.org/zap"
)

// Engine is the part of the health-check engine the API drives. Mutations
// trigger a sync so probe jobs follow the stored configuration without
// waiting for the next periodic pass.
type Engine interface {
	SyncComponents(ctx context.Context) error
	TriggerImmediateCheck(ctx context.Context, id int64) (*domain.Component, error)
}

type MonitoringInput struct {
	HealthURL            string
	CheckIntervalSeconds *int
	TimeoutSeconds       *int
	ExpectedStatusCode   *int
	MaxResponseTimeMs    *int
	FailuresBeforeOutage *int
}

type CreateInput struct {
	ProductID  int64
	ParentID   *int64
	Name       string
	Type       domain.Type
	Monitoring *MonitoringInput
}

// MonitoringPatch fields are merged onto the stored config.
type MonitoringPatch struct {
	HealthURL            *string
	CheckIntervalSeconds *int
	TimeoutSeconds       *int
	ExpectedStatusCode   *int
	MaxResponseTimeMs    *int
	FailuresBeforeOutage *int
}

type UpdateInput struct {
	Name       *string
	Type       *domain.Type
	ParentID   *int64
	IsActive   *bool
	Monitoring *MonitoringPatch
}

type Usecase struct {
	components domain.Repo
	products   product.Repo
	logs       healthlog.Repo
	engine     Engine
	log        *zap.Logger
}

// NewUsecase builds the component use cases. engine may be nil, in which
// case mutations are only picked up by the periodic sync and manual checks
// are rejected.
func NewUsecase(components domain.Repo, products product.Repo, logs healthlog.Repo, engine Engine, log *zap.Logger) *Usecase {
	return &Usecase{
		components: components,
		products:   products,
		logs:       logs,
		engine:     engine,
		log:        log.With(zap.String("component", "component_usecase")),
	}
}

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*domain.Component, error) {
	if _, err := u.products.FindByID(ctx, in.ProductID); err != nil {
		return nil, err
	}
	if err := u.checkParent(ctx, in.ProductID, 0, in.ParentID); err != nil {
		return nil, err
	}

	c := &domain.Component{
		ProductID: in.ProductID,
		ParentID:  in.ParentID,
		Name:      in.Name,
		Type:      in.Type,
		IsActive:  true,
	}
	if in.Monitoring != nil {
		mc, err := domain.NewMonitoringConfig(in.Monitoring.HealthURL, monitoringOptions(in.Monitoring)...)
		if err != nil {
			return nil, err
		}
		c.Monitoring = mc
	}

	if err := u.components.Save(ctx, c); err != nil {
		return nil, err
	}
	u.resync(ctx)
	return c, nil
}

func monitoringOptions(in *MonitoringInput) []domain.Option {
	var opts []domain.Option
	if in.CheckIntervalSeconds != nil {
		opts = append(opts, domain.WithInterval(*in.CheckIntervalSeconds))
	}
	if in.TimeoutSeconds != nil {
		opts = append(opts, domain.WithTimeout(*in.TimeoutSeconds))
	}
	if in.ExpectedStatusCode != nil {
		opts = append(opts, domain.WithExpectedStatus(*in.ExpectedStatusCode))
	}
	if in.MaxResponseTimeMs != nil {
		opts = append(opts, domain.WithMaxResponseTime(*in.MaxResponseTimeMs))
	}
	if in.FailuresBeforeOutage != nil {
		opts = append(opts, domain.WithFailuresBeforeOutage(*in.FailuresBeforeOutage))
	}
	return opts
}

// ListByProduct returns a page of the product's components, each carrying
// its last summaryDays of day summaries.
func (u *Usecase) ListByProduct(ctx context.Context, productID int64, req page.Request, summaryDays int) (page.Page[*domain.Component], error) {
	res, err := u.components.ListByProduct(ctx, productID, req.Normalize())
	if err != nil {
		return page.Page[*domain.Component]{}, err
	}
	if len(res.Content) == 0 {
		return res, nil
	}

	ids := make([]int64, 0, len(res.Content))
	for _, c := range res.Content {
		ids = append(ids, c.ID)
	}
	summaries, err := u.logs.LastNDaySummaryBulk(ctx, ids, summaryDays)
	if err != nil {
		return page.Page[*domain.Component]{}, fmt.Errorf("load day summaries: %w", err)
	}
	for _, c := range res.Content {
		c.DayLogs = summaries[c.ID]
		if c.DayLogs == nil {
			c.DayLogs = []healthlog.DaySummary{}
		}
	}
	return res, nil
}

func (u *Usecase) Get(ctx context.Context, id int64) (*domain.Component, error) {
	return u.components.FindByID(ctx, id)
}

func (u *Usecase) Update(ctx context.Context, id int64, in UpdateInput) (*domain.Component, error) {
	c, err := u.components.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Type != nil {
		c.Type = *in.Type
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.ParentID != nil {
		if err := u.checkParent(ctx, c.ProductID, c.ID, in.ParentID); err != nil {
			return nil, err
		}
		c.ParentID = in.ParentID
	}
	if in.Monitoring != nil {
		mc, err := mergeMonitoring(c.Monitoring, in.Monitoring)
		if err != nil {
			return nil, err
		}
		c.Monitoring = mc
	}

	if err := u.components.Save(ctx, c); err != nil {
		return nil, err
	}
	u.resync(ctx)
	return c, nil
}

func mergeMonitoring(cur *domain.MonitoringConfig, p *MonitoringPatch) (*domain.MonitoringConfig, error) {
	var mc domain.MonitoringConfig
	if cur != nil {
		mc = *cur
	} else {
		if p.HealthURL == nil {
			return nil, fmt.Errorf("%w: healthUrl is required to start monitoring", domain.ErrInvalidHealthURL)
		}
		def, err := domain.NewMonitoringConfig(*p.HealthURL)
		if err != nil {
			return nil, err
		}
		mc = *def
	}

	if p.HealthURL != nil {
		mc.HealthURL = *p.HealthURL
	}
	if p.CheckIntervalSeconds != nil {
		mc.CheckIntervalSeconds = *p.CheckIntervalSeconds
	}
	if p.TimeoutSeconds != nil {
		mc.TimeoutSeconds = *p.TimeoutSeconds
	}
	if p.ExpectedStatusCode != nil {
		mc.ExpectedStatusCode = *p.ExpectedStatusCode
	}
	if p.MaxResponseTimeMs != nil {
		mc.MaxResponseTimeMs = *p.MaxResponseTimeMs
	}
	if p.FailuresBeforeOutage != nil {
		mc.FailuresBeforeOutage = *p.FailuresBeforeOutage
	}
	if err := mc.Validate(); err != nil {
		return nil, err
	}
	return &mc, nil
}

func (u *Usecase) Delete(ctx context.Context, id int64) error {
	deleted, err := u.components.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted {
		u.resync(ctx)
	}
	return nil
}

func (u *Usecase) Logs(ctx context.Context, id int64, limit int) ([]*healthlog.Log, error) {
	if _, err := u.components.FindByID(ctx, id); err != nil {
		return nil, err
	}
	logs, err := u.logs.GetLogs(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []*healthlog.Log{}
	}
	return logs, nil
}

// Check probes the component right away. A component created after the last
// sync is not cached yet, so a miss triggers one sync and a retry.
func (u *Usecase) Check(ctx context.Context, id int64) (*domain.Component, error) {
	if u.engine == nil {
		return nil, healthcheck.ErrNotMonitored
	}
	c, err := u.engine.TriggerImmediateCheck(ctx, id)
	if !errors.Is(err, healthcheck.ErrNotMonitored) {
		return c, err
	}
	if _, ferr := u.components.FindByID(ctx, id); ferr != nil {
		return nil, ferr
	}
	if serr := u.engine.SyncComponents(ctx); serr != nil {
		return nil, serr
	}
	return u.engine.TriggerImmediateCheck(ctx, id)
}

func (u *Usecase) checkParent(ctx context.Context, productID, selfID int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if *parentID == selfID {
		return fmt.Errorf("%w: component cannot be its own parent", domain.ErrInvalidParent)
	}
	parent, err := u.components.FindByID(ctx, *parentID)
	if errors.Is(err, domain.ErrComponentNotFound) {
		return fmt.Errorf("%w: parent %d does not exist", domain.ErrInvalidParent, *parentID)
	}
	if err != nil {
		return err
	}
	if parent.ProductID != productID {
		return fmt.Errorf("%w: parent %d belongs to another product", domain.ErrInvalidParent, *parentID)
	}
	return nil
}

func (u *Usecase) resync(ctx context.Context) {
	if u.engine == nil {
		return
	}
	if err := u.engine.SyncComponents(context.WithoutCancel(ctx)); err != nil {
		u.log.Warn("component sync after write failed", zap.Error(err))
	}
}
