// Package component serves the /component endpoints.
package component

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	domain "github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/healthlog"
	"github.com/lmello0/status-page/internal/domain/page"
	"github.com/lmello0/status-page/internal/services/api/web"
	"github.com/lmello0/status-page/internal/services/healthcheck"
	"go.uber.org/zap"
)

type monitoringCreate struct {
	HealthURL            string `json:"healthUrl" validate:"required,url"`
	CheckIntervalSeconds *int   `json:"checkIntervalSeconds" validate:"omitempty,gt=0"`
	TimeoutSeconds       *int   `json:"timeoutSeconds" validate:"omitempty,gt=0"`
	ExpectedStatusCode   *int   `json:"expectedStatusCode" validate:"omitempty,gte=100,lte=599"`
	MaxResponseTimeMs    *int   `json:"maxResponseTimeMs" validate:"omitempty,gt=0"`
	FailuresBeforeOutage *int   `json:"failuresBeforeOutage" validate:"omitempty,gt=0"`
}

type createRequest struct {
	ProductID  int64             `json:"productId" validate:"required,gt=0"`
	ParentID   *int64            `json:"parentId" validate:"omitempty,gt=0"`
	Name       string            `json:"name" validate:"required,max=255"`
	Type       string            `json:"type" validate:"required"`
	Monitoring *monitoringCreate `json:"monitoringConfig"`
}

type monitoringUpdate struct {
	HealthURL            *string `json:"healthUrl" validate:"omitempty,url"`
	CheckIntervalSeconds *int    `json:"checkIntervalSeconds" validate:"omitempty,gt=0"`
	TimeoutSeconds       *int    `json:"timeoutSeconds" validate:"omitempty,gt=0"`
	ExpectedStatusCode   *int    `json:"expectedStatusCode" validate:"omitempty,gte=100,lte=599"`
	MaxResponseTimeMs    *int    `json:"maxResponseTimeMs" validate:"omitempty,gt=0"`
	FailuresBeforeOutage *int    `json:"failuresBeforeOutage" validate:"omitempty,gt=0"`
}

type updateRequest struct {
	Name       *string           `json:"name" validate:"omitempty,min=1,max=255"`
	Type       *string           `json:"type"`
	ParentID   *int64            `json:"parentId" validate:"omitempty,gt=0"`
	IsActive   *bool             `json:"isActive"`
	Monitoring *monitoringUpdate `json:"monitoringConfig"`
}

type Handler struct {
	uc  *Usecase
	log *zap.Logger
}

func NewHandler(uc *Usecase, log *zap.Logger) *Handler {
	return &Handler{uc: uc, log: log.With(zap.String("component", "component_api"))}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/logs", h.logs)
	r.Post("/{id}/check", h.check)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	typ, err := domain.ParseType(req.Type)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}

	in := CreateInput{ProductID: req.ProductID, ParentID: req.ParentID, Name: req.Name, Type: typ}
	if m := req.Monitoring; m != nil {
		in.Monitoring = &MonitoringInput{
			HealthURL:            m.HealthURL,
			CheckIntervalSeconds: m.CheckIntervalSeconds,
			TimeoutSeconds:       m.TimeoutSeconds,
			ExpectedStatusCode:   m.ExpectedStatusCode,
			MaxResponseTimeMs:    m.MaxResponseTimeMs,
			FailuresBeforeOutage: m.FailuresBeforeOutage,
		}
	}

	c, err := h.uc.Create(r.Context(), in)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	web.JSON(w, http.StatusCreated, c)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	productID, err := web.QueryInt(r, "product_id", 0, 1, 0)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	if productID == 0 {
		web.Fail(w, r, h.log, web.BadRequest("product_id is required"))
		return
	}
	pg, err := web.QueryInt(r, "page", page.DefaultPage, 1, 0)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	size, err := web.QueryInt(r, "page_size", page.DefaultPageSize, 1, 0)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	days, err := web.QueryInt(r, "summary_days", healthlog.DefaultSummaryDays, 1, healthlog.MaxSummaryDays)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}

	res, err := h.uc.ListByProduct(r.Context(), int64(productID), page.Request{Page: pg, PageSize: size}, days)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	web.JSON(w, http.StatusOK, res)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	var req updateRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, h.log, err)
		return
	}

	in := UpdateInput{Name: req.Name, ParentID: req.ParentID, IsActive: req.IsActive}
	if req.Type != nil {
		typ, err := domain.ParseType(*req.Type)
		if err != nil {
			web.Fail(w, r, h.log, err)
			return
		}
		in.Type = &typ
	}
	if m := req.Monitoring; m != nil {
		patch := MonitoringPatch(*m)
		in.Monitoring = &patch
	}

	c, err := h.uc.Update(r.Context(), id, in)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	web.JSON(w, http.StatusOK, c)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	if err := h.uc.Delete(r.Context(), id); err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logs(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	limit, err := web.QueryInt(r, "limit", healthlog.DefaultLogsLimit, 1, 1000)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	logs, err := h.uc.Logs(r.Context(), id, limit)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	web.JSON(w, http.StatusOK, logs)
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	c, err := h.uc.Check(r.Context(), id)
	if errors.Is(err, healthcheck.ErrNotMonitored) {
		web.Error(w, http.StatusNotFound, "Component is not monitored")
		return
	}
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	web.JSON(w, http.StatusOK, c)
}
