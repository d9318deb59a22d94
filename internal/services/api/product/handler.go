// Package product serves the /product endpoints.
package product

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lmello0/status-page/internal/domain/page"
	domain "github.com/lmello0/status-page/internal/domain/product"
	"github.com/lmello0/status-page/internal/domain/status"
	"github.com/lmello0/status-page/internal/services/api/web"
	"go.uber.org/zap"
)

type createRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsVisible   *bool   `json:"isVisible"`
}

type updateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsVisible   *bool   `json:"isVisible"`
}

type Response struct {
	*domain.Product
	OverallStatus status.Status `json:"overallStatus"`
}

func toResponse(p *domain.Product) Response {
	return Response{Product: p, OverallStatus: p.OverallStatus()}
}

type Handler struct {
	uc  *Usecase
	log *zap.Logger
}

func NewHandler(uc *Usecase, log *zap.Logger) *Handler {
	return &Handler{uc: uc, log: log.With(zap.String("component", "product_api"))}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/name/{name}", h.getByName)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	in := CreateInput{Name: req.Name, Description: req.Description, IsVisible: true}
	if req.IsVisible != nil {
		in.IsVisible = *req.IsVisible
	}
	p, err := h.uc.Create(r.Context(), in)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	web.JSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	visible, err := web.QueryBool(r, "is_visible", false)
	if err != nil {
		web.Fail(w, r, h.log, err)
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

	res, err := h.uc.List(r.Context(), visible, page.Request{Page: pg, PageSize: size})
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	web.JSON(w, http.StatusOK, page.Map(res, toResponse))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	p, err := h.uc.Get(r.Context(), id)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	web.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) getByName(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	web.JSON(w, http.StatusOK, toResponse(p))
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
	p, err := h.uc.Update(r.Context(), id, UpdateInput(req))
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	web.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := web.PathID(r, "id")
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	ok, err := h.uc.Delete(r.Context(), id)
	if err != nil {
		web.Fail(w, r, h.log, err)
		return
	}
	if !ok {
		web.Fail(w, r, h.log, domain.ErrProductNotFound)
		return
	}
	web.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
