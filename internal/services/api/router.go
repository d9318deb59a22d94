// Package api exposes the status page over REST.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lmello0/status-page/internal/services/api/component"
	"github.com/lmello0/status-page/internal/services/api/product"
	"github.com/lmello0/status-page/internal/services/api/stats"
	"github.com/lmello0/status-page/internal/services/api/web"
	"go.uber.org/zap"
)

type Handlers struct {
	Products   *product.Handler
	Components *component.Handler
	Stats      *stats.Handler
}

// NewRouter mounts the resource handlers under /product, /component and
// /stats. excludedLogPaths are path suffixes that skip the request log.
func NewRouter(log *zap.Logger, h Handlers, excludedLogPaths []string) http.Handler {
	r := chi.NewRouter()
	r.Use(Metrics, RequestLog(log, excludedLogPaths))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		web.Error(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		web.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Route("/product", h.Products.Routes)
	r.Route("/component", h.Components.Routes)
	r.Route("/stats", h.Stats.Routes)
	return r
}
