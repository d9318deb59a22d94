// Package stats serves process health for the status page itself.
package stats

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmello0/status-page/internal/services/api/web"
	"github.com/prometheus/procfs"
	"go.uber.org/zap"
)

type Sample struct {
	RSSBytes   int
	CPUSeconds float64
}

// Sampler reads the current process counters.
type Sampler func() (Sample, error)

// ProcfsSampler reads /proc/self/stat.
func ProcfsSampler() Sampler {
	return func() (Sample, error) {
		p, err := procfs.Self()
		if err != nil {
			return Sample{}, fmt.Errorf("open /proc/self: %w", err)
		}
		st, err := p.Stat()
		if err != nil {
			return Sample{}, fmt.Errorf("read /proc/self/stat: %w", err)
		}
		return Sample{RSSBytes: st.ResidentMemory(), CPUSeconds: st.CPUTime()}, nil
	}
}

type Health struct {
	Status     string    `json:"status"`
	Uptime     string    `json:"uptime,omitempty"`
	AppName    string    `json:"app_name,omitempty"`
	Version    string    `json:"version,omitempty"`
	RAM        string    `json:"ram,omitempty"`
	CPUPercent float64   `json:"cpu_percent"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type Handler struct {
	appName string
	version string
	started time.Time
	sample  Sampler
	window  time.Duration
	log     *zap.Logger
}

// NewHandler measures CPU over window; the started time is the uptime origin.
func NewHandler(appName, version string, started time.Time, sample Sampler, window time.Duration, log *zap.Logger) *Handler {
	return &Handler{
		appName: appName,
		version: version,
		started: started,
		sample:  sample,
		window:  window,
		log:     log.With(zap.String("component", "stats_api")),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.health)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	res, err := h.collect(r)
	if err != nil {
		h.log.Warn("process stats unavailable", zap.Error(err))
		web.JSON(w, http.StatusServiceUnavailable, Health{
			Status:    "DEGRADED",
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return
	}
	web.JSON(w, http.StatusOK, res)
}

func (h *Handler) collect(r *http.Request) (Health, error) {
	first, err := h.sample()
	if err != nil {
		return Health{}, err
	}
	begin := time.Now()
	select {
	case <-time.After(h.window):
	case <-r.Context().Done():
		return Health{}, r.Context().Err()
	}
	second, err := h.sample()
	if err != nil {
		return Health{}, err
	}

	cpu := 0.0
	if elapsed := time.Since(begin).Seconds(); elapsed > 0 {
		cpu = math.Round((second.CPUSeconds-first.CPUSeconds)/elapsed*10000) / 100
	}
	ram, err := FormatBytes(float64(second.RSSBytes))
	if err != nil {
		return Health{}, err
	}

	return Health{
		Status:     "UP",
		Uptime:     FormatTime(time.Since(h.started).Seconds()),
		AppName:    h.appName,
		Version:    h.version,
		RAM:        ram,
		CPUPercent: cpu,
		Timestamp:  time.Now().UTC(),
	}, nil
}
