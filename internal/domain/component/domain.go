package component

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lmello0/status-page/internal/domain/healthlog"
	"github.com/lmello0/status-page/internal/domain/status"
)

type Type string

const (
	TypeBackend  Type = "BACKEND"
	TypeFrontend Type = "FRONTEND"
)

func ParseType(v string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(v))); t {
	case TypeBackend, TypeFrontend:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, v)
}

const (
	DefaultCheckIntervalSeconds = 60
	DefaultTimeoutSeconds       = 30
	DefaultExpectedStatusCode   = 200
	DefaultMaxResponseTimeMs    = 5000
	DefaultFailuresBeforeOutage = 3
)

type MonitoringConfig struct {
	HealthURL            string `json:"healthUrl"`
	CheckIntervalSeconds int    `json:"checkIntervalSeconds"`
	TimeoutSeconds       int    `json:"timeoutSeconds"`
	ExpectedStatusCode   int    `json:"expectedStatusCode"`
	MaxResponseTimeMs    int    `json:"maxResponseTimeMs"`
	FailuresBeforeOutage int    `json:"failuresBeforeOutage"`
}

type Option func(*MonitoringConfig)

func WithInterval(sec int) Option { return func(c *MonitoringConfig) { c.CheckIntervalSeconds = sec } }
func WithTimeout(sec int) Option { return func(c *MonitoringConfig) { c.TimeoutSeconds = sec } }
func WithExpectedStatus(code int) Option { return func(c *MonitoringConfig) { c.ExpectedStatusCode = code } }
func WithMaxResponseTime(ms int) Option { return func(c *MonitoringConfig) { c.MaxResponseTimeMs = ms } }
func WithFailuresBeforeOutage(n int) Option {
	return func(c *MonitoringConfig) { c.FailuresBeforeOutage = n }
}

// NewMonitoringConfig applies defaults and rejects anything that is not an
// absolute http(s) URL with a host.
func NewMonitoringConfig(healthURL string, opts ...Option) (*MonitoringConfig, error) {
	c := &MonitoringConfig{
		HealthURL:            healthURL,
		CheckIntervalSeconds: DefaultCheckIntervalSeconds,
		TimeoutSeconds:       DefaultTimeoutSeconds,
		ExpectedStatusCode:   DefaultExpectedStatusCode,
		MaxResponseTimeMs:    DefaultMaxResponseTimeMs,
		FailuresBeforeOutage: DefaultFailuresBeforeOutage,
	}
	for _, o := range opts {
		o(c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *MonitoringConfig) Validate() error {
	if err := ValidateHealthURL(c.HealthURL); err != nil {
		return err
	}
	switch {
	case c.CheckIntervalSeconds <= 0:
		return fmt.Errorf("%w: check interval must be > 0", ErrInvalidMonitoring)
	case c.TimeoutSeconds <= 0:
		return fmt.Errorf("%w: timeout must be > 0", ErrInvalidMonitoring)
	case c.ExpectedStatusCode < 100 || c.ExpectedStatusCode > 599:
		return fmt.Errorf("%w: expected status code %d out of range", ErrInvalidMonitoring, c.ExpectedStatusCode)
	case c.MaxResponseTimeMs <= 0:
		return fmt.Errorf("%w: max response time must be > 0", ErrInvalidMonitoring)
	case c.FailuresBeforeOutage <= 0:
		return fmt.Errorf("%w: failures before outage must be > 0", ErrInvalidMonitoring)
	}
	return nil
}

func ValidateHealthURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidHealthURL, raw)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidHealthURL, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: must use http or https scheme: %s", ErrInvalidHealthURL, raw)
	}
	return nil
}

func (c *MonitoringConfig) Interval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

func (c *MonitoringConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SameMonitoring reports whether both configs would produce the same probe job.
func SameMonitoring(a, b *MonitoringConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type Component struct {
	ID            int64                  `json:"id"`
	ProductID     int64                  `json:"productId"`
	ParentID      *int64                 `json:"parentId"`
	Name          string                 `json:"name"`
	Type          Type                   `json:"type"`
	Monitoring    *MonitoringConfig      `json:"monitoringConfig"`
	CurrentStatus *status.Status         `json:"currentStatus"`
	IsActive      bool                   `json:"isActive"`
	DayLogs       []healthlog.DaySummary `json:"healthcheckDayLogs"`
	Subcomponents []*Component           `json:"subcomponents,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// IsLeaf reports whether the component carries a monitoring config and can be probed.
func (c *Component) IsLeaf() bool { return c.Monitoring != nil }

// StatusOrDefault treats a never-checked component as operational.
func (c *Component) StatusOrDefault() status.Status {
	if c.CurrentStatus == nil {
		return status.Operational
	}
	return *c.CurrentStatus
}

// Clone returns a copy that shares no pointers with c.
func (c *Component) Clone() *Component {
	if c == nil {
		return nil
	}
	cp := *c
	if c.ParentID != nil {
		v := *c.ParentID
		cp.ParentID = &v
	}
	if c.Monitoring != nil {
		m := *c.Monitoring
		cp.Monitoring = &m
	}
	if c.CurrentStatus != nil {
		s := *c.CurrentStatus
		cp.CurrentStatus = &s
	}
	if c.DayLogs != nil {
		cp.DayLogs = append([]healthlog.DaySummary(nil), c.DayLogs...)
	}
	if c.Subcomponents != nil {
		cp.Subcomponents = make([]*Component, 0, len(c.Subcomponents))
		for _, s := range c.Subcomponents {
			cp.Subcomponents = append(cp.Subcomponents, s.Clone())
		}
	}
	return &cp
}

var (
	ErrComponentNotFound = errors.New("component not found")
	ErrAlreadyExists     = errors.New("component already exists")
	ErrInvalidHealthURL  = errors.New("invalid health url")
	ErrInvalidMonitoring = errors.New("invalid monitoring config")
	ErrInvalidType       = errors.New("invalid component type")
	ErrInvalidParent     = errors.New("invalid parent component")
)

// AlreadyExistsError names the unique field that collided.
type AlreadyExistsError struct {
	Field string
	Value string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("component with %s='%s' already exists", e.Field, e.Value)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }
