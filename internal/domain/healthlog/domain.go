package healthlog

import (
	"time"

	"github.com/lmello0/status-page/internal/domain/status"
)

// Log is the audit record of a single probe. It is written once and never updated.
type Log struct {
	ID             int64         `json:"id"`
	ComponentID    int64         `json:"componentId"`
	CheckedAt      time.Time     `json:"checkedAt"`
	IsSuccessful   bool          `json:"isSuccessful"`
	StatusCode     *int          `json:"statusCode"`
	ResponseTimeMs int           `json:"responseTimeMs"`
	StatusBefore   status.Status `json:"statusBefore"`
	StatusAfter    status.Status `json:"statusAfter"`
	ErrorMessage   *string       `json:"errorMessage"`
}

type DaySummary struct {
	ComponentID      int64         `json:"-"`
	Date             time.Time     `json:"date"`
	TotalChecks      int           `json:"totalChecks"`
	SuccessfulChecks int           `json:"successfulChecks"`
	Uptime           float64       `json:"uptime"`
	AvgResponseTime  int           `json:"avgResponseTime"`
	MaxResponseTime  int           `json:"maxResponseTime"`
	OverallStatus    status.Status `json:"overallStatus"`
}

const (
	DefaultSummaryDays = 100
	MaxSummaryDays     = 365
	DefaultLogsLimit   = 50
)
