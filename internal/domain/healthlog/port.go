package healthlog

import "context"

type Repo interface {
	AddLog(ctx context.Context, l *Log) error
	GetLogs(ctx context.Context, componentID int64, limit int) ([]*Log, error)
	LastNDaySummary(ctx context.Context, componentID int64, days int) ([]DaySummary, error)
	// LastNDaySummaryBulk returns summaries keyed by component, newest day first.
	LastNDaySummaryBulk(ctx context.Context, componentIDs []int64, days int) (map[int64][]DaySummary, error)
}
