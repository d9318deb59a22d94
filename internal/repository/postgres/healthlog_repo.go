package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/lmello0/status-page/internal/domain/healthlog"
	"github.com/lmello0/status-page/internal/domain/status"
)

var _ healthlog.Repo = (*HealthLogRepoImpl)(nil)

type HealthLogRepoImpl struct {
	db *DB
}

func NewHealthLogRepo(db *DB) *HealthLogRepoImpl { return &HealthLogRepoImpl{db: db} }

const (
	qLogInsert = `
INSERT INTO healthcheck_logs (component_id, checked_at, is_successful, status_code, response_time_ms,
                              status_before, status_after, error_message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id;`

	qLogsRecent = `
SELECT id, component_id, checked_at, is_successful, status_code, response_time_ms,
       status_before, status_after, error_message
FROM healthcheck_logs
WHERE component_id = $1
ORDER BY checked_at DESC, id DESC
LIMIT $2;`

	// Days are UTC calendar days. The window covers today plus the previous
	// $2 - 1 days. The worst status is picked by severity, not by name.
	qDaySummary = `
SELECT component_id,
       date_trunc('day', checked_at AT TIME ZONE 'UTC')                                        AS day,
       COUNT(*)                                                                                AS total,
       COUNT(*) FILTER (WHERE is_successful)                                                   AS ok,
       ROUND(100.0 * COUNT(*) FILTER (WHERE is_successful) / COUNT(*), 2)::float8              AS uptime,
       CEIL(AVG(response_time_ms))::int                                                        AS avg_ms,
       MAX(response_time_ms)                                                                   AS max_ms,
       MAX(CASE status_after WHEN 'OUTAGE' THEN 2 WHEN 'DEGRADED' THEN 1 ELSE 0 END)           AS worst
FROM healthcheck_logs
WHERE component_id = ANY($1)
  AND checked_at >= (date_trunc('day', now() AT TIME ZONE 'UTC') - ($2::int - 1) * INTERVAL '1 day') AT TIME ZONE 'UTC'
GROUP BY component_id, day
ORDER BY component_id, day DESC;`
)

func (r *HealthLogRepoImpl) AddLog(ctx context.Context, l *healthlog.Log) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qLogInsert,
		l.ComponentID,
		l.CheckedAt.UTC(),
		l.IsSuccessful,
		l.StatusCode,
		l.ResponseTimeMs,
		l.StatusBefore.String(),
		l.StatusAfter.String(),
		l.ErrorMessage,
	)
	if err := row.Scan(&l.ID); err != nil {
		return fmt.Errorf("insert health log: %w", err)
	}
	return nil
}

func (r *HealthLogRepoImpl) GetLogs(ctx context.Context, componentID int64, limit int) ([]*healthlog.Log, error) {
	if limit <= 0 {
		limit = healthlog.DefaultLogsLimit
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qLogsRecent, componentID, limit)
	if err != nil {
		return nil, fmt.Errorf("query health logs: %w", err)
	}
	defer rows.Close()

	out := make([]*healthlog.Log, 0, limit)
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate health logs: %w", err)
	}
	return out, nil
}

func scanLog(row pgx.Row) (*healthlog.Log, error) {
	var (
		l             healthlog.Log
		before, after string
		code          *int32
	)
	if err := row.Scan(&l.ID, &l.ComponentID, &l.CheckedAt, &l.IsSuccessful, &code,
		&l.ResponseTimeMs, &before, &after, &l.ErrorMessage); err != nil {
		return nil, fmt.Errorf("scan health log: %w", err)
	}
	var err error
	if l.StatusBefore, err = status.Parse(before); err != nil {
		return nil, fmt.Errorf("health log %d: %w", l.ID, err)
	}
	if l.StatusAfter, err = status.Parse(after); err != nil {
		return nil, fmt.Errorf("health log %d: %w", l.ID, err)
	}
	if code != nil {
		v := int(*code)
		l.StatusCode = &v
	}
	l.CheckedAt = l.CheckedAt.UTC()
	return &l, nil
}

func (r *HealthLogRepoImpl) LastNDaySummary(ctx context.Context, componentID int64, days int) ([]healthlog.DaySummary, error) {
	m, err := r.LastNDaySummaryBulk(ctx, []int64{componentID}, days)
	if err != nil {
		return nil, err
	}
	return m[componentID], nil
}

func (r *HealthLogRepoImpl) LastNDaySummaryBulk(ctx context.Context, componentIDs []int64, days int) (map[int64][]healthlog.DaySummary, error) {
	ids := dedupe(componentIDs)
	out := make(map[int64][]healthlog.DaySummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	if days <= 0 {
		days = healthlog.DefaultSummaryDays
	}
	for _, id := range ids {
		out[id] = []healthlog.DaySummary{}
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qDaySummary, ids, days)
	if err != nil {
		return nil, fmt.Errorf("query day summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s     healthlog.DaySummary
			worst int
		)
		if err := rows.Scan(&s.ComponentID, &s.Date, &s.TotalChecks, &s.SuccessfulChecks,
			&s.Uptime, &s.AvgResponseTime, &s.MaxResponseTime, &worst); err != nil {
			return nil, fmt.Errorf("scan day summary: %w", err)
		}
		if s.OverallStatus, err = status.FromSeverity(worst); err != nil {
			return nil, fmt.Errorf("day summary: %w", err)
		}
		s.Date = s.Date.UTC()
		out[s.ComponentID] = append(out[s.ComponentID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day summary: %w", err)
	}
	return out, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
