package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/lmello0/status-page/internal/domain/healthlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const DefaultSummaryTTL = 5 * time.Minute

var mCache = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "summary_cache_lookups_total", Help: "Day summary cache lookups by result.",
}, []string{"result"})

// kv is the part of the redis client the cache uses.
type kv interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

var _ healthlog.Repo = (*CachedLogs)(nil)

// CachedLogs serves day summaries from redis and falls back to the wrapped
// store on a miss or when redis is unreachable. Writes go straight through.
type CachedLogs struct {
	inner healthlog.Repo
	rdb   kv
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedLogs(inner healthlog.Repo, rdb kv, ttl time.Duration, log *zap.Logger) *CachedLogs {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &CachedLogs{inner: inner, rdb: rdb, ttl: ttl, log: log.With(zap.String("component", "summary_cache"))}
}

func summaryKey(id int64, days int) string { return fmt.Sprintf("summary:%d:%d", id, days) }

func (c *CachedLogs) AddLog(ctx context.Context, l *healthlog.Log) error {
	return c.inner.AddLog(ctx, l)
}

func (c *CachedLogs) GetLogs(ctx context.Context, componentID int64, limit int) ([]*healthlog.Log, error) {
	return c.inner.GetLogs(ctx, componentID, limit)
}

func (c *CachedLogs) LastNDaySummary(ctx context.Context, componentID int64, days int) ([]healthlog.DaySummary, error) {
	m, err := c.LastNDaySummaryBulk(ctx, []int64{componentID}, days)
	if err != nil {
		return nil, err
	}
	return m[componentID], nil
}

func (c *CachedLogs) LastNDaySummaryBulk(ctx context.Context, componentIDs []int64, days int) (map[int64][]healthlog.DaySummary, error) {
	ids := uniqueIDs(componentIDs)
	out := make(map[int64][]healthlog.DaySummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = summaryKey(id, days)
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		mCache.WithLabelValues("error").Inc()
		c.log.Warn("redis mget failed, reading from store", zap.Error(err))
		return c.inner.LastNDaySummaryBulk(ctx, ids, days)
	}

	var misses []int64
	for i, id := range ids {
		raw, ok := vals[i].(string)
		if !ok {
			misses = append(misses, id)
			continue
		}
		var s []healthlog.DaySummary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			c.log.Warn("corrupt cache entry", zap.String("key", keys[i]), zap.Error(err))
			misses = append(misses, id)
			continue
		}
		for j := range s {
			s[j].ComponentID = id
		}
		out[id] = s
	}
	mCache.WithLabelValues("hit").Add(float64(len(ids) - len(misses)))
	mCache.WithLabelValues("miss").Add(float64(len(misses)))
	if len(misses) == 0 {
		return out, nil
	}

	fresh, err := c.inner.LastNDaySummaryBulk(ctx, misses, days)
	if err != nil {
		return nil, err
	}
	for _, id := range misses {
		s := fresh[id]
		if s == nil {
			s = []healthlog.DaySummary{}
		}
		out[id] = s

		b, err := json.Marshal(s)
		if err != nil {
			continue
		}
		if err := c.rdb.Set(ctx, summaryKey(id, days), b, c.ttl).Err(); err != nil {
			c.log.Warn("redis set failed", zap.Int64("component_id", id), zap.Error(err))
		}
	}
	return out, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
