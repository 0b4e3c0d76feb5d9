// Package cache provides a Redis-backed read-through cache for the question
// catalog. Entries expire after a configurable TTL and are explicitly
// invalidated on catalog mutations.
package cache

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gradeworks/answer-evaluator/internal/domain"
)

const (
	questionKeyPrefix = "qcache:q:"
	catalogKey        = "qcache:all"
)

// QuestionCache caches questions in Redis. It is best-effort: backend
// errors are logged and surface as cache misses, never as failures.
type QuestionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuestionCache constructs a QuestionCache with the given client and TTL.
func NewQuestionCache(rdb *redis.Client, ttl time.Duration) *QuestionCache {
	return &QuestionCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached question by id, if present.
func (c *QuestionCache) Get(ctx domain.Context, id string) (domain.Question, bool) {
	b, err := c.rdb.Get(ctx, questionKeyPrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Debug("question cache get failed", slog.String("id", id), slog.Any("error", err))
		}
		return domain.Question{}, false
	}
	var q domain.Question
	if err := json.Unmarshal(b, &q); err != nil {
		return domain.Question{}, false
	}
	return q, true
}

// Set stores a question under its id with the cache TTL.
func (c *QuestionCache) Set(ctx domain.Context, q domain.Question) {
	b, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, questionKeyPrefix+q.ID, b, c.ttl).Err(); err != nil {
		slog.Debug("question cache set failed", slog.String("id", q.ID), slog.Any("error", err))
	}
}

// GetAll returns the cached catalog listing, if present.
func (c *QuestionCache) GetAll(ctx domain.Context) ([]domain.Question, bool) {
	b, err := c.rdb.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Debug("question cache get-all failed", slog.Any("error", err))
		}
		return nil, false
	}
	var qs []domain.Question
	if err := json.Unmarshal(b, &qs); err != nil {
		return nil, false
	}
	return qs, true
}

// SetAll stores the catalog listing with the cache TTL.
func (c *QuestionCache) SetAll(ctx domain.Context, qs []domain.Question) {
	b, err := json.Marshal(qs)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, catalogKey, b, c.ttl).Err(); err != nil {
		slog.Debug("question cache set-all failed", slog.Any("error", err))
	}
}

// Invalidate drops all cached questions and the catalog listing. Called on
// every catalog mutation so stale entries never outlive an explicit change.
func (c *QuestionCache) Invalidate(ctx domain.Context) {
	iter := c.rdb.Scan(ctx, 0, questionKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Debug("question cache scan failed", slog.Any("error", err))
	}
	keys = append(keys, catalogKey)
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Debug("question cache invalidate failed", slog.Any("error", err))
	}
}
