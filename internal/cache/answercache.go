// Package cache is an exact-match question→answer cache in Redis. The
// query orchestrator consults it before running the pipeline and fills
// it after generation. A nil *Cache is valid and disables caching.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ragline/internal/domain"
	"ragline/pkg/logx"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logx.Logger
}

// New connects to Redis and pings it. A dead Redis returns nil and the
// caller runs uncached; the cache is an optimization, never a
// dependency.
func New(ctx context.Context, addr string, ttl time.Duration) *Cache {
	logger := logx.New("answer-cache")

	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		ContextTimeoutEnabled: true,
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, answer cache disabled", "addr", addr, "error", err)
		return nil
	}

	logger.Info("answer cache connected", "addr", addr)
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// NewWithClient wires an existing client; used by tests with miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logx.New("answer-cache")}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

type entry struct {
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
}

func key(question string, topK int) string {
	sum := sha256.Sum256([]byte(question))
	return "answer:" + hex.EncodeToString(sum[:]) + ":" + strconv.Itoa(topK)
}

func (c *Cache) Get(ctx context.Context, question string, topK int) (domain.Answer, bool) {
	if c == nil {
		return domain.Answer{}, false
	}

	raw, err := c.client.Get(ctx, key(question, topK)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache lookup failed", "error", err)
		}
		return domain.Answer{}, false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.logger.Warn("cache entry corrupt, ignoring", "error", err)
		return domain.Answer{}, false
	}
	return domain.Answer{Text: e.Answer, Sources: e.Sources}, true
}

func (c *Cache) Set(ctx context.Context, question string, topK int, answer domain.Answer) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(entry{Answer: answer.Text, Sources: answer.Sources})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(question, topK), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
}
