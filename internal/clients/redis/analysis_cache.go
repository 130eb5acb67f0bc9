package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/scorebridge-backend/internal/platform/envutil"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

// AnalysisCache keeps serialized upload analyses keyed by content fingerprint.
// The database stays authoritative; a miss or a cache error only costs a query.
type AnalysisCache interface {
	Get(ctx context.Context, fingerprint string) ([]byte, bool, error)
	Set(ctx context.Context, fingerprint string, payload []byte) error
	Delete(ctx context.Context, fingerprint string) error
	Close() error
}

type analysisCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewAnalysisCache connects to REDIS_ADDR. With no address configured it
// returns a cache that never hits.
func NewAnalysisCache(log *logger.Logger) (AnalysisCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Info("REDIS_ADDR not set; analysis cache disabled")
		return NoopAnalysisCache{}, nil
	}
	prefix := envutil.String("REDIS_KEY_PREFIX", "scorebridge")
	ttl := time.Duration(envutil.Int("ANALYSIS_CACHE_TTL_SECONDS", 3600)) * time.Second

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &analysisCache{
		log:    log.With("service", "RedisAnalysisCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func analysisKey(prefix, fingerprint string) string {
	return prefix + ":analysis:" + fingerprint
}

func (c *analysisCache) Get(ctx context.Context, fingerprint string) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctx, analysisKey(c.prefix, fingerprint)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *analysisCache) Set(ctx context.Context, fingerprint string, payload []byte) error {
	return c.rdb.Set(ctx, analysisKey(c.prefix, fingerprint), payload, c.ttl).Err()
}

func (c *analysisCache) Delete(ctx context.Context, fingerprint string) error {
	return c.rdb.Del(ctx, analysisKey(c.prefix, fingerprint)).Err()
}

func (c *analysisCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

type NoopAnalysisCache struct{}

func (NoopAnalysisCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopAnalysisCache) Set(context.Context, string, []byte) error         { return nil }
func (NoopAnalysisCache) Delete(context.Context, string) error              { return nil }
func (NoopAnalysisCache) Close() error                                      { return nil }
