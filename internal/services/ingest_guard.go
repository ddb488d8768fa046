package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IngestGuard serializes bot ingestion of one external id across server
// instances. Acquire fails with a Conflict while another request holds key.
type IngestGuard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// NopIngestGuard never blocks. Used when no redis is configured; the mapping
// existence check inside the ingestion transaction still applies.
type NopIngestGuard struct{}

func (NopIngestGuard) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisIngestGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisIngestGuard(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisIngestGuard {
	return &RedisIngestGuard{client: client, ttl: ttl, logger: logger.Named("ingest_guard")}
}

// NewRedisClient parses url and checks the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (g *RedisIngestGuard) Acquire(ctx context.Context, key string) (func(), error) {
	key = "ingest:" + key
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, Internal("ingestion lock unavailable", err)
	}
	if !ok {
		return nil, Conflict("ingestion already in progress", map[string]string{"key": key})
	}
	return func() {
		// The request context may already be done; release on a fresh one.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
			g.logger.Warn("release ingestion lock failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
