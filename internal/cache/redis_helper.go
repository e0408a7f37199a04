package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/config"
)

const (
	defaultCacheTTL  = time.Minute
	redisClientName  = "buyer-dashboard-views"
	redisPingTimeout = 5 * time.Second
)

// NewRedisClient connects the view cache to Redis and verifies the
// connection with a ping.
func NewRedisClient(cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := viewCacheOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("view cache: redis ping: %w", err)
	}

	return client, nil
}

func viewTTL(cfg config.CacheConfig) time.Duration {
	ttl := time.Duration(cfg.ViewTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return ttl
}

// viewCacheOptions prefers REDIS_URL. Password and DB from the config fill
// in whatever the URL leaves unset.
func viewCacheOptions(cfg config.CacheConfig) (*redis.Options, error) {
	opts := &redis.Options{Addr: net.JoinHostPort(orDefault(cfg.RedisHost, "127.0.0.1"), orDefault(cfg.RedisPort, "6379"))}
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("view cache: invalid redis url: %w", err)
		}
		opts = parsed
	}

	if opts.Password == "" {
		opts.Password = cfg.RedisPassword
	}
	if opts.DB == 0 {
		opts.DB = cfg.RedisDB
	}
	opts.ClientName = redisClientName
	return opts, nil
}

// purgeSnapshotViews unlinks every cached view of one snapshot, in batches
// of viewScanBatchSize keys.
func purgeSnapshotViews(ctx context.Context, client *redis.Client, snapshotID string) (int, error) {
	iter := client.Scan(ctx, 0, snapshotKeyPrefix(snapshotID)+"*", viewScanBatchSize).Iterator()

	removed := 0
	batch := make([]string, 0, viewScanBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := client.Unlink(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("view cache: unlink snapshot %s: %w", snapshotID, err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == viewScanBatchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("view cache: scan snapshot %s: %w", snapshotID, err)
	}
	return removed, flush()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
