package campaigns

import (
	"context"
	"time"

	"outreach-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisLaunchLock serializes launches per campaign using the shared Redis
// concurrency cap (limit 1). The TTL bounds lock leakage if the process
// dies mid-batch; it should comfortably exceed the longest expected batch.
type RedisLaunchLock struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLaunchLock(rdb *redis.Client, ttl time.Duration) *RedisLaunchLock {
	if ttl <= 0 {
		// A 200-contact batch at 60s pacing runs well over three hours.
		ttl = 6 * time.Hour
	}
	return &RedisLaunchLock{rdb: rdb, ttl: ttl}
}

func (l *RedisLaunchLock) key(campaignID string) string {
	return "campaign:launch:" + campaignID
}

func (l *RedisLaunchLock) Acquire(ctx context.Context, campaignID string) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, l.rdb, l.key(campaignID), 1, l.ttl)
}

func (l *RedisLaunchLock) Release(ctx context.Context, campaignID string) error {
	return utils.ReleaseConcurrencyCap(ctx, l.rdb, l.key(campaignID))
}
