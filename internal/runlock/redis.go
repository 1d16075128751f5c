package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"teetimes-backend/internal/components/assert"
	"teetimes-backend/internal/components/telemetry"

	"github.com/mazen160/go-random"
	"github.com/redis/go-redis/v9"
)

const report_redis_extend = "redis.extend"

// the lock is only touched while it still carries our token
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
	extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// Redis is a lock shared by every process pointed at the same redis. The key
// expires after ttl so a crashed holder cannot wedge future runs, a live
// holder keeps extending it.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	tel    telemetry.API
}

// NewRedisClient parses url and checks that the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	err = client.Ping(ctx).Err()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func NewRedis(client *redis.Client, key string, ttl time.Duration, tel telemetry.API) *Redis {
	assert.NotNil(client)
	assert.NotEmptyStr(key)
	assert.NotNil(tel)
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Redis{
		client: client,
		key:    key,
		ttl:    ttl,
		tel:    telemetry.NewScopedAPI("runlock", tel),
	}
}

func (r *Redis) TryLock(ctx context.Context) (Lease, error) {
	token, err := random.String(24)
	if err != nil {
		return Lease{}, fmt.Errorf("generate lock token: %w", err)
	}
	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return Lease{}, fmt.Errorf("acquire %s: %w", r.key, err)
	}
	if !ok {
		return Lease{}, ErrLocked
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	lost := make(chan struct{})
	go r.keepAlive(token, stop, done, lost)

	var once sync.Once
	var releaseErr error
	release := func(ctx context.Context) error {
		once.Do(func() {
			close(stop)
			<-done
			err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				releaseErr = fmt.Errorf("release %s: %w", r.key, err)
			}
		})
		return releaseErr
	}
	return Lease{Lost: lost, Release: release}, nil
}

func (r *Redis) keepAlive(token string, stop <-chan struct{}, done, lost chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.ttl/3)
			extended, err := extendScript.Run(ctx, r.client, []string{r.key}, token, r.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				r.tel.ReportWarning(report_redis_extend, err)
				continue
			}
			if extended == 0 {
				r.tel.ReportBroken(report_redis_extend, fmt.Errorf("lock %s was lost", r.key))
				close(lost)
				return
			}
		}
	}
}
