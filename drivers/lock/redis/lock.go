package redis

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/burugo/migrate"
)

// releaseScript deletes the lock key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Options holds configuration for the Redis lock.
type Options struct {
	Addr     string
	Password string
	DB       int

	// TTL bounds how long a crashed holder keeps the lock. Default 5m.
	TTL time.Duration
	// RetryInterval is the pause between attempts while the lock is held
	// elsewhere. Default 100ms.
	RetryInterval time.Duration
	// Prefix is prepended to every lock key. Default "migrate:lock:".
	Prefix string
}

// Lock implements migrate.Locker with SET NX and a per-holder token.
type Lock struct {
	redisClient       *redis.Client
	ttl               time.Duration
	retry             time.Duration
	prefix            string
	createdInternally bool // Indicates whether redisClient was created by this struct

	mu       sync.Mutex
	acquired int
}

// Ensure Lock implements migrate.Locker and io.Closer.
var (
	_ migrate.Locker = (*Lock)(nil)
	_ io.Closer      = (*Lock)(nil)
)

// NewLock creates a Redis lock. If redisCli is not nil it is used directly;
// otherwise opts is used to create a new client.
func NewLock(redisCli *redis.Client, opts *Options) *Lock {
	if opts == nil {
		opts = &Options{}
	}
	l := &Lock{
		redisClient: redisCli,
		ttl:         opts.TTL,
		retry:       opts.RetryInterval,
		prefix:      opts.Prefix,
	}
	if l.redisClient == nil {
		l.redisClient = redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		})
		l.createdInternally = true
	}
	if l.ttl <= 0 {
		l.ttl = 5 * time.Minute
	}
	if l.retry <= 0 {
		l.retry = 100 * time.Millisecond
	}
	if l.prefix == "" {
		l.prefix = "migrate:lock:"
	}
	return l
}

// Acquire blocks until the lock is obtained or ctx is done.
func (l *Lock) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := uuid.NewString()
	for {
		ok, err := l.redisClient.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis SetNX error for lock key '%s': %w", lockKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", migrate.ErrLockNotAcquired, lockKey, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	l.mu.Lock()
	l.acquired++
	l.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			err := releaseScript.Run(context.Background(), l.redisClient, []string{lockKey}, token).Err()
			if err != nil && err != redis.Nil {
				log.Printf("redis lock release error for key '%s': %v", lockKey, err)
			}
		})
	}
	return release, nil
}

// Acquired returns how many times the lock has been obtained.
func (l *Lock) Acquired() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired
}

// Close implements io.Closer. Only closes redisClient if it was created by NewLock.
func (l *Lock) Close() error {
	if l.createdInternally && l.redisClient != nil {
		return l.redisClient.Close()
	}
	return nil
}
