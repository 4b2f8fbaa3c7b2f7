package migration

import (
	"context"
	"fmt"
	"sync"

	"github.com/burugo/migrate"
)

// LocalLock is an in-process migrate.Locker. The zero value is ready to use.
type LocalLock struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

var _ migrate.Locker = (*LocalLock)(nil)

// NewLocalLock returns an empty LocalLock.
func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

// Acquire waits until key is free or ctx is done.
func (l *LocalLock) Acquire(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		if l.held == nil {
			l.held = make(map[string]chan struct{})
		}
		wait, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", migrate.ErrLockNotAcquired, key, ctx.Err())
		}
	}
}
