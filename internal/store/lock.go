package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ssal/internal/metrics"

	"golang.org/x/sync/semaphore"
)

// Lock is a scoped, exclusive hold over one or more keys. Release is
// idempotent and frees the keys in reverse acquisition order.
type Lock struct {
	keys []string
	sems []*semaphore.Weighted
	once sync.Once
}

func (l *Lock) Keys() []string {
	return append([]string(nil), l.keys...)
}

func (l *Lock) Release() {
	l.once.Do(func() {
		for i := len(l.sems) - 1; i >= 0; i-- {
			l.sems[i].Release(1)
		}
	})
}

type keyLocks struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func newKeyLocks() *keyLocks {
	return &keyLocks{sems: make(map[string]*semaphore.Weighted)}
}

func (k *keyLocks) get(key string) *semaphore.Weighted {
	k.mu.Lock()
	defer k.mu.Unlock()

	sem, ok := k.sems[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		k.sems[key] = sem
	}
	return sem
}

// acquire takes the keys in the order given. Callers are responsible for a
// consistent global order across code paths.
func (k *keyLocks) acquire(ctx context.Context, timeout time.Duration, keys []string) (*Lock, error) {
	if len(keys) == 0 {
		return nil, errors.New("lock: no keys")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	l := &Lock{keys: keys, sems: make([]*semaphore.Weighted, 0, len(keys))}
	for _, key := range keys {
		sem := k.get(key)
		start := time.Now()
		if err := sem.Acquire(ctx, 1); err != nil {
			l.Release()
			if errors.Is(err, context.DeadlineExceeded) {
				metrics.LockTimeoutsTotal.WithLabelValues(key).Inc()
				return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
			}
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		metrics.LockWaitDuration.WithLabelValues(key).Observe(time.Since(start).Seconds())
		l.sems = append(l.sems, sem)
	}

	return l, nil
}
