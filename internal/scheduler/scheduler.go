// Package scheduler drives the periodic deadline sweep. The sweep
// itself carries no exclusivity assumption; the scheduler wraps each
// tick in an advisory lock so that multiple API instances running the
// same interval cannot double-fire on the same rows.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job is one unit of periodic work
type Job interface {
	Tick(ctx context.Context) error
}

// Locker guards one tick across instances. TryLock reports whether this
// instance may run the tick; Unlock releases it early (expiry is the
// backstop when an instance dies mid-tick).
type Locker interface {
	TryLock(ctx context.Context, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context) error
}

// RedisLocker implements Locker with a SET NX key
type RedisLocker struct {
	rdb *redis.Client
	key string
}

func NewRedisLocker(rdb *redis.Client, key string) *RedisLocker {
	return &RedisLocker{rdb: rdb, key: key}
}

func (l *RedisLocker) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, "1", ttl).Result()
}

func (l *RedisLocker) Unlock(ctx context.Context) error {
	return l.rdb.Del(ctx, l.key).Err()
}

// NoopLocker always grants the lock (single-instance deployments, tests)
type NoopLocker struct{}

func (NoopLocker) TryLock(ctx context.Context, ttl time.Duration) (bool, error) { return true, nil }
func (NoopLocker) Unlock(ctx context.Context) error                            { return nil }

// Scheduler runs a job on a fixed interval
type Scheduler struct {
	job      Job
	locker   Locker
	interval time.Duration
	name     string
}

func New(job Job, locker Locker, interval time.Duration, name string) *Scheduler {
	if locker == nil {
		locker = NoopLocker{}
	}
	return &Scheduler{
		job:      job,
		locker:   locker,
		interval: interval,
		name:     name,
	}
}

// Run blocks until ctx is cancelled, firing the job every interval.
// A tick error produces fewer notifications this cycle; the next tick
// catches up, so errors are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("⏰ Scheduler %q started (interval %s)", s.name, s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("🛑 Scheduler %q stopped", s.name)
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	acquired, err := s.locker.TryLock(ctx, s.interval)
	if err != nil {
		log.Printf("⚠️ Scheduler %q lock error: %v", s.name, err)
		return
	}
	if !acquired {
		log.Printf("⏭️ Scheduler %q tick skipped, another instance holds the lock", s.name)
		return
	}
	defer func() {
		if err := s.locker.Unlock(ctx); err != nil {
			log.Printf("⚠️ Scheduler %q unlock error: %v", s.name, err)
		}
	}()

	if err := s.job.Tick(ctx); err != nil {
		log.Printf("⚠️ Scheduler %q tick failed: %v", s.name, err)
	}
}
