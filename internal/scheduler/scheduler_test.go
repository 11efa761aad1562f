package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingJob struct {
	mu    sync.Mutex
	ticks int
	err   error
}

func (j *countingJob) Tick(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ticks++
	return j.err
}

func (j *countingJob) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.ticks
}

type fakeLocker struct {
	grant    bool
	unlocked int
}

func (l *fakeLocker) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.grant, nil
}

func (l *fakeLocker) Unlock(ctx context.Context) error {
	l.unlocked++
	return nil
}

func TestRunOnceRunsJobWhenLockGranted(t *testing.T) {
	job := &countingJob{}
	locker := &fakeLocker{grant: true}
	s := New(job, locker, time.Minute, "test")

	s.runOnce(context.Background())

	if job.count() != 1 {
		t.Fatalf("expected one tick, got %d", job.count())
	}
	if locker.unlocked != 1 {
		t.Fatalf("expected lock released after tick, got %d unlocks", locker.unlocked)
	}
}

func TestRunOnceSkipsWhenLockDenied(t *testing.T) {
	job := &countingJob{}
	locker := &fakeLocker{grant: false}
	s := New(job, locker, time.Minute, "test")

	s.runOnce(context.Background())

	if job.count() != 0 {
		t.Fatalf("denied lock must skip the tick, got %d ticks", job.count())
	}
	if locker.unlocked != 0 {
		t.Fatal("a lock that was never held must not be released")
	}
}

func TestRunOnceSurvivesJobError(t *testing.T) {
	job := &countingJob{err: errors.New("sweep failed")}
	s := New(job, nil, time.Minute, "test")

	// Errors are logged, never propagated; a second tick still runs.
	s.runOnce(context.Background())
	s.runOnce(context.Background())

	if job.count() != 2 {
		t.Fatalf("expected both ticks to run, got %d", job.count())
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	job := &countingJob{}
	s := New(job, NoopLocker{}, 10*time.Millisecond, "test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}

	if job.count() == 0 {
		t.Fatal("expected at least one tick before cancel")
	}
}
