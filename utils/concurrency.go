package utils

import (
	"context"
	"sync"
)

// WorkerPool runs jobs on a bounded number of goroutines. The first job
// error cancels the pool's context, so jobs still queued or running can
// stop early; Wait reports that error.
type WorkerPool struct {
	ctx    context.Context
	cancel context.CancelFunc
	slots  chan struct{}
	wg     sync.WaitGroup

	errOnce sync.Once
	err     error
}

// NewWorkerPool creates a pool bound to ctx. A non-positive maxWorkers is
// treated as 1.
func NewWorkerPool(ctx context.Context, maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{ctx: ctx, cancel: cancel, slots: make(chan struct{}, maxWorkers)}
}

// Go runs job once a worker is free. It blocks while every worker is busy
// and drops the job if the pool is already cancelled.
func (wp *WorkerPool) Go(job func(ctx context.Context) error) {
	if err := wp.ctx.Err(); err != nil {
		wp.fail(err)
		return
	}
	select {
	case wp.slots <- struct{}{}:
	case <-wp.ctx.Done():
		wp.fail(wp.ctx.Err())
		return
	}

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.slots }()

		if err := job(wp.ctx); err != nil {
			wp.fail(err)
		}
	}()
}

// Wait blocks until every started job has returned and reports the first
// error, if any.
func (wp *WorkerPool) Wait() error {
	wp.wg.Wait()
	wp.cancel()
	return wp.err
}

func (wp *WorkerPool) fail(err error) {
	wp.errOnce.Do(func() {
		wp.err = err
		wp.cancel()
	})
}

// KeySet is a thread-safe set of strings, used to skip inputs that were
// already claimed.
type KeySet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewKeySet() *KeySet {
	return &KeySet{seen: make(map[string]struct{})}
}

// Add reports whether key was newly added.
func (s *KeySet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Len returns the number of keys added so far.
func (s *KeySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
