package semaphore

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type waiter struct {
	ready chan struct{}
}

// Semaphore bounds concurrent holders to max.
type Semaphore struct {
	mu      sync.Mutex
	count   int
	max     int
	waiters list.List // of *waiter, oldest first
}

// New creates a Semaphore admitting up to max holders. max < 1 is treated as 1.
func New(max int) *Semaphore {
	if max < 1 {
		max = 1
	}
	return &Semaphore{max: max}
}

// Acquire takes a slot. With timeout <= 0 it waits until a slot is handed
// over or ctx is done; otherwise it gives up after timeout. It reports
// whether the slot was acquired; on true the caller must Release.
func (s *Semaphore) Acquire(ctx context.Context, timeout time.Duration) bool {
	s.mu.Lock()
	if s.count < s.max && s.waiters.Len() == 0 {
		s.count++
		s.mu.Unlock()
		return true
	}
	w := &waiter{ready: make(chan struct{})}
	elem := s.waiters.PushBack(w)
	s.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case <-w.ready:
		return true
	case <-expired:
	case <-ctx.Done():
	}
	return s.abandon(w, elem)
}

// abandon settles a waiter whose deadline passed. If Release already handed
// it the slot, the waiter keeps it.
func (s *Semaphore) abandon(w *waiter, elem *list.Element) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-w.ready:
		return true
	default:
	}
	s.waiters.Remove(elem)
	return false
}

// TryAcquire takes a slot only if one is free right now.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count < s.max && s.waiters.Len() == 0 {
		s.count++
		return true
	}
	return false
}

// Release gives up a slot, waking the oldest waiter if any.
func (s *Semaphore) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if front := s.waiters.Front(); front != nil {
		w := s.waiters.Remove(front).(*waiter)
		close(w.ready)
		return
	}
	if s.count == 0 {
		panic("semaphore: release without acquire")
	}
	s.count--
}

// Count returns the number of current holders.
func (s *Semaphore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Waiting returns the number of queued acquirers.
func (s *Semaphore) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiters.Len()
}

// Max returns the configured capacity.
func (s *Semaphore) Max() int { return s.max }
