// Package semaphore implements an in-process counting lock with FIFO waiters
// and bounded-wait acquisition.
//
// Accounting: count is the number of current holders and never exceeds max.
// Release hands the slot directly to the oldest waiter when one is queued
// (count unchanged) and only frees it when nobody is waiting.
//
// A waiter settles exactly once. If its timeout and a Release race, whichever
// reaches the semaphore's mutex first wins: a timed-out waiter is removed
// before Release can see it, and a woken waiter keeps the slot even if its
// timer fires afterwards.
//
//	s := semaphore.New(1)
//	if !s.Acquire(ctx, 20*time.Millisecond) {
//	    return // contended
//	}
//	defer s.Release()
package semaphore
