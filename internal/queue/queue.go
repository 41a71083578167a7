package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rzbill/logship/internal/kv"
	"github.com/rzbill/logship/internal/semaphore"
	"github.com/rzbill/logship/pkg/id"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// Queue is a durable FIFO of T values persisted in a kv.Store as JSON.
type Queue[T any] struct {
	store       kv.Store
	name        string
	trackingKey string
	delim       string

	lock     *semaphore.Semaphore
	lockWait time.Duration

	ids     id.Generator
	logger  logpkg.Logger
	metrics MetricsHook
}

// New creates a queue named name over store. The store is borrowed: the
// queue never closes it.
func New[T any](name string, store kv.Store, opts Options) (*Queue[T], error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ConfigurationError{Field: "name", Reason: "must be a non-empty string"}
	}
	if store == nil {
		return nil, &ConfigurationError{Field: "store", Reason: "a storage backend is required"}
	}
	opts = opts.withDefaults()
	if utf8.RuneCountInString(opts.Delimiter) != 1 {
		return nil, &ConfigurationError{Field: "delimiter", Reason: "must be exactly one character"}
	}
	if strings.Contains(name, opts.Delimiter) {
		return nil, &ConfigurationError{Field: "name", Reason: fmt.Sprintf("must not contain the delimiter %q", opts.Delimiter)}
	}

	return &Queue[T]{
		store:       store,
		name:        name,
		trackingKey: TrackingKey(name),
		delim:       opts.Delimiter,
		lock:        semaphore.New(1),
		lockWait:    opts.LockWait,
		ids:         opts.IDs,
		logger:      opts.Logger.With(logpkg.Component("queue"), logpkg.Str("queue", name)),
		metrics:     opts.Metrics,
	}, nil
}

// Name returns the queue name.
func (q *Queue[T]) Name() string { return q.name }

// TrackingKey returns the store key holding the ordered id list.
func (q *Queue[T]) TrackingKey() string { return q.trackingKey }

// Push appends item to the tail. If the queue lock cannot be taken within
// LockWait the item is dropped: Push logs a warning and returns nil.
func (q *Queue[T]) Push(ctx context.Context, item T) error {
	err := q.TryPush(ctx, item)
	if errors.Is(err, ErrLockTimeout) {
		q.logger.Warn("queue busy, dropping item")
		return nil
	}
	return err
}

// TryPush is Push for callers that must know whether the item landed: a lock
// timeout is reported as ErrLockTimeout instead of being dropped silently.
func (q *Queue[T]) TryPush(ctx context.Context, item T) error {
	payload, err := encode(item)
	if err != nil {
		return err
	}
	if !q.acquire(ctx, "push") {
		return ErrLockTimeout
	}
	defer q.lock.Release()

	itemID, err := q.newID(ctx, nil)
	if err != nil {
		return err
	}
	if err := q.store.SetItem(ctx, itemID, payload); err != nil {
		return fmt.Errorf("queue: write item %s: %w", itemID, err)
	}
	if err := q.appendTracking(ctx, itemID); err != nil {
		return err
	}
	q.metrics.ObservePush(q.name, 1)
	q.logger.Debug("pushed", logpkg.Str("id", itemID))
	return nil
}

// PushAll appends items to the tail in order with a single tracking-list
// rewrite, so no other push can land between them. Every item is encoded
// before anything is written; one bad item fails the whole batch.
func (q *Queue[T]) PushAll(ctx context.Context, items []T) error {
	if len(items) == 0 {
		return nil
	}
	payloads := make([]string, len(items))
	for i, item := range items {
		p, err := encode(item)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		payloads[i] = p
	}
	if !q.acquire(ctx, "push_all") {
		q.logger.Warn("queue busy, dropping batch", logpkg.Int("items", len(items)))
		return nil
	}
	defer q.lock.Release()

	taken := make(map[string]struct{}, len(items))
	ids := make([]string, len(items))
	for i := range items {
		itemID, err := q.newID(ctx, taken)
		if err != nil {
			return err
		}
		taken[itemID] = struct{}{}
		ids[i] = itemID
	}
	for i, itemID := range ids {
		if err := q.store.SetItem(ctx, itemID, payloads[i]); err != nil {
			return fmt.Errorf("queue: write item %s: %w", itemID, err)
		}
	}
	if err := q.appendTracking(ctx, ids...); err != nil {
		return err
	}
	q.metrics.ObservePush(q.name, len(ids))
	q.logger.Debug("pushed batch", logpkg.Int("items", len(ids)))
	return nil
}

// Pop removes and returns the head item. ok is false when the queue is empty
// or when the lock could not be taken within LockWait; callers cannot tell
// those apart.
//
// An id whose payload entry is missing is dropped and the next id is tried.
// A payload that fails to decode is removed so the queue keeps moving, and
// its SerializationError is returned.
func (q *Queue[T]) Pop(ctx context.Context) (item T, ok bool, err error) {
	if !q.acquire(ctx, "pop") {
		q.logger.Debug("queue busy, reporting empty")
		return item, false, nil
	}
	defer q.lock.Release()

	list, err := q.readTracking(ctx)
	if err != nil {
		return item, false, err
	}
	dirty := false
	for {
		first, rest, more := sliceFirst(list, q.delim)
		if !more {
			if dirty {
				if err := q.writeTracking(ctx, ""); err != nil {
					return item, false, err
				}
			}
			return item, false, nil
		}

		raw, found, err := q.store.GetItem(ctx, first)
		if err != nil {
			return item, false, fmt.Errorf("queue: read item %s: %w", first, err)
		}
		if !found {
			q.logger.Warn("dropping dangling id", logpkg.Str("id", first))
			list, dirty = rest, true
			continue
		}

		decoded, decErr := decode[T](first, raw)
		if err := q.writeTracking(ctx, rest); err != nil {
			return item, false, err
		}
		if err := q.store.RemoveItem(ctx, first); err != nil {
			// The id is already gone from the list; the entry is orphaned.
			q.logger.Warn("failed to remove popped entry", logpkg.Str("id", first), logpkg.Err(err))
		}
		if decErr != nil {
			q.logger.Error("discarding undecodable item", logpkg.Str("id", first), logpkg.Err(decErr))
			return item, false, decErr
		}
		q.metrics.ObservePop(q.name)
		return decoded, true, nil
	}
}

// Peek returns the head item without removing it. It does not take the
// queue lock, so a concurrent Push or Pop may or may not be visible.
func (q *Queue[T]) Peek(ctx context.Context) (item T, ok bool, err error) {
	list, err := q.readTracking(ctx)
	if err != nil {
		return item, false, err
	}
	first, _, more := sliceFirst(list, q.delim)
	if !more {
		return item, false, nil
	}
	raw, found, err := q.store.GetItem(ctx, first)
	if err != nil {
		return item, false, fmt.Errorf("queue: read item %s: %w", first, err)
	}
	if !found {
		return item, false, nil
	}
	decoded, err := decode[T](first, raw)
	if err != nil {
		return item, false, err
	}
	return decoded, true, nil
}

// Len returns the number of queued ids. Like Peek it reads without the lock.
func (q *Queue[T]) Len(ctx context.Context) (int, error) {
	list, err := q.readTracking(ctx)
	if err != nil {
		return 0, err
	}
	return countIDs(list, q.delim), nil
}

// IDs returns the queued ids, oldest first, without taking the lock.
func (q *Queue[T]) IDs(ctx context.Context) ([]string, error) {
	list, err := q.readTracking(ctx)
	if err != nil {
		return nil, err
	}
	return splitIDs(list, q.delim), nil
}

// Clear is not supported and leaves the queue untouched.
func (q *Queue[T]) Clear(context.Context) error { return ErrClearUnsupported }

func (q *Queue[T]) acquire(ctx context.Context, op string) bool {
	if q.lock.Acquire(ctx, q.lockWait) {
		return true
	}
	q.metrics.ObserveLockTimeout(q.name, op)
	return false
}

// newID draws an id that is not the tracking key, contains no delimiter, is
// not already stored, and is not in taken.
func (q *Queue[T]) newID(ctx context.Context, taken map[string]struct{}) (string, error) {
	for attempt := 0; attempt < idAttempts; attempt++ {
		candidate := q.ids.Next()
		if candidate == "" || candidate == q.trackingKey || strings.Contains(candidate, q.delim) {
			continue
		}
		if _, dup := taken[candidate]; dup {
			continue
		}
		_, exists, err := q.store.GetItem(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("queue: probe id %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("queue: no usable id after %d attempts", idAttempts)
}

func (q *Queue[T]) readTracking(ctx context.Context) (string, error) {
	list, _, err := q.store.GetItem(ctx, q.trackingKey)
	if err != nil {
		return "", fmt.Errorf("queue: read tracking list: %w", err)
	}
	return list, nil
}

func (q *Queue[T]) writeTracking(ctx context.Context, list string) error {
	if err := q.store.SetItem(ctx, q.trackingKey, list); err != nil {
		return fmt.Errorf("queue: write tracking list: %w", err)
	}
	return nil
}

func (q *Queue[T]) appendTracking(ctx context.Context, ids ...string) error {
	list, err := q.readTracking(ctx)
	if err != nil {
		return err
	}
	return q.writeTracking(ctx, appendIDs(list, q.delim, ids...))
}

var jsonNull = []byte("null")

func encode[T any](item T) (string, error) {
	b, err := json.Marshal(item)
	if err != nil {
		return "", &SerializationError{Op: "encode", Err: err}
	}
	if bytes.Equal(b, jsonNull) {
		return "", &SerializationError{Op: "encode", Err: ErrNilItem}
	}
	return string(b), nil
}

func decode[T any](key, raw string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, &SerializationError{Op: "decode", Key: key, Err: err}
	}
	return v, nil
}
