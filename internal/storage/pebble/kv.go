package pebblestore

import (
	"context"
	"fmt"
	"time"
)

// healthKey is read by CheckHealth; it never needs to exist.
const healthKey = "\x00logship-health"

// KV exposes a DB as a kv.Store with every key under an optional prefix.
// It borrows db; closing the DB is the caller's job.
type KV struct {
	db     *DB
	prefix string
}

// NewKV returns a kv.Store over db.
func NewKV(db *DB, prefix string) *KV {
	return &KV{db: db, prefix: prefix}
}

func (s *KV) key(k string) []byte { return []byte(s.prefix + k) }

// GetItem implements kv.Store.
func (s *KV) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.db.Get(ctx, s.key(key))
	if err != nil || !ok {
		return "", false, err
	}
	return string(v), true, nil
}

// SetItem implements kv.Store.
func (s *KV) SetItem(ctx context.Context, key, value string) error {
	return s.db.Set(ctx, s.key(key), []byte(value))
}

// RemoveItem implements kv.Store.
func (s *KV) RemoveItem(ctx context.Context, key string) error {
	return s.db.Delete(ctx, s.key(key))
}

// Keys lists stored keys without the prefix.
func (s *KV) Keys() ([]string, error) {
	raw, err := s.db.Keys([]byte(s.prefix))
	if err != nil {
		return nil, err
	}
	out := make([]string, len(raw))
	for i, k := range raw {
		out[i] = string(k[len(s.prefix):])
	}
	return out, nil
}

// CheckHealth performs a read against the database.
func (s *KV) CheckHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, _, err := s.db.Get(ctx, s.key(healthKey)); err != nil {
		return fmt.Errorf("pebble: health: %w", err)
	}
	return nil
}
