package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/logship/internal/kv"
	"github.com/rzbill/logship/internal/queue"
	logpkg "github.com/rzbill/logship/pkg/log"
)

var (
	_ kv.Store         = (*Store)(nil)
	_ kv.HealthChecker = (*Store)(nil)
)

func newTestStore(t *testing.T, prefix string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(client, prefix)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_GetSetRemove(t *testing.T) {
	t.Parallel()
	s, mr := newTestStore(t, "logship:")
	ctx := context.Background()

	_, ok, err := s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetItem(ctx, "k", "v"))
	got, ok, err := s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	raw, err := mr.Get("logship:k")
	require.NoError(t, err)
	assert.Equal(t, "v", raw)

	require.NoError(t, s.RemoveItem(ctx, "k"))
	require.NoError(t, s.RemoveItem(ctx, "k"))
	assert.False(t, mr.Exists("logship:k"))
}

func TestStore_EmptyValueIsPresent(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, "")
	ctx := context.Background()

	require.NoError(t, s.SetItem(ctx, "q--queue", ""))
	got, ok, err := s.GetItem(ctx, "q--queue")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestStore_HealthAndOutage(t *testing.T) {
	t.Parallel()
	s, mr := newTestStore(t, "")
	ctx := context.Background()

	require.NoError(t, s.CheckHealth(ctx))
	mr.Close()
	assert.Error(t, s.CheckHealth(ctx))
	_, _, err := s.GetItem(ctx, "k")
	assert.Error(t, err)
}

func TestDial(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	s, err := Dial(context.Background(), mr.Addr(), "", 0, "p:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.SetItem(context.Background(), "a", "b"))
	assert.True(t, mr.Exists("p:a"))

	mr.Close()
	_, err = Dial(context.Background(), mr.Addr(), "", 0, "")
	assert.Error(t, err)
}

func TestStore_BacksQueue(t *testing.T) {
	t.Parallel()
	s, mr := newTestStore(t, "app:")
	ctx := context.Background()

	q, err := queue.New[map[string]any]("events", s, queue.Options{Logger: logpkg.NewNopLogger()})
	require.NoError(t, err)
	require.NoError(t, q.PushAll(ctx, []map[string]any{{"n": 1.0}, {"n": 2.0}}))
	assert.True(t, mr.Exists("app:events--queue"))

	first, ok, err := q.Pop(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, first["n"])

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
