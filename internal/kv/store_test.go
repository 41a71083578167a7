package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, ok, err := m.GetItem(ctx, "k"); err != nil || ok {
		t.Fatalf("empty get: ok=%v err=%v", ok, err)
	}
	if err := m.SetItem(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := m.GetItem(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("get: %q %v %v", v, ok, err)
	}
	if err := m.RemoveItem(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := m.RemoveItem(ctx, "k"); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("want empty, got %d", m.Len())
	}
}

func TestMemoryInstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, b := NewMemory(), NewMemory()
	_ = a.SetItem(ctx, "k", "a")
	if _, ok, _ := b.GetItem(ctx, "k"); ok {
		t.Fatalf("instances share state")
	}
}

func TestMemoryClosed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Close()
	if err := m.SetItem(ctx, "k", "v"); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
	if err := m.CheckHealth(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("health: %v", err)
	}
}

func TestMemoryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewMemory().SetItem(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
}
