package id

import (
	"strings"
	"testing"
)

func TestRandomIsHex(t *testing.T) {
	g := NewRandom()
	for i := 0; i < 1000; i++ {
		s := g.Next()
		if s == "" || len(s) > 14 {
			t.Fatalf("unexpected id %q", s)
		}
		if strings.Trim(s, "0123456789abcdef") != "" {
			t.Fatalf("non-hex id %q", s)
		}
	}
}

func TestRandomUsesSource(t *testing.T) {
	g := &Random{Uint64N: func(n uint64) uint64 {
		if n != randomSpace {
			t.Fatalf("want bound %d, got %d", uint64(randomSpace), n)
		}
		return 255
	}}
	if got := g.Next(); got != "ff" {
		t.Fatalf("got %q want ff", got)
	}
}

func TestRandomMostlyUnique(t *testing.T) {
	g := NewRandom()
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		s := g.Next()
		if _, dup := seen[s]; dup {
			t.Fatalf("duplicate id %q after %d draws", s, i)
		}
		seen[s] = struct{}{}
	}
}

func TestUUIDAndFunc(t *testing.T) {
	if s := (UUID{}).Next(); len(s) != 36 || strings.Contains(s, "|") {
		t.Fatalf("unexpected uuid %q", s)
	}
	if s := Func(func() string { return "fixed" }).Next(); s != "fixed" {
		t.Fatalf("func generator: %q", s)
	}
}

func TestParse(t *testing.T) {
	for _, name := range []string{"", "random"} {
		g, err := Parse(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if _, ok := g.(*Random); !ok {
			t.Fatalf("parse %q: got %T", name, g)
		}
	}
	g, err := Parse("uuid")
	if err != nil {
		t.Fatalf("parse uuid: %v", err)
	}
	if s := g.Next(); len(s) != 36 || strings.Count(s, "-") != 4 {
		t.Fatalf("unexpected uuid %q", s)
	}
	if _, err := Parse("snowflake"); err == nil {
		t.Fatalf("expected error for unknown generator")
	}
}
