package id

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

// Generator produces item identifiers.
type Generator interface {
	Next() string
}

// randomSpace bounds random identifiers to 16 decimal digits.
const randomSpace = 1e16

// Random derives identifiers from a random number.
type Random struct {
	// Uint64N returns a value in [0, n). Defaults to math/rand/v2.
	Uint64N func(n uint64) uint64
}

// NewRandom creates a Random generator backed by the runtime's auto-seeded source.
func NewRandom() *Random { return &Random{Uint64N: rand.Uint64N} }

// Next returns a new identifier.
func (g *Random) Next() string {
	draw := g.Uint64N
	if draw == nil {
		draw = rand.Uint64N
	}
	return strconv.FormatUint(draw(randomSpace), 16)
}

// UUID produces random (v4) UUID strings.
type UUID struct{}

// Next returns a new identifier.
func (UUID) Next() string { return uuid.NewString() }

// Func adapts a plain function to a Generator.
type Func func() string

// Next returns fn().
func (fn Func) Next() string { return fn() }

// Parse maps a generator name to a Generator. "random" and the empty string
// select Random; "uuid" selects UUID.
func Parse(name string) (Generator, error) {
	switch name {
	case "", "random":
		return NewRandom(), nil
	case "uuid":
		return UUID{}, nil
	}
	return nil, fmt.Errorf("id: unknown generator %q", name)
}
