// Package institution generates the short codes institutions are known by.
// Codes are display identifiers shared with staff, not secrets.
package institution

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
)

const (
	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	MinCodeLength = 6
	MaxCodeLength = 10
)

// ExistsFunc reports whether an institution already uses id.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// IDGenerator draws random codes until one is free.
type IDGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewIDGenerator returns a generator drawing from src; nil means a randomly seeded PCG.
func NewIDGenerator(src rand.Source) *IDGenerator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &IDGenerator{rng: rand.New(src)}
}

// Candidate returns one random code of length [MinCodeLength, MaxCodeLength].
func (g *IDGenerator) Candidate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := MinCodeLength + g.rng.IntN(MaxCodeLength-MinCodeLength+1)
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(codeAlphabet[g.rng.IntN(len(codeAlphabet))])
	}
	return b.String()
}

// Generate retries until exists reports a free code. There is no retry cap:
// at length 6 the space is 36^6 and collisions are negligible. Each attempt
// costs one lookup; lookup errors abort.
func (g *IDGenerator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id := g.Candidate()
		taken, err := exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
}
