// Package rng provides the random word history combat resolves against.
package rng

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"lukechampine.com/blake3"

	"github.com/andrescamacho/gangsim/internal/domain/roller"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// TickChain derives one random word per clock interval.
//
// Tick n covers [genesis + n×interval, genesis + (n+1)×interval). Its word is
// BLAKE3(seed ‖ n) and is revealed only once the tick is over, so a word is never
// known while an attack can still be started against it.
type TickChain struct {
	clock    shared.Clock
	genesis  time.Time
	interval time.Duration
	seed     roller.Seed
}

// NewTickChain creates a chain starting at genesis
func NewTickChain(clock shared.Clock, genesis time.Time, interval time.Duration, seed roller.Seed) (*TickChain, error) {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if interval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %s", interval)
	}
	return &TickChain{clock: clock, genesis: genesis, interval: interval, seed: seed}, nil
}

// CurrentTick returns the tick the clock is in. Times before genesis are tick 0.
func (c *TickChain) CurrentTick(context.Context) uint64 {
	elapsed := c.clock.Now().Sub(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.interval)
}

// RandomWordFor returns the word of tick once the tick has ended
func (c *TickChain) RandomWordFor(ctx context.Context, tick uint64) (roller.Seed, bool) {
	if tick >= c.CurrentTick(ctx) {
		return roller.Seed{}, false
	}
	return c.WordAt(tick), true
}

// WordAt derives the word of tick regardless of the clock
func (c *TickChain) WordAt(tick uint64) roller.Seed {
	buf := make([]byte, 0, len(c.seed)+8)
	buf = append(buf, c.seed[:]...)
	buf = binary.BigEndian.AppendUint64(buf, tick)
	return roller.Seed(blake3.Sum256(buf))
}

// Interval returns the tick length
func (c *TickChain) Interval() time.Duration {
	return c.interval
}
