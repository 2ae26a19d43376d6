package helpers

import (
	"context"
	"sync"

	"github.com/andrescamacho/gangsim/internal/domain/roller"
)

// MockRNG is a test double for the random word history.
// No word is available until one is set.
type MockRNG struct {
	mu       sync.RWMutex
	tick     uint64
	words    map[uint64]roller.Seed
	fallback *roller.Seed
}

// NewMockRNG creates a history at tick 0 without words
func NewMockRNG() *MockRNG {
	return &MockRNG{words: make(map[uint64]roller.Seed)}
}

// SetRandomWord makes n the word of every tick without an explicit word
func (m *MockRNG) SetRandomWord(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seed := roller.SeedFromUint64(n)
	m.fallback = &seed
}

// SetWordFor fixes the word of one tick
func (m *MockRNG) SetWordFor(tick uint64, seed roller.Seed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words[tick] = seed
}

// AdvanceTick moves the current tick forward by one
func (m *MockRNG) AdvanceTick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tick++
}

// CurrentTick implements site.RandomSource
func (m *MockRNG) CurrentTick(context.Context) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tick
}

// RandomWordFor implements site.RandomSource
func (m *MockRNG) RandomWordFor(_ context.Context, tick uint64) (roller.Seed, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.words[tick]; ok {
		return w, true
	}
	if m.fallback != nil {
		return *m.fallback, true
	}
	return roller.Seed{}, false
}
