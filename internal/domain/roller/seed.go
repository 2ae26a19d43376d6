package roller

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"

	"lukechampine.com/blake3"
)

// Seed is a 256-bit random word
type Seed [32]byte

// HashSeed derives a seed from arbitrary data
func HashSeed(data []byte) Seed {
	return Seed(blake3.Sum256(data))
}

// SeedFromString derives a seed from a label, e.g. "SEED_1"
func SeedFromString(label string) Seed {
	return HashSeed([]byte(label))
}

// SeedFromUint64 returns the seed whose integer value is n
func SeedFromUint64(n uint64) Seed {
	var seed Seed
	binary.BigEndian.PutUint64(seed[24:], n)
	return seed
}

// ParseSeed decodes a 64-character hex seed
func ParseSeed(s string) (Seed, error) {
	var seed Seed
	b, err := hex.DecodeString(s)
	if err != nil {
		return seed, fmt.Errorf("invalid seed: %w", err)
	}
	if len(b) != len(seed) {
		return seed, fmt.Errorf("invalid seed: expected %d bytes, got %d", len(seed), len(b))
	}
	copy(seed[:], b)
	return seed, nil
}

// Next returns the following seed in a hash chain
func (s Seed) Next() Seed {
	return HashSeed(s[:])
}

// Int interprets the seed as a big-endian unsigned integer
func (s Seed) Int() *big.Int {
	return new(big.Int).SetBytes(s[:])
}

// IsZero reports whether every byte of the seed is zero
func (s Seed) IsZero() bool {
	return s == Seed{}
}

func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}
