package simulation

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// NewSeed generates a base seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// RunRNG returns the random source of one run. The stream depends only on
// the base seed and the run's position, never on scheduling.
func RunRNG(seed uint64, file, scenario, run int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, streamID(file, scenario, run)))
}

// streamID mixes a run position into a PCG stream selector. Each coordinate
// is folded in through its own splitmix64 round.
func streamID(file, scenario, run int) uint64 {
	return splitmix(splitmix(splitmix(uint64(file))^uint64(scenario)) ^ uint64(run))
}

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
