package simulation

import (
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// chunkRNG returns the random stream that owns one chunk of trials. The stream is a
// pure function of (seed, race id, chunk index) so any worker can run any chunk and
// two chunks never share a stream state.
func chunkRNG(seed int64, raceID string, chunk uint64) *rand.Rand {
	base := uint64(seed) ^ xxhash.Sum64String(raceID)
	return rand.New(rand.NewPCG(base, splitmix64(chunk)))
}

// splitmix64 scatters consecutive chunk indices across the stream space.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	z := x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
