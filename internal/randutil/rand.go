// Package randutil builds seeded math/rand/v2 generators for deck
// shuffling and dealing.
package randutil

import rand "math/rand/v2"

// New returns a generator whose sequence is fully determined by seed.
// PCG wants two 64-bit words, so the single seed is stretched through a
// splitmix64 stream.
func New(seed int64) *rand.Rand {
	s := splitmix{state: uint64(seed)}
	return rand.New(rand.NewPCG(s.next(), s.next()))
}

// splitmix is the splitmix64 sequence, used only for seed stretching. A
// zero state is harmless, the additive constant breaks it up on the
// first step.
type splitmix struct{ state uint64 }

func (s *splitmix) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ z>>30) * 0xbf58476d1ce4e5b9
	z = (z ^ z>>27) * 0x94d049bb133111eb
	return z ^ z>>31
}
