// SPDX-License-Identifier: GPL-3.0-or-later

package medium

import (
	"fmt"

	"github.com/iti/rngstream"
)

// Source is a source of uniformly distributed random numbers.
//
// The [*rngstream.RngStream] type implements this interface.
type Source interface {
	// RandU01 returns a random number in [0, 1).
	RandU01() float64
}

var _ Source = &rngstream.RngStream{}

// NewSource returns a new, named [Source] backed by an independent
// MRG32k3a stream. Streams are created in sequence from the package
// seed, so a program creating streams in the same order observes the
// same noise on every run.
func NewSource(name string) Source {
	return rngstream.New(name)
}

// MaxSeed is the largest seed accepted by [NewSeededSource].
const MaxSeed = 4294944443 - 6

// NewSeededSource returns a named [Source] whose MRG32k3a state
// starts from the six successive integers beginning at seed. Other
// streams are not affected. The seed must be in [1, MaxSeed].
func NewSeededSource(name string, seed uint64) (Source, error) {
	if seed < 1 || seed > MaxSeed {
		return nil, fmt.Errorf("%w: seed %d not in [1, %d]", ErrInvalidConfig, seed, uint64(MaxSeed))
	}
	stream := rngstream.New(name)
	state := make([]uint64, 6)
	for idx := range state {
		state[idx] = seed + uint64(idx)
	}
	if !stream.SetSeed(state) {
		return nil, fmt.Errorf("%w: seed %d rejected", ErrInvalidConfig, seed)
	}
	return stream, nil
}
