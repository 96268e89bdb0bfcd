//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Bursty noise medium.
//

package medium

import (
	"fmt"
	"log/slog"

	"github.com/rbmk-project/linksim/errclass"
)

// ErrInvalidConfig is returned when the noise parameters are invalid.
var ErrInvalidConfig = errclass.Sentinel(errclass.EINVAL, "medium: invalid noise configuration")

// Burst counter values with special meaning.
const (
	// burstIdle means the next transmission may start a burst.
	burstIdle = 0

	// burstCooldown means a burst just ended.
	burstCooldown = -1
)

// BurstyNoise is a [Medium] injecting bursts of bit errors.
//
// Construct using [NewBurstyNoise].
type BurstyNoise struct {
	link

	// burst is the burst counter: [burstIdle], the number of
	// transmissions since the burst started, or [burstCooldown].
	burst int

	// config contains the noise parameters.
	config Config

	// source is the random source.
	source Source
}

var _ Medium = &BurstyNoise{}

// NewBurstyNoise creates a new [*BurstyNoise] medium. A nil config
// is equivalent to [DefaultConfig].
func NewBurstyNoise(config *Config) (*BurstyNoise, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	source := config.Source
	switch {
	case source != nil:
	case config.Seed != 0:
		seeded, err := NewSeededSource("medium.BurstyNoise", config.Seed)
		if err != nil {
			return nil, err
		}
		source = seeded
	default:
		source = NewSource("medium.BurstyNoise")
	}
	m := &BurstyNoise{
		burst:  burstIdle,
		config: *config,
		source: source,
	}
	m.logger = config.Logger
	m.observer = config.Observer
	return m, nil
}

// validate returns an error if the noise parameters are not valid.
func (c *Config) validate() error {
	if c.BurstProbability < 0 || c.BurstProbability > 1 {
		return fmt.Errorf("%w: burst probability %v not in [0, 1]", ErrInvalidConfig, c.BurstProbability)
	}
	if c.ErrorProbability < 0 || c.ErrorProbability > 1 {
		return fmt.Errorf("%w: error probability %v not in [0, 1]", ErrInvalidConfig, c.ErrorProbability)
	}
	if c.MaxBurstLength < 1 {
		return fmt.Errorf("%w: max burst length %d < 1", ErrInvalidConfig, c.MaxBurstLength)
	}
	if c.Seed > MaxSeed {
		return fmt.Errorf("%w: seed %d > %d", ErrInvalidConfig, c.Seed, uint64(MaxSeed))
	}
	return nil
}

// Register implements [Medium].
func (m *BurstyNoise) Register(ep Endpoint) error {
	return m.register(ep)
}

// Send implements [Medium].
func (m *BurstyNoise) Send(sender Endpoint, bit bool) error {
	return m.send(sender, bit, m.corruptLocked)
}

// Stats implements [Medium].
func (m *BurstyNoise) Stats() Stats {
	return m.statistics()
}

// corruptLocked runs the burst state machine for a single bit and
// returns the bit to deliver along with the updated burst counter.
//
// The caller must hold the mu lock.
func (m *BurstyNoise) corruptLocked(bit bool) (bool, int) {
	inBurst := m.burst > 0 ||
		(m.burst == burstIdle && m.source.RandU01() < m.config.BurstProbability)
	if !inBurst {
		// Either idle or cooling down: both make the next
		// transmission eligible for a new burst.
		m.burst = burstIdle
		return bit, m.burst
	}

	if m.burst == burstIdle {
		m.stats.Bursts++
		if m.logger != nil {
			m.logger.Debug("burstStart", slog.Uint64("seq", m.seq))
		}
	}
	m.burst++
	if m.source.RandU01() < m.config.ErrorProbability {
		bit = !bit
	}
	if m.burst >= m.config.MaxBurstLength {
		m.burst = burstCooldown
		if m.logger != nil {
			m.logger.Debug("burstDone", slog.Uint64("seq", m.seq))
		}
	}
	return bit, m.burst
}
