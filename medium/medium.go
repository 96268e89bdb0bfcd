//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Endpoint registration and delivery shared by all media.
//

package medium

import (
	"log/slog"
	"sync"

	"github.com/rbmk-project/linksim/errclass"
)

var (
	// ErrMediumFull is returned when registering a third endpoint.
	ErrMediumFull = errclass.Sentinel(errclass.EINVAL, "medium: both endpoint slots are taken")

	// ErrUnknownSender is returned when an unregistered endpoint sends.
	ErrUnknownSender = errclass.Sentinel(errclass.EINVAL, "medium: sender is not registered")

	// ErrNoPeer is returned when sending before the second endpoint registered.
	ErrNoPeer = errclass.Sentinel(errclass.EINVAL, "medium: no peer endpoint registered")

	// ErrNilEndpoint is returned when registering a nil endpoint.
	ErrNilEndpoint = errclass.Sentinel(errclass.EINVAL, "medium: nil endpoint")
)

// Endpoint is a participant in a [Medium].
//
// Endpoints are compared using ==, so they must be comparable
// values; pointers to structs are the typical choice.
type Endpoint interface {
	// Receive is invoked with each bit delivered to the endpoint.
	Receive(bit bool) error
}

// Medium is a point-to-point channel between two [Endpoint].
type Medium interface {
	// Register assigns the endpoint to the first free slot.
	Register(ep Endpoint) error

	// Send delivers a bit from sender to the other endpoint.
	Send(sender Endpoint, bit bool) error

	// Stats returns the transmission statistics.
	Stats() Stats
}

// Stats contains transmission statistics.
type Stats struct {
	// BitsSent is the number of bits accepted for delivery.
	BitsSent uint64

	// BitsFlipped is the number of bits delivered altered.
	BitsFlipped uint64

	// Bursts is the number of error bursts started.
	Bursts uint64
}

// Config configures a medium.
//
// The zero value is not ready to use with [NewBurstyNoise];
// start from [DefaultConfig] instead.
type Config struct {
	// BurstProbability is the probability that an eligible
	// transmission starts a burst.
	BurstProbability float64

	// ErrorProbability is the probability that each bit
	// transmitted inside a burst is flipped.
	ErrorProbability float64

	// MaxBurstLength is the number of transmissions after
	// which a burst ends.
	MaxBurstLength int

	// Seed optionally seeds the random source. If zero, we do not
	// seed the source explicitly. Ignored when Source is set.
	Seed uint64

	// Source is the optional random source. If nil, we create
	// a new stream using [NewSeededSource] or [NewSource].
	Source Source

	// Logger is the optional structured logger.
	Logger *slog.Logger

	// Observer is the optional [Observer] of transmissions.
	Observer Observer
}

// Default noise parameters.
const (
	DefaultBurstProbability = 0.005
	DefaultErrorProbability = 0.25
	DefaultMaxBurstLength   = 15
)

// DefaultConfig returns a [*Config] with the default noise parameters.
func DefaultConfig() *Config {
	return &Config{
		BurstProbability: DefaultBurstProbability,
		ErrorProbability: DefaultErrorProbability,
		MaxBurstLength:   DefaultMaxBurstLength,
	}
}

// link holds the state shared by every medium.
type link struct {
	// logger is the optional logger.
	logger *slog.Logger

	// mu protects the fields below.
	mu sync.Mutex

	// observer is the optional observer.
	observer Observer

	// seq is the sequence number of the next transmission.
	seq uint64

	// slots contains the registered endpoints.
	slots [2]Endpoint

	// stats contains the statistics.
	stats Stats
}

// register implements [Medium.Register].
func (l *link) register(ep Endpoint) error {
	if ep == nil {
		return ErrNilEndpoint
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for idx := range l.slots {
		if l.slots[idx] == nil {
			l.slots[idx] = ep
			if l.logger != nil {
				l.logger.Debug("endpointRegistered", slog.Int("slot", idx))
			}
			return nil
		}
	}
	return ErrMediumFull
}

// peerLocked returns the sender slot and the receiving endpoint.
//
// The caller must hold the mu lock.
func (l *link) peerLocked(sender Endpoint) (int, Endpoint, error) {
	var slot int
	switch {
	case sender != nil && l.slots[0] == sender:
		slot = 0
	case sender != nil && l.slots[1] == sender:
		slot = 1
	default:
		return 0, nil, ErrUnknownSender
	}
	receiver := l.slots[1-slot]
	if receiver == nil {
		return 0, nil, ErrNoPeer
	}
	return slot, receiver, nil
}

// send resolves the receiver, applies transform under the lock, notifies
// the observer, and finally delivers the resulting bit.
func (l *link) send(sender Endpoint, bit bool, transform func(bit bool) (bool, int)) error {
	l.mu.Lock()
	slot, receiver, err := l.peerLocked(sender)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	delivered, burst := transform(bit)
	tx := Transmission{
		Seq:       l.seq,
		Sender:    slot,
		Sent:      bit,
		Delivered: delivered,
		Burst:     burst,
	}
	l.seq++
	l.stats.BitsSent++
	if tx.Flipped() {
		l.stats.BitsFlipped++
	}
	observer := l.observer
	l.mu.Unlock()

	if observer != nil {
		observer.Observe(tx)
	}
	return receiver.Receive(delivered)
}

// statistics implements [Medium.Stats].
func (l *link) statistics() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}
