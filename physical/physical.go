// SPDX-License-Identifier: GPL-3.0-or-later

// Package physical serializes bytes to bits over a [medium.Medium].
//
// Each byte is sent least significant bit first. On the receive side,
// a shift register accumulates bits and delivers a byte upward every
// eight bits, so the sender's byte boundaries are reproduced as long
// as no bit is lost.
package physical

import (
	"github.com/rbmk-project/linksim/errclass"
	"github.com/rbmk-project/linksim/medium"
)

var (
	// ErrNilMedium is returned when constructing a [*Layer] without a medium.
	ErrNilMedium = errclass.Sentinel(errclass.EINVAL, "physical: nil medium")

	// ErrClientRegistered is returned when registering a second client.
	ErrClientRegistered = errclass.Sentinel(errclass.EINVAL, "physical: client already registered")

	// ErrNoClient is returned when a byte is complete but there is no client.
	ErrNoClient = errclass.Sentinel(errclass.EINVAL, "physical: no client registered")
)

// bitsPerByte is the number of bits in a byte.
const bitsPerByte = 8

// Client receives the bytes assembled by a [*Layer].
type Client interface {
	Receive(b byte) error
}

// Layer is the physical layer bound to one [medium.Medium].
//
// Construct using [New].
type Layer struct {
	// bitsReceived counts the bits in the shift register.
	bitsReceived int

	// client is the upward client.
	client Client

	// incoming is the shift register.
	incoming byte

	// medium is the medium we are registered with.
	medium medium.Medium
}

var _ medium.Endpoint = &Layer{}

// New creates a new [*Layer] and registers it with m.
func New(m medium.Medium) (*Layer, error) {
	if m == nil {
		return nil, ErrNilMedium
	}
	pl := &Layer{medium: m}
	if err := m.Register(pl); err != nil {
		return nil, err
	}
	return pl, nil
}

// Register sets the upward client. Only one client is allowed.
func (pl *Layer) Register(client Client) error {
	if pl.client != nil {
		return ErrClientRegistered
	}
	pl.client = client
	return nil
}

// Send transmits buf one bit at a time, least significant bit first.
func (pl *Layer) Send(buf []byte) error {
	for _, b := range buf {
		for shift := 0; shift < bitsPerByte; shift++ {
			if err := pl.medium.Send(pl, (b>>shift)&0x01 == 0x01); err != nil {
				return err
			}
		}
	}
	return nil
}

// Receive implements [medium.Endpoint]. Each bit enters the shift
// register from the top; after eight bits the register holds the
// sent byte and is delivered to the client.
func (pl *Layer) Receive(bit bool) error {
	pl.incoming >>= 1
	if bit {
		pl.incoming |= 0x80
	}
	pl.bitsReceived++
	if pl.bitsReceived < bitsPerByte {
		return nil
	}
	pl.bitsReceived = 0
	if pl.client == nil {
		return ErrNoClient
	}
	return pl.client.Receive(pl.incoming)
}
