//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Framing engine.
//

package datalink

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rbmk-project/linksim/errclass"
	"github.com/rbmk-project/linksim/physical"
)

var (
	// ErrNoPhysicalLayer is returned when constructing an [*Engine] without a physical layer.
	ErrNoPhysicalLayer = errclass.Sentinel(errclass.EINVAL, "datalink: no physical layer provided")

	// ErrNilScheme is returned when constructing an [*Engine] without a scheme.
	ErrNilScheme = errclass.Sentinel(errclass.EINVAL, "datalink: nil scheme")

	// ErrClientRegistered is returned when registering a second client.
	ErrClientRegistered = errclass.Sentinel(errclass.EINVAL, "datalink: client already registered")

	// ErrNoClient is returned when a payload is ready but there is no client.
	ErrNoClient = errclass.Sentinel(errclass.EINVAL, "datalink: no client registered")

	// ErrBufferOverflow is returned when the incoming buffer is full.
	ErrBufferOverflow = errclass.Sentinel(errclass.ENOBUFS, "datalink: incoming buffer overflow")
)

// PhysicalLayer is the physical layer as seen by an [*Engine].
type PhysicalLayer interface {
	// Register registers the engine as the upward client.
	Register(client physical.Client) error

	// Send transmits a frame.
	Send(buf []byte) error
}

var _ PhysicalLayer = &physical.Layer{}

// Client receives the payloads delivered by an [*Engine].
type Client interface {
	Receive(data []byte) error
}

// DefaultMaxFrameBuffer is the default size of the incoming buffer.
const DefaultMaxFrameBuffer = 32768

// Limits constrains the engine memory use.
type Limits struct {
	// MaxFrameBuffer is the maximum number of bytes
	// accumulated while waiting for a complete frame.
	MaxFrameBuffer int
}

// DefaultLimits returns the default [Limits].
func DefaultLimits() Limits {
	return Limits{MaxFrameBuffer: DefaultMaxFrameBuffer}
}

// Stats contains the engine statistics.
type Stats struct {
	// FramesSent is the number of frames handed to the physical layer.
	FramesSent uint64

	// FramesDelivered is the number of payloads delivered upward.
	FramesDelivered uint64

	// FramesDropped is the number of frames discarded.
	FramesDropped uint64
}

// Engine is the data-link layer.
//
// Construct using [New].
type Engine struct {
	// Logger is the optional structured logger. If this field is
	// nil, we will not be emitting structured logs.
	Logger *slog.Logger

	// client is the upward client.
	client Client

	// incoming accumulates the bytes of the current frame.
	incoming []byte

	// limits contains the limits.
	limits Limits

	// phys is the physical layer.
	phys PhysicalLayer

	// scheme is the framing scheme.
	scheme Scheme

	// stats contains the statistics.
	stats Stats
}

// New creates a new [*Engine] and registers it with phys.
//
// A zero MaxFrameBuffer in limits means [DefaultMaxFrameBuffer].
func New(phys PhysicalLayer, scheme Scheme, limits Limits) (*Engine, error) {
	if phys == nil {
		return nil, ErrNoPhysicalLayer
	}
	if scheme == nil {
		return nil, ErrNilScheme
	}
	if limits.MaxFrameBuffer <= 0 {
		limits.MaxFrameBuffer = DefaultMaxFrameBuffer
	}
	e := &Engine{
		limits: limits,
		phys:   phys,
		scheme: scheme,
	}
	if err := phys.Register(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Scheme returns the framing scheme.
func (e *Engine) Scheme() Scheme {
	return e.scheme
}

// Stats returns the engine statistics.
func (e *Engine) Stats() Stats {
	return e.stats
}

var _ physical.Client = &Engine{}

// Register sets the upward client. Only one client is allowed.
func (e *Engine) Register(client Client) error {
	if e.client != nil {
		return ErrClientRegistered
	}
	e.client = client
	return nil
}

// Send frames data and hands each frame to the physical layer.
func (e *Engine) Send(data []byte) error {
	for _, frame := range e.scheme.Frame(data) {
		if e.Logger != nil {
			e.Logger.Debug(
				"frameSend",
				slog.String("scheme", e.scheme.Name()),
				slog.Int("frameLength", len(frame)),
				slog.String("frame", fmt.Sprintf("%q", frame)),
			)
		}
		if err := e.phys.Send(frame); err != nil {
			return err
		}
		e.stats.FramesSent++
	}
	return nil
}

// Receive implements [physical.Client]. It accumulates b and, once
// the buffer holds a complete frame, processes it, resets the buffer,
// and delivers the payload to the client.
func (e *Engine) Receive(b byte) error {
	if len(e.incoming) >= e.limits.MaxFrameBuffer {
		return fmt.Errorf("%w: %d bytes", ErrBufferOverflow, len(e.incoming))
	}
	e.incoming = append(e.incoming, b)
	if !e.scheme.IsFrameComplete(e.incoming) {
		return nil
	}

	payload, err := e.scheme.ProcessFrame(e.incoming)
	e.incoming = e.incoming[:0]

	switch {
	case errors.Is(err, ErrFrameDropped):
		e.stats.FramesDropped++
		if e.Logger != nil {
			e.Logger.Warn(
				"frameDropped",
				slog.String("scheme", e.scheme.Name()),
				slog.Any("err", err),
				slog.String("errClass", errclass.New(err)),
				slog.String("payload", fmt.Sprintf("%q", payload)),
			)
		}
		return nil

	case err != nil:
		if e.Logger != nil {
			e.Logger.Error(
				"frameError",
				slog.String("scheme", e.scheme.Name()),
				slog.Any("err", err),
				slog.String("errClass", errclass.New(err)),
			)
		}
		return err
	}

	if e.client == nil {
		return ErrNoClient
	}
	e.stats.FramesDelivered++
	return e.client.Receive(payload)
}
