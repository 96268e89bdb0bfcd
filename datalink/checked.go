//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Chunked frames carrying error check bytes.
//

package datalink

import (
	"bytes"
	"fmt"

	"github.com/rbmk-project/linksim/bitvec"
)

// DefaultParityPayload is the maximum payload of a frame built by [NewParity].
const DefaultParityPayload = 8

// Checker computes the error check bytes of a payload.
type Checker interface {
	// Name returns the checker name.
	Name() string

	// Size returns the number of check bytes.
	Size() int

	// Sum returns the Size() check bytes for payload.
	Sum(payload []byte) []byte
}

// Parity returns the number of set bits in payload modulo two.
func Parity(payload []byte) byte {
	return byte(bitvec.FromBytes(payload).OnesCount() % 2)
}

// ParityChecker is a [Checker] using a single [Parity] byte.
type ParityChecker struct{}

var _ Checker = ParityChecker{}

// Name implements [Checker].
func (ParityChecker) Name() string {
	return "Parity"
}

// Size implements [Checker].
func (ParityChecker) Size() int {
	return 1
}

// Sum implements [Checker].
func (ParityChecker) Sum(payload []byte) []byte {
	return []byte{Parity(payload)}
}

// Checked is a [Scheme] splitting data into chunks and appending
// check bytes to each frame.
//
// Construct using [NewParity] or by filling the fields.
type Checked struct {
	// Checker computes the check bytes.
	Checker Checker

	// MaxPayload is the maximum number of payload bytes per
	// frame. Zero or negative values mean no limit.
	MaxPayload int
}

var _ Scheme = &Checked{}

// NewParity returns a [*Checked] scheme using [ParityChecker]
// and [DefaultParityPayload] bytes per frame.
func NewParity() *Checked {
	return &Checked{
		Checker:    ParityChecker{},
		MaxPayload: DefaultParityPayload,
	}
}

// Name implements [Scheme].
func (c *Checked) Name() string {
	return c.Checker.Name()
}

// Frame implements [Scheme]. Empty data produces no frames.
func (c *Checked) Frame(data []byte) [][]byte {
	chunk := c.MaxPayload
	if chunk <= 0 {
		chunk = len(data)
	}
	var frames [][]byte
	for begin := 0; begin < len(data); begin += chunk {
		end := min(begin+chunk, len(data))
		payload := data[begin:end]
		frames = append(frames, delimit(payload, c.Checker.Sum(payload)))
	}
	return frames
}

// IsFrameComplete implements [Scheme].
func (c *Checked) IsFrameComplete(buf []byte) bool {
	return endsWithStop(buf)
}

// ProcessFrame implements [Scheme]. Every failure wraps
// [ErrFrameDropped], so the engine drops the frame and continues.
func (c *Checked) ProcessFrame(buf []byte) ([]byte, error) {
	if !hasStart(buf) {
		return nil, fmt.Errorf("%w: %w", ErrMissingStart, ErrFrameDropped)
	}
	body, _ := Unstuff(buf[1:])
	size := c.Checker.Size()
	if len(body) < size {
		return body, fmt.Errorf("%w: %w", ErrShortFrame, ErrFrameDropped)
	}
	payload, check := body[:len(body)-size], body[len(body)-size:]
	if expected := c.Checker.Sum(payload); !bytes.Equal(expected, check) {
		return payload, fmt.Errorf("%w: %s expected %x got %x: %w",
			ErrCheckMismatch, c.Checker.Name(), expected, check, ErrFrameDropped)
	}
	return payload, nil
}
