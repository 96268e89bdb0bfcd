//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Scheme definition and byte stuffing.
//

package datalink

import (
	"bytes"
	"errors"

	"github.com/rbmk-project/linksim/errclass"
)

// Marker values.
const (
	// StartMarker opens a frame.
	StartMarker byte = '{'

	// StopMarker closes a frame.
	StopMarker byte = '}'

	// EscapeMarker makes the following byte literal.
	EscapeMarker byte = '\\'
)

var (
	// ErrMissingStart indicates a frame not beginning with [StartMarker].
	ErrMissingStart = errclass.Sentinel(errclass.EFRAME_MALFORMED, "datalink: missing start marker")

	// ErrShortFrame indicates a frame too short to contain its check bytes.
	ErrShortFrame = errclass.Sentinel(errclass.EFRAME_MALFORMED, "datalink: frame shorter than its check")

	// ErrCheckMismatch indicates a frame whose check bytes do not match the payload.
	ErrCheckMismatch = errclass.Sentinel(errclass.EFRAME_CHECKSUM, "datalink: check mismatch")

	// ErrFrameDropped marks errors after which the frame is discarded
	// and the engine keeps running.
	ErrFrameDropped = errors.New("datalink: frame dropped")
)

// Scheme is a framing scheme.
type Scheme interface {
	// Name returns the scheme name.
	Name() string

	// Frame splits data into one or more frames.
	Frame(data []byte) [][]byte

	// IsFrameComplete returns whether buf ends with a complete frame.
	IsFrameComplete(buf []byte) bool

	// ProcessFrame extracts the payload of the complete frame in buf.
	//
	// On failure, the returned payload contains whatever could be
	// extracted, for diagnostics, and the error wraps [ErrFrameDropped]
	// when the frame should be discarded without stopping the engine.
	ProcessFrame(buf []byte) ([]byte, error)
}

// isMarker returns whether b needs escaping.
func isMarker(b byte) bool {
	return b == StartMarker || b == StopMarker || b == EscapeMarker
}

// Stuff appends to dst the bytes of data, each marker byte
// preceded by [EscapeMarker], and returns the extended buffer.
func Stuff(dst, data []byte) []byte {
	for _, b := range data {
		if isMarker(b) {
			dst = append(dst, EscapeMarker)
		}
		dst = append(dst, b)
	}
	return dst
}

// Unstuff walks buf, treating [EscapeMarker] as making the next byte
// literal, until the first unescaped [StopMarker] or the end of buf.
// It returns the literal bytes and the index where it stopped.
func Unstuff(buf []byte) ([]byte, int) {
	out := make([]byte, 0, len(buf))
	idx := 0
	for idx < len(buf) {
		b := buf[idx]
		switch {
		case b == StopMarker:
			return out, idx
		case b == EscapeMarker && idx+1 < len(buf):
			idx++
			b = buf[idx]
		}
		out = append(out, b)
		idx++
	}
	return out, idx
}

// endsWithStop implements [Scheme.IsFrameComplete] for all
// the schemes in this package.
func endsWithStop(buf []byte) bool {
	n := len(buf)
	return n >= 2 && buf[n-1] == StopMarker && buf[n-2] != EscapeMarker
}

// delimit returns a frame containing the stuffed payload and check.
func delimit(payload, check []byte) []byte {
	frame := make([]byte, 0, 2*len(payload)+2*len(check)+2)
	frame = append(frame, StartMarker)
	frame = Stuff(frame, payload)
	frame = Stuff(frame, check)
	return append(frame, StopMarker)
}

// hasStart returns whether buf begins with [StartMarker].
func hasStart(buf []byte) bool {
	return bytes.HasPrefix(buf, []byte{StartMarker})
}
