// SPDX-License-Identifier: GPL-3.0-or-later

package datalink

// Simple is a [Scheme] sending all the data in one frame
// without any error check.
//
// The zero value is ready to use.
//
// Payloads ending with [EscapeMarker] are ambiguous in this scheme:
// the escaped escape byte right before the stop marker prevents the
// receiver from recognizing the end of the frame.
type Simple struct{}

var _ Scheme = &Simple{}

// NewSimple creates a new [*Simple] scheme.
func NewSimple() *Simple {
	return &Simple{}
}

// Name implements [Scheme].
func (*Simple) Name() string {
	return "Simple"
}

// Frame implements [Scheme].
func (*Simple) Frame(data []byte) [][]byte {
	return [][]byte{delimit(data, nil)}
}

// IsFrameComplete implements [Scheme].
func (*Simple) IsFrameComplete(buf []byte) bool {
	return endsWithStop(buf)
}

// ProcessFrame implements [Scheme]. A missing start marker is
// returned as is, so the engine treats it as fatal.
func (*Simple) ProcessFrame(buf []byte) ([]byte, error) {
	if !hasStart(buf) {
		return nil, ErrMissingStart
	}
	payload, _ := Unstuff(buf[1:])
	return payload, nil
}
