// SPDX-License-Identifier: GPL-3.0-or-later

package medium

// Transmission describes a single bit crossing a medium.
type Transmission struct {
	// Seq is the zero-based transmission sequence number.
	Seq uint64

	// Sender is the slot (0 or 1) of the sending endpoint.
	Sender int

	// Sent is the bit handed to the medium.
	Sent bool

	// Delivered is the bit handed to the receiver.
	Delivered bool

	// Burst is the burst counter after this transmission: zero
	// outside a burst, positive inside, -1 right after a burst.
	Burst int
}

// Flipped returns whether the medium altered the bit.
func (tx Transmission) Flipped() bool {
	return tx.Sent != tx.Delivered
}

// Observer observes transmissions.
type Observer interface {
	Observe(tx Transmission)
}

// ObserverFunc adapts a func to the [Observer] interface.
type ObserverFunc func(tx Transmission)

var _ Observer = ObserverFunc(nil)

// Observe implements [Observer].
func (fx ObserverFunc) Observe(tx Transmission) {
	fx(tx)
}
