// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package datalink implements byte-stuffed framing with error detection.

# Wire Format

A frame is a start marker, the escaped payload, zero or more check
bytes, and a stop marker:

	{ payload... [check...] }

Payload bytes equal to the start, stop or escape marker are preceded
by an escape byte. A frame is complete when the last received byte is
a stop marker not preceded by an escape byte.

# Schemes

A [Scheme] turns data into frames and back. This package provides:

- [*Simple], which sends all the data in a single frame without any
error check (selected as "Dumb" by the simulator);

- [*Checked], which splits data into chunks of at most MaxPayload bytes
and appends the bytes computed by a [Checker]. [NewParity] returns a
[*Checked] using [ParityChecker] and 8-byte chunks.

Parity detects any odd number of flipped payload bits and misses any
even number. A Hamming code would plug in as another [Checker]; none
is provided.

# Engine

The [*Engine] binds a [Scheme] to a physical layer below and a
[Client] above. It accumulates incoming bytes, processes complete
frames, resets its buffer after every frame, and delivers validated
payloads upward. Frames failing the check are dropped and logged;
structural errors of a [*Simple] scheme are returned to the caller.
*/
package datalink
