// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package errclass implements error classification.

The general idea is to classify golang errors to an enum of strings
with names resembling standard Unix error names, so that structured
logs carry a stable `errClass` field next to the original `err`.

# Design Principles

1. Preserve original error in `err` in the structured logs.

2. Add the classified error as the `errClass` field.

3. Use [errors.As] to find the first classified error in the chain.

4. Follow Unix-like naming where appropriate.

5. Prefix subsystem-specific errors (`EFRAME_`).

6. Map the nil error to an empty string.

# Simulation Errors

- [EINVAL] for wiring mistakes (registering a third endpoint, sending
from an unregistered endpoint, registering two clients, unknown names)

- [ENOBUFS] for exceeding the frame buffer capacity

- [EFRAME_MALFORMED] for frames without a start marker

- [EFRAME_CHECKSUM] for frames whose error check does not match

# Fallback

Errors not created with [Sentinel] are classified using the
`github.com/rbmk-project/common/errclass` package, which
returns [EGENERIC] for unclassified errors.
*/
package errclass

import (
	"errors"

	"github.com/rbmk-project/common/errclass"
)

const (
	// EINVAL is the invalid argument error.
	EINVAL = errclass.EINVAL

	// ENOBUFS is the no buffer space available error.
	ENOBUFS = errclass.ENOBUFS

	// EFRAME_MALFORMED is the error for structurally invalid frames.
	EFRAME_MALFORMED = "EFRAME_MALFORMED"

	// EFRAME_CHECKSUM is the error for frames failing the error check.
	EFRAME_CHECKSUM = "EFRAME_CHECKSUM"

	// EGENERIC is the generic, unclassified error.
	EGENERIC = errclass.EGENERIC
)

// Error is a sentinel error carrying its class.
//
// Construct using [Sentinel].
type Error struct {
	class   string
	message string
}

// Sentinel returns a new [*Error] with the given class and message.
//
// Compare using [errors.Is]: each [*Error] is only equal to itself.
func Sentinel(class, message string) *Error {
	return &Error{class: class, message: message}
}

// Error implements error.
func (e *Error) Error() string {
	return e.message
}

// Class returns the error class.
func (e *Error) Class() string {
	return e.class
}

// New returns the class of the given error.
func New(err error) string {
	if err == nil {
		return ""
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.class
	}
	return errclass.New(err)
}
