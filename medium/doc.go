// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package medium models a point-to-point bit channel between exactly
two endpoints.

# Usage and Features

Construct a [*Perfect] medium with [NewPerfect] or a [*BurstyNoise]
medium with [NewBurstyNoise]. Each [Endpoint] must [Medium.Register]
with the medium before it can [Medium.Send]. Sending a bit synchronously
invokes the Receive method of the other registered endpoint, within
the same call stack, so errors returned by the receiving side travel
back to the sender.

A [*Perfect] medium delivers bits unchanged. A [*BurstyNoise] medium
occasionally starts a burst, lasting MaxBurstLength transmissions,
during which each bit is independently flipped with ErrorProbability.
After a burst ends, the next transmission is never eligible to start
a new burst.

An optional [Observer] sees every [Transmission], which is how the
capture package records bit-level traces.

# Concurrency

Each medium serializes access to its endpoint slots and burst state
using a mutex. Delivery happens after the mutex is released, so the
receiving side may itself use the medium.
*/
package medium
