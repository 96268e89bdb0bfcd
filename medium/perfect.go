// SPDX-License-Identifier: GPL-3.0-or-later

package medium

// Perfect is a [Medium] delivering every bit unchanged.
//
// Construct using [NewPerfect].
type Perfect struct {
	link
}

var _ Medium = &Perfect{}

// NewPerfect creates a new [*Perfect] medium. Only the Logger
// and Observer fields of config are used and config may be nil.
func NewPerfect(config *Config) *Perfect {
	m := &Perfect{}
	if config != nil {
		m.logger = config.Logger
		m.observer = config.Observer
	}
	return m
}

// Register implements [Medium].
func (m *Perfect) Register(ep Endpoint) error {
	return m.register(ep)
}

// Send implements [Medium].
func (m *Perfect) Send(sender Endpoint, bit bool) error {
	return m.send(sender, bit, func(bit bool) (bool, int) {
		return bit, 0
	})
}

// Stats implements [Medium].
func (m *Perfect) Stats() Stats {
	return m.statistics()
}
