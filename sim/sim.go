//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Simulation wiring.
//

// Package sim wires two protocol stacks over a shared medium.
//
// Each side of a [*Simulation] stacks a network layer on a data-link
// engine on a physical layer, and both physical layers share one
// medium. Media and framing schemes are selected by name through a
// registry, so the command line never instantiates types by reflection.
package sim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbmk-project/linksim/capture"
	"github.com/rbmk-project/linksim/closepool"
	"github.com/rbmk-project/linksim/datalink"
	"github.com/rbmk-project/linksim/errclass"
	"github.com/rbmk-project/linksim/medium"
	"github.com/rbmk-project/linksim/network"
	"github.com/rbmk-project/linksim/physical"
)

// side is one protocol stack.
type side struct {
	phys *physical.Layer
	link *datalink.Engine
	net  *network.Layer
}

// Simulation is a pair of protocol stacks sharing a medium.
//
// Construct using [New].
type Simulation struct {
	// capture is the optional transmission trace.
	capture *capture.Writer

	// logger is the optional logger.
	logger *slog.Logger

	// medium is the shared medium.
	medium medium.Medium

	// mediumName is the canonical medium name.
	mediumName string

	// pool releases the resources on Close.
	pool closepool.Pool

	// sides contains the sender (0) and the receiver (1).
	sides [2]side
}

// New creates a new [*Simulation] from config. The logger may be
// nil to disable logging. Each delivered payload is reported to stdout.
//
// Side 1 answers DNS queries for config.DNSName using config.DNSAddresses.
func New(config *Config, logger *slog.Logger, stdout io.Writer) (*Simulation, error) {
	s := &Simulation{logger: logger}
	s.pool.Logger = logger

	mconfig := config.mediumConfig()
	mconfig.Logger = logger
	if config.Capture != "" {
		cw, err := capture.Create(config.Capture)
		if err != nil {
			return nil, err
		}
		s.capture = cw
		s.pool.Add("capture", cw)
		mconfig.Observer = cw
	}

	m, name, err := NewMedium(config.Medium, mconfig)
	if err != nil {
		return nil, s.abort(err)
	}
	s.medium, s.mediumName = m, name

	profile := network.Profile{Name: config.Traffic, DNSName: config.DNSName}
	limits := datalink.Limits{MaxFrameBuffer: config.MaxFrameBuffer}
	for idx := range s.sides {
		if err := s.stack(idx, config.Scheme, limits, profile, stdout); err != nil {
			return nil, s.abort(err)
		}
	}

	if config.Traffic == network.ProfileDNS {
		zone := network.NewZone()
		zone.AddAddresses([]string{config.DNSName}, config.DNSAddresses)
		s.sides[1].net.Zone = zone
	}

	if logger != nil {
		logger.Info(
			"simulationReady",
			slog.String("medium", s.mediumName),
			slog.String("scheme", s.sides[0].link.Scheme().Name()),
			slog.String("traffic", config.Traffic),
		)
	}
	return s, nil
}

// abort releases the resources acquired so far and returns err
// joined with any release error.
func (s *Simulation) abort(err error) error {
	return errors.Join(err, s.pool.Close())
}

// stack creates the protocol stack of the given side.
func (s *Simulation) stack(idx int, schemeName string,
	limits datalink.Limits, profile network.Profile, stdout io.Writer) error {
	scheme, err := NewScheme(schemeName)
	if err != nil {
		return err
	}
	phys, err := physical.New(s.medium)
	if err != nil {
		return err
	}
	link, err := datalink.New(phys, scheme, limits)
	if err != nil {
		return err
	}
	nl, err := network.New(link, profile)
	if err != nil {
		return err
	}

	if s.logger != nil {
		logger := s.logger.With(slog.Int("side", idx))
		link.Logger = logger
		nl.Logger = logger
	}
	nl.Output = stdout
	s.sides[idx] = side{phys: phys, link: link, net: nl}
	return nil
}

// Run makes side 0 send its traffic, then makes side 1 send the
// answers it queued while receiving. Every error is fatal.
func (s *Simulation) Run() error {
	err := s.sides[0].net.Send()
	if err == nil {
		err = s.sides[1].net.Flush()
	}
	if s.logger != nil {
		s.logger.Info(
			"simulationDone",
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
		)
	}
	return err
}

// Network returns the network layer of the given side.
func (s *Simulation) Network(idx int) *network.Layer {
	return s.sides[idx].net
}

// Report summarizes a [*Simulation].
type Report struct {
	// Medium is the canonical medium name.
	Medium string

	// Scheme is the framing scheme name.
	Scheme string

	// MediumStats contains the medium statistics.
	MediumStats medium.Stats

	// LinkStats contains the data-link statistics of each side.
	LinkStats [2]datalink.Stats

	// Delivered is the number of payloads delivered on each side.
	Delivered [2]int
}

// Report returns the current [Report].
func (s *Simulation) Report() Report {
	r := Report{
		Medium:      s.mediumName,
		Scheme:      s.sides[0].link.Scheme().Name(),
		MediumStats: s.medium.Stats(),
	}
	for idx, sd := range s.sides {
		r.LinkStats[idx] = sd.link.Stats()
		r.Delivered[idx] = len(sd.net.Delivered())
	}
	return r
}

// WriteTo writes a human readable summary to w, with one
// datalink line for each direction.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	count, err := fmt.Fprintf(w, "medium: %s bits=%d flipped=%d bursts=%d\n",
		r.Medium, r.MediumStats.BitsSent, r.MediumStats.BitsFlipped, r.MediumStats.Bursts)
	total := int64(count)
	for sender := 0; sender < 2 && err == nil; sender++ {
		receiver := 1 - sender
		count, err = fmt.Fprintf(w, "datalink: %s %d->%d sent=%d delivered=%d dropped=%d\n",
			r.Scheme, sender, receiver, r.LinkStats[sender].FramesSent,
			r.LinkStats[receiver].FramesDelivered, r.LinkStats[receiver].FramesDropped)
		total += int64(count)
	}
	return total, err
}

// Close releases the simulation resources.
func (s *Simulation) Close() error {
	return s.pool.Close()
}
