//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Network layer.
//

// Package network contains the topmost layer of the simulated stack.
//
// A [*Layer] generates test traffic, reports every payload the data
// link delivers, and optionally answers DNS queries using a [*Zone].
//
// Two traffic profiles exist. [ProfileText] sends four short text
// messages exercising byte stuffing. [ProfileDNS] sends a single DNS
// query. Because a checked scheme splits data into small frames, DNS
// messages travel behind a two-byte big-endian length, as DNS does over
// TCP, and the receiving side reassembles them from consecutive payloads.
package network

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/miekg/dns"
	"github.com/rbmk-project/dnscore"
	"github.com/rbmk-project/linksim/datalink"
	"github.com/rbmk-project/linksim/errclass"
)

// Traffic profiles.
const (
	// ProfileText sends [TextMessages].
	ProfileText = "text"

	// ProfileDNS sends a DNS query for [Profile.DNSName].
	ProfileDNS = "dns"
)

// DefaultDNSName is the default name queried by [ProfileDNS].
const DefaultDNSName = "example.com"

// lengthSize is the size of the length preceding each DNS message.
const lengthSize = 2

// maxMessage is the largest DNS message we accept.
const maxMessage = 512

var (
	// ErrNoDataLink is returned when constructing a [*Layer] without a data link.
	ErrNoDataLink = errclass.Sentinel(errclass.EINVAL, "network: no data link provided")

	// ErrUnknownProfile is returned by [New] for an unknown traffic profile.
	ErrUnknownProfile = errclass.Sentinel(errclass.EINVAL, "network: unknown traffic profile")
)

// DataLink is the data-link layer as seen by a [*Layer].
type DataLink interface {
	// Register registers the layer as the upward client.
	Register(client datalink.Client) error

	// Send transmits data.
	Send(data []byte) error
}

var _ DataLink = &datalink.Engine{}

// Profile describes the traffic a [*Layer] sends.
type Profile struct {
	// Name is either [ProfileText] or [ProfileDNS].
	Name string

	// DNSName is the name queried by [ProfileDNS]. When
	// empty, we use [DefaultDNSName].
	DNSName string
}

// TextMessages returns the messages sent by [ProfileText].
func TextMessages() [][]byte {
	return [][]byte{
		[]byte("abc"),
		[]byte("abd"),
		[]byte("The quick brown fox..."),
		[]byte("Does {}{} byte packing \\ work?"),
	}
}

// DNSQuery returns a serialized A query for name, without the length.
func DNSQuery(name string) ([]byte, error) {
	query, err := dnscore.NewQuery(name, dns.TypeA)
	if err != nil {
		return nil, err
	}
	return query.Pack()
}

// Layer is the network layer.
//
// Construct using [New].
type Layer struct {
	// Logger is the optional structured logger. If this field is
	// nil, we will not be emitting structured logs.
	Logger *slog.Logger

	// Output is the optional writer where we report each delivered
	// payload as a `receive: ` line. If nil, we do not report.
	Output io.Writer

	// Zone is the optional zone used to answer the DNS queries we
	// receive. Answers are queued until the next [*Layer.Flush].
	Zone *Zone

	// assembly accumulates length-prefixed DNS messages.
	assembly []byte

	// dnsMessages contains the DNS messages received so far.
	dnsMessages []*dns.Msg

	// delivered contains the payloads delivered so far.
	delivered [][]byte

	// dl is the data link.
	dl DataLink

	// pending contains the length-prefixed answers waiting for [*Layer.Flush].
	pending [][]byte

	// profile is the traffic profile.
	profile Profile
}

// New creates a new [*Layer] and registers it with dl.
func New(dl DataLink, profile Profile) (*Layer, error) {
	if dl == nil {
		return nil, ErrNoDataLink
	}
	switch profile.Name {
	case ProfileText, ProfileDNS:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, profile.Name)
	}
	if profile.DNSName == "" {
		profile.DNSName = DefaultDNSName
	}
	nl := &Layer{dl: dl, profile: profile}
	if err := dl.Register(nl); err != nil {
		return nil, err
	}
	return nl, nil
}

// Messages returns the messages [*Layer.Send] transmits. DNS
// queries are returned without the length [*Layer.Send] adds.
func (nl *Layer) Messages() ([][]byte, error) {
	if nl.profile.Name == ProfileText {
		return TextMessages(), nil
	}
	query, err := DNSQuery(nl.profile.DNSName)
	if err != nil {
		return nil, err
	}
	return [][]byte{query}, nil
}

// Send transmits the traffic of the configured profile.
func (nl *Layer) Send() error {
	messages, err := nl.Messages()
	if err != nil {
		return err
	}
	for _, message := range messages {
		if nl.profile.Name == ProfileDNS {
			message = withLength(message)
		}
		if err := nl.send(message); err != nil {
			return err
		}
	}
	return nil
}

// Flush transmits the queued DNS answers.
func (nl *Layer) Flush() error {
	for len(nl.pending) > 0 {
		message := nl.pending[0]
		nl.pending = nl.pending[1:]
		if err := nl.send(message); err != nil {
			return err
		}
	}
	return nil
}

func (nl *Layer) send(message []byte) error {
	if nl.Logger != nil {
		nl.Logger.Info(
			"sendStart",
			slog.String("profile", nl.profile.Name),
			slog.Int("length", len(message)),
		)
	}
	err := nl.dl.Send(message)
	if nl.Logger != nil {
		nl.Logger.Info(
			"sendDone",
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
		)
	}
	return err
}

var _ datalink.Client = &Layer{}

// Receive implements [datalink.Client].
func (nl *Layer) Receive(data []byte) error {
	payload := append([]byte{}, data...)
	nl.delivered = append(nl.delivered, payload)
	if nl.Output != nil {
		fmt.Fprintf(nl.Output, "receive: %s\n", printable(payload))
	}
	if nl.Logger != nil {
		nl.Logger.Info("receive", slog.Int("length", len(payload)))
	}
	if nl.profile.Name == ProfileDNS {
		nl.reassemble(payload)
	}
	return nil
}

// withLength returns message preceded by its two-byte length.
func withLength(message []byte) []byte {
	out := make([]byte, lengthSize, lengthSize+len(message))
	binary.BigEndian.PutUint16(out, uint16(len(message)))
	return append(out, message...)
}

// reassemble appends payload to the assembly buffer and handles
// every complete DNS message it contains. On an oversized length
// or a message that does not parse, the buffer is discarded.
func (nl *Layer) reassemble(payload []byte) {
	nl.assembly = append(nl.assembly, payload...)
	for len(nl.assembly) >= lengthSize {
		size := int(binary.BigEndian.Uint16(nl.assembly))
		if size > maxMessage {
			nl.discard(fmt.Errorf("DNS message length %d exceeds %d", size, maxMessage))
			return
		}
		if len(nl.assembly) < lengthSize+size {
			return
		}
		raw := nl.assembly[lengthSize : lengthSize+size]
		nl.assembly = nl.assembly[lengthSize+size:]
		msg := &dns.Msg{}
		if err := msg.Unpack(raw); err != nil {
			nl.discard(err)
			return
		}
		nl.handleDNS(msg)
	}
}

// discard drops the assembly buffer after a reassembly failure.
func (nl *Layer) discard(err error) {
	if nl.Logger != nil {
		nl.Logger.Warn(
			"dnsDiscard",
			slog.Int("length", len(nl.assembly)),
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
		)
	}
	nl.assembly = nil
}

// handleDNS logs msg and queues the answer when msg is a query.
func (nl *Layer) handleDNS(msg *dns.Msg) {
	nl.dnsMessages = append(nl.dnsMessages, msg)
	if nl.Logger != nil {
		for _, q := range msg.Question {
			nl.Logger.Info(
				"dnsMessage",
				slog.Bool("response", msg.Response),
				slog.String("name", q.Name),
				slog.String("qtype", dns.TypeToString[q.Qtype]),
			)
		}
		for _, rr := range msg.Answer {
			nl.Logger.Info("dnsAnswer", slog.String("rr", rr.String()))
		}
	}
	if nl.Zone == nil {
		return
	}
	response, ok := nl.Zone.Answer(msg)
	if !ok {
		return
	}
	rawResp, err := response.Pack()
	if err != nil {
		if nl.Logger != nil {
			nl.Logger.Warn(
				"dnsPackError",
				slog.Any("err", err),
				slog.String("errClass", errclass.New(err)),
			)
		}
		return
	}
	nl.pending = append(nl.pending, withLength(rawResp))
}

// Delivered returns the payloads delivered so far.
func (nl *Layer) Delivered() [][]byte {
	return nl.delivered
}

// DNSMessages returns the DNS messages received so far.
func (nl *Layer) DNSMessages() []*dns.Msg {
	return nl.dnsMessages
}

// Pending returns the number of queued DNS answers.
func (nl *Layer) Pending() int {
	return len(nl.pending)
}

// printable returns data as text when it only contains printable
// runes and as a quoted Go string otherwise.
func printable(data []byte) string {
	if utf8.Valid(data) {
		text := string(data)
		ok := true
		for _, r := range text {
			if !unicode.IsPrint(r) {
				ok = false
				break
			}
		}
		if ok {
			return text
		}
	}
	return strconv.Quote(string(data))
}
