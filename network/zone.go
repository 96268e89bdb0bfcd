// SPDX-License-Identifier: GPL-3.0-or-later

package network

import (
	"net"

	"github.com/miekg/dns"
	"github.com/rbmk-project/common/runtimex"
)

// Zone is the DNS database a [*Layer] uses to answer the
// queries it receives over the link.
//
// Construct using [NewZone].
type Zone struct {
	names map[string][]dns.RR
}

// NewZone creates a new empty [*Zone].
func NewZone() *Zone {
	return &Zone{
		names: make(map[string][]dns.RR),
	}
}

// AddCNAME adds a CNAME alias.
//
// This method IS NOT goroutine safe.
func (z *Zone) AddCNAME(name, alias string) {
	name = dns.CanonicalName(name)
	rr := &dns.CNAME{
		Hdr: dns.RR_Header{
			Name:   name,
			Rrtype: dns.TypeCNAME,
			Class:  dns.ClassINET,
			Ttl:    3600,
		},
		Target: dns.CanonicalName(alias),
	}
	z.names[name] = append(z.names[name], rr)
}

// AddAddresses adds A/AAAA records mapping the given
// domainNames to the given IPv4/IPv6 addresses.
//
// This method panics if an address is not a valid IP address.
//
// This method IS NOT goroutine safe.
func (z *Zone) AddAddresses(domainNames, addresses []string) {
	for _, name := range domainNames {
		name = dns.CanonicalName(name)
		for _, addr := range addresses {
			ipAddr := net.ParseIP(addr)
			runtimex.Assert(ipAddr != nil, "invalid IP address")

			header := dns.RR_Header{
				Name:  name,
				Class: dns.ClassINET,
				Ttl:   3600,
			}

			var rr dns.RR
			switch ipAddr.To4() {
			case nil:
				header.Rrtype = dns.TypeAAAA
				rr = &dns.AAAA{Hdr: header, AAAA: ipAddr}
			default:
				header.Rrtype = dns.TypeA
				rr = &dns.A{Hdr: header, A: ipAddr}
			}

			z.names[name] = append(z.names[name], rr)
		}
	}
}

// Answer builds the response to query. It returns false when query
// is not a query containing exactly one question.
//
// This method is goroutine safe as long as one does not
// modify the zone while answering.
func (z *Zone) Answer(query *dns.Msg) (*dns.Msg, bool) {
	if query.Response || query.Opcode != dns.OpcodeQuery || len(query.Question) != 1 {
		return nil, false
	}
	response := &dns.Msg{}
	response.SetReply(query)
	response.Answer, response.Rcode = z.resolve(query.Question[0])
	return response, true
}

// resolve returns the records answering q, starting with the CNAME
// chain leading to them, along with the response code. A name holding
// neither the requested type nor a CNAME yields NOERROR without the
// final records, and a CNAME loop yields SERVFAIL.
func (z *Zone) resolve(q dns.Question) ([]dns.RR, int) {
	if q.Qclass != dns.ClassINET {
		return nil, dns.RcodeRefused
	}
	switch q.Qtype {
	case dns.TypeA, dns.TypeAAAA, dns.TypeCNAME:
	default:
		return nil, dns.RcodeNotImplemented
	}

	var chain []dns.RR
	visited := make(map[string]bool)
	for name := dns.CanonicalName(q.Name); !visited[name]; {
		visited[name] = true
		rrs, found := z.names[name]
		if !found {
			return chain, dns.RcodeNameError
		}

		var (
			cname   *dns.CNAME
			matched bool
		)
		for _, rr := range rrs {
			if rr.Header().Rrtype == q.Qtype {
				chain = append(chain, rr)
				matched = true
			}
			if rr, ok := rr.(*dns.CNAME); ok {
				cname = rr
			}
		}
		if matched || cname == nil {
			return chain, dns.RcodeSuccess
		}
		chain = append(chain, cname)
		name = cname.Target
	}
	return nil, dns.RcodeServerFailure
}
