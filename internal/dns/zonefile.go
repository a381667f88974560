package dns

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"

	mdns "github.com/miekg/dns"
)

// Zone file timing parameters, in seconds.
const (
	defaultTTL  = 3600
	soaRefresh  = 3600
	soaRetry    = 600
	soaExpire   = 86400
	soaMinimum  = 300
	nsLabel     = "ns"
	adminMbox   = "hostmaster"
)

// Render serializes the zone to BIND zone-file text. Every zone in a batch
// renders the batch serial into its SOA record.
func (z Zone) Render() (string, error) {
	switch z.Kind {
	case KindForward:
		return z.renderForward()
	case KindReverse:
		return z.renderReverse()
	default:
		return "", fmt.Errorf("unknown zone kind %q", z.Kind)
	}
}

func (z Zone) renderForward() (string, error) {
	origin := mdns.Fqdn(z.Domain)
	nsName := nsLabel + "." + origin

	var b strings.Builder
	fmt.Fprintf(&b, "$ORIGIN %s\n$TTL %d\n", origin, defaultTTL)
	b.WriteString(soaRecord(origin, nsName, z.Serial).String() + "\n")

	ns := &mdns.NS{Hdr: header(origin, mdns.TypeNS), Ns: nsName}
	b.WriteString(ns.String() + "\n")

	glue, err := addressRecord(nsName, z.DNSIP)
	if err != nil {
		return "", err
	}
	b.WriteString(glue.String() + "\n")

	for _, r := range z.DynamicRanges {
		fmt.Fprintf(&b, "; %s is handed out by DHCP and intentionally unlisted\n", r)
	}

	for _, hostname := range sortedHostnames(z.Mapping) {
		ip := z.Mapping[hostname]
		if z.inDynamicRange(ip) {
			continue
		}
		rr, err := addressRecord(mdns.Fqdn(hostname+"."+z.Domain), ip)
		if err != nil {
			return "", err
		}
		b.WriteString(rr.String() + "\n")
	}

	for _, record := range z.SRVRecords {
		srv := &mdns.SRV{
			Hdr:      header(mdns.Fqdn(record.Service+"."+z.Domain), mdns.TypeSRV),
			Priority: record.Priority,
			Weight:   record.Weight,
			Port:     record.Port,
			Target:   mdns.Fqdn(record.Target),
		}
		b.WriteString(srv.String() + "\n")
	}

	return b.String(), nil
}

func (z Zone) renderReverse() (string, error) {
	origin := mdns.Fqdn(z.Origin)
	nsName := nsLabel + "." + mdns.Fqdn(z.Domain)

	var b strings.Builder
	fmt.Fprintf(&b, "$ORIGIN %s\n$TTL %d\n", origin, defaultTTL)
	b.WriteString(soaRecord(origin, nsName, z.Serial).String() + "\n")

	ns := &mdns.NS{Hdr: header(origin, mdns.TypeNS), Ns: nsName}
	b.WriteString(ns.String() + "\n")

	for _, r := range z.DynamicRanges {
		fmt.Fprintf(&b, "; %s is handed out by DHCP and intentionally unlisted\n", r)
	}

	for _, hostname := range hostnamesByAddress(z.Mapping) {
		ip := z.Mapping[hostname]
		if !z.Network.Contains(ip) || z.inDynamicRange(ip) {
			continue
		}
		owner, err := mdns.ReverseAddr(ip.String())
		if err != nil {
			return "", fmt.Errorf("failed to reverse %s: %w", ip, err)
		}
		ptr := &mdns.PTR{
			Hdr: header(owner, mdns.TypePTR),
			Ptr: mdns.Fqdn(hostname + "." + z.Domain),
		}
		b.WriteString(ptr.String() + "\n")
	}

	return b.String(), nil
}

func header(name string, rrtype uint16) mdns.RR_Header {
	return mdns.RR_Header{Name: name, Rrtype: rrtype, Class: mdns.ClassINET, Ttl: defaultTTL}
}

func soaRecord(origin, nsName string, serial uint32) *mdns.SOA {
	return &mdns.SOA{
		Hdr:     header(origin, mdns.TypeSOA),
		Ns:      nsName,
		Mbox:    adminMbox + "." + origin,
		Serial:  serial,
		Refresh: soaRefresh,
		Retry:   soaRetry,
		Expire:  soaExpire,
		Minttl:  soaMinimum,
	}
}

// addressRecord builds an A or AAAA record depending on the address family.
func addressRecord(owner string, ip netip.Addr) (mdns.RR, error) {
	if !ip.IsValid() {
		return nil, fmt.Errorf("no address for %s", owner)
	}
	if ip.Is4() {
		return &mdns.A{Hdr: header(owner, mdns.TypeA), A: ip.AsSlice()}, nil
	}
	return &mdns.AAAA{Hdr: header(owner, mdns.TypeAAAA), AAAA: ip.AsSlice()}, nil
}

// reverseZoneOrigin derives the arpa zone name covering a network. Prefixes
// are collapsed to the enclosing octet (v4) or nibble (v6) boundary.
func reverseZoneOrigin(network netip.Prefix) string {
	addr := network.Addr()
	if addr.Is4() {
		octets := addr.As4()
		n := network.Bits() / 8
		if n < 1 {
			n = 1
		}
		if n > 3 {
			n = 3
		}
		parts := make([]string, 0, n)
		for i := n - 1; i >= 0; i-- {
			parts = append(parts, fmt.Sprintf("%d", octets[i]))
		}
		return strings.Join(parts, ".") + ".in-addr.arpa"
	}

	bytes := addr.As16()
	n := network.Bits() / 4
	if n < 1 {
		n = 1
	}
	if n > 31 {
		n = 31
	}
	parts := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		nibble := bytes[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		parts = append(parts, fmt.Sprintf("%x", nibble))
	}
	return strings.Join(parts, ".") + ".ip6.arpa"
}

func sortedHostnames(mapping map[string]netip.Addr) []string {
	hostnames := make([]string, 0, len(mapping))
	for hostname := range mapping {
		hostnames = append(hostnames, hostname)
	}
	sort.Strings(hostnames)
	return hostnames
}

// hostnamesByAddress orders hostnames by their mapped address, the natural
// order for a reverse zone.
func hostnamesByAddress(mapping map[string]netip.Addr) []string {
	hostnames := sortedHostnames(mapping)
	sort.SliceStable(hostnames, func(i, j int) bool {
		return mapping[hostnames[i]].Compare(mapping[hostnames[j]]) < 0
	})
	return hostnames
}
