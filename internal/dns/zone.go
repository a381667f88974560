package dns

import (
	"fmt"
	"net/netip"
)

// Kind distinguishes forward zones from reverse zones.
type Kind string

const (
	KindForward Kind = "forward"
	KindReverse Kind = "reverse"
)

// SRVRecord describes a single SRV record attached to a forward zone.
type SRVRecord struct {
	Service  string // e.g. "_vlmcs._tcp"
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

// IPRange is an inclusive address range, typically a DHCP dynamic range.
type IPRange struct {
	Low  netip.Addr
	High netip.Addr
}

// ParseIPRange parses an inclusive range from its textual bounds.
func ParseIPRange(low, high string) (IPRange, error) {
	lo, err := netip.ParseAddr(low)
	if err != nil {
		return IPRange{}, fmt.Errorf("invalid range start %q: %w", low, err)
	}
	hi, err := netip.ParseAddr(high)
	if err != nil {
		return IPRange{}, fmt.Errorf("invalid range end %q: %w", high, err)
	}
	if lo.Compare(hi) > 0 {
		return IPRange{}, fmt.Errorf("range start %s is after range end %s", lo, hi)
	}
	return IPRange{Low: lo, High: hi}, nil
}

// IsValid reports whether the range has both bounds set.
func (r IPRange) IsValid() bool {
	return r.Low.IsValid() && r.High.IsValid()
}

// Contains reports whether ip falls inside the range, bounds included.
func (r IPRange) Contains(ip netip.Addr) bool {
	if !r.IsValid() {
		return false
	}
	return r.Low.Compare(ip) <= 0 && ip.Compare(r.High) <= 0
}

func (r IPRange) String() string {
	return fmt.Sprintf("%s-%s", r.Low, r.High)
}

// NetworkDetail pairs a managed network with its dynamic range.
type NetworkDetail struct {
	Network      netip.Prefix
	DynamicRange IPRange
}

// Zone is an immutable descriptor for one generated DNS zone. All zones
// produced in one generation batch carry the same serial.
type Zone struct {
	Kind   Kind
	Domain string // owning node group's domain name
	Origin string // zone origin: Domain for forward, arpa name for reverse
	Serial uint32

	// Mapping is hostname -> address for every managed host in the zone.
	Mapping map[string]netip.Addr

	// DNSIP is the address of the DNS server itself. Forward zones only.
	DNSIP netip.Addr

	// SRVRecords are optional service records. Forward zones only.
	SRVRecords []SRVRecord

	// Network is the address block the zone reverses. Reverse zones only.
	Network netip.Prefix

	// DynamicRanges are DHCP-handled ranges excluded from static records.
	DynamicRanges []IPRange
}

// inDynamicRange reports whether ip falls inside any declared dynamic range.
func (z Zone) inDynamicRange(ip netip.Addr) bool {
	for _, r := range z.DynamicRanges {
		if r.Contains(ip) {
			return true
		}
	}
	return false
}
