package dns

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sfeole/maas/internal/domain"
	"github.com/sfeole/maas/internal/repository"
)

// Store is the narrow query surface the zone generator reads from.
type Store interface {
	// DNSManagedByName returns every DNS-managed node group whose name
	// matches one of the given domain names.
	DNSManagedByName(ctx context.Context, names []string) ([]domain.NodeGroup, error)

	// FindInterfaces returns the interfaces of a node group.
	FindInterfaces(ctx context.Context, nodeGroupID int64) ([]domain.NodeGroupInterface, error)

	// HostnameIPMapping returns hostname -> IP for the node group's hosts.
	HostnameIPMapping(ctx context.Context, nodeGroupID int64) (map[string]string, error)

	// Setting returns a named runtime setting, or repository.ErrNotFound.
	Setting(ctx context.Context, name string) (string, error)
}

// GenerateOptions selects the serial for a generation batch. Exactly one of
// Serial or SerialSource must be set; the serial is resolved once and shared
// by every zone in the batch so incremental zone transfer sees one version.
type GenerateOptions struct {
	Serial       uint32
	SerialSource func() uint32
}

// Generator computes forward and reverse zone descriptors for node groups.
// It never mutates the model; a batch is a read-only snapshot.
type Generator struct {
	store Store
	log   zerolog.Logger
}

// NewGenerator creates a zone generator over the given store.
func NewGenerator(store Store, log zerolog.Logger) *Generator {
	return &Generator{store: store, log: log}
}

// Generate produces the zones describing the given node groups: one forward
// zone per domain name, then one reverse zone per (node group, network).
// An unresolvable server address aborts the whole batch; no partial zone set
// is ever returned.
func (g *Generator) Generate(ctx context.Context, groups []domain.NodeGroup, opts GenerateOptions) ([]Zone, error) {
	if opts.Serial == 0 && opts.SerialSource == nil {
		// Programmer error, not a runtime condition.
		panic("dns: no serial number or serial source specified")
	}
	serial := opts.Serial
	if serial == 0 {
		serial = opts.SerialSource()
	}

	names := domainNames(groups)
	managed, err := g.store.DNSManagedByName(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to select DNS-managed node groups: %w", err)
	}

	// Forward generation covers every managed group sharing a requested
	// domain name; reverse generation covers only the managed subset of
	// the input groups.
	forwardGroups := managed
	reverseGroups := intersectByID(groups, managed)

	dnsIP, err := g.serverAddress(ctx, groups)
	if err != nil {
		return nil, err
	}

	m := newMemo(g.store)

	srvRecords, err := g.srvRecords(ctx)
	if err != nil {
		return nil, err
	}

	zones, err := g.forwardZones(ctx, forwardGroups, serial, dnsIP, srvRecords, m)
	if err != nil {
		return nil, err
	}
	reverse, err := g.reverseZones(ctx, reverseGroups, serial, m)
	if err != nil {
		return nil, err
	}
	return append(zones, reverse...), nil
}

// serverAddress resolves the advertised server address once per batch and
// warns when it lands in the loopback network.
func (g *Generator) serverAddress(ctx context.Context, groups []domain.NodeGroup) (netip.Addr, error) {
	var group *domain.NodeGroup
	for i := range groups {
		if groups[i].MAASURL != "" {
			group = &groups[i]
			break
		}
	}

	ip, err := ServerAddress(ctx, g.store, group, true, true)
	if err != nil {
		return netip.Addr{}, err
	}
	if ip.IsLoopback() {
		g.log.Warn().Stringer("ip", ip).Msg(
			"the DNS server will use an address inside the loopback network; " +
				"set the advertised MAAS URL to an externally reachable address")
	}
	return ip, nil
}

// srvRecords computes the SRV records shared by every forward zone in the
// batch. Currently a single optional record for the Windows KMS activation
// host.
func (g *Generator) srvRecords(ctx context.Context) ([]SRVRecord, error) {
	host, err := g.store.Setting(ctx, domain.SettingWindowsKMSHost)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read KMS host setting: %w", err)
	}
	if host == "" {
		return nil, nil
	}
	return []SRVRecord{{
		Service:  "_vlmcs._tcp",
		Priority: 0,
		Weight:   0,
		Port:     1688,
		Target:   host,
	}}, nil
}

// forwardZones emits one forward zone per domain name, unioning the host
// mappings and dynamic ranges of every node group sharing that name.
func (g *Generator) forwardZones(ctx context.Context, groups []domain.NodeGroup, serial uint32, dnsIP netip.Addr, srvRecords []SRVRecord, m *memo) ([]Zone, error) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].ID < groups[j].ID
	})

	var zones []Zone
	for start := 0; start < len(groups); {
		end := start
		for end < len(groups) && groups[end].Name == groups[start].Name {
			end++
		}
		run := groups[start:end]
		start = end

		mapping := make(map[string]netip.Addr)
		var dynamicRanges []IPRange
		for _, group := range run {
			groupMapping, err := m.mapping(ctx, group)
			if err != nil {
				return nil, err
			}
			for hostname, ip := range groupMapping {
				mapping[hostname] = ip
			}
			details, err := m.networks(ctx, group)
			if err != nil {
				return nil, err
			}
			for _, detail := range details {
				if detail.DynamicRange.IsValid() {
					dynamicRanges = append(dynamicRanges, detail.DynamicRange)
				}
			}
		}

		zones = append(zones, Zone{
			Kind:          KindForward,
			Domain:        run[0].Name,
			Origin:        run[0].Name,
			Serial:        serial,
			Mapping:       mapping,
			DNSIP:         dnsIP,
			SRVRecords:    srvRecords,
			DynamicRanges: dynamicRanges,
		})
	}
	return zones, nil
}

// reverseZones emits one reverse zone per (node group, network) pair, in a
// deterministic order keyed by each group's network list.
func (g *Generator) reverseZones(ctx context.Context, groups []domain.NodeGroup, serial uint32, m *memo) ([]Zone, error) {
	keys := make(map[int64]string, len(groups))
	for _, group := range groups {
		details, err := m.networks(ctx, group)
		if err != nil {
			return nil, err
		}
		var parts []string
		for _, detail := range details {
			parts = append(parts, detail.Network.String())
		}
		keys[group.ID] = strings.Join(parts, ",")
	}
	sort.Slice(groups, func(i, j int) bool {
		if keys[groups[i].ID] != keys[groups[j].ID] {
			return keys[groups[i].ID] < keys[groups[j].ID]
		}
		return groups[i].ID < groups[j].ID
	})

	var zones []Zone
	for _, group := range groups {
		mapping, err := m.mapping(ctx, group)
		if err != nil {
			return nil, err
		}
		details, err := m.networks(ctx, group)
		if err != nil {
			return nil, err
		}
		for _, detail := range details {
			var dynamicRanges []IPRange
			if detail.DynamicRange.IsValid() {
				dynamicRanges = []IPRange{detail.DynamicRange}
			}
			zones = append(zones, Zone{
				Kind:          KindReverse,
				Domain:        group.Name,
				Origin:        reverseZoneOrigin(detail.Network),
				Serial:        serial,
				Mapping:       mapping,
				Network:       detail.Network,
				DynamicRanges: dynamicRanges,
			})
		}
	}
	return zones, nil
}

// memo caches per-node-group lookups for the duration of one generation
// batch, so groups visited by both the forward and reverse passes are only
// queried once.
type memo struct {
	store    Store
	mappings map[int64]map[string]netip.Addr
	details  map[int64][]NetworkDetail
}

func newMemo(store Store) *memo {
	return &memo{
		store:    store,
		mappings: make(map[int64]map[string]netip.Addr),
		details:  make(map[int64][]NetworkDetail),
	}
}

func (m *memo) mapping(ctx context.Context, group domain.NodeGroup) (map[string]netip.Addr, error) {
	if cached, ok := m.mappings[group.ID]; ok {
		return cached, nil
	}

	raw, err := m.store.HostnameIPMapping(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hostname mapping for %q: %w", group.Name, err)
	}
	mapping := make(map[string]netip.Addr, len(raw))
	for hostname, ipText := range raw {
		ip, err := netip.ParseAddr(ipText)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q for host %q: %w", ipText, hostname, err)
		}
		mapping[hostname] = ip.Unmap()
	}
	m.mappings[group.ID] = mapping
	return mapping, nil
}

func (m *memo) networks(ctx context.Context, group domain.NodeGroup) ([]NetworkDetail, error) {
	if cached, ok := m.details[group.ID]; ok {
		return cached, nil
	}

	ifaces, err := m.store.FindInterfaces(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load interfaces for %q: %w", group.Name, err)
	}
	var details []NetworkDetail
	for _, iface := range ifaces {
		if !iface.Managed() {
			continue
		}
		network, err := netip.ParsePrefix(iface.Network)
		if err != nil {
			return nil, fmt.Errorf("invalid network %q on %q: %w", iface.Network, group.Name, err)
		}
		detail := NetworkDetail{Network: network.Masked()}
		if iface.IPRangeLow != "" && iface.IPRangeHigh != "" {
			dynamicRange, err := ParseIPRange(iface.IPRangeLow, iface.IPRangeHigh)
			if err != nil {
				return nil, fmt.Errorf("invalid dynamic range on %q: %w", group.Name, err)
			}
			detail.DynamicRange = dynamicRange
		}
		details = append(details, detail)
	}
	m.details[group.ID] = details
	return details, nil
}

// domainNames returns the unique, sorted domain names of the given groups.
func domainNames(groups []domain.NodeGroup) []string {
	seen := make(map[string]bool, len(groups))
	var names []string
	for _, group := range groups {
		if group.Name != "" && !seen[group.Name] {
			seen[group.Name] = true
			names = append(names, group.Name)
		}
	}
	sort.Strings(names)
	return names
}

// intersectByID returns the members of groups that also appear in managed.
func intersectByID(groups, managed []domain.NodeGroup) []domain.NodeGroup {
	managedIDs := make(map[int64]bool, len(managed))
	for _, group := range managed {
		managedIDs[group.ID] = true
	}
	var result []domain.NodeGroup
	for _, group := range groups {
		if managedIDs[group.ID] {
			result = append(result, group)
		}
	}
	return result
}
