package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"

	"github.com/sfeole/maas/internal/domain"
	"github.com/sfeole/maas/internal/repository"
)

// ServerAddress returns the IP address the DNS server advertises in NS
// records. The address is derived from the node group's MAAS URL override
// when present, otherwise from the global maas_url setting. v4 and v6 select
// which address families are acceptable; IPv4 wins when both resolve.
func ServerAddress(ctx context.Context, store Store, group *domain.NodeGroup, v4, v6 bool) (netip.Addr, error) {
	rawURL, err := advertisedURL(ctx, store, group)
	if err != nil {
		return netip.Addr{}, err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid MAAS URL %q: %w", rawURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return netip.Addr{}, fmt.Errorf("MAAS URL %q has no host", rawURL)
	}

	if ip, err := netip.ParseAddr(host); err == nil {
		ip = ip.Unmap()
		if !familyWanted(ip, v4, v6) {
			return netip.Addr{}, fmt.Errorf(
				"MAAS URL address %s is not in a requested address family", ip)
		}
		return ip, nil
	}

	ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf(
			"unable to find the server IP address for %q: %w; the DNS server "+
				"requires this address for the NS records in its zone files, so "+
				"make sure the configured MAAS URL has the correct hostname", host, err)
	}

	// Prefer IPv4 when both families are requested and available.
	var v6Candidate netip.Addr
	for _, ip := range ips {
		ip = ip.Unmap()
		if ip.Is4() && v4 {
			return ip, nil
		}
		if ip.Is6() && v6 && !v6Candidate.IsValid() {
			v6Candidate = ip
		}
	}
	if v6Candidate.IsValid() {
		return v6Candidate, nil
	}
	return netip.Addr{}, fmt.Errorf(
		"no address of a requested family found for %q; the DNS server "+
			"requires this address for the NS records in its zone files", host)
}

// advertisedURL picks the node group's URL override when set, falling back
// to the global maas_url setting.
func advertisedURL(ctx context.Context, store Store, group *domain.NodeGroup) (string, error) {
	if group != nil && group.MAASURL != "" {
		return group.MAASURL, nil
	}

	value, err := store.Setting(ctx, domain.SettingMAASURL)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", errors.New("no MAAS URL configured; set the maas_url setting " +
				"so the DNS server can determine its own address")
		}
		return "", fmt.Errorf("failed to read MAAS URL setting: %w", err)
	}
	if value == "" {
		return "", errors.New("the maas_url setting is empty; the DNS server " +
			"cannot determine its own address")
	}
	return value, nil
}

func familyWanted(ip netip.Addr, v4, v6 bool) bool {
	if ip.Is4() {
		return v4
	}
	return v6
}
