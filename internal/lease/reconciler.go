// Package lease reconciles DHCP lease events against the discovered IP
// assignment model.
package lease

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/rs/zerolog"

	"github.com/sfeole/maas/internal/domain"
	"github.com/sfeole/maas/internal/repository"
)

// noHostname is the literal a DHCP server sends when the client supplied no
// hostname. It must be treated as absent, not as a real name.
const noHostname = "(none)"

// UpdateError reports a lease event that cannot be reconciled. The event is
// dropped; retrying without correcting the event would fail identically.
type UpdateError struct {
	Message string
}

func (e *UpdateError) Error() string {
	return e.Message
}

func updateErrorf(format string, args ...any) *UpdateError {
	return &UpdateError{Message: fmt.Sprintf(format, args...)}
}

// Action is a DHCP lease event action.
type Action int

const (
	// ActionCommit records an address handed out to a MAC.
	ActionCommit Action = iota
	// ActionRelease records a client giving an address back.
	ActionRelease
	// ActionExpiry records a lease running out. Identical effect to release.
	ActionExpiry
)

// ParseAction maps the wire action string onto the closed Action set.
func ParseAction(s string) (Action, error) {
	switch s {
	case "commit":
		return ActionCommit, nil
	case "release":
		return ActionRelease, nil
	case "expiry":
		return ActionExpiry, nil
	default:
		return 0, updateErrorf("Unknown lease action: %s", s)
	}
}

// Event is a lease update delivered by the DHCP infrastructure.
type Event struct {
	Action    string // commit, release, or expiry
	MAC       string // link-layer address of the client
	IP        string // leased address, any family
	Family    string // ipv4 or ipv6, as claimed by the sender
	Timestamp int64  // epoch seconds the event happened, not arrival time
	LeaseTime int64  // lease duration in seconds; commit only
	Hostname  string // client hostname; "(none)" means absent
}

// Store is the mutation surface the reconciler drives.
type Store interface {
	// SubnetContaining returns the subnet owning ip, or repository.ErrNotFound.
	SubnetContaining(ctx context.Context, ip netip.Addr) (domain.Subnet, error)

	// InterfaceByMAC returns the interface owning mac, or repository.ErrNotFound.
	InterfaceByMAC(ctx context.Context, mac string) (domain.Interface, error)

	// CreateUnknownInterface registers an interface for an unregistered MAC
	// on the given VLAN.
	CreateUnknownInterface(ctx context.Context, mac string, vlanID int64, hostname string) (domain.Interface, error)

	// SetInterfaceHostname updates an interface's display name.
	SetInterfaceHostname(ctx context.Context, id int64, hostname string) error

	// UpsertDiscovered atomically creates or replaces the discovered
	// assignment for (interfaceID, family). A nil ip frees the address while
	// keeping the row.
	UpsertDiscovered(ctx context.Context, interfaceID int64, family domain.Family, ip *string, subnetID *int64, leaseTime int64, timestamp int64) error
}

// Reconciler applies lease events to the persistent assignment model.
type Reconciler struct {
	store Store
	log   zerolog.Logger
}

// NewReconciler creates a lease reconciler over the given store.
func NewReconciler(store Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// UpdateLease applies one lease event. It returns *UpdateError for an
// unknown action, an IP outside every known subnet, or an address-family
// mismatch. A release or expiry for a MAC that was never seen is a no-op.
// Replaying the same commit is idempotent: the per-family discovered
// assignment is updated, never duplicated.
func (r *Reconciler) UpdateLease(ctx context.Context, ev Event) error {
	action, err := ParseAction(ev.Action)
	if err != nil {
		return err
	}

	ip, err := netip.ParseAddr(ev.IP)
	if err != nil {
		return updateErrorf("No subnet exists for: %s", ev.IP)
	}
	ip = ip.Unmap()

	subnet, err := r.store.SubnetContaining(ctx, ip)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return updateErrorf("No subnet exists for: %s", ev.IP)
		}
		return fmt.Errorf("failed to look up subnet for %s: %w", ev.IP, err)
	}

	family, err := subnetFamily(subnet)
	if err != nil {
		return err
	}
	if ev.Family != string(family) {
		return updateErrorf("Family for the subnet does not match. Expected: %s", family)
	}

	hostname := ev.Hostname
	if hostname == noHostname {
		hostname = ""
	}

	switch action {
	case ActionCommit:
		return r.commit(ctx, ev, ip, subnet, family, hostname)
	case ActionRelease, ActionExpiry:
		return r.release(ctx, ev, subnet, family)
	}
	return nil
}

// commit records the address handed to ev.MAC, creating an unknown interface
// on the subnet's VLAN when no registered hardware owns the MAC. Timestamps
// come from the event so replays and delayed delivery stay consistent.
func (r *Reconciler) commit(ctx context.Context, ev Event, ip netip.Addr, subnet domain.Subnet, family domain.Family, hostname string) error {
	iface, err := r.store.InterfaceByMAC(ctx, ev.MAC)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to look up interface for %s: %w", ev.MAC, err)
		}
		iface, err = r.store.CreateUnknownInterface(ctx, ev.MAC, subnet.VLANID, hostname)
		if err != nil {
			return fmt.Errorf("failed to create unknown interface for %s: %w", ev.MAC, err)
		}
	} else if hostname != "" && iface.Hostname != hostname {
		if err := r.store.SetInterfaceHostname(ctx, iface.ID, hostname); err != nil {
			return fmt.Errorf("failed to update hostname for %s: %w", ev.MAC, err)
		}
	}

	ipText := ip.String()
	if err := r.store.UpsertDiscovered(ctx, iface.ID, family, &ipText, &subnet.ID, ev.LeaseTime, ev.Timestamp); err != nil {
		return err
	}

	r.log.Debug().
		Str("mac", ev.MAC).
		Str("ip", ipText).
		Str("subnet", subnet.CIDR).
		Int64("lease_time", ev.LeaseTime).
		Msg("lease committed")
	return nil
}

// release frees the address for ev.MAC within the subnet's family. The
// assignment row survives with a NULL IP so the interface's last known
// subnet is remembered. An unknown MAC is nothing to reconcile.
func (r *Reconciler) release(ctx context.Context, ev Event, subnet domain.Subnet, family domain.Family) error {
	iface, err := r.store.InterfaceByMAC(ctx, ev.MAC)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up interface for %s: %w", ev.MAC, err)
	}

	if err := r.store.UpsertDiscovered(ctx, iface.ID, family, nil, &subnet.ID, 0, ev.Timestamp); err != nil {
		return err
	}

	r.log.Debug().
		Str("mac", ev.MAC).
		Str("subnet", subnet.CIDR).
		Str("action", ev.Action).
		Msg("lease released")
	return nil
}

// subnetFamily derives the address family from a subnet's CIDR.
func subnetFamily(subnet domain.Subnet) (domain.Family, error) {
	prefix, err := netip.ParsePrefix(subnet.CIDR)
	if err != nil {
		return "", fmt.Errorf("subnet %d has invalid CIDR %q: %w", subnet.ID, subnet.CIDR, err)
	}
	if prefix.Addr().Unmap().Is4() {
		return domain.FamilyIPv4, nil
	}
	return domain.FamilyIPv6, nil
}
