package repository

import (
	"context"
	"database/sql"
	"net/netip"

	"github.com/sfeole/maas/internal/domain"
)

// LeaseStore bundles the mutations lease reconciliation drives: subnet
// resolution, interface lookup and creation, and the discovered-assignment
// upsert.
type LeaseStore struct {
	subnets     SubnetRepository
	interfaces  InterfaceRepository
	assignments AssignmentRepository
}

// NewLeaseStore creates a LeaseStore over the given database.
func NewLeaseStore(db *sql.DB) *LeaseStore {
	return &LeaseStore{
		subnets:     NewSubnetRepository(db),
		interfaces:  NewInterfaceRepository(db),
		assignments: NewAssignmentRepository(db),
	}
}

// SubnetContaining returns the subnet owning ip, or ErrNotFound.
func (s *LeaseStore) SubnetContaining(ctx context.Context, ip netip.Addr) (domain.Subnet, error) {
	return s.subnets.SubnetContaining(ctx, ip)
}

// InterfaceByMAC returns the interface owning mac, or ErrNotFound.
func (s *LeaseStore) InterfaceByMAC(ctx context.Context, mac string) (domain.Interface, error) {
	return s.interfaces.FindByMAC(ctx, mac)
}

// CreateUnknownInterface registers an interface for an unregistered MAC.
func (s *LeaseStore) CreateUnknownInterface(ctx context.Context, mac string, vlanID int64, hostname string) (domain.Interface, error) {
	return s.interfaces.CreateUnknown(ctx, mac, vlanID, hostname)
}

// SetInterfaceHostname updates an interface's display name.
func (s *LeaseStore) SetInterfaceHostname(ctx context.Context, id int64, hostname string) error {
	return s.interfaces.SetHostname(ctx, id, hostname)
}

// UpsertDiscovered atomically creates or replaces the discovered assignment
// for (interfaceID, family).
func (s *LeaseStore) UpsertDiscovered(ctx context.Context, interfaceID int64, family domain.Family, ip *string, subnetID *int64, leaseTime int64, timestamp int64) error {
	return s.assignments.UpsertDiscovered(ctx, interfaceID, family, ip, subnetID, leaseTime, timestamp)
}
