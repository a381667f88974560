package repository

import (
	"context"
	"database/sql"

	"github.com/sfeole/maas/internal/domain"
)

// DNSStore bundles the queries the zone generator reads: DNS-managed node
// groups, their interfaces, hostname mappings, and runtime settings.
type DNSStore struct {
	groups      NodeGroupRepository
	assignments AssignmentRepository
	settings    SettingsRepository
}

// NewDNSStore creates a DNSStore over the given database.
func NewDNSStore(db *sql.DB) *DNSStore {
	return &DNSStore{
		groups:      NewNodeGroupRepository(db),
		assignments: NewAssignmentRepository(db),
		settings:    NewSettingsRepository(db),
	}
}

// DNSManagedByName returns the DNS-managed node groups for the given names.
func (s *DNSStore) DNSManagedByName(ctx context.Context, names []string) ([]domain.NodeGroup, error) {
	return s.groups.DNSManagedByName(ctx, names)
}

// FindInterfaces returns the interfaces of a node group.
func (s *DNSStore) FindInterfaces(ctx context.Context, nodeGroupID int64) ([]domain.NodeGroupInterface, error) {
	return s.groups.FindInterfaces(ctx, nodeGroupID)
}

// HostnameIPMapping returns hostname -> IP for the node group's hosts.
func (s *DNSStore) HostnameIPMapping(ctx context.Context, nodeGroupID int64) (map[string]string, error) {
	return s.assignments.HostnameIPMapping(ctx, nodeGroupID)
}

// Setting returns a named runtime setting, or ErrNotFound.
func (s *DNSStore) Setting(ctx context.Context, name string) (string, error) {
	return s.settings.Get(ctx, name)
}
