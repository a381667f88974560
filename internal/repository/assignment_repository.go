package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sfeole/maas/internal/domain"
)

// AssignmentRepository defines operations for discovered IP assignments
type AssignmentRepository interface {
	// UpsertDiscovered atomically creates or replaces the single discovered
	// assignment for (interfaceID, family). A nil ip records a released or
	// expired lease while keeping the row. created_at is only set on insert;
	// both timestamps come from the lease event, not the clock.
	UpsertDiscovered(ctx context.Context, interfaceID int64, family domain.Family, ip *string, subnetID *int64, leaseTime int64, timestamp int64) error
	FindDiscovered(ctx context.Context, interfaceID int64, family domain.Family) (domain.IPAssignment, error)
	FindByInterfaceID(ctx context.Context, interfaceID int64) ([]domain.IPAssignment, error)
	// HostnameIPMapping returns hostname -> IP for every interface registered
	// to the node group that currently holds an address.
	HostnameIPMapping(ctx context.Context, nodeGroupID int64) (map[string]string, error)
}

// assignmentRepositoryImpl implements AssignmentRepository
type assignmentRepositoryImpl struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &assignmentRepositoryImpl{
		db: db,
	}
}

// UpsertDiscovered creates or updates the discovered assignment for an
// (interface, family) pair in a single statement, relying on the partial
// unique index so concurrent lease events cannot create duplicate rows.
func (r *assignmentRepositoryImpl) UpsertDiscovered(ctx context.Context, interfaceID int64, family domain.Family, ip *string, subnetID *int64, leaseTime int64, timestamp int64) error {
	if interfaceID == 0 {
		return fmt.Errorf("assignment interface ID is required: %w", ErrInvalidEntity)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ip_assignments
			(interface_id, subnet_id, ip, family, alloc_type, lease_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'discovered', ?, ?, ?)
		ON CONFLICT (interface_id, family) WHERE alloc_type = 'discovered'
		DO UPDATE SET
			subnet_id = excluded.subnet_id,
			ip = excluded.ip,
			lease_time = excluded.lease_time,
			updated_at = excluded.updated_at`,
		interfaceID, subnetID, ip, family, leaseTime, timestamp, timestamp)
	if err != nil {
		return fmt.Errorf("failed to upsert discovered assignment: %w", err)
	}
	return nil
}

// FindDiscovered finds the discovered assignment for an (interface, family) pair
func (r *assignmentRepositoryImpl) FindDiscovered(ctx context.Context, interfaceID int64, family domain.Family) (domain.IPAssignment, error) {
	var a domain.IPAssignment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, interface_id, subnet_id, ip, family, alloc_type, lease_time, created_at, updated_at
		FROM ip_assignments
		WHERE interface_id = ? AND family = ? AND alloc_type = 'discovered'`,
		interfaceID, family).Scan(
		&a.ID, &a.InterfaceID, &a.SubnetID, &a.IP, &a.Family, &a.AllocType,
		&a.LeaseTime, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.IPAssignment{}, ErrNotFound
		}
		return domain.IPAssignment{}, fmt.Errorf("failed to find discovered assignment: %w", err)
	}
	return a, nil
}

// FindByInterfaceID finds all assignments for an interface
func (r *assignmentRepositoryImpl) FindByInterfaceID(ctx context.Context, interfaceID int64) ([]domain.IPAssignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, interface_id, subnet_id, ip, family, alloc_type, lease_time, created_at, updated_at
		FROM ip_assignments
		WHERE interface_id = ?
		ORDER BY family, alloc_type, id`, interfaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find assignments for interface: %w", err)
	}
	defer rows.Close()

	var assignments []domain.IPAssignment
	for rows.Next() {
		var a domain.IPAssignment
		err := rows.Scan(
			&a.ID, &a.InterfaceID, &a.SubnetID, &a.IP, &a.Family, &a.AllocType,
			&a.LeaseTime, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// HostnameIPMapping returns the hostname -> IP mapping for a node group
func (r *assignmentRepositoryImpl) HostnameIPMapping(ctx context.Context, nodeGroupID int64) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.hostname, a.ip
		FROM interfaces i
		JOIN ip_assignments a ON a.interface_id = i.id
		WHERE i.node_group_id = ?
		  AND i.hostname != ''
		  AND a.ip IS NOT NULL
		ORDER BY i.hostname, a.id`, nodeGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to build hostname IP mapping: %w", err)
	}
	defer rows.Close()

	mapping := make(map[string]string)
	for rows.Next() {
		var hostname, ip string
		if err := rows.Scan(&hostname, &ip); err != nil {
			return nil, fmt.Errorf("failed to scan hostname mapping: %w", err)
		}
		// First assignment wins; hostnames are unique per node group.
		if _, ok := mapping[hostname]; !ok {
			mapping[hostname] = ip
		}
	}
	return mapping, rows.Err()
}
