package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sfeole/maas/internal/domain"
)

// NodeGroupRepository defines domain-specific operations for node groups
type NodeGroupRepository interface {
	Repository[domain.NodeGroup, int64]
	FindByName(ctx context.Context, name string) ([]domain.NodeGroup, error)
	FindInterfaces(ctx context.Context, nodeGroupID int64) ([]domain.NodeGroupInterface, error)
	SaveInterface(ctx context.Context, iface domain.NodeGroupInterface) (domain.NodeGroupInterface, error)
	// DNSManagedByName returns the enabled node groups with at least one
	// dhcp-and-dns interface whose name matches any of the given names.
	DNSManagedByName(ctx context.Context, names []string) ([]domain.NodeGroup, error)
}

// nodeGroupRepositoryImpl implements NodeGroupRepository
type nodeGroupRepositoryImpl struct {
	db *sql.DB
}

// NewNodeGroupRepository creates a new node group repository
func NewNodeGroupRepository(db *sql.DB) NodeGroupRepository {
	return &nodeGroupRepositoryImpl{
		db: db,
	}
}

// Save creates or updates a node group
func (r *nodeGroupRepositoryImpl) Save(ctx context.Context, group domain.NodeGroup) (domain.NodeGroup, error) {
	if group.Name == "" {
		return domain.NodeGroup{}, fmt.Errorf("node group name is required: %w", ErrInvalidEntity)
	}
	if group.Status == "" {
		group.Status = domain.NodeGroupEnabled
	}

	if group.ID == 0 {
		result, err := r.db.ExecContext(ctx, `
			INSERT INTO node_groups (name, status, maas_url)
			VALUES (?, ?, ?)`,
			group.Name, group.Status, group.MAASURL)
		if err != nil {
			return domain.NodeGroup{}, fmt.Errorf("failed to create node group: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.NodeGroup{}, fmt.Errorf("failed to get node group ID: %w", err)
		}
		group.ID = id
		return group, nil
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE node_groups
		SET name = ?, status = ?, maas_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		group.Name, group.Status, group.MAASURL, group.ID)
	if err != nil {
		return domain.NodeGroup{}, fmt.Errorf("failed to update node group: %w", err)
	}
	return group, nil
}

// FindByID finds a node group by ID
func (r *nodeGroupRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.NodeGroup, error) {
	var group domain.NodeGroup
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, status, maas_url
		FROM node_groups WHERE id = ?`, id).Scan(
		&group.ID, &group.Name, &group.Status, &group.MAASURL)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.NodeGroup{}, ErrNotFound
		}
		return domain.NodeGroup{}, fmt.Errorf("failed to find node group: %w", err)
	}
	return group, nil
}

// FindAll finds all node groups
func (r *nodeGroupRepositoryImpl) FindAll(ctx context.Context) ([]domain.NodeGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, maas_url
		FROM node_groups ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to find node groups: %w", err)
	}
	defer rows.Close()

	return scanNodeGroups(rows)
}

// DeleteByID deletes a node group by ID
func (r *nodeGroupRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM node_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete node group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByID checks if a node group exists by ID
func (r *nodeGroupRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM node_groups WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check node group existence: %w", err)
	}
	return count > 0, nil
}

// FindByName finds all node groups sharing a name. Multiple clusters may share
// one DNS domain, so this returns a slice rather than a single group.
func (r *nodeGroupRepositoryImpl) FindByName(ctx context.Context, name string) ([]domain.NodeGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, maas_url
		FROM node_groups WHERE name = ? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find node groups by name: %w", err)
	}
	defer rows.Close()

	return scanNodeGroups(rows)
}

// FindInterfaces finds all interfaces belonging to a node group
func (r *nodeGroupRepositoryImpl) FindInterfaces(ctx context.Context, nodeGroupID int64) ([]domain.NodeGroupInterface, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, node_group_id, name, network, management,
		       ip_range_low, ip_range_high, static_range_low, static_range_high
		FROM node_group_interfaces
		WHERE node_group_id = ?
		ORDER BY network`, nodeGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find node group interfaces: %w", err)
	}
	defer rows.Close()

	var ifaces []domain.NodeGroupInterface
	for rows.Next() {
		var iface domain.NodeGroupInterface
		err := rows.Scan(
			&iface.ID, &iface.NodeGroupID, &iface.Name, &iface.Network, &iface.Management,
			&iface.IPRangeLow, &iface.IPRangeHigh, &iface.StaticRangeLow, &iface.StaticRangeHigh)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node group interface: %w", err)
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces, rows.Err()
}

// SaveInterface creates or updates a node group interface
func (r *nodeGroupRepositoryImpl) SaveInterface(ctx context.Context, iface domain.NodeGroupInterface) (domain.NodeGroupInterface, error) {
	if iface.NodeGroupID == 0 {
		return domain.NodeGroupInterface{}, fmt.Errorf("interface node group ID is required: %w", ErrInvalidEntity)
	}
	if iface.Network == "" {
		return domain.NodeGroupInterface{}, fmt.Errorf("interface network is required: %w", ErrInvalidEntity)
	}
	if iface.Management == "" {
		iface.Management = domain.ManagementUnmanaged
	}

	if iface.ID == 0 {
		result, err := r.db.ExecContext(ctx, `
			INSERT INTO node_group_interfaces
				(node_group_id, name, network, management,
				 ip_range_low, ip_range_high, static_range_low, static_range_high)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			iface.NodeGroupID, iface.Name, iface.Network, iface.Management,
			iface.IPRangeLow, iface.IPRangeHigh, iface.StaticRangeLow, iface.StaticRangeHigh)
		if err != nil {
			return domain.NodeGroupInterface{}, fmt.Errorf("failed to create node group interface: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.NodeGroupInterface{}, fmt.Errorf("failed to get interface ID: %w", err)
		}
		iface.ID = id
		return iface, nil
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE node_group_interfaces
		SET node_group_id = ?, name = ?, network = ?, management = ?,
		    ip_range_low = ?, ip_range_high = ?, static_range_low = ?, static_range_high = ?
		WHERE id = ?`,
		iface.NodeGroupID, iface.Name, iface.Network, iface.Management,
		iface.IPRangeLow, iface.IPRangeHigh, iface.StaticRangeLow, iface.StaticRangeHigh,
		iface.ID)
	if err != nil {
		return domain.NodeGroupInterface{}, fmt.Errorf("failed to update node group interface: %w", err)
	}
	return iface, nil
}

// DNSManagedByName returns the DNS-managed node groups for the given names
func (r *nodeGroupRepositoryImpl) DNSManagedByName(ctx context.Context, names []string) ([]domain.NodeGroup, error) {
	if len(names) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(names)-1) + "?"
	args := make([]any, 0, len(names))
	for _, name := range names {
		args = append(args, name)
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT g.id, g.name, g.status, g.maas_url
		FROM node_groups g
		JOIN node_group_interfaces i ON i.node_group_id = g.id
		WHERE g.status = 'enabled'
		  AND i.management = 'dhcp-and-dns'
		  AND g.name IN (%s)
		ORDER BY g.name, g.id`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find DNS-managed node groups: %w", err)
	}
	defer rows.Close()

	return scanNodeGroups(rows)
}

func scanNodeGroups(rows *sql.Rows) ([]domain.NodeGroup, error) {
	var groups []domain.NodeGroup
	for rows.Next() {
		var group domain.NodeGroup
		if err := rows.Scan(&group.ID, &group.Name, &group.Status, &group.MAASURL); err != nil {
			return nil, fmt.Errorf("failed to scan node group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}
