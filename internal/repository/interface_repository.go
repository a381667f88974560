package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sfeole/maas/internal/domain"
)

// InterfaceRepository defines operations for host interfaces
type InterfaceRepository interface {
	Save(ctx context.Context, iface domain.Interface) (domain.Interface, error)
	FindByID(ctx context.Context, id int64) (domain.Interface, error)
	FindByMAC(ctx context.Context, mac string) (domain.Interface, error)
	FindByNodeGroupID(ctx context.Context, nodeGroupID int64) ([]domain.Interface, error)
	// CreateUnknown registers an interface for a MAC address no known
	// hardware owns, bound to the given VLAN.
	CreateUnknown(ctx context.Context, mac string, vlanID int64, hostname string) (domain.Interface, error)
	SetHostname(ctx context.Context, id int64, hostname string) error
}

// interfaceRepositoryImpl implements InterfaceRepository
type interfaceRepositoryImpl struct {
	db *sql.DB
}

// NewInterfaceRepository creates a new interface repository
func NewInterfaceRepository(db *sql.DB) InterfaceRepository {
	return &interfaceRepositoryImpl{
		db: db,
	}
}

// Save creates or updates an interface
func (r *interfaceRepositoryImpl) Save(ctx context.Context, iface domain.Interface) (domain.Interface, error) {
	if iface.MACAddress == "" {
		return domain.Interface{}, fmt.Errorf("interface MAC address is required: %w", ErrInvalidEntity)
	}
	if iface.VLANID == 0 {
		return domain.Interface{}, fmt.Errorf("interface VLAN ID is required: %w", ErrInvalidEntity)
	}
	if iface.Type == "" {
		iface.Type = domain.InterfacePhysical
	}

	if iface.ID == 0 {
		result, err := r.db.ExecContext(ctx, `
			INSERT INTO interfaces (type, mac_address, name, hostname, node_group_id, vlan_id)
			VALUES (?, ?, ?, ?, ?, ?)`,
			iface.Type, iface.MACAddress, iface.Name, iface.Hostname, iface.NodeGroupID, iface.VLANID)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return domain.Interface{}, fmt.Errorf("interface with MAC %s: %w", iface.MACAddress, ErrDuplicate)
			}
			return domain.Interface{}, fmt.Errorf("failed to create interface: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.Interface{}, fmt.Errorf("failed to get interface ID: %w", err)
		}
		iface.ID = id
		return iface, nil
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE interfaces
		SET type = ?, mac_address = ?, name = ?, hostname = ?, node_group_id = ?, vlan_id = ?
		WHERE id = ?`,
		iface.Type, iface.MACAddress, iface.Name, iface.Hostname, iface.NodeGroupID, iface.VLANID,
		iface.ID)
	if err != nil {
		return domain.Interface{}, fmt.Errorf("failed to update interface: %w", err)
	}
	return iface, nil
}

// FindByID finds an interface by ID
func (r *interfaceRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Interface, error) {
	return r.findOne(ctx, `WHERE id = ?`, id)
}

// FindByMAC finds an interface by its MAC address
func (r *interfaceRepositoryImpl) FindByMAC(ctx context.Context, mac string) (domain.Interface, error) {
	return r.findOne(ctx, `WHERE mac_address = ?`, mac)
}

func (r *interfaceRepositoryImpl) findOne(ctx context.Context, where string, arg any) (domain.Interface, error) {
	var iface domain.Interface
	err := r.db.QueryRowContext(ctx, `
		SELECT id, type, mac_address, name, hostname, node_group_id, vlan_id
		FROM interfaces `+where, arg).Scan(
		&iface.ID, &iface.Type, &iface.MACAddress, &iface.Name, &iface.Hostname,
		&iface.NodeGroupID, &iface.VLANID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Interface{}, ErrNotFound
		}
		return domain.Interface{}, fmt.Errorf("failed to find interface: %w", err)
	}
	return iface, nil
}

// FindByNodeGroupID finds all interfaces registered to a node group
func (r *interfaceRepositoryImpl) FindByNodeGroupID(ctx context.Context, nodeGroupID int64) ([]domain.Interface, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, mac_address, name, hostname, node_group_id, vlan_id
		FROM interfaces WHERE node_group_id = ? ORDER BY hostname, id`, nodeGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find interfaces for node group: %w", err)
	}
	defer rows.Close()

	var ifaces []domain.Interface
	for rows.Next() {
		var iface domain.Interface
		err := rows.Scan(
			&iface.ID, &iface.Type, &iface.MACAddress, &iface.Name, &iface.Hostname,
			&iface.NodeGroupID, &iface.VLANID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interface: %w", err)
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces, rows.Err()
}

// CreateUnknown creates an unknown interface for an unregistered MAC
func (r *interfaceRepositoryImpl) CreateUnknown(ctx context.Context, mac string, vlanID int64, hostname string) (domain.Interface, error) {
	return r.Save(ctx, domain.Interface{
		Type:       domain.InterfaceUnknown,
		MACAddress: mac,
		Name:       "unknown-" + strings.ReplaceAll(mac, ":", "-"),
		Hostname:   hostname,
		VLANID:     vlanID,
	})
}

// SetHostname updates the display name of an interface
func (r *interfaceRepositoryImpl) SetHostname(ctx context.Context, id int64, hostname string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE interfaces SET hostname = ? WHERE id = ?`, hostname, id)
	if err != nil {
		return fmt.Errorf("failed to set interface hostname: %w", err)
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
