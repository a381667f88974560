package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/netip"

	"github.com/sfeole/maas/internal/domain"
)

// SubnetRepository defines domain-specific operations for subnets
type SubnetRepository interface {
	Repository[domain.Subnet, int64]
	FindByCIDR(ctx context.Context, cidr string) (domain.Subnet, error)
	// SubnetContaining returns the subnet whose CIDR contains the given IP.
	// Returns ErrNotFound if no subnet contains it.
	SubnetContaining(ctx context.Context, ip netip.Addr) (domain.Subnet, error)
}

// subnetRepositoryImpl implements SubnetRepository
type subnetRepositoryImpl struct {
	db *sql.DB
}

// NewSubnetRepository creates a new subnet repository
func NewSubnetRepository(db *sql.DB) SubnetRepository {
	return &subnetRepositoryImpl{
		db: db,
	}
}

// Save creates or updates a subnet
func (r *subnetRepositoryImpl) Save(ctx context.Context, subnet domain.Subnet) (domain.Subnet, error) {
	if subnet.CIDR == "" {
		return domain.Subnet{}, fmt.Errorf("subnet CIDR is required: %w", ErrInvalidEntity)
	}
	if subnet.VLANID == 0 {
		return domain.Subnet{}, fmt.Errorf("subnet VLAN ID is required: %w", ErrInvalidEntity)
	}
	if _, err := netip.ParsePrefix(subnet.CIDR); err != nil {
		return domain.Subnet{}, fmt.Errorf("invalid subnet CIDR %q: %w", subnet.CIDR, ErrInvalidEntity)
	}

	if subnet.ID == 0 {
		result, err := r.db.ExecContext(ctx, `
			INSERT INTO subnets (name, cidr, vlan_id, gateway_ip, dns_servers)
			VALUES (?, ?, ?, ?, ?)`,
			subnet.Name, subnet.CIDR, subnet.VLANID, subnet.GatewayIP, subnet.DNSServers)
		if err != nil {
			return domain.Subnet{}, fmt.Errorf("failed to create subnet: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.Subnet{}, fmt.Errorf("failed to get subnet ID: %w", err)
		}
		subnet.ID = id
		return subnet, nil
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE subnets
		SET name = ?, cidr = ?, vlan_id = ?, gateway_ip = ?, dns_servers = ?
		WHERE id = ?`,
		subnet.Name, subnet.CIDR, subnet.VLANID, subnet.GatewayIP, subnet.DNSServers, subnet.ID)
	if err != nil {
		return domain.Subnet{}, fmt.Errorf("failed to update subnet: %w", err)
	}
	return subnet, nil
}

// FindByID finds a subnet by ID
func (r *subnetRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Subnet, error) {
	var subnet domain.Subnet
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, cidr, vlan_id, gateway_ip, dns_servers
		FROM subnets WHERE id = ?`, id).Scan(
		&subnet.ID, &subnet.Name, &subnet.CIDR, &subnet.VLANID,
		&subnet.GatewayIP, &subnet.DNSServers)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Subnet{}, ErrNotFound
		}
		return domain.Subnet{}, fmt.Errorf("failed to find subnet: %w", err)
	}
	return subnet, nil
}

// FindAll finds all subnets
func (r *subnetRepositoryImpl) FindAll(ctx context.Context) ([]domain.Subnet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, cidr, vlan_id, gateway_ip, dns_servers
		FROM subnets ORDER BY cidr`)
	if err != nil {
		return nil, fmt.Errorf("failed to find subnets: %w", err)
	}
	defer rows.Close()

	var subnets []domain.Subnet
	for rows.Next() {
		var subnet domain.Subnet
		err := rows.Scan(
			&subnet.ID, &subnet.Name, &subnet.CIDR, &subnet.VLANID,
			&subnet.GatewayIP, &subnet.DNSServers)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subnet: %w", err)
		}
		subnets = append(subnets, subnet)
	}
	return subnets, rows.Err()
}

// DeleteByID deletes a subnet by ID
func (r *subnetRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subnets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subnet: %w", err)
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

// ExistsByID checks if a subnet exists by ID
func (r *subnetRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subnets WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check subnet existence: %w", err)
	}
	return count > 0, nil
}

// FindByCIDR finds a subnet by its exact CIDR
func (r *subnetRepositoryImpl) FindByCIDR(ctx context.Context, cidr string) (domain.Subnet, error) {
	var subnet domain.Subnet
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, cidr, vlan_id, gateway_ip, dns_servers
		FROM subnets WHERE cidr = ?`, cidr).Scan(
		&subnet.ID, &subnet.Name, &subnet.CIDR, &subnet.VLANID,
		&subnet.GatewayIP, &subnet.DNSServers)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Subnet{}, ErrNotFound
		}
		return domain.Subnet{}, fmt.Errorf("failed to find subnet by CIDR: %w", err)
	}
	return subnet, nil
}

// SubnetContaining finds the subnet whose address block contains ip.
// Containment cannot be expressed in sqlite, so candidates are checked here.
func (r *subnetRepositoryImpl) SubnetContaining(ctx context.Context, ip netip.Addr) (domain.Subnet, error) {
	subnets, err := r.FindAll(ctx)
	if err != nil {
		return domain.Subnet{}, err
	}

	for _, subnet := range subnets {
		prefix, err := netip.ParsePrefix(subnet.CIDR)
		if err != nil {
			continue
		}
		if prefix.Contains(ip) {
			return subnet, nil
		}
	}
	return domain.Subnet{}, ErrNotFound
}
