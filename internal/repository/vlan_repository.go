package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sfeole/maas/internal/domain"
)

// VLANRepository defines operations for VLANs
type VLANRepository interface {
	Save(ctx context.Context, vlan domain.VLAN) (domain.VLAN, error)
	FindByID(ctx context.Context, id int64) (domain.VLAN, error)
	FindAll(ctx context.Context) ([]domain.VLAN, error)
}

// vlanRepositoryImpl implements VLANRepository
type vlanRepositoryImpl struct {
	db *sql.DB
}

// NewVLANRepository creates a new VLAN repository
func NewVLANRepository(db *sql.DB) VLANRepository {
	return &vlanRepositoryImpl{
		db: db,
	}
}

// Save creates or updates a VLAN
func (r *vlanRepositoryImpl) Save(ctx context.Context, vlan domain.VLAN) (domain.VLAN, error) {
	if vlan.ID == 0 {
		result, err := r.db.ExecContext(ctx,
			`INSERT INTO vlans (name, vid) VALUES (?, ?)`, vlan.Name, vlan.VID)
		if err != nil {
			return domain.VLAN{}, fmt.Errorf("failed to create VLAN: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return domain.VLAN{}, fmt.Errorf("failed to get VLAN ID: %w", err)
		}
		vlan.ID = id
		return vlan, nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE vlans SET name = ?, vid = ? WHERE id = ?`, vlan.Name, vlan.VID, vlan.ID)
	if err != nil {
		return domain.VLAN{}, fmt.Errorf("failed to update VLAN: %w", err)
	}
	return vlan, nil
}

// FindByID finds a VLAN by ID
func (r *vlanRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.VLAN, error) {
	var vlan domain.VLAN
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, vid FROM vlans WHERE id = ?`, id).Scan(&vlan.ID, &vlan.Name, &vlan.VID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.VLAN{}, ErrNotFound
		}
		return domain.VLAN{}, fmt.Errorf("failed to find VLAN: %w", err)
	}
	return vlan, nil
}

// FindAll finds all VLANs
func (r *vlanRepositoryImpl) FindAll(ctx context.Context) ([]domain.VLAN, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, vid FROM vlans ORDER BY vid, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to find VLANs: %w", err)
	}
	defer rows.Close()

	var vlans []domain.VLAN
	for rows.Next() {
		var vlan domain.VLAN
		if err := rows.Scan(&vlan.ID, &vlan.Name, &vlan.VID); err != nil {
			return nil, fmt.Errorf("failed to scan VLAN: %w", err)
		}
		vlans = append(vlans, vlan)
	}
	return vlans, rows.Err()
}
