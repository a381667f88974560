package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SettingsRepository defines operations for named runtime settings
type SettingsRepository interface {
	// Get returns the value of a setting, or ErrNotFound if it is unset.
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}

// settingsRepositoryImpl implements SettingsRepository
type settingsRepositoryImpl struct {
	db *sql.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepositoryImpl{
		db: db,
	}
}

// Get returns a setting value by name
func (r *settingsRepositoryImpl) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE name = ?`, name).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get setting %q: %w", name, err)
	}
	return value, nil
}

// Set stores a setting value, replacing any existing value
func (r *settingsRepositoryImpl) Set(ctx context.Context, name, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value`, name, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", name, err)
	}
	return nil
}

// Delete removes a setting by name
func (r *settingsRepositoryImpl) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", name, err)
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
