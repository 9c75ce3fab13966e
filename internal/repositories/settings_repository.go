package repositories

import (
	"database/sql"
	"fmt"

	"tgmarket/internal/models"
)

type SettingsRepository struct {
	DB *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{DB: db}
}

func (r *SettingsRepository) Get(key string) (*models.Setting, error) {
	const q = `SELECT id, setting_key, setting_value, updated_at FROM settings WHERE setting_key = $1`
	var s models.Setting
	if err := r.DB.QueryRow(q, key).Scan(&s.ID, &s.Key, &s.Value, &s.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepository) Upsert(key, value string) error {
	const q = `
		INSERT INTO settings (setting_key, setting_value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = $2, updated_at = now()
	`
	if _, err := r.DB.Exec(q, key, value); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

func (r *SettingsRepository) List() ([]*models.Setting, error) {
	const q = `SELECT id, setting_key, setting_value, updated_at FROM settings ORDER BY setting_key`
	rows, err := r.DB.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []*models.Setting
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.ID, &s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, &s)
	}
	return settings, rows.Err()
}
