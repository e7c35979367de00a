package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pasar/internal/settings"
)

// Settings reads the global key/value settings table. It implements
// settings.Store; the provider layers defaults and caching on top.
type Settings struct {
	DB DB
}

const getSettingSQL = `SELECT value FROM global_settings WHERE key = $1`

// Get returns the raw value for key, or settings.ErrNotFound when absent.
func (r Settings) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.DB.QueryRow(ctx, getSettingSQL, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", settings.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

const setSettingSQL = `INSERT INTO global_settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

// Set upserts a setting value. Callers invalidate the provider cache and
// publish settings.updated afterwards.
func (r Settings) Set(ctx context.Context, key, value string) error {
	_, err := r.DB.Exec(ctx, setSettingSQL, key, value)
	return err
}
