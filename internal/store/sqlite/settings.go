package sqlite

import (
	"context"
	"fmt"

	"github.com/MrWong99/mouthpiece/internal/store"
)

// GetSetting returns the value stored under key.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return "", fmt.Errorf("sqlite: get setting %q: %w", key, notFound(err))
	}
	return v, nil
}

// SetSetting creates or replaces the value stored under key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if err := store.ValidateSettingKey(key); err != nil {
		return fmt.Errorf("sqlite: set setting: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("sqlite: set setting %q: %w", key, err)
	}
	return nil
}
