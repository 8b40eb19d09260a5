package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Setting keys persisted by the options commands.
const (
	KeyOpenAIAPIKey     = "openai_api_key"
	KeyDefaultTone      = "default_tone"
	KeyAutoGrammarCheck = "auto_grammar_check"
	KeyShowSuggestions  = "show_suggestions"
)

// SettingKeys lists every known setting key.
var SettingKeys = []string{KeyOpenAIAPIKey, KeyDefaultTone, KeyAutoGrammarCheck, KeyShowSuggestions}

// IsSettingKey reports whether key is a known setting.
func IsSettingKey(key string) bool {
	for _, k := range SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Setting is a stored key/value pair.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// GetSetting returns the value stored under key, or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

// DeleteSetting removes key. Deleting a missing key is not an error.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// ListSettings returns all settings ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var settings []Setting
	for rows.Next() {
		var st Setting
		var updated int64
		if err := rows.Scan(&st.Key, &st.Value, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		st.UpdatedAt = time.UnixMilli(updated)
		settings = append(settings, st)
	}
	return settings, rows.Err()
}
