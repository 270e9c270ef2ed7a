package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"selectproxy/logger"
	"selectproxy/models"
)

// GetSetting retrieves a specific setting value from the app_settings table.
// A missing key yields an empty string, not an error.
func GetSetting(key string) (string, error) {
	var value string
	err := DB.QueryRow("SELECT value FROM app_settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get setting '%s': %w", key, err)
	}
	return value, nil
}

// SetSetting saves or updates a specific setting value in the app_settings table.
func SetSetting(key, value string) error {
	stmt, err := DB.Prepare("INSERT OR REPLACE INTO app_settings (key, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare set setting statement for key '%s': %w", key, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(key, value)
	if err != nil {
		return fmt.Errorf("failed to execute set setting for key '%s': %w", key, err)
	}
	return nil
}

// RemoveSetting deletes a setting key. Removing an absent key is a no-op.
func RemoveSetting(key string) error {
	_, err := DB.Exec("DELETE FROM app_settings WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to remove setting '%s': %w", key, err)
	}
	return nil
}

// GetGeneralSettings loads the singleton GeneralSettings, falling back to
// defaults when nothing has been saved yet.
func GetGeneralSettings() (models.GeneralSettings, error) {
	settings := models.DefaultGeneralSettings()

	raw, err := GetSetting(models.GeneralSettingsKey)
	if err != nil {
		return settings, fmt.Errorf("failed to get general settings: %w", err)
	}
	if raw == "" {
		return settings, nil
	}

	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		logger.Error("GetGeneralSettings: Error unmarshalling settings JSON: %v. Stored value: %s", err, raw)
		return models.DefaultGeneralSettings(), fmt.Errorf("failed to unmarshal general settings: %w", err)
	}
	return settings, nil
}

// SetGeneralSettings overwrites the stored settings wholesale.
func SetGeneralSettings(settings models.GeneralSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal general settings to JSON: %w", err)
	}
	if err := SetSetting(models.GeneralSettingsKey, string(raw)); err != nil {
		return fmt.Errorf("failed to save general settings: %w", err)
	}
	return nil
}
