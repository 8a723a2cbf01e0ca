// internal/config/settings.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Settings is the small per-user preference blob the service persists
// between runs. Kept separate from the service configuration: the user can
// change these at runtime through the API.
type Settings struct {
	ExportFormat string `mapstructure:"export_format" json:"export_format"`
	StatusFilter string `mapstructure:"status_filter" json:"status_filter"`
	LastQuery    string `mapstructure:"last_query" json:"last_query"`
}

// DefaultSettings returns the settings used when no blob exists yet.
func DefaultSettings() Settings {
	return Settings{
		ExportFormat: "csv",
		StatusFilter: "all",
	}
}

// SettingsStore reads and writes the user settings file. It owns its own
// viper instance so runtime saves never disturb the service configuration.
type SettingsStore struct {
	path string
	v    *viper.Viper
}

// NewSettingsStore creates a store at the given path. An empty path
// resolves to the per-user default location.
func NewSettingsStore(path string) (*SettingsStore, error) {
	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user config dir: %w", err)
		}
		path = filepath.Join(base, "macmon", "settings.yaml")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("export_format", "csv")
	v.SetDefault("status_filter", "all")
	v.SetDefault("last_query", "")

	return &SettingsStore{path: path, v: v}, nil
}

// Path returns the backing file path.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load reads the settings blob. A missing or unreadable file yields the
// defaults; loading never fails.
func (s *SettingsStore) Load() Settings {
	settings := DefaultSettings()

	if err := s.v.ReadInConfig(); err != nil {
		return settings
	}
	if err := s.v.Unmarshal(&settings); err != nil {
		return DefaultSettings()
	}
	return settings
}

// Save persists the settings blob, creating the directory if needed.
func (s *SettingsStore) Save(settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	s.v.Set("export_format", settings.ExportFormat)
	s.v.Set("status_filter", settings.StatusFilter)
	s.v.Set("last_query", settings.LastQuery)

	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
