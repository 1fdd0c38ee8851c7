package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DatabaseConfig holds settings for the local SQLite store.
type DatabaseConfig struct {
	// Path is the location of the database file.
	Path string `mapstructure:"path" yaml:"path"`
}

// IdentityConfig holds settings for the remote identity provider.
type IdentityConfig struct {
	// APIKey is the public web API key for the identity project.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// Endpoint is the base URL of the account API.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// TokenEndpoint is the base URL of the token exchange API.
	TokenEndpoint string `mapstructure:"token_endpoint" yaml:"token_endpoint"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Identity IdentityConfig `mapstructure:"identity" yaml:"identity"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/clientele/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "clientele", "config.yaml")
}

// defaultDatabasePath places the database next to the config file.
func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "clientele.db")
	}
	return filepath.Join(home, ".config", "clientele", "clientele.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Path: defaultDatabasePath(),
		},
		Identity: IdentityConfig{
			Endpoint:      "https://identitytoolkit.googleapis.com/v1",
			TokenEndpoint: "https://securetoken.googleapis.com/v1",
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("database.path", defaultDatabasePath())
	v.SetDefault("identity.endpoint", "https://identitytoolkit.googleapis.com/v1")
	v.SetDefault("identity.token_endpoint", "https://securetoken.googleapis.com/v1")
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("identity", cfg.Identity)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
