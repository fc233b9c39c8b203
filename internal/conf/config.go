// Package conf loads and validates the application configuration.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Settings contains all runtime configuration for the application.
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug logging

	Node    NodeSettings    `yaml:"node"`
	Sync    SyncSettings    `yaml:"sync"`
	Weather WeatherSettings `yaml:"weather"`
	Import  ImportSettings  `yaml:"import"`
	Output  OutputSettings  `yaml:"output"`
}

// NodeSettings identifies the operator running this node.
type NodeSettings struct {
	Callsign  string  `yaml:"callsign"`  // operator callsign, used in detail URLs and logs
	Latitude  float64 `yaml:"latitude"`  // home coordinates, default for forecast lookups
	Longitude float64 `yaml:"longitude"`
}

// SyncSettings controls the park dataset synchronization policy.
type SyncSettings struct {
	Endpoint      string `yaml:"endpoint"`      // base URL of the park dataset API
	Program       string `yaml:"program"`       // program prefix to fetch, e.g. "K" or "ALL"
	Region        string `yaml:"region"`        // optional region filter applied during sync
	Timeout       int    `yaml:"timeout"`       // bulk fetch timeout in seconds
	CooldownHours int    `yaml:"cooldownhours"` // minimum hours between automatic resyncs
	StalenessDays int    `yaml:"stalenessdays"` // age in days after which data is advised stale
}

// WeatherSettings controls the forecast provider and cache policy.
type WeatherSettings struct {
	Endpoint     string `yaml:"endpoint"`     // forecast API base URL
	Units        string `yaml:"units"`        // metric or imperial
	CacheTTL     int    `yaml:"cachettl"`     // forecast cache TTL in minutes
	ForecastDays int    `yaml:"forecastdays"` // days requested per remote call
	Timeout      int    `yaml:"timeout"`      // request timeout in seconds
}

// ImportSettings carries defaults for the bulk CSV importer.
type ImportSettings struct {
	BatchSize int  `yaml:"batchsize"` // records per transactional batch
	Strict    bool `yaml:"strict"`    // abort on first validation error
	Verbose   bool `yaml:"verbose"`   // include suppressed soft warnings in output
}

// OutputSettings selects and configures the storage backend.
type OutputSettings struct {
	SQLite SQLiteSettings `yaml:"sqlite"`
	MySQL  MySQLSettings  `yaml:"mysql"`
}

// SQLiteSettings contains the SQLite backend configuration.
type SQLiteSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MySQLSettings contains the MySQL backend configuration.
type MySQLSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create one from the defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the current defaults to the primary config path.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
