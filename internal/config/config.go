package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"cyclist-energy/internal/energy"
)

// Config represents the application configuration
type Config struct {
	Energy  EnergyConfig  `json:"energy"`
	Storage StorageConfig `json:"storage"`
	Strava  StravaConfig  `json:"strava"`
	Display DisplayConfig `json:"display"`
}

// EnergyConfig holds defaults for the energy estimate
type EnergyConfig struct {
	DefaultEfficiency float64 `json:"default_efficiency"`
	DefaultPAL        float64 `json:"default_pal"`
	Formula           string  `json:"formula"`
}

// StorageConfig controls where profiles and diary entries live
type StorageConfig struct {
	DatabaseURL string `json:"database_url"` // empty uses the local SQLite file
	DataDir     string `json:"data_dir"`     // JSON export/import directory
}

// StravaConfig holds Strava API credentials (optional, ride import only)
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	EnergyUnit string `json:"energy_unit"` // "kcal" or "kJ"
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// Environment variables that override the file
const (
	EnvDatabaseURL  = "ENERGY_DATABASE_URL"
	EnvStravaID     = "STRAVA_CLIENT_ID"
	EnvStravaSecret = "STRAVA_CLIENT_SECRET"
)

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Energy: EnergyConfig{
			DefaultEfficiency: energy.DefaultEfficiency,
			DefaultPAL:        energy.DefaultPAL,
			Formula:           string(energy.FormulaTenHaaf),
		},
		Display: DisplayConfig{
			EnergyUnit: "kcal",
		},
	}
}

// Load reads the configuration from ~/.cyclist-energy/config.json and
// applies .env / environment overrides
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// A missing .env is normal
	_ = godotenv.Load()
	cfg.applyEnv()

	return &cfg, nil
}

// applyDefaults fills in missing values
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Energy.DefaultEfficiency == 0 {
		c.Energy.DefaultEfficiency = defaults.Energy.DefaultEfficiency
	}
	if c.Energy.DefaultPAL == 0 {
		c.Energy.DefaultPAL = defaults.Energy.DefaultPAL
	}
	if c.Energy.Formula == "" {
		c.Energy.Formula = defaults.Energy.Formula
	}
	if c.Display.EnergyUnit == "" {
		c.Display.EnergyUnit = defaults.Display.EnergyUnit
	}
}

// applyEnv lets environment variables override file values
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := os.Getenv(EnvStravaID); v != "" {
		c.Strava.ClientID = v
	}
	if v := os.Getenv(EnvStravaSecret); v != "" {
		c.Strava.ClientSecret = v
	}
}

// Save writes the configuration to ~/.cyclist-energy/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes the configuration to path
func SaveFile(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates a default config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	return Save(&example)
}

// Validate checks that configured values are usable
func (c *Config) Validate() error {
	if eff := c.Energy.DefaultEfficiency; eff <= 0 || eff >= 1 {
		return fmt.Errorf("energy.default_efficiency must be between 0 and 1, got %v", eff)
	}
	if !energy.ValidPAL(c.Energy.DefaultPAL) {
		return fmt.Errorf("energy.default_pal must be one of 1.3, 1.35, 1.4, 1.45, 1.5, 1.6, 1.7, got %v", c.Energy.DefaultPAL)
	}
	if _, err := energy.ParseFormula(c.Energy.Formula); err != nil {
		return fmt.Errorf("energy.formula: %w", err)
	}
	if c.Display.EnergyUnit != "" && c.Display.EnergyUnit != "kcal" && c.Display.EnergyUnit != "kJ" {
		return fmt.Errorf("display.energy_unit must be \"kcal\" or \"kJ\", got %q", c.Display.EnergyUnit)
	}
	return nil
}

// HasStrava reports whether Strava credentials are configured
func (c *Config) HasStrava() bool {
	return c.Strava.ClientID != "" && c.Strava.ClientSecret != ""
}

// Formula returns the parsed RMR formula, falling back to Ten Haaf
func (c *Config) Formula() energy.Formula {
	f, err := energy.ParseFormula(c.Energy.Formula)
	if err != nil {
		return energy.FormulaTenHaaf
	}
	return f
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".cyclist-energy"), nil
}

// DataDir returns the JSON export directory, defaulting to <config dir>/data
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}
