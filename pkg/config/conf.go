package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/mchmarny/rimecast/pkg/score"
	"github.com/mchmarny/rimecast/pkg/terrain"
	"github.com/mchmarny/rimecast/pkg/weather"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the name of the config file in the app home dir.
	FileName = "config.yaml"

	// EnvPrefix prefixes the environment overrides, e.g. RIMECAST_PAST_DAYS.
	EnvPrefix = "rimecast"

	dirMode  = 0700
	fileMode = 0600
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the app config persisted as YAML.
type Config struct {
	Locations []terrain.Location `yaml:"locations" validate:"required,min=1,dive"`
	Fetch     Fetch              `yaml:"fetch"`
	Scoring   score.Config       `yaml:"scoring"`
	Map       Map                `yaml:"map"`
}

// Fetch controls how weather and terrain data is retrieved.
type Fetch struct {
	WeatherURL    string        `yaml:"weather_url" envconfig:"weather_url" validate:"required,url"`
	ElevationURL  string        `yaml:"elevation_url" envconfig:"elevation_url" validate:"required,url"`
	PastDays      int           `yaml:"past_days" envconfig:"past_days" validate:"gte=0,lte=92"`
	ForecastDays  int           `yaml:"forecast_days" envconfig:"forecast_days" validate:"gte=0,lte=16"`
	IntervalHours int           `yaml:"interval_hours" envconfig:"interval_hours" validate:"gte=1,lte=24"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"timeout" validate:"gt=0"`
	Workers       int           `yaml:"workers" envconfig:"workers" validate:"gte=1,lte=32"`
	Retries       int           `yaml:"retries" envconfig:"retries" validate:"gte=0,lte=10"`
}

// Map controls the rendered map view.
type Map struct {
	Title     string  `yaml:"title"`
	CenterLat float64 `yaml:"center_lat" validate:"gte=-90,lte=90"`
	CenterLon float64 `yaml:"center_lon" validate:"gte=-180,lte=180"`
	Zoom      int     `yaml:"zoom" validate:"gte=1,lte=18"`
}

// Default returns the config written on first run.
func Default() *Config {
	return &Config{
		Locations: terrain.DefaultLocations(),
		Fetch: Fetch{
			WeatherURL:    weather.ForecastURL,
			ElevationURL:  terrain.ElevationURL,
			PastDays:      7,
			ForecastDays:  1,
			IntervalHours: 1,
			Timeout:       30 * time.Second,
			Workers:       4,
			Retries:       3,
		},
		Scoring: score.DefaultConfig(),
		Map: Map{
			Title:     "Rime & Verglas Formation",
			CenterLat: 56.9,
			CenterLon: -4.5,
			Zoom:      8,
		},
	}
}

// Validate checks every section of the config.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := terrain.ValidateAll(c.Locations); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes c to the config file in dirPath.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, FileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one with the
// defaults. Environment overrides are applied after reading and the result is
// validated.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return Read(path)
}

// Read loads the config file at path, applies environment overrides and
// validates the result. Sections missing from the file keep their defaults.
func Read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := Default()
	c.Locations = nil
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}
	if len(c.Locations) == 0 {
		c.Locations = terrain.DefaultLocations()
	}

	if err := envconfig.Process(EnvPrefix, &c.Fetch); err != nil {
		return nil, fmt.Errorf("error applying environment overrides: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// GetOrCreateHomeDir returns the app directory in the home directory of the
// current user. The created flag is set when the directory did not exist.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
