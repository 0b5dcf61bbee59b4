// Package config loads server settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/underworld/internal/territory"
)

// Environment overrides.
const (
	EnvAdminKey  = "UNDERWORLD_ADMIN_KEY"
	EnvDB        = "UNDERWORLD_DB"
	EnvPort      = "UNDERWORLD_PORT"
	EnvRandomOrg = "RANDOM_ORG_KEY"
)

// Config is the full server configuration.
type Config struct {
	Seed         int64  `yaml:"seed"`
	DBPath       string `yaml:"db_path"`
	Port         int    `yaml:"port"`
	AdminKey     string `yaml:"admin_key"`
	RandomOrgKey string `yaml:"random_org_key"`
	CatalogPath  string `yaml:"catalog_path"`

	Clock  ClockConfig  `yaml:"clock"`
	Player PlayerConfig `yaml:"player"`
	API    APIConfig    `yaml:"api"`
}

// ClockConfig paces the game loop.
type ClockConfig struct {
	Interval       time.Duration `yaml:"interval"`
	MinutesPerTick float64       `yaml:"minutes_per_tick"`
	// Speed is the starting speed multiplier; 0 starts paused, unset means 1.
	Speed *float64 `yaml:"speed"`
	// SaveEvery is the number of game hours between autosaves.
	SaveEvery int `yaml:"save_every_hours"`
}

// PlayerConfig seeds a new game.
type PlayerConfig struct {
	StartingCash  float64        `yaml:"starting_cash"`
	StartingLevel int            `yaml:"starting_level"`
	Luck          float64        `yaml:"luck"`
	Dealers       []DealerConfig `yaml:"dealers"`
}

// DealerConfig is a dealer on the starting crew.
type DealerConfig struct {
	Name  string               `yaml:"name"`
	Type  territory.DealerType `yaml:"type"`
	Level int                  `yaml:"level"`
}

// APIConfig tunes the HTTP surface.
type APIConfig struct {
	CORSOrigins    []string `yaml:"cors_origins"`
	RatePerSecond  float64  `yaml:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst"`
	StreamInterval int      `yaml:"stream_every_ticks"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// Load reads path (if non-empty), fills defaults and applies environment
// overrides.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	c.ApplyDefaults()
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	if c.DBPath == "" {
		c.DBPath = "data/underworld.db"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Clock.Interval <= 0 {
		c.Clock.Interval = time.Second
	}
	if c.Clock.MinutesPerTick <= 0 {
		c.Clock.MinutesPerTick = 1
	}
	if c.Clock.Speed == nil {
		speed := 1.0
		c.Clock.Speed = &speed
	}
	if c.Clock.SaveEvery <= 0 {
		c.Clock.SaveEvery = 6
	}
	if c.Player.StartingCash == 0 {
		c.Player.StartingCash = 5000
	}
	if c.Player.StartingLevel == 0 {
		c.Player.StartingLevel = 1
	}
	if c.API.RatePerSecond <= 0 {
		c.API.RatePerSecond = 2
	}
	if c.API.RateBurst <= 0 {
		c.API.RateBurst = 10
	}
	if c.API.StreamInterval <= 0 {
		c.API.StreamInterval = 1
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAdminKey); v != "" {
		c.AdminKey = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvRandomOrg); v != "" {
		c.RandomOrgKey = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Port = port
	}
	return nil
}

// Validate checks ranges the rest of the program relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Clock.Speed != nil && *c.Clock.Speed < 0 {
		errs = append(errs, fmt.Errorf("clock speed must not be negative"))
	}
	if c.Player.Luck < 0 || c.Player.Luck > 1 {
		errs = append(errs, fmt.Errorf("luck %.2f outside [0,1]", c.Player.Luck))
	}
	if c.Player.StartingCash < 0 {
		errs = append(errs, fmt.Errorf("starting cash must not be negative"))
	}
	for i, d := range c.Player.Dealers {
		if d.Type != territory.DealerStreet && d.Type != territory.DealerBusiness {
			errs = append(errs, fmt.Errorf("dealer %d: unknown type %q", i, d.Type))
		}
		if d.Level < 1 {
			errs = append(errs, fmt.Errorf("dealer %d: level must be at least 1", i))
		}
	}
	return errors.Join(errs...)
}
