// Package config loads lab_post settings from an optional YAML file and the
// environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tphummel/lab_post/internal/post"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfigPath = "LAB_POST_CONFIG"
	EnvAPIToken   = "API_TOKEN"
	EnvDBPath     = "DB_PATH"
	EnvPort       = "PORT"
	EnvLogLevel   = "LOG_LEVEL"
)

// Config is the full service and machine configuration.
type Config struct {
	Computer ComputerConfig `yaml:"computer"`
	Power    PowerConfig    `yaml:"power"`
	USB      USBConfig      `yaml:"usb"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

type ComputerConfig struct {
	Serial string `yaml:"serial"`
}

// PowerConfig sets the power supply outputs.
type PowerConfig struct {
	StandbyVoltage float64 `yaml:"standby_voltage"`
	NormalVoltage  float64 `yaml:"normal_voltage"`
}

type USBConfig struct {
	Capacity int `yaml:"capacity"`
}

type ServerConfig struct {
	Port     string `yaml:"port"`
	DBPath   string `yaml:"db_path"`
	APIToken string `yaml:"api_token"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the stock configuration.
func Default() Config {
	opts := post.DefaultOptions()
	return Config{
		Computer: ComputerConfig{Serial: opts.Serial},
		Power:    PowerConfig{StandbyVoltage: opts.StandbyVoltage, NormalVoltage: opts.NormalVoltage},
		USB:      USBConfig{Capacity: opts.USBCapacity},
		Server:   ServerConfig{Port: "8080", DBPath: "./lab_post.db"},
		Log:      LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides server and logging settings from the environment.
// Empty variables are treated as unset.
func (c *Config) ApplyEnv(getenv func(string) string) {
	c.Server.APIToken = Resolve(getenv(EnvAPIToken), c.Server.APIToken)
	c.Server.DBPath = Resolve(getenv(EnvDBPath), c.Server.DBPath)
	c.Server.Port = Resolve(getenv(EnvPort), c.Server.Port)
	c.Log.Level = Resolve(getenv(EnvLogLevel), c.Log.Level)
}

// Validate rejects settings the boot sequence cannot use. Voltages outside
// the accepted bands are allowed: they make the boot fail, which is the
// point of configuring them.
func (c Config) Validate() error {
	if math.IsNaN(c.Power.StandbyVoltage) || math.IsNaN(c.Power.NormalVoltage) {
		return fmt.Errorf("power voltages must be numbers")
	}
	if c.USB.Capacity < 0 {
		return fmt.Errorf("usb.capacity must not be negative, got %d", c.USB.Capacity)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// BootOptions converts the machine settings into sequencer options.
func (c Config) BootOptions() post.Options {
	opts := post.DefaultOptions()
	opts.Serial = c.Computer.Serial
	opts.StandbyVoltage = c.Power.StandbyVoltage
	opts.NormalVoltage = c.Power.NormalVoltage
	if c.USB.Capacity > 0 {
		opts.USBCapacity = c.USB.Capacity
	}
	return opts
}

// NewLogger builds the slog logger described by the log settings.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	hopts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, hopts)), nil
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return level, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// Resolve applies precedence where an explicit value overrides a fallback.
// Empty explicit values are treated as unset.
func Resolve(explicit, fallback string) string {
	if value := strings.TrimSpace(explicit); value != "" {
		return value
	}
	return strings.TrimSpace(fallback)
}
