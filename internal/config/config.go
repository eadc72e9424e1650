// Package config provides Viper-based configuration loading for the game
// session server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds WebSocket listener settings.
type ServerConfig struct {
	// Host is the bind address for the HTTP/WebSocket listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP/WebSocket listener.
	Port int `mapstructure:"port"`
	// WriteTimeout is the per-message write deadline for client connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// PongTimeout is the duration of silence after which a connection is
	// considered dead. Pings are sent at a fraction of this interval.
	PongTimeout time.Duration `mapstructure:"pong_timeout"`
	// SendBuffer is the per-connection outbound message buffer size.
	SendBuffer int `mapstructure:"send_buffer"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GameConfig holds room and session limits.
type GameConfig struct {
	// MaxPlayers is the maximum number of players a room may hold.
	MaxPlayers int `mapstructure:"max_players"`
	// RoomCodeLength is the length of generated room codes.
	RoomCodeLength int `mapstructure:"room_code_length"`
}

// MaintenanceConfig holds the periodic background task settings.
type MaintenanceConfig struct {
	// StatsInterval is how often room/connection counts are logged.
	StatsInterval time.Duration `mapstructure:"stats_interval"`
	// ReapInterval is how often the idle-room reaper scans for empty rooms.
	ReapInterval time.Duration `mapstructure:"reap_interval"`
	// IdleThreshold is the minimum age of an empty room before it is reaped.
	IdleThreshold time.Duration `mapstructure:"idle_threshold"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Game        GameConfig        `mapstructure:"game"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMaintenance(c.Maintenance); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout must not be negative")
	}
	if s.PongTimeout < 0 {
		errs = append(errs, "server.pong_timeout must not be negative")
	}
	if s.SendBuffer < 1 {
		errs = append(errs, fmt.Sprintf("server.send_buffer must be >= 1, got %d", s.SendBuffer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.MaxPlayers < 2 {
		errs = append(errs, fmt.Sprintf("game.max_players must be >= 2, got %d", g.MaxPlayers))
	}
	if g.RoomCodeLength < 4 {
		errs = append(errs, fmt.Sprintf("game.room_code_length must be >= 4, got %d", g.RoomCodeLength))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateMaintenance(m MaintenanceConfig) error {
	var errs []string
	if m.StatsInterval <= 0 {
		errs = append(errs, "maintenance.stats_interval must be positive")
	}
	if m.ReapInterval <= 0 {
		errs = append(errs, "maintenance.reap_interval must be positive")
	}
	if m.IdleThreshold <= 0 {
		errs = append(errs, "maintenance.idle_threshold must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with PARCHIS_ prefix
	v.SetEnvPrefix("PARCHIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.pong_timeout", "60s")
	v.SetDefault("server.send_buffer", 256)

	v.SetDefault("game.max_players", 4)
	v.SetDefault("game.room_code_length", 6)

	v.SetDefault("maintenance.stats_interval", "30s")
	v.SetDefault("maintenance.reap_interval", "300s")
	v.SetDefault("maintenance.idle_threshold", "30m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
