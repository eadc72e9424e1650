package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         8080,
			WriteTimeout: 10 * time.Second,
			PongTimeout:  time.Minute,
			SendBuffer:   256,
		},
		Game: GameConfig{
			MaxPlayers:     4,
			RoomCodeLength: 6,
		},
		Maintenance: MaintenanceConfig{
			StatsInterval: 30 * time.Second,
			ReapInterval:  5 * time.Minute,
			IdleThreshold: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 9090
  write_timeout: 5s
  pong_timeout: 45s
  send_buffer: 128
game:
  max_players: 4
  room_code_length: 6
maintenance:
  stats_interval: 10s
  reap_interval: 1m
  idle_threshold: 15m
logging:
  level: debug
  format: console
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 128, cfg.Server.SendBuffer)
	assert.Equal(t, time.Minute, cfg.Maintenance.ReapInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minimal.yaml")
	err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.Equal(t, 30*time.Minute, cfg.Maintenance.IdleThreshold)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("server.port", 7070)

	cfg, err := LoadFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)

	v.Set("game.max_players", 1)
	_, err = LoadFromViper(v)
	assert.Error(t, err)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestValidateServerPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Server.Port = 65536
	assert.Error(t, cfg.Validate())
}

func TestValidateSendBuffer(t *testing.T) {
	cfg := validConfig()
	cfg.Server.SendBuffer = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateMaxPlayers(t *testing.T) {
	cfg := validConfig()
	cfg.Game.MaxPlayers = 1
	assert.Error(t, cfg.Validate())
}

func TestValidateRoomCodeLength(t *testing.T) {
	cfg := validConfig()
	cfg.Game.RoomCodeLength = 3
	assert.Error(t, cfg.Validate())
}

func TestValidateMaintenanceIntervals(t *testing.T) {
	cfg := validConfig()
	cfg.Maintenance.StatsInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Maintenance.ReapInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Maintenance.IdleThreshold = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

// Property-based tests

func TestPropertyValidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.IntRange(1, 65535).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid port %d rejected: %v", port, err)
		}
	})
}

func TestPropertyInvalidPortRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Generate ports outside valid range
		port := rapid.OneOf(
			rapid.IntRange(-1000, 0),
			rapid.IntRange(65536, 100000),
		).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		if cfg.Validate() == nil {
			t.Fatalf("invalid port %d accepted", port)
		}
	})
}
