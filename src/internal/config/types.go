package config

import (
	"path/filepath"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/route"
	"github.com/maksimkurb/keen-route/src/internal/utils"
)

// CurrentConfigVersion is written to upgraded configuration files.
const CurrentConfigVersion uint8 = 1

const (
	DefaultAPIBindAddress  = "127.0.0.1:12121"
	DefaultEngineCommand   = "xray run -c {{config}}"
	DefaultEngineConfig    = "routing.json"
	DefaultTunName         = "tun0"
	DefaultGraceDelayMs    = 500
	DefaultSettleTimeoutMs = 5000
	DefaultStartTimeoutMs  = 10000
	DefaultStopTimeoutMs   = 3000
)

type Config struct {
	// ConfigVersion is the configuration file version.
	ConfigVersion uint8 `toml:"config_version" json:"config_version"`
	// General holds general configuration.
	General *GeneralConfig `toml:"general" json:"general"`
	// Session describes how the tunnel engine is launched and reconciled.
	Session *SessionConfig `toml:"session" json:"session"`
	// Route is the routing policy. Rules are stored as [[route.rule]] in priority order.
	Route *route.Snapshot `toml:"route" json:"route"`

	_absConfigFilePath string
}

type GeneralConfig struct {
	// APIBindAddress is the address the REST API listens on (default: 127.0.0.1:12121).
	APIBindAddress string `toml:"api_bind_address" json:"api_bind_address" validate:"required,hostname_port"`
	// Verbose enables debug logging.
	Verbose bool `toml:"verbose" json:"verbose"`
}

type SessionConfig struct {
	// EngineCommand is the engine command line. Available variables: {{config}}, {{tun}}.
	EngineCommand string `toml:"engine_command" json:"engine_command" validate:"required,command_template"`
	// EngineConfig is the file the engine routing rules are written to before each start (relative to this config file).
	EngineConfig string `toml:"engine_config" json:"engine_config" validate:"required"`
	// TunName is the TUN interface created by the engine; the session is connected once it is up.
	TunName string `toml:"tun_name" json:"tun_name" validate:"required,iface_name"`
	// Autostart starts the session together with the server.
	Autostart bool `toml:"autostart" json:"autostart"`
	// GraceDelayMs is the minimum pause between stop and start on reconcile (default: 500).
	GraceDelayMs int `toml:"grace_delay_ms" json:"grace_delay_ms" validate:"gte=0"`
	// SettleTimeoutMs bounds the wait for the session to report disconnected (default: 5000).
	SettleTimeoutMs int `toml:"settle_timeout_ms" json:"settle_timeout_ms" validate:"gte=0"`
	// StartTimeoutMs bounds the wait for the session to come up (default: 10000).
	StartTimeoutMs int `toml:"start_timeout_ms" json:"start_timeout_ms" validate:"gte=0"`
	// StopTimeoutMs is how long the engine may take to exit after an interrupt before it is killed (default: 3000).
	StopTimeoutMs int `toml:"stop_timeout_ms" json:"stop_timeout_ms" validate:"gte=0"`
}

func (c *Config) GetConfigDir() string {
	return filepath.Dir(c._absConfigFilePath)
}

// GetConfigPath returns the absolute path the configuration was loaded from.
func (c *Config) GetConfigPath() string {
	return c._absConfigFilePath
}

func (c *Config) GetAbsEngineConfigPath() string {
	return utils.GetAbsolutePath(c.Session.EngineConfig, c.GetConfigDir())
}

func (s *SessionConfig) GraceDelay() time.Duration {
	return msOrDefault(s.GraceDelayMs, DefaultGraceDelayMs)
}

func (s *SessionConfig) SettleTimeout() time.Duration {
	return msOrDefault(s.SettleTimeoutMs, DefaultSettleTimeoutMs)
}

func (s *SessionConfig) StartTimeout() time.Duration {
	return msOrDefault(s.StartTimeoutMs, DefaultStartTimeoutMs)
}

func (s *SessionConfig) StopTimeout() time.Duration {
	return msOrDefault(s.StopTimeoutMs, DefaultStopTimeoutMs)
}

func msOrDefault(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}
