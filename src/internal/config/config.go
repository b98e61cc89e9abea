package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/maksimkurb/keen-route/src/internal/log"
	"github.com/maksimkurb/keen-route/src/internal/route"
)

// ErrConfigNotFound is returned by LoadConfig when the file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

func absConfigPath(configPath string) (string, error) {
	configFile := filepath.Clean(configPath)

	if !filepath.IsAbs(configFile) {
		path, err := filepath.Abs(configFile)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %v", err)
		}
		configFile = path
	}
	return configFile, nil
}

func LoadConfig(configPath string) (*Config, error) {
	configFile, err := absConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configFile)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var config Config
	if err := toml.Unmarshal(content, &config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			log.Errorf("%s", derr.String())
			row, col := derr.Position()
			log.Errorf("Error at line %d, column %d", row, col)
			return nil, fmt.Errorf("failed to parse config file")
		}
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	if err := defaultRuleEnabled(content, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	config._absConfigFilePath = configFile

	log.Debugf("Configuration file path: %s", configFile)

	return &config, nil
}

// ruleEnabledKeys tells which [[route.rule]] tables set "enabled".
type ruleEnabledKeys struct {
	Route struct {
		Rules []struct {
			Enabled *bool `toml:"enabled"`
		} `toml:"rule"`
	} `toml:"route"`
}

// defaultRuleEnabled enables rules that leave out the "enabled" key, the
// same default a new rule gets.
func defaultRuleEnabled(content []byte, config *Config) error {
	if config.Route == nil || len(config.Route.Rules) == 0 {
		return nil
	}

	var keys ruleEnabledKeys
	if err := toml.Unmarshal(content, &keys); err != nil {
		return err
	}
	for i, rule := range keys.Route.Rules {
		if rule.Enabled == nil && i < len(config.Route.Rules) {
			config.Route.Rules[i].Enabled = true
		}
	}
	return nil
}

// NewDefaultConfig returns a configuration with default settings and no
// rules, bound to configPath for WriteConfig.
func NewDefaultConfig(configPath string) (*Config, error) {
	configFile, err := absConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{_absConfigFilePath: configFile}
	if _, err := cfg.UpgradeConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) SerializeConfig() (*bytes.Buffer, error) {
	buf := bytes.Buffer{}
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return &buf, nil
}

// WriteConfig replaces the configuration file. The new content is written
// to a temporary file first so readers never see a partial file.
func (c *Config) WriteConfig() error {
	config, err := c.SerializeConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.GetConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	tmp := c._absConfigFilePath + ".tmp"
	if err := os.WriteFile(tmp, config.Bytes(), 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c._absConfigFilePath); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// UpgradeConfig fills sections and fields that older or hand-written files
// leave out. It reports whether anything was changed.
func (c *Config) UpgradeConfig() (bool, error) {
	upgraded := false

	if c.ConfigVersion < CurrentConfigVersion {
		c.ConfigVersion = CurrentConfigVersion
		upgraded = true
	}

	if c.General == nil {
		c.General = &GeneralConfig{}
		upgraded = true
	}
	if c.General.APIBindAddress == "" {
		c.General.APIBindAddress = DefaultAPIBindAddress
		log.Infof("Upgrading required field \"api_bind_address\" to %s", DefaultAPIBindAddress)
		upgraded = true
	}

	if c.Session == nil {
		c.Session = &SessionConfig{}
		upgraded = true
	}
	upgraded = upgradeString(&c.Session.EngineCommand, DefaultEngineCommand, "engine_command") || upgraded
	upgraded = upgradeString(&c.Session.EngineConfig, DefaultEngineConfig, "engine_config") || upgraded
	upgraded = upgradeString(&c.Session.TunName, DefaultTunName, "tun_name") || upgraded
	upgraded = upgradeInt(&c.Session.GraceDelayMs, DefaultGraceDelayMs) || upgraded
	upgraded = upgradeInt(&c.Session.SettleTimeoutMs, DefaultSettleTimeoutMs) || upgraded
	upgraded = upgradeInt(&c.Session.StartTimeoutMs, DefaultStartTimeoutMs) || upgraded
	upgraded = upgradeInt(&c.Session.StopTimeoutMs, DefaultStopTimeoutMs) || upgraded

	if c.Route == nil {
		defaults := route.NewConfig().Snapshot()
		c.Route = &defaults
		upgraded = true
	}
	if c.Route.DomainStrategy == "" {
		c.Route.DomainStrategy = route.DomainStrategyAsIs
		upgraded = true
	}
	if c.Route.DomainMatcher == "" {
		c.Route.DomainMatcher = route.DomainMatcherHybrid
		upgraded = true
	}

	for i := range c.Route.Rules {
		if upgradeRule(&c.Route.Rules[i], i) {
			upgraded = true
		}
	}

	return upgraded, nil
}

func upgradeRule(rule *route.RuleSpec, i int) bool {
	upgraded := false

	if rule.ID == "" {
		rule.ID = uuid.NewString()
		log.Infof("Assigning id %s to rule #%d", rule.ID, i)
		upgraded = true
	}
	if strings.TrimSpace(rule.Name) == "" {
		rule.Name = route.DefaultRuleName
		upgraded = true
	}
	if rule.OutboundTag == "" {
		rule.OutboundTag = route.DefaultOutbound
		log.Infof("Upgrading required field \"outbound_tag\" for rule %s", rule.Name)
		upgraded = true
	}
	if rule.Domain == nil {
		rule.Domain = []string{}
	}
	if rule.IP == nil {
		rule.IP = []string{}
	}
	return upgraded
}

func upgradeString(field *string, def, name string) bool {
	if *field != "" {
		return false
	}
	*field = def
	log.Infof("Upgrading required field %q to %s", name, def)
	return true
}

func upgradeInt(field *int, def int) bool {
	if *field != 0 {
		return false
	}
	*field = def
	return true
}

// RouteConfig builds the routing model from the [route] section.
func (c *Config) RouteConfig() (*route.Config, error) {
	if c.Route == nil {
		return route.NewConfig(), nil
	}
	return route.FromSnapshot(*c.Route)
}

// SetRouteConfig replaces the [route] section.
func (c *Config) SetRouteConfig(rc *route.Config) {
	snapshot := rc.Snapshot()
	c.Route = &snapshot
}
