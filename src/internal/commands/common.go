package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/maksimkurb/keen-route/src/internal/config"
)

type Runner interface {
	Init(args []string, globalArgs *AppContext) error
	Run() error
	Name() string
}

type AppContext struct {
	ConfigPath string
	Verbose    bool

	// Out receives command output; nil means stdout.
	Out io.Writer
}

func (ctx *AppContext) out() io.Writer {
	if ctx.Out != nil {
		return ctx.Out
	}
	return os.Stdout
}

// loadConfigOrFail loads the configuration file and fills in defaults
// in memory. The file itself is not rewritten.
func loadConfigOrFail(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if _, err := cfg.UpgradeConfig(); err != nil {
		return nil, fmt.Errorf("failed to upgrade configuration: %w", err)
	}
	return cfg, nil
}

// loadAndValidateConfigOrFail loads configuration from file and validates it.
func loadAndValidateConfigOrFail(configPath string) (*config.Config, error) {
	cfg, err := loadConfigOrFail(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
