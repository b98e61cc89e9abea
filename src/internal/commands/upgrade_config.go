package commands

import (
	"flag"

	"github.com/maksimkurb/keen-route/src/internal/config"
	"github.com/maksimkurb/keen-route/src/internal/log"
)

func CreateUpgradeConfigCommand() *UpgradeConfigCommand {
	return &UpgradeConfigCommand{fs: flag.NewFlagSet("upgrade-config", flag.ExitOnError)}
}

// UpgradeConfigCommand fills in defaults and missing rule identities and
// rewrites the configuration file.
type UpgradeConfigCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config
}

func (c *UpgradeConfigCommand) Name() string {
	return c.fs.Name()
}

func (c *UpgradeConfigCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func (c *UpgradeConfigCommand) Run() error {
	upgraded, err := c.cfg.UpgradeConfig()
	if err != nil {
		return err
	}
	if !upgraded {
		log.Infof("Configuration is up to date")
		return nil
	}

	if err := c.cfg.ValidateConfig(); err != nil {
		return err
	}
	if err := c.cfg.WriteConfig(); err != nil {
		return err
	}

	log.Infof("Configuration upgraded to version %d", config.CurrentConfigVersion)
	return nil
}
