package commands

import (
	"flag"
	"fmt"

	"github.com/maksimkurb/keen-route/src/internal/config"
	"github.com/maksimkurb/keen-route/src/internal/log"
	"github.com/maksimkurb/keen-route/src/internal/service"
)

func CreateValidateCommand() *ValidateCommand {
	c := &ValidateCommand{
		fs:        flag.NewFlagSet("validate", flag.ExitOnError),
		validator: service.NewValidationService(),
	}
	c.fs.BoolVar(&c.skipEngine, "skip-engine", false, "Do not check that the engine program is installed")
	c.fs.BoolVar(&c.strict, "strict", false, "Treat warnings as errors")
	return c
}

// ValidateCommand checks the configuration file and reports suspicious rules.
type ValidateCommand struct {
	fs        *flag.FlagSet
	ctx       *AppContext
	cfg       *config.Config
	validator *service.ValidationService

	skipEngine bool
	strict     bool
}

func (c *ValidateCommand) Name() string {
	return c.fs.Name()
}

func (c *ValidateCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func (c *ValidateCommand) Run() error {
	var err error
	if c.skipEngine {
		err = c.cfg.ValidateConfig()
	} else {
		err = c.validator.ValidateConfig(c.cfg)
	}
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	rc, err := c.cfg.RouteConfig()
	if err != nil {
		return err
	}

	warnings := c.validator.Warnings(rc)
	for _, warning := range warnings {
		log.Warnf("%s", warning)
	}
	if c.strict && len(warnings) > 0 {
		return fmt.Errorf("configuration has %d warning(s)", len(warnings))
	}

	fmt.Fprintf(c.ctx.out(), "Configuration is valid (%d rules)\n", rc.Len())
	return nil
}
