package commands

import (
	"flag"
	"fmt"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/api"
	"github.com/maksimkurb/keen-route/src/internal/log"
	"github.com/maksimkurb/keen-route/src/internal/reconcile"
)

func CreateReconcileCommand() *ReconcileCommand {
	c := &ReconcileCommand{fs: flag.NewFlagSet("reconcile", flag.ExitOnError)}
	c.fs.StringVar(&c.apiAddr, "api", "", "API address of the running server (default: general.api_bind_address)")
	c.fs.BoolVar(&c.wait, "wait", true, "Wait until the session has been restarted")
	c.fs.DurationVar(&c.timeout, "timeout", time.Minute, "How long to wait for the server")
	return c
}

// ReconcileCommand asks a running server to restart its session so that it
// picks up the saved rules.
type ReconcileCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext

	apiAddr string
	wait    bool
	timeout time.Duration
}

func (c *ReconcileCommand) Name() string {
	return c.fs.Name()
}

func (c *ReconcileCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}

	if c.apiAddr == "" {
		cfg, err := loadConfigOrFail(ctx.ConfigPath)
		if err != nil {
			return err
		}
		c.apiAddr = cfg.General.APIBindAddress
	}
	return nil
}

func (c *ReconcileCommand) Run() error {
	client := newAPIClient(c.apiAddr, c.timeout)

	path := "/api/v1/session/reconcile"
	if c.wait {
		path += "?wait=true"
	}

	var status api.ReconcileStatus
	if err := client.post(path, nil, &status); err != nil {
		return err
	}

	if !c.wait {
		log.Infof("Reconcile scheduled")
		return nil
	}

	last := status.Last
	switch last.Action {
	case reconcile.ActionFailed:
		return fmt.Errorf("reconcile failed: %s", last.Error)
	case reconcile.ActionSkipped:
		fmt.Fprintln(c.ctx.out(), "Session is not connected, nothing to reconcile")
	default:
		fmt.Fprintf(c.ctx.out(), "Session restarted in %v\n", last.Duration.Round(time.Millisecond))
	}
	return nil
}
