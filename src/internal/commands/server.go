package commands

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/api"
	"github.com/maksimkurb/keen-route/src/internal/config"
	"github.com/maksimkurb/keen-route/src/internal/log"
	"github.com/maksimkurb/keen-route/src/internal/reconcile"
	"github.com/maksimkurb/keen-route/src/internal/route"
	"github.com/maksimkurb/keen-route/src/internal/service"
	"github.com/maksimkurb/keen-route/src/internal/session"
)

// ServerCommand runs the REST API together with the managed tunnel session.
type ServerCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	cfg *config.Config

	bindAddr    string
	noAutostart bool

	hasher     *config.ConfigHasher
	store      *config.FileStore
	manager    *session.Manager
	reconciler *reconcile.Reconciler
	editor     *service.RouteEditor
	apiRunner  *RestartableRunner
}

// CreateServerCommand creates a new server command.
func CreateServerCommand() *ServerCommand {
	c := &ServerCommand{fs: flag.NewFlagSet("server", flag.ExitOnError)}
	c.fs.StringVar(&c.bindAddr, "bind", "", "Address to bind the HTTP API (overrides general.api_bind_address)")
	c.fs.BoolVar(&c.noAutostart, "no-autostart", false, "Do not start the tunnel session on startup")
	return c
}

func (c *ServerCommand) Name() string {
	return c.fs.Name()
}

func (c *ServerCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	if c.bindAddr == "" {
		c.bindAddr = cfg.General.APIBindAddress
	}
	if cfg.General.Verbose {
		log.SetVerbose(true)
	}

	c.hasher = config.NewConfigHasher(cfg.GetConfigPath())
	c.store = config.NewFileStore(cfg.GetConfigPath(), c.hasher)

	engine := session.NewProcessEngine(session.EngineOptions{
		Command:     cfg.Session.EngineCommand,
		ConfigPath:  cfg.GetAbsEngineConfigPath(),
		TunName:     cfg.Session.TunName,
		StopTimeout: cfg.Session.StopTimeout(),
		Rules:       engineRules(c.store, c.hasher),
	})
	c.manager = session.NewManager(engine)
	c.reconciler = reconcile.New(c.manager, reconcile.Options{
		GraceDelay:    cfg.Session.GraceDelay(),
		SettleTimeout: cfg.Session.SettleTimeout(),
		StartTimeout:  cfg.Session.StartTimeout(),
	})
	c.editor = service.NewRouteEditor(c.store, c.reconciler)

	return nil
}

// engineRules renders the saved rules for the engine and records which
// configuration the session runs with.
func engineRules(store route.Store, hasher *config.ConfigHasher) func() ([]byte, error) {
	return func() ([]byte, error) {
		rc, err := store.Load()
		if err != nil {
			return nil, err
		}
		data, err := rc.MarshalEngineRules()
		if err != nil {
			return nil, err
		}
		if hasher != nil {
			if _, err := hasher.MarkActive(); err != nil {
				log.Warnf("Failed to record active configuration hash: %v", err)
			}
		}
		return data, nil
	}
}

func (c *ServerCommand) Run() error {
	log.Infof("Starting keen-route server...")
	log.Infof("Configuration loaded from: %s", c.cfg.GetConfigPath())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	if c.cfg.Session.Autostart && !c.noAutostart {
		startCtx, startCancel := context.WithTimeout(ctx, c.cfg.Session.StartTimeout())
		if err := c.manager.Start(startCtx); err != nil {
			log.Errorf("Failed to start tunnel session: %v", err)
			log.Warnf("Server will continue without a session. Start it through the API once fixed.")
		}
		startCancel()
	}

	c.startAPIServer(ctx)

	log.Infof("Server started. Send SIGHUP to restart the session with the saved rules")

	for sig := range sigChan {
		switch sig {
		case syscall.SIGHUP:
			log.Infof("Received SIGHUP signal, reconciling session...")
			c.reconciler.Request()

		case syscall.SIGINT, syscall.SIGTERM:
			log.Infof("Received signal %v, shutting down...", sig)
			return c.shutdown()
		}
	}
	return nil
}

func (c *ServerCommand) startAPIServer(ctx context.Context) {
	log.Infof("Starting API server on %s", c.bindAddr)
	log.Infof("Access restricted to private subnets only:")
	log.Infof("  IPv4: 10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16, 127.0.0.0/8")
	log.Infof("  IPv6: fc00::/7, fe80::/10, ::1/128")

	handler := api.NewHandler(api.HandlerOptions{
		Editor:       c.editor,
		Session:      c.manager,
		Reconciler:   c.reconciler,
		ConfigHasher: c.hasher,
		Validator:    service.NewValidationService(),
		StartTimeout: c.cfg.Session.StartTimeout(),
	})
	router := api.NewRouter(handler)

	c.apiRunner = NewRestartableRunner(RunnerConfig{
		Name:           "API server",
		RestartBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
	}, func(runCtx context.Context) error {
		server := api.NewServer(c.bindAddr, router)
		go func() {
			<-runCtx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Stop(stopCtx); err != nil {
				log.Errorf("Error during API server shutdown: %v", err)
			}
		}()
		return server.Start()
	})

	if err := c.apiRunner.Start(ctx); err != nil {
		log.Errorf("Failed to start API server: %v", err)
	}
}

// shutdown stops the API first so no new reconciles are requested, then
// waits for running reconciles and stops the session.
func (c *ServerCommand) shutdown() error {
	log.Infof("Shutting down keen-route server...")

	if c.apiRunner != nil {
		if err := c.apiRunner.Stop(); err != nil {
			log.Errorf("Failed to stop API server: %v", err)
		}
	}

	c.reconciler.Close()

	if state := c.editor.State(); state.Dirty {
		log.Warnf("Discarding uncommitted routing changes")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Session.StopTimeout()+time.Second)
	defer cancel()
	if err := c.manager.Shutdown(stopCtx); err != nil {
		log.Errorf("Failed to stop tunnel session: %v", err)
	}

	log.Infof("Server stopped")
	return nil
}
