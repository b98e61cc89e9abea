package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/maksimkurb/keen-route/src/internal/api"
	"github.com/maksimkurb/keen-route/src/internal/commands"
	"github.com/maksimkurb/keen-route/src/internal/log"
)

var (
	version = "dev"
	commit  = "n/a"
	date    = "n/a"
)

func main() {
	api.Version, api.Commit, api.Date = version, commit, date

	ctx := &commands.AppContext{}

	flag.StringVar(&ctx.ConfigPath, "config", "/opt/etc/keen-route/keen-route.toml", "Path to configuration file")
	flag.BoolVar(&ctx.Verbose, "verbose", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Routing rules editor and tunnel session manager\n")
		fmt.Fprintf(os.Stderr, "Version: %s (Commit: %s, Date: %s)\n\n", version, commit, date)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  server                  Run the REST API and the managed tunnel session\n")
		fmt.Fprintf(os.Stderr, "  show                    Print routing rules in priority order\n")
		fmt.Fprintf(os.Stderr, "  validate                Validate the configuration file\n")
		fmt.Fprintf(os.Stderr, "  reconcile               Restart the running session with the saved rules\n")
		fmt.Fprintf(os.Stderr, "  add-rule                Append a routing rule\n")
		fmt.Fprintf(os.Stderr, "  upgrade-config          Fill in defaults and rewrite the configuration file\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if ctx.Verbose {
		log.SetVerbose(true)
	}

	cmds := []commands.Runner{
		commands.CreateServerCommand(),
		commands.CreateShowCommand(),
		commands.CreateValidateCommand(),
		commands.CreateReconcileCommand(),
		commands.CreateAddRuleCommand(),
		commands.CreateUpgradeConfigCommand(),
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	subcommand := args[0]
	for _, cmd := range cmds {
		if cmd.Name() == subcommand {
			if err := cmd.Init(args[1:], ctx); err != nil {
				log.Fatalf("Failed to initialize command: %v", err)
			}

			if err := cmd.Run(); err != nil {
				log.Fatalf("Failed to run command: %v", err)
			}

			os.Exit(0)
		}
	}

	log.Fatalf("Unknown subcommand: %s", subcommand)
}
