// Package commands implements the keen-route command line.
//
// Each subcommand implements the Runner interface:
//   - Init(): parse arguments and load configuration
//   - Run(): execute the command
//   - Name(): return the command name for dispatch
//
// # Available Commands
//
//   - server: run the REST API together with the managed tunnel session
//   - show: print the routing rules in priority order (text, yaml or json)
//   - validate: check the configuration file and report suspicious rules
//   - reconcile: ask a running server to restart its session with the saved rules
//   - add-rule: append a rule to the configuration file
//   - upgrade-config: fill in defaults and rewrite the configuration file
//
// # Example Usage
//
//	cmd := commands.CreateShowCommand()
//	ctx := &commands.AppContext{ConfigPath: "/opt/etc/keen-route/keen-route.toml"}
//	if err := cmd.Init([]string{"-format", "yaml"}, ctx); err != nil {
//	    log.Fatalf("Failed to initialize: %v", err)
//	}
//	if err := cmd.Run(); err != nil {
//	    log.Fatalf("Failed to run: %v", err)
//	}
package commands
