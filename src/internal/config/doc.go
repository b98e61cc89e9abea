// Package config handles configuration file parsing and validation for keen-route.
//
// The configuration is a single TOML file with three sections:
//   - [general]: API listen address and logging
//   - [session]: how the tunnel engine is launched and how reconciles are timed
//   - [route]: the routing policy, with rules as [[route.rule]] in priority order
//
// # Example Usage
//
//	cfg, err := config.LoadConfig("/opt/etc/keen-route/keen-route.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.ValidateConfig(); err != nil {
//	    log.Fatal(err)
//	}
//
// A [[route.rule]] table without an "enabled" key loads as enabled, like a
// rule created through the API.
//
// FileStore persists the [route] section alone and leaves the other sections
// of the file untouched, so it can back the routing editor.
package config
