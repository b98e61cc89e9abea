package service

import (
	"fmt"
	"os/exec"

	"github.com/maksimkurb/keen-route/src/internal/config"
	"github.com/maksimkurb/keen-route/src/internal/errors"
	"github.com/maksimkurb/keen-route/src/internal/route"
	"github.com/maksimkurb/keen-route/src/internal/session"
)

// ValidationService provides centralized configuration validation.
//
// Besides the schema checks of the config package it verifies that the
// engine can be launched and reports rules that can never match.
type ValidationService struct {
	lookPath func(file string) (string, error)
}

// NewValidationService creates a new validation service.
func NewValidationService() *ValidationService {
	return &ValidationService{lookPath: exec.LookPath}
}

// ValidateConfig performs comprehensive configuration validation.
//
// This runs all validators and returns the first error encountered.
func (v *ValidationService) ValidateConfig(cfg *config.Config) error {
	validators := []func(*config.Config) error{
		v.validateSchema,
		v.validateEngine,
	}

	for _, validator := range validators {
		if err := validator(cfg); err != nil {
			return err
		}
	}

	return nil
}

func (v *ValidationService) validateSchema(cfg *config.Config) error {
	if err := cfg.ValidateConfig(); err != nil {
		return errors.NewValidationError("configuration is invalid", err)
	}
	return nil
}

// validateEngine checks that the engine program exists.
func (v *ValidationService) validateEngine(cfg *config.Config) error {
	engine := session.NewProcessEngine(session.EngineOptions{
		Command:    cfg.Session.EngineCommand,
		ConfigPath: cfg.GetAbsEngineConfigPath(),
		TunName:    cfg.Session.TunName,
	})

	args, err := engine.CommandLine()
	if err != nil {
		return errors.NewConfigError("invalid engine command", err)
	}
	if _, err := v.lookPath(args[0]); err != nil {
		return errors.NewConfigError(fmt.Sprintf("engine program %q not found", args[0]), err)
	}
	return nil
}

// Warnings lists rules that are valid but probably not what the user wants:
// rules without criteria and rules placed after a rule matching all traffic.
func (v *ValidationService) Warnings(rc *route.Config) []string {
	var warnings []string

	catchAll := ""
	for _, rule := range rc.Rules() {
		if !rule.Enabled() {
			continue
		}
		if catchAll != "" {
			warnings = append(warnings, fmt.Sprintf("rule %q is never reached: rule %q before it matches all traffic", rule.Name(), catchAll))
			continue
		}

		if !hasCriteria(rule) {
			if rule.Network() == route.NetworkTCP|route.NetworkUDP {
				catchAll = rule.Name()
			} else if rule.Network() == 0 {
				warnings = append(warnings, fmt.Sprintf("rule %q has no match criteria and will be ignored", rule.Name()))
			}
		}
	}
	return warnings
}

// hasCriteria reports whether the rule matches on anything besides network.
func hasCriteria(rule *route.Rule) bool {
	return len(rule.Domains()) > 0 ||
		len(rule.IPs()) > 0 ||
		rule.Port() != "" ||
		rule.SourcePort() != "" ||
		len(rule.Protocols()) > 0
}
