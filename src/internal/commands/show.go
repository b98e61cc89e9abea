package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/maksimkurb/keen-route/src/internal/route"
)

// Output formats of the show command.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

func CreateShowCommand() *ShowCommand {
	c := &ShowCommand{fs: flag.NewFlagSet("show", flag.ExitOnError)}
	c.fs.StringVar(&c.format, "format", FormatText, "Output format: text, yaml or json")
	c.fs.BoolVar(&c.engine, "engine", false, "Print the rules as passed to the tunnel engine")
	return c
}

// ShowCommand prints the routing rules in priority order.
type ShowCommand struct {
	fs  *flag.FlagSet
	ctx *AppContext
	rc  *route.Config

	format string
	engine bool
}

func (c *ShowCommand) Name() string {
	return c.fs.Name()
}

func (c *ShowCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}

	switch c.format {
	case FormatText, FormatYAML, FormatJSON:
	default:
		return fmt.Errorf("unknown format %q (supported: text, yaml, json)", c.format)
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}

	c.rc, err = cfg.RouteConfig()
	return err
}

func (c *ShowCommand) Run() error {
	var value any = c.rc.Snapshot()
	if c.engine {
		value = c.rc.EngineRules()
	}

	out := c.ctx.out()
	switch c.format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeRulesText(out, c.rc)
	}
}

// writeRulesText renders the configuration for a terminal.
func writeRulesText(w io.Writer, rc *route.Config) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Domain strategy: %s (%s)\n", rc.DomainStrategy(), rc.DomainStrategy().Description())
	fmt.Fprintf(&b, "Domain matcher:  %s (%s)\n", rc.DomainMatcher(), rc.DomainMatcher().Description())

	if rc.Len() == 0 {
		b.WriteString("\nNo rules configured.\n")
	}

	for i, rule := range rc.Rules() {
		summary := rule.Summary()

		dot := "●"
		if !summary.Enabled {
			dot = "○"
		}
		fmt.Fprintf(&b, "\n%d. %s %s -> %s\n", i+1, dot, summary.Name, summary.Label)

		writeField(&b, "domain", strings.Join(rule.Domains(), ", "))
		writeField(&b, "ip", strings.Join(rule.IPs(), ", "))
		writeField(&b, "port", rule.Port())
		writeField(&b, "source port", rule.SourcePort())
		writeField(&b, "network", rule.Network().String())
		writeField(&b, "protocol", strings.Join(rule.Protocols().Strings(), ", "))
		if m := rule.DomainMatcher(); m != "" {
			writeField(&b, "matcher", string(m))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "   %-12s %s\n", name+":", value)
}
