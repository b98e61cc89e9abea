package commands

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/config"
	"github.com/maksimkurb/keen-route/src/internal/log"
	"github.com/maksimkurb/keen-route/src/internal/route"
)

// listFlag collects comma-separated values from repeated flags.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(value string) error {
	for _, item := range strings.Split(value, ",") {
		*l = append(*l, item)
	}
	return nil
}

func CreateAddRuleCommand() *AddRuleCommand {
	c := &AddRuleCommand{fs: flag.NewFlagSet("add-rule", flag.ExitOnError)}
	c.fs.StringVar(&c.name, "name", route.DefaultRuleName, "Rule name")
	c.fs.StringVar(&c.outbound, "outbound", string(route.DefaultOutbound), "Outbound tag: direct, proxy or block")
	c.fs.Var(&c.domains, "domain", "Domain entry (repeatable, comma-separated)")
	c.fs.Var(&c.ips, "ip", "IP address or CIDR entry (repeatable, comma-separated)")
	c.fs.StringVar(&c.port, "port", "", "Destination ports, e.g. 80,443,8000-8080")
	c.fs.StringVar(&c.sourcePort, "source-port", "", "Source ports")
	c.fs.Var(&c.networks, "network", "Network: tcp, udp (repeatable, comma-separated)")
	c.fs.Var(&c.protocols, "protocol", "Protocol: http, tls, bittorrent (repeatable, comma-separated)")
	c.fs.StringVar(&c.matcher, "matcher", "", "Domain matcher override: hybrid or linear")
	c.fs.BoolVar(&c.disabled, "disabled", false, "Add the rule disabled")
	c.fs.IntVar(&c.position, "position", -1, "Insert at this position (0 = highest priority, default: last)")
	c.fs.BoolVar(&c.reconcile, "reconcile", false, "Ask the running server to apply the saved rules")
	return c
}

// AddRuleCommand appends a rule to the configuration file.
type AddRuleCommand struct {
	fs    *flag.FlagSet
	ctx   *AppContext
	cfg   *config.Config
	store route.Store

	name       string
	outbound   string
	domains    listFlag
	ips        listFlag
	port       string
	sourcePort string
	networks   listFlag
	protocols  listFlag
	matcher    string
	disabled   bool
	position   int
	reconcile  bool
}

func (c *AddRuleCommand) Name() string {
	return c.fs.Name()
}

func (c *AddRuleCommand) Init(args []string, ctx *AppContext) error {
	c.ctx = ctx

	if err := c.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAndValidateConfigOrFail(ctx.ConfigPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.store = config.NewFileStore(cfg.GetConfigPath(), nil)
	return nil
}

func (c *AddRuleCommand) Run() error {
	rc, err := c.store.Load()
	if err != nil {
		return err
	}

	rule := rc.AddRule()
	if err := c.fill(rule); err != nil {
		return err
	}
	if c.position >= 0 && c.position < rc.Len()-1 {
		rc.MoveRules([]int{rc.Len() - 1}, c.position)
	}

	if err := rc.Validate(); err != nil {
		return err
	}

	store := &recordingStore{Store: c.store}
	rc.Save(store, func() {
		if store.err != nil || !c.reconcile {
			return
		}
		client := newAPIClient(c.cfg.General.APIBindAddress, 10*time.Second)
		if err := client.post("/api/v1/session/reconcile", nil, nil); err != nil {
			log.Warnf("Rule saved, but the server could not be notified: %v", err)
		}
	})
	if store.err != nil {
		return fmt.Errorf("failed to save rule: %w", store.err)
	}

	fmt.Fprintf(c.ctx.out(), "Added rule %q (%s) at position %d\n", rule.Name(), rule.ID(), rc.IndexOf(rule.ID())+1)
	return nil
}

func (c *AddRuleCommand) fill(rule *route.Rule) error {
	rule.SetName(c.name)
	rule.SetEnabled(!c.disabled)

	if err := rule.SetOutboundTag(route.OutboundTag(c.outbound)); err != nil {
		return err
	}
	if err := rule.SetDomainMatcher(route.DomainMatcher(c.matcher)); err != nil {
		return err
	}

	domains := rule.DomainSet()
	for _, domain := range c.domains {
		domains.Add(domain)
	}
	ips := rule.IPSet()
	for _, ip := range c.ips {
		ips.Add(ip)
	}

	if err := rule.SetPort(c.port); err != nil {
		return err
	}
	if err := rule.SetSourcePort(c.sourcePort); err != nil {
		return err
	}

	for _, network := range c.networks {
		if network = strings.TrimSpace(network); network == "" {
			continue
		}
		if err := rule.SetNetworkToken(network, true); err != nil {
			return err
		}
	}
	for _, token := range c.protocols {
		if token = strings.TrimSpace(token); token == "" {
			continue
		}
		protocol, err := route.ParseProtocol(token)
		if err != nil {
			return err
		}
		if err := rule.SetProtocol(protocol, true); err != nil {
			return err
		}
	}
	return nil
}

// recordingStore keeps the error of the last save, which Config.Save only logs.
type recordingStore struct {
	route.Store
	err error
}

func (s *recordingStore) Save(cfg *route.Config) error {
	s.err = s.Store.Save(cfg)
	return s.err
}
