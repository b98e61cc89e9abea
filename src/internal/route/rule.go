package route

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// DefaultRuleName is the label given to new rules and to rules renamed to blank.
const DefaultRuleName = "Rule"

// Rule is a single routing policy entry: match criteria plus the outbound a
// matching connection is sent to. All fields are reached through accessors so
// that the invariants (immutable ID, clean string sets, closed vocabularies)
// cannot be bypassed by callers.
type Rule struct {
	id            string
	name          string
	enabled       bool
	domainMatcher DomainMatcher
	domain        []string
	ip            []string
	port          string
	sourcePort    string
	network       Network
	protocol      ProtocolSet
	outboundTag   OutboundTag
}

// NewRule creates an enabled rule with empty criteria, the default outbound
// and a freshly generated identity.
func NewRule() *Rule {
	return &Rule{
		id:          uuid.NewString(),
		name:        DefaultRuleName,
		enabled:     true,
		domain:      []string{},
		ip:          []string{},
		protocol:    ProtocolSet{},
		outboundTag: DefaultOutbound,
	}
}

// RuleFromSpec restores a rule from its persisted form. Invalid rules are rejected.
func RuleFromSpec(spec RuleSpec) (*Rule, error) {
	if errs := validateRuleSpec(&spec, "", spec.Name); len(errs) > 0 {
		return nil, errs
	}
	return &Rule{
		id:            spec.ID,
		name:          spec.Name,
		enabled:       spec.Enabled,
		domainMatcher: spec.DomainMatcher,
		domain:        cloneOrEmpty(spec.Domain),
		ip:            cloneOrEmpty(spec.IP),
		port:          spec.Port,
		sourcePort:    spec.SourcePort,
		network:       spec.Network,
		protocol:      slices.Clone(spec.Protocol),
		outboundTag:   spec.OutboundTag,
	}, nil
}

// Spec returns the persisted form of the rule.
func (r *Rule) Spec() RuleSpec {
	return RuleSpec{
		ID:            r.id,
		Name:          r.name,
		Enabled:       r.enabled,
		DomainMatcher: r.domainMatcher,
		Domain:        cloneOrEmpty(r.domain),
		IP:            cloneOrEmpty(r.ip),
		Port:          r.port,
		SourcePort:    r.sourcePort,
		Network:       r.network,
		Protocol:      slices.Clone(r.protocol),
		OutboundTag:   r.outboundTag,
	}
}

// Clone returns a deep copy that keeps the same identity.
func (r *Rule) Clone() *Rule {
	c := *r
	c.domain = cloneOrEmpty(r.domain)
	c.ip = cloneOrEmpty(r.ip)
	c.protocol = slices.Clone(r.protocol)
	return &c
}

// Validate checks the rule invariants.
func (r *Rule) Validate() error {
	spec := r.Spec()
	if errs := validateRuleSpec(&spec, "", r.name); len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *Rule) ID() string { return r.id }

func (r *Rule) Name() string { return r.name }

// SetName renames the rule. A blank name falls back to DefaultRuleName.
func (r *Rule) SetName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultRuleName
	}
	r.name = name
}

func (r *Rule) Enabled() bool { return r.enabled }

func (r *Rule) SetEnabled(enabled bool) { r.enabled = enabled }

// DomainMatcher returns the per-rule matcher override; empty means the global one is used.
func (r *Rule) DomainMatcher() DomainMatcher { return r.domainMatcher }

// SetDomainMatcher sets or (with "") clears the per-rule matcher override.
func (r *Rule) SetDomainMatcher(m DomainMatcher) error {
	if m != "" && !m.IsValid() {
		return fmt.Errorf("unknown domain matcher %q", m)
	}
	r.domainMatcher = m
	return nil
}

// EffectiveDomainMatcher resolves the override against the global matcher.
func (r *Rule) EffectiveDomainMatcher(global DomainMatcher) DomainMatcher {
	if r.domainMatcher != "" {
		return r.domainMatcher
	}
	return global
}

// Domains returns a copy of the domain list.
func (r *Rule) Domains() []string { return slices.Clone(r.domain) }

// DomainSet returns an editor over the domain list.
func (r *Rule) DomainSet() *StringSet {
	return NewStringSet(
		func() []string { return r.domain },
		func(v []string) { r.domain = v },
	)
}

// IPs returns a copy of the IP list.
func (r *Rule) IPs() []string { return slices.Clone(r.ip) }

// IPSet returns an editor over the IP list.
func (r *Rule) IPSet() *StringSet {
	return NewStringSet(
		func() []string { return r.ip },
		func(v []string) { r.ip = v },
	)
}

// Port returns the comma-joined destination port list.
func (r *Rule) Port() string { return r.port }

// SetPort replaces the destination port list. Empty tokens are dropped.
func (r *Rule) SetPort(list string) error {
	normalized, err := NormalizePortList(list)
	if err != nil {
		return err
	}
	r.port = normalized
	return nil
}

// PortSet returns an editor that views the destination port list as tokens.
func (r *Rule) PortSet() *StringSet {
	return portListSet(&r.port)
}

// SourcePort returns the comma-joined source port list.
func (r *Rule) SourcePort() string { return r.sourcePort }

// SetSourcePort replaces the source port list. Empty tokens are dropped.
func (r *Rule) SetSourcePort(list string) error {
	normalized, err := NormalizePortList(list)
	if err != nil {
		return err
	}
	r.sourcePort = normalized
	return nil
}

// SourcePortSet returns an editor that views the source port list as tokens.
func (r *Rule) SourcePortSet() *StringSet {
	return portListSet(&r.sourcePort)
}

func (r *Rule) Network() Network { return r.network }

// SetNetwork switches a network on or off; tcp is always kept before udp.
func (r *Rule) SetNetwork(token Network, on bool) {
	r.network = r.network.Set(token, on)
}

// SetNetworkToken is SetNetwork for the textual token ("tcp", "udp").
func (r *Rule) SetNetworkToken(token string, on bool) error {
	flag, err := ParseNetworkToken(token)
	if err != nil {
		return err
	}
	r.SetNetwork(flag, on)
	return nil
}

// Protocols returns a copy of the protocol set in toggle order.
func (r *Rule) Protocols() ProtocolSet { return slices.Clone(r.protocol) }

// SetProtocol switches a protocol on (appending it) or off.
func (r *Rule) SetProtocol(p Protocol, on bool) error {
	if !p.IsValid() {
		return fmt.Errorf("unknown protocol %q", p)
	}
	r.protocol = r.protocol.Set(p, on)
	return nil
}

func (r *Rule) OutboundTag() OutboundTag { return r.outboundTag }

// SetOutboundTag points the rule to another outbound from the catalog.
func (r *Rule) SetOutboundTag(tag OutboundTag) error {
	if !tag.IsValid() {
		return fmt.Errorf("unknown outbound %q", tag)
	}
	r.outboundTag = tag
	return nil
}

// RuleSummary is what a rule list displays for one entry.
type RuleSummary struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Enabled  bool        `json:"enabled" yaml:"enabled"`
	Outbound OutboundTag `json:"outbound_tag" yaml:"outbound_tag"`
	Label    string      `json:"outbound_label" yaml:"outbound_label"`
}

// Summary returns the list-row view of the rule.
func (r *Rule) Summary() RuleSummary {
	return RuleSummary{
		ID:       r.id,
		Name:     r.name,
		Enabled:  r.enabled,
		Outbound: r.outboundTag,
		Label:    Outbounds.Label(r.outboundTag),
	}
}

func portListSet(list *string) *StringSet {
	return NewStringSet(
		func() []string { return SplitPortList(*list) },
		func(v []string) { *list = JoinPortList(v) },
	).WithFilter(IsValidPortToken)
}

func cloneOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return slices.Clone(values)
}
