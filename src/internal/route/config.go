package route

import (
	"fmt"
	"slices"

	"github.com/maksimkurb/keen-route/src/internal/log"
)

// DomainStrategy controls whether and when domains are resolved to IPs before matching.
type DomainStrategy string

const (
	DomainStrategyAsIs         DomainStrategy = "AsIs"
	DomainStrategyIPIfNonMatch DomainStrategy = "IPIfNonMatch"
	DomainStrategyIPOnDemand   DomainStrategy = "IPOnDemand"
)

// DomainStrategies lists the supported strategies in display order.
var DomainStrategies = []DomainStrategy{DomainStrategyAsIs, DomainStrategyIPIfNonMatch, DomainStrategyIPOnDemand}

func (s DomainStrategy) IsValid() bool { return slices.Contains(DomainStrategies, s) }

// Description returns a human readable name of the strategy.
func (s DomainStrategy) Description() string {
	switch s {
	case DomainStrategyAsIs:
		return "Use domain as is"
	case DomainStrategyIPIfNonMatch:
		return "Resolve IP when no rule matches"
	case DomainStrategyIPOnDemand:
		return "Always resolve IP"
	default:
		return string(s)
	}
}

// DomainMatcher selects the algorithm used to test a domain against rule domain lists.
type DomainMatcher string

const (
	DomainMatcherHybrid DomainMatcher = "hybrid"
	DomainMatcherLinear DomainMatcher = "linear"
)

// DomainMatchers lists the supported matchers in display order.
var DomainMatchers = []DomainMatcher{DomainMatcherHybrid, DomainMatcherLinear}

func (m DomainMatcher) IsValid() bool { return slices.Contains(DomainMatchers, m) }

// Description returns a human readable name of the matcher.
func (m DomainMatcher) Description() string {
	switch m {
	case DomainMatcherHybrid:
		return "Precomputed (hybrid)"
	case DomainMatcherLinear:
		return "Linear scan"
	default:
		return string(m)
	}
}

// Store persists routing configurations.
type Store interface {
	Load() (*Config, error)
	Save(cfg *Config) error
}

// Config is the routing configuration: global domain policy plus an ordered
// rule list. Rule order is match priority (first match wins in the engine)
// and is never changed implicitly.
//
// Config is not safe for concurrent use; callers serialize edits.
type Config struct {
	domainStrategy DomainStrategy
	domainMatcher  DomainMatcher
	rules          []*Rule
}

// NewConfig returns an empty configuration with default domain settings.
func NewConfig() *Config {
	return &Config{
		domainStrategy: DomainStrategyAsIs,
		domainMatcher:  DomainMatcherHybrid,
		rules:          []*Rule{},
	}
}

// FromSnapshot builds a configuration from its persisted form.
func FromSnapshot(s Snapshot) (*Config, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cfg := &Config{
		domainStrategy: s.DomainStrategy,
		domainMatcher:  s.DomainMatcher,
		rules:          make([]*Rule, 0, len(s.Rules)),
	}
	for i, spec := range s.Rules {
		rule, err := RuleFromSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		cfg.rules = append(cfg.rules, rule)
	}
	return cfg, nil
}

// Snapshot returns the persisted form, rules in priority order.
func (c *Config) Snapshot() Snapshot {
	specs := make([]RuleSpec, len(c.rules))
	for i, rule := range c.rules {
		specs[i] = rule.Spec()
	}
	return Snapshot{
		DomainStrategy: c.domainStrategy,
		DomainMatcher:  c.domainMatcher,
		Rules:          specs,
	}
}

// Clone returns a deep copy; rule identities are kept.
func (c *Config) Clone() *Config {
	clone := &Config{
		domainStrategy: c.domainStrategy,
		domainMatcher:  c.domainMatcher,
		rules:          make([]*Rule, len(c.rules)),
	}
	for i, rule := range c.rules {
		clone.rules[i] = rule.Clone()
	}
	return clone
}

// Validate checks global settings, every rule and identity uniqueness.
func (c *Config) Validate() error {
	s := c.Snapshot()
	return s.Validate()
}

func (c *Config) DomainStrategy() DomainStrategy { return c.domainStrategy }

func (c *Config) SetDomainStrategy(s DomainStrategy) error {
	if !s.IsValid() {
		return fmt.Errorf("unknown domain strategy %q", s)
	}
	c.domainStrategy = s
	return nil
}

func (c *Config) DomainMatcher() DomainMatcher { return c.domainMatcher }

func (c *Config) SetDomainMatcher(m DomainMatcher) error {
	if !m.IsValid() {
		return fmt.Errorf("unknown domain matcher %q", m)
	}
	c.domainMatcher = m
	return nil
}

// Rules returns the rules in priority order. The slice is a copy, the rules are not.
func (c *Config) Rules() []*Rule {
	return slices.Clone(c.rules)
}

// Len returns the number of rules.
func (c *Config) Len() int {
	return len(c.rules)
}

// At returns the rule at position i, or nil when out of range.
func (c *Config) At(i int) *Rule {
	if i < 0 || i >= len(c.rules) {
		return nil
	}
	return c.rules[i]
}

// IndexOf returns the position of the rule with the given ID, or -1.
func (c *Config) IndexOf(id string) int {
	return slices.IndexFunc(c.rules, func(r *Rule) bool { return r.id == id })
}

// Rule returns the rule with the given ID, or nil.
func (c *Config) Rule(id string) *Rule {
	return c.At(c.IndexOf(id))
}

// AddRule appends a new default rule and returns it.
func (c *Config) AddRule() *Rule {
	rule := NewRule()
	c.rules = append(c.rules, rule)
	return rule
}

// MoveRules moves the rules at positions from so they land before the rule
// currently at position to (len moves them to the end).
func (c *Config) MoveRules(from []int, to int) {
	c.rules = moveOffsets(c.rules, from, to)
}

// RemoveRules deletes the rules at the given positions.
func (c *Config) RemoveRules(indices ...int) {
	c.rules = removeOffsets(c.rules, indices)
}

// RemoveRule deletes the rule with the given ID and reports whether it existed.
func (c *Config) RemoveRule(id string) bool {
	i := c.IndexOf(id)
	if i < 0 {
		return false
	}
	c.RemoveRules(i)
	return true
}

// Save hands the configuration to store and then calls completion exactly
// once. A store failure is logged; completion still runs, persistence is the
// store's responsibility.
func (c *Config) Save(store Store, completion func()) {
	if err := store.Save(c); err != nil {
		log.Errorf("Failed to persist routing configuration: %v", err)
	} else {
		log.Infof("Routing configuration saved (%d rules)", len(c.rules))
	}
	if completion != nil {
		completion()
	}
}
