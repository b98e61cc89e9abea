package route

import "encoding/json"

// EngineRule is the flattened form of an enabled rule handed to the tunnel engine.
type EngineRule struct {
	ID            string        `json:"id"`
	DomainMatcher DomainMatcher `json:"domainMatcher"`
	Domain        []string      `json:"domain,omitempty"`
	IP            []string      `json:"ip,omitempty"`
	Port          string        `json:"port,omitempty"`
	SourcePort    string        `json:"sourcePort,omitempty"`
	Network       string        `json:"network,omitempty"`
	Protocol      []string      `json:"protocol,omitempty"`
	OutboundTag   OutboundTag   `json:"outboundTag"`
}

// EngineRouting is the routing section consumed by the engine.
type EngineRouting struct {
	DomainStrategy DomainStrategy `json:"domainStrategy"`
	DomainMatcher  DomainMatcher  `json:"domainMatcher"`
	Rules          []EngineRule   `json:"rules"`
}

// EngineRules exports the configuration for the engine. Disabled rules are
// skipped and every rule carries its effective domain matcher.
func (c *Config) EngineRules() EngineRouting {
	routing := EngineRouting{
		DomainStrategy: c.domainStrategy,
		DomainMatcher:  c.domainMatcher,
		Rules:          make([]EngineRule, 0, len(c.rules)),
	}
	for _, rule := range c.rules {
		if !rule.enabled {
			continue
		}
		routing.Rules = append(routing.Rules, EngineRule{
			ID:            rule.id,
			DomainMatcher: rule.EffectiveDomainMatcher(c.domainMatcher),
			Domain:        rule.Domains(),
			IP:            rule.IPs(),
			Port:          rule.port,
			SourcePort:    rule.sourcePort,
			Network:       rule.network.String(),
			Protocol:      rule.protocol.Strings(),
			OutboundTag:   rule.outboundTag,
		})
	}
	return routing
}

// MarshalEngineRules renders EngineRules as indented JSON.
func (c *Config) MarshalEngineRules() ([]byte, error) {
	return json.MarshalIndent(c.EngineRules(), "", "  ")
}
