package route

// RuleSpec is the persisted form of a Rule.
type RuleSpec struct {
	ID            string        `toml:"id" json:"id" yaml:"id" validate:"required,uuid"`
	Name          string        `toml:"name" json:"name" yaml:"name" validate:"required,trimmed"`
	Enabled       bool          `toml:"enabled" json:"enabled" yaml:"enabled"`
	DomainMatcher DomainMatcher `toml:"domain_matcher,omitempty" json:"domain_matcher,omitempty" yaml:"domain_matcher,omitempty" validate:"omitempty,domain_matcher"`
	Domain        []string      `toml:"domain" json:"domain" yaml:"domain" validate:"unique,dive,required,trimmed,domain_entry"`
	IP            []string      `toml:"ip" json:"ip" yaml:"ip" validate:"unique,dive,required,trimmed,ip_entry"`
	Port          string        `toml:"port" json:"port" yaml:"port" validate:"port_list"`
	SourcePort    string        `toml:"source_port" json:"source_port" yaml:"source_port" validate:"port_list"`
	Network       Network       `toml:"network" json:"network" yaml:"network" validate:"network_set"`
	Protocol      ProtocolSet   `toml:"protocol" json:"protocol" yaml:"protocol" validate:"unique,dive,protocol"`
	OutboundTag   OutboundTag   `toml:"outbound_tag" json:"outbound_tag" yaml:"outbound_tag" validate:"required,outbound_tag"`
}

// Snapshot is the persisted form of a Config. Rules keep their priority order.
type Snapshot struct {
	DomainStrategy DomainStrategy `toml:"domain_strategy" json:"domain_strategy" yaml:"domain_strategy" validate:"required,domain_strategy"`
	DomainMatcher  DomainMatcher  `toml:"domain_matcher" json:"domain_matcher" yaml:"domain_matcher" validate:"required,domain_matcher"`
	Rules          []RuleSpec     `toml:"rule,omitempty" json:"rules" yaml:"rules" validate:"-"`
}

// Validate checks the snapshot and returns ValidationErrors when anything is wrong.
func (s *Snapshot) Validate() error {
	var errs ValidationErrors

	if err := validate.Struct(s); err != nil {
		errs = append(errs, ConvertValidatorErrors(err, "", "")...)
	}

	seenIDs := make(map[string]bool, len(s.Rules))
	for i := range s.Rules {
		spec := &s.Rules[i]
		itemName := spec.Name
		if itemName == "" {
			itemName = ruleItemName(i)
		}

		errs = append(errs, validateRuleSpec(spec, rulePath(i), itemName)...)

		if spec.ID != "" && seenIDs[spec.ID] {
			errs = append(errs, ValidationError{
				ItemName:  itemName,
				FieldPath: rulePath(i) + ".id",
				Message:   "duplicate rule id: " + spec.ID,
			})
		}
		seenIDs[spec.ID] = true
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
