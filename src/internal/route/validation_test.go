package route

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDomainEntry(t *testing.T) {
	valid := []string{"example.com", "domain:example.com", "full:www.example.com", "keyword:video", "regexp:^.*\\.example\\.com$", "geosite:netflix", "ext:custom.dat:tag"}
	for _, entry := range valid {
		if err := ValidateDomainEntry(entry); err != nil {
			t.Errorf("ValidateDomainEntry(%q) unexpected error: %v", entry, err)
		}
	}

	invalid := []string{"", "bad domain.com", "regexp:([", "keyword:", "unknown:example.com"}
	for _, entry := range invalid {
		if err := ValidateDomainEntry(entry); err == nil {
			t.Errorf("ValidateDomainEntry(%q) expected error", entry)
		}
	}
}

func TestValidateIPEntry(t *testing.T) {
	valid := []string{"1.1.1.1", "10.0.0.0/8", "2001:db8::/32", "::1", "geoip:private", "ext:ip.dat:cn"}
	for _, entry := range valid {
		if err := ValidateIPEntry(entry); err != nil {
			t.Errorf("ValidateIPEntry(%q) unexpected error: %v", entry, err)
		}
	}

	invalid := []string{"", "1.1.1", "10.0.0.0/33", "geoip:", "example.com"}
	for _, entry := range invalid {
		if err := ValidateIPEntry(entry); err == nil {
			t.Errorf("ValidateIPEntry(%q) expected error", entry)
		}
	}
}

func TestSnapshot_Validate(t *testing.T) {
	validRule := func() RuleSpec {
		return NewRule().Spec()
	}

	t.Run("valid snapshot", func(t *testing.T) {
		s := NewConfig().Snapshot()
		s.Rules = append(s.Rules, validRule(), validRule())
		if err := s.Validate(); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("invalid fields are reported with paths", func(t *testing.T) {
		s := NewConfig().Snapshot()
		s.DomainStrategy = "Sometimes"

		broken := validRule()
		broken.Name = "Broken"
		broken.Port = "80,,443"
		broken.Domain = []string{"ok.com", "ok.com"}
		broken.Protocol = ProtocolSet{"quic"}
		broken.OutboundTag = "nowhere"
		s.Rules = append(s.Rules, validRule(), broken)

		err := s.Validate()
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("Expected ValidationErrors, got %v", err)
		}

		fields := make(map[string]ValidationError)
		for _, e := range verrs {
			fields[e.FieldPath] = e
		}
		for _, path := range []string{"domain_strategy", "rule.1.port", "rule.1.domain", "rule.1.protocol[0]", "rule.1.outbound_tag"} {
			if _, ok := fields[path]; !ok {
				t.Errorf("Expected error for %s, got %v", path, verrs)
			}
		}
		if fields["rule.1.port"].ItemName != "Broken" {
			t.Errorf("Expected rule name as item name, got %q", fields["rule.1.port"].ItemName)
		}
	})

	t.Run("duplicate identities", func(t *testing.T) {
		rule := validRule()
		s := NewConfig().Snapshot()
		s.Rules = append(s.Rules, rule, rule)

		err := s.Validate()
		if err == nil || !strings.Contains(err.Error(), "duplicate rule id") {
			t.Errorf("Expected duplicate id error, got %v", err)
		}
	})

	t.Run("missing identity", func(t *testing.T) {
		rule := validRule()
		rule.ID = ""
		s := NewConfig().Snapshot()
		s.Rules = append(s.Rules, rule)

		if err := s.Validate(); err == nil {
			t.Error("Expected error for missing rule id")
		}
	})
}
