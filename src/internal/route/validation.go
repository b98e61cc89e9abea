package route

import (
	"errors"
	"fmt"
	"net/netip"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/miekg/dns"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	ItemName  string `json:"item_name,omitempty"` // Rule name when the error belongs to a rule
	FieldPath string `json:"field"`               // Dot-notation path, e.g. "rule.2.port"
	Message   string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		if err.ItemName != "" {
			sb.WriteString(fmt.Sprintf("  %d. [%s] %s: %s\n", i+1, err.ItemName, err.FieldPath, err.Message))
		} else {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
		}
	}
	return sb.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	custom := map[string]validator.Func{
		"trimmed":         validateTrimmed,
		"domain_entry":    validateDomainEntryTag,
		"ip_entry":        validateIPEntryTag,
		"port_list":       validatePortListTag,
		"network_set":     validateNetworkSet,
		"protocol":        validateProtocolTag,
		"outbound_tag":    validateOutboundTag,
		"domain_strategy": validateDomainStrategyTag,
		"domain_matcher":  validateDomainMatcherTag,
	}
	for tag, fn := range custom {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	// Report field names as they appear in the config file
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validator returns the shared validator instance with the routing tags registered.
func Validator() *validator.Validate {
	return validate
}

func validateRuleSpec(spec *RuleSpec, prefix string, itemName string) ValidationErrors {
	if err := validate.Struct(spec); err != nil {
		return ConvertValidatorErrors(err, prefix, itemName)
	}
	return nil
}

func rulePath(i int) string {
	return fmt.Sprintf("rule.%d", i)
}

func ruleItemName(i int) string {
	return fmt.Sprintf("rule[%d]", i)
}

// ConvertValidatorErrors converts go-playground/validator errors to ValidationErrors.
// fieldPrefix is prepended to every field path, itemName is copied as is.
func ConvertValidatorErrors(err error, fieldPrefix string, itemName string) ValidationErrors {
	var result ValidationErrors

	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return ValidationErrors{{ItemName: itemName, FieldPath: fieldPrefix, Message: err.Error()}}
	}

	for _, e := range validatorErrs {
		// Namespace is "RuleSpec.domain[1]"; drop the struct name
		path := e.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		if fieldPrefix != "" {
			path = fieldPrefix + "." + path
		}

		result = append(result, ValidationError{
			ItemName:  itemName,
			FieldPath: path,
			Message:   GetValidationMessage(e),
		})
	}
	return result
}

// GetValidationMessage returns a human-readable message for a validation error.
func GetValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "uuid":
		return "must be a UUID"
	case "gte":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "max":
		return fmt.Sprintf("must be <= %s", e.Param())
	case "hostname_port":
		return "must be in format 'host:port'"
	case "command_template":
		return "must be a command line using only {{config}} and {{tun}} placeholders"
	case "iface_name":
		return "must be a valid network interface name (1-15 characters, no spaces or '/')"
	case "unique":
		return "must not contain duplicates"
	case "trimmed":
		return "must not have leading or trailing whitespace"
	case "domain_entry":
		return "must be a domain name or a prefixed entry (domain:, full:, keyword:, regexp:, geosite:, ext:)"
	case "ip_entry":
		return "must be an IP address, a CIDR or a prefixed entry (geoip:, ext:)"
	case "port_list":
		return "must be a comma-separated list of ports or port ranges (e.g. 80,443,1000-2000)"
	case "network_set":
		return "must contain only tcp and udp"
	case "protocol":
		return "must be one of: http, tls, bittorrent"
	case "outbound_tag":
		return fmt.Sprintf("must be one of: %s", joinTags(Outbounds.Tags()))
	case "domain_strategy":
		return "must be one of: AsIs, IPIfNonMatch, IPOnDemand"
	case "domain_matcher":
		return "must be one of: hybrid, linear"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

func validateTrimmed(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == strings.TrimSpace(value)
}

func validateDomainEntryTag(fl validator.FieldLevel) bool {
	return ValidateDomainEntry(fl.Field().String()) == nil
}

func validateIPEntryTag(fl validator.FieldLevel) bool {
	return ValidateIPEntry(fl.Field().String()) == nil
}

func validatePortListTag(fl validator.FieldLevel) bool {
	return ValidatePortList(fl.Field().String()) == nil
}

func validateNetworkSet(fl validator.FieldLevel) bool {
	return Network(fl.Field().Uint())&^(NetworkTCP|NetworkUDP) == 0
}

func validateProtocolTag(fl validator.FieldLevel) bool {
	return Protocol(fl.Field().String()).IsValid()
}

func validateOutboundTag(fl validator.FieldLevel) bool {
	return OutboundTag(fl.Field().String()).IsValid()
}

func validateDomainStrategyTag(fl validator.FieldLevel) bool {
	return DomainStrategy(fl.Field().String()).IsValid()
}

func validateDomainMatcherTag(fl validator.FieldLevel) bool {
	return DomainMatcher(fl.Field().String()).IsValid()
}

// ValidateDomainEntry checks a single entry of a rule domain list.
func ValidateDomainEntry(entry string) error {
	kind, value, hasPrefix := strings.Cut(entry, ":")
	if !hasPrefix {
		kind, value = "domain", entry
	}

	switch kind {
	case "domain", "full":
		if _, ok := dns.IsDomainName(value); !ok || !isHostname(value) {
			return fmt.Errorf("invalid domain name %q", value)
		}
	case "regexp":
		if _, err := regexp.Compile(value); err != nil {
			return fmt.Errorf("invalid domain regexp %q: %v", value, err)
		}
	case "keyword", "geosite", "ext":
		if value == "" {
			return fmt.Errorf("empty %s entry", kind)
		}
	default:
		return fmt.Errorf("unknown domain entry prefix %q", kind)
	}
	return nil
}

// ValidateIPEntry checks a single entry of a rule IP list.
func ValidateIPEntry(entry string) error {
	if kind, value, ok := strings.Cut(entry, ":"); ok && (kind == "geoip" || kind == "ext") {
		if value == "" {
			return fmt.Errorf("empty %s entry", kind)
		}
		return nil
	}
	if strings.Contains(entry, "/") {
		if _, err := netip.ParsePrefix(entry); err != nil {
			return fmt.Errorf("invalid CIDR %q", entry)
		}
		return nil
	}
	if _, err := netip.ParseAddr(entry); err != nil {
		return fmt.Errorf("invalid IP address %q", entry)
	}
	return nil
}

// isHostname rejects names dns.IsDomainName tolerates but a rule cannot
// match, such as names with spaces or escapes.
func isHostname(name string) bool {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '.', r == '_', r == '*':
		default:
			return false
		}
	}
	return true
}

func joinTags(tags []OutboundTag) string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = string(tag)
	}
	return strings.Join(names, ", ")
}
