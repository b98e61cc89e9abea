package route

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitPortList splits a comma-joined port list, dropping empty tokens.
func SplitPortList(list string) []string {
	parts := strings.Split(list, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}

// JoinPortList joins port tokens back into the stored representation.
func JoinPortList(tokens []string) string {
	return strings.Join(tokens, ",")
}

// ParsePortToken parses "N" or "A-B" and returns the inclusive range.
func ParsePortToken(token string) (from, to uint16, err error) {
	if token == "" {
		return 0, 0, fmt.Errorf("empty port token")
	}

	low, high, isRange := strings.Cut(token, "-")
	from, err = parsePort(low)
	if err != nil {
		return 0, 0, err
	}
	if !isRange {
		return from, from, nil
	}

	to, err = parsePort(high)
	if err != nil {
		return 0, 0, err
	}
	if from > to {
		return 0, 0, fmt.Errorf("invalid port range %q: start is greater than end", token)
	}
	return from, to, nil
}

// IsValidPortToken reports whether token is a single port or a port range.
func IsValidPortToken(token string) bool {
	_, _, err := ParsePortToken(token)
	return err == nil
}

// ValidatePortList checks every token of a comma-joined port list.
func ValidatePortList(list string) error {
	for _, token := range strings.Split(list, ",") {
		if token == "" {
			if list == "" {
				return nil
			}
			return fmt.Errorf("port list %q contains an empty token", list)
		}
		if _, _, err := ParsePortToken(token); err != nil {
			return err
		}
	}
	return nil
}

// NormalizePortList drops empty tokens and surrounding spaces, then validates.
func NormalizePortList(list string) (string, error) {
	normalized := JoinPortList(SplitPortList(list))
	if err := ValidatePortList(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return uint16(n), nil
}
