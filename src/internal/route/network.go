package route

import (
	"fmt"
	"strings"
)

// Network is a set of transport networks a rule applies to.
type Network uint8

const (
	NetworkTCP Network = 1 << iota
	NetworkUDP
)

// networkOrder fixes the serialized order: tcp always precedes udp.
var networkOrder = []struct {
	flag Network
	name string
}{
	{NetworkTCP, "tcp"},
	{NetworkUDP, "udp"},
}

// ParseNetworkToken maps "tcp" or "udp" to its flag.
func ParseNetworkToken(token string) (Network, error) {
	for _, n := range networkOrder {
		if n.name == token {
			return n.flag, nil
		}
	}
	return 0, fmt.Errorf("unknown network %q (supported: tcp, udp)", token)
}

// ParseNetwork parses a comma-joined network list. Empty tokens are skipped.
func ParseNetwork(s string) (Network, error) {
	var result Network
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		flag, err := ParseNetworkToken(token)
		if err != nil {
			return 0, err
		}
		result |= flag
	}
	return result, nil
}

// Has reports whether every flag in token is set.
func (n Network) Has(token Network) bool {
	return token != 0 && n&token == token
}

// Set turns token on or off and returns the new set.
func (n Network) Set(token Network, on bool) Network {
	if on {
		return n | token
	}
	return n &^ token
}

// Tokens returns the set members in serialized order.
func (n Network) Tokens() []string {
	tokens := make([]string, 0, len(networkOrder))
	for _, entry := range networkOrder {
		if n&entry.flag != 0 {
			tokens = append(tokens, entry.name)
		}
	}
	return tokens
}

// String returns the comma-joined form, e.g. "tcp,udp".
func (n Network) String() string {
	return strings.Join(n.Tokens(), ",")
}

// MarshalText implements encoding.TextMarshaler.
func (n Network) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Network) UnmarshalText(text []byte) error {
	parsed, err := ParseNetwork(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
