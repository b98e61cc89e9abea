package route

import (
	"fmt"
	"slices"
)

// Protocol is a sniffed application protocol a rule can match.
type Protocol string

const (
	ProtocolHTTP       Protocol = "http"
	ProtocolTLS        Protocol = "tls"
	ProtocolBitTorrent Protocol = "bittorrent"
)

// Protocols lists the supported protocols in display order.
var Protocols = []Protocol{ProtocolHTTP, ProtocolTLS, ProtocolBitTorrent}

// IsValid reports whether p belongs to the supported vocabulary.
func (p Protocol) IsValid() bool {
	return slices.Contains(Protocols, p)
}

// ParseProtocol validates a protocol token.
func ParseProtocol(token string) (Protocol, error) {
	p := Protocol(token)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown protocol %q (supported: http, tls, bittorrent)", token)
	}
	return p, nil
}

// ProtocolSet is an ordered set of protocols; order is the order they were switched on.
type ProtocolSet []Protocol

// Has reports whether p is in the set.
func (s ProtocolSet) Has(p Protocol) bool {
	return slices.Contains(s, p)
}

// Set removes every occurrence of p and, when on is true, appends it at the end.
// Switching on a protocol that is already present moves it to the end.
func (s ProtocolSet) Set(p Protocol, on bool) ProtocolSet {
	result := make(ProtocolSet, 0, len(s)+1)
	for _, existing := range s {
		if existing != p {
			result = append(result, existing)
		}
	}
	if on {
		result = append(result, p)
	}
	return result
}

// Strings returns the members as plain strings.
func (s ProtocolSet) Strings() []string {
	result := make([]string, len(s))
	for i, p := range s {
		result[i] = string(p)
	}
	return result
}
