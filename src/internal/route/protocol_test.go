package route

import (
	"slices"
	"testing"
)

func TestProtocolSet_Set(t *testing.T) {
	tests := []struct {
		name  string
		start ProtocolSet
		token Protocol
		on    bool
		want  []string
	}{
		{"toggle on empty", nil, ProtocolTLS, true, []string{"tls"}},
		{"toggle on appends", ProtocolSet{ProtocolTLS}, ProtocolHTTP, true, []string{"tls", "http"}},
		{"toggle on present moves to end", ProtocolSet{ProtocolHTTP, ProtocolTLS}, ProtocolHTTP, true, []string{"tls", "http"}},
		{"toggle on last keeps order", ProtocolSet{ProtocolHTTP, ProtocolTLS}, ProtocolTLS, true, []string{"http", "tls"}},
		{"toggle off removes", ProtocolSet{ProtocolHTTP, ProtocolTLS}, ProtocolHTTP, false, []string{"tls"}},
		{"toggle off absent is a no-op", ProtocolSet{ProtocolHTTP, ProtocolTLS}, ProtocolBitTorrent, false, []string{"http", "tls"}},
		{"duplicates collapse", ProtocolSet{ProtocolHTTP, ProtocolTLS, ProtocolHTTP}, ProtocolHTTP, true, []string{"tls", "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.Set(tt.token, tt.on)
			if !slices.Equal(got.Strings(), tt.want) {
				t.Errorf("Set(%s, %v) on %v = %v, want %v", tt.token, tt.on, tt.start.Strings(), got.Strings(), tt.want)
			}

			again := got.Set(tt.token, tt.on)
			if !slices.Equal(again.Strings(), tt.want) {
				t.Errorf("Expected repeated Set(%s, %v) to be idempotent, got %v", tt.token, tt.on, again.Strings())
			}
		})
	}
}

func TestProtocolSet_ToggleSequence(t *testing.T) {
	var s ProtocolSet
	s = s.Set(ProtocolTLS, true)
	s = s.Set(ProtocolHTTP, true)
	s = s.Set(ProtocolTLS, false)
	s = s.Set(ProtocolTLS, true)
	if !slices.Equal(s.Strings(), []string{"http", "tls"}) {
		t.Errorf("Expected re-enabled protocol at the end, got %v", s.Strings())
	}
}

func TestParseProtocol(t *testing.T) {
	for _, p := range Protocols {
		if _, err := ParseProtocol(string(p)); err != nil {
			t.Errorf("ParseProtocol(%q) unexpected error: %v", p, err)
		}
	}
	if _, err := ParseProtocol("quic"); err == nil {
		t.Error("Expected error for unknown protocol")
	}
}
