package route

import (
	"slices"
	"testing"
)

func TestParsePortToken(t *testing.T) {
	tests := []struct {
		token    string
		from, to uint16
		wantErr  bool
	}{
		{"80", 80, 80, false},
		{"0", 0, 0, false},
		{"65535", 65535, 65535, false},
		{"1000-2000", 1000, 2000, false},
		{"443-443", 443, 443, false},
		{"65536", 0, 0, true},
		{"2000-1000", 0, 0, true},
		{"-1", 0, 0, true},
		{"80-", 0, 0, true},
		{"http", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			from, to, err := ParsePortToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePortToken(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
			if !tt.wantErr && (from != tt.from || to != tt.to) {
				t.Errorf("ParsePortToken(%q) = %d-%d, want %d-%d", tt.token, from, to, tt.from, tt.to)
			}
		})
	}
}

func TestSplitPortList(t *testing.T) {
	got := SplitPortList("80,,443, 1000-2000 ,")
	want := []string{"80", "443", "1000-2000"}
	if !slices.Equal(got, want) {
		t.Errorf("SplitPortList() = %v, want %v", got, want)
	}

	if got := SplitPortList(""); len(got) != 0 {
		t.Errorf("Expected no tokens for empty list, got %v", got)
	}
}

func TestValidatePortList(t *testing.T) {
	valid := []string{"", "80", "80,443", "1-65535"}
	for _, list := range valid {
		if err := ValidatePortList(list); err != nil {
			t.Errorf("ValidatePortList(%q) unexpected error: %v", list, err)
		}
	}

	invalid := []string{"80,,443", ",80", "80,", "99999", "a-b"}
	for _, list := range invalid {
		if err := ValidatePortList(list); err == nil {
			t.Errorf("ValidatePortList(%q) expected error", list)
		}
	}
}

func TestNormalizePortList(t *testing.T) {
	got, err := NormalizePortList(" 80,,443 ,")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "80,443" {
		t.Errorf("Expected 80,443, got %q", got)
	}

	if _, err := NormalizePortList("80,70000"); err == nil {
		t.Error("Expected error for out of range port")
	}
}
