package route

import (
	"slices"
	"testing"
)

func TestStringSet_Add(t *testing.T) {
	tests := []struct {
		name      string
		initial   []string
		candidate string
		wantAdded bool
		want      []string
	}{
		{"append to empty", nil, "example.com", true, []string{"example.com"}},
		{"trims whitespace", []string{"a"}, "  b \t", true, []string{"a", "b"}},
		{"rejects blank", []string{"a"}, "   ", false, []string{"a"}},
		{"rejects empty", []string{"a"}, "", false, []string{"a"}},
		{"rejects duplicate", []string{"a", "b"}, "b", false, []string{"a", "b"}},
		{"rejects duplicate after trim", []string{"a"}, " a ", false, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := slices.Clone(tt.initial)
			set := StringSetOf(&values)

			if added := set.Add(tt.candidate); added != tt.wantAdded {
				t.Errorf("Add(%q) = %v, want %v", tt.candidate, added, tt.wantAdded)
			}
			if !slices.Equal(set.Values(), tt.want) {
				t.Errorf("Values() = %v, want %v", set.Values(), tt.want)
			}
		})
	}
}

func TestStringSet_Filter(t *testing.T) {
	var values []string
	set := StringSetOf(&values).WithFilter(IsValidPortToken)

	if set.Add("http") {
		t.Error("Expected filtered value to be rejected")
	}
	if !set.Add("80") {
		t.Error("Expected valid value to be added")
	}
	if !slices.Equal(values, []string{"80"}) {
		t.Errorf("Expected [80], got %v", values)
	}
}

func TestStringSet_Remove(t *testing.T) {
	values := []string{"a", "b", "c", "d"}
	set := StringSetOf(&values)

	set.Remove(3, 1, 1, 42, -1)

	if !slices.Equal(values, []string{"a", "c"}) {
		t.Errorf("Expected [a c], got %v", values)
	}

	set.Remove()
	if !slices.Equal(values, []string{"a", "c"}) {
		t.Errorf("Expected no change on empty removal, got %v", values)
	}
}

func TestStringSet_Move(t *testing.T) {
	tests := []struct {
		name string
		from []int
		to   int
		want []string
	}{
		{"first to end", []int{0}, 4, []string{"b", "c", "d", "a"}},
		{"last to front", []int{3}, 0, []string{"d", "a", "b", "c"}},
		{"forward before element", []int{0}, 2, []string{"b", "a", "c", "d"}},
		{"backward", []int{2}, 1, []string{"a", "c", "b", "d"}},
		{"several keep relative order", []int{3, 0}, 2, []string{"b", "a", "d", "c"}},
		{"onto itself", []int{1}, 1, []string{"a", "b", "c", "d"}},
		{"onto next", []int{1}, 2, []string{"a", "b", "c", "d"}},
		{"out of range ignored", []int{9}, 0, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := []string{"a", "b", "c", "d"}
			StringSetOf(&values).Move(tt.from, tt.to)
			if !slices.Equal(values, tt.want) {
				t.Errorf("Move(%v, %d) = %v, want %v", tt.from, tt.to, values, tt.want)
			}
		})
	}
}

func TestStringSet_MoveInverse(t *testing.T) {
	values := []string{"a", "b", "c", "d", "e"}
	set := StringSetOf(&values)

	set.Move([]int{1}, 4) // a c d b e
	if !slices.Equal(values, []string{"a", "c", "d", "b", "e"}) {
		t.Fatalf("Unexpected order after move: %v", values)
	}

	set.Move([]int{3}, 1)
	if !slices.Equal(values, []string{"a", "b", "c", "d", "e"}) {
		t.Errorf("Inverse move did not restore order: %v", values)
	}
}

func TestStringSet_Commit(t *testing.T) {
	values := []string{"a"}
	set := StringSetOf(&values)

	set.SetCandidate(" b ")
	if !set.Commit() {
		t.Error("Expected candidate to be committed")
	}
	if set.Candidate() != "" {
		t.Errorf("Expected candidate to be cleared, got %q", set.Candidate())
	}

	set.SetCandidate("a")
	if set.Commit() {
		t.Error("Expected duplicate candidate to be rejected")
	}
	if set.Candidate() != "" {
		t.Errorf("Expected candidate to be cleared after rejection, got %q", set.Candidate())
	}

	if !slices.Equal(values, []string{"a", "b"}) {
		t.Errorf("Expected [a b], got %v", values)
	}
}
