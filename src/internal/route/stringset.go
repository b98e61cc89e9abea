package route

import (
	"slices"
	"strings"
)

// StringSet edits an ordered list of unique, non-blank strings that lives
// somewhere else (usually a Rule field). Reads and writes go through the
// getter/setter pair, so the owner keeps the only copy of the data.
type StringSet struct {
	get    func() []string
	set    func([]string)
	accept func(string) bool

	candidate string
}

// NewStringSet creates an editor over the sequence exposed by get and set.
func NewStringSet(get func() []string, set func([]string)) *StringSet {
	return &StringSet{get: get, set: set}
}

// StringSetOf creates an editor over a plain slice variable.
func StringSetOf(values *[]string) *StringSet {
	return NewStringSet(
		func() []string { return *values },
		func(v []string) { *values = v },
	)
}

// WithFilter adds an extra acceptance check applied after trimming. Values
// rejected by it are dropped the same way as blanks and duplicates.
func (s *StringSet) WithFilter(accept func(string) bool) *StringSet {
	s.accept = accept
	return s
}

// Values returns a copy of the current elements.
func (s *StringSet) Values() []string {
	return slices.Clone(s.get())
}

// Len returns the number of elements.
func (s *StringSet) Len() int {
	return len(s.get())
}

// Contains reports whether value (trimmed) is already in the set.
func (s *StringSet) Contains(value string) bool {
	return slices.Contains(s.get(), strings.TrimSpace(value))
}

// Add trims candidate and appends it. Blank, duplicate or filtered values are
// ignored; the return value only tells whether something was appended.
func (s *StringSet) Add(candidate string) bool {
	value := strings.TrimSpace(candidate)
	if value == "" {
		return false
	}
	current := s.get()
	if slices.Contains(current, value) {
		return false
	}
	if s.accept != nil && !s.accept(value) {
		return false
	}
	s.set(append(slices.Clone(current), value))
	return true
}

// Remove deletes the elements at the given positions. Positions refer to the
// current order; out-of-range positions are ignored.
func (s *StringSet) Remove(indices ...int) {
	current := s.get()
	next := removeOffsets(slices.Clone(current), indices)
	if len(next) != len(current) {
		s.set(next)
	}
}

// Move reorders the elements at from so they land before the element that is
// currently at position to.
func (s *StringSet) Move(from []int, to int) {
	s.set(moveOffsets(slices.Clone(s.get()), from, to))
}

// SetCandidate stores the value being typed for the next Commit.
func (s *StringSet) SetCandidate(value string) {
	s.candidate = value
}

// Candidate returns the pending value.
func (s *StringSet) Candidate() string {
	return s.candidate
}

// Commit adds the pending value and clears it, whether or not it was accepted.
func (s *StringSet) Commit() bool {
	added := s.Add(s.candidate)
	s.candidate = ""
	return added
}
