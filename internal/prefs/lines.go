// Package prefs keeps the user's favorite lines in the local database and
// models the favorites form that edits them.
package prefs

import (
	"errors"
	"fmt"
	"slices"
)

// Lines is the fixed set of lines a user can mark as favorite.
var Lines = []string{"A", "B", "C", "D", "E", "F", "G", "J", "L", "M", "N", "Q", "R", "W", "Z"}

// ErrUnknownLine is returned for a line id outside Lines.
var ErrUnknownLine = errors.New("unknown line")

// IsLine reports whether id is one of Lines.
func IsLine(id string) bool {
	return slices.Contains(Lines, id)
}

func checkLines(lines []string) error {
	for _, l := range lines {
		if !IsLine(l) {
			return fmt.Errorf("%w: %q", ErrUnknownLine, l)
		}
	}
	return nil
}

// Selection is a set of lines being edited. Changes stay local until the
// form saves them.
type Selection struct {
	set map[string]bool
}

// NewSelection returns a selection holding lines. Unknown ids are rejected.
func NewSelection(lines ...string) (*Selection, error) {
	if err := checkLines(lines); err != nil {
		return nil, err
	}
	s := &Selection{set: make(map[string]bool, len(lines))}
	for _, l := range lines {
		s.set[l] = true
	}
	return s, nil
}

// Toggle adds line if absent, removes it otherwise, and returns whether it
// is selected afterwards.
func (s *Selection) Toggle(line string) (bool, error) {
	if !IsLine(line) {
		return false, fmt.Errorf("%w: %q", ErrUnknownLine, line)
	}
	if s.set[line] {
		delete(s.set, line)
		return false, nil
	}
	s.set[line] = true
	return true, nil
}

func (s *Selection) Has(line string) bool { return s.set[line] }

func (s *Selection) Len() int { return len(s.set) }

// Lines returns the selected lines in the order of the Lines enum.
func (s *Selection) Lines() []string {
	out := make([]string, 0, len(s.set))
	for _, l := range Lines {
		if s.set[l] {
			out = append(out, l)
		}
	}
	return out
}

// Reset empties the selection.
func (s *Selection) Reset() {
	clear(s.set)
}
