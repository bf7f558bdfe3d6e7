// Package debuginfo defines the address and source line queries shared by
// all debug information readers.
package debuginfo

import (
	"golang.org/x/exp/slices"
)

// Mapping translates between code addresses and source positions.
// Both queries return sentinel values instead of errors: an empty filename
// and line 0, or address 0, mean the position is not mapped.
type Mapping interface {
	FileLine(address uint32) (string, int)
	Address(filename string, line int) uint32
}

type namedMapping struct {
	name    string
	mapping Mapping
}

// Set queries multiple mappings in the order they were added and returns the
// first answer that is not a sentinel.
type Set struct {
	mappings []namedMapping
}

// NewSet returns an empty mapping set.
func NewSet() *Set {
	return &Set{}
}

// Add appends a mapping with the lowest priority so far. Adding a name that
// already exists replaces that mapping and keeps its priority.
func (s *Set) Add(name string, mapping Mapping) {
	i := slices.IndexFunc(s.mappings, func(m namedMapping) bool {
		return m.name == name
	})
	if i >= 0 {
		s.mappings[i].mapping = mapping
		return
	}
	s.mappings = append(s.mappings, namedMapping{name: name, mapping: mapping})
}

// Len returns the number of mappings.
func (s *Set) Len() int {
	return len(s.mappings)
}

// Names returns the mapping names in priority order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.mappings))
	for _, m := range s.mappings {
		names = append(names, m.name)
	}
	return names
}

// FileLine returns the first source position any mapping knows for the address.
func (s *Set) FileLine(address uint32) (string, int) {
	for _, m := range s.mappings {
		if file, line := m.mapping.FileLine(address); file != "" {
			return file, line
		}
	}
	return "", 0
}

// Address returns the first non zero address any mapping knows for the line.
func (s *Set) Address(filename string, line int) uint32 {
	for _, m := range s.mappings {
		if address := m.mapping.Address(filename, line); address != 0 {
			return address
		}
	}
	return 0
}
