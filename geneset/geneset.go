// Package geneset reads gene set databases (.gmt and .gmx) and filters their
// members against the genes present in a dataset.
package geneset

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Set is a named gene set. Members are unique and sorted.
type Set struct {
	Name        string
	Description string
	Members     []string
}

// NewSet builds a set, dropping blank and duplicate members.
func NewSet(name, description string, members []string) *Set {
	return &Set{
		Name:        name,
		Description: description,
		Members:     uniqueSorted(members),
	}
}

func uniqueSorted(members []string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, g := range members {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, exists := seen[g]; exists {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Collection maps set names to sets and remembers the order in which names
// were first added. Adding a name that already exists replaces the set but
// keeps its original position.
type Collection struct {
	names []string
	sets  map[string]*Set
}

func NewCollection() *Collection {
	return &Collection{sets: make(map[string]*Set)}
}

// Add inserts s, replacing any set of the same name.
func (c *Collection) Add(s *Set) {
	if _, exists := c.sets[s.Name]; !exists {
		c.names = append(c.names, s.Name)
	}
	c.sets[s.Name] = s
}

// Merge adds every set of other, in order.
func (c *Collection) Merge(other *Collection) {
	for _, name := range other.names {
		c.Add(other.sets[name])
	}
}

func (c *Collection) Len() int { return len(c.names) }

// Names returns the set names in insertion order.
func (c *Collection) Names() []string {
	return append([]string(nil), c.names...)
}

func (c *Collection) Get(name string) (*Set, bool) {
	s, ok := c.sets[name]
	return s, ok
}

// Sizes returns the member count of every set.
func (c *Collection) Sizes() map[string]int {
	out := make(map[string]int, len(c.names))
	for _, name := range c.names {
		out[name] = len(c.sets[name].Members)
	}
	return out
}

// Subset returns the named sets, in collection order. Unknown names are
// ignored.
func (c *Collection) Subset(names []string) *Collection {
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}

	out := NewCollection()
	for _, name := range c.names {
		if _, ok := keep[name]; ok {
			out.Add(c.sets[name])
		}
	}
	return out
}

// MarshalJSON writes the collection as an object of set name to members, in
// insertion order.
func (c *Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range c.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		members := c.sets[name].Members
		if members == nil {
			members = []string{}
		}
		value, err := json.Marshal(members)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
