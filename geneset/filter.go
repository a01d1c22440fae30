package geneset

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/carbocation/gseaprep"
)

// RestrictToUniverse intersects the members of every set with universe and
// reports the resulting sizes. Sets that lose every member are kept, empty.
func RestrictToUniverse(c *Collection, universe []string) (*Collection, map[string]int) {
	present := make(map[string]struct{}, len(universe))
	for _, g := range universe {
		present[g] = struct{}{}
	}

	out := NewCollection()
	sizes := make(map[string]int, c.Len())
	for _, name := range c.names {
		s := c.sets[name]
		members := make([]string, 0, len(s.Members))
		for _, g := range s.Members {
			if _, ok := present[g]; ok {
				members = append(members, g)
			}
		}
		out.Add(&Set{Name: s.Name, Description: s.Description, Members: members})
		sizes[name] = len(members)
	}

	return out, sizes
}

// SelectBySize returns the names, sorted, of the sets whose size lies in
// [min, max].
func SelectBySize(sizes map[string]int, min, max int) ([]string, error) {
	if min < 0 {
		return nil, &gseaprep.ConfigError{Field: "min", Value: strconv.Itoa(min), Msg: "minimum gene set size cannot be negative"}
	}
	if max < min {
		return nil, &gseaprep.ConfigError{Field: "max", Value: strconv.Itoa(max), Msg: fmt.Sprintf("maximum gene set size is below the minimum (%d)", min)}
	}

	out := make([]string, 0, len(sizes))
	for name, n := range sizes {
		if n >= min && n <= max {
			out = append(out, name)
		}
	}
	sort.Strings(out)

	return out, nil
}
