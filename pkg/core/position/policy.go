package position

import (
	"fmt"
	"strings"
)

// Policy controls how strictly PlanReorder validates its input
type Policy int

const (
	// Permissive skips unknown ids and does not require a complete list
	Permissive Policy = iota
	// Strict requires the list to be exactly the timeline's entries
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "permissive"
}

// ParsePolicy reads a policy name. Empty means Permissive.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	default:
		return Permissive, fmt.Errorf("unknown reorder policy %q", s)
	}
}
