package join

import (
	"fmt"
	"strings"
)

// Method is the join algorithm a logical join is bound to.
type Method int

const (
	NestedLoop Method = iota
	BlockNested
	SortMerge

	// NumMethods is the number of executable methods.
	NumMethods = 3
)

func (m Method) String() string {
	switch m {
	case NestedLoop:
		return "NestedLoop"
	case BlockNested:
		return "BlockNested"
	case SortMerge:
		return "SortMerge"
	default:
		return "Unknown"
	}
}

// ParseMethod accepts the names printed by String, case-insensitively,
// and the short forms "nlj", "bnl" and "smj".
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "nestedloop", "nlj", "nested":
		return NestedLoop, nil
	case "blocknested", "bnl", "bnlj":
		return BlockNested, nil
	case "sortmerge", "smj":
		return SortMerge, nil
	default:
		return 0, fmt.Errorf("unknown join method %q", name)
	}
}
