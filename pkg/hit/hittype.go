package hit

import (
	"fmt"
	"math/bits"
	"strings"
)

// HitType identifies the kind of a hit. Values are bit flags so that a
// parameter's set of allowed hit types can be expressed as a union.
type HitType uint8

const (
	PageView HitType = 1 << iota
	AppView
	Event
	Transaction
	Item
	Social
	Exception
	Timing

	// AllTypes is the union of every hit type.
	AllTypes = PageView | AppView | Event | Transaction | Item | Social | Exception | Timing
)

// hitTypeNames maps single hit types to their wire literal, in declaration order.
var hitTypeNames = []struct {
	t    HitType
	name string
}{
	{PageView, "pageview"},
	{AppView, "appview"},
	{Event, "event"},
	{Transaction, "transaction"},
	{Item, "item"},
	{Social, "social"},
	{Exception, "exception"},
	{Timing, "timing"},
}

// ParseHitType converts a wire literal such as "pageview" into a HitType.
// Matching is exact; the protocol literals are lower case.
func ParseHitType(s string) (HitType, error) {
	for _, n := range hitTypeNames {
		if n.name == s {
			return n.t, nil
		}
	}
	return 0, fmt.Errorf("unknown hit type %q", s)
}

// IsSingle reports whether t designates exactly one hit type.
func (t HitType) IsSingle() bool {
	return t != 0 && t&^AllTypes == 0 && bits.OnesCount8(uint8(t)) == 1
}

// Contains reports whether every type in other is also in t.
func (t HitType) Contains(other HitType) bool {
	return other != 0 && t&other == other
}

// Types splits a set into its single members.
func (t HitType) Types() []HitType {
	var out []HitType
	for _, n := range hitTypeNames {
		if t&n.t != 0 {
			out = append(out, n.t)
		}
	}
	return out
}

// String returns the wire literal for a single hit type, or a "|"-joined
// list for a set.
func (t HitType) String() string {
	if t == AllTypes {
		return "all"
	}
	var names []string
	for _, n := range hitTypeNames {
		if t&n.t != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("HitType(%d)", uint8(t))
	}
	return strings.Join(names, "|")
}

// HitTypeNames returns the wire literals of all hit types.
func HitTypeNames() []string {
	out := make([]string, len(hitTypeNames))
	for i, n := range hitTypeNames {
		out[i] = n.name
	}
	return out
}
