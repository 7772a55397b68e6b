package bgp

import (
	"fmt"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// ExclusionRules is the set of networks whose peers must be left
// untouched.
type ExclusionRules struct {
	prefixes []netip.Prefix
	set      *netipx.IPSet
}

func NewExclusionRules(l []netip.Prefix) (ExclusionRules, error) {
	var b netipx.IPSetBuilder
	for _, p := range l {
		if !p.IsValid() {
			return ExclusionRules{}, fmt.Errorf("invalid exclusion prefix %v", p)
		}
		b.AddPrefix(p.Masked())
	}
	set, err := b.IPSet()
	if err != nil {
		return ExclusionRules{}, err
	}
	return ExclusionRules{prefixes: l, set: set}, nil
}

// ParseExclusionRules reads a whitespace separated list of prefixes.
func ParseExclusionRules(s string) (ExclusionRules, error) {
	var l []netip.Prefix
	for _, f := range strings.Fields(s) {
		p, err := netip.ParsePrefix(f)
		if err != nil {
			return ExclusionRules{}, fmt.Errorf("invalid exclusion prefix: %v", err)
		}
		l = append(l, p)
	}
	return NewExclusionRules(l)
}

func MustParseExclusionRules(s string) ExclusionRules {
	r, err := ParseExclusionRules(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r ExclusionRules) Prefixes() []netip.Prefix { return r.prefixes }

// Excludes tells if addr lies inside some of the rules.
func (r ExclusionRules) Excludes(addr netip.Addr) bool {
	return r.set != nil && r.set.Contains(addr)
}

func (r ExclusionRules) String() string {
	var l []string
	for _, p := range r.prefixes {
		l = append(l, p.String())
	}
	return strings.Join(l, " ")
}

// Eligible splits peers into those to be processed and those excluded by
// rules. Order of peers is kept in both lists.
func Eligible(peers []Peer, rules ExclusionRules) (kept, excluded []Peer, err error) {
	for _, p := range peers {
		if !p.Addr.IsValid() {
			return nil, nil, fmt.Errorf("%w: malformed peer address", ErrMalformedInput)
		}
		if rules.Excludes(p.Addr) {
			excluded = append(excluded, p)
		} else {
			kept = append(kept, p)
		}
	}
	return kept, excluded, nil
}
