package bgp

import (
	"net/netip"
	"strings"
)

type Action string

const (
	Permit Action = "permit"
	Deny   Action = "deny"
)

// NeighborRecord holds the values found in "neighbor ADDR ..." lines of
// one BGP process. Values are unchecked text as read from the device.
type NeighborRecord struct {
	PeerIP        string
	RemoteAS      string
	Description   string
	RouteMapOut   string
	RouteMapIn    string
	SendCommunity string
	PeerGroup     string
}

// RouteMapRef is the outbound route-map of a peer, which may be absent.
type RouteMapRef struct {
	name string
}

var NoRouteMap = RouteMapRef{}

func RouteMap(name string) RouteMapRef { return RouteMapRef{name: name} }

func (r RouteMapRef) Name() (string, bool) { return r.name, r.name != "" }

func (r RouteMapRef) IsAbsent() bool { return r.name == "" }

// String is used in log lines only.
func (r RouteMapRef) String() string {
	if r.name == "" {
		return "NONE"
	}
	return r.name
}

type Peer struct {
	Addr          netip.Addr
	RemoteAS      uint32
	Description   string
	RouteMapOut   RouteMapRef
	RouteMapIn    string
	SendCommunity string
	PeerGroup     string // Outbound policy is inherited from this group.
}

// SendsAllCommunities tells if standard and extended communities are
// already sent to this peer.
func (p Peer) SendsAllCommunities() bool {
	return p.SendCommunity == "both"
}

type ASPathACL struct {
	ID      int
	Action  Action
	Pattern string
}

type RouteMapEntry struct {
	Name   string
	Seq    int
	Action Action
	Match  []string // e.g. "as-path 5", "ip address prefix-list PL"
	Set    []string // e.g. "community 65000:100 additive"
}

// Snapshot is the state of a single device, read at one point in time.
type Snapshot struct {
	Hostname   string
	ASN        string
	Neighbors  []NeighborRecord
	Networks   []string // "ADDR MASK" or "ADDR"
	Aggregates []string // "ADDR MASK"
	RouteMaps  []RouteMapEntry
	ASPathACLs []ASPathACL
}

// HasBGP tells if a "router bgp" process was found.
func (s *Snapshot) HasBGP() bool { return s.ASN != "" }

const (
	DefaultMapName       = "COMMUNITY_OUT"
	DefaultASPathPattern = "^$"
)

// Policy describes what has to be applied to each eligible peer.
type Policy struct {
	Community     string
	DefaultMap    string
	ASPathPattern string
	Exclude       ExclusionRules
}

func (p Policy) defaultMap() string {
	if p.DefaultMap == "" {
		return DefaultMapName
	}
	return p.DefaultMap
}

func (p Policy) asPathPattern() string {
	if p.ASPathPattern == "" {
		return DefaultASPathPattern
	}
	return p.ASPathPattern
}

// hasWord tells if list l contains a clause beginning with prefix,
// followed by word w somewhere in its arguments.
func hasWord(l []string, prefix, w string) bool {
	for _, c := range l {
		args, found := strings.CutPrefix(c, prefix+" ")
		if !found {
			continue
		}
		for _, a := range strings.Fields(args) {
			if a == w {
				return true
			}
		}
	}
	return false
}
