package cisco

import (
	"github.com/hknutzen/bgp-route-mapper/pkg/bgp"
)

// Convert parsed commands into tables of BGP state.
// Multiple lines of a neighbor are joined into a single record.
func toSnapshot(l []*cmd) *bgp.Snapshot {
	s := &bgp.Snapshot{}
	for _, c := range l {
		switch c.typ.prefix {
		case "router bgp":
			if s.ASN == "" {
				s.ASN = c.name
				addBGPProcess(s, c)
			}
		case "route-map":
			e := bgp.RouteMapEntry{
				Name:   c.name,
				Seq:    c.seq,
				Action: bgp.Action(c.typ.template[1]),
			}
			if len(c.typ.template) == 2 {
				e.Seq = 10
			}
			for _, sc := range c.sub {
				arg := sc.args[0]
				switch sc.typ.template[0] {
				case "match":
					e.Match = append(e.Match, arg)
				case "set":
					e.Set = append(e.Set, arg)
				}
			}
			s.RouteMaps = append(s.RouteMaps, e)
		case "ip as-path access-list":
			s.ASPathACLs = append(s.ASPathACLs, bgp.ASPathACL{
				ID:      c.seq,
				Action:  bgp.Action(c.typ.template[1]),
				Pattern: c.args[0],
			})
		}
	}
	return s
}

func addBGPProcess(s *bgp.Snapshot, c *cmd) {
	var order []string
	records := make(map[string]*bgp.NeighborRecord)
	groups := make(map[string]bool)
	get := func(addr string) *bgp.NeighborRecord {
		r := records[addr]
		if r == nil {
			r = &bgp.NeighborRecord{PeerIP: addr}
			records[addr] = r
			order = append(order, addr)
		}
		return r
	}
	for _, sc := range c.sub {
		t := sc.typ.template
		a := sc.args
		switch t[0] {
		case "network":
			if len(a) >= 2 && t[2] == "mask" {
				s.Networks = append(s.Networks, a[0]+" "+a[1])
			} else {
				s.Networks = append(s.Networks, a[0])
			}
		case "aggregate-address":
			s.Aggregates = append(s.Aggregates, a[0]+" "+a[1])
		case "neighbor":
			addr := a[0]
			switch t[2] {
			case "peer-group":
				if len(a) > 1 {
					get(addr).PeerGroup = a[1]
				} else {
					groups[addr] = true
				}
			case "remote-as":
				get(addr).RemoteAS = a[1]
			case "description":
				get(addr).Description = a[1]
			case "route-map":
				if t[4] == "out" {
					get(addr).RouteMapOut = a[1]
				} else {
					get(addr).RouteMapIn = a[1]
				}
			case "send-community":
				v := "standard"
				if len(a) > 1 {
					v = a[1]
				}
				get(addr).SendCommunity = v
			}
		}
	}
	// Peer-groups only define values for their members.
	for _, addr := range order {
		if !groups[addr] {
			s.Neighbors = append(s.Neighbors, *records[addr])
		}
	}
}
