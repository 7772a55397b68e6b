package bgp

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// BuildPeers converts neighbor records of the device into typed peers.
// Order of records is kept. An empty table results in an empty list.
func BuildPeers(l []NeighborRecord) ([]Peer, error) {
	result := make([]Peer, 0, len(l))
	for _, r := range l {
		p, err := buildPeer(r)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

func buildPeer(r NeighborRecord) (Peer, error) {
	addr, err := netip.ParseAddr(r.PeerIP)
	if err != nil {
		return Peer{}, fmt.Errorf("%w: malformed peer address %q",
			ErrMalformedInput, r.PeerIP)
	}
	as, err := parseASN(r.RemoteAS)
	if err != nil {
		return Peer{}, fmt.Errorf("%w: neighbor %s: %v",
			ErrMalformedInput, r.PeerIP, err)
	}
	p := Peer{
		Addr:          addr,
		RemoteAS:      as,
		Description:   r.Description,
		RouteMapIn:    r.RouteMapIn,
		SendCommunity: r.SendCommunity,
		PeerGroup:     r.PeerGroup,
	}
	if r.RouteMapOut != "" {
		p.RouteMapOut = RouteMap(r.RouteMapOut)
	}
	return p, nil
}

// Parse AS number in asplain or asdot notation.
// Remote-as may be missing for members of a peer-group.
func parseASN(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	if hi, lo, found := strings.Cut(s, "."); found {
		h, err1 := strconv.ParseUint(hi, 10, 16)
		l, err2 := strconv.ParseUint(lo, 10, 16)
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("invalid remote-as %q", s)
		}
		return uint32(h<<16 | l), nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid remote-as %q", s)
	}
	return uint32(n), nil
}

// BuildPrefixes converts entries of "network" and "aggregate-address"
// commands into prefixes. An entry is either "ADDR MASK" or a classful
// "ADDR".
func BuildPrefixes(l []string) ([]netip.Prefix, error) {
	var result []netip.Prefix
	for _, e := range l {
		p, err := parseNetMask(e)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		result = append(result, p)
	}
	return result, nil
}

func parseNetMask(s string) (netip.Prefix, error) {
	a, m, hasMask := strings.Cut(s, " ")
	addr, err := netip.ParseAddr(a)
	if err != nil || !addr.Is4() {
		return netip.Prefix{}, fmt.Errorf("invalid network %q", s)
	}
	bits := classfulBits(addr)
	if hasMask {
		mask, err := netip.ParseAddr(m)
		if err != nil || !mask.Is4() {
			return netip.Prefix{}, fmt.Errorf("invalid mask in %q", s)
		}
		b := mask.As4()
		v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		bits = 0
		for v&(1<<31) != 0 {
			bits++
			v <<= 1
		}
		if v != 0 {
			return netip.Prefix{}, fmt.Errorf("non contiguous mask in %q", s)
		}
	}
	return addr.Prefix(bits)
}

func classfulBits(a netip.Addr) int {
	switch b := a.As4()[0]; {
	case b < 128:
		return 8
	case b < 192:
		return 16
	default:
		return 24
	}
}
