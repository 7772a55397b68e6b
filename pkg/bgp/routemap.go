package bgp

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type Status string

const (
	Skipped   Status = "skipped"
	Created   Status = "created"
	Bound     Status = "bound"
	Extended  Status = "extended"
	Compliant Status = "compliant"
	Failed    Status = "failed"
)

type PeerResult struct {
	Peer   Peer
	Status Status
	Reason string
}

// DeviceContext carries everything needed to synthesize the commands for
// the peers of one device. It is never changed in place; methods return
// an updated copy.
type DeviceContext struct {
	asn        string
	community  string
	defaultMap string
	aclID      int
	routeMaps  []RouteMapEntry
	// Default route-map is present on device or was already declared
	// in this run.
	haveDefault bool
	// "NAME SEQ" of route-map entries already extended in this run.
	extended []string
}

func NewDeviceContext(s *Snapshot, p Policy, aclID int) DeviceContext {
	ctx := DeviceContext{
		asn:        s.ASN,
		community:  p.Community,
		defaultMap: p.defaultMap(),
		aclID:      aclID,
		routeMaps:  s.RouteMaps,
	}
	ctx.haveDefault = ctx.defaultMapPresent()
	return ctx
}

func (ctx DeviceContext) ACLID() int { return ctx.aclID }

// Check that device already has the default route-map with matching
// entries.
func (ctx DeviceContext) defaultMapPresent() bool {
	var permit, deny bool
	for _, e := range ctx.routeMaps {
		if e.Name != ctx.defaultMap {
			continue
		}
		switch {
		case e.Seq == 10 && e.Action == Permit:
			permit = ctx.matchesACL(e) && ctx.setsCommunity(e)
		case e.Seq == 20 && e.Action == Deny:
			deny = true
		}
	}
	return permit && deny
}

func (ctx DeviceContext) matchesACL(e RouteMapEntry) bool {
	return hasWord(e.Match, "as-path", strconv.Itoa(ctx.aclID))
}

func (ctx DeviceContext) setsCommunity(e RouteMapEntry) bool {
	for _, c := range e.Set {
		args, found := strings.CutPrefix(c, "community ")
		if !found {
			continue
		}
		words := strings.Fields(args)
		if slices.Contains(words, ctx.community) &&
			slices.Contains(words, "additive") {
			return true
		}
	}
	return false
}

func (ctx DeviceContext) isExtended(key string) bool {
	return slices.Contains(ctx.extended, key)
}

func (ctx DeviceContext) withExtended(key string) DeviceContext {
	ctx.extended = append(slices.Clip(ctx.extended), key)
	return ctx
}

// permitEntry finds the last permit entry of route-map name in order
// of device configuration.
func (ctx DeviceContext) permitEntry(name string) (RouteMapEntry, bool) {
	for _, e := range slices.Backward(ctx.routeMaps) {
		if e.Name == name && e.Action == Permit {
			return e, true
		}
	}
	return RouteMapEntry{}, false
}

func (ctx DeviceContext) setCommunityCmd() string {
	return fmt.Sprintf(" set community %s additive", ctx.community)
}

func (ctx DeviceContext) matchACLCmd() string {
	return fmt.Sprintf(" match as-path %d", ctx.aclID)
}

func (ctx DeviceContext) declareDefaultMap() []string {
	return []string{
		fmt.Sprintf("route-map %s permit 10", ctx.defaultMap),
		ctx.matchACLCmd(),
		ctx.setCommunityCmd(),
		fmt.Sprintf("route-map %s deny 20", ctx.defaultMap),
	}
}

func (ctx DeviceContext) neighborCmds(p Peer, bind bool) []string {
	var l []string
	if bind {
		l = append(l,
			fmt.Sprintf(" neighbor %s route-map %s out", p.Addr, ctx.defaultMap))
	}
	if !p.SendsAllCommunities() {
		l = append(l, fmt.Sprintf(" neighbor %s send-community both", p.Addr))
	}
	if l == nil {
		return nil
	}
	return append([]string{"router bgp " + ctx.asn}, l...)
}

// SynthesizePeer returns the commands needed to tag routes advertised to
// peer p with the community. The returned context records commands that
// must not be repeated for other peers of the same device.
func SynthesizePeer(ctx DeviceContext, p Peer) (
	DeviceContext, []string, PeerResult, error) {

	res := PeerResult{Peer: p}
	name, found := p.RouteMapOut.Name()
	if !found {
		var lines []string
		res.Status = Bound
		res.Reason = "route-map " + ctx.defaultMap
		if !ctx.haveDefault {
			lines = ctx.declareDefaultMap()
			ctx.haveDefault = true
			res.Status = Created
		}
		lines = append(lines, ctx.neighborCmds(p, true)...)
		return ctx, lines, res, nil
	}

	e, found := ctx.permitEntry(name)
	if !found {
		res.Status = Failed
		res.Reason = "no permit entry in route-map " + name
		return ctx, nil, res,
			fmt.Errorf("%w: peer %s: %s", ErrRouteMapNotFound, p.Addr, res.Reason)
	}
	var lines []string
	res.Reason = "send-community"
	key := name + " " + strconv.Itoa(e.Seq)
	if !ctx.isExtended(key) {
		var add []string
		if !ctx.matchesACL(e) {
			add = append(add, ctx.matchACLCmd())
		}
		if !ctx.setsCommunity(e) {
			add = append(add, ctx.setCommunityCmd())
		}
		if add != nil {
			lines = append(lines, fmt.Sprintf("route-map %s permit %d", name, e.Seq))
			lines = append(lines, add...)
			ctx = ctx.withExtended(key)
			res.Reason = fmt.Sprintf("sequence %d", e.Seq)
		}
	}
	lines = append(lines, ctx.neighborCmds(p, false)...)
	res.Status = Extended
	if lines == nil {
		res.Status = Compliant
		res.Reason = ""
	}
	return ctx, lines, res, nil
}
