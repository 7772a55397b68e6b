package bgp

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var banner = strings.Repeat("*", 60)

// ChangePlan is the result of a run for one device.
type ChangePlan struct {
	Hostname string
	Lines    []string     // Commands to apply, in this order.
	Log      []string     // Human readable decisions.
	Peers    []PeerResult // One result for each neighbor in device order.
}

func (p *ChangePlan) logf(format string, args ...any) {
	p.Log = append(p.Log, p.Hostname+": "+fmt.Sprintf(format, args...))
}

func (p *ChangePlan) HasChanges() bool { return len(p.Lines) != 0 }

// Render returns the commands, one per line.
func (p *ChangePlan) Render() string {
	if len(p.Lines) == 0 {
		return ""
	}
	return strings.Join(p.Lines, "\n") + "\n"
}

func (p *ChangePlan) RenderLog() string {
	return strings.Join(p.Log, "\n") + "\n"
}

// Count returns the number of peers having one of given states.
func (p *ChangePlan) Count(l ...Status) int {
	n := 0
	for _, r := range p.Peers {
		if slices.Contains(l, r.Status) {
			n++
		}
	}
	return n
}

// Synthesize computes the commands needed on device s to tag routes to
// all eligible peers with the community of policy.
//
// Malformed tables and exhausted as-path access-list ids abort the run of
// this device; no partial plan is returned. A peer referencing an unknown
// route-map is only logged and left unchanged.
func Synthesize(s *Snapshot, policy Policy) (*ChangePlan, error) {
	plan := &ChangePlan{Hostname: s.Hostname}
	plan.Log = append(plan.Log, banner)
	if !s.HasBGP() {
		plan.logf("no BGP process found")
		plan.Log = append(plan.Log, banner)
		return plan, nil
	}
	peers, err := BuildPeers(s.Neighbors)
	if err != nil {
		return nil, err
	}
	// Prefixes are only counted, hence invalid ones are logged and ignored.
	var ignored []error
	count := func(l []string) int {
		n := 0
		for _, e := range l {
			if _, err := BuildPrefixes([]string{e}); err != nil {
				ignored = append(ignored, err)
			} else {
				n++
			}
		}
		return n
	}
	nets := count(s.Networks)
	aggs := count(s.Aggregates)
	kept, _, err := Eligible(peers, policy.Exclude)
	if err != nil {
		return nil, err
	}
	// Members of a peer-group get their outbound policy from the group.
	kept = slices.DeleteFunc(kept, func(p Peer) bool { return p.PeerGroup != "" })
	plan.logf("router bgp %s, %d neighbors, %d networks, %d aggregates",
		s.ASN, len(peers), nets, aggs)
	for _, err := range ignored {
		plan.logf("ignoring %v", err)
	}

	var ctx DeviceContext
	var declareACL []string
	if len(kept) > 0 {
		id, decl, err := AllocateASPathACL(s.ASPathACLs, policy.asPathPattern())
		if err != nil {
			return nil, err
		}
		declareACL = decl
		ctx = NewDeviceContext(s, policy, id)
	}
	var fragments []string
	for _, p := range peers {
		if !slices.Contains(kept, p) {
			res := PeerResult{Peer: p, Status: Skipped}
			if p.PeerGroup != "" {
				res.Reason = "member of peer-group " + p.PeerGroup
				plan.logf("peer %s skipped: %s", p.Addr, res.Reason)
			} else {
				plan.logf("peer %s skipped", p.Addr)
			}
			plan.Peers = append(plan.Peers, res)
			continue
		}
		var lines []string
		var res PeerResult
		ctx, lines, res, err = SynthesizePeer(ctx, p)
		if err != nil && !errors.Is(err, ErrRouteMapNotFound) {
			return nil, err
		}
		plan.Peers = append(plan.Peers, res)
		detail := string(res.Status)
		if res.Reason != "" {
			detail += ": " + res.Reason
		}
		plan.logf("peer %s, route-map: %s, %s", p.Addr, p.RouteMapOut, detail)
		fragments = append(fragments, lines...)
	}
	plan.Log = append(plan.Log, banner)

	// Declare new as-path access-list if some peer uses a route-map
	// matching it, even if that route-map already existed.
	if declareACL != nil &&
		plan.Count(Created, Bound, Extended, Compliant) > 0 {
		plan.Lines = append(plan.Lines, declareACL...)
	}
	plan.Lines = append(plan.Lines, fragments...)
	return plan, nil
}
