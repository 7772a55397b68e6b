package bgp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizePeerKeepsContext(t *testing.T) {
	s := &Snapshot{
		ASN: "65000",
		RouteMaps: []RouteMapEntry{
			{Name: "ATT_OUT", Seq: 10, Action: Permit},
		},
	}
	ctx := NewDeviceContext(s, policy, 7)
	assert.Equal(t, 7, ctx.ACLID())

	p1 := peer("10.1.1.1")
	ctx1, l1, r1, err := SynthesizePeer(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, Created, r1.Status)
	assert.Len(t, l1, 7)

	// Context given as argument is unchanged.
	_, l2, r2, err := SynthesizePeer(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, Created, r2.Status)
	assert.Equal(t, l1, l2)

	// Returned context knows about declared route-map.
	_, l3, r3, err := SynthesizePeer(ctx1, peer("10.2.2.2"))
	require.NoError(t, err)
	assert.Equal(t, Bound, r3.Status)
	assert.Equal(t, []string{
		"router bgp 65000",
		" neighbor 10.2.2.2 route-map COMMUNITY_OUT out",
		" neighbor 10.2.2.2 send-community both",
	}, l3)

	p4 := peer("22.2.2.2")
	p4.RouteMapOut = RouteMap("ATT_OUT")
	ctx4, l4, _, err := SynthesizePeer(ctx1, p4)
	require.NoError(t, err)
	assert.Equal(t, "route-map ATT_OUT permit 10", l4[0])
	assert.Empty(t, ctx1.extended)
	assert.Equal(t, []string{"ATT_OUT 10"}, ctx4.extended)
}

func TestSynthesizePeerRouteMapNotFound(t *testing.T) {
	s := &Snapshot{ASN: "65000"}
	ctx := NewDeviceContext(s, policy, 1)
	p := peer("33.3.3.3")
	p.RouteMapOut = RouteMap("BADMAP")
	ctx2, lines, res, err := SynthesizePeer(ctx, p)
	require.ErrorIs(t, err, ErrRouteMapNotFound)
	assert.Nil(t, lines)
	assert.Equal(t, Failed, res.Status)
	assert.Equal(t, "no permit entry in route-map BADMAP", res.Reason)
	assert.Equal(t, ctx, ctx2)
}
